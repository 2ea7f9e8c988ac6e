// Package filter holds the uncommitted state of the search filter bar and
// turns it into listings.SearchParams on submit.
//
// Numeric inputs that are empty, unparsable, non-finite or zero are dropped
// from the submitted params instead of being sent as 0: clearing a field
// relaxes the constraint. No min/max or bounds validation happens here.
package filter

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/yourorg/propfair-web/internal/canon"
	"github.com/yourorg/propfair-web/listings"
)

type Field string

const (
	City         Field = "city"
	Neighborhood Field = "neighborhood"
	MinPrice     Field = "min_price"
	MaxPrice     Field = "max_price"
	Bedrooms     Field = "bedrooms"
	Bathrooms    Field = "bathrooms"
	MinArea      Field = "min_area"
	MaxArea      Field = "max_area"
	Estrato      Field = "estrato"
	Page         Field = "page"
	PageSize     Field = "page_size"
)

// Fields lists every field the form accepts, in wire order.
var Fields = []Field{City, Neighborhood, MinPrice, MaxPrice, Bedrooms, Bathrooms, MinArea, MaxArea, Estrato, Page, PageSize}

type Option struct {
	Value string
	Label string
}

var (
	BedroomOptions = []Option{{"1", "1+"}, {"2", "2+"}, {"3", "3+"}, {"4", "4+"}}
	EstratoOptions = []Option{{"1", "1"}, {"2", "2"}, {"3", "3"}, {"4", "4"}, {"5", "5"}, {"6", "6"}}
)

// Form is not safe for concurrent use; sessions guard it.
type Form struct {
	values map[Field]string
}

// New returns a form with the city preset to defaultCity.
func New(defaultCity string) *Form {
	f := &Form{values: make(map[Field]string, len(Fields))}
	if defaultCity != "" {
		f.values[City] = defaultCity
	}
	return f
}

// FromValues loads a posted HTML form. Keys that are not form fields are
// ignored; a posted empty city keeps the preset.
func FromValues(defaultCity string, v url.Values) *Form {
	f := New(defaultCity)
	for _, field := range Fields {
		raw, ok := v[string(field)]
		if !ok || len(raw) == 0 {
			continue
		}
		if field == City && strings.TrimSpace(raw[0]) == "" {
			continue
		}
		f.Set(field, raw[0])
	}
	return f
}

// Set stores the raw text of one field. It reports false for unknown fields.
func (f *Form) Set(field Field, raw string) bool {
	if !known(field) {
		return false
	}
	f.values[field] = raw
	return true
}

// Value is the raw text last set for field, for re-rendering the input.
func (f *Form) Value(field Field) string {
	return f.values[field]
}

func (f *Form) Clone() *Form {
	c := &Form{values: make(map[Field]string, len(f.values))}
	for k, v := range f.values {
		c.values[k] = v
	}
	return c
}

// Snapshot builds the params the current field values describe. The result
// shares nothing with the form.
func (f *Form) Snapshot() listings.SearchParams {
	return listings.SearchParams{
		City:         text(f.values[City]),
		Neighborhood: text(f.values[Neighborhood]),
		MinPrice:     int64Field(f.values[MinPrice]),
		MaxPrice:     int64Field(f.values[MaxPrice]),
		Bedrooms:     intField(f.values[Bedrooms]),
		Bathrooms:    intField(f.values[Bathrooms]),
		MinArea:      floatField(f.values[MinArea]),
		MaxArea:      floatField(f.values[MaxArea]),
		Estrato:      intField(f.values[Estrato]),
		Page:         intField(f.values[Page]),
		PageSize:     intField(f.values[PageSize]),
	}
}

// Submit hands the snapshot to onSearch and returns; it does not wait for
// the search to finish.
func (f *Form) Submit(onSearch func(listings.SearchParams)) {
	if onSearch == nil {
		return
	}
	onSearch(f.Snapshot())
}

// SubmitLabel is the submit button text for the externally supplied loading
// flag; the button is disabled exactly while loading.
func SubmitLabel(loading bool) string {
	if loading {
		return "Buscando..."
	}
	return "Buscar"
}

func known(field Field) bool {
	for _, f := range Fields {
		if f == field {
			return true
		}
	}
	return false
}

func text(raw string) *string {
	v := canon.Text(raw)
	if v == "" {
		return nil
	}
	return &v
}

// number parses raw the way a numeric input would: empty, garbage, NaN,
// infinities and zero are all "no value".
func number(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return 0, false
	}
	return v, true
}

func int64Field(raw string) *int64 {
	v, ok := number(raw)
	if !ok || v != math.Trunc(v) || math.Abs(v) > 1<<53 {
		return nil
	}
	i := int64(v)
	return &i
}

func intField(raw string) *int {
	p := int64Field(raw)
	if p == nil || *p > math.MaxInt32 || *p < math.MinInt32 {
		return nil
	}
	i := int(*p)
	return &i
}

func floatField(raw string) *float64 {
	v, ok := number(raw)
	if !ok {
		return nil
	}
	return &v
}
