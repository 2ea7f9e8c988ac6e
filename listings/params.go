package listings

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// SearchParams is a client-side filter. A nil field imposes no constraint
// and is never sent.
type SearchParams struct {
	City         *string  `json:"city,omitempty"`
	Neighborhood *string  `json:"neighborhood,omitempty"`
	MinPrice     *int64   `json:"min_price,omitempty"`
	MaxPrice     *int64   `json:"max_price,omitempty"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *int     `json:"bathrooms,omitempty"`
	MinArea      *float64 `json:"min_area,omitempty"`
	MaxArea      *float64 `json:"max_area,omitempty"`
	Estrato      *int     `json:"estrato,omitempty"`
	Page         *int     `json:"page,omitempty"`
	PageSize     *int     `json:"page_size,omitempty"`
}

type queryParam struct {
	key string
	val string
}

// pairs lists the present fields in wire order.
func (p SearchParams) pairs() []queryParam {
	var out []queryParam
	addStr := func(k string, v *string) {
		if v != nil {
			out = append(out, queryParam{k, *v})
		}
	}
	addInt := func(k string, v *int) {
		if v != nil {
			out = append(out, queryParam{k, strconv.Itoa(*v)})
		}
	}
	addInt64 := func(k string, v *int64) {
		if v != nil {
			out = append(out, queryParam{k, strconv.FormatInt(*v, 10)})
		}
	}
	addFloat := func(k string, v *float64) {
		if v != nil {
			out = append(out, queryParam{k, strconv.FormatFloat(*v, 'f', -1, 64)})
		}
	}
	addStr("city", p.City)
	addStr("neighborhood", p.Neighborhood)
	addInt64("min_price", p.MinPrice)
	addInt64("max_price", p.MaxPrice)
	addInt("bedrooms", p.Bedrooms)
	addInt("bathrooms", p.Bathrooms)
	addFloat("min_area", p.MinArea)
	addFloat("max_area", p.MaxArea)
	addInt("estrato", p.Estrato)
	addInt("page", p.Page)
	addInt("page_size", p.PageSize)
	return out
}

// Encode renders the present fields as a query string, keeping field order
// stable (url.Values would sort the keys). All-absent params encode to "".
func (p SearchParams) Encode() string {
	var b strings.Builder
	for i, kv := range p.pairs() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.val))
	}
	return b.String()
}

// ParseQuery is the inverse of Encode for the JSON proxy route: unknown keys
// are ignored and unparsable numbers are treated as absent.
func ParseQuery(q url.Values) SearchParams {
	var p SearchParams
	str := func(k string) *string {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return &v
		}
		return nil
	}
	num := func(k string) *int {
		if i, err := strconv.Atoi(q.Get(k)); err == nil {
			return &i
		}
		return nil
	}
	num64 := func(k string) *int64 {
		if i, err := strconv.ParseInt(q.Get(k), 10, 64); err == nil {
			return &i
		}
		return nil
	}
	flt := func(k string) *float64 {
		if f, err := strconv.ParseFloat(q.Get(k), 64); err == nil && !isNaNOrInf(f) {
			return &f
		}
		return nil
	}
	p.City = str("city")
	p.Neighborhood = str("neighborhood")
	p.MinPrice = num64("min_price")
	p.MaxPrice = num64("max_price")
	p.Bedrooms = num("bedrooms")
	p.Bathrooms = num("bathrooms")
	p.MinArea = flt("min_area")
	p.MaxArea = flt("max_area")
	p.Estrato = num("estrato")
	p.Page = num("page")
	p.PageSize = num("page_size")
	return p
}

func isNaNOrInf(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
