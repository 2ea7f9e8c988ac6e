package listings

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestEncodeEmpty(t *testing.T) {
	assert.Equal(t, "", SearchParams{}.Encode())
}

func TestEncodeKeepsFieldOrderAndSkipsAbsent(t *testing.T) {
	p := SearchParams{
		City:     ptr("Bogotá"),
		MinPrice: ptr(int64(1000000)),
		MaxPrice: ptr(int64(5000000)),
		Bedrooms: ptr(2),
	}
	want := "city=" + url.QueryEscape("Bogotá") + "&min_price=1000000&max_price=5000000&bedrooms=2"
	assert.Equal(t, want, p.Encode())

	q, err := url.ParseQuery(p.Encode())
	assert.NoError(t, err)
	assert.Equal(t, "Bogotá", q.Get("city"))
	assert.NotContains(t, q, "page")
	assert.NotContains(t, q, "estrato")
}

func TestEncodePlainNumberForms(t *testing.T) {
	p := SearchParams{
		MinArea:  ptr(45.5),
		MaxArea:  ptr(120.0),
		Estrato:  ptr(4),
		Page:     ptr(2),
		PageSize: ptr(20),
	}
	assert.Equal(t, "min_area=45.5&max_area=120&estrato=4&page=2&page_size=20", p.Encode())
}

func TestEncodeEscapesText(t *testing.T) {
	p := SearchParams{Neighborhood: ptr("Chapinero Alto")}
	assert.Equal(t, "neighborhood=Chapinero+Alto", p.Encode())
}

func TestParseQueryRoundTrip(t *testing.T) {
	p := SearchParams{
		City:      ptr("Medellín"),
		Bathrooms: ptr(2),
		MinArea:   ptr(60.25),
		Estrato:   ptr(3),
	}
	q, err := url.ParseQuery(p.Encode())
	assert.NoError(t, err)
	assert.Equal(t, p, ParseQuery(q))
}

func TestParseQueryDropsGarbage(t *testing.T) {
	q := url.Values{
		"min_price": {"abc"},
		"min_area":  {"NaN"},
		"bedrooms":  {""},
		"city":      {"   "},
	}
	assert.Equal(t, SearchParams{}, ParseQuery(q))
}
