// Package card renders one listing as a clickable result card.
package card

import (
	"embed"
	"html/template"
	"io"
	"strconv"

	"github.com/yourorg/propfair-web/listings"
)

// TemplateFS carries the "card" template definition so page templates can
// parse it into their own set and call {{template "card" .}}.
//
//go:embed templates/*.html
var TemplateFS embed.FS

const TemplatePattern = "templates/*.html"

var templates = template.Must(template.New("card.html").ParseFS(TemplateFS, TemplatePattern))

const Placeholder = "Sin imagen"

// Model is everything the card template needs. Optional parts are empty
// strings when the listing has no value for them.
type Model struct {
	ID           string
	Title        string
	Location     string
	Price        string
	AdminFee     string
	EstratoBadge string
	Bedrooms     int
	Bathrooms    int
	Parking      int
	Area         string
	ImageURL     string
	Selected     bool
}

// Build derives the card model of l. selected is decided by the caller from
// the page selection.
func Build(l listings.Listing, selected bool) Model {
	m := Model{
		ID:        l.ID,
		Title:     l.Title,
		Location:  l.Neighborhood + ", " + l.City,
		Price:     FormatPrice(l.Price),
		Bedrooms:  l.Bedrooms,
		Bathrooms: l.Bathrooms,
		Parking:   l.ParkingSpaces,
		Area:      strconv.FormatFloat(l.Area, 'f', -1, 64) + "m²",
		Selected:  selected,
	}
	if l.AdminFee != nil && *l.AdminFee != 0 {
		m.AdminFee = FormatPrice(*l.AdminFee)
	}
	if l.Estrato != nil && *l.Estrato != 0 {
		m.EstratoBadge = "Estrato " + strconv.Itoa(*l.Estrato)
	}
	if len(l.Images) > 0 && l.Images[0] != "" {
		m.ImageURL = l.Images[0]
	}
	return m
}

// BuildAll keeps the order of items.
func BuildAll(items []listings.Listing, selectedID string) []Model {
	out := make([]Model, 0, len(items))
	for _, l := range items {
		out = append(out, Build(l, selectedID != "" && l.ID == selectedID))
	}
	return out
}

func Render(w io.Writer, m Model) error {
	return templates.ExecuteTemplate(w, "card", m)
}
