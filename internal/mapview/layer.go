package mapview

import "github.com/yourorg/propfair-web/listings"

// RGBA color, one byte per channel.
type Color [4]uint8

var (
	SelectedColor = Color{59, 130, 246, 255}
	DefaultColor  = Color{16, 185, 129, 200}
)

const (
	SelectedRadius  = 150 // meters
	DefaultRadius   = 100
	RadiusMinPixels = 8
	RadiusMaxPixels = 20
)

// Point is one listing drawn on the map.
type Point struct {
	ID       string
	Position [2]float64 // [lng, lat]
	Radius   float64
	Color    Color
	Selected bool
}

// Points derives one point per listing. The selection is an id match
// against selectedID only; nothing is remembered here.
func Points(items []listings.Listing, selectedID string) []Point {
	out := make([]Point, 0, len(items))
	for _, l := range items {
		p := Point{
			ID:       l.ID,
			Position: [2]float64{l.Longitude, l.Latitude},
			Radius:   DefaultRadius,
			Color:    DefaultColor,
		}
		if selectedID != "" && l.ID == selectedID {
			p.Radius = SelectedRadius
			p.Color = SelectedColor
			p.Selected = true
		}
		out = append(out, p)
	}
	return out
}

// Pick resolves a clicked feature id back to its listing. The browser layer
// does the actual hit test and reports the topmost feature.
func Pick(items []listings.Listing, id string) (listings.Listing, bool) {
	for _, l := range items {
		if l.ID == id {
			return l, true
		}
	}
	return listings.Listing{}, false
}
