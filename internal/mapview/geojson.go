package mapview

import (
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Feature property keys read by the browser circle layer. All values are
// scalars; the map library does not keep nested arrays in properties.
const (
	PropID              = "id"
	PropRadius          = "radius"
	PropColor           = "color"
	PropSelected        = "selected"
	PropRadiusMinPixels = "radius_min_pixels"
	PropRadiusMaxPixels = "radius_max_pixels"
)

// CSS renders the color as an rgba() string with alpha in 0..1.
func (c Color) CSS() string {
	alpha := strconv.FormatFloat(float64(c[3])/255, 'f', 3, 64)
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c[0], c[1], c[2], alpha)
}

// NewFeatureCollection builds the GeoJSON document the browser point layer
// loads. An empty input gives an empty features array, never null.
func NewFeatureCollection(points []Point) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(points))}
	for _, p := range points {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       p.ID,
			Geometry: geom.NewPointFlat(geom.XY, []float64{p.Position[0], p.Position[1]}),
			Properties: map[string]interface{}{
				PropID:              p.ID,
				PropRadius:          p.Radius,
				PropColor:           p.Color.CSS(),
				PropSelected:        p.Selected,
				PropRadiusMinPixels: RadiusMinPixels,
				PropRadiusMaxPixels: RadiusMaxPixels,
			},
		})
	}
	return fc
}
