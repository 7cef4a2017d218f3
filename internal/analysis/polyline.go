package analysis

import (
	polyline "github.com/twpayne/go-polyline"

	"github.com/portomove/wcoroute/internal/model"
)

// EncodeStopPolyline encodes a trip's ordered stop coordinates (depot
// markers included) into the standard Google polyline format, the
// hand-off artifact the out-of-scope map-rendering collaborator
// consumes in place of raw coordinate pairs.
func EncodeStopPolyline(stops []model.StopInfo) string {
	if len(stops) == 0 {
		return ""
	}
	coords := make([][]float64, len(stops))
	for i, s := range stops {
		coords[i] = []float64{s.Coordinates.Lat, s.Coordinates.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}
