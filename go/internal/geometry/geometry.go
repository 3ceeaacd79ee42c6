package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// BBox is an axis-aligned rectangle in WGS84 degrees: [minX, minY, maxX, maxY].
type BBox [4]float64

func (b BBox) MinX() float64 { return b[0] }
func (b BBox) MinY() float64 { return b[1] }
func (b BBox) MaxX() float64 { return b[2] }
func (b BBox) MaxY() float64 { return b[3] }

func (b BBox) Width() float64  { return b[2] - b[0] }
func (b BBox) Height() float64 { return b[3] - b[1] }

// zoomResolutions maps a zoom level to the ground resolution in degrees
// per pixel, assuming 256px tiles and two tiles across at zoom 0.
var zoomResolutions = buildZoomResolutions(23)

func buildZoomResolutions(levels int) []float64 {
	res := make([]float64, levels)
	for z := range res {
		res[z] = 0.703125 / math.Pow(2, float64(z))
	}
	return res
}

// MaxZoom is the highest zoom level the resolution table covers.
const MaxZoom = 22

// ValidateResolution checks that the bbox spans at least one pixel at the
// requested zoom level. A bbox narrower than the ground resolution at
// maxZoom would demand output finer than the tile grid can represent.
func ValidateResolution(maxZoom int, bbox BBox) error {
	if maxZoom < 0 || maxZoom > MaxZoom {
		return &ResolutionError{MaxZoom: maxZoom, BBox: bbox}
	}
	res := zoomResolutions[maxZoom]
	if bbox.Width() < res || bbox.Height() < res {
		return &ResolutionError{MaxZoom: maxZoom, BBox: bbox}
	}
	return nil
}

// ToPolygon converts a bbox into a closed rectangular ring wound
// counter-clockwise, starting and ending at the south-west corner.
func ToPolygon(bbox BBox) (orb.Polygon, error) {
	for _, c := range bbox {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, &GeometryError{BBox: bbox, Reason: "non-finite coordinate"}
		}
	}
	if bbox.MinX() >= bbox.MaxX() || bbox.MinY() >= bbox.MaxY() {
		return nil, &GeometryError{BBox: bbox, Reason: "degenerate bbox"}
	}

	ring := orb.Ring{
		{bbox.MinX(), bbox.MinY()},
		{bbox.MaxX(), bbox.MinY()},
		{bbox.MaxX(), bbox.MaxY()},
		{bbox.MinX(), bbox.MaxY()},
		{bbox.MinX(), bbox.MinY()},
	}
	return orb.Polygon{ring}, nil
}

// ValidateArea computes the polygon's geodesic area on the WGS84 sphere
// (square meters) and rejects it when it exceeds the configured limit.
func ValidateArea(polygon orb.Polygon, limitSqMeters float64) error {
	area := geo.Area(polygon)
	if area > limitSqMeters {
		return &AreaLimitExceededError{Area: area, Limit: limitSqMeters}
	}
	return nil
}
