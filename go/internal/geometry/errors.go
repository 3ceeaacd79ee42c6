package geometry

import "fmt"

// ResolutionError is returned when a bbox is too small to render at the
// requested zoom level.
type ResolutionError struct {
	MaxZoom int
	BBox    BBox
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("bbox %v is not valid for zoom level %d", e.BBox, e.MaxZoom)
}

// GeometryError is returned when a bbox cannot be converted into a polygon.
type GeometryError struct {
	BBox   BBox
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("invalid bbox %v: %s", e.BBox, e.Reason)
}

// AreaLimitExceededError is returned when a polygon's area exceeds the
// configured export limit.
type AreaLimitExceededError struct {
	Area  float64
	Limit float64
}

func (e *AreaLimitExceededError) Error() string {
	return fmt.Sprintf("bbox area %.0f sq meters exceeds the limit of %.0f sq meters", e.Area, e.Limit)
}
