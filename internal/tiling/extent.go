package tiling

import "math"

// Extent is an axis-aligned rectangle in a planar CRS.
type Extent struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

func (e Extent) Width() float64 {
	return e.XMax - e.XMin
}

func (e Extent) Height() float64 {
	return e.YMax - e.YMin
}

// Intersect returns the overlap of e and o. The result may be degenerate,
// check it with IsEmpty before using it.
func (e Extent) Intersect(o Extent) Extent {
	return Extent{
		XMin: math.Max(e.XMin, o.XMin),
		YMin: math.Max(e.YMin, o.YMin),
		XMax: math.Min(e.XMax, o.XMax),
		YMax: math.Min(e.YMax, o.YMax),
	}
}

// IsEmpty reports whether e has no area.
func (e Extent) IsEmpty() bool {
	return e.XMin >= e.XMax || e.YMin >= e.YMax
}

// Contains reports whether o lies entirely inside e. Shared edges count as inside.
func (e Extent) Contains(o Extent) bool {
	return o.XMin >= e.XMin && o.XMax <= e.XMax && o.YMin >= e.YMin && o.YMax <= e.YMax
}
