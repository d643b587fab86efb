// Package raster opens georeferenced images from a directory and serves
// resampled band windows out of them.
package raster

import (
	"fmt"

	"golang.org/x/image/draw"
)

const (
	ResamplingNearest    = "nearest"
	ResamplingBilinear   = "bilinear"
	ResamplingCatmullRom = "catmullrom"
)

// ParseResampling maps a resampling name to its interpolator.
func ParseResampling(name string) (draw.Interpolator, error) {
	switch name {
	case ResamplingNearest, "":
		return draw.NearestNeighbor, nil
	case ResamplingBilinear:
		return draw.ApproxBiLinear, nil
	case ResamplingCatmullRom:
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown resampling %q", name)
	}
}
