package tiling

import (
	"context"
	"fmt"
)

const (
	// NoData is the band 1 value rendered transparent.
	NoData uint8 = 0

	ColorBands = 3
	AlphaBand  = 4
	Bands      = 4

	opaque      uint8 = 255
	transparent uint8 = 0
)

// BandReader reads one band of a window, resampled to outWidth x outHeight.
// Bands are numbered from 1. The resampling method is up to the implementation.
type BandReader interface {
	ReadBandWindow(band int, window Window, outWidth, outHeight int) ([]uint8, error)
}

// Dataset is an opened raster.
type Dataset interface {
	BandReader
	Geometry() RasterGeometry
	Close() error
}

// RasterSource opens rasters by identifier.
type RasterSource interface {
	Open(ctx context.Context, id string) (Dataset, error)
}

// Target is a fixed-size multi-band image being assembled.
type Target interface {
	WriteBand(band int, placement Placement, buf []uint8) error
}

// Encoder creates targets and serialises them.
type Encoder interface {
	CreateTarget(width, height, bands int) (Target, error)
	Encode(target Target) ([]byte, error)
	ContentType() string
}

// Composite builds a width x height RGBA target with the resolved window drawn
// at its placement. Pixels outside the placement stay fully transparent.
func Composite(src BandReader, enc Encoder, res Resolution, width, height int) (Target, error) {
	p := res.Placement

	target, err := enc.CreateTarget(width, height, Bands)
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}

	alpha := make([]uint8, p.Width*p.Height)
	for i := range alpha {
		alpha[i] = opaque
	}

	for band := 1; band <= ColorBands; band++ {
		buf, err := src.ReadBandWindow(band, res.Window, p.Width, p.Height)
		if err != nil {
			return nil, fmt.Errorf("read band %d: %w", band, err)
		}
		if len(buf) != len(alpha) {
			return nil, fmt.Errorf("read band %d: got %d samples, want %d", band, len(buf), len(alpha))
		}

		if band == 1 {
			for i, v := range buf {
				if v == NoData {
					alpha[i] = transparent
				}
			}
		}

		if err := target.WriteBand(band, p, buf); err != nil {
			return nil, fmt.Errorf("write band %d: %w", band, err)
		}
	}

	if err := target.WriteBand(AlphaBand, p, alpha); err != nil {
		return nil, fmt.Errorf("write alpha band: %w", err)
	}

	return target, nil
}
