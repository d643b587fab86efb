package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/jaennil/guide_helper/backend/rastertiles/internal/tiling"
)

const (
	tiffLittleEndian  = 0x4949 // "II"
	tiffBigEndian     = 0x4D4D // "MM"
	tiffIdentifier    = 42
	bigTiffIdentifier = 43

	tagModelPixelScale     = 33550
	tagModelTiepoint       = 33922
	tagModelTransformation = 34264
	tagGeoKeyDirectory     = 34735

	geoKeyRasterType        = 1025
	geoKeyGeographicType    = 2048
	geoKeyProjectedCSType   = 3072
	rasterPixelIsPoint      = 2
	geoKeyUserDefined       = 32767
	tiffTypeShort           = 3
	tiffTypeDouble          = 12
	maxGeoTagValues         = 1 << 16
	classicIFDEntryLen      = 12
	classicInlineValueBytes = 4
)

// errNoGeoTags reports a file that is not a classic TIFF or carries no model
// georeferencing tags.
var errNoGeoTags = errors.New("no geotiff tags")

// GeoTags are the georeferencing tags of the first IFD of a GeoTIFF.
type GeoTags struct {
	PixelScale     []float64
	Tiepoint       []float64
	Transformation []float64
	GeoKeys        []uint16
}

// ReadGeoTags reads the model tags of the first IFD. Only classic TIFF is
// understood; anything else yields errNoGeoTags.
func ReadGeoTags(r io.ReaderAt) (GeoTags, error) {
	var tags GeoTags

	head := make([]byte, 8)
	if _, err := r.ReadAt(head, 0); err != nil {
		return tags, errNoGeoTags
	}

	var order binary.ByteOrder
	switch binary.BigEndian.Uint16(head) {
	case tiffLittleEndian:
		order = binary.LittleEndian
	case tiffBigEndian:
		order = binary.BigEndian
	default:
		return tags, errNoGeoTags
	}
	switch order.Uint16(head[2:]) {
	case tiffIdentifier:
	case bigTiffIdentifier:
		return tags, fmt.Errorf("%w: bigtiff is not supported", errNoGeoTags)
	default:
		return tags, errNoGeoTags
	}

	ifdOffset := int64(order.Uint32(head[4:]))
	countBuf := make([]byte, 2)
	if _, err := r.ReadAt(countBuf, ifdOffset); err != nil {
		return tags, fmt.Errorf("read ifd: %w", err)
	}
	numEntries := int(order.Uint16(countBuf))

	block := make([]byte, numEntries*classicIFDEntryLen)
	if _, err := r.ReadAt(block, ifdOffset+2); err != nil {
		return tags, fmt.Errorf("read ifd entries: %w", err)
	}

	for i := 0; i < numEntries; i++ {
		entry := block[i*classicIFDEntryLen : (i+1)*classicIFDEntryLen]
		tag := order.Uint16(entry)
		ftype := order.Uint16(entry[2:])
		count := order.Uint32(entry[4:])

		switch tag {
		case tagModelPixelScale, tagModelTiepoint, tagModelTransformation:
			if ftype != tiffTypeDouble {
				return tags, fmt.Errorf("tag %d: expected DOUBLE, got type %d", tag, ftype)
			}
			vals, err := readDoubles(r, order, entry[8:], count)
			if err != nil {
				return tags, fmt.Errorf("tag %d: %w", tag, err)
			}
			switch tag {
			case tagModelPixelScale:
				tags.PixelScale = vals
			case tagModelTiepoint:
				tags.Tiepoint = vals
			default:
				tags.Transformation = vals
			}
		case tagGeoKeyDirectory:
			if ftype != tiffTypeShort {
				return tags, fmt.Errorf("tag %d: expected SHORT, got type %d", tag, ftype)
			}
			vals, err := readShorts(r, order, entry[8:], count)
			if err != nil {
				return tags, fmt.Errorf("tag %d: %w", tag, err)
			}
			tags.GeoKeys = vals
		}
	}

	if tags.Transformation == nil && (tags.PixelScale == nil || tags.Tiepoint == nil) {
		return tags, errNoGeoTags
	}
	return tags, nil
}

func readDoubles(r io.ReaderAt, order binary.ByteOrder, valueOffset []byte, count uint32) ([]float64, error) {
	if count > maxGeoTagValues {
		return nil, fmt.Errorf("%d values is too many", count)
	}
	// 8-byte values never fit inline in a classic IFD entry.
	raw := make([]byte, int(count)*8)
	if _, err := r.ReadAt(raw, int64(order.Uint32(valueOffset))); err != nil {
		return nil, err
	}
	vals := make([]float64, count)
	if err := binary.Read(bytes.NewReader(raw), order, vals); err != nil {
		return nil, err
	}
	return vals, nil
}

func readShorts(r io.ReaderAt, order binary.ByteOrder, valueOffset []byte, count uint32) ([]uint16, error) {
	if count > maxGeoTagValues {
		return nil, fmt.Errorf("%d values is too many", count)
	}
	raw := make([]byte, int(count)*2)
	if len(raw) <= classicInlineValueBytes {
		copy(raw, valueOffset)
	} else if _, err := r.ReadAt(raw, int64(order.Uint32(valueOffset))); err != nil {
		return nil, err
	}
	vals := make([]uint16, count)
	if err := binary.Read(bytes.NewReader(raw), order, vals); err != nil {
		return nil, err
	}
	return vals, nil
}

// geoKey returns the inline value of key from a GeoKeyDirectory.
func geoKey(dir []uint16, key uint16) (uint16, bool) {
	if len(dir) < 4 {
		return 0, false
	}
	numKeys := int(dir[3])
	for i := 0; i < numKeys; i++ {
		base := 4 + i*4
		if base+4 > len(dir) {
			break
		}
		// A non-zero location points into another tag; only inline values
		// carry the codes read here.
		if dir[base] == key && dir[base+1] == 0 {
			return dir[base+3], true
		}
	}
	return 0, false
}

// EPSG returns the projected or geographic CRS code from the GeoKeys, or 0
// when none or a user-defined one is declared.
func (g GeoTags) EPSG() int {
	for _, key := range []uint16{geoKeyProjectedCSType, geoKeyGeographicType} {
		if v, ok := geoKey(g.GeoKeys, key); ok && v != 0 && v != geoKeyUserDefined {
			return int(v)
		}
	}
	return 0
}

// Geometry converts the model tags into a north-up raster geometry.
// PixelIsPoint rasters are shifted by half a pixel so that the origin is
// the corner of the first pixel.
func (g GeoTags) Geometry(width, height int) (tiling.RasterGeometry, error) {
	var originX, originY, sizeX, sizeY float64

	switch {
	case len(g.Transformation) >= 16:
		m := g.Transformation
		if m[1] != 0 || m[4] != 0 {
			return tiling.RasterGeometry{}, fmt.Errorf("%w: rotated model transformation", tiling.ErrInvalidGeometry)
		}
		sizeX, sizeY = m[0], m[5]
		originX, originY = m[3], m[7]
	case len(g.PixelScale) >= 2 && len(g.Tiepoint) >= 6:
		sx, sy := g.PixelScale[0], math.Abs(g.PixelScale[1])
		t := g.Tiepoint
		sizeX, sizeY = sx, -sy
		originX = t[3] - t[0]*sx
		originY = t[4] + t[1]*sy
	default:
		return tiling.RasterGeometry{}, errNoGeoTags
	}

	if v, ok := geoKey(g.GeoKeys, geoKeyRasterType); ok && v == rasterPixelIsPoint {
		originX -= sizeX / 2
		originY -= sizeY / 2
	}

	geom := tiling.RasterGeometry{
		Width:      width,
		Height:     height,
		OriginX:    originX,
		OriginY:    originY,
		PixelSizeX: sizeX,
		PixelSizeY: sizeY,
	}
	if err := geom.Validate(); err != nil {
		return tiling.RasterGeometry{}, err
	}
	return geom, nil
}
