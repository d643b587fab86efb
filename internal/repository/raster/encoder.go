package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/jaennil/guide_helper/backend/rastertiles/internal/tiling"
)

// PNGEncoder assembles tiles in an interleaved 8-bit buffer and writes them as
// PNG.
type PNGEncoder struct {
	enc png.Encoder
}

var _ tiling.Encoder = (*PNGEncoder)(nil)

func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{
		enc: png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

type pngTarget struct {
	pix           []uint8
	width, height int
	bands         int
}

func (e *PNGEncoder) CreateTarget(width, height, bands int) (tiling.Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	if bands < 1 || bands > tiling.Bands {
		return nil, fmt.Errorf("unsupported band count %d", bands)
	}
	return &pngTarget{
		pix:    make([]uint8, width*height*bands),
		width:  width,
		height: height,
		bands:  bands,
	}, nil
}

func (t *pngTarget) WriteBand(band int, p tiling.Placement, buf []uint8) error {
	if band < 1 || band > t.bands {
		return fmt.Errorf("band %d out of range 1..%d", band, t.bands)
	}
	if p.OffsetX < 0 || p.OffsetY < 0 || p.Width <= 0 || p.Height <= 0 ||
		p.OffsetX+p.Width > t.width || p.OffsetY+p.Height > t.height {
		return fmt.Errorf("placement %+v outside %dx%d target", p, t.width, t.height)
	}
	if len(buf) != p.Width*p.Height {
		return fmt.Errorf("band %d: got %d samples, want %d", band, len(buf), p.Width*p.Height)
	}

	for y := 0; y < p.Height; y++ {
		row := (p.OffsetY+y)*t.width + p.OffsetX
		for x := 0; x < p.Width; x++ {
			t.pix[(row+x)*t.bands+band-1] = buf[y*p.Width+x]
		}
	}
	return nil
}

func (e *PNGEncoder) Encode(target tiling.Target) ([]byte, error) {
	t, ok := target.(*pngTarget)
	if !ok {
		return nil, fmt.Errorf("unexpected target type %T", target)
	}

	var buf bytes.Buffer
	if err := e.enc.Encode(&buf, t.image()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PNGEncoder) ContentType() string {
	return "image/png"
}

func (t *pngTarget) image() image.Image {
	r := image.Rect(0, 0, t.width, t.height)

	switch t.bands {
	case 1:
		return &image.Gray{Pix: t.pix, Stride: t.width, Rect: r}
	case 4:
		return &image.NRGBA{Pix: t.pix, Stride: t.width * 4, Rect: r}
	}

	// 2 bands are gray plus alpha, 3 bands are opaque RGB.
	img := image.NewNRGBA(r)
	for i := 0; i < t.width*t.height; i++ {
		src := t.pix[i*t.bands:]
		dst := img.Pix[i*4:]
		if t.bands == 2 {
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], src[1]
		} else {
			dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 255
		}
	}
	return img
}
