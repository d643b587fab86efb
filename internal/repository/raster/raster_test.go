package raster

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jaennil/guide_helper/backend/rastertiles/internal/tiling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
)

// quadrants returns a size x size image whose four quadrants are red, green,
// blue and a nodata black.
func quadrants(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	half := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			var c color.NRGBA
			switch {
			case x < half && y < half:
				c = color.NRGBA{R: 200, A: 255}
			case x >= half && y < half:
				c = color.NRGBA{G: 150, A: 255}
			case x < half && y >= half:
				c = color.NRGBA{B: 100, A: 255}
			default:
				c = color.NRGBA{A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writeRaster(t *testing.T, dir, name string, img image.Image, worldFile string) {
	t.Helper()

	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	if worldFile != "" {
		wld := strings.TrimSuffix(name, filepath.Ext(name)) + ".pgw"
		require.NoError(t, os.WriteFile(filepath.Join(dir, wld), []byte(worldFile), 0o644))
	}
}

// 10 unit pixels, upper-left corner at (100, 1000).
const testWorldFile = "10\n0\n0\n-10\n105\n995\n"

func newTestSource(t *testing.T) (*FileSource, string) {
	t.Helper()
	dir := t.TempDir()
	writeRaster(t, dir, "quad.png", quadrants(4), testWorldFile)

	s := NewFileSource(dir, draw.NearestNeighbor, 4)
	t.Cleanup(s.Stop)
	return s, dir
}

func TestParseResampling(t *testing.T) {
	for name, want := range map[string]draw.Interpolator{
		"":           draw.NearestNeighbor,
		"nearest":    draw.NearestNeighbor,
		"bilinear":   draw.ApproxBiLinear,
		"catmullrom": draw.CatmullRom,
	} {
		got, err := ParseResampling(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseResampling("lanczos")
	assert.Error(t, err)
}

func TestParseWorldFile(t *testing.T) {
	wf, err := ParseWorldFile(strings.NewReader(" 10 \n0\n\n0\n-10\n105\n995\n\n"))
	require.NoError(t, err)
	assert.Equal(t, WorldFile{A: 10, D: 0, B: 0, E: -10, C: 105, F: 995}, wf)

	_, err = ParseWorldFile(strings.NewReader("10\n0\n0\n-10\n105\n"))
	assert.Error(t, err)

	_, err = ParseWorldFile(strings.NewReader("10\n0\n0\n-10\n105\n995\n1\n"))
	assert.Error(t, err)

	_, err = ParseWorldFile(strings.NewReader("10\n0\n0\nten\n105\n995\n"))
	assert.Error(t, err)
}

func TestWorldFileGeometry(t *testing.T) {
	g, err := WorldFile{A: 10, E: -10, C: 105, F: 995}.Geometry(4, 3)
	require.NoError(t, err)
	assert.Equal(t, tiling.RasterGeometry{
		OriginX:    100,
		OriginY:    1000,
		PixelSizeX: 10,
		PixelSizeY: -10,
		Width:      4,
		Height:     3,
	}, g)
	assert.Equal(t, tiling.Extent{XMin: 100, YMin: 970, XMax: 140, YMax: 1000}, g.Extent())

	_, err = WorldFile{A: 10, D: 0.5, E: -10}.Geometry(4, 3)
	assert.ErrorIs(t, err, tiling.ErrInvalidGeometry)

	_, err = WorldFile{A: 10, E: 10}.Geometry(4, 3)
	assert.ErrorIs(t, err, tiling.ErrInvalidGeometry)
}

func TestWorldFileCandidates(t *testing.T) {
	assert.Equal(t,
		[]string{"d/a.tfw", "d/a.tifw", "d/a.wld", "d/a.tif.wld"},
		worldFileCandidates("d/a.tif"))
	assert.Equal(t,
		[]string{"d/a.wld", "d/a.webp.wld"},
		worldFileCandidates("d/a.webp"))
}

func TestFileSourceOpenErrors(t *testing.T) {
	s, dir := newTestSource(t)
	ctx := context.Background()

	_, err := s.Open(ctx, "missing.png")
	assert.ErrorIs(t, err, tiling.ErrSourceNotFound)

	for _, id := range []string{"", ".", "..", "../quad.png", "sub/quad.png"} {
		_, err := s.Open(ctx, id)
		assert.ErrorIs(t, err, tiling.ErrInvalidSource, id)
	}

	writeRaster(t, dir, "bare.png", quadrants(2), "")
	_, err = s.Open(ctx, "bare.png")
	assert.ErrorIs(t, err, errNoWorldFile)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.png"), []byte("not an image"), 0o644))
	_, err = s.Open(ctx, "junk.png")
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Open(cancelled, "quad.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSourceSharesDecodedDataset(t *testing.T) {
	s, _ := newTestSource(t)
	ctx := context.Background()

	a, err := s.Open(ctx, "quad.png")
	require.NoError(t, err)
	b, err := s.Open(ctx, "quad.png")
	require.NoError(t, err)

	assert.Same(t, a.(*Handle).data, b.(*Handle).data)
	assert.NotNil(t, s.datasets.Get("quad.png"))

	assert.Equal(t, tiling.RasterGeometry{
		OriginX: 100, OriginY: 1000, PixelSizeX: 10, PixelSizeY: -10, Width: 4, Height: 4,
	}, a.Geometry())
}

func TestReadBandWindow(t *testing.T) {
	s, _ := newTestSource(t)

	ds, err := s.Open(context.Background(), "quad.png")
	require.NoError(t, err)
	defer ds.Close()

	full := tiling.Window{X: 0, Y: 0, Width: 4, Height: 4}

	red, err := ds.ReadBandWindow(1, full, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint8{200, 0, 0, 0}, red)

	green, err := ds.ReadBandWindow(2, full, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 150, 0, 0}, green)

	blue, err := ds.ReadBandWindow(3, full, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 100, 0}, blue)

	alpha, err := ds.ReadBandWindow(4, full, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 255, 255, 255}, alpha)

	// Upper-right quadrant upsampled.
	green, err = ds.ReadBandWindow(2, tiling.Window{X: 2, Y: 0, Width: 2, Height: 2}, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint8{150, 150, 150, 150, 150, 150, 150, 150, 150}, green)
}

func TestReadBandWindowResamplesOncePerWindow(t *testing.T) {
	s, _ := newTestSource(t)

	ds, err := s.Open(context.Background(), "quad.png")
	require.NoError(t, err)
	h := ds.(*Handle)

	w := tiling.Window{X: 0, Y: 0, Width: 4, Height: 4}
	_, err = h.ReadBandWindow(1, w, 2, 2)
	require.NoError(t, err)
	first := h.last

	_, err = h.ReadBandWindow(2, w, 2, 2)
	require.NoError(t, err)
	assert.Same(t, first, h.last)

	_, err = h.ReadBandWindow(1, w, 4, 4)
	require.NoError(t, err)
	assert.NotSame(t, first, h.last)
}

func TestReadBandWindowErrors(t *testing.T) {
	s, _ := newTestSource(t)

	ds, err := s.Open(context.Background(), "quad.png")
	require.NoError(t, err)

	w := tiling.Window{X: 0, Y: 0, Width: 4, Height: 4}

	_, err = ds.ReadBandWindow(0, w, 2, 2)
	assert.Error(t, err)
	_, err = ds.ReadBandWindow(5, w, 2, 2)
	assert.Error(t, err)
	_, err = ds.ReadBandWindow(1, w, 0, 2)
	assert.Error(t, err)
	_, err = ds.ReadBandWindow(1, tiling.Window{X: 10, Y: 10, Width: 2, Height: 2}, 2, 2)
	assert.Error(t, err)
}

func TestPNGEncoder(t *testing.T) {
	enc := NewPNGEncoder()
	assert.Equal(t, "image/png", enc.ContentType())

	target, err := enc.CreateTarget(4, 4, 4)
	require.NoError(t, err)

	p := tiling.Placement{OffsetX: 1, OffsetY: 2, Width: 2, Height: 2}
	require.NoError(t, target.WriteBand(1, p, []uint8{10, 20, 30, 40}))
	require.NoError(t, target.WriteBand(4, p, []uint8{255, 255, 0, 255}))

	out, err := enc.Encode(target)
	require.NoError(t, err)

	img, err := png.Decode(strings.NewReader(string(out)))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())

	at := func(x, y int) color.NRGBA {
		return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	}
	assert.Equal(t, color.NRGBA{}, at(0, 0))
	assert.Equal(t, color.NRGBA{R: 10, A: 255}, at(1, 2))
	assert.Equal(t, color.NRGBA{R: 20, A: 255}, at(2, 2))
	assert.Equal(t, uint8(0), at(1, 3).A)
	assert.Equal(t, color.NRGBA{R: 40, A: 255}, at(2, 3))
}

func TestPNGEncoderRejectsBadWrites(t *testing.T) {
	enc := NewPNGEncoder()

	_, err := enc.CreateTarget(0, 4, 4)
	assert.Error(t, err)
	_, err = enc.CreateTarget(4, 4, 5)
	assert.Error(t, err)

	target, err := enc.CreateTarget(4, 4, 4)
	require.NoError(t, err)

	assert.Error(t, target.WriteBand(1, tiling.Placement{OffsetX: 3, Width: 2, Height: 1}, []uint8{1, 2}))
	assert.Error(t, target.WriteBand(1, tiling.Placement{Width: 2, Height: 2}, []uint8{1, 2, 3}))
	assert.Error(t, target.WriteBand(5, tiling.Placement{Width: 1, Height: 1}, []uint8{1}))
}

func TestCompositeFromFile(t *testing.T) {
	s, _ := newTestSource(t)
	enc := NewPNGEncoder()

	ds, err := s.Open(context.Background(), "quad.png")
	require.NoError(t, err)

	// The raster covers exactly the tile.
	res, err := tiling.Resolve(ds.Geometry().Extent(), ds.Geometry(), 4, 4)
	require.NoError(t, err)

	target, err := tiling.Composite(ds, enc, res, 4, 4)
	require.NoError(t, err)
	out, err := enc.Encode(target)
	require.NoError(t, err)

	img, err := png.Decode(strings.NewReader(string(out)))
	require.NoError(t, err)

	at := func(x, y int) color.NRGBA {
		return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	}
	assert.Equal(t, color.NRGBA{R: 200, A: 255}, at(0, 0))
	// Band 1 is zero in the green, blue and black quadrants.
	assert.Equal(t, uint8(0), at(3, 0).A)
	assert.Equal(t, uint8(0), at(0, 3).A)
	assert.Equal(t, uint8(0), at(3, 3).A)
}
