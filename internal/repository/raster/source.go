package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jaennil/guide_helper/backend/rastertiles/internal/tiling"
	"github.com/karlseguin/ccache/v3"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

const datasetTTL = 24 * time.Hour

// decoded is an image held in memory as 8-bit RGBA together with its
// georeferencing.
type decoded struct {
	img  *image.NRGBA
	geom tiling.RasterGeometry
	epsg int
}

// FileSource opens rasters stored as image files in one directory,
// georeferenced by embedded GeoTIFF tags or a sidecar world file. Decoded
// images are kept in an LRU; concurrent opens of the same file share a
// single decode.
type FileSource struct {
	dir      string
	interp   draw.Interpolator
	datasets *ccache.Cache[*decoded]
	inflight singleflight.Group
}

var _ tiling.RasterSource = (*FileSource)(nil)

func NewFileSource(dir string, interp draw.Interpolator, cacheSize int64) *FileSource {
	if cacheSize < 1 {
		cacheSize = 1
	}
	itemsToPrune := uint32(cacheSize / 4)
	if itemsToPrune == 0 {
		itemsToPrune = 1
	}

	return &FileSource{
		dir:      dir,
		interp:   interp,
		datasets: ccache.New(ccache.Configure[*decoded]().MaxSize(cacheSize).ItemsToPrune(itemsToPrune)),
	}
}

func (s *FileSource) Open(ctx context.Context, id string) (tiling.Dataset, error) {
	if err := tiling.ValidateSourceID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d, err := s.load(id)
	if err != nil {
		return nil, err
	}

	return &Handle{
		data:   d,
		interp: s.interp,
	}, nil
}

// Stop releases the LRU's background goroutine.
func (s *FileSource) Stop() {
	s.datasets.Stop()
}

func (s *FileSource) load(id string) (*decoded, error) {
	item := s.datasets.Get(id)
	if item != nil && !item.Expired() {
		return item.Value(), nil
	}

	v, err, _ := s.inflight.Do(id, func() (interface{}, error) {
		d, err := s.decode(id)
		if err != nil {
			return nil, err
		}
		s.datasets.Set(id, d, datasetTTL)
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*decoded), nil
}

func (s *FileSource) decode(id string) (*decoded, error) {
	path := filepath.Join(s.dir, id)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", tiling.ErrSourceNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", tiling.ErrSourceNotFound, id)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	nrgba := toNRGBA(img)
	width, height := nrgba.Rect.Dx(), nrgba.Rect.Dy()

	// Embedded GeoTIFF tags win over a sidecar world file.
	tags, err := ReadGeoTags(f)
	switch {
	case err == nil:
		geom, err := tags.Geometry(width, height)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		return &decoded{img: nrgba, geom: geom, epsg: tags.EPSG()}, nil
	case !errors.Is(err, errNoGeoTags):
		return nil, fmt.Errorf("%s: %w", id, err)
	}

	wf, err := LoadWorldFile(path)
	if err != nil {
		return nil, err
	}
	geom, err := wf.Geometry(width, height)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}

	return &decoded{img: nrgba, geom: geom}, nil
}

// toNRGBA returns img as an *image.NRGBA whose bounds start at the origin.
// 16-bit samples are clamped to 255 rather than scaled, so small values keep
// their magnitude and never collapse to nodata.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
				dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, color.NRGBA{
					R: clamp8(c.R),
					G: clamp8(c.G),
					B: clamp8(c.B),
					A: clamp8(c.A),
				})
			}
		}
	default:
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}
	return dst
}

func clamp8(v uint16) uint8 {
	if v > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(v)
}

type windowKey struct {
	window        tiling.Window
	width, height int
}

// Handle is one opened view of a decoded raster. It keeps the last resampled
// window so that reading the bands of one window resamples only once.
type Handle struct {
	data   *decoded
	interp draw.Interpolator

	mu      sync.Mutex
	lastKey windowKey
	last    *image.NRGBA
}

var _ tiling.Dataset = (*Handle)(nil)

func (h *Handle) Geometry() tiling.RasterGeometry {
	return h.data.geom
}

// EPSG is the CRS code declared by embedded GeoTIFF keys, 0 when unknown.
func (h *Handle) EPSG() int {
	return h.data.epsg
}

func (h *Handle) ReadBandWindow(band int, window tiling.Window, outWidth, outHeight int) ([]uint8, error) {
	if band < 1 || band > tiling.Bands {
		return nil, fmt.Errorf("band %d out of range 1..%d", band, tiling.Bands)
	}
	if outWidth <= 0 || outHeight <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", outWidth, outHeight)
	}

	scaled, err := h.resample(window, outWidth, outHeight)
	if err != nil {
		return nil, err
	}

	out := make([]uint8, outWidth*outHeight)
	for y := 0; y < outHeight; y++ {
		row := scaled.Pix[y*scaled.Stride:]
		for x := 0; x < outWidth; x++ {
			out[y*outWidth+x] = row[x*4+band-1]
		}
	}
	return out, nil
}

func (h *Handle) resample(window tiling.Window, outWidth, outHeight int) (*image.NRGBA, error) {
	key := windowKey{window: window, width: outWidth, height: outHeight}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.last != nil && h.lastKey == key {
		return h.last, nil
	}

	src := image.Rect(window.X, window.Y, window.X+window.Width, window.Y+window.Height).
		Intersect(h.data.img.Rect)
	if src.Empty() {
		return nil, fmt.Errorf("window %+v does not overlap the %dx%d raster", window, h.data.img.Rect.Dx(), h.data.img.Rect.Dy())
	}

	dst := image.NewNRGBA(image.Rect(0, 0, outWidth, outHeight))
	h.interp.Scale(dst, dst.Rect, h.data.img, src, draw.Src, nil)

	h.lastKey = key
	h.last = dst
	return dst, nil
}

func (h *Handle) Close() error {
	h.mu.Lock()
	h.last = nil
	h.mu.Unlock()
	return nil
}
