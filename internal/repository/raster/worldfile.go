package raster

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jaennil/guide_helper/backend/rastertiles/internal/tiling"
)

var errNoWorldFile = errors.New("no world file found")

// WorldFile holds the six affine terms of an ESRI world file. C and F locate
// the centre of the upper-left pixel.
type WorldFile struct {
	A, D, B, E, C, F float64
}

var worldFileExtensions = map[string][]string{
	".tif":  {".tfw", ".tifw"},
	".tiff": {".tfw", ".tiffw"},
	".png":  {".pgw", ".pngw"},
	".jpg":  {".jgw", ".jpgw"},
	".jpeg": {".jgw", ".jpegw"},
	".bmp":  {".bpw", ".bmpw"},
}

// worldFileCandidates lists the sidecar paths checked for imagePath, in order.
func worldFileCandidates(imagePath string) []string {
	ext := filepath.Ext(imagePath)
	base := strings.TrimSuffix(imagePath, ext)

	var out []string
	for _, e := range worldFileExtensions[strings.ToLower(ext)] {
		out = append(out, base+e)
	}
	return append(out, base+".wld", imagePath+".wld")
}

// LoadWorldFile reads the first world file found next to imagePath.
func LoadWorldFile(imagePath string) (WorldFile, error) {
	for _, p := range worldFileCandidates(imagePath) {
		f, err := os.Open(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return WorldFile{}, err
		}
		wf, err := ParseWorldFile(f)
		f.Close()
		if err != nil {
			return WorldFile{}, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		return wf, nil
	}
	return WorldFile{}, fmt.Errorf("%w for %s", errNoWorldFile, filepath.Base(imagePath))
}

func ParseWorldFile(r io.Reader) (WorldFile, error) {
	var values []float64

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if len(values) == 6 {
			return WorldFile{}, errors.New("world file has more than 6 values")
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return WorldFile{}, fmt.Errorf("world file line %d: %w", len(values)+1, err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return WorldFile{}, err
	}
	if len(values) != 6 {
		return WorldFile{}, fmt.Errorf("world file has %d values, want 6", len(values))
	}

	return WorldFile{
		A: values[0],
		D: values[1],
		B: values[2],
		E: values[3],
		C: values[4],
		F: values[5],
	}, nil
}

// Geometry converts the world file to a north-up raster geometry anchored at
// the outer corner of the upper-left pixel.
func (w WorldFile) Geometry(width, height int) (tiling.RasterGeometry, error) {
	if w.B != 0 || w.D != 0 {
		return tiling.RasterGeometry{}, fmt.Errorf("%w: rotated rasters are not supported", tiling.ErrInvalidGeometry)
	}

	g := tiling.RasterGeometry{
		OriginX:    w.C - w.A/2,
		OriginY:    w.F - w.E/2,
		PixelSizeX: w.A,
		PixelSizeY: w.E,
		Width:      width,
		Height:     height,
	}
	if err := g.Validate(); err != nil {
		return tiling.RasterGeometry{}, err
	}
	return g, nil
}
