package tiling

import (
	"fmt"
	"math"
)

// Window is a rectangle of source pixels to read.
type Window struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Placement is where a read window lands inside the output tile.
type Placement struct {
	OffsetX int `json:"offset_x"`
	OffsetY int `json:"offset_y"`
	Width   int `json:"width"`
	Height  int `json:"height"`
}

// Padding is the uncovered margin on each side of a tile.
type Padding struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Resolution is the outcome of resolving a tile against a raster.
type Resolution struct {
	Intersection  Extent    `json:"intersection"`
	Window        Window    `json:"window"`
	SourcePadding Padding   `json:"source_padding"`
	DestPadding   Padding   `json:"dest_padding"`
	Placement     Placement `json:"placement"`
}

// Resolve computes which source pixels cover tile and where they go inside a
// tileWidth x tileHeight output. It returns ErrOutsideBounds when there is
// nothing to draw.
//
// Every bound is rounded on its own with math.Round, so two tiles sharing an
// edge share the rounded pixel column or row in the common case.
func Resolve(tile Extent, geom RasterGeometry, tileWidth, tileHeight int) (Resolution, error) {
	if tileWidth <= 0 || tileHeight <= 0 {
		return Resolution{}, fmt.Errorf("tile size must be positive, got %dx%d", tileWidth, tileHeight)
	}
	if err := geom.Validate(); err != nil {
		return Resolution{}, err
	}

	image := geom.Extent()
	x := tile.Intersect(image)
	if x.IsEmpty() {
		return Resolution{}, ErrOutsideBounds
	}

	sx, sy := geom.PixelSizeX, geom.PixelSizeY

	px0, py0 := geom.ToPixel(x.XMin, x.YMin)
	px1, py1 := geom.ToPixel(x.XMax, x.YMax)

	left, top := round(px0), round(py1)
	right, bottom := round(px1), round(py0)
	window := Window{
		X:      left,
		Y:      top,
		Width:  right - left,
		Height: bottom - top,
	}
	if window.Width <= 0 || window.Height <= 0 {
		return Resolution{}, ErrOutsideBounds
	}

	src := Padding{
		Left:   round((x.XMin - tile.XMin) / sx),
		Top:    round((x.YMax - tile.YMax) / sy),
		Right:  round((tile.XMax - x.XMax) / sx),
		Bottom: round((tile.YMin - x.YMin) / sy),
	}

	srcWidth := (tile.XMax - tile.XMin) / sx
	srcHeight := (tile.YMin - tile.YMax) / sy
	ratioX := float64(tileWidth) / srcWidth
	ratioY := float64(tileHeight) / srcHeight

	dst := Padding{
		Left:   round(float64(src.Left) * ratioX),
		Top:    round(float64(src.Top) * ratioY),
		Right:  round(float64(src.Right) * ratioX),
		Bottom: round(float64(src.Bottom) * ratioY),
	}

	placement := Placement{
		OffsetX: dst.Left,
		OffsetY: dst.Top,
		Width:   tileWidth - dst.Left - dst.Right,
		Height:  tileHeight - dst.Top - dst.Bottom,
	}
	if placement.Width <= 0 || placement.Height <= 0 {
		return Resolution{}, ErrOutsideBounds
	}

	return Resolution{
		Intersection:  x,
		Window:        window,
		SourcePadding: src,
		DestPadding:   dst,
		Placement:     placement,
	}, nil
}

func round(v float64) int {
	return int(math.Round(v))
}
