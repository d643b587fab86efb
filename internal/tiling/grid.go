package tiling

import (
	"fmt"
	"math"
)

const webMercatorOriginShift = 20037508.3427892480

// TileCoord addresses one cell of the grid. Column and row are expected in
// [0, 2^Zoom) but are not checked.
type TileCoord struct {
	Zoom   int `json:"z"`
	Column int `json:"x"`
	Row    int `json:"y"`
}

func (c TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Zoom, c.Column, c.Row)
}

// FlipRow converts between top-origin and bottom-origin row numbering.
func FlipRow(row, zoom int) int {
	return (1 << zoom) - 1 - row
}

// TileGrid partitions a global extent into 2^z x 2^z equal cells per zoom level.
type TileGrid struct {
	extent Extent
}

func NewTileGrid(extent Extent) (TileGrid, error) {
	if extent.IsEmpty() {
		return TileGrid{}, fmt.Errorf("tile grid extent is degenerate: %+v", extent)
	}
	return TileGrid{extent: extent}, nil
}

// WebMercator is the square EPSG:3857 grid.
func WebMercator() TileGrid {
	return TileGrid{extent: Extent{
		XMin: -webMercatorOriginShift,
		YMin: -webMercatorOriginShift,
		XMax: webMercatorOriginShift,
		YMax: webMercatorOriginShift,
	}}
}

func (g TileGrid) Extent() Extent {
	return g.extent
}

// TileExtent returns the extent of a cell. Row 0 is at YMin; callers wanting
// top-origin rows flip them first.
func (g TileGrid) TileExtent(column, row, zoom int) Extent {
	n := math.Ldexp(1, zoom)
	tileW := g.extent.Width() / n
	tileH := g.extent.Height() / n

	return Extent{
		XMin: edge(g.extent.XMin, g.extent.XMax, tileW, column, n),
		YMin: edge(g.extent.YMin, g.extent.YMax, tileH, row, n),
		XMax: edge(g.extent.XMin, g.extent.XMax, tileW, column+1, n),
		YMax: edge(g.extent.YMin, g.extent.YMax, tileH, row+1, n),
	}
}

// edge snaps the far boundary to max so the cells reconstruct the grid extent exactly.
func edge(min, max, size float64, index int, n float64) float64 {
	if float64(index) == n {
		return max
	}
	return min + size*float64(index)
}
