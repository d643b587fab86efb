package tiling

// Options is the read-only rendering context handed to the tile use case.
type Options struct {
	Grid       TileGrid
	ReverseY   bool
	TileWidth  int
	TileHeight int
}

// Extent returns the extent of c, applying the row flip when configured.
func (o Options) Extent(c TileCoord) Extent {
	row := c.Row
	if o.ReverseY {
		row = FlipRow(row, c.Zoom)
	}
	return o.Grid.TileExtent(c.Column, row, c.Zoom)
}
