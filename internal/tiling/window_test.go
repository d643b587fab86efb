package tiling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitImage covers [0,0]-[1000,1000] with one unit per pixel.
var unitImage = RasterGeometry{
	OriginX:    0,
	OriginY:    1000,
	PixelSizeX: 1,
	PixelSizeY: -1,
	Width:      1000,
	Height:     1000,
}

func TestResolveFullyInside(t *testing.T) {
	grid, err := NewTileGrid(Extent{0, 0, 1000, 1000})
	require.NoError(t, err)

	t.Run("zoom 0", func(t *testing.T) {
		res, err := Resolve(grid.TileExtent(0, 0, 0), unitImage, 256, 256)
		require.NoError(t, err)

		assert.Equal(t, Placement{0, 0, 256, 256}, res.Placement)
		assert.Equal(t, Window{0, 0, 1000, 1000}, res.Window)
		assert.Equal(t, Padding{}, res.SourcePadding)
		assert.Equal(t, Padding{}, res.DestPadding)
	})

	t.Run("zoom 1", func(t *testing.T) {
		res, err := Resolve(grid.TileExtent(0, 0, 1), unitImage, 256, 256)
		require.NoError(t, err)

		assert.Equal(t, Placement{0, 0, 256, 256}, res.Placement)
		assert.Equal(t, Window{0, 500, 500, 500}, res.Window)
		assert.Equal(t, Padding{}, res.DestPadding)
	})

	t.Run("coarser pixels", func(t *testing.T) {
		coarse := RasterGeometry{OriginX: 0, OriginY: 1000, PixelSizeX: 2, PixelSizeY: -2, Width: 500, Height: 500}
		res, err := Resolve(grid.TileExtent(1, 1, 1), coarse, 256, 256)
		require.NoError(t, err)

		assert.Equal(t, Window{250, 0, 250, 250}, res.Window)
		assert.Equal(t, Placement{0, 0, 256, 256}, res.Placement)
	})
}

func TestResolveOutsideBounds(t *testing.T) {
	far := RasterGeometry{OriginX: 2000, OriginY: 3000, PixelSizeX: 1, PixelSizeY: -1, Width: 100, Height: 100}
	_, err := Resolve(Extent{0, 0, 1000, 1000}, far, 256, 256)
	assert.ErrorIs(t, err, ErrOutsideBounds)

	// Touching along an edge has no area.
	_, err = Resolve(Extent{1000, 0, 2000, 1000}, unitImage, 256, 256)
	assert.ErrorIs(t, err, ErrOutsideBounds)
}

func TestResolveRightEdgeOverlap(t *testing.T) {
	narrow := RasterGeometry{OriginX: 0, OriginY: 1000, PixelSizeX: 1, PixelSizeY: -1, Width: 750, Height: 1000}

	res, err := Resolve(Extent{0, 0, 1000, 1000}, narrow, 256, 256)
	require.NoError(t, err)

	assert.Equal(t, 0, res.SourcePadding.Left)
	assert.Equal(t, 0, res.SourcePadding.Top)
	assert.Equal(t, 0, res.SourcePadding.Bottom)
	assert.Equal(t, 250, res.SourcePadding.Right)

	assert.Equal(t, Padding{Right: 64}, res.DestPadding)
	assert.Equal(t, Placement{0, 0, 192, 256}, res.Placement)
	assert.Equal(t, Window{0, 0, 750, 1000}, res.Window)
}

func TestResolveTopLeftOverlap(t *testing.T) {
	corner := RasterGeometry{OriginX: 250, OriginY: 750, PixelSizeX: 1, PixelSizeY: -1, Width: 750, Height: 750}

	res, err := Resolve(Extent{0, 0, 1000, 1000}, corner, 256, 256)
	require.NoError(t, err)

	assert.Equal(t, Padding{Left: 250, Top: 250}, res.SourcePadding)
	assert.Equal(t, Placement{64, 64, 192, 192}, res.Placement)
	assert.Equal(t, Window{0, 0, 750, 750}, res.Window)
}

func TestResolveAdjacentWindowsAreContiguous(t *testing.T) {
	grid, err := NewTileGrid(Extent{0, 0, 1000, 1000})
	require.NoError(t, err)

	// 3 units per pixel does not divide the 250 unit tiles evenly.
	odd := RasterGeometry{OriginX: 0, OriginY: 1000, PixelSizeX: 3, PixelSizeY: -3, Width: 334, Height: 334}

	const z = 2
	for r := 0; r < 4; r++ {
		for c := 0; c < 3; c++ {
			left, err := Resolve(grid.TileExtent(c, r, z), odd, 256, 256)
			require.NoError(t, err)
			right, err := Resolve(grid.TileExtent(c+1, r, z), odd, 256, 256)
			require.NoError(t, err)

			assert.Equal(t, left.Window.X+left.Window.Width, right.Window.X, "column seam c=%d r=%d", c, r)
		}
	}
	for c := 0; c < 4; c++ {
		for r := 0; r < 3; r++ {
			below, err := Resolve(grid.TileExtent(c, r, z), odd, 256, 256)
			require.NoError(t, err)
			above, err := Resolve(grid.TileExtent(c, r+1, z), odd, 256, 256)
			require.NoError(t, err)

			assert.Equal(t, above.Window.Y+above.Window.Height, below.Window.Y, "row seam c=%d r=%d", c, r)
		}
	}
}

func TestResolveRejectsBadInput(t *testing.T) {
	_, err := Resolve(Extent{0, 0, 1000, 1000}, unitImage, 0, 256)
	assert.Error(t, err)

	southUp := unitImage
	southUp.PixelSizeY = 1
	_, err = Resolve(Extent{0, 0, 1000, 1000}, southUp, 256, 256)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestResolveSliverIsOutsideBounds(t *testing.T) {
	// Overlap of a fifth of a pixel rounds to an empty window.
	_, err := Resolve(Extent{999.8, 0, 1999.8, 1000}, unitImage, 256, 256)
	assert.ErrorIs(t, err, ErrOutsideBounds)
}
