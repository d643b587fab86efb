package tiling

import "fmt"

// RasterGeometry is the north-up affine georeferencing of a raster.
// PixelSizeY is negative.
type RasterGeometry struct {
	OriginX    float64 `json:"origin_x"`
	OriginY    float64 `json:"origin_y"`
	PixelSizeX float64 `json:"pixel_size_x"`
	PixelSizeY float64 `json:"pixel_size_y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

func (g RasterGeometry) Validate() error {
	if g.PixelSizeX <= 0 {
		return fmt.Errorf("%w: pixel size x must be positive, got %v", ErrInvalidGeometry, g.PixelSizeX)
	}
	if g.PixelSizeY >= 0 {
		return fmt.Errorf("%w: pixel size y must be negative, got %v", ErrInvalidGeometry, g.PixelSizeY)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: raster size must be positive, got %dx%d", ErrInvalidGeometry, g.Width, g.Height)
	}
	return nil
}

func (g RasterGeometry) Extent() Extent {
	return Extent{
		XMin: g.OriginX,
		YMin: g.OriginY + g.PixelSizeY*float64(g.Height),
		XMax: g.OriginX + g.PixelSizeX*float64(g.Width),
		YMax: g.OriginY,
	}
}

// ToPixel maps a planar coordinate to fractional pixel coordinates.
func (g RasterGeometry) ToPixel(x, y float64) (float64, float64) {
	return (x - g.OriginX) / g.PixelSizeX, (y - g.OriginY) / g.PixelSizeY
}
