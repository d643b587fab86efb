package tiling

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOutsideBounds means the tile and the image do not overlap. It is a
	// "no content" outcome rather than a fault.
	ErrOutsideBounds = errors.New("tile is outside image bounds")

	ErrInvalidGeometry = errors.New("invalid raster geometry")

	// ErrSourceNotFound is returned by raster sources for unknown identifiers.
	ErrSourceNotFound = errors.New("raster source not found")

	// ErrInvalidSource is returned by raster sources for malformed identifiers.
	ErrInvalidSource = errors.New("invalid raster source identifier")
)

// ValidateSourceID reports whether id can name a raster: a single non-empty
// path element.
func ValidateSourceID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidSource, id)
	}
	return nil
}
