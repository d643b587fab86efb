package usecase

import "fmt"

// CollaboratorError is a failure reported by the raster source or the encoder
// while rendering a tile.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
