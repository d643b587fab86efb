package tiling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSourceID(t *testing.T) {
	for _, id := range []string{"ortho.tif", "utm_28n.png", "a..b.tif"} {
		assert.NoError(t, ValidateSourceID(id), id)
	}
	for _, id := range []string{"", ".", "..", "../ortho.tif", "dir/ortho.tif", `dir\ortho.tif`} {
		assert.ErrorIs(t, ValidateSourceID(id), ErrInvalidSource, id)
	}
}
