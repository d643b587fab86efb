package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/rastertiles/internal/tiling"
)

const (
	tileCacheControl = "public, max-age=604800"
	tileSuffix       = ".png"
)

type tileRequest struct {
	Source string `validate:"required"`
	Zoom   int    `validate:"gte=0"`
	Column int    `validate:"gte=0"`
	Row    int    `validate:"gte=0"`
}

func (h *Handler) Tile(c *gin.Context) {
	l := requestLogger(c).With("source", c.Param("source"))

	strZ := c.Param("z")
	strX := c.Param("x")
	strY := c.Param("y")

	z, err := strconv.Atoi(strZ)
	if err != nil {
		l.Warn("invalid z parameter", "z", strZ, "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, "z should be integer", nil)
		return
	}

	x, err := strconv.Atoi(strX)
	if err != nil {
		l.Warn("invalid x parameter", "x", strX, "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, "x should be integer", nil)
		return
	}

	if !strings.HasSuffix(strY, tileSuffix) {
		l.Warn("invalid y parameter", "y", strY)
		h.RespondWithJSON(c, http.StatusBadRequest, "y should end with "+tileSuffix, nil)
		return
	}
	y, err := strconv.Atoi(strings.TrimSuffix(strY, tileSuffix))
	if err != nil {
		l.Warn("invalid y parameter", "y", strY, "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, "y should be integer", nil)
		return
	}

	req := tileRequest{
		Source: c.Param("source"),
		Zoom:   z,
		Column: x,
		Row:    y,
	}
	if err := h.validate.Struct(req); err != nil {
		l.Warn("invalid tile request", "request", req, "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, "invalid tile coordinates", nil)
		return
	}
	if err := h.validate.Var(req.Zoom, fmt.Sprintf("lte=%d", h.maxZoom)); err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, fmt.Sprintf("z should be at most %d", h.maxZoom), nil)
		return
	}

	coord := tiling.TileCoord{Zoom: req.Zoom, Column: req.Column, Row: req.Row}

	data, hit, err := h.tileUseCase.GetTile(c.Request.Context(), req.Source, coord)
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	tileSource := "render"
	if hit {
		tileSource = "cache"
	}
	c.Header("Cache-Control", tileCacheControl)
	c.Header("X-Tile-Source", tileSource)
	c.Data(http.StatusOK, h.tileUseCase.ContentType(), data)
}

// respondWithError maps use case errors to HTTP responses.
func (h *Handler) respondWithError(c *gin.Context, err error) {
	c.Error(err)

	switch {
	case errors.Is(err, tiling.ErrOutsideBounds):
		h.RespondWithJSON(c, http.StatusNotFound, tiling.ErrOutsideBounds.Error(), nil)
	case errors.Is(err, tiling.ErrSourceNotFound):
		h.RespondWithJSON(c, http.StatusNotFound, tiling.ErrSourceNotFound.Error(), nil)
	case errors.Is(err, tiling.ErrInvalidSource):
		h.RespondWithJSON(c, http.StatusBadRequest, tiling.ErrInvalidSource.Error(), nil)
	default:
		h.RespondWithInternalServerError(c)
	}
}
