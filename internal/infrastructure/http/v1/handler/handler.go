package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/rastertiles/internal/usecase"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/logger"
)

const (
	internalServerErrorText = "the server encountered an error and could not process your request"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Handler struct {
	validate    *validator.Validate
	tileUseCase *usecase.TileUseCase
	infoUseCase *usecase.InfoUseCase
	maxZoom     int
}

func NewHandler(v *validator.Validate, tiles *usecase.TileUseCase, info *usecase.InfoUseCase, maxZoom int) *Handler {
	return &Handler{
		validate:    v,
		tileUseCase: tiles,
		infoUseCase: info,
		maxZoom:     maxZoom,
	}
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusInternalServerError, internalServerErrorText, nil)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}

// requestLogger returns the logger set by the router middleware.
func requestLogger(c *gin.Context) logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return logger.FromContext(c.Request.Context())
}
