package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Info(c *gin.Context) {
	info, err := h.infoUseCase.GetInfo(c.Request.Context(), c.Param("source"))
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "got raster info", info)
}
