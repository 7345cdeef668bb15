package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/mw"
)

// GetSettings handles GET /settings.
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.store.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /settings. Omitted fields keep their values.
func (h *Handler) UpdateSettings(c *gin.Context) {
	settings, err := h.store.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if err := c.ShouldBindJSON(settings); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if err := calib.ValidateSettings(settings); err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.UpdateSettings(c.Request.Context(), settings, mw.Actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
