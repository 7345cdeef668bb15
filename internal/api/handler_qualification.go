package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/mw"
	"calibration-qa-backend/internal/qualification"
)

// ListProtocols handles GET /qualification/protocols?stage=.
func (h *Handler) ListProtocols(c *gin.Context) {
	items, err := h.qualification.List(c.Request.Context(), model.QualificationStage(c.Query("stage")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetProtocol handles GET /qualification/protocols/:id.
func (h *Handler) GetProtocol(c *gin.Context) {
	item, err := h.qualification.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// CreateProtocol handles POST /qualification/protocols.
func (h *Handler) CreateProtocol(c *gin.Context) {
	var in qualification.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request")
		return
	}
	item, err := h.qualification.Create(c.Request.Context(), in, mw.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateProtocol handles PUT /qualification/protocols/:id.
func (h *Handler) UpdateProtocol(c *gin.Context) {
	var in qualification.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request")
		return
	}
	item, err := h.qualification.Update(c.Request.Context(), c.Param("id"), in, mw.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteProtocol handles DELETE /qualification/protocols/:id.
func (h *Handler) DeleteProtocol(c *gin.Context) {
	if err := h.qualification.Delete(c.Request.Context(), c.Param("id"), mw.Actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// QualificationProgress handles GET /qualification/progress.
func (h *Handler) QualificationProgress(c *gin.Context) {
	progress, err := h.qualification.Progress(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
