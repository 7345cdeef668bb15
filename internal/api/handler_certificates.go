package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"calibration-qa-backend/internal/mw"
	"calibration-qa-backend/internal/store"
)

// ListCertificates handles GET /certificates?month=&year=&parameter=&search=.
func (h *Handler) ListCertificates(c *gin.Context) {
	month, year, err := monthYear(c)
	if err != nil {
		respondError(c, err)
		return
	}
	records, stats, err := h.certificates.List(c.Request.Context(), store.CalibrationFilter{
		Year:      year,
		Month:     month,
		Parameter: c.Query("parameter"),
		Search:    c.Query("search"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records, "stats": stats})
}

// GetCertificate handles GET /certificates/:id.
func (h *Handler) GetCertificate(c *gin.Context) {
	doc, err := h.certificates.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// VerifyCertificate handles GET /certificates/:id/verify?digest=.
func (h *Handler) VerifyCertificate(c *gin.Context) {
	digest := c.Query("digest")
	if digest == "" {
		badRequest(c, "digest is required")
		return
	}
	ok, err := h.certificates.Verify(c.Request.Context(), c.Param("id"), digest)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "valid": ok})
}

// ApproveCertificate handles POST /certificates/:id/approve.
func (h *Handler) ApproveCertificate(c *gin.Context) {
	rec, err := h.certificates.Approve(c.Request.Context(), c.Param("id"), mw.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
