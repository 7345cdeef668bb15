package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/csvio"
	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/mw"
	"calibration-qa-backend/internal/store"
)

// ListAudit handles GET /audit?user=&action=&page=&page_size=.
func (h *Handler) ListAudit(c *gin.Context) {
	page, pageSize := getPagination(c)
	items, total, err := h.store.ListAudit(c.Request.Context(), store.AuditFilter{
		User:     c.Query("user"),
		Action:   model.AuditAction(c.Query("action")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(items, total, page, pageSize))
}

type manualEntryRequest struct {
	Details string `json:"details"`
}

// AddAuditNote handles POST /audit, a manual note by the signed-in user.
func (h *Handler) AddAuditNote(c *gin.Context) {
	var req manualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	details := strings.TrimSpace(req.Details)
	if details == "" {
		respondError(c, calib.ValidationErrors{"details": "Catatan wajib diisi"})
		return
	}
	entry := &model.AuditLog{
		User:     mw.Actor(c),
		Action:   model.ActionManualNote,
		Details:  details,
		IsManual: true,
	}
	if err := h.store.AppendAudit(c.Request.Context(), entry); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ExportAudit handles GET /audit/export, the full trail as CSV.
func (h *Handler) ExportAudit(c *gin.Context) {
	items, _, err := h.store.ListAudit(c.Request.Context(), store.AuditFilter{
		User:   c.Query("user"),
		Action: model.AuditAction(c.Query("action")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, csvio.AuditFilename))
	c.Header("Content-Type", csvContentType)
	c.Status(http.StatusOK)
	if err := csvio.WriteAudit(c.Writer, items, h.loc); err != nil {
		_ = c.Error(err)
	}
}
