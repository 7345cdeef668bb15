package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/insight"
	"calibration-qa-backend/internal/model"
)

// DashboardStats handles GET /dashboard/stats.
func (h *Handler) DashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	all, err := h.store.AllInstruments(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	inProcess, err := h.store.CountOpenJobs(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	due := 0
	for _, inst := range all {
		if inst.Status == model.StatusCalibrationDue {
			due++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"total":      len(all),
		"due":        due,
		"inProcess":  inProcess,
		"compliance": calib.Compliance(all),
	})
}

// DueSoon handles GET /dashboard/due-soon.
func (h *Handler) DueSoon(c *gin.Context) {
	ctx := c.Request.Context()
	settings, err := h.store.GetSettings(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	all, err := h.store.AllInstruments(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, calib.FilterDueSoon(all, h.today(), settings.DueSoonDays))
}

// Insight handles GET /dashboard/insight. It always answers 200; a failed
// generation carries the fallback text.
func (h *Handler) Insight(c *gin.Context) {
	all, err := h.store.AllInstruments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	text, err := h.insight.Analyze(c.Request.Context(), all)
	if err != nil {
		h.log.Debug("Insight unavailable", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{
		"insight":   text,
		"headline":  insight.Headline(text),
		"available": err == nil,
	})
}
