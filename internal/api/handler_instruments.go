package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/mw"
	"calibration-qa-backend/internal/store"
)

// historyLength is how many past calibrations the asset detail shows.
const historyLength = 3

// ListInstruments handles GET /instruments?search=&status=&page=&page_size=.
func (h *Handler) ListInstruments(c *gin.Context) {
	status := model.AssetStatus(c.Query("status"))
	if status != "" && status != "ALL" && !status.Valid() {
		respondError(c, calib.ValidationErrors{"status": calib.MsgInvalidStatus})
		return
	}
	page, pageSize := getPagination(c)
	items, total, err := h.store.ListInstruments(c.Request.Context(), store.InstrumentFilter{
		Search:   c.Query("search"),
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(items, total, page, pageSize))
}

// GetInstrument handles GET /instruments/:id.
func (h *Handler) GetInstrument(c *gin.Context) {
	inst, err := h.store.GetInstrument(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inst)
}

// CreateInstrument handles POST /instruments.
func (h *Handler) CreateInstrument(c *gin.Context) {
	var inst model.Instrument
	if err := c.ShouldBindJSON(&inst); err != nil {
		badRequest(c, "invalid request")
		return
	}
	inst.ID = ""
	calib.ApplyDefaults(&inst, h.today())
	if err := calib.ValidateInstrument(&inst); err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.CreateInstrument(c.Request.Context(), &inst, mw.Actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inst)
}

// UpdateInstrument handles PUT /instruments/:id. Omitted fields keep their
// stored values.
func (h *Handler) UpdateInstrument(c *gin.Context) {
	id := c.Param("id")
	inst, err := h.store.GetInstrument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := c.ShouldBindJSON(inst); err != nil {
		badRequest(c, "invalid request")
		return
	}
	inst.ID = id
	if err := calib.ValidateInstrument(inst); err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.UpdateInstrument(c.Request.Context(), inst, mw.Actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inst)
}

// DeleteInstrument handles DELETE /instruments/:id.
func (h *Handler) DeleteInstrument(c *gin.Context) {
	if err := h.store.DeleteInstrument(c.Request.Context(), c.Param("id"), mw.Actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// InstrumentHistory handles GET /instruments/:id/history. Records outlive
// their instrument, so a deleted id still has history.
func (h *Handler) InstrumentHistory(c *gin.Context) {
	records, err := h.store.RecentCalibrations(c.Request.Context(), c.Param("id"), historyLength)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

type quickCalibrationRequest struct {
	Date model.Date `json:"date"`
}

// SubmitCalibration handles POST /instruments/:id/calibrations, recording
// a calibration on the given date without the step-by-step workflow.
func (h *Handler) SubmitCalibration(c *gin.Context) {
	var req quickCalibrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	rec, err := h.workflow.QuickSubmit(c.Request.Context(), c.Param("id"), req.Date, mw.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}
