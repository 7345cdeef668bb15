package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/mw"
	"calibration-qa-backend/internal/workflow"
)

type startJobRequest struct {
	InstrumentID string `json:"instrumentId" binding:"required"`
}

// StartJob handles POST /jobs. An instrument has at most one open job, so
// starting again returns it.
func (h *Handler) StartJob(c *gin.Context) {
	var req startJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "instrumentId is required")
		return
	}
	job, err := h.workflow.Start(c.Request.Context(), req.InstrumentID, mw.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobs handles GET /jobs, the open work orders.
func (h *Handler) ListJobs(c *gin.Context) {
	jobs, err := h.store.ListOpenJobs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// GetJob handles GET /jobs/:id.
func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.workflow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// SubmitCondition handles POST /jobs/:id/condition.
func (h *Handler) SubmitCondition(c *gin.Context) {
	var in workflow.ConditionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request")
		return
	}
	job, err := h.workflow.Condition(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type readingsRequest struct {
	Readings []model.Reading `json:"readings"`
}

// SubmitReadings handles POST /jobs/:id/readings.
func (h *Handler) SubmitReadings(c *gin.Context) {
	var req readingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	job, err := h.workflow.Testing(c.Request.Context(), c.Param("id"), req.Readings)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// StepBack handles POST /jobs/:id/back.
func (h *Handler) StepBack(c *gin.Context) {
	job, err := h.workflow.Back(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CompleteJob handles POST /jobs/:id/complete.
func (h *Handler) CompleteJob(c *gin.Context) {
	var in workflow.VerifyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request")
		return
	}
	rec, err := h.workflow.Complete(c.Request.Context(), c.Param("id"), in, mw.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}
