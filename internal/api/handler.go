package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/certificate"
	"calibration-qa-backend/internal/csvio"
	"calibration-qa-backend/internal/insight"
	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/mw"
	"calibration-qa-backend/internal/qualification"
	"calibration-qa-backend/internal/store"
	"calibration-qa-backend/internal/workflow"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store         store.Store
	workflow      *workflow.Service
	certificates  *certificate.Service
	qualification *qualification.Service
	insight       *insight.Service
	tokens        *mw.TokenIssuer
	webpush       *webpush.Options
	loc           *time.Location
	log           *zap.Logger
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Store         store.Store
	Workflow      *workflow.Service
	Certificates  *certificate.Service
	Qualification *qualification.Service
	Insight       *insight.Service
	Tokens        *mw.TokenIssuer
	WebPush       *webpush.Options
	Location      *time.Location
	Log           *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:         d.Store,
		workflow:      d.Workflow,
		certificates:  d.Certificates,
		qualification: d.Qualification,
		insight:       d.Insight,
		tokens:        d.Tokens,
		webpush:       d.WebPush,
		loc:           loc,
		log:           log,
	}
}

func (h *Handler) today() model.Date {
	return calib.Today(h.loc)
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verrs calib.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verrs})
	case errors.Is(err, store.ErrDuplicateCode):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": calib.ValidationErrors{"code": calib.MsgCodeTaken},
		})
	case errors.Is(err, store.ErrEmptySelection), errors.Is(err, csvio.ErrNoValidRows):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errUploadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, store.ErrAlreadyApproved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// getPagination reads page (default 1) and page_size (default 20, max 100).
func getPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize
}

func paged(items any, total int64, page, pageSize int) gin.H {
	return gin.H{"items": items, "total": total, "page": page, "page_size": pageSize}
}

// monthYear reads the optional month (1-12) and year query parameters.
func monthYear(c *gin.Context) (time.Month, int, error) {
	var month time.Month
	var year int
	if m := c.Query("month"); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil || calib.ToMonth(n) == 0 {
			return 0, 0, calib.ValidationErrors{"month": "Bulan harus 1-12"}
		}
		month = calib.ToMonth(n)
	}
	if y := c.Query("year"); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil || n < 1 {
			return 0, 0, calib.ValidationErrors{"year": "Tahun tidak valid"}
		}
		year = n
	}
	return month, year, nil
}
