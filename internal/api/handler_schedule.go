package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/csvio"
	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/mw"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxUploadBytes  = 2 << 20
)

// errUploadTooLarge is returned for imports over maxUploadBytes.
var errUploadTooLarge = errors.New("upload exceeds 2 MiB")

// readLimited reads r whole, failing instead of truncating past maxUploadBytes.
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUploadBytes {
		return nil, errUploadTooLarge
	}
	return data, nil
}

func (h *Handler) scheduled(c *gin.Context) ([]model.Instrument, error) {
	month, year, err := monthYear(c)
	if err != nil {
		return nil, err
	}
	all, err := h.store.AllInstruments(c.Request.Context())
	if err != nil {
		return nil, err
	}
	term := c.Query("search")
	out := make([]model.Instrument, 0, len(all))
	for _, inst := range all {
		if calib.MatchesSchedule(inst, month, year, term) {
			out = append(out, inst)
		}
	}
	return out, nil
}

// Schedule handles GET /schedule?month=&year=&search=.
func (h *Handler) Schedule(c *gin.Context) {
	items, err := h.scheduled(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type bulkScheduleRequest struct {
	IDs  []string   `json:"ids"`
	Date model.Date `json:"date"`
}

// BulkSchedule handles POST /schedule/bulk.
func (h *Handler) BulkSchedule(c *gin.Context) {
	var req bulkScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if req.Date.IsZero() {
		respondError(c, calib.ValidationErrors{"date": "Tanggal jadwal wajib diisi"})
		return
	}
	n, err := h.store.ScheduleInstruments(c.Request.Context(), req.IDs, req.Date, mw.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// readImport parses an upload sent either as multipart field "file" or as
// the raw request body.
func (h *Handler) readImport(c *gin.Context) (*csvio.Preview, error) {
	var (
		data []byte
		name string
	)
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > maxUploadBytes {
			return nil, errUploadTooLarge
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload: %w", err)
		}
		defer f.Close()
		if data, err = readLimited(f); err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		name = fh.Filename
	} else {
		if data, err = readLimited(c.Request.Body); err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		if strings.Contains(c.ContentType(), "spreadsheetml") {
			name = "upload.xlsx"
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, calib.ValidationErrors{"file": "Berkas impor kosong"}
	}

	known, err := h.store.InstrumentsByCode(c.Request.Context())
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return csvio.ParseScheduleXLSX(bytes.NewReader(data), known)
	}
	return csvio.ParseSchedule(bytes.NewReader(data), known)
}

// PreviewImport handles POST /schedule/import/preview.
func (h *Handler) PreviewImport(c *gin.Context) {
	preview, err := h.readImport(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// CommitImport handles POST /schedule/import. Only valid rows are applied.
func (h *Handler) CommitImport(c *gin.Context) {
	preview, err := h.readImport(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if preview.Valid == 0 {
		respondError(c, csvio.ErrNoValidRows)
		return
	}
	n, err := h.store.ApplySchedule(c.Request.Context(), preview.Updates(), mw.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.log.Sugar().Infow("Schedule imported", "applied", n, "skipped", preview.Invalid)
	c.JSON(http.StatusOK, gin.H{"applied": n, "skipped": preview.Invalid, "rows": preview.Rows})
}

// ImportTemplate handles GET /schedule/import/template.
func (h *Handler) ImportTemplate(c *gin.Context) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, csvio.TemplateFilename))
	c.Data(http.StatusOK, csvContentType, csvio.Template())
}

// ExportSchedule handles GET /schedule/export, an XLSX of the filtered
// schedule.
func (h *Handler) ExportSchedule(c *gin.Context) {
	items, err := h.scheduled(c)
	if err != nil {
		respondError(c, err)
		return
	}
	today := h.today()
	month, year, _ := monthYear(c)
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = today.Month()
	}

	f, err := csvio.ScheduleWorkbook(items, today)
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		respondError(c, fmt.Errorf("failed to write workbook: %w", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, csvio.ScheduleFilename(year, int(month))))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
