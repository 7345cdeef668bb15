package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"calibration-qa-backend/internal/model"
)

// AuditFilename is the download name of the audit export.
const AuditFilename = "audit_trail.csv"

var auditHeader = []string{"id", "timestamp", "user", "action", "details"}

// WriteAudit writes entries as CSV with timestamps rendered in loc.
func WriteAudit(w io.Writer, entries []model.AuditLog, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(auditHeader); err != nil {
		return fmt.Errorf("failed to write audit header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.ID,
			e.Timestamp.In(loc).Format("02-01-2006 15:04:05"),
			e.User,
			string(e.Action),
			e.Details,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write audit row %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
