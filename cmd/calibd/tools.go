package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/csvio"
	"calibration-qa-backend/internal/db"
	"calibration-qa-backend/internal/model"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo users, instruments and history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, appStore, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()
		return db.Seed(cmd.Context(), appStore.DB(), logger)
	},
}

var (
	importDryRun bool
	importActor  string
)

var importCmd = &cobra.Command{
	Use:   "import <schedule.csv|schedule.xlsx>",
	Short: "Import next calibration dates from a code,date file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var (
	exportMonth int
	exportYear  int
)

var exportCmd = &cobra.Command{
	Use:   "export <schedule.xlsx>",
	Short: "Write the calibration schedule as an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Only print the preview")
	importCmd.Flags().StringVar(&importActor, "actor", model.SystemUser, "Name recorded in the audit trail")
	exportCmd.Flags().IntVar(&exportMonth, "month", 0, "Month filter (1-12, 0 for all)")
	exportCmd.Flags().IntVar(&exportYear, "year", 0, "Year filter (0 for all)")
}

func runImport(cmd *cobra.Command, args []string) error {
	_, logger, appStore, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	known, err := appStore.InstrumentsByCode(ctx)
	if err != nil {
		return err
	}
	var preview *csvio.Preview
	if strings.EqualFold(filepath.Ext(args[0]), ".xlsx") {
		preview, err = csvio.ParseScheduleXLSX(f, known)
	} else {
		preview, err = csvio.ParseSchedule(f, known)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, row := range preview.Rows {
		if row.Valid {
			fmt.Fprintf(out, "OK    line %d: %s -> %s\n", row.Line, row.Code, row.Date)
		} else {
			fmt.Fprintf(out, "SKIP  line %d: %s (%s)\n", row.Line, row.Code, row.Error)
		}
	}
	if importDryRun {
		return nil
	}
	if preview.Valid == 0 {
		return csvio.ErrNoValidRows
	}

	n, err := appStore.ApplySchedule(ctx, preview.Updates(), importActor)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Applied %d of %d rows.\n", n, len(preview.Rows))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, logger, appStore, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	month := calib.ToMonth(exportMonth)
	if exportMonth != 0 && month == 0 {
		return fmt.Errorf("month must be 1-12, got %d", exportMonth)
	}

	all, err := appStore.AllInstruments(cmd.Context())
	if err != nil {
		return err
	}
	selected := all[:0]
	for _, inst := range all {
		if calib.MatchesSchedule(inst, month, exportYear, "") {
			selected = append(selected, inst)
		}
	}

	wb, err := csvio.ScheduleWorkbook(selected, calib.Today(cfg.Location()))
	if err != nil {
		return err
	}
	defer wb.Close()
	if err := wb.SaveAs(args[0]); err != nil {
		return fmt.Errorf("failed to save %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d instruments to %s\n", len(selected), args[0])
	return nil
}
