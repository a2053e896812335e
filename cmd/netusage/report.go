package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"netusage/internal/cli"
	"netusage/internal/core"
	"netusage/internal/log"
	"netusage/internal/report"
	"netusage/internal/session"
)

var (
	reportFile   string
	reportSheet  bool
	reportYear   int
	reportMonth  int
	reportUnit   string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the usage summary for one month",
	Long: `Loads a usage CSV (or the configured Google Sheet) and prints the monthly
and yearly statistics with the daily usage table. Year and month default to
the most recent month in the data.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFile, "file", "", "usage CSV (default is data.default_csv)")
	reportCmd.Flags().BoolVar(&reportSheet, "sheet", false, "read the configured Google Sheets range instead of a file")
	reportCmd.Flags().IntVar(&reportYear, "year", 0, "year to report (default is the latest)")
	reportCmd.Flags().IntVar(&reportMonth, "month", 0, "month to report, 1-12 (default is the latest in the year)")
	reportCmd.Flags().StringVar(&reportUnit, "unit", "", "MB, GB or TB (default is data.default_unit)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(reportOutput)
	if err != nil {
		return err
	}
	if reportMonth < 0 || reportMonth > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", reportMonth)
	}
	if reportYear < 0 {
		return fmt.Errorf("year must be positive, got %d", reportYear)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, err := cli.SetupLogger(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}

	unit := cfg.DefaultUnit()
	if reportUnit != "" {
		if unit, err = core.ParseUnit(reportUnit); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	src, err := cli.NewSource(ctx, cfg, cli.SourceOptions{File: reportFile, Sheet: reportSheet})
	if err != nil {
		return err
	}

	sess, lr, err := session.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("loading %s: %w", src.Name(), err)
	}
	logger.WithComponent(log.ComponentSource).Debug("Dataset loaded",
		log.NewFields().
			WithLoad(sess.ID, sess.Source, sess.SourceKind, lr.RowsRead, lr.RowsKept, lr.RowsDropped, lr.ZeroCoerced).
			ToSlice()...)

	sel := sess.Resolve(core.Selection{Year: reportYear, Month: reportMonth, Unit: unit}, unit)
	doc := report.NewDocument(sess.Source, sess.Summary(sel), sess.Report)
	return report.Write(cmd.OutOrStdout(), format, doc)
}
