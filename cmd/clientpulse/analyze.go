package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"clientpulse/internal/analytics"
	"clientpulse/internal/config"
	"clientpulse/internal/exporter"
	"clientpulse/internal/services"
	handlers "clientpulse/internal/transport/http"
	"clientpulse/internal/validation"
)

// Output formats of the analyze command.
const (
	formatJSON = "json"
	formatHTML = "html"
	formatXLSX = "xlsx"
	formatCSV  = "csv"
)

type analyzeOptions struct {
	transactions string
	campaigns    string
	outDir       string
	format       string
	charts       bool
	quiet        bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Build a report from dataset files",
		Long: `Reads a transactions and a campaigns dataset (CSV or XLSX), runs the full
analysis and writes the report to the output directory.`,
		Example: `  clientpulse analyze --transactions transactions.csv --campaigns campaigns.csv
  clientpulse analyze --transactions t.xlsx --campaigns c.xlsx --format xlsx --out reports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.transactions, "transactions", "", "transactions dataset (.csv or .xlsx)")
	cmd.Flags().StringVar(&opts.campaigns, "campaigns", "", "campaigns dataset (.csv or .xlsx)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", config.DefaultReportDir, "output directory")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatHTML, "report format: json, html, xlsx or csv (one file per table)")
	cmd.Flags().BoolVar(&opts.charts, "charts", true, "render the charts (embedded in HTML, PNG files next to JSON)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "hide the progress bar")
	_ = cmd.MarkFlagRequired("transactions")
	_ = cmd.MarkFlagRequired("campaigns")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, opts *analyzeOptions) error {
	switch opts.format {
	case formatJSON, formatHTML, formatXLSX, formatCSV:
	default:
		return fmt.Errorf("unsupported format %q: use json, html, xlsx or csv", opts.format)
	}

	logger, err := root.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	validator := validation.NewFileValidator(logger)
	for _, path := range []string{opts.transactions, opts.campaigns} {
		if _, err := validator.ValidateDataset(path); err != nil {
			return err
		}
	}
	if err := validator.ValidateOutputDirectory(opts.outDir); err != nil {
		return err
	}

	txFile, err := os.Open(opts.transactions)
	if err != nil {
		return fmt.Errorf("open transactions: %w", err)
	}
	defer txFile.Close()

	campaignFile, err := os.Open(opts.campaigns)
	if err != nil {
		return fmt.Errorf("open campaigns: %w", err)
	}
	defer campaignFile.Close()

	withCharts := opts.charts && (opts.format == formatJSON || opts.format == formatHTML)
	bar := newStageBar(cmd.ErrOrStderr(), withCharts, opts.quiet)

	service := services.NewReportService(root.cfg.Analysis, logger, nil)
	result, err := service.Analyze(cmd.Context(), services.AnalyzeRequest{
		Transactions: services.Upload{Name: opts.transactions, Body: txFile},
		Campaigns:    services.Upload{Name: opts.campaigns, Body: campaignFile},
		Charts:       withCharts,
		Source:       services.SourceCLI,
		Observe: func(stage string, elapsed time.Duration) {
			bar.Describe(stage)
			_ = bar.Add(1)
		},
	})
	if err != nil {
		_ = bar.Exit()
		return err
	}
	if withCharts {
		bar.Describe("charts")
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	paths, err := writeReport(opts, result, logger)
	if err != nil {
		return err
	}

	logger.Info("report written",
		slog.String("report_id", result.Report.ID),
		slog.String("format", opts.format),
		slog.Any("files", paths))
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	for _, w := range result.Report.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return nil
}

// newStageBar counts the pipeline stages, plus chart rendering when enabled.
func newStageBar(w io.Writer, withCharts, quiet bool) *progressbar.ProgressBar {
	steps := len(analytics.Stages)
	if withCharts {
		steps++
	}
	return progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("analyzing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(!quiet),
	)
}

// writeReport writes the report in the requested format and returns the
// files it created.
func writeReport(opts *analyzeOptions, result *services.ReportResult, logger *slog.Logger) ([]string, error) {
	report := result.Report
	base := filepath.Join(opts.outDir, "clientpulse-report-"+report.ID)

	switch opts.format {
	case formatJSON:
		paths := []string{base + ".json"}
		err := writeFile(paths[0], func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		})
		if err != nil {
			return nil, err
		}
		for _, c := range result.Charts {
			p := fmt.Sprintf("%s-%s.png", base, c.Name)
			if err := os.WriteFile(p, c.PNG, 0o644); err != nil {
				return nil, fmt.Errorf("write chart %s: %w", c.Name, err)
			}
			paths = append(paths, p)
		}
		return paths, nil

	case formatXLSX:
		p := base + ".xlsx"
		return []string{p}, writeFile(p, func(w io.Writer) error {
			return exporter.WriteWorkbook(w, report)
		})

	case formatCSV:
		csvWriter := exporter.NewCSVWriter(opts.outDir, logger)
		var paths []string
		for _, t := range exporter.Tables(report) {
			name := fmt.Sprintf("%s-%s.csv", filepath.Base(base), exporter.TableKey(t.Name))
			p, err := csvWriter.WriteFile(name, t)
			if err != nil {
				return nil, err
			}
			paths = append(paths, p)
		}
		return paths, nil

	default:
		pages, err := handlers.NewPages()
		if err != nil {
			return nil, err
		}
		p := base + ".html"
		return []string{p}, writeFile(p, func(w io.Writer) error {
			return pages.WriteReport(w, report, result.Charts)
		})
	}
}

// writeFile creates path and removes it again when write fails.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			err = errors.Join(err, os.Remove(path))
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
