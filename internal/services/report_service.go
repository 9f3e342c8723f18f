package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"clientpulse/internal/analytics"
	"clientpulse/internal/charts"
	"clientpulse/internal/config"
	"clientpulse/internal/dataprocessing"
	"clientpulse/internal/infrastructure"
	"clientpulse/pkg/contracts/domain"
)

// Report sources, used as a metric attribute.
const (
	SourceHTTP = "http"
	SourceCLI  = "cli"
)

// Upload is one dataset file. Name selects the decoder by extension.
type Upload struct {
	Name string
	Body io.Reader
}

// AnalyzeRequest describes one report build.
type AnalyzeRequest struct {
	Transactions Upload
	Campaigns    Upload
	// Charts requests PNG rendering of the report.
	Charts  bool
	Source  string
	Observe analytics.StageObserver
}

// ReportResult is a computed report and, when requested, its charts.
type ReportResult struct {
	Report *domain.Report
	Charts []charts.Chart
}

// ReportService runs the analysis pipeline on uploaded datasets. At most
// max_concurrent builds run at once; further requests fail fast with ErrBusy.
type ReportService struct {
	pipeline  *analytics.Pipeline
	sem       *semaphore.Weighted
	limit     int64
	inFlight  atomic.Int64
	metrics   *infrastructure.BusinessMetrics
	chartOpts charts.Options
	logger    *slog.Logger
}

// NewReportService creates a report service. metrics may be nil.
func NewReportService(cfg config.AnalysisConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.MaxConcurrent
	if limit <= 0 {
		limit = config.DefaultMaxConcurrent
	}
	opts := charts.DefaultOptions()
	if cfg.HistogramBins > 0 {
		opts.Bins = cfg.HistogramBins
	}
	return &ReportService{
		pipeline:  analytics.NewPipeline(cfg, logger, metrics),
		sem:       semaphore.NewWeighted(limit),
		limit:     limit,
		metrics:   metrics,
		chartOpts: opts,
		logger:    logger.With(slog.String("component", "report_service")),
	}
}

// Analyze decodes both datasets, runs the pipeline and optionally renders
// the charts.
func (s *ReportService) Analyze(ctx context.Context, req AnalyzeRequest) (*ReportResult, error) {
	if !s.sem.TryAcquire(1) {
		s.logger.WarnContext(ctx, "analysis rejected, no free slot", slog.Int64("limit", s.limit))
		return nil, ErrBusy
	}
	defer s.sem.Release(1)

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	infrastructure.RecordActiveReportChange(ctx, s.metrics, 1)
	defer infrastructure.RecordActiveReportChange(ctx, s.metrics, -1)

	source := req.Source
	if source == "" {
		source = SourceHTTP
	}

	start := time.Now()
	result, err := s.analyze(ctx, req)
	warnings := 0
	if result != nil {
		warnings = len(result.Report.Warnings)
	}
	infrastructure.RecordReportMetrics(ctx, s.metrics, source, time.Since(start), warnings, err)
	if err != nil {
		s.logger.WarnContext(ctx, "analysis failed",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.InfoContext(ctx, "analysis completed",
		slog.String("report_id", result.Report.ID),
		slog.String("source", source),
		slog.Int("charts", len(result.Charts)),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

func (s *ReportService) analyze(ctx context.Context, req AnalyzeRequest) (*ReportResult, error) {
	txs, campaigns, err := s.LoadDatasets(ctx, req.Transactions, req.Campaigns)
	if err != nil {
		return nil, err
	}

	report, err := s.pipeline.Run(ctx, txs, campaigns, req.Observe)
	if err != nil {
		return nil, err
	}

	result := &ReportResult{Report: report}
	if req.Charts {
		result.Charts, err = charts.Render(ctx, report, s.chartOpts)
		if err != nil {
			return nil, fmt.Errorf("render charts: %w", err)
		}
	}
	return result, nil
}

// LoadDatasets decodes the transactions and campaigns uploads.
func (s *ReportService) LoadDatasets(ctx context.Context, txUpload, campaignUpload Upload) ([]domain.Transaction, []domain.Campaign, error) {
	txFormat, err := uploadFormat(txUpload, domain.DatasetTransactions)
	if err != nil {
		return nil, nil, err
	}
	campaignFormat, err := uploadFormat(campaignUpload, domain.DatasetCampaigns)
	if err != nil {
		return nil, nil, err
	}

	txs, err := dataprocessing.ParseTransactions(txUpload.Body, txFormat)
	if err != nil {
		return nil, nil, err
	}
	infrastructure.RecordRowsIngested(ctx, s.metrics, domain.DatasetTransactions, len(txs))

	campaigns, err := dataprocessing.ParseCampaigns(campaignUpload.Body, campaignFormat)
	if err != nil {
		return nil, nil, err
	}
	infrastructure.RecordRowsIngested(ctx, s.metrics, domain.DatasetCampaigns, len(campaigns))

	s.logger.DebugContext(ctx, "datasets decoded",
		slog.Int("transactions", len(txs)),
		slog.Int("campaigns", len(campaigns)),
		slog.String("transactions_format", string(txFormat)),
		slog.String("campaigns_format", string(campaignFormat)))
	return txs, campaigns, nil
}

func uploadFormat(u Upload, dataset string) (dataprocessing.Format, error) {
	if u.Body == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingDataset, dataset)
	}
	format, err := dataprocessing.DetectFormat(u.Name)
	if err != nil {
		return "", &dataprocessing.InputError{Dataset: dataset, Err: err}
	}
	return format, nil
}

// InFlight reports the number of analyses currently running.
func (s *ReportService) InFlight() int64 {
	return s.inFlight.Load()
}

// Capacity reports the maximum number of concurrent analyses.
func (s *ReportService) Capacity() int64 {
	return s.limit
}
