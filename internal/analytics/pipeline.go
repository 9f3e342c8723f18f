package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"clientpulse/internal/config"
	"clientpulse/internal/infrastructure"
	"clientpulse/pkg/contracts/domain"
)

// TracerName names the tracer used for pipeline spans.
const TracerName = "clientpulse.analytics"

// Stage names, used for spans, metrics and progress reporting.
const (
	StageSegmentation = "segmentation"
	StageCampaigns    = "campaigns"
	StageRegression   = "regression"
	StageCLV          = "clv"
	StageHighValue    = "high_value"
)

// Stages lists the pipeline stages in execution order.
var Stages = []string{StageSegmentation, StageCampaigns, StageRegression, StageCLV, StageHighValue}

// StageObserver is notified after each stage completes.
type StageObserver func(stage string, elapsed time.Duration)

// Pipeline turns transactions and campaigns into a report. It holds no
// per-run state and is safe for concurrent use.
type Pipeline struct {
	cfg     config.AnalysisConfig
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
	tracer  trace.Tracer
	now     func() time.Time
}

// NewPipeline creates a pipeline. metrics may be nil.
func NewPipeline(cfg config.AnalysisConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "analytics_pipeline")),
		metrics: metrics,
		tracer:  otel.Tracer(TracerName),
		now:     time.Now,
	}
}

// Run executes every stage in order. observe may be nil.
func (p *Pipeline) Run(ctx context.Context, txs []domain.Transaction, campaigns []domain.Campaign, observe StageObserver) (*domain.Report, error) {
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}

	ctx, span := p.tracer.Start(ctx, "analytics.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("transactions", len(txs)),
			attribute.Int("campaigns", len(campaigns)),
		),
	)
	defer span.End()

	report := &domain.Report{
		ID:               uuid.NewString(),
		GeneratedAt:      p.now().UTC(),
		TransactionCount: len(txs),
		CampaignCount:    len(campaigns),
		Recommendations:  Recommendations(),
	}

	stages := []struct {
		name string
		fn   func() error
	}{
		{StageSegmentation, func() error {
			seg, labeled, err := Segment(txs, SegmentOptions{
				Clusters:      p.cfg.Clusters,
				Seed:          p.cfg.Seed,
				Restarts:      p.cfg.Restarts,
				MaxIterations: p.cfg.MaxIterations,
			})
			if err != nil {
				return err
			}
			report.Segmentation = seg
			report.Transactions = labeled
			report.CustomerCount = len(seg.Customers)
			return nil
		}},
		{StageCampaigns, func() error {
			summaries, warnings := SummarizeCampaigns(txs, campaigns)
			report.Campaigns = summaries
			report.Warnings = append(report.Warnings, warnings...)
			return nil
		}},
		{StageRegression, func() error {
			reg, err := FitImpactModel(txs, campaigns)
			if err != nil {
				return err
			}
			report.Regression = reg
			if reg.RowsExcluded > 0 {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("%d of %d transactions had no matching campaign and were excluded from the regression", reg.RowsExcluded, len(txs)))
			}
			if !reg.Available {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("regression unavailable: %d usable rows, at least %d required", reg.RowsUsed, minRegressionRows))
			}
			return nil
		}},
		{StageCLV, func() error {
			clv, err := SegmentCLV(txs, p.cfg.CLVPercentile, p.cfg.CLVDedupe)
			if err != nil {
				return err
			}
			report.CLV = clv
			return nil
		}},
		{StageHighValue, func() error {
			report.HighValue = FilterHighValue(txs, p.cfg.HighValueThreshold, p.cfg.HighValueDisplayCap)
			return nil
		}},
	}

	for _, st := range stages {
		if err := p.runStage(ctx, st.name, st.fn, observe); err != nil {
			infrastructure.RecordError(ctx, err)
			return nil, fmt.Errorf("%s stage: %w", st.name, err)
		}
	}

	p.logger.InfoContext(ctx, "report computed",
		slog.String("report_id", report.ID),
		slog.Int("transactions", report.TransactionCount),
		slog.Int("customers", report.CustomerCount),
		slog.Int("campaigns", len(report.Campaigns)),
		slog.Int("warnings", len(report.Warnings)))

	return report, nil
}

func (p *Pipeline) runStage(ctx context.Context, name string, fn func() error, observe StageObserver) error {
	ctx, span := p.tracer.Start(ctx, "analytics."+name)
	defer span.End()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	infrastructure.RecordStageMetrics(ctx, p.metrics, name, elapsed)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		p.logger.WarnContext(ctx, "stage failed",
			slog.String("stage", name),
			slog.String("error", err.Error()))
		return err
	}

	p.logger.DebugContext(ctx, "stage complete",
		slog.String("stage", name),
		slog.Duration("elapsed", elapsed))
	if observe != nil {
		observe(name, elapsed)
	}
	return nil
}
