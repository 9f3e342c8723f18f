package analytics

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientpulse/internal/config"
	"clientpulse/pkg/contracts/domain"
)

func newTestPipeline(cfg config.AnalysisConfig) *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewPipeline(cfg, logger, nil)
	p.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestPipelineRun(t *testing.T) {
	p := newTestPipeline(config.DefaultAnalysis())

	var stages []string
	report, err := p.Run(context.Background(), groupedTransactions(4), groupedCampaigns(), func(stage string, _ time.Duration) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)

	assert.Equal(t, Stages, stages)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), report.GeneratedAt)
	assert.Equal(t, 12, report.TransactionCount)
	assert.Equal(t, 3, report.CampaignCount)
	assert.Equal(t, 12, report.CustomerCount)
	assert.Len(t, report.Segmentation.Clusters, 3)
	assert.Len(t, report.Transactions, 12)
	assert.Len(t, report.Campaigns, 3)
	assert.True(t, report.Regression.Available)
	assert.Len(t, report.CLV.Records, 12)
	assert.Len(t, report.Recommendations, 6)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, 0, report.HighValue.Total)
}

func TestPipelineWarnings(t *testing.T) {
	p := newTestPipeline(config.DefaultAnalysis())

	txs := append(scenarioTransactions(),
		domain.Transaction{CustomerID: "4", PurchaseFrequency: 3, TotalSpend: 60000, DaysSinceLastPurchase: 30, CampaignName: "C", PurchaseValue: 20},
		domain.Transaction{CustomerID: "5", PurchaseFrequency: 4, TotalSpend: 700, DaysSinceLastPurchase: 15, CampaignName: "D", PurchaseValue: 10},
	)
	campaigns := append(scenarioCampaigns(), domain.Campaign{Name: "C", Cost: 0, Reach: 10, ConversionRate: 0.1})

	report, err := p.Run(context.Background(), txs, campaigns, nil)
	require.NoError(t, err)

	assert.Len(t, report.Warnings, 3, "zero cost, unmatched campaign and excluded regression row")
	assert.Equal(t, 1, report.Regression.RowsExcluded)
	assert.Equal(t, 1, report.HighValue.Total)
	assert.Equal(t, "4", report.HighValue.Clients[0].CustomerID)
}

func TestPipelineRegressionUnavailableWarning(t *testing.T) {
	p := newTestPipeline(config.DefaultAnalysis())

	report, err := p.Run(context.Background(), scenarioTransactions(), nil, nil)
	require.NoError(t, err)

	assert.False(t, report.Regression.Available)
	assert.Contains(t, report.Warnings, "regression unavailable: 0 usable rows, at least 2 required")
}

func TestPipelineErrors(t *testing.T) {
	p := newTestPipeline(config.DefaultAnalysis())

	t.Run("no transactions", func(t *testing.T) {
		_, err := p.Run(context.Background(), nil, scenarioCampaigns(), nil)
		assert.ErrorIs(t, err, ErrNoTransactions)
	})

	t.Run("degenerate clustering", func(t *testing.T) {
		_, err := p.Run(context.Background(), scenarioTransactions()[:2], scenarioCampaigns(), nil)
		assert.ErrorIs(t, err, ErrDegenerateClustering)
		assert.Contains(t, err.Error(), StageSegmentation)
	})

	t.Run("cluster count other than three", func(t *testing.T) {
		cfg := config.DefaultAnalysis()
		cfg.Clusters = 5

		report, err := newTestPipeline(cfg).Run(context.Background(), groupedTransactions(4), groupedCampaigns(), nil)
		require.Error(t, err)
		assert.Nil(t, report)
	})
}

func TestPipelineDeterministic(t *testing.T) {
	p := newTestPipeline(config.DefaultAnalysis())

	first, err := p.Run(context.Background(), groupedTransactions(5), groupedCampaigns(), nil)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), groupedTransactions(5), groupedCampaigns(), nil)
	require.NoError(t, err)

	second.ID = first.ID
	assert.Equal(t, first, second)
}
