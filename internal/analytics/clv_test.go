package analytics

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientpulse/internal/config"
	"clientpulse/pkg/contracts/domain"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		p        float64
		expected float64
	}{
		{"median interpolates", []float64{4, 1, 3, 2}, 0.5, 2.5},
		{"minimum", []float64{4, 1, 3, 2}, 0, 1},
		{"maximum", []float64{4, 1, 3, 2}, 1, 4},
		{"upper quartile", []float64{200, 2000, 6000}, 0.75, 4000},
		{"single value", []float64{7}, 0.75, 7},
		{"empty", nil, 0.75, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Percentile(tt.values, tt.p), 1e-12)
		})
	}
}

func TestPercentileDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Percentile(values, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestSegmentCLVScenario(t *testing.T) {
	report, err := SegmentCLV(scenarioTransactions(), 0.75, config.CLVDedupeCustomer)
	require.NoError(t, err)

	assert.Equal(t, 4000.0, report.Threshold)
	assert.Equal(t, 1, report.HighValueCount)
	assert.Equal(t, 2, report.OtherCount)
	require.Len(t, report.Records, 3)
	assert.Equal(t, "1", report.Records[0].CustomerID)
	assert.Equal(t, domain.SegmentHighValue, report.Records[0].Segment)
	assert.Equal(t, domain.SegmentOther, report.Records[1].Segment)
}

func TestCLVRecordsDedupe(t *testing.T) {
	txs := []domain.Transaction{
		{CustomerID: "1", TotalSpend: 100},
		{CustomerID: "1", TotalSpend: 100},
		{CustomerID: "1", TotalSpend: 300},
		{CustomerID: "2", TotalSpend: 50},
	}

	t.Run("customer", func(t *testing.T) {
		records, err := CLVRecords(txs, config.CLVDedupeCustomer)
		require.NoError(t, err)
		assert.Equal(t, []domain.CLVRecord{
			{CustomerID: "1", CLV: 300},
			{CustomerID: "2", CLV: 50},
		}, records)
	})

	t.Run("pair", func(t *testing.T) {
		records, err := CLVRecords(txs, config.CLVDedupePair)
		require.NoError(t, err)
		assert.Equal(t, []domain.CLVRecord{
			{CustomerID: "1", CLV: 100},
			{CustomerID: "1", CLV: 300},
			{CustomerID: "2", CLV: 50},
		}, records)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := CLVRecords(txs, "weekly")
		assert.Error(t, err)
	})
}

func TestSegmentCLVPercentileOrdering(t *testing.T) {
	txs := groupedTransactions(5)

	prev := len(txs) + 1
	for _, p := range []float64{0, 0.25, 0.5, 0.75, 0.9, 1} {
		report, err := SegmentCLV(txs, p, config.CLVDedupeCustomer)
		require.NoError(t, err)
		assert.LessOrEqual(t, report.HighValueCount, prev, "percentile %v", p)
		assert.Equal(t, len(report.Records), report.HighValueCount+report.OtherCount)
		prev = report.HighValueCount
	}
}

func TestSegmentCLVThresholdNeverDropsWhenSpendRises(t *testing.T) {
	base := append(groupedTransactions(3),
		domain.Transaction{CustomerID: "1", TotalSpend: 500, CampaignName: "Summer"},
		domain.Transaction{CustomerID: "2", TotalSpend: 9500, CampaignName: "Winter"},
	)
	before, err := SegmentCLV(base, 0.75, config.CLVDedupeCustomer)
	require.NoError(t, err)

	for i := range base {
		for _, delta := range []float64{0.01, 250, 5000, 100000} {
			txs := slices.Clone(base)
			txs[i].TotalSpend += delta

			after, err := SegmentCLV(txs, 0.75, config.CLVDedupeCustomer)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, after.Threshold, before.Threshold,
				"raising row %d by %v", i, delta)
		}
	}
}

func TestHighValueTransactions(t *testing.T) {
	txs := []domain.Transaction{
		{CustomerID: "1", TotalSpend: 60000},
		{CustomerID: "2", TotalSpend: 59999.99},
		{CustomerID: "3", TotalSpend: 75000},
	}

	got := HighValueTransactions(txs, 60000)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].CustomerID, "threshold is inclusive")
	assert.Equal(t, "3", got[1].CustomerID)

	assert.Equal(t, got, HighValueTransactions(got, 60000))
}

func TestFilterHighValueCap(t *testing.T) {
	var txs []domain.Transaction
	for i := 0; i < 15; i++ {
		txs = append(txs, domain.Transaction{CustomerID: fmt.Sprint(i), TotalSpend: 60000 + float64(i)})
	}
	txs = append(txs, domain.Transaction{CustomerID: "low", TotalSpend: 10})

	report := FilterHighValue(txs, 60000, 10)

	assert.Equal(t, 15, report.Total)
	assert.Len(t, report.Clients, 10)
	assert.Equal(t, "0", report.Clients[0].CustomerID)
	assert.Equal(t, 60000.0, report.Threshold)
}

func TestRecommendations(t *testing.T) {
	got := Recommendations()
	require.Len(t, got, 6)

	got[0] = "changed"
	assert.NotEqual(t, "changed", Recommendations()[0])
}
