package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientpulse/pkg/contracts/domain"
)

func defaultSegmentOptions() SegmentOptions {
	return SegmentOptions{Clusters: ClusterCount, Seed: 42, Restarts: 10, MaxIterations: 300}
}

func TestAggregateCustomers(t *testing.T) {
	txs := []domain.Transaction{
		{CustomerID: "10", PurchaseFrequency: 3, TotalSpend: 100, DaysSinceLastPurchase: 40},
		{CustomerID: "2", PurchaseFrequency: 1, TotalSpend: 900, DaysSinceLastPurchase: 5},
		{CustomerID: "10", PurchaseFrequency: 7, TotalSpend: 50, DaysSinceLastPurchase: 90},
		{CustomerID: "abc", PurchaseFrequency: 2, TotalSpend: 10, DaysSinceLastPurchase: 1},
	}

	got := AggregateCustomers(txs)
	require.Len(t, got, 3)

	assert.Equal(t, "2", got[0].CustomerID)
	assert.Equal(t, "10", got[1].CustomerID, "numeric ids sort numerically")
	assert.Equal(t, "abc", got[2].CustomerID, "non-numeric ids sort after numeric ones")

	assert.Equal(t, 7.0, got[1].PurchaseFrequency)
	assert.Equal(t, 100.0, got[1].TotalSpend)
	assert.Equal(t, 90.0, got[1].DaysSinceLastPurchase)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		freq, spend   float64
		days          float64
		expectedClass string
	}{
		{"loyal high value", 13, 5001, 10, domain.ClassLoyalHighValue},
		{"loyal wins over inactive", 20, 8000, 400, domain.ClassLoyalHighValue},
		{"frequency boundary is exclusive", 12, 9000, 10, domain.ClassModerate},
		{"spend boundary is exclusive", 15, 5000, 10, domain.ClassModerate},
		{"inactive", 2, 300, 251, domain.ClassInactive},
		{"days boundary is exclusive", 2, 300, 250, domain.ClassModerate},
		{"moderate", 6, 2000, 90, domain.ClassModerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedClass, Classify(tt.freq, tt.spend, tt.days))
		})
	}
}

func TestSegment(t *testing.T) {
	txs := groupedTransactions(6)

	seg, labeled, err := Segment(txs, defaultSegmentOptions())
	require.NoError(t, err)

	t.Run("every customer gets one of k labels", func(t *testing.T) {
		require.Len(t, seg.Customers, 18)
		seen := map[int]int{}
		for _, c := range seg.Customers {
			assert.GreaterOrEqual(t, c.Cluster, 0)
			assert.Less(t, c.Cluster, 3)
			seen[c.Cluster]++
		}
		assert.Len(t, seen, 3, "every cluster is non-empty")
	})

	t.Run("labels are numbered by first appearance", func(t *testing.T) {
		next := 0
		for _, c := range seg.Customers {
			if c.Cluster == next {
				next++
			}
			assert.Less(t, c.Cluster, next)
		}
	})

	t.Run("transactions carry their customer's label", func(t *testing.T) {
		require.Len(t, labeled, len(txs))
		byID := map[string]int{}
		for _, c := range seg.Customers {
			byID[c.CustomerID] = c.Cluster
		}
		for _, l := range labeled {
			assert.Equal(t, byID[l.CustomerID], l.Cluster)
		}
	})

	t.Run("groups are recovered and classified", func(t *testing.T) {
		require.Len(t, seg.Clusters, 3)
		classes := map[string]int{}
		for _, p := range seg.Clusters {
			assert.Equal(t, 6, p.Size)
			classes[p.Classification]++
		}
		assert.Equal(t, 1, classes[domain.ClassLoyalHighValue])
		assert.Equal(t, 1, classes[domain.ClassInactive])
		assert.Equal(t, 1, classes[domain.ClassModerate])
	})

	t.Run("projection is finite with ratios summing to at most one", func(t *testing.T) {
		require.Len(t, seg.ExplainedVariance, 2)
		total := seg.ExplainedVariance[0] + seg.ExplainedVariance[1]
		assert.LessOrEqual(t, total, 1+1e-9)
		assert.GreaterOrEqual(t, seg.ExplainedVariance[0], seg.ExplainedVariance[1])
		for _, c := range seg.Customers {
			assert.False(t, math.IsNaN(c.PC1) || math.IsNaN(c.PC2))
		}
	})
}

func TestSegmentDeterministic(t *testing.T) {
	txs := groupedTransactions(5)

	first, _, err := Segment(txs, defaultSegmentOptions())
	require.NoError(t, err)
	second, _, err := Segment(txs, defaultSegmentOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSegmentScenario(t *testing.T) {
	seg, _, err := Segment(scenarioTransactions(), defaultSegmentOptions())
	require.NoError(t, err)

	require.Len(t, seg.Customers, 3)
	assert.Equal(t, 0, seg.Customers[0].Cluster)
	assert.Equal(t, 1, seg.Customers[1].Cluster)
	assert.Equal(t, 2, seg.Customers[2].Cluster)

	assert.Equal(t, domain.ClassLoyalHighValue, seg.Clusters[0].Classification)
	assert.Equal(t, domain.ClassInactive, seg.Clusters[1].Classification)
	assert.Equal(t, domain.ClassModerate, seg.Clusters[2].Classification)
	assert.InDelta(t, 0, seg.Inertia, 1e-9)
}

func TestSegmentDegenerate(t *testing.T) {
	tests := []struct {
		name string
		txs  []domain.Transaction
	}{
		{
			name: "fewer customers than clusters",
			txs: []domain.Transaction{
				{CustomerID: "1", PurchaseFrequency: 1, TotalSpend: 10, DaysSinceLastPurchase: 1},
				{CustomerID: "2", PurchaseFrequency: 2, TotalSpend: 20, DaysSinceLastPurchase: 2},
			},
		},
		{
			name: "identical feature vectors",
			txs: []domain.Transaction{
				{CustomerID: "1", PurchaseFrequency: 1, TotalSpend: 10, DaysSinceLastPurchase: 1},
				{CustomerID: "2", PurchaseFrequency: 1, TotalSpend: 10, DaysSinceLastPurchase: 1},
				{CustomerID: "3", PurchaseFrequency: 1, TotalSpend: 10, DaysSinceLastPurchase: 1},
				{CustomerID: "4", PurchaseFrequency: 2, TotalSpend: 20, DaysSinceLastPurchase: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Segment(tt.txs, defaultSegmentOptions())
			assert.ErrorIs(t, err, ErrDegenerateClustering)
		})
	}
}

func TestSegmentRejectsClusterCount(t *testing.T) {
	for _, k := range []int{0, 2, 5} {
		opts := defaultSegmentOptions()
		opts.Clusters = k

		_, _, err := Segment(groupedTransactions(4), opts)
		assert.Error(t, err, "k=%d", k)
	}
}

func TestStandardizeConstantColumn(t *testing.T) {
	rows := [][]float64{{1, 5}, {2, 5}, {3, 5}}

	got := standardize(rows)

	for _, r := range got {
		assert.Equal(t, 0.0, r[1])
	}
	assert.InDelta(t, -math.Sqrt(1.5), got[0][0], 1e-12)
	assert.InDelta(t, 0, got[1][0], 1e-12)
}

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"7", "7", 0},
		{"9", "a", -1},
		{"b", "a", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, compareIDs(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}
