package analytics

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"clientpulse/pkg/contracts/domain"
)

// ClusterCount is the number of customer segments.
const ClusterCount = 3

// SegmentOptions controls the clustering stage. Clusters must equal
// ClusterCount.
type SegmentOptions struct {
	Clusters      int
	Seed          uint64
	Restarts      int
	MaxIterations int
}

// AggregateCustomers collapses transactions to one row per customer, taking
// the maximum of each per-customer field. Rows are ordered by customer id.
func AggregateCustomers(txs []domain.Transaction) []domain.CustomerSegment {
	index := make(map[string]int, len(txs))
	var out []domain.CustomerSegment
	for _, tx := range txs {
		i, ok := index[tx.CustomerID]
		if !ok {
			index[tx.CustomerID] = len(out)
			out = append(out, domain.CustomerSegment{
				CustomerID:            tx.CustomerID,
				PurchaseFrequency:     tx.PurchaseFrequency,
				TotalSpend:            tx.TotalSpend,
				DaysSinceLastPurchase: tx.DaysSinceLastPurchase,
			})
			continue
		}
		c := &out[i]
		c.PurchaseFrequency = max(c.PurchaseFrequency, tx.PurchaseFrequency)
		c.TotalSpend = max(c.TotalSpend, tx.TotalSpend)
		c.DaysSinceLastPurchase = max(c.DaysSinceLastPurchase, tx.DaysSinceLastPurchase)
	}

	slices.SortFunc(out, func(a, b domain.CustomerSegment) int {
		return compareIDs(a.CustomerID, b.CustomerID)
	})
	return out
}

// Classify maps cluster means to a segment description. Rules are checked in
// order and the first match wins.
func Classify(meanFrequency, meanSpend, meanDays float64) string {
	switch {
	case meanFrequency > 12 && meanSpend > 5000:
		return domain.ClassLoyalHighValue
	case meanDays > 250:
		return domain.ClassInactive
	default:
		return domain.ClassModerate
	}
}

// Segment clusters customers on standardized (frequency, spend, recency),
// projects them to two dimensions and labels every transaction with its
// customer's cluster. Cluster ids are numbered by first appearance in the
// id-ordered customer list.
func Segment(txs []domain.Transaction, opts SegmentOptions) (domain.Segmentation, []domain.LabeledTransaction, error) {
	customers := AggregateCustomers(txs)
	k := opts.Clusters
	if k != ClusterCount {
		return domain.Segmentation{}, nil, fmt.Errorf("segmentation needs %d clusters, got %d", ClusterCount, k)
	}

	if len(customers) < k {
		return domain.Segmentation{}, nil, fmt.Errorf("%w: %d customers for %d clusters", ErrDegenerateClustering, len(customers), k)
	}

	raw := make([][]float64, len(customers))
	distinct := make(map[[3]float64]struct{}, len(customers))
	for i, c := range customers {
		raw[i] = []float64{c.PurchaseFrequency, c.TotalSpend, c.DaysSinceLastPurchase}
		distinct[[3]float64(raw[i])] = struct{}{}
	}
	if len(distinct) < k {
		return domain.Segmentation{}, nil, fmt.Errorf("%w: %d distinct feature vectors for %d clusters", ErrDegenerateClustering, len(distinct), k)
	}

	scaled := standardize(raw)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	km := kmeans(scaled, k, opts.Restarts, opts.MaxIterations, rng)

	relabel := make(map[int]int, k)
	for _, l := range km.Labels {
		if _, ok := relabel[l]; !ok {
			relabel[l] = len(relabel)
		}
	}

	proj, err := project2D(scaled)
	if err != nil {
		return domain.Segmentation{}, nil, err
	}

	byID := make(map[string]int, len(customers))
	for i := range customers {
		customers[i].Cluster = relabel[km.Labels[i]]
		customers[i].PC1 = proj.Coords[i][0]
		customers[i].PC2 = proj.Coords[i][1]
		byID[customers[i].CustomerID] = customers[i].Cluster
	}

	seg := domain.Segmentation{
		Clusters:          profileClusters(customers, k),
		Customers:         customers,
		ExplainedVariance: proj.Explained,
		Inertia:           km.Inertia,
		Iterations:        km.Iterations,
	}

	labeled := make([]domain.LabeledTransaction, len(txs))
	for i, tx := range txs {
		labeled[i] = domain.LabeledTransaction{Transaction: tx, Cluster: byID[tx.CustomerID]}
	}
	return seg, labeled, nil
}

func profileClusters(customers []domain.CustomerSegment, k int) []domain.ClusterProfile {
	profiles := make([]domain.ClusterProfile, k)
	sums := make([][3]float64, k)
	for _, c := range customers {
		profiles[c.Cluster].Size++
		sums[c.Cluster][0] += c.PurchaseFrequency
		sums[c.Cluster][1] += c.TotalSpend
		sums[c.Cluster][2] += c.DaysSinceLastPurchase
	}

	for j := range profiles {
		p := &profiles[j]
		p.Cluster = j
		if p.Size > 0 {
			n := float64(p.Size)
			p.MeanFrequency = round2(sums[j][0] / n)
			p.MeanSpend = round2(sums[j][1] / n)
			p.MeanDays = round2(sums[j][2] / n)
		}
		p.Classification = Classify(p.MeanFrequency, p.MeanSpend, p.MeanDays)
	}
	return profiles
}
