package analytics

import (
	"fmt"

	"clientpulse/internal/config"
	"clientpulse/pkg/contracts/domain"
)

// CLVRecords derives lifetime value observations from transactions.
//
// With config.CLVDedupeCustomer each customer contributes one record holding
// their largest total spend, ordered by customer id. With config.CLVDedupePair
// every distinct (customer, total spend) pair is a record, in order of first
// appearance.
func CLVRecords(txs []domain.Transaction, dedupe string) ([]domain.CLVRecord, error) {
	switch dedupe {
	case config.CLVDedupeCustomer:
		customers := AggregateCustomers(txs)
		out := make([]domain.CLVRecord, len(customers))
		for i, c := range customers {
			out[i] = domain.CLVRecord{CustomerID: c.CustomerID, CLV: c.TotalSpend}
		}
		return out, nil
	case config.CLVDedupePair:
		type pair struct {
			id    string
			spend float64
		}
		seen := make(map[pair]struct{}, len(txs))
		var out []domain.CLVRecord
		for _, tx := range txs {
			p := pair{tx.CustomerID, tx.TotalSpend}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, domain.CLVRecord{CustomerID: tx.CustomerID, CLV: tx.TotalSpend})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown clv dedupe mode %q", dedupe)
	}
}

// SegmentCLV labels each record "High Value" when its CLV is at or above the
// given percentile of all CLV values, and "Other" otherwise.
func SegmentCLV(txs []domain.Transaction, percentile float64, dedupe string) (domain.CLVReport, error) {
	records, err := CLVRecords(txs, dedupe)
	if err != nil {
		return domain.CLVReport{}, err
	}

	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.CLV
	}
	threshold := Percentile(values, percentile)

	report := domain.CLVReport{
		Percentile: percentile,
		Threshold:  threshold,
		Dedupe:     dedupe,
		Records:    records,
	}
	for i := range records {
		if records[i].CLV >= threshold {
			records[i].Segment = domain.SegmentHighValue
			report.HighValueCount++
		} else {
			records[i].Segment = domain.SegmentOther
			report.OtherCount++
		}
	}
	return report, nil
}

// HighValueTransactions keeps the transactions whose total spend is at least
// threshold, preserving input order. Applying it to its own output is a no-op.
func HighValueTransactions(txs []domain.Transaction, threshold float64) []domain.Transaction {
	var out []domain.Transaction
	for _, tx := range txs {
		if tx.TotalSpend >= threshold {
			out = append(out, tx)
		}
	}
	return out
}

// FilterHighValue reports the high-spend transactions, listing at most
// displayCap of them while counting all.
func FilterHighValue(txs []domain.Transaction, threshold float64, displayCap int) domain.HighValueReport {
	all := HighValueTransactions(txs, threshold)
	shown := all
	if len(shown) > displayCap {
		shown = shown[:displayCap]
	}
	return domain.HighValueReport{
		Threshold: threshold,
		Total:     len(all),
		Clients:   append([]domain.Transaction(nil), shown...),
	}
}
