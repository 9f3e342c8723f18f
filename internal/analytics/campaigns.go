package analytics

import (
	"fmt"
	"slices"
	"strings"

	"clientpulse/pkg/contracts/domain"
)

type campaignTotals struct {
	customers map[string]struct{}
	value     float64
	frequency float64
	spend     float64
}

// SummarizeCampaigns groups transactions by campaign name and left-joins the
// campaign definitions. It returns one row per campaign seen in txs, ordered
// by name, plus a warning for every row whose ROI is undefined and for every
// campaign definition no transaction references.
func SummarizeCampaigns(txs []domain.Transaction, campaigns []domain.Campaign) ([]domain.CampaignSummary, []string) {
	defs := indexCampaigns(campaigns)

	totals := make(map[string]*campaignTotals)
	for _, tx := range txs {
		t, ok := totals[tx.CampaignName]
		if !ok {
			t = &campaignTotals{customers: make(map[string]struct{})}
			totals[tx.CampaignName] = t
		}
		t.customers[tx.CustomerID] = struct{}{}
		t.value += tx.PurchaseValue
		t.frequency += tx.PurchaseFrequency
		t.spend += tx.TotalSpend
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	slices.SortFunc(names, strings.Compare)

	var warnings []string
	out := make([]domain.CampaignSummary, 0, len(names))
	for _, name := range names {
		t := totals[name]
		s := domain.CampaignSummary{
			CampaignName:       name,
			DistinctCustomers:  len(t.customers),
			TotalPurchaseValue: t.value,
			TotalFrequency:     t.frequency,
			TotalSpend:         t.spend,
			SpendPerCustomer:   t.spend / float64(len(t.customers)),
		}

		def, ok := defs[name]
		switch {
		case !ok:
			s.ROIStatus = domain.ROIStatusUnmatched
			warnings = append(warnings, fmt.Sprintf("campaign %q has no definition in the campaigns dataset; cost, reach and ROI are undefined", name))
		case def.Cost == 0:
			s.Matched = true
			s.ROIStatus = domain.ROIStatusUndefinedZeroCost
			warnings = append(warnings, fmt.Sprintf("campaign %q has zero cost; ROI is undefined", name))
		default:
			s.Matched = true
			s.ROIStatus = domain.ROIStatusOK
			roi := t.spend / def.Cost
			s.EstimatedROI = &roi
		}
		if s.Matched {
			cost, reach, conv := def.Cost, def.Reach, def.ConversionRate
			s.CampaignCost, s.Reach, s.ConversionRate = &cost, &reach, &conv
		}
		out = append(out, s)
	}

	var unused []string
	for name := range defs {
		if _, ok := totals[name]; !ok {
			unused = append(unused, name)
		}
	}
	slices.SortFunc(unused, strings.Compare)
	for _, name := range unused {
		warnings = append(warnings, fmt.Sprintf("campaign %q has no transactions", name))
	}
	return out, warnings
}

func indexCampaigns(campaigns []domain.Campaign) map[string]domain.Campaign {
	defs := make(map[string]domain.Campaign, len(campaigns))
	for _, c := range campaigns {
		if _, dup := defs[c.Name]; !dup {
			defs[c.Name] = c
		}
	}
	return defs
}
