package exporter

import (
	"fmt"
	"strings"

	"clientpulse/pkg/contracts/domain"
)

// Table names, also used as worksheet names.
const (
	TableSummary         = "Summary"
	TableClusters        = "Clusters"
	TableCustomers       = "Customers"
	TableCampaigns       = "Campaigns"
	TableRegression      = "Regression"
	TableCLV             = "CLV"
	TableHighValue       = "High Value"
	TableRecommendations = "Recommendations"
	TableWarnings        = "Warnings"
)

// Table is a named grid of typed cells. Cells hold string, float64,
// *float64, int or bool values.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// StringRows renders every cell as CSV text.
func (t Table) StringRows() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = formatCell(v)
		}
		out[i] = rec
	}
	return out
}

// Tables flattens a report into its exportable tables, in workbook order.
// The warnings table is omitted when there are no warnings.
func Tables(r *domain.Report) []Table {
	tables := []Table{
		SummaryTable(r),
		ClustersTable(r.Segmentation),
		CustomersTable(r.Segmentation),
		CampaignsTable(r.Campaigns),
		RegressionTable(r.Regression),
		CLVTable(r.CLV),
		HighValueTable(r.HighValue),
		listTable(TableRecommendations, "Recommendation", r.Recommendations),
	}
	if len(r.Warnings) > 0 {
		tables = append(tables, listTable(TableWarnings, "Warning", r.Warnings))
	}
	return tables
}

// SummaryTable lists report-level counts as key/value rows.
func SummaryTable(r *domain.Report) Table {
	return Table{
		Name:   TableSummary,
		Header: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Report ID", r.ID},
			{"Generated at", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
			{"Transactions", r.TransactionCount},
			{"Campaigns", r.CampaignCount},
			{"Customers", r.CustomerCount},
			{"Clusters", len(r.Segmentation.Clusters)},
			{"High value transactions", r.HighValue.Total},
			{"CLV threshold", r.CLV.Threshold},
			{"Regression R²", r.Regression.RSquared},
		},
	}
}

func ClustersTable(s domain.Segmentation) Table {
	t := Table{
		Name:   TableClusters,
		Header: []string{"cluster", "classification", "size", "mean_purchase_frequency", "mean_total_spend", "mean_days_since_last_purchase"},
	}
	for _, c := range s.Clusters {
		t.Rows = append(t.Rows, []any{c.Cluster, c.Classification, c.Size, c.MeanFrequency, c.MeanSpend, c.MeanDays})
	}
	return t
}

func CustomersTable(s domain.Segmentation) Table {
	t := Table{
		Name:   TableCustomers,
		Header: []string{"customer_id", "purchase_frequency", "total_spend", "days_since_last_purchase", "cluster", "pc1", "pc2"},
	}
	for _, c := range s.Customers {
		t.Rows = append(t.Rows, []any{c.CustomerID, c.PurchaseFrequency, c.TotalSpend, c.DaysSinceLastPurchase, c.Cluster, c.PC1, c.PC2})
	}
	return t
}

// CampaignsTable is the campaign summary. Undefined ROI, cost, reach and
// conversion values are empty cells.
func CampaignsTable(campaigns []domain.CampaignSummary) Table {
	t := Table{
		Name: TableCampaigns,
		Header: []string{
			"campaign_name", "distinct_customers", "total_purchase_value", "total_purchase_frequency",
			"total_spend", "spend_per_customer", "campaign_cost", "reach", "conversion_rate",
			"estimated_roi", "roi_status",
		},
	}
	for _, c := range campaigns {
		t.Rows = append(t.Rows, []any{
			c.CampaignName, c.DistinctCustomers, c.TotalPurchaseValue, c.TotalFrequency,
			c.TotalSpend, c.SpendPerCustomer, c.CampaignCost, c.Reach, c.ConversionRate,
			c.EstimatedROI, string(c.ROIStatus),
		})
	}
	return t
}

func RegressionTable(r domain.RegressionReport) Table {
	t := Table{Name: TableRegression, Header: []string{"feature", "coefficient"}}
	if !r.Available {
		t.Rows = append(t.Rows, []any{"unavailable", fmt.Sprintf("%d usable rows", r.RowsUsed)})
		return t
	}
	for _, c := range r.Coefficients {
		t.Rows = append(t.Rows, []any{c.Feature, c.Coefficient})
	}
	t.Rows = append(t.Rows,
		[]any{"intercept", r.Intercept},
		[]any{"r_squared", r.RSquared},
		[]any{"rows_used", r.RowsUsed},
		[]any{"rows_excluded", r.RowsExcluded},
	)
	return t
}

func CLVTable(c domain.CLVReport) Table {
	t := Table{Name: TableCLV, Header: []string{"customer_id", "clv", "segment"}}
	for _, r := range c.Records {
		t.Rows = append(t.Rows, []any{r.CustomerID, r.CLV, r.Segment})
	}
	return t
}

func HighValueTable(h domain.HighValueReport) Table {
	t := Table{
		Name: TableHighValue,
		Header: []string{
			"customer_id", "purchase_frequency", "total_spend", "days_since_last_purchase",
			"campaign_name", "purchase_value",
		},
	}
	for _, tx := range h.Clients {
		t.Rows = append(t.Rows, []any{
			tx.CustomerID, tx.PurchaseFrequency, tx.TotalSpend, tx.DaysSinceLastPurchase,
			tx.CampaignName, tx.PurchaseValue,
		})
	}
	return t
}

func listTable(name, header string, items []string) Table {
	t := Table{Name: name, Header: []string{header}}
	for _, s := range items {
		t.Rows = append(t.Rows, []any{s})
	}
	return t
}

// TableKeys are the identifiers accepted by TableByKey.
var TableKeys = []string{
	"summary", "clusters", "customers", "campaigns", "regression",
	"clv", "high_value", "recommendations", "warnings",
}

// TableByKey returns a single table of the report for CSV export.
func TableByKey(r *domain.Report, key string) (Table, bool) {
	switch key {
	case "summary":
		return SummaryTable(r), true
	case "clusters":
		return ClustersTable(r.Segmentation), true
	case "customers":
		return CustomersTable(r.Segmentation), true
	case "campaigns":
		return CampaignsTable(r.Campaigns), true
	case "regression":
		return RegressionTable(r.Regression), true
	case "clv":
		return CLVTable(r.CLV), true
	case "high_value":
		return HighValueTable(r.HighValue), true
	case "recommendations":
		return listTable(TableRecommendations, "Recommendation", r.Recommendations), true
	case "warnings":
		return listTable(TableWarnings, "Warning", r.Warnings), true
	}
	return Table{}, false
}

// TableKey returns the TableByKey identifier of a table name.
func TableKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}
