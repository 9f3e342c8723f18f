package domain

import (
	"time"
)

// Cluster classifications, evaluated in this order against the cluster means.
const (
	ClassLoyalHighValue = "loyal high-value"
	ClassInactive       = "inactive"
	ClassModerate       = "moderate value, moderate recurrence"
)

// CLV segment labels
const (
	SegmentHighValue = "High Value"
	SegmentOther     = "Other"
)

// ROIStatus explains why EstimatedROI is or is not present.
type ROIStatus string

const (
	ROIStatusOK                ROIStatus = "ok"
	ROIStatusUndefinedZeroCost ROIStatus = "undefined_zero_cost"
	ROIStatusUnmatched         ROIStatus = "unmatched"
)

// Regression feature names
const (
	FeatureCampaignCost   = "campaign_cost"
	FeatureReach          = "reach"
	FeatureConversionRate = "conversion_rate"
)

// CustomerSegment is the aggregated view of one customer with its cluster
// assignment and 2-D projection.
type CustomerSegment struct {
	CustomerID            string  `json:"customer_id"`
	PurchaseFrequency     float64 `json:"purchase_frequency"`
	TotalSpend            float64 `json:"total_spend"`
	DaysSinceLastPurchase float64 `json:"days_since_last_purchase"`
	Cluster               int     `json:"cluster"`
	PC1                   float64 `json:"pc1"`
	PC2                   float64 `json:"pc2"`
}

// ClusterProfile holds per-cluster diagnostics. Means are rounded to two
// decimals, the same values the classification rules were evaluated on.
type ClusterProfile struct {
	Cluster        int     `json:"cluster"`
	Classification string  `json:"classification"`
	Size           int     `json:"size"`
	MeanFrequency  float64 `json:"mean_purchase_frequency"`
	MeanSpend      float64 `json:"mean_total_spend"`
	MeanDays       float64 `json:"mean_days_since_last_purchase"`
}

// LabeledTransaction is a transaction with its customer's cluster attached.
type LabeledTransaction struct {
	Transaction
	Cluster int `json:"cluster"`
}

// Segmentation groups the outputs of the customer clustering stage.
type Segmentation struct {
	Clusters          []ClusterProfile  `json:"clusters"`
	Customers         []CustomerSegment `json:"customers"`
	ExplainedVariance []float64         `json:"explained_variance_ratio"`
	Inertia           float64           `json:"inertia"`
	Iterations        int               `json:"iterations"`
}

// CampaignSummary aggregates transactions per campaign, left-joined with the
// campaign definition. Joined fields are nil when Matched is false.
type CampaignSummary struct {
	CampaignName       string    `json:"campaign_name"`
	DistinctCustomers  int       `json:"distinct_customers"`
	TotalPurchaseValue float64   `json:"total_purchase_value"`
	TotalFrequency     float64   `json:"total_purchase_frequency"`
	TotalSpend         float64   `json:"total_spend"`
	SpendPerCustomer   float64   `json:"spend_per_customer"`
	Matched            bool      `json:"matched"`
	CampaignCost       *float64  `json:"campaign_cost"`
	Reach              *float64  `json:"reach"`
	ConversionRate     *float64  `json:"conversion_rate"`
	EstimatedROI       *float64  `json:"estimated_roi"`
	ROIStatus          ROIStatus `json:"roi_status"`
}

// RegressionCoefficient is one fitted slope.
type RegressionCoefficient struct {
	Feature     string  `json:"feature"`
	Coefficient float64 `json:"coefficient"`
}

// RegressionReport is the linear impact model of campaign attributes on spend.
// Coefficients are sorted by value, descending.
type RegressionReport struct {
	Available    bool                    `json:"available"`
	Coefficients []RegressionCoefficient `json:"coefficients"`
	Intercept    float64                 `json:"intercept"`
	RSquared     float64                 `json:"r_squared"`
	RowsUsed     int                     `json:"rows_used"`
	RowsExcluded int                     `json:"rows_excluded"`
}

// CLVRecord is one customer lifetime value observation and its segment.
type CLVRecord struct {
	CustomerID string  `json:"customer_id"`
	CLV        float64 `json:"clv"`
	Segment    string  `json:"segment"`
}

// CLVReport summarizes the CLV segmentation.
type CLVReport struct {
	Percentile     float64     `json:"percentile"`
	Threshold      float64     `json:"threshold"`
	Dedupe         string      `json:"dedupe"`
	HighValueCount int         `json:"high_value_count"`
	OtherCount     int         `json:"other_count"`
	Records        []CLVRecord `json:"records"`
}

// HighValueReport lists transactions whose total spend reaches the threshold.
// Clients holds at most the display cap; Total counts every match.
type HighValueReport struct {
	Threshold float64       `json:"threshold"`
	Total     int           `json:"total"`
	Clients   []Transaction `json:"clients"`
}

// Report is the complete result of one analysis run.
type Report struct {
	ID               string               `json:"id"`
	GeneratedAt      time.Time            `json:"generated_at"`
	TransactionCount int                  `json:"transaction_count"`
	CampaignCount    int                  `json:"campaign_count"`
	CustomerCount    int                  `json:"customer_count"`
	Segmentation     Segmentation         `json:"segmentation"`
	Transactions     []LabeledTransaction `json:"-"`
	Campaigns        []CampaignSummary    `json:"campaigns"`
	Regression       RegressionReport     `json:"regression"`
	CLV              CLVReport            `json:"clv"`
	HighValue        HighValueReport      `json:"high_value"`
	Recommendations  []string             `json:"recommendations"`
	Warnings         []string             `json:"warnings,omitempty"`
}
