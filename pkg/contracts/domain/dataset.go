package domain

// Dataset names used in diagnostics and metrics.
const (
	DatasetTransactions = "transactions"
	DatasetCampaigns    = "campaigns"
)

// Transaction is one purchase event row from the transactions dataset.
// A customer normally appears on many rows; the per-customer fields
// (frequency, spend, recency) repeat on each of them.
type Transaction struct {
	CustomerID            string  `json:"customer_id" validate:"required"`
	PurchaseFrequency     float64 `json:"purchase_frequency" validate:"gte=0"`
	TotalSpend            float64 `json:"total_spend"`
	DaysSinceLastPurchase float64 `json:"days_since_last_purchase" validate:"gte=0"`
	CampaignName          string  `json:"campaign_name" validate:"required"`
	PurchaseValue         float64 `json:"purchase_value"`
}

// Campaign is one row of the campaigns dataset, keyed by Name.
type Campaign struct {
	Name           string  `json:"campaign_name" validate:"required"`
	Cost           float64 `json:"campaign_cost" validate:"gte=0"`
	Reach          float64 `json:"reach" validate:"gte=0"`
	ConversionRate float64 `json:"conversion_rate" validate:"gte=0"`
}
