// Package analytics implements the customer and campaign analysis pipeline.
//
// A run is a fixed chain of stateless stages over the two input datasets:
//
//	segmentation  aggregate per customer, standardize, k-means, PCA, classify
//	campaigns     per-campaign totals left-joined to campaign costs, ROI
//	regression    OLS of total spend on cost, reach and conversion rate
//	clv           percentile-based lifetime value segments
//	high_value    transactions at or above the spend threshold
//
// Every stage is deterministic for a given input and seed. Undefined values
// (zero-cost ROI, unmatched campaigns) are carried as nil fields with a
// status and a report warning rather than as NaN or infinity.
package analytics
