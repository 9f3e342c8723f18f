// Package shared holds helpers used across packages that belong to no single
// layer.
//
// The testutil subpackage provides a capturing slog handler for asserting on
// log output and small CSV datasets for exercising the upload and analysis
// paths end to end:
//
//	logger, logs := testutil.NewTestLogger(t)
//	body, contentType := testutil.MultipartUpload(t, testutil.Files{
//	    "file_transactions": testutil.TransactionsCSV,
//	    "file_campaigns":    testutil.CampaignsCSV,
//	})
package shared
