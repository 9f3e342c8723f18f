// Package dataprocessing decodes the uploaded transactions and campaigns
// datasets into domain records.
//
// Both CSV and XLSX (first sheet) are accepted. Headers are matched
// case-insensitively and may use the Portuguese column names of the legacy
// exports. Decoding is strict: a missing column, an empty or non-numeric cell,
// a failed constraint or a duplicate campaign name aborts with an *InputError
// naming the dataset, column and 1-based data row. No row is dropped silently.
//
//	txs, err := dataprocessing.ParseTransactions(file, dataprocessing.FormatCSV)
//	var inErr *dataprocessing.InputError
//	if errors.As(err, &inErr) {
//	    log.Printf("bad cell %s/%s row %d", inErr.Dataset, inErr.Column, inErr.Row)
//	}
package dataprocessing
