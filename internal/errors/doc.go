// Package errors maps application errors to RFC 7807 problem responses.
//
// Dataset problems (dataprocessing.InputError and its sentinels) become 400
// responses carrying the dataset, column and row. Inputs the analysis cannot
// cluster become 422. Timeouts become 504. Anything else is a 500 whose
// detail does not leak the underlying error.
package errors
