package analytics

import "errors"

var (
	// ErrNoTransactions is returned when Run receives an empty transactions set.
	ErrNoTransactions = errors.New("no transactions to analyze")
	// ErrDegenerateClustering is returned when there are fewer distinct
	// customers (or distinct feature vectors) than clusters.
	ErrDegenerateClustering = errors.New("not enough distinct customers to form clusters")
	// ErrDecomposition is returned when a matrix factorization does not converge.
	ErrDecomposition = errors.New("matrix decomposition failed")
)
