package http

import (
	"context"

	"clientpulse/internal/services"
)

// ReportService builds reports from uploaded datasets.
type ReportService interface {
	Analyze(ctx context.Context, req services.AnalyzeRequest) (*services.ReportResult, error)
}
