// Package services implements the business logic behind the HTTP handlers
// and the CLI.
//
// ReportService decodes the two uploaded datasets, runs the analytics
// pipeline and renders the charts. It bounds concurrent builds with a
// weighted semaphore and answers ErrBusy instead of queueing:
//
//	svc := services.NewReportService(cfg.Analysis, logger, metrics)
//	result, err := svc.Analyze(ctx, services.AnalyzeRequest{
//	    Transactions: services.Upload{Name: "transactions.csv", Body: f1},
//	    Campaigns:    services.Upload{Name: "campaigns.xlsx", Body: f2},
//	    Charts:       true,
//	})
//
// HealthService answers the liveness, readiness and version probes.
// Readiness turns "not_ready" while every analysis slot is taken.
package services
