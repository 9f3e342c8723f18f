// Package http implements the HTTP handlers of the clientpulse service. The
// handlers only deal with transport: they read the multipart uploads and
// query parameters, call the report service and format the answer as HTML,
// JSON or a file download.
//
// # Routes
//
//	GET  /                          upload form
//	POST /analyze                   HTML report
//	POST /api/v1/analyze            JSON report, charts as data URIs unless ?charts=false
//	POST /api/v1/analyze/export     ?format=xlsx|csv, ?table= for CSV (default campaigns)
//	GET  /health                    {"status":"ok"}
//	GET  /api/health[/live|/ready]  probes
//	GET  /api/version               build information
//
// Uploads use the multipart fields file_transactions and file_campaigns.
// The Portuguese names file_transacoes and file_campanhas are accepted too.
//
// # Error Handling
//
// API errors are RFC 7807 problem documents written by
// apierrors.ErrorHandler:
//
//	{
//	    "type": "/errors/input/invalid",
//	    "title": "Invalid Input",
//	    "status": 400,
//	    "detail": "transactions: row 3: column \"total_spend\": invalid value (got \"abc\")",
//	    "dataset": "transactions",
//	    "column": "total_spend",
//	    "row": 3
//	}
//
// The HTML routes render the same problem as an error page with the
// matching status code.
package http
