// Package exporter turns analysis reports into downloadable tables.
//
// Tables flattens a report into named grids of typed cells. The same tables
// back both output formats:
//
//	// CSV of the campaign summary
//	err := exporter.WriteTable(w, exporter.CampaignsTable(report.Campaigns), true)
//
//	// XLSX workbook with one sheet per table
//	err = exporter.WriteWorkbook(w, report)
//
// CSVWriter writes tables to files under a base directory for the CLI.
package exporter
