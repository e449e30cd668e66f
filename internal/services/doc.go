// Package services implements the business logic layer of salesintel. It sits
// between the HTTP handlers or the batch CLI and the extraction and analytics
// packages.
//
// # Report runs
//
// ReportService exposes one method per report kind:
//
//	OrderBook     open orders, aging, concentration, week-over-week
//	Sales         monthly article and customer totals, top-20, new articles
//	Intelligence  master work file cohorts, revenue bridge, trends
//
// Each call is an independent run with its own run id. The id is put on the
// context, so every log line written during the run carries run_id next to
// the request's trace_id. Runs record report_runs_total and
// report_run_duration_seconds and open a span named report.<kind>.
//
// Services never keep results between calls; the caller owns the returned
// report.
//
// # Errors
//
// Failures are *errors.AppError values (SHEET_NOT_FOUND, WORKBOOK_READ,
// NO_PERIOD_DATA, VALIDATION) that the HTTP layer maps to problem details.
// Missing optional inputs never fail a run; the related sections are left
// empty and a note is added where the report has one.
package services
