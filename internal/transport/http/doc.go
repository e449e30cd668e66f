// Package http exposes the report pipeline over HTTP.
//
// Handlers stay thin: they parse the multipart upload, validate the form
// with the shared validator, open the workbooks and hand them to the report
// service. Results are answered as JSON through chi/render or streamed in
// the requested export format. Every failure goes through the RFC 7807
// error handler, so clients always receive problem details with the
// request's trace id.
//
// # Endpoints
//
//	POST /api/reports/orderbook     file, previous, eur, usd, gbp, today, format
//	POST /api/reports/sales         file, master, format
//	POST /api/reports/intelligence  file, current, previous, format
//	GET  /api/health
//	GET  /api/health/ready
package http
