// Package exporter writes finished reports to files or HTTP responses.
//
// Every report kind can be encoded as JSON. On top of that:
//
//	order book     xlsx (Summary, Orders, Aging, Large orders, Week over week), csv
//	sales          xlsx (Summary, Top articles, Top customers, Articles, New articles), csv
//	intelligence   xlsx, csv (one row per classified customer), html dashboard
//
// Workbooks are built with excelize using one shared set of styles: a dark
// header row that is frozen and filterable, thousands-grouped amounts and
// one-decimal percentages. CSV output starts with a UTF-8 BOM so Excel reads
// Swedish characters correctly.
//
// Example usage:
//
//	f, _ := exporter.ParseFormat(r.FormValue("format"))
//	w.Header().Set("Content-Type", f.ContentType())
//	err := exporter.Write(w, f, report)
package exporter
