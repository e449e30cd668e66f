// Package shared holds helpers used by more than one layer of salesintel.
//
// The testutil subpackage provides buffered slog handlers for asserting on
// log output, an in-memory workbook for extractor tests and a builder that
// writes real xlsx fixtures with excelize.
//
//	func TestSomething(t *testing.T) {
//	    data := testutil.NewWorkbook(t).
//	        Sheet("Order book", testutil.Row("Order", "Date", "Customer")).
//	        Bytes()
//	    ...
//	}
package shared
