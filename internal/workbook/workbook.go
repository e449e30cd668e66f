// Package workbook reads spreadsheet uploads into typed cells and locates
// the sheets each report needs.
//
// Readers never interpret values beyond their storage type: a cell is a
// number, a text, a date or absent. Locale handling of numbers stored as
// text belongs to the dataprocessing package.
package workbook

import "salesintel/pkg/contracts/domain"

// Workbook is the read-only view of a spreadsheet the extractors consume.
// Rows and columns are 1-based; cells outside the populated range are
// absent.
type Workbook interface {
	SheetNames() []string
	MaxRow(sheet string) int
	MaxCol(sheet string) int
	Cell(sheet string, row, col int) domain.RawCell
}
