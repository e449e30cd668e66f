package workbook

import (
	"strings"

	apperrors "salesintel/internal/errors"
)

// Candidate sheet names per export kind, in priority order.
var (
	OrderSheets          = []string{"Order book", "Order_book", "Orderbook", "Sheet1", "Orders"}
	ArticleSheets        = []string{"Article", "Articles", "Artikel", "Sales"}
	CustomerSheets       = []string{"Company", "Customer", "Customers", "Kund", "Kunder"}
	MasterCustomerSheets = []string{"Försäljning per kund"}
	MasterArticleSheets  = []string{"Försäljning per artikel"}
)

// MatchSheet returns the first candidate present in names, compared
// case-insensitively after trimming.
func MatchSheet(names, candidates []string) (string, bool) {
	for _, want := range candidates {
		w := strings.ToLower(strings.TrimSpace(want))
		for _, name := range names {
			if strings.ToLower(strings.TrimSpace(name)) == w {
				return name, true
			}
		}
	}
	return "", false
}

// FindSheet is MatchSheet with a fallback: a workbook holding exactly one
// sheet resolves to it whatever it is called.
func FindSheet(names, candidates []string) (string, bool) {
	if name, ok := MatchSheet(names, candidates); ok {
		return name, true
	}
	if len(names) == 1 {
		return names[0], true
	}
	return "", false
}

// Resolve runs FindSheet against a workbook and returns a SHEET_NOT_FOUND
// error naming the sheets that do exist.
func Resolve(wb Workbook, candidates []string) (string, error) {
	names := wb.SheetNames()
	if name, ok := FindSheet(names, candidates); ok {
		return name, nil
	}
	return "", apperrors.NewSheetNotFoundError(candidates, names)
}
