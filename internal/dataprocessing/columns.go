package dataprocessing

import (
	"strings"

	"salesintel/internal/workbook"
)

// OrderColumns holds 1-based column positions in an order book export.
type OrderColumns struct {
	ID            int
	Date          int
	Customer      int
	Status        int
	InvoiceStatus int
	Amount        int
}

// DefaultOrderColumns returns the layout the ERP export uses.
func DefaultOrderColumns() OrderColumns {
	return OrderColumns{ID: 1, Date: 2, Customer: 3, Status: 4, InvoiceStatus: 5, Amount: 6}
}

// ArticleColumns holds 1-based column positions in the article sheet.
type ArticleColumns struct {
	ID       int
	Name     int
	Net      int
	Quantity int
	TB       int
	TG       int
}

// DefaultArticleColumns returns the layout the ERP export uses. Quantity is
// the "delivered" column, not the ordered one next to it.
func DefaultArticleColumns() ArticleColumns {
	return ArticleColumns{ID: 1, Name: 2, Net: 3, Quantity: 6, TB: 7, TG: 8}
}

// CustomerColumns holds 1-based column positions in the customer sheet.
type CustomerColumns struct {
	ID   int
	Name int
	Net  int
}

// DefaultCustomerColumns returns the layout the ERP export uses. Column 3
// holds the customer type and is not read.
func DefaultCustomerColumns() CustomerColumns {
	return CustomerColumns{ID: 1, Name: 2, Net: 4}
}

type columnAlias struct {
	target  *int
	headers []string
}

// ResolveHeaders moves columns whose header text in row 1 matches a known
// alias. Columns without a matching header keep their position.
func (c OrderColumns) ResolveHeaders(wb workbook.Workbook, sheet string) OrderColumns {
	resolveHeaders(wb, sheet, []columnAlias{
		{&c.ID, []string{"order no", "order number", "ordernr", "ordernummer", "order id"}},
		{&c.Date, []string{"order date", "orderdatum", "datum"}},
		{&c.Customer, []string{"customer", "customer name", "kund", "kundnamn"}},
		{&c.Status, []string{"status", "orderstatus"}},
		{&c.InvoiceStatus, []string{"invoice status", "inv.status", "fakturastatus", "fakt.status"}},
		{&c.Amount, []string{"amount", "belopp", "order value", "ordervärde"}},
	})
	return c
}

// ResolveHeaders moves columns whose header text in row 1 matches a known
// alias. Columns without a matching header keep their position.
func (c ArticleColumns) ResolveHeaders(wb workbook.Workbook, sheet string) ArticleColumns {
	resolveHeaders(wb, sheet, []columnAlias{
		{&c.ID, []string{"article no", "article number", "artikelnr", "artikelnummer"}},
		{&c.Name, []string{"article name", "artikelnamn", "benämning"}},
		{&c.Net, []string{"amount excl. vat", "summa utan moms", "net amount", "nettobelopp"}},
		{&c.Quantity, []string{"antal ut", "qty (ut)", "delivered qty"}},
		{&c.TB, []string{"tb"}},
		{&c.TG, []string{"tg", "tg%"}},
	})
	return c
}

// ResolveHeaders moves columns whose header text in row 1 matches a known
// alias. Columns without a matching header keep their position.
func (c CustomerColumns) ResolveHeaders(wb workbook.Workbook, sheet string) CustomerColumns {
	resolveHeaders(wb, sheet, []columnAlias{
		{&c.ID, []string{"customer no", "customer number", "kundnr", "kundnummer"}},
		{&c.Name, []string{"customer name", "kund", "kundnamn"}},
		{&c.Net, []string{"amount excl. vat", "summa utan moms", "net amount", "nettobelopp"}},
	})
	return c
}

func resolveHeaders(wb workbook.Workbook, sheet string, aliases []columnAlias) {
	headers := make(map[string]int)
	for col := 1; col <= wb.MaxCol(sheet); col++ {
		h := normalizeHeader(wb.Cell(sheet, 1, col).String())
		if h == "" {
			continue
		}
		if _, seen := headers[h]; !seen {
			headers[h] = col
		}
	}

	for _, a := range aliases {
		for _, name := range a.headers {
			if col, ok := headers[name]; ok {
				*a.target = col
				break
			}
		}
	}
}

func normalizeHeader(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
