package dataprocessing

import (
	"context"
	"log/slog"
	"strings"

	"salesintel/internal/workbook"
	"salesintel/pkg/contracts/domain"
)

// ExtractorOptions tunes record extraction.
type ExtractorOptions struct {
	// MatchHeaders lets row 1 header text move columns away from their
	// default positions.
	MatchHeaders bool
}

// Extractor turns export sheets into typed records. Rows failing a gate
// column are skipped and counted, never fatal.
type Extractor struct {
	logger       *slog.Logger
	matchHeaders bool
}

// NewExtractor creates an extractor. A nil logger falls back to the default.
func NewExtractor(logger *slog.Logger, opts ExtractorOptions) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		logger:       logger.With(slog.String("component", "extractor")),
		matchHeaders: opts.MatchHeaders,
	}
}

// ExtractOrders reads open orders. A row is kept when its amount parses; the
// amount is converted to SEK with fx.
func (e *Extractor) ExtractOrders(ctx context.Context, wb workbook.Workbook, sheet string, cols OrderColumns, fx FXTable) ([]domain.Order, domain.ExtractStats) {
	if e.matchHeaders {
		cols = cols.ResolveHeaders(wb, sheet)
	}

	stats := domain.ExtractStats{Sheet: sheet}
	var orders []domain.Order
	for row := 2; row <= wb.MaxRow(sheet); row++ {
		stats.RowsScanned++

		amount, ok := ParseAmountWithCurrency(wb.Cell(sheet, row, cols.Amount))
		if !ok {
			stats.Skipped++
			e.skip(ctx, sheet, row, "amount")
			continue
		}

		order := domain.Order{
			OrderID:       text(wb.Cell(sheet, row, cols.ID)),
			CustomerName:  text(wb.Cell(sheet, row, cols.Customer)),
			Status:        text(wb.Cell(sheet, row, cols.Status)),
			InvoiceStatus: text(wb.Cell(sheet, row, cols.InvoiceStatus)),
			Amount:        amount,
			AmountBase:    ToBase(amount, fx),
			Row:           row,
		}
		if d := wb.Cell(sheet, row, cols.Date); d.Kind == domain.CellDate {
			t := d.Time
			order.OrderDate = &t
		}
		orders = append(orders, order)
	}

	stats.Extracted = len(orders)
	e.done(ctx, "orders", stats)
	return orders, stats
}

// ExtractArticleSales reads the article sheet of a monthly sales export.
// Rows need an article id and a non-zero numeric net amount.
func (e *Extractor) ExtractArticleSales(ctx context.Context, wb workbook.Workbook, sheet string, cols ArticleColumns) ([]domain.ArticleSale, domain.ExtractStats) {
	if e.matchHeaders {
		cols = cols.ResolveHeaders(wb, sheet)
	}

	stats := domain.ExtractStats{Sheet: sheet}
	var articles []domain.ArticleSale
	for row := 2; row <= wb.MaxRow(sheet); row++ {
		stats.RowsScanned++

		id := text(wb.Cell(sheet, row, cols.ID))
		if id == "" {
			stats.Skipped++
			e.skip(ctx, sheet, row, "article id")
			continue
		}
		net := ParseNumber(wb.Cell(sheet, row, cols.Net))
		if !net.IsNumber() || net.Value == 0 {
			stats.Skipped++
			e.skip(ctx, sheet, row, "net amount")
			continue
		}

		articles = append(articles, domain.ArticleSale{
			ArticleID:   id,
			ArticleName: text(wb.Cell(sheet, row, cols.Name)),
			NetAmount:   net.Value,
			Quantity:    NumberOrZero(wb.Cell(sheet, row, cols.Quantity)),
			TB:          ParseNumber(wb.Cell(sheet, row, cols.TB)),
			TG:          wb.Cell(sheet, row, cols.TG).String(),
			Row:         row,
		})
	}

	stats.Extracted = len(articles)
	e.done(ctx, "articles", stats)
	return articles, stats
}

// ExtractCustomerSales reads the customer sheet of a monthly sales export.
// Rows need a customer name and a non-zero numeric net amount.
func (e *Extractor) ExtractCustomerSales(ctx context.Context, wb workbook.Workbook, sheet string, cols CustomerColumns) ([]domain.CustomerSale, domain.ExtractStats) {
	if e.matchHeaders {
		cols = cols.ResolveHeaders(wb, sheet)
	}

	stats := domain.ExtractStats{Sheet: sheet}
	var customers []domain.CustomerSale
	for row := 2; row <= wb.MaxRow(sheet); row++ {
		stats.RowsScanned++

		name := text(wb.Cell(sheet, row, cols.Name))
		if name == "" {
			stats.Skipped++
			e.skip(ctx, sheet, row, "customer name")
			continue
		}
		net := ParseNumber(wb.Cell(sheet, row, cols.Net))
		if !net.IsNumber() || net.Value == 0 {
			stats.Skipped++
			e.skip(ctx, sheet, row, "net amount")
			continue
		}

		customers = append(customers, domain.CustomerSale{
			CustomerID:   text(wb.Cell(sheet, row, cols.ID)),
			CustomerName: name,
			NetAmount:    net.Value,
			Row:          row,
		})
	}

	stats.Extracted = len(customers)
	e.done(ctx, "customers", stats)
	return customers, stats
}

func (e *Extractor) skip(ctx context.Context, sheet string, row int, gate string) {
	e.logger.DebugContext(ctx, "row skipped",
		slog.String("sheet", sheet),
		slog.Int("row", row),
		slog.String("gate", gate))
}

func (e *Extractor) done(ctx context.Context, kind string, stats domain.ExtractStats) {
	e.logger.InfoContext(ctx, "extraction complete",
		slog.String("kind", kind),
		slog.String("sheet", stats.Sheet),
		slog.Int("rows_scanned", stats.RowsScanned),
		slog.Int("extracted", stats.Extracted),
		slog.Int("skipped", stats.Skipped))
}

func text(c domain.RawCell) string {
	return strings.TrimSpace(c.String())
}
