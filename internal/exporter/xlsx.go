package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"salesintel/internal/analytics"
	"salesintel/pkg/contracts/domain"
)

// colKind selects the number format of a table column.
type colKind int

const (
	colText colKind = iota
	colMoney
	colPercent
	colInt
	colDate
)

type column struct {
	title string
	kind  colKind
	width float64
}

// book wraps an excelize file with the report styles. The first error is
// kept and every later call becomes a no-op, so writers check it once.
type book struct {
	f      *excelize.File
	styles map[colKind]int
	header int
	title  int
	sheets int
	err    error
}

func newBook() *book {
	b := &book{f: excelize.NewFile(), styles: make(map[colKind]int)}

	border := []excelize.Border{
		{Type: "left", Color: "BFBFBF", Style: 1},
		{Type: "top", Color: "BFBFBF", Style: 1},
		{Type: "bottom", Color: "BFBFBF", Style: 1},
		{Type: "right", Color: "BFBFBF", Style: 1},
	}
	percentFmt := `0.0"%"`
	b.header = b.style(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
		Border:    border,
		Alignment: &excelize.Alignment{Vertical: "center"},
	})
	b.title = b.style(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	b.styles[colText] = b.style(&excelize.Style{Border: border})
	b.styles[colMoney] = b.style(&excelize.Style{Border: border, NumFmt: 4}) // #,##0.00
	b.styles[colPercent] = b.style(&excelize.Style{Border: border, CustomNumFmt: &percentFmt})
	b.styles[colInt] = b.style(&excelize.Style{Border: border, NumFmt: 3}) // #,##0
	b.styles[colDate] = b.style(&excelize.Style{Border: border, NumFmt: 14})
	return b
}

func (b *book) style(s *excelize.Style) int {
	if b.err != nil {
		return 0
	}
	id, err := b.f.NewStyle(s)
	if err != nil {
		b.err = fmt.Errorf("failed to create style: %w", err)
	}
	return id
}

// sheet adds a worksheet. The first one reuses the default "Sheet1".
func (b *book) sheet(name string) string {
	if b.err != nil {
		return name
	}
	b.sheets++
	if b.sheets == 1 {
		if err := b.f.SetSheetName("Sheet1", name); err != nil {
			b.err = fmt.Errorf("failed to rename sheet: %w", err)
		}
		return name
	}
	if _, err := b.f.NewSheet(name); err != nil {
		b.err = fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return name
}

func (b *book) set(sheet string, col, row int, v any, style int) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		b.err = err
		return
	}
	if t, ok := v.(*time.Time); ok {
		if t == nil {
			v = nil
		} else {
			v = *t
		}
	}
	if err := b.f.SetCellValue(sheet, cell, v); err != nil {
		b.err = fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
		return
	}
	if style != 0 {
		if err := b.f.SetCellStyle(sheet, cell, cell, style); err != nil {
			b.err = fmt.Errorf("failed to style %s!%s: %w", sheet, cell, err)
		}
	}
}

func (b *book) heading(sheet string, row int, text string) int {
	b.set(sheet, 1, row, text, b.title)
	return row + 1
}

// pairs writes label/value rows and returns the next free row.
func (b *book) pairs(sheet string, row int, kind colKind, kv ...any) int {
	for i := 0; i+1 < len(kv); i += 2 {
		b.set(sheet, 1, row, kv[i], b.styles[colText])
		b.set(sheet, 2, row, kv[i+1], b.styles[kind])
		row++
	}
	return row
}

// table writes a header row and data rows starting at row, and returns the
// row after the last one written.
func (b *book) table(sheet string, row int, cols []column, rows [][]any) int {
	for c, col := range cols {
		b.set(sheet, c+1, row, col.title, b.header)
		if col.width > 0 && b.err == nil {
			name, _ := excelize.ColumnNumberToName(c + 1)
			if err := b.f.SetColWidth(sheet, name, name, col.width); err != nil {
				b.err = err
			}
		}
	}
	for i, values := range rows {
		for c, v := range values {
			if c >= len(cols) {
				break
			}
			b.set(sheet, c+1, row+1+i, v, b.styles[cols[c].kind])
		}
	}
	return row + 1 + len(rows)
}

// dataSheet is a sheet holding one table with a frozen, filterable header.
func (b *book) dataSheet(name string, cols []column, rows [][]any) {
	sheet := b.sheet(name)
	b.table(sheet, 1, cols, rows)
	if b.err != nil {
		return
	}
	if err := b.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		b.err = fmt.Errorf("failed to freeze header of %s: %w", sheet, err)
		return
	}
	if len(rows) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(cols), len(rows)+1)
		if err := b.f.AutoFilter(sheet, "A1:"+last, nil); err != nil {
			b.err = fmt.Errorf("failed to add filter to %s: %w", sheet, err)
		}
	}
}

func (b *book) writeTo(w io.Writer) error {
	defer b.f.Close()
	if b.err != nil {
		return b.err
	}
	b.f.SetActiveSheet(0)
	if err := b.f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

var orderColumns = []column{
	{"Order", colText, 14},
	{"Date", colDate, 12},
	{"Customer", colText, 32},
	{"Status", colText, 14},
	{"Invoice status", colText, 18},
	{"Amount", colMoney, 14},
	{"Currency", colText, 9},
	{"Amount SEK", colMoney, 16},
}

func orderRows(orders []domain.Order) [][]any {
	rows := make([][]any, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []any{
			o.OrderID, o.OrderDate, o.CustomerName, o.Status, o.InvoiceStatus,
			o.Amount.Value, string(o.Amount.Currency), o.AmountBase,
		})
	}
	return rows
}

// WriteOrderBookXLSX writes the styled order book workbook.
func WriteOrderBookXLSX(w io.Writer, r *domain.OrderBookReport) error {
	b := newBook()

	summary := b.sheet("Summary")
	row := b.heading(summary, 1, "Order book")
	row = b.pairs(summary, row, colText,
		"Run", r.RunID,
		"Generated", r.GeneratedAt.Format("2006-01-02 15:04"))
	row = b.pairs(summary, row, colInt,
		"Orders", r.OrderCount,
		"Invoiced in part or full", r.InvoicedCount,
		"Rows skipped", r.Stats.Skipped)
	row = b.pairs(summary, row, colMoney, "Total SEK", r.TotalBase)
	row = b.pairs(summary, row, colPercent,
		"Top customer share", r.Concentration.Top1Percent,
		"Top 3 customer share", r.Concentration.Top3Percent)
	row = b.pairs(summary, row, colInt, "HHI", r.Concentration.HHI)

	row = b.heading(summary, row+1, "Alerts")
	if len(r.Alerts) == 0 {
		b.set(summary, 1, row, "No alerts", 0)
		row++
	}
	for _, a := range r.Alerts {
		b.set(summary, 1, row, a.Message, 0)
		row++
	}

	row = b.heading(summary, row+1, "Currencies")
	currencyRows := make([][]any, 0, len(r.Currencies))
	for _, c := range r.Currencies {
		currencyRows = append(currencyRows, []any{string(c.Currency), c.Rate, c.Count, c.Amount, c.AmountBase})
	}
	row = b.table(summary, row, []column{
		{"Currency", colText, 28}, {"Rate", colMoney, 16}, {"Orders", colInt, 10},
		{"Amount", colMoney, 16}, {"Amount SEK", colMoney, 16},
	}, currencyRows)

	row = b.heading(summary, row+1, "Top customers")
	shareRows := make([][]any, 0, len(r.Concentration.Top))
	for _, s := range r.Concentration.Top {
		shareRows = append(shareRows, []any{s.Name, s.Total, s.Percent})
	}
	b.table(summary, row, []column{{"Customer", colText, 0}, {"Amount SEK", colMoney, 0}, {"Share", colPercent, 0}}, shareRows)

	b.dataSheet("Orders", orderColumns, orderRows(r.Orders))

	agingRows := make([][]any, 0, len(r.Aging))
	for _, a := range r.Aging {
		d := a.OrderDate
		agingRows = append(agingRows, []any{a.OrderID, a.CustomerName, &d, a.DaysOld, a.MonthsOld, a.AmountBase})
	}
	b.dataSheet("Aging", []column{
		{"Order", colText, 14}, {"Customer", colText, 32}, {"Date", colDate, 12},
		{"Days", colInt, 8}, {"Months", colInt, 8}, {"Amount SEK", colMoney, 16},
	}, agingRows)

	b.dataSheet("Large orders", orderColumns, orderRows(r.LargeOrders))

	if wow := r.WeekOverWeek; wow != nil {
		var rows [][]any
		for _, part := range []struct {
			label string
			set   domain.OrderSet
		}{{"New", wow.New}, {"Closed", wow.Closed}, {"Unchanged", wow.Unchanged}} {
			for _, o := range part.set.Orders {
				rows = append(rows, []any{part.label, o.OrderID, o.CustomerName, o.AmountBase})
			}
		}
		b.dataSheet("Week over week", []column{
			{"Change", colText, 12}, {"Order", colText, 14}, {"Customer", colText, 32}, {"Amount SEK", colMoney, 16},
		}, rows)
	}

	return b.writeTo(w)
}

// WriteSalesXLSX writes the styled monthly sales workbook.
func WriteSalesXLSX(w io.Writer, r *domain.SalesReport) error {
	b := newBook()

	summary := b.sheet("Summary")
	row := b.heading(summary, 1, "Monthly sales")
	row = b.pairs(summary, row, colText,
		"Run", r.RunID,
		"Generated", r.GeneratedAt.Format("2006-01-02 15:04"))
	row = b.pairs(summary, row, colInt,
		"Articles", len(r.Articles),
		"Customers", len(r.Customers))
	row = b.pairs(summary, row, colMoney,
		"Article total", r.ArticleTotal,
		"Customer total", r.CustomerTotal)
	row = b.pairs(summary, row, colPercent,
		fmt.Sprintf("Top %d articles share", analytics.TopN), r.TopArticles.TopPercent,
		fmt.Sprintf("Top %d customers share", analytics.TopN), r.TopCustomers.TopPercent)
	if r.MasterAvailable {
		row = b.pairs(summary, row, colInt, "New articles", len(r.NewArticles))
	}
	if len(r.Notes) > 0 {
		row = b.heading(summary, row+1, "Notes")
		for _, n := range r.Notes {
			b.set(summary, 1, row, n, 0)
			row++
		}
	}
	if b.err == nil {
		b.err = b.f.SetColWidth(summary, "A", "A", 30)
	}

	topArticles := make([][]any, 0, len(r.TopArticles.Items)+1)
	for _, a := range r.TopArticles.Items {
		topArticles = append(topArticles, []any{a.Rank, a.ArticleID, a.ArticleName, a.NetAmount, a.Percent})
	}
	if r.TopArticles.OtherCount > 0 {
		topArticles = append(topArticles, []any{nil, fmt.Sprintf("Other (%d)", r.TopArticles.OtherCount), nil,
			r.TopArticles.OtherTotal, r.TopArticles.OtherPercent})
	}
	b.dataSheet("Top articles", []column{
		{"Rank", colInt, 6}, {"Article", colText, 16}, {"Name", colText, 36},
		{"Net", colMoney, 16}, {"Share", colPercent, 10},
	}, topArticles)

	topCustomers := make([][]any, 0, len(r.TopCustomers.Items)+1)
	for _, c := range r.TopCustomers.Items {
		topCustomers = append(topCustomers, []any{c.Rank, c.CustomerID, c.CustomerName, c.NetAmount, c.Percent})
	}
	if r.TopCustomers.OtherCount > 0 {
		topCustomers = append(topCustomers, []any{nil, fmt.Sprintf("Other (%d)", r.TopCustomers.OtherCount), nil,
			r.TopCustomers.OtherTotal, r.TopCustomers.OtherPercent})
	}
	b.dataSheet("Top customers", []column{
		{"Rank", colInt, 6}, {"Customer", colText, 12}, {"Name", colText, 36},
		{"Net", colMoney, 16}, {"Share", colPercent, 10},
	}, topCustomers)

	articleCols := []column{
		{"Article", colText, 16}, {"Name", colText, 36}, {"Net", colMoney, 16},
		{"Quantity", colMoney, 12}, {"TB", colText, 12}, {"TG", colText, 10},
	}
	b.dataSheet("Articles", articleCols, articleRows(r.Articles))
	if r.MasterAvailable {
		b.dataSheet("New articles", articleCols, articleRows(r.NewArticles))
	}

	return b.writeTo(w)
}

func articleRows(articles []domain.ArticleSale) [][]any {
	rows := make([][]any, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, []any{a.ArticleID, a.ArticleName, a.NetAmount, a.Quantity, numberText(a.TB), a.TG})
	}
	return rows
}

// WriteIntelligenceXLSX writes the master analysis workbook.
func WriteIntelligenceXLSX(w io.Writer, r *domain.IntelligenceReport) error {
	b := newBook()

	summary := b.sheet("Summary")
	row := b.heading(summary, 1, "Sales intelligence")
	row = b.pairs(summary, row, colText,
		"Run", r.RunID,
		"Current period", r.CurrentPeriod,
		"Previous period", r.PreviousPeriod)
	row = b.pairs(summary, row, colMoney,
		"Current total", r.CurrentTotal,
		"Previous total", r.PreviousTotal,
		"Change", r.YoYChange)
	row = b.pairs(summary, row, colPercent, "Change %", r.YoYPercent)
	row = b.pairs(summary, row, colInt,
		"Articles", r.ArticleCount,
		"Active customers", r.ActiveCustomers)

	row = b.heading(summary, row+1, "Revenue bridge")
	row = b.pairs(summary, row, colMoney,
		"Prior total", r.Bridge.PriorTotal,
		"Churned", -r.Bridge.ChurnLoss,
		"Churned, still invoiced", r.Bridge.ChurnRetained,
		"Declining", -r.Bridge.DeclineLoss,
		"Growing", r.Bridge.GrowthGain,
		"New", r.Bridge.NewGain,
		"Current total", r.Bridge.CurrentTotal)

	row = b.heading(summary, row+1, "Cohorts")
	cohortRows := make([][]any, 0, 5)
	for i, g := range cohortGroups(r.Cohorts) {
		cohortRows = append(cohortRows, []any{g.Label, len(g.Members), len(cohortGroups(r.MaterialCohorts)[i].Members)})
	}
	b.table(summary, row, []column{{"Cohort", colText, 30}, {"Customers", colInt, 18}, {"Material", colInt, 12}}, cohortRows)

	var members [][]any
	for _, g := range cohortGroups(r.Cohorts) {
		for _, m := range g.Members {
			members = append(members, []any{g.Label, m.Customer, m.Previous, m.Current, m.Change, m.Percent})
		}
	}
	b.dataSheet("Cohorts", []column{
		{"Cohort", colText, 12}, {"Customer", colText, 32}, {r.PreviousPeriod, colMoney, 16},
		{r.CurrentPeriod, colMoney, 16}, {"Change", colMoney, 16}, {"Change %", colPercent, 10},
	}, members)

	customers := make([][]any, 0, len(r.TopCustomers))
	for _, c := range r.TopCustomers {
		customers = append(customers, []any{c.Rank, c.Customer, c.Current, c.Previous, c.Change, c.Percent})
	}
	b.dataSheet("Top customers", []column{
		{"Rank", colInt, 6}, {"Customer", colText, 32}, {"Current", colMoney, 16},
		{"Previous", colMoney, 16}, {"Change", colMoney, 16}, {"Change %", colPercent, 10},
	}, customers)

	articles := make([][]any, 0, len(r.TopArticles))
	for _, a := range r.TopArticles {
		articles = append(articles, []any{a.Rank, a.ArticleID, a.ArticleName, a.Value, a.Percent})
	}
	b.dataSheet("Top articles", []column{
		{"Rank", colInt, 6}, {"Article", colText, 16}, {"Name", colText, 36},
		{"Revenue", colMoney, 16}, {"Share", colPercent, 10},
	}, articles)

	b.dataSheet("LTM trend", []column{{"Period", colText, 16}, {"Revenue", colMoney, 16}}, pointRows(r.LTMSeries))
	b.dataSheet("Monthly", []column{{"Month", colText, 12}, {"Revenue", colMoney, 16}}, pointRows(r.MonthlySeries))

	return b.writeTo(w)
}

func pointRows(points []domain.PeriodPoint) [][]any {
	rows := make([][]any, 0, len(points))
	for _, p := range points {
		rows = append(rows, []any{p.Label, p.Value})
	}
	return rows
}
