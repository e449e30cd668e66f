package dataprocessing

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	apperrors "salesintel/internal/errors"
	"salesintel/internal/workbook"
	"salesintel/pkg/contracts/domain"
)

const (
	// masterFirstPeriodCol and masterLastPeriodCol bound the header scan;
	// columns past 99 hold scratch calculations.
	masterFirstPeriodCol = 3
	masterLastPeriodCol  = 99

	// Positions of the current and previous LTM columns in older work
	// files that lack LTM headers.
	fallbackCurrentLTMCol  = 89
	fallbackPreviousLTMCol = 78
)

// FallbackLTMLabel names a period located by position rather than header.
func FallbackLTMLabel(col int) string {
	return "LTM (col " + strconv.Itoa(col) + ")"
}

// masterLayout is the period column layout read from a master sheet header.
type masterLayout struct {
	months   map[string]int
	fiscal   map[string]int
	ltm      map[string]int
	churnCol int
}

// MasterParser reads the master sales work file.
type MasterParser struct {
	logger *slog.Logger
}

// NewMasterParser creates a parser. A nil logger falls back to the default.
func NewMasterParser(logger *slog.Logger) *MasterParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &MasterParser{logger: logger.With(slog.String("component", "master_parser"))}
}

// Parse reads both master sheets. A workbook with neither sheet is a
// SHEET_NOT_FOUND error; a missing single sheet leaves its half empty.
func (p *MasterParser) Parse(ctx context.Context, wb workbook.Workbook) (*domain.MasterData, error) {
	names := wb.SheetNames()
	articleSheet, hasArticles := workbook.MatchSheet(names, workbook.MasterArticleSheets)
	customerSheet, hasCustomers := workbook.MatchSheet(names, workbook.MasterCustomerSheets)
	if !hasArticles && !hasCustomers {
		candidates := append(append([]string(nil), workbook.MasterCustomerSheets...), workbook.MasterArticleSheets...)
		return nil, apperrors.NewSheetNotFoundError(candidates, names)
	}

	data := &domain.MasterData{
		MonthlyTotals: domain.PeriodValues{},
		LTMTrend:      domain.PeriodValues{},
	}

	if hasArticles {
		layout := p.readLayout(wb, articleSheet, false)
		data.Articles = p.parseArticles(wb, articleSheet, layout)
	} else {
		p.logger.WarnContext(ctx, "master article sheet missing", slog.Any("sheets", names))
	}

	if hasCustomers {
		layout := p.readLayout(wb, customerSheet, true)
		if len(layout.ltm) == 0 {
			p.applyFallback(ctx, wb, customerSheet, &layout)
		}
		data.Customers = p.parseCustomers(wb, customerSheet, layout)
	} else {
		p.logger.WarnContext(ctx, "master customer sheet missing", slog.Any("sheets", names))
	}

	for _, a := range data.Articles {
		for m, v := range a.Monthly {
			data.MonthlyTotals[m] += v
		}
	}
	labels := make([]string, 0)
	for _, c := range data.Customers {
		for l, v := range c.LTM {
			if _, seen := data.LTMTrend[l]; !seen {
				labels = append(labels, l)
			}
			data.LTMTrend[l] += v
		}
	}
	data.LTMLabels = SortPeriodLabels(labels)

	p.logger.InfoContext(ctx, "master parsed",
		slog.Int("articles", len(data.Articles)),
		slog.Int("customers", len(data.Customers)),
		slog.Int("months", len(data.MonthlyTotals)),
		slog.Int("ltm_periods", len(data.LTMLabels)))

	return data, nil
}

func (p *MasterParser) readLayout(wb workbook.Workbook, sheet string, withChurn bool) masterLayout {
	layout := masterLayout{
		months: make(map[string]int),
		fiscal: make(map[string]int),
		ltm:    make(map[string]int),
	}

	last := wb.MaxCol(sheet)
	if last > masterLastPeriodCol {
		last = masterLastPeriodCol
	}
	for col := masterFirstPeriodCol; col <= last; col++ {
		h := wb.Cell(sheet, 1, col)
		if h.IsAbsent() {
			continue
		}
		if h.Kind == domain.CellDate {
			layout.months[h.Time.Format("2006-01")] = col
			continue
		}

		hs := strings.TrimSpace(h.String())
		switch {
		case strings.HasPrefix(hs, "FY"):
			layout.fiscal[hs] = col
		case strings.HasPrefix(hs, "LTM"):
			layout.ltm[hs] = col
		case hs == "YTD":
			layout.fiscal["YTD"] = col
		case withChurn && strings.Contains(strings.ToLower(hs), "bortfall"):
			layout.churnCol = col
		}
	}
	return layout
}

// applyFallback maps the fixed LTM positions used by older work files.
func (p *MasterParser) applyFallback(ctx context.Context, wb workbook.Workbook, sheet string, layout *masterLayout) {
	maxCol := wb.MaxCol(sheet)
	for _, col := range []int{fallbackPreviousLTMCol, fallbackCurrentLTMCol} {
		if col <= maxCol {
			layout.ltm[FallbackLTMLabel(col)] = col
		}
	}
	p.logger.WarnContext(ctx, "no LTM headers found, using positional columns",
		slog.String("sheet", sheet),
		slog.Int("current_col", fallbackCurrentLTMCol),
		slog.Int("previous_col", fallbackPreviousLTMCol),
		slog.Int("max_col", maxCol))
}

func (p *MasterParser) parseArticles(wb workbook.Workbook, sheet string, layout masterLayout) []domain.MasterArticle {
	var out []domain.MasterArticle
	for row := 2; row <= wb.MaxRow(sheet); row++ {
		id := text(wb.Cell(sheet, row, 1))
		if skipMasterKey(id) {
			continue
		}
		a := domain.MasterArticle{
			ArticleID:   id,
			ArticleName: text(wb.Cell(sheet, row, 2)),
			Monthly:     readPeriods(wb, sheet, row, layout.months),
			FiscalYear:  readPeriods(wb, sheet, row, layout.fiscal),
			LTM:         readPeriods(wb, sheet, row, layout.ltm),
		}
		if len(a.Monthly) > 0 || len(a.FiscalYear) > 0 {
			out = append(out, a)
		}
	}
	return out
}

func (p *MasterParser) parseCustomers(wb workbook.Workbook, sheet string, layout masterLayout) []domain.MasterCustomer {
	var out []domain.MasterCustomer
	for row := 2; row <= wb.MaxRow(sheet); row++ {
		name := text(wb.Cell(sheet, row, 2))
		if skipMasterKey(name) {
			continue
		}
		c := domain.MasterCustomer{
			Name:       name,
			Monthly:    readPeriods(wb, sheet, row, layout.months),
			FiscalYear: readPeriods(wb, sheet, row, layout.fiscal),
			LTM:        readPeriods(wb, sheet, row, layout.ltm),
		}
		if layout.churnCol > 0 {
			c.Churned = churnMarked(wb.Cell(sheet, row, layout.churnCol))
		}
		if len(c.Monthly) > 0 || len(c.FiscalYear) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// readPeriods keeps numeric, non-zero values only.
func readPeriods(wb workbook.Workbook, sheet string, row int, cols map[string]int) domain.PeriodValues {
	out := domain.PeriodValues{}
	for label, col := range cols {
		c := wb.Cell(sheet, row, col)
		if c.Kind == domain.CellNumber && c.Number != 0 {
			out[label] = c.Number
		}
	}
	return out
}

func skipMasterKey(key string) bool {
	return key == "" || key == "Summa"
}

func churnMarked(c domain.RawCell) bool {
	if c.IsBlank() {
		return false
	}
	return !(c.Kind == domain.CellNumber && c.Number == 0)
}

// LoadMasterArticleIDs returns the lower-cased article ids listed in the
// master article sheet.
func LoadMasterArticleIDs(wb workbook.Workbook) (map[string]struct{}, error) {
	sheet, ok := workbook.MatchSheet(wb.SheetNames(), workbook.MasterArticleSheets)
	if !ok {
		return nil, apperrors.NewSheetNotFoundError(workbook.MasterArticleSheets, wb.SheetNames())
	}

	ids := make(map[string]struct{})
	for row := 2; row <= wb.MaxRow(sheet); row++ {
		if id := text(wb.Cell(sheet, row, 1)); id != "" {
			ids[strings.ToLower(id)] = struct{}{}
		}
	}
	return ids, nil
}
