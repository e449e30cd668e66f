package workbook

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "salesintel/internal/errors"
	"salesintel/pkg/contracts/domain"
)

// File is an excelize-backed Workbook. Sheets are decoded on first access
// and cached, so repeated Cell calls are cheap.
type File struct {
	f      *excelize.File
	sheets []string
	// date1904 is set for workbooks counting date serials from 1904.
	date1904 bool

	mu     sync.Mutex
	grids  map[string][][]domain.RawCell
	styles map[int]bool
}

// Open reads an xlsx document. Any failure is reported as a WORKBOOK_READ
// application error.
func Open(r io.Reader) (*File, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewWorkbookReadError(err)
	}
	return newFile(f), nil
}

// OpenFile reads an xlsx document from disk.
func OpenFile(path string) (*File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewWorkbookReadError(err).WithContext("path", path)
	}
	return newFile(f), nil
}

func newFile(f *excelize.File) *File {
	w := &File{
		f:      f,
		sheets: f.GetSheetList(),
		grids:  make(map[string][][]domain.RawCell),
		styles: make(map[int]bool),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		w.date1904 = *props.Date1904
	}
	return w
}

// Close releases the underlying excelize file.
func (w *File) Close() error {
	return w.f.Close()
}

func (w *File) SheetNames() []string {
	return append([]string(nil), w.sheets...)
}

func (w *File) MaxRow(sheet string) int {
	return len(w.grid(sheet))
}

func (w *File) MaxCol(sheet string) int {
	n := 0
	for _, row := range w.grid(sheet) {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

func (w *File) Cell(sheet string, row, col int) domain.RawCell {
	grid := w.grid(sheet)
	if row < 1 || row > len(grid) {
		return domain.Absent()
	}
	cells := grid[row-1]
	if col < 1 || col > len(cells) {
		return domain.Absent()
	}
	return cells[col-1]
}

// Load decodes a sheet eagerly and reports read errors that Cell would
// otherwise swallow.
func (w *File) Load(sheet string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.loadLocked(sheet)
	return err
}

func (w *File) grid(sheet string) [][]domain.RawCell {
	w.mu.Lock()
	defer w.mu.Unlock()
	g, _ := w.loadLocked(sheet)
	return g
}

func (w *File) loadLocked(sheet string) ([][]domain.RawCell, error) {
	if g, ok := w.grids[sheet]; ok {
		return g, nil
	}

	rows, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		w.grids[sheet] = nil
		return nil, apperrors.NewWorkbookReadError(fmt.Errorf("sheet %q: %w", sheet, err))
	}

	grid := make([][]domain.RawCell, len(rows))
	for r, row := range rows {
		grid[r] = make([]domain.RawCell, len(row))
		for c, raw := range row {
			grid[r][c] = w.decode(sheet, r+1, c+1, raw)
		}
	}
	w.grids[sheet] = grid
	return grid, nil
}

// decode turns one raw cell string into a typed cell using the stored cell
// type and, for numbers, the applied number format.
func (w *File) decode(sheet string, row, col int, raw string) domain.RawCell {
	addr, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return domain.Absent()
	}

	typ, _ := w.f.GetCellType(sheet, addr)
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeBool, excelize.CellTypeError:
		if raw == "" {
			return domain.Absent()
		}
		return domain.TextCell(raw)

	case excelize.CellTypeDate:
		if t, ok := parseISODate(raw); ok {
			return domain.DateCell(t)
		}
		return domain.TextCell(raw)

	case excelize.CellTypeFormula:
		if raw == "" {
			raw, _ = w.f.CalcCellValue(sheet, addr, excelize.Options{RawCellValue: true})
		}
		if raw == "" {
			return domain.Absent()
		}
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return domain.NumberCell(v)
		}
		return domain.TextCell(raw)
	}

	// Unset or explicit numeric type.
	if raw == "" {
		return domain.Absent()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.TextCell(raw)
	}
	if w.isDateStyled(sheet, addr) {
		if t, err := excelize.ExcelDateToTime(v, w.date1904); err == nil {
			return domain.DateCell(t)
		}
	}
	return domain.NumberCell(v)
}

func (w *File) isDateStyled(sheet, addr string) bool {
	id, err := w.f.GetCellStyle(sheet, addr)
	if err != nil || id == 0 {
		return false
	}
	if known, ok := w.styles[id]; ok {
		return known
	}

	style, err := w.f.GetStyle(id)
	isDate := err == nil && style != nil && IsDateFormat(style.NumFmt, style.CustomNumFmt)
	w.styles[id] = isDate
	return isDate
}

func parseISODate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
