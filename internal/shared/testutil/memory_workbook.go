package testutil

import (
	"time"

	"salesintel/pkg/contracts/domain"
)

// MemoryWorkbook is an in-memory workbook for tests that exercise extraction
// rules cell by cell without going through xlsx encoding.
type MemoryWorkbook struct {
	names  []string
	sheets map[string][][]domain.RawCell
}

// NewMemoryWorkbook returns an empty workbook.
func NewMemoryWorkbook() *MemoryWorkbook {
	return &MemoryWorkbook{sheets: make(map[string][][]domain.RawCell)}
}

// AddSheet adds a sheet whose rows are converted with Cell.
func (m *MemoryWorkbook) AddSheet(name string, rows ...[]any) *MemoryWorkbook {
	grid := make([][]domain.RawCell, len(rows))
	for i, row := range rows {
		grid[i] = make([]domain.RawCell, len(row))
		for j, v := range row {
			grid[i][j] = Cell(v)
		}
	}
	m.names = append(m.names, name)
	m.sheets[name] = grid
	return m
}

// Cell converts a Go literal into a RawCell: nil is absent, numbers are
// numeric, time.Time is a date cell and anything else is text.
func Cell(v any) domain.RawCell {
	switch x := v.(type) {
	case nil:
		return domain.Absent()
	case domain.RawCell:
		return x
	case int:
		return domain.NumberCell(float64(x))
	case int64:
		return domain.NumberCell(float64(x))
	case float64:
		return domain.NumberCell(x)
	case time.Time:
		return domain.DateCell(x)
	case string:
		return domain.TextCell(x)
	default:
		return domain.Absent()
	}
}

func (m *MemoryWorkbook) SheetNames() []string {
	return append([]string(nil), m.names...)
}

func (m *MemoryWorkbook) MaxRow(sheet string) int {
	return len(m.sheets[sheet])
}

func (m *MemoryWorkbook) MaxCol(sheet string) int {
	n := 0
	for _, row := range m.sheets[sheet] {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

func (m *MemoryWorkbook) Cell(sheet string, row, col int) domain.RawCell {
	grid := m.sheets[sheet]
	if row < 1 || row > len(grid) {
		return domain.Absent()
	}
	cells := grid[row-1]
	if col < 1 || col > len(cells) {
		return domain.Absent()
	}
	return cells[col-1]
}
