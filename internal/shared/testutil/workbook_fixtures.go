package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Row is shorthand for one spreadsheet row literal.
func Row(values ...any) []any { return values }

type fixtureSheet struct {
	name string
	rows [][]any
}

// WorkbookBuilder writes real xlsx files with excelize so that tests run
// through the same reader production uploads do. time.Time values get
// excelize's default date format.
type WorkbookBuilder struct {
	t      *testing.T
	sheets []fixtureSheet
	styles map[string]string
}

// NewWorkbook starts an empty fixture.
func NewWorkbook(t *testing.T) *WorkbookBuilder {
	return &WorkbookBuilder{t: t, styles: make(map[string]string)}
}

// Sheet appends a sheet holding rows, starting at A1.
func (b *WorkbookBuilder) Sheet(name string, rows ...[]any) *WorkbookBuilder {
	b.sheets = append(b.sheets, fixtureSheet{name: name, rows: rows})
	return b
}

// NumberFormat applies a custom number format to one cell after the rows
// have been written, e.g. to store a date serial with a "yyyy-mm-dd" code.
func (b *WorkbookBuilder) NumberFormat(sheet, cell, format string) *WorkbookBuilder {
	b.styles[sheet+"!"+cell] = format
	return b
}

// File builds the excelize file. The caller owns it.
func (b *WorkbookBuilder) File() *excelize.File {
	b.t.Helper()

	f := excelize.NewFile()
	for i, sh := range b.sheets {
		if i == 0 {
			require.NoError(b.t, f.SetSheetName("Sheet1", sh.name))
		} else {
			_, err := f.NewSheet(sh.name)
			require.NoError(b.t, err)
		}
		for r, row := range sh.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(b.t, err)
			values := row
			require.NoError(b.t, f.SetSheetRow(sh.name, cell, &values))
		}
	}

	for key, format := range b.styles {
		sheet, cell := splitRef(key)
		code := format
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &code})
		require.NoError(b.t, err)
		require.NoError(b.t, f.SetCellStyle(sheet, cell, cell, style))
	}
	return f
}

// Bytes serialises the workbook.
func (b *WorkbookBuilder) Bytes() []byte {
	b.t.Helper()

	f := b.File()
	defer f.Close()

	buf, err := f.WriteToBuffer()
	require.NoError(b.t, err)
	return bytes.Clone(buf.Bytes())
}

// Save writes the workbook into the test's temp dir and returns the path.
func (b *WorkbookBuilder) Save(name string) string {
	b.t.Helper()

	path := filepath.Join(b.t.TempDir(), name)
	require.NoError(b.t, os.WriteFile(path, b.Bytes(), 0o644))
	return path
}

func splitRef(key string) (string, string) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '!' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
