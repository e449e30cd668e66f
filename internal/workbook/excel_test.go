package workbook

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "salesintel/internal/errors"
	"salesintel/internal/shared/testutil"
	"salesintel/pkg/contracts/domain"
)

func TestOpen_DecodesCellKinds(t *testing.T) {
	orderDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	data := testutil.NewWorkbook(t).
		Sheet("Order book",
			testutil.Row("Order", "Date", "Customer", "Amount"),
			testutil.Row(1001, orderDate, "Acme AB", "1.234,56 EUR"),
			testutil.Row("A-2", nil, "Beta", 2500.5),
		).
		Sheet("Notes", testutil.Row("free text")).
		Bytes()

	wb, err := Open(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Order book", "Notes"}, wb.SheetNames())
	assert.Equal(t, 3, wb.MaxRow("Order book"))
	assert.Equal(t, 4, wb.MaxCol("Order book"))

	id := wb.Cell("Order book", 2, 1)
	assert.Equal(t, domain.CellNumber, id.Kind)
	assert.Equal(t, "1001", id.String())

	date := wb.Cell("Order book", 2, 2)
	require.Equal(t, domain.CellDate, date.Kind)
	assert.True(t, orderDate.Equal(date.Time), "got %s", date.Time)

	amount := wb.Cell("Order book", 2, 4)
	assert.Equal(t, domain.TextCell("1.234,56 EUR"), amount)

	assert.Equal(t, domain.TextCell("A-2"), wb.Cell("Order book", 3, 1))
	assert.True(t, wb.Cell("Order book", 3, 2).IsAbsent())
	assert.Equal(t, domain.NumberCell(2500.5), wb.Cell("Order book", 3, 4))
}

func TestOpen_OutOfRangeCellsAreAbsent(t *testing.T) {
	data := testutil.NewWorkbook(t).Sheet("S", testutil.Row("a")).Bytes()

	wb, err := Open(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	assert.True(t, wb.Cell("S", 0, 1).IsAbsent())
	assert.True(t, wb.Cell("S", 5, 1).IsAbsent())
	assert.True(t, wb.Cell("S", 1, 9).IsAbsent())
	assert.True(t, wb.Cell("missing", 1, 1).IsAbsent())
	assert.Equal(t, 0, wb.MaxRow("missing"))
}

func TestOpen_CustomDateFormat(t *testing.T) {
	data := testutil.NewWorkbook(t).
		Sheet("S", testutil.Row(45366.0, 45366.0)).
		NumberFormat("S", "A1", "yyyy-mm-dd").
		NumberFormat("S", "B1", "#,##0.00").
		Bytes()

	wb, err := Open(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	a := wb.Cell("S", 1, 1)
	require.Equal(t, domain.CellDate, a.Kind)
	assert.Equal(t, "2024-03-15", a.Time.Format("2006-01-02"))

	assert.Equal(t, domain.NumberCell(45366), wb.Cell("S", 1, 2))
}

func TestOpen_DateSystems(t *testing.T) {
	tests := []struct {
		name     string
		date1904 bool
		serial   float64
	}{
		{name: "1900", serial: 45366},
		{name: "1904", date1904: true, serial: 43904},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testutil.NewWorkbook(t).
				Sheet("S", testutil.Row(tt.serial)).
				NumberFormat("S", "A1", "yyyy-mm-dd").
				File()
			defer f.Close()
			require.NoError(t, f.SetWorkbookProps(&excelize.WorkbookPropsOptions{Date1904: &tt.date1904}))
			buf, err := f.WriteToBuffer()
			require.NoError(t, err)

			wb, err := Open(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			defer wb.Close()

			cell := wb.Cell("S", 1, 1)
			require.Equal(t, domain.CellDate, cell.Kind)
			assert.Equal(t, "2024-03-15", cell.Time.Format("2006-01-02"))
		})
	}
}

func TestOpen_Garbage(t *testing.T) {
	_, err := Open(strings.NewReader("definitely not a zip archive"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeWorkbookRead))
}

func TestLoad_UnknownSheet(t *testing.T) {
	data := testutil.NewWorkbook(t).Sheet("S", testutil.Row("a")).Bytes()

	wb, err := Open(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	require.NoError(t, wb.Load("S"))
	assert.Error(t, wb.Load("nope"))
}

func TestIsDateFormat(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name   string
		numFmt int
		custom *string
		want   bool
	}{
		{"builtin short date", 14, nil, true},
		{"builtin date time", 22, nil, true},
		{"builtin general", 0, nil, false},
		{"builtin thousands", 4, nil, false},
		{"custom iso", 0, str("yyyy-mm-dd"), true},
		{"custom swedish month", 0, str("mmm yy"), true},
		{"custom time only", 0, str("hh:mm"), false},
		{"custom currency with quoted d", 0, str(`#,##0 "kr/d"`), false},
		{"custom locale bracket", 0, str("[$-41D]#,##0"), false},
		{"custom escaped y", 0, str(`0\y`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDateFormat(tt.numFmt, tt.custom))
		})
	}
}
