package domain

import (
	"strconv"
	"strings"
	"time"
)

// CellKind identifies how a spreadsheet cell value was stored.
type CellKind int

const (
	CellAbsent CellKind = iota
	CellNumber
	CellText
	CellDate
)

// String returns a human readable kind name.
func (k CellKind) String() string {
	switch k {
	case CellNumber:
		return "number"
	case CellText:
		return "text"
	case CellDate:
		return "date"
	default:
		return "absent"
	}
}

// RawCell is a single cell value as read from a workbook, before any
// normalization. Only the field matching Kind is meaningful.
type RawCell struct {
	Kind   CellKind  `json:"kind"`
	Number float64   `json:"number,omitempty"`
	Text   string    `json:"text,omitempty"`
	Time   time.Time `json:"time,omitempty"`
}

// Absent returns an empty cell.
func Absent() RawCell { return RawCell{Kind: CellAbsent} }

// NumberCell wraps a numeric value.
func NumberCell(v float64) RawCell { return RawCell{Kind: CellNumber, Number: v} }

// TextCell wraps a text value.
func TextCell(s string) RawCell { return RawCell{Kind: CellText, Text: s} }

// DateCell wraps a date-typed value.
func DateCell(t time.Time) RawCell { return RawCell{Kind: CellDate, Time: t} }

// IsAbsent reports whether the cell holds no value.
func (c RawCell) IsAbsent() bool { return c.Kind == CellAbsent }

// IsBlank reports whether the cell is absent or only whitespace.
func (c RawCell) IsBlank() bool {
	switch c.Kind {
	case CellAbsent:
		return true
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	default:
		return false
	}
}

// String renders the cell the way a user would type it back. Whole numbers
// drop their fractional part so numeric identifiers stay stable.
func (c RawCell) String() string {
	switch c.Kind {
	case CellNumber:
		if c.Number == float64(int64(c.Number)) {
			return strconv.FormatInt(int64(c.Number), 10)
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellText:
		return c.Text
	case CellDate:
		return c.Time.Format("2006-01-02")
	default:
		return ""
	}
}
