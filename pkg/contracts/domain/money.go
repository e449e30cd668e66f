package domain

import "encoding/json"

// Currency is an ISO 4217 code recognised in export amount suffixes.
type Currency string

const (
	SEK Currency = "SEK"
	EUR Currency = "EUR"
	USD Currency = "USD"
	GBP Currency = "GBP"

	// BaseCurrency is the currency every report is expressed in.
	BaseCurrency = SEK
)

// KnownCurrencies lists the suffixes the amount parser recognises.
var KnownCurrencies = []Currency{SEK, EUR, USD, GBP}

// ParsedAmount is a finite amount together with the currency it was quoted in.
type ParsedAmount struct {
	Value    float64  `json:"value"`
	Currency Currency `json:"currency"`
}

// NumberKind tags the outcome of plain number parsing.
type NumberKind int

const (
	NumberAbsent NumberKind = iota
	NumberValue
	NumberLiteral
)

// NumberResult is the tagged result of plain number parsing: either absent, a
// parsed number, or a literal passed through untouched (percentages and
// values that do not parse).
type NumberResult struct {
	Kind    NumberKind
	Value   float64
	Literal string
}

// AbsentNumber returns the absent result.
func AbsentNumber() NumberResult { return NumberResult{Kind: NumberAbsent} }

// Number returns a parsed numeric result.
func Number(v float64) NumberResult { return NumberResult{Kind: NumberValue, Value: v} }

// Literal returns a pass-through result.
func Literal(s string) NumberResult { return NumberResult{Kind: NumberLiteral, Literal: s} }

// IsNumber reports whether the result carries a parsed value.
func (n NumberResult) IsNumber() bool { return n.Kind == NumberValue }

// IsAbsent reports whether the source held no value.
func (n NumberResult) IsAbsent() bool { return n.Kind == NumberAbsent }

// Float returns the parsed value, or def when the result is not a number.
func (n NumberResult) Float(def float64) float64 {
	if n.Kind == NumberValue {
		return n.Value
	}
	return def
}

// MarshalJSON emits a number, a string or null depending on the kind.
func (n NumberResult) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case NumberValue:
		return json.Marshal(n.Value)
	case NumberLiteral:
		return json.Marshal(n.Literal)
	default:
		return []byte("null"), nil
	}
}
