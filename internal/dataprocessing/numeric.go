package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"salesintel/pkg/contracts/domain"
)

var (
	// amountPattern matches a leading amount with an optional currency
	// suffix. Anything after the match is ignored.
	amountPattern = regexp.MustCompile(`(?i)^(-?[\d\s\x{00A0}\x{202F}.,]+)\s*(SEK|EUR|USD|GBP)?`)

	decimalComma = regexp.MustCompile(`,\d{2}$`)
)

// emptySentinels are the spellings exports use for "no value".
var emptySentinels = map[string]bool{
	"":     true,
	"n/a":  true,
	"None": true,
	"-":    true,
}

// ParseAmountWithCurrency reads a monetary cell. Numeric cells are taken as
// base currency; text cells go through ParseAmountText. Dates and absent
// cells never yield an amount.
func ParseAmountWithCurrency(cell domain.RawCell) (domain.ParsedAmount, bool) {
	switch cell.Kind {
	case domain.CellNumber:
		if !finite(cell.Number) {
			return domain.ParsedAmount{}, false
		}
		return domain.ParsedAmount{Value: cell.Number, Currency: domain.BaseCurrency}, true
	case domain.CellText:
		return ParseAmountText(cell.Text)
	default:
		return domain.ParsedAmount{}, false
	}
}

// ParseAmountText parses amounts such as "1 234,56 EUR", "12,345.67" or
// "-500 sek". Currency defaults to SEK when no known suffix follows.
func ParseAmountText(raw string) (domain.ParsedAmount, bool) {
	s := strings.TrimSpace(raw)
	if emptySentinels[s] {
		return domain.ParsedAmount{}, false
	}

	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return domain.ParsedAmount{}, false
	}

	v, ok := parseLocaleNumber(m[1])
	if !ok {
		return domain.ParsedAmount{}, false
	}

	cur := domain.BaseCurrency
	if m[2] != "" {
		cur = domain.Currency(strings.ToUpper(m[2]))
	}
	return domain.ParsedAmount{Value: v, Currency: cur}, true
}

// ParseNumber reads a plain numeric cell. Numeric cells pass through, text
// goes through ParseNumberText and dates are kept as literals.
func ParseNumber(cell domain.RawCell) domain.NumberResult {
	switch cell.Kind {
	case domain.CellNumber:
		if !finite(cell.Number) {
			return domain.AbsentNumber()
		}
		return domain.Number(cell.Number)
	case domain.CellText:
		return ParseNumberText(cell.Text)
	case domain.CellDate:
		return domain.Literal(cell.String())
	default:
		return domain.AbsentNumber()
	}
}

// ParseNumberText parses a number without currency. Percentages and text
// that does not parse are returned untouched as literals.
func ParseNumberText(raw string) domain.NumberResult {
	s := strings.TrimSpace(raw)
	if strings.HasSuffix(s, "%") {
		return domain.Literal(raw)
	}
	if emptySentinels[s] {
		return domain.AbsentNumber()
	}

	v, ok := parseLocaleNumber(s)
	if !ok {
		return domain.Literal(raw)
	}
	return domain.Number(v)
}

// NumberOrZero returns the parsed value of a cell, or 0 when it is absent or
// not numeric.
func NumberOrZero(cell domain.RawCell) float64 {
	return ParseNumber(cell).Float(0)
}

// parseLocaleNumber strips group separators and decides which of comma and
// dot is the decimal mark: a comma followed by exactly two trailing digits
// is decimal, otherwise commas group thousands.
func parseLocaleNumber(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return 0, false
	}

	if decimalComma.MatchString(cleaned) {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
		if strings.Contains(cleaned, ",") {
			return 0, false
		}
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
