package dataprocessing

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"salesintel/pkg/contracts/domain"
)

// FXTable maps a currency to its rate against SEK.
type FXTable map[domain.Currency]float64

// DefaultFXTable returns the standing rates used when a run supplies none.
func DefaultFXTable() FXTable {
	return FXTable{
		domain.SEK: 1.0,
		domain.EUR: 11.20,
		domain.USD: 10.50,
		domain.GBP: 13.30,
	}
}

// WithOverrides returns a copy of t with positive overrides applied. The
// base currency always stays at 1.0.
func (t FXTable) WithOverrides(overrides map[domain.Currency]float64) FXTable {
	out := make(FXTable, len(t)+len(overrides))
	for c, r := range t {
		out[c] = r
	}
	for c, r := range overrides {
		if r > 0 && finite(r) {
			out[c] = r
		}
	}
	out[domain.BaseCurrency] = 1.0
	return out
}

// Rate returns the rate for c, or 1.0 when the currency is unknown.
func (t FXTable) Rate(c domain.Currency) float64 {
	if c == domain.BaseCurrency {
		return 1.0
	}
	if r, ok := t[c]; ok && r > 0 {
		return r
	}
	return 1.0
}

// Currencies lists the table's currencies in a stable order.
func (t FXTable) Currencies() []domain.Currency {
	out := make([]domain.Currency, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ToBase converts an amount to SEK rounded to two decimals.
func ToBase(a domain.ParsedAmount, t FXTable) float64 {
	return Round2(a.Value * t.Rate(a.Currency))
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseRate reads a typed exchange rate such as "11,2", "11,20" or "11.2".
// Rates never carry thousands separators, so a single comma or dot is the
// decimal mark. Mixed or repeated marks and non-positive values are
// rejected.
func ParseRate(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if strings.Count(s, ",")+strings.Count(s, ".") > 1 {
		return 0, false
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) || v <= 0 {
		return 0, false
	}
	return v, true
}
