package analytics

import (
	"math"
	"strconv"
	"strings"
)

// FormatSEK abbreviates an amount for headlines: 1.2M, 350k, 999.
func FormatSEK(n float64) string {
	switch a := math.Abs(n); {
	case a >= 1e6:
		return strconv.FormatFloat(n/1e6, 'f', 1, 64) + "M"
	case a >= 1e3:
		return strconv.FormatFloat(n/1e3, 'f', 0, 64) + "k"
	default:
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
}

// FormatAmount rounds to whole units and groups thousands with spaces:
// 1234567.8 becomes "1 234 568".
func FormatAmount(n float64) string {
	s := strconv.FormatFloat(math.Round(n), 'f', 0, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if s == "0" {
		sign = ""
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
