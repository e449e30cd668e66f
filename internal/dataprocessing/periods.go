package dataprocessing

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"maj": time.May, "may": time.May, "jun": time.June, "jul": time.July,
	"aug": time.August, "sep": time.September, "okt": time.October, "oct": time.October,
	"nov": time.November, "dec": time.December,
}

var (
	yearMonthPattern = regexp.MustCompile(`^(\d{4})\s*(\d{1,2})$`)
	monthYearPattern = regexp.MustCompile(`^(\d{1,2})\s+(\d{4})$`)
	namedPattern     = regexp.MustCompile(`^(\pL{3})\pL*\.?\s*(\d{2}|\d{4})$`)
	yearNamedPattern = regexp.MustCompile(`^(\d{4})\s*(\pL{3})\pL*\.?$`)
	yearPattern      = regexp.MustCompile(`^(\d{4})$`)
)

// PeriodEnd returns the month an LTM label ends in. Labels look like
// "LTM okt 24", "LTM 2024-okt", "LTM 2024-10", "LTM 10/2024" or "LTM 2024".
func PeriodEnd(label string) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.TrimSpace(strings.TrimPrefix(s, "ltm"))
	s = strings.Map(func(r rune) rune {
		switch r {
		case '-', '/', '_', ',', '\'':
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	var year, month int
	switch {
	case yearMonthPattern.MatchString(s):
		m := yearMonthPattern.FindStringSubmatch(s)
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
	case monthYearPattern.MatchString(s):
		m := monthYearPattern.FindStringSubmatch(s)
		month, _ = strconv.Atoi(m[1])
		year, _ = strconv.Atoi(m[2])
	case namedPattern.MatchString(s):
		m := namedPattern.FindStringSubmatch(s)
		mon, ok := monthNames[m[1]]
		if !ok {
			return time.Time{}, false
		}
		month = int(mon)
		year, _ = strconv.Atoi(m[2])
		if year < 100 {
			year += 2000
		}
	case yearNamedPattern.MatchString(s):
		m := yearNamedPattern.FindStringSubmatch(s)
		mon, ok := monthNames[m[2]]
		if !ok {
			return time.Time{}, false
		}
		year, _ = strconv.Atoi(m[1])
		month = int(mon)
	case yearPattern.MatchString(s):
		year, _ = strconv.Atoi(s)
		month = 12
	default:
		return time.Time{}, false
	}

	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}

// SortPeriodLabels orders LTM labels chronologically. Labels without a
// recognisable date sort first, alphabetically.
func SortPeriodLabels(labels []string) []string {
	type keyed struct {
		label string
		at    time.Time
		ok    bool
	}
	ks := make([]keyed, len(labels))
	for i, l := range labels {
		at, ok := PeriodEnd(l)
		ks[i] = keyed{label: l, at: at, ok: ok}
	}

	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		if a.ok != b.ok {
			return !a.ok
		}
		if a.ok && !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		return a.label < b.label
	})

	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.label
	}
	return out
}

// DefaultPeriods picks the latest label as current and the label twelve
// positions earlier as previous, or the earliest label when there are
// fewer. labels must be in chronological order.
func DefaultPeriods(labels []string) (current, previous string, ok bool) {
	if len(labels) == 0 {
		return "", "", false
	}
	current = labels[len(labels)-1]
	if len(labels) > 12 {
		previous = labels[len(labels)-13]
	} else {
		previous = labels[0]
	}
	return current, previous, true
}
