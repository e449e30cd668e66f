package analytics

import (
	"sort"
	"time"

	"salesintel/pkg/contracts/domain"
)

const (
	// SeriesLength is the number of points kept in monthly and LTM charts.
	SeriesLength = 24
	// YoYYears is the number of calendar years compared month by month.
	YoYYears = 3
)

// MonthlySeries returns the last n months of YYYY-MM keyed totals in
// calendar order. Keys that are not YYYY-MM are ignored.
func MonthlySeries(totals domain.PeriodValues, n int) []domain.PeriodPoint {
	months := make([]string, 0, len(totals))
	for m := range totals {
		if _, err := time.Parse("2006-01", m); err == nil {
			months = append(months, m)
		}
	}
	sort.Strings(months)
	if len(months) > n {
		months = months[len(months)-n:]
	}

	out := make([]domain.PeriodPoint, 0, len(months))
	for _, m := range months {
		out = append(out, domain.PeriodPoint{Label: m, Value: totals[m]})
	}
	return out
}

// LTMSeries returns the last n LTM totals. labels must already be in
// chronological order.
func LTMSeries(trend domain.PeriodValues, labels []string, n int) []domain.PeriodPoint {
	if len(labels) > n {
		labels = labels[len(labels)-n:]
	}
	out := make([]domain.PeriodPoint, 0, len(labels))
	for _, l := range labels {
		out = append(out, domain.PeriodPoint{Label: l, Value: trend[l]})
	}
	return out
}

// YoYByMonth lays monthly totals out per calendar year for the last n years
// present, oldest year first. Months without data are zero.
func YoYByMonth(totals domain.PeriodValues, n int) []domain.YearSeries {
	byYear := make(map[int]*domain.YearSeries)
	for m, v := range totals {
		t, err := time.Parse("2006-01", m)
		if err != nil {
			continue
		}
		ys, ok := byYear[t.Year()]
		if !ok {
			ys = &domain.YearSeries{Year: t.Year()}
			byYear[t.Year()] = ys
		}
		ys.Months[t.Month()-1] = v
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	if len(years) > n {
		years = years[len(years)-n:]
	}

	out := make([]domain.YearSeries, 0, len(years))
	for _, y := range years {
		out = append(out, *byYear[y])
	}
	return out
}

// ActiveCustomers counts customers with positive revenue in period.
func ActiveCustomers(customers []domain.MasterCustomer, period string) int {
	n := 0
	for _, c := range customers {
		if c.LTM[period] > 0 {
			n++
		}
	}
	return n
}

// Change returns the difference between two totals and its percentage of
// the previous total, 0 when there was no previous revenue.
func Change(current, previous float64) (change, pct float64) {
	change = current - previous
	if previous > 0 {
		pct = change / previous * 100
	}
	return change, pct
}

// TopMovements ranks customers with current revenue by that revenue and
// reports their change against the previous period. The share is the top
// list's part of total.
func TopMovements(customers []domain.MasterCustomer, current, previous string, n int, total float64) ([]domain.CustomerMovement, float64) {
	var active []domain.MasterCustomer
	for _, c := range customers {
		if c.LTM[current] > 0 {
			active = append(active, c)
		}
	}

	top, topTotal, _, _ := rankable[domain.MasterCustomer]{
		items:  active,
		amount: func(c domain.MasterCustomer) float64 { return c.LTM[current] },
		name:   func(c domain.MasterCustomer) string { return c.Name },
	}.cut(n)

	out := make([]domain.CustomerMovement, 0, len(top))
	for i, c := range top {
		curr, prev := c.LTM[current], c.LTM[previous]
		change, pct := Change(curr, prev)
		out = append(out, domain.CustomerMovement{
			Rank:     i + 1,
			Customer: c.Name,
			Current:  curr,
			Previous: prev,
			Change:   change,
			Percent:  pct,
		})
	}
	return out, percent(topTotal, total)
}

// TopArticleRevenue ranks articles with revenue in period. Percentages are
// of the revenue of all articles in that period.
func TopArticleRevenue(articles []domain.MasterArticle, period string, n int) ([]domain.ArticleRevenue, float64) {
	var active []domain.MasterArticle
	var total float64
	for _, a := range articles {
		if v := a.LTM[period]; v > 0 {
			active = append(active, a)
			total += v
		}
	}

	top, topTotal, _, _ := rankable[domain.MasterArticle]{
		items:  active,
		amount: func(a domain.MasterArticle) float64 { return a.LTM[period] },
		name:   func(a domain.MasterArticle) string { return a.ArticleID },
	}.cut(n)

	out := make([]domain.ArticleRevenue, 0, len(top))
	for i, a := range top {
		out = append(out, domain.ArticleRevenue{
			Rank:        i + 1,
			ArticleID:   a.ArticleID,
			ArticleName: a.ArticleName,
			Value:       a.LTM[period],
			Percent:     percent(a.LTM[period], total),
		})
	}
	return out, percent(topTotal, total)
}
