package analytics

import (
	"sort"
	"strings"

	"salesintel/pkg/contracts/domain"
)

// TopN is the size of every top list in the reports.
const TopN = 20

// rankable is what a top-N cut needs to know about an item.
type rankable[T any] struct {
	items  []T
	amount func(T) float64
	name   func(T) string
}

// cut sorts a copy of the items by amount, largest first, and splits it at
// n. The grand total is defined as top plus other so the two buckets always
// add up exactly.
func (r rankable[T]) cut(n int) (top []T, topTotal, otherTotal float64, otherCount int) {
	sorted := append([]T(nil), r.items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, aj := r.amount(sorted[i]), r.amount(sorted[j])
		if ai != aj {
			return ai > aj
		}
		return r.name(sorted[i]) < r.name(sorted[j])
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	top = sorted[:n]
	for _, it := range top {
		topTotal += r.amount(it)
	}
	for _, it := range sorted[n:] {
		otherTotal += r.amount(it)
	}
	return top, topTotal, otherTotal, len(sorted) - n
}

// TopArticles ranks article rows by net amount.
func TopArticles(articles []domain.ArticleSale, n int) domain.Ranking[domain.RankedArticle] {
	top, topTotal, otherTotal, otherCount := rankable[domain.ArticleSale]{
		items:  articles,
		amount: func(a domain.ArticleSale) float64 { return a.NetAmount },
		name:   func(a domain.ArticleSale) string { return a.ArticleID },
	}.cut(n)

	r := newRanking[domain.RankedArticle](topTotal, otherTotal, otherCount)
	for i, a := range top {
		r.Items = append(r.Items, domain.RankedArticle{
			Rank:        i + 1,
			ArticleSale: a,
			Percent:     percent(a.NetAmount, r.GrandTotal),
		})
	}
	return r
}

// TopCustomers ranks customer rows by net amount.
func TopCustomers(customers []domain.CustomerSale, n int) domain.Ranking[domain.RankedCustomer] {
	top, topTotal, otherTotal, otherCount := rankable[domain.CustomerSale]{
		items:  customers,
		amount: func(c domain.CustomerSale) float64 { return c.NetAmount },
		name:   func(c domain.CustomerSale) string { return c.CustomerName },
	}.cut(n)

	r := newRanking[domain.RankedCustomer](topTotal, otherTotal, otherCount)
	for i, c := range top {
		r.Items = append(r.Items, domain.RankedCustomer{
			Rank:         i + 1,
			CustomerSale: c,
			Percent:      percent(c.NetAmount, r.GrandTotal),
		})
	}
	return r
}

func newRanking[T any](topTotal, otherTotal float64, otherCount int) domain.Ranking[T] {
	grand := topTotal + otherTotal
	return domain.Ranking[T]{
		Items:        make([]T, 0),
		TopTotal:     topTotal,
		TopPercent:   percent(topTotal, grand),
		OtherTotal:   otherTotal,
		OtherPercent: percent(otherTotal, grand),
		OtherCount:   otherCount,
		GrandTotal:   grand,
	}
}

// NewArticles returns the articles whose id is not in the master set. Ids are
// compared trimmed and lower-cased. A nil master means no master file was
// given, so nothing can be flagged and the result is nil.
func NewArticles(master map[string]struct{}, articles []domain.ArticleSale) []domain.ArticleSale {
	if master == nil {
		return nil
	}
	out := make([]domain.ArticleSale, 0)
	for _, a := range articles {
		if _, known := master[strings.ToLower(strings.TrimSpace(a.ArticleID))]; !known {
			out = append(out, a)
		}
	}
	return out
}
