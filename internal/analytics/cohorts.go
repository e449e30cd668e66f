package analytics

import (
	"math"
	"sort"

	"salesintel/pkg/contracts/domain"
)

// MaterialThresholds filter cohorts down to movements worth reporting.
type MaterialThresholds struct {
	// Change is the absolute change a declining or growing customer must
	// exceed.
	Change float64 `json:"change"`
	// ChurnedPrevious is the previous-period revenue a churned customer
	// must exceed.
	ChurnedPrevious float64 `json:"churned_previous"`
	// NewCurrent is the current-period revenue a new customer must exceed.
	NewCurrent float64 `json:"new_current"`
}

// DefaultMaterialThresholds returns 20 000 / 50 000 / 10 000.
func DefaultMaterialThresholds() MaterialThresholds {
	return MaterialThresholds{Change: 20_000, ChurnedPrevious: 50_000, NewCurrent: 10_000}
}

// Classify places one customer's previous and current revenue in a cohort.
// An explicit churn mark wins over the numbers.
func Classify(previous, current float64, marked bool) domain.Cohort {
	switch change := current - previous; {
	case marked || (previous > 0 && current == 0):
		return domain.CohortChurned
	case previous == 0 && current > 0:
		return domain.CohortNew
	case change < 0:
		return domain.CohortDeclining
	case change > 0:
		return domain.CohortGrowing
	default:
		return domain.CohortFlat
	}
}

// ClassifyCohorts compares every customer's LTM revenue between two period
// labels. Each customer lands in exactly one cohort; a missing period value
// counts as zero.
func ClassifyCohorts(customers []domain.MasterCustomer, current, previous string) domain.Cohorts {
	c := domain.Cohorts{
		Current:   current,
		Previous:  previous,
		Churned:   make([]domain.CohortMember, 0),
		Declining: make([]domain.CohortMember, 0),
		Growing:   make([]domain.CohortMember, 0),
		New:       make([]domain.CohortMember, 0),
		Flat:      make([]domain.CohortMember, 0),
	}

	for _, cust := range customers {
		prev, curr := cust.LTM[previous], cust.LTM[current]
		m := domain.CohortMember{
			Customer: cust.Name,
			Previous: prev,
			Current:  curr,
			Change:   curr - prev,
			Marked:   cust.Churned,
		}
		if prev > 0 {
			m.Percent = m.Change / prev * 100
		}

		switch Classify(prev, curr, cust.Churned) {
		case domain.CohortChurned:
			c.Churned = append(c.Churned, m)
		case domain.CohortNew:
			c.New = append(c.New, m)
		case domain.CohortDeclining:
			c.Declining = append(c.Declining, m)
		case domain.CohortGrowing:
			c.Growing = append(c.Growing, m)
		default:
			c.Flat = append(c.Flat, m)
		}
	}

	sortMembers(c.Churned, func(m domain.CohortMember) float64 { return -m.Previous })
	sortMembers(c.Declining, func(m domain.CohortMember) float64 { return m.Change })
	sortMembers(c.Growing, func(m domain.CohortMember) float64 { return -m.Change })
	sortMembers(c.New, func(m domain.CohortMember) float64 { return -m.Current })
	sortMembers(c.Flat, func(m domain.CohortMember) float64 { return -m.Current })
	return c
}

// sortMembers orders ascending by key, then by customer name.
func sortMembers(ms []domain.CohortMember, key func(domain.CohortMember) float64) {
	sort.SliceStable(ms, func(i, j int) bool {
		ki, kj := key(ms[i]), key(ms[j])
		if ki != kj {
			return ki < kj
		}
		return ms[i].Customer < ms[j].Customer
	})
}

// MaterialCohorts keeps only the movements that clear the thresholds. Flat
// customers never qualify. The input cohorts are not modified.
func MaterialCohorts(base domain.Cohorts, t MaterialThresholds) domain.Cohorts {
	return domain.Cohorts{
		Current:  base.Current,
		Previous: base.Previous,
		Churned: filterMembers(base.Churned, func(m domain.CohortMember) bool {
			return m.Previous > t.ChurnedPrevious
		}),
		Declining: filterMembers(base.Declining, func(m domain.CohortMember) bool {
			return math.Abs(m.Change) > t.Change
		}),
		Growing: filterMembers(base.Growing, func(m domain.CohortMember) bool {
			return math.Abs(m.Change) > t.Change
		}),
		New: filterMembers(base.New, func(m domain.CohortMember) bool {
			return m.Current > t.NewCurrent
		}),
		Flat: make([]domain.CohortMember, 0),
	}
}

func filterMembers(ms []domain.CohortMember, keep func(domain.CohortMember) bool) []domain.CohortMember {
	out := make([]domain.CohortMember, 0)
	for _, m := range ms {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// Bridge explains the move from the previous to the current total. Churn
// loss is the whole previous revenue of churned customers. A customer
// carrying the churn marker can still be invoiced; that revenue is kept
// apart in ChurnRetained so churn loss never shrinks. Decline loss and
// growth gain are the changes of declining and growing customers, and new
// gain is the revenue of new customers. Flat customers add nothing.
func Bridge(c domain.Cohorts) domain.RevenueBridge {
	var b domain.RevenueBridge
	add := func(ms []domain.CohortMember) {
		for _, m := range ms {
			b.PriorTotal += m.Previous
			b.CurrentTotal += m.Current
		}
	}
	add(c.Churned)
	add(c.Declining)
	add(c.Growing)
	add(c.New)
	add(c.Flat)

	for _, m := range c.Churned {
		b.ChurnLoss += m.Previous
		b.ChurnRetained += m.Current
	}
	for _, m := range c.Declining {
		b.DeclineLoss -= m.Change
	}
	for _, m := range c.Growing {
		b.GrowthGain += m.Change
	}
	for _, m := range c.New {
		b.NewGain += m.Change
	}

	b.Residual = b.PriorTotal - b.ChurnLoss + b.ChurnRetained - b.DeclineLoss + b.GrowthGain + b.NewGain - b.CurrentTotal
	return b
}
