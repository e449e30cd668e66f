package analytics

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesintel/pkg/contracts/domain"
)

const (
	curr = "LTM jan 25"
	prev = "LTM jan 24"
)

func customer(name string, previous, current float64) domain.MasterCustomer {
	ltm := domain.PeriodValues{}
	if previous != 0 {
		ltm[prev] = previous
	}
	if current != 0 {
		ltm[curr] = current
	}
	return domain.MasterCustomer{Name: name, LTM: ltm}
}

func names(ms []domain.CohortMember) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Customer)
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		prev, curr float64
		marked     bool
		want       domain.Cohort
	}{
		{"lost", 100, 0, false, domain.CohortChurned},
		{"marked but still buying", 100, 120, true, domain.CohortChurned},
		{"new", 0, 50, false, domain.CohortNew},
		{"declining", 100, 40, false, domain.CohortDeclining},
		{"growing", 100, 140, false, domain.CohortGrowing},
		{"flat", 100, 100, false, domain.CohortFlat},
		{"both zero", 0, 0, false, domain.CohortFlat},
		{"credit only", 0, -10, false, domain.CohortDeclining},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.prev, tt.curr, tt.marked))
		})
	}
}

func TestClassifyCohorts(t *testing.T) {
	marked := customer("Marked", 80_000, 10_000)
	marked.Churned = true

	customers := []domain.MasterCustomer{
		customer("Gone Big", 200_000, 0),
		customer("Gone Small", 5_000, 0),
		marked,
		customer("Down A", 100_000, 60_000),
		customer("Down B", 50_000, 45_000),
		customer("Up A", 10_000, 15_000),
		customer("Up B", 100_000, 200_000),
		customer("Fresh", 0, 30_000),
		customer("Tiny", 0, 2_000),
		customer("Same", 7_000, 7_000),
		customer("Idle", 0, 0),
	}

	c := ClassifyCohorts(customers, curr, prev)

	assert.Equal(t, curr, c.Current)
	assert.Equal(t, prev, c.Previous)
	assert.Equal(t, []string{"Gone Big", "Marked", "Gone Small"}, names(c.Churned))
	assert.Equal(t, []string{"Down A", "Down B"}, names(c.Declining))
	assert.Equal(t, []string{"Up B", "Up A"}, names(c.Growing))
	assert.Equal(t, []string{"Fresh", "Tiny"}, names(c.New))
	assert.Equal(t, []string{"Same", "Idle"}, names(c.Flat))
	assert.Equal(t, len(customers), c.Size())

	assert.InDelta(t, -40.0, c.Declining[0].Percent, 1e-9)
	assert.InDelta(t, 50.0, c.Growing[1].Percent, 1e-9)
	assert.Equal(t, 0.0, c.New[0].Percent)
	assert.True(t, c.Churned[1].Marked)
}

func TestClassifyCohorts_PartitionsEveryCustomer(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := []float64{0, 0, 1_000, 25_000, 60_000, 150_000}

	var customers []domain.MasterCustomer
	for i := 0; i < 500; i++ {
		c := customer(fmt.Sprintf("C%03d", i), values[rng.Intn(len(values))], values[rng.Intn(len(values))])
		c.Churned = rng.Intn(10) == 0
		customers = append(customers, c)
	}

	c := ClassifyCohorts(customers, curr, prev)

	seen := make(map[string]int)
	for _, bucket := range [][]domain.CohortMember{c.Churned, c.Declining, c.Growing, c.New, c.Flat} {
		for _, m := range bucket {
			seen[m.Customer]++
		}
	}
	require.Len(t, seen, len(customers))
	for name, n := range seen {
		assert.Equal(t, 1, n, name)
	}
}

func TestMaterialCohorts(t *testing.T) {
	customers := []domain.MasterCustomer{
		customer("Gone Big", 200_000, 0),
		customer("Gone Small", 50_000, 0),
		customer("Down A", 100_000, 60_000),
		customer("Down B", 50_000, 30_000),
		customer("Up A", 10_000, 30_001),
		customer("Fresh", 0, 30_000),
		customer("Tiny", 0, 10_000),
		customer("Same", 7_000, 7_000),
	}
	base := ClassifyCohorts(customers, curr, prev)

	m := MaterialCohorts(base, DefaultMaterialThresholds())

	assert.Equal(t, []string{"Gone Big"}, names(m.Churned))
	assert.Equal(t, []string{"Down A"}, names(m.Declining))
	assert.Equal(t, []string{"Up A"}, names(m.Growing))
	assert.Equal(t, []string{"Fresh"}, names(m.New))
	assert.Empty(t, m.Flat)
	assert.Equal(t, 8, base.Size(), "base cohorts are untouched")
}

func TestBridge_Reconciles(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	var customers []domain.MasterCustomer
	for i := 0; i < 300; i++ {
		p := float64(rng.Intn(3)) * rng.Float64() * 90_000
		c := rng.Float64() * 120_000
		if rng.Intn(4) == 0 {
			c = 0
		}
		cust := customer(fmt.Sprintf("C%03d", i), p, c)
		cust.Churned = rng.Intn(15) == 0
		customers = append(customers, cust)
	}

	cohorts := ClassifyCohorts(customers, curr, prev)
	b := Bridge(cohorts)

	var prior, current float64
	for _, c := range customers {
		prior += c.LTM[prev]
		current += c.LTM[curr]
	}
	assert.InDelta(t, prior, b.PriorTotal, 0.01)
	assert.InDelta(t, current, b.CurrentTotal, 0.01)
	assert.InDelta(t, b.CurrentTotal, b.PriorTotal-b.ChurnLoss+b.ChurnRetained-b.DeclineLoss+b.GrowthGain+b.NewGain, 0.01)
	assert.InDelta(t, 0, b.Residual, 0.01)
}

func TestBridge_Components(t *testing.T) {
	cohorts := ClassifyCohorts([]domain.MasterCustomer{
		customer("Gone", 100, 0),
		customer("Down", 100, 70),
		customer("Up", 100, 160),
		customer("New", 0, 40),
		customer("Same", 50, 50),
	}, curr, prev)

	b := Bridge(cohorts)

	assert.Equal(t, domain.RevenueBridge{
		PriorTotal:   350,
		ChurnLoss:    100,
		DeclineLoss:  30,
		GrowthGain:   60,
		NewGain:      40,
		CurrentTotal: 320,
	}, b)
}

func TestBridge_MarkedChurn(t *testing.T) {
	grew := customer("Marked up", 100, 150)
	grew.Churned = true
	fell := customer("Marked down", 80, 20)
	fell.Churned = true

	tests := []struct {
		name     string
		members  []domain.MasterCustomer
		loss     float64
		retained float64
	}{
		{name: "revenue grew", members: []domain.MasterCustomer{grew}, loss: 100, retained: 150},
		{name: "revenue fell", members: []domain.MasterCustomer{fell}, loss: 80, retained: 20},
		{name: "both with a plain churner", members: []domain.MasterCustomer{grew, fell, customer("Gone", 60, 0)}, loss: 240, retained: 170},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Bridge(ClassifyCohorts(tt.members, curr, prev))

			assert.Equal(t, tt.loss, b.ChurnLoss)
			assert.Equal(t, tt.retained, b.ChurnRetained)
			assert.InDelta(t, 0, b.Residual, 1e-9)
		})
	}
}
