package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesintel/pkg/contracts/domain"
)

func TestMonthlySeries(t *testing.T) {
	totals := domain.PeriodValues{"FY24": 1}
	for y := 2022; y <= 2024; y++ {
		for m := 1; m <= 12; m++ {
			totals[fmt.Sprintf("%d-%02d", y, m)] = float64(y*100 + m)
		}
	}

	got := MonthlySeries(totals, SeriesLength)

	require.Len(t, got, 24)
	assert.Equal(t, domain.PeriodPoint{Label: "2023-01", Value: 202301}, got[0])
	assert.Equal(t, "2024-12", got[23].Label)
}

func TestLTMSeries(t *testing.T) {
	trend := domain.PeriodValues{"LTM a": 1, "LTM b": 2, "LTM c": 3}

	got := LTMSeries(trend, []string{"LTM a", "LTM b", "LTM c"}, 2)

	assert.Equal(t, []domain.PeriodPoint{{Label: "LTM b", Value: 2}, {Label: "LTM c", Value: 3}}, got)
}

func TestYoYByMonth(t *testing.T) {
	totals := domain.PeriodValues{
		"2021-05": 1,
		"2022-01": 10,
		"2023-03": 30,
		"2024-12": 240,
		"YTD":     99,
	}

	got := YoYByMonth(totals, YoYYears)

	require.Len(t, got, 3)
	assert.Equal(t, 2022, got[0].Year)
	assert.Equal(t, 10.0, got[0].Months[0])
	assert.Equal(t, 30.0, got[1].Months[2])
	assert.Equal(t, 240.0, got[2].Months[11])
	assert.Equal(t, 0.0, got[2].Months[0])
}

func TestActiveCustomersAndChange(t *testing.T) {
	customers := []domain.MasterCustomer{
		customer("A", 10, 5),
		customer("B", 10, 0),
		customer("C", 0, 1),
	}
	assert.Equal(t, 2, ActiveCustomers(customers, curr))

	ch, pct := Change(150, 100)
	assert.Equal(t, 50.0, ch)
	assert.Equal(t, 50.0, pct)

	ch, pct = Change(150, 0)
	assert.Equal(t, 150.0, ch)
	assert.Equal(t, 0.0, pct)
}

func TestTopMovements(t *testing.T) {
	customers := []domain.MasterCustomer{
		customer("Small", 100, 50),
		customer("Big", 100, 300),
		customer("Gone", 500, 0),
		customer("New", 0, 150),
	}

	got, share := TopMovements(customers, curr, prev, 2, 500)

	require.Len(t, got, 2)
	assert.Equal(t, domain.CustomerMovement{Rank: 1, Customer: "Big", Current: 300, Previous: 100, Change: 200, Percent: 200}, got[0])
	assert.Equal(t, "New", got[1].Customer)
	assert.Equal(t, 0.0, got[1].Percent)
	assert.Equal(t, 90.0, share)
}

func TestTopArticleRevenue(t *testing.T) {
	articles := []domain.MasterArticle{
		{ArticleID: "A", ArticleName: "Bolt", LTM: domain.PeriodValues{curr: 300}},
		{ArticleID: "B", LTM: domain.PeriodValues{curr: 100}},
		{ArticleID: "C", LTM: domain.PeriodValues{prev: 900}},
	}

	got, share := TopArticleRevenue(articles, curr, 1)

	require.Len(t, got, 1)
	assert.Equal(t, domain.ArticleRevenue{Rank: 1, ArticleID: "A", ArticleName: "Bolt", Value: 300, Percent: 75}, got[0])
	assert.Equal(t, 75.0, share)
}

func TestFormatSEK(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1_234_567, "1.2M"},
		{-2_500_000, "-2.5M"},
		{350_400, "350k"},
		{1_000, "1k"},
		{999, "999"},
		{0, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSEK(tt.in), "%v", tt.in)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1_234_567.8, "1 234 568"},
		{-45_000, "-45 000"},
		{999, "999"},
		{-0.2, "0"},
		{100_000, "100 000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.in), "%v", tt.in)
	}
}
