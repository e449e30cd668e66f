package exporter

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"

	"salesintel/internal/analytics"
	"salesintel/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTemplate = template.Must(
	template.New("dashboard.html").Funcs(template.FuncMap{
		"sek":     analytics.FormatSEK,
		"amount":  analytics.FormatAmount,
		"pct":     func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"signed":  signedSEK,
		"barPct":  barPercent,
		"cohorts": cohortGroups,
		"peak":    peak,
	}).ParseFS(templateFS, "templates/dashboard.html"),
)

// WriteIntelligenceHTML renders the static dashboard of a master analysis.
// The page is self-contained: no scripts, styles inline.
func WriteIntelligenceHTML(w io.Writer, r *domain.IntelligenceReport) error {
	if err := dashboardTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}

func signedSEK(v float64) string {
	if v > 0 {
		return "+" + analytics.FormatSEK(v)
	}
	return analytics.FormatSEK(v)
}

// peak returns the largest absolute value of a series, used to scale bars.
func peak(points []domain.PeriodPoint) float64 {
	var m float64
	for _, p := range points {
		m = math.Max(m, math.Abs(p.Value))
	}
	return m
}

// barPercent scales v against max into a CSS width between 0 and 100.
func barPercent(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return math.Round(math.Abs(v)/max*1000) / 10
}
