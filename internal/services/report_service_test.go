package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesintel/internal/analytics"
	"salesintel/internal/config"
	apperrors "salesintel/internal/errors"
	"salesintel/internal/shared/testutil"
	"salesintel/pkg/contracts/domain"
)

var today = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*ReportService, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	svc := NewReportService(config.Default().Analytics, nil, nil, logger)
	svc.now = func() time.Time { return today }
	return svc, logs
}

func orderBook(rows ...[]any) *testutil.MemoryWorkbook {
	header := testutil.Row("Ordernr", "Datum", "Kund", "Status", "Fakturastatus", "Belopp")
	return testutil.NewMemoryWorkbook().AddSheet("Order book", append([][]any{header}, rows...)...)
}

func TestReportService_OrderBook(t *testing.T) {
	svc, logs := newTestService(t)

	current := orderBook(
		testutil.Row("A", day(2024, 12, 1), "Acme", "Open", "", "150 000"),
		testutil.Row("B", day(2025, 3, 1), "Beta", "Open", "Delvis fakturerad", "100 EUR"),
		testutil.Row("C", day(2025, 3, 20), "Acme", "Open", "", 2500.0),
		testutil.Row(nil, nil, nil, nil, nil, nil),
		testutil.Row("Summa", nil, nil, nil, nil, "n/a"),
	)
	previous := orderBook(
		testutil.Row("A", day(2024, 12, 1), "Acme", "Open", "", "150 000"),
		testutil.Row("D", day(2025, 1, 5), "Delta", "Open", "", "5 000"),
	)

	report, err := svc.OrderBook(context.Background(), OrderBookRequest{
		Current:  current,
		Previous: previous,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, today, report.GeneratedAt)
	assert.Equal(t, 3, report.OrderCount)
	assert.Equal(t, 5, report.Stats.RowsScanned)
	assert.Equal(t, 2, report.Stats.Skipped)
	assert.InDelta(t, 150_000+1120+2500, report.TotalBase, 0.001)
	assert.Equal(t, 1, report.InvoicedCount)

	require.Len(t, report.Aging, 1)
	assert.Equal(t, "A", report.Aging[0].OrderID)
	assert.Equal(t, 120, report.Aging[0].DaysOld)

	require.Len(t, report.LargeOrders, 1)
	assert.Equal(t, "A", report.LargeOrders[0].OrderID)

	assert.Equal(t, "Acme", report.Concentration.Top[0].Name)

	require.NotNil(t, report.WeekOverWeek)
	assert.Equal(t, 2, report.WeekOverWeek.New.Count)
	assert.Equal(t, 1, report.WeekOverWeek.Closed.Count)
	assert.Equal(t, 1, report.WeekOverWeek.Unchanged.Count)

	kinds := make([]domain.AlertKind, 0, len(report.Alerts))
	for _, a := range report.Alerts {
		kinds = append(kinds, a.Kind)
	}
	assert.ElementsMatch(t, []domain.AlertKind{
		domain.AlertAging, domain.AlertLargeOrders, domain.AlertConcentration, domain.AlertPartialInvoicing,
	}, kinds)

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "report run started")
	assert.True(t, logs.ContainsMessage("report run finished"))
}

func TestReportService_OrderBookFXOverride(t *testing.T) {
	svc, _ := newTestService(t)

	report, err := svc.OrderBook(context.Background(), OrderBookRequest{
		Current: orderBook(testutil.Row("A", nil, "Acme", "", "", "100 EUR")),
		FX:      map[domain.Currency]float64{domain.EUR: 12, domain.SEK: 5},
		Today:   today,
	})
	require.NoError(t, err)

	assert.Equal(t, 1200.0, report.TotalBase)
	assert.Equal(t, 1.0, report.FX[domain.SEK], "base currency cannot be overridden")
	assert.Nil(t, report.WeekOverWeek)
	assert.Empty(t, report.Aging, "undated orders never age")
}

func TestReportService_OrderBookSheetMissing(t *testing.T) {
	svc, logs := newTestService(t)

	wb := testutil.NewMemoryWorkbook().
		AddSheet("Notes", testutil.Row("x")).
		AddSheet("Pivot", testutil.Row("y"))

	_, err := svc.OrderBook(context.Background(), OrderBookRequest{Current: wb})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSheetNotFound))
	assert.True(t, logs.ContainsMessage("report run failed"))

	_, err = svc.OrderBook(context.Background(), OrderBookRequest{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestReportService_OrderBookPreviousSheetMissing(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.OrderBook(context.Background(), OrderBookRequest{
		Current:  orderBook(testutil.Row("A", nil, "Acme", "", "", 10.0)),
		Previous: testutil.NewMemoryWorkbook().AddSheet("One", testutil.Row("x")).AddSheet("Two"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "previous order book")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSheetNotFound))
}

func salesFile() *testutil.MemoryWorkbook {
	return testutil.NewMemoryWorkbook().
		AddSheet("Article",
			testutil.Row("Artikelnr", "Benämning", "Netto", "Beställt", "", "Levererat", "TB", "TG"),
			testutil.Row("A-1", "Bolt", "12 500,00", nil, nil, 10.0, 4000.0, "32%"),
			testutil.Row("A-2", "Nut", 2500.0, nil, nil, 5.0, "n/a", nil),
			testutil.Row("A-3", "Washer", 0.0, nil, nil, 1.0, nil, nil),
			testutil.Row("NEW-9", "Spring", 800.0, nil, nil, 2.0, nil, nil),
		).
		AddSheet("Customer",
			testutil.Row("Nr", "Namn", "Typ", "Netto"),
			testutil.Row("1", "Acme", "B2B", 9000.0),
			testutil.Row("2", "Beta", "B2B", "6 800"),
			testutil.Row("3", nil, "B2C", 100.0),
		)
}

func TestReportService_Sales(t *testing.T) {
	svc, _ := newTestService(t)

	master := testutil.NewMemoryWorkbook().AddSheet("Försäljning per artikel",
		testutil.Row("Artikelnr", "Namn"),
		testutil.Row("a-1", "Bolt"),
		testutil.Row("A-2", "Nut"),
	)

	report, err := svc.Sales(context.Background(), SalesRequest{File: salesFile(), Master: master})
	require.NoError(t, err)

	require.Len(t, report.Articles, 3)
	assert.Equal(t, 1, report.ArticleStats.Skipped)
	assert.Equal(t, 15_800.0, report.ArticleTotal)
	assert.Equal(t, "A-1", report.TopArticles.Items[0].ArticleID)
	assert.Equal(t, report.ArticleTotal, report.TopArticles.GrandTotal)

	require.NotNil(t, report.CustomerStats)
	assert.Len(t, report.Customers, 2)
	assert.Equal(t, 15_800.0, report.CustomerTotal)
	assert.Equal(t, 2, len(report.TopCustomers.Items))

	assert.True(t, report.MasterAvailable)
	require.Len(t, report.NewArticles, 1)
	assert.Equal(t, "NEW-9", report.NewArticles[0].ArticleID)

	assert.Contains(t, report.Notes, NoteUnreliableMargins)
}

func TestReportService_SalesWithoutOptionalInputs(t *testing.T) {
	svc, _ := newTestService(t)

	file := testutil.NewMemoryWorkbook().AddSheet("Sheet1",
		testutil.Row("Artikelnr", "Benämning", "Netto"),
		testutil.Row("A-1", "Bolt", 100.0),
	)

	report, err := svc.Sales(context.Background(), SalesRequest{File: file})
	require.NoError(t, err)

	assert.Len(t, report.Articles, 1, "single sheet fallback")
	assert.Nil(t, report.CustomerStats)
	assert.Empty(t, report.TopCustomers.Items)
	assert.False(t, report.MasterAvailable)
	assert.Nil(t, report.NewArticles)
	assert.NotContains(t, report.Notes, NoteUnreliableMargins)
}

func TestReportService_SalesMasterWithoutArticleSheet(t *testing.T) {
	svc, logs := newTestService(t)

	master := testutil.NewMemoryWorkbook().AddSheet("Försäljning per kund", testutil.Row("Nr"))

	report, err := svc.Sales(context.Background(), SalesRequest{File: salesFile(), Master: master})
	require.NoError(t, err)

	assert.False(t, report.MasterAvailable)
	assert.True(t, logs.ContainsMessage("master work file unusable, skipping new article check"))
}

func masterFile() *testutil.MemoryWorkbook {
	month := func(y int, m time.Month) time.Time { return day(y, m, 1) }
	return testutil.NewMemoryWorkbook().
		AddSheet("Försäljning per artikel",
			testutil.Row("Artikelnr", "Namn", month(2024, 1), month(2025, 1), "LTM jan 24", "LTM jan 25"),
			testutil.Row("A-1", "Bolt", 100.0, 150.0, 500_000.0, 400_000.0),
			testutil.Row("A-2", "Nut", 50.0, 40.0, 300_000.0, 20_000.0),
		).
		AddSheet("Försäljning per kund",
			testutil.Row("Nr", "Kund", month(2024, 1), "LTM jan 24", "LTM jan 25", "Bortfall"),
			testutil.Row(1, "Acme", 10.0, 500_000.0, nil, "x"),
			testutil.Row(2, "Beta", 10.0, 200_000.0, 150_000.0, nil),
			testutil.Row(3, "Gamma", 10.0, 100_000.0, 180_000.0, nil),
			testutil.Row(4, "Delta", 10.0, nil, 90_000.0, nil),
		)
}

func TestReportService_Intelligence(t *testing.T) {
	svc, logs := newTestService(t)

	report, err := svc.Intelligence(context.Background(), IntelligenceRequest{Master: masterFile()})
	require.NoError(t, err)

	assert.Equal(t, "LTM jan 25", report.CurrentPeriod)
	assert.Equal(t, "LTM jan 24", report.PreviousPeriod)
	assert.Equal(t, 420_000.0, report.CurrentTotal)
	assert.Equal(t, 800_000.0, report.PreviousTotal)
	assert.Equal(t, -380_000.0, report.YoYChange)
	assert.InDelta(t, -47.5, report.YoYPercent, 0.0001)
	assert.Equal(t, 2, report.ArticleCount)
	assert.Equal(t, 3, report.ActiveCustomers)

	assert.Equal(t, 4, report.Cohorts.Size())
	assert.Len(t, report.Cohorts.Churned, 1)
	assert.Len(t, report.Cohorts.New, 1)
	assert.InDelta(t, 0, report.Bridge.Residual, 0.01)
	assert.Equal(t, []string{"Acme"}, memberNames(report.MaterialCohorts.Churned))

	require.Len(t, report.TopCustomers, 3)
	assert.Equal(t, "Gamma", report.TopCustomers[0].Customer)
	assert.InDelta(t, 100, report.TopCustomerPercent, 0.0001)

	require.Len(t, report.TopArticles, 2)
	assert.Equal(t, "A-1", report.TopArticles[0].ArticleID)

	assert.Len(t, report.LTMSeries, 2)
	assert.Len(t, report.MonthlySeries, 2)
	assert.NotEmpty(t, report.YoYByMonth)

	assert.True(t, logs.ContainsMessage("cohorts classified"))
}

func memberNames(members []domain.CohortMember) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Customer)
	}
	return out
}

func TestReportService_IntelligencePeriods(t *testing.T) {
	tests := []struct {
		name         string
		current      string
		previous     string
		wantCurrent  string
		wantPrevious string
		wantErr      apperrors.ErrorType
	}{
		{name: "defaults", wantCurrent: "LTM jan 25", wantPrevious: "LTM jan 24"},
		{name: "explicit", current: "LTM jan 24", previous: "LTM jan 25", wantCurrent: "LTM jan 24", wantPrevious: "LTM jan 25"},
		{name: "only previous given", previous: "LTM jan 25", wantCurrent: "LTM jan 25", wantPrevious: "LTM jan 25"},
		{name: "unknown label", current: "LTM dec 30", wantErr: apperrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			report, err := svc.Intelligence(context.Background(), IntelligenceRequest{
				Master:   masterFile(),
				Current:  tt.current,
				Previous: tt.previous,
			})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCurrent, report.CurrentPeriod)
			assert.Equal(t, tt.wantPrevious, report.PreviousPeriod)
		})
	}
}

func TestReportService_IntelligenceErrors(t *testing.T) {
	svc, _ := newTestService(t)

	noLTM := testutil.NewMemoryWorkbook().AddSheet("Försäljning per kund",
		testutil.Row("Nr", "Kund", day(2024, 1, 1)),
		testutil.Row(1, "Acme", 10.0),
	)
	_, err := svc.Intelligence(context.Background(), IntelligenceRequest{Master: noLTM})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNoPeriodData))

	wrong := testutil.NewMemoryWorkbook().AddSheet("Order book", testutil.Row("x"))
	_, err = svc.Intelligence(context.Background(), IntelligenceRequest{Master: wrong})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSheetNotFound))
}

func TestNewReportService_UsesConfig(t *testing.T) {
	cfg := config.Default().Analytics
	cfg.FX.USD = 9.5
	cfg.AgingDays = 30

	svc := NewReportService(cfg, nil, nil, nil)

	assert.Equal(t, 9.5, svc.FX(nil).Rate(domain.USD))
	assert.Equal(t, 30, svc.limits.AgingDays)
	assert.Equal(t, analytics.DefaultMaterialThresholds(), svc.material)
}
