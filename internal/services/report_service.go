package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"salesintel/internal/analytics"
	"salesintel/internal/config"
	"salesintel/internal/dataprocessing"
	apperrors "salesintel/internal/errors"
	"salesintel/internal/infrastructure"
	"salesintel/internal/workbook"
	"salesintel/pkg/contracts/domain"
)

// Report kinds, used as metric and span labels.
const (
	KindOrderBook    = "orderbook"
	KindSales        = "sales"
	KindIntelligence = "intelligence"
)

// NoteUnreliableMargins is attached to sales reports whose TB/TG columns
// carry non-numeric values.
const NoteUnreliableMargins = "TB/TG figures come straight from the export and may be unreliable"

// OrderBookRequest is the input of an order book run. Previous enables the
// week-over-week comparison.
type OrderBookRequest struct {
	Current  workbook.Workbook
	Previous workbook.Workbook
	// FX overrides the configured rates for this run only.
	FX map[domain.Currency]float64
	// Today anchors the aging calculation. Zero means now.
	Today time.Time
}

// SalesRequest is the input of a monthly sales run. Master enables new
// article detection.
type SalesRequest struct {
	File   workbook.Workbook
	Master workbook.Workbook
}

// IntelligenceRequest is the input of a master work file analysis. Empty
// period labels are picked from the file.
type IntelligenceRequest struct {
	Master   workbook.Workbook
	Current  string
	Previous string
}

// ReportService runs the extraction and analytics pipeline for every report
// kind. It holds configuration only; each call is an independent run.
type ReportService struct {
	fx           dataprocessing.FXTable
	limits       analytics.AlertLimits
	material     analytics.MaterialThresholds
	matchHeaders bool

	metrics *infrastructure.ReportMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
	now     func() time.Time
}

// NewReportService creates a report service. metrics and tracer may be nil.
func NewReportService(cfg config.AnalyticsConfig, metrics *infrastructure.ReportMetrics, tracer trace.Tracer, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.MeterName)
	}
	return &ReportService{
		fx:           dataprocessing.DefaultFXTable().WithOverrides(cfg.FXTable()),
		limits:       cfg.AlertLimits(),
		material:     cfg.MaterialThresholds(),
		matchHeaders: cfg.MatchHeaders,
		metrics:      metrics,
		tracer:       tracer,
		logger:       logger.With(slog.String("component", "report_service")),
		now:          time.Now,
	}
}

// begin opens a span, assigns a run id and starts the run metrics. The
// returned finish must be called with the run's error.
func (s *ReportService) begin(ctx context.Context, kind string) (context.Context, string, func(error)) {
	runID := infrastructure.NewRunID()
	ctx = infrastructure.WithRunID(ctx, runID)
	ctx, span := s.tracer.Start(ctx, "report."+kind,
		trace.WithAttributes(attribute.String("report.run_id", runID)))
	untrack := s.metrics.TrackRun(ctx, kind)
	start := s.now()

	s.logger.InfoContext(ctx, "report run started", slog.String("kind", kind))

	return ctx, runID, func(err error) {
		duration := s.now().Sub(start)
		untrack()
		s.metrics.RecordRun(ctx, kind, duration, err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			s.logger.ErrorContext(ctx, "report run failed",
				slog.String("kind", kind),
				slog.String("error", err.Error()),
				slog.Duration("duration", duration))
		} else {
			s.logger.InfoContext(ctx, "report run finished",
				slog.String("kind", kind),
				slog.Duration("duration", duration))
		}
		span.End()
	}
}

func (s *ReportService) extractor() *dataprocessing.Extractor {
	return dataprocessing.NewExtractor(s.logger, dataprocessing.ExtractorOptions{MatchHeaders: s.matchHeaders})
}

// FX returns the configured table with per-run overrides applied.
func (s *ReportService) FX(overrides map[domain.Currency]float64) dataprocessing.FXTable {
	return s.fx.WithOverrides(overrides)
}

// OrderBook analyses an open order export: totals, currency mix, aging,
// large orders, customer concentration, alerts and, with a previous
// snapshot, week-over-week movement.
func (s *ReportService) OrderBook(ctx context.Context, req OrderBookRequest) (report *domain.OrderBookReport, err error) {
	if req.Current == nil {
		return nil, apperrors.NewAppValidationError("order book file is required")
	}
	ctx, runID, finish := s.begin(ctx, KindOrderBook)
	defer func() { finish(err) }()

	fx := s.FX(req.FX)
	orders, stats, err := s.readOrders(ctx, req.Current, fx)
	if err != nil {
		return nil, err
	}

	today := req.Today
	if today.IsZero() {
		today = s.now()
	}

	report = &domain.OrderBookReport{
		RunID:         runID,
		GeneratedAt:   s.now(),
		Stats:         stats,
		FX:            fx,
		Orders:        orders,
		OrderCount:    len(orders),
		TotalBase:     analytics.TotalBase(orders),
		InvoicedCount: analytics.InvoicedCount(orders),
		Currencies:    analytics.CurrencyBreakdown(orders, fx),
		Aging:         analytics.Aging(orders, today, s.limits.AgingDays),
		LargeOrders:   analytics.LargeOrders(orders, s.limits.LargeOrder),
		Concentration: analytics.CustomerConcentration(orders),
	}

	if req.Previous != nil {
		previous, _, err := s.readOrders(ctx, req.Previous, fx)
		if err != nil {
			return nil, fmt.Errorf("previous order book: %w", err)
		}
		wow := analytics.WeekOverWeek(orders, previous)
		report.WeekOverWeek = &wow
	}

	report.Alerts = analytics.Alerts(*report, s.limits)
	for _, a := range report.Alerts {
		s.metrics.RecordAlert(ctx, string(a.Kind))
	}

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"report.orders": len(orders),
		"report.alerts": len(report.Alerts),
	})
	return report, nil
}

func (s *ReportService) readOrders(ctx context.Context, wb workbook.Workbook, fx dataprocessing.FXTable) ([]domain.Order, domain.ExtractStats, error) {
	sheet, err := workbook.Resolve(wb, workbook.OrderSheets)
	if err != nil {
		return nil, domain.ExtractStats{}, err
	}
	orders, stats := s.extractor().ExtractOrders(ctx, wb, sheet, dataprocessing.DefaultOrderColumns(), fx)
	s.recordRows(ctx, "orders", stats)
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	return orders, stats, nil
}

// recordRows counts extracted and skipped rows and notes them on the run's
// span.
func (s *ReportService) recordRows(ctx context.Context, kind string, stats domain.ExtractStats) {
	s.metrics.RecordRows(ctx, kind, stats.Extracted, stats.Skipped)
	infrastructure.AddSpanEvent(ctx, "rows extracted", map[string]interface{}{
		"sheet.kind":   kind,
		"sheet.name":   stats.Sheet,
		"rows.kept":    stats.Extracted,
		"rows.skipped": stats.Skipped,
	})
}

// Sales summarises a monthly sales export: article and customer totals,
// top-20 rankings and, with a master work file, articles not yet listed in
// the master.
func (s *ReportService) Sales(ctx context.Context, req SalesRequest) (report *domain.SalesReport, err error) {
	if req.File == nil {
		return nil, apperrors.NewAppValidationError("sales file is required")
	}
	ctx, runID, finish := s.begin(ctx, KindSales)
	defer func() { finish(err) }()

	ex := s.extractor()

	articleSheet, err := workbook.Resolve(req.File, workbook.ArticleSheets)
	if err != nil {
		return nil, err
	}
	articles, articleStats := ex.ExtractArticleSales(ctx, req.File, articleSheet, dataprocessing.DefaultArticleColumns())
	s.recordRows(ctx, "articles", articleStats)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report = &domain.SalesReport{
		RunID:        runID,
		GeneratedAt:  s.now(),
		ArticleStats: articleStats,
		Articles:     articles,
		TopArticles:  analytics.TopArticles(articles, analytics.TopN),
	}
	for _, a := range articles {
		report.ArticleTotal += a.NetAmount
	}

	// The customer sheet is optional; single-sheet fallback would pick the
	// article sheet again, so only an exact name counts.
	if customerSheet, ok := workbook.MatchSheet(req.File.SheetNames(), workbook.CustomerSheets); ok && customerSheet != articleSheet {
		customers, customerStats := ex.ExtractCustomerSales(ctx, req.File, customerSheet, dataprocessing.DefaultCustomerColumns())
		s.recordRows(ctx, "customers", customerStats)
		report.CustomerStats = &customerStats
		report.Customers = customers
		for _, c := range customers {
			report.CustomerTotal += c.NetAmount
		}
	} else {
		report.Notes = append(report.Notes, "no customer sheet found; customer ranking omitted")
	}
	report.TopCustomers = analytics.TopCustomers(report.Customers, analytics.TopN)

	if req.Master != nil {
		ids, err := dataprocessing.LoadMasterArticleIDs(req.Master)
		if err != nil {
			s.logger.WarnContext(ctx, "master work file unusable, skipping new article check",
				slog.String("error", err.Error()))
			report.Notes = append(report.Notes, "master work file has no article sheet; new articles not checked")
		} else {
			report.MasterAvailable = true
			report.NewArticles = analytics.NewArticles(ids, articles)
		}
	}

	if marginsUnreliable(articles) {
		report.Notes = append(report.Notes, NoteUnreliableMargins)
	}
	return report, nil
}

func marginsUnreliable(articles []domain.ArticleSale) bool {
	for _, a := range articles {
		if a.TB.Kind == domain.NumberLiteral || a.TG != "" {
			return true
		}
	}
	return false
}

// Intelligence analyses a master work file: LTM totals for two periods,
// customer cohorts and the revenue bridge between them, top customers and
// articles, and the monthly, LTM and year-over-year series.
func (s *ReportService) Intelligence(ctx context.Context, req IntelligenceRequest) (report *domain.IntelligenceReport, err error) {
	if req.Master == nil {
		return nil, apperrors.NewAppValidationError("master work file is required")
	}
	ctx, runID, finish := s.begin(ctx, KindIntelligence)
	defer func() { finish(err) }()

	data, err := dataprocessing.NewMasterParser(s.logger).Parse(ctx, req.Master)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data.LTMLabels) == 0 {
		return nil, apperrors.NewNoPeriodDataError("master work file has no LTM periods")
	}

	current, previous, err := pickPeriods(data.LTMLabels, req.Current, req.Previous)
	if err != nil {
		return nil, err
	}

	cohorts := analytics.ClassifyCohorts(data.Customers, current, previous)
	currentTotal := data.LTMTrend[current]
	previousTotal := data.LTMTrend[previous]
	change, pct := analytics.Change(currentTotal, previousTotal)

	report = &domain.IntelligenceReport{
		RunID:           runID,
		GeneratedAt:     s.now(),
		CurrentPeriod:   current,
		PreviousPeriod:  previous,
		CurrentTotal:    currentTotal,
		PreviousTotal:   previousTotal,
		YoYChange:       change,
		YoYPercent:      pct,
		ArticleCount:    len(data.Articles),
		ActiveCustomers: analytics.ActiveCustomers(data.Customers, current),
		Cohorts:         cohorts,
		MaterialCohorts: analytics.MaterialCohorts(cohorts, s.material),
		Bridge:          analytics.Bridge(cohorts),
		MonthlySeries:   analytics.MonthlySeries(data.MonthlyTotals, analytics.SeriesLength),
		LTMSeries:       analytics.LTMSeries(data.LTMTrend, data.LTMLabels, analytics.SeriesLength),
		YoYByMonth:      analytics.YoYByMonth(data.MonthlyTotals, analytics.YoYYears),
	}
	report.TopCustomers, report.TopCustomerPercent = analytics.TopMovements(
		data.Customers, current, previous, analytics.TopN, currentTotal)
	report.TopArticles, report.TopArticlePercent = analytics.TopArticleRevenue(
		data.Articles, current, analytics.TopN)

	s.logger.InfoContext(ctx, "cohorts classified",
		slog.String("current", current),
		slog.String("previous", previous),
		slog.Int("churned", len(cohorts.Churned)),
		slog.Int("declining", len(cohorts.Declining)),
		slog.Int("growing", len(cohorts.Growing)),
		slog.Int("new", len(cohorts.New)),
		slog.Float64("bridge_residual", report.Bridge.Residual))

	return report, nil
}

// pickPeriods validates caller supplied labels against the file and fills
// in defaults for the empty ones.
func pickPeriods(labels []string, current, previous string) (string, string, error) {
	defCurrent, defPrevious, _ := dataprocessing.DefaultPeriods(labels)

	known := make(map[string]bool, len(labels))
	for _, l := range labels {
		known[l] = true
	}

	var errs []apperrors.ValidationError
	if current == "" {
		current = defCurrent
	} else if !known[current] {
		errs = append(errs, apperrors.ValidationError{Field: "current", Message: "unknown period " + current})
	}
	if previous == "" {
		previous = defPrevious
	} else if !known[previous] {
		errs = append(errs, apperrors.ValidationError{Field: "previous", Message: "unknown period " + previous})
	}
	if len(errs) > 0 {
		sorted := append([]string(nil), labels...)
		sort.Strings(sorted)
		return "", "", apperrors.NewAppValidationError("period label not present in master work file").
			WithContext("errors", errs).
			WithContext("available", sorted)
	}
	return current, previous, nil
}
