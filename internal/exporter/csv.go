package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"salesintel/pkg/contracts/domain"
)

// utf8BOM makes Excel open the files as UTF-8, which matters for å, ä and ö.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes CSV report files below a base directory.
type CSVWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(baseDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{baseDir: baseDir, logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool
}

// WriteCSV writes a CSV file, creating parent directories. Relative paths
// are resolved against the base directory.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return writeCSV(file, options)
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}

func writeCSV(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// CSVFor returns the CSV rendition of a report.
func CSVFor(report any) (WriteOptions, error) {
	switch r := report.(type) {
	case *domain.OrderBookReport:
		return OrderBookCSV(r), nil
	case *domain.SalesReport:
		return SalesCSV(r), nil
	case *domain.IntelligenceReport:
		return IntelligenceCSV(r), nil
	default:
		return WriteOptions{}, fmt.Errorf("%w: %T as %s", ErrUnsupported, report, FormatCSV)
	}
}

// OrderBookCSV flattens the orders of a report, one row per order.
func OrderBookCSV(r *domain.OrderBookReport) WriteOptions {
	records := make([][]string, 0, len(r.Orders))
	for _, o := range r.Orders {
		records = append(records, []string{
			o.OrderID,
			formatDate(o.OrderDate),
			o.CustomerName,
			o.Status,
			o.InvoiceStatus,
			formatBool(o.Invoiced()),
			formatMoney(o.Amount.Value),
			string(o.Amount.Currency),
			formatMoney(o.AmountBase),
		})
	}
	return WriteOptions{
		Headers: []string{"order_id", "order_date", "customer", "status", "invoice_status",
			"invoiced", "amount", "currency", "amount_sek"},
		Records:   records,
		BOMPrefix: true,
	}
}

// SalesCSV flattens the article rows of a sales report.
func SalesCSV(r *domain.SalesReport) WriteOptions {
	isNew := make(map[string]bool, len(r.NewArticles))
	for _, a := range r.NewArticles {
		isNew[a.ArticleID] = true
	}

	records := make([][]string, 0, len(r.Articles))
	for _, a := range r.Articles {
		records = append(records, []string{
			a.ArticleID,
			a.ArticleName,
			formatMoney(a.NetAmount),
			formatFloat(a.Quantity),
			numberText(a.TB),
			a.TG,
			formatBool(isNew[a.ArticleID]),
		})
	}
	return WriteOptions{
		Headers:   []string{"article_id", "article_name", "net_amount", "quantity", "tb", "tg", "new"},
		Records:   records,
		BOMPrefix: true,
	}
}

// IntelligenceCSV lists every classified customer with its cohort.
func IntelligenceCSV(r *domain.IntelligenceReport) WriteOptions {
	var records [][]string
	for _, group := range cohortGroups(r.Cohorts) {
		for _, m := range group.Members {
			records = append(records, []string{
				string(group.Cohort),
				m.Customer,
				formatMoney(m.Previous),
				formatMoney(m.Current),
				formatMoney(m.Change),
				formatMoney(m.Percent),
				formatBool(m.Marked),
			})
		}
	}
	return WriteOptions{
		Headers: []string{"cohort", "customer", r.PreviousPeriod, r.CurrentPeriod,
			"change", "change_percent", "marked_churned"},
		Records:   records,
		BOMPrefix: true,
	}
}

// cohortGroup fields are read by the dashboard template.
type cohortGroup struct {
	Cohort  domain.Cohort
	Label   string
	Members []domain.CohortMember
}

func cohortGroups(c domain.Cohorts) []cohortGroup {
	return []cohortGroup{
		{domain.CohortChurned, "Churned", c.Churned},
		{domain.CohortDeclining, "Declining", c.Declining},
		{domain.CohortGrowing, "Growing", c.Growing},
		{domain.CohortNew, "New", c.New},
		{domain.CohortFlat, "Flat", c.Flat},
	}
}

func numberText(n domain.NumberResult) string {
	switch n.Kind {
	case domain.NumberValue:
		return formatFloat(n.Value)
	case domain.NumberLiteral:
		return n.Literal
	default:
		return ""
	}
}
