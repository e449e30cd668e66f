package domain

import "time"

// ExtractStats describes one pass of the record extractor over a sheet.
type ExtractStats struct {
	Sheet       string `json:"sheet"`
	RowsScanned int    `json:"rows_scanned"`
	Extracted   int    `json:"extracted"`
	Skipped     int    `json:"skipped"`
}

// AgingEntry is an order older than the aging threshold.
type AgingEntry struct {
	OrderID      string    `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	OrderDate    time.Time `json:"order_date"`
	DaysOld      int       `json:"days_old"`
	MonthsOld    int       `json:"months_old"`
	AmountBase   float64   `json:"amount_sek"`
}

// Share is one group's total and its percentage of the grand total.
type Share struct {
	Name    string  `json:"name"`
	Total   float64 `json:"total"`
	Percent float64 `json:"percent"`
}

// Concentration summarises how revenue is spread over customers.
type Concentration struct {
	Top           []Share `json:"top"`
	Top1Percent   float64 `json:"top1_percent"`
	Top3Percent   float64 `json:"top3_percent"`
	HHI           float64 `json:"hhi"`
	GrandTotal    float64 `json:"grand_total"`
	CustomerCount int     `json:"customer_count"`
}

// OrderSet is one partition of a week-over-week comparison.
type OrderSet struct {
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
	Orders []Order `json:"orders"`
}

// WeekOverWeek compares two order book snapshots by order id.
type WeekOverWeek struct {
	New       OrderSet `json:"new"`
	Closed    OrderSet `json:"closed"`
	Unchanged OrderSet `json:"unchanged"`
	NetCount  int      `json:"net_count"`
	NetAmount float64  `json:"net_amount"`
}

// Ranking is a top-N cut of a collection ordered by amount, with the
// remainder folded into an "other" bucket.
type Ranking[T any] struct {
	Items        []T     `json:"items"`
	TopTotal     float64 `json:"top_total"`
	TopPercent   float64 `json:"top_percent"`
	OtherTotal   float64 `json:"other_total"`
	OtherPercent float64 `json:"other_percent"`
	OtherCount   int     `json:"other_count"`
	GrandTotal   float64 `json:"grand_total"`
}

// RankedArticle is an article row inside a ranking.
type RankedArticle struct {
	Rank int `json:"rank"`
	ArticleSale
	Percent float64 `json:"percent"`
}

// RankedCustomer is a customer row inside a ranking.
type RankedCustomer struct {
	Rank int `json:"rank"`
	CustomerSale
	Percent float64 `json:"percent"`
}

// Cohort names the mutually exclusive customer classifications.
type Cohort string

const (
	CohortChurned   Cohort = "churned"
	CohortDeclining Cohort = "declining"
	CohortGrowing   Cohort = "growing"
	CohortNew       Cohort = "new"
	CohortFlat      Cohort = "flat"
)

// CohortMember is one customer's two-period comparison.
type CohortMember struct {
	Customer string  `json:"customer"`
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
	Change   float64 `json:"change"`
	Percent  float64 `json:"percent"`
	Marked   bool    `json:"marked_churned,omitempty"`
}

// Cohorts partitions a customer set between two periods.
type Cohorts struct {
	Current   string         `json:"current_period"`
	Previous  string         `json:"previous_period"`
	Churned   []CohortMember `json:"churned"`
	Declining []CohortMember `json:"declining"`
	Growing   []CohortMember `json:"growing"`
	New       []CohortMember `json:"new"`
	Flat      []CohortMember `json:"flat"`
}

// Size returns the number of classified customers.
func (c Cohorts) Size() int {
	return len(c.Churned) + len(c.Declining) + len(c.Growing) + len(c.New) + len(c.Flat)
}

// RevenueBridge decomposes the change between two period totals.
type RevenueBridge struct {
	PriorTotal float64 `json:"prior_total"`
	ChurnLoss  float64 `json:"churn_loss"`
	// ChurnRetained is what customers marked as churned still invoiced in
	// the current period.
	ChurnRetained float64 `json:"churn_retained"`
	DeclineLoss   float64 `json:"decline_loss"`
	GrowthGain    float64 `json:"growth_gain"`
	NewGain       float64 `json:"new_gain"`
	CurrentTotal  float64 `json:"current_total"`
	// Residual is what the components fail to explain; zero up to
	// floating point error.
	Residual float64 `json:"residual"`
}

// CurrencyBreakdown sums an order book per quoted currency.
type CurrencyBreakdown struct {
	Currency   Currency `json:"currency"`
	Rate       float64  `json:"rate"`
	Count      int      `json:"count"`
	Amount     float64  `json:"amount"`
	AmountBase float64  `json:"amount_sek"`
}

// AlertKind classifies order book warnings.
type AlertKind string

const (
	AlertAging            AlertKind = "aging"
	AlertLargeOrders      AlertKind = "large_orders"
	AlertConcentration    AlertKind = "concentration"
	AlertPartialInvoicing AlertKind = "partial_invoicing"
)

// Alert is a headline warning shown on report summaries.
type Alert struct {
	Kind    AlertKind `json:"kind"`
	Count   int       `json:"count,omitempty"`
	Percent float64   `json:"percent,omitempty"`
	Message string    `json:"message"`
}

// OrderBookReport is the full output of an order book run.
type OrderBookReport struct {
	RunID         string               `json:"run_id"`
	GeneratedAt   time.Time            `json:"generated_at"`
	Stats         ExtractStats         `json:"stats"`
	FX            map[Currency]float64 `json:"fx"`
	Orders        []Order              `json:"orders"`
	OrderCount    int                  `json:"order_count"`
	TotalBase     float64              `json:"total_sek"`
	InvoicedCount int                  `json:"invoiced_count"`
	Currencies    []CurrencyBreakdown  `json:"currencies"`
	Aging         []AgingEntry         `json:"aging"`
	LargeOrders   []Order              `json:"large_orders"`
	Concentration Concentration        `json:"concentration"`
	WeekOverWeek  *WeekOverWeek        `json:"week_over_week,omitempty"`
	Alerts        []Alert              `json:"alerts"`
}

// SalesReport is the full output of a monthly sales run.
type SalesReport struct {
	RunID           string                  `json:"run_id"`
	GeneratedAt     time.Time               `json:"generated_at"`
	ArticleStats    ExtractStats            `json:"article_stats"`
	CustomerStats   *ExtractStats           `json:"customer_stats,omitempty"`
	Articles        []ArticleSale           `json:"articles"`
	Customers       []CustomerSale          `json:"customers"`
	ArticleTotal    float64                 `json:"article_total"`
	CustomerTotal   float64                 `json:"customer_total"`
	TopArticles     Ranking[RankedArticle]  `json:"top_articles"`
	TopCustomers    Ranking[RankedCustomer] `json:"top_customers"`
	MasterAvailable bool                    `json:"master_available"`
	NewArticles     []ArticleSale           `json:"new_articles,omitempty"`
	Notes           []string                `json:"notes,omitempty"`
}

// PeriodPoint is one labelled value in a time series.
type PeriodPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// YearSeries holds twelve monthly values for one calendar year.
type YearSeries struct {
	Year   int         `json:"year"`
	Months [12]float64 `json:"months"`
}

// CustomerMovement is a customer's current revenue and change against the
// previous period.
type CustomerMovement struct {
	Rank     int     `json:"rank"`
	Customer string  `json:"customer"`
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change"`
	Percent  float64 `json:"percent"`
}

// ArticleRevenue is an article's revenue in the current period.
type ArticleRevenue struct {
	Rank        int     `json:"rank"`
	ArticleID   string  `json:"article_id"`
	ArticleName string  `json:"article_name"`
	Value       float64 `json:"value"`
	Percent     float64 `json:"percent"`
}

// IntelligenceReport is the output of a master work file analysis.
type IntelligenceReport struct {
	RunID              string             `json:"run_id"`
	GeneratedAt        time.Time          `json:"generated_at"`
	CurrentPeriod      string             `json:"current_period"`
	PreviousPeriod     string             `json:"previous_period"`
	CurrentTotal       float64            `json:"current_total"`
	PreviousTotal      float64            `json:"previous_total"`
	YoYChange          float64            `json:"yoy_change"`
	YoYPercent         float64            `json:"yoy_percent"`
	ArticleCount       int                `json:"article_count"`
	ActiveCustomers    int                `json:"active_customers"`
	Cohorts            Cohorts            `json:"cohorts"`
	MaterialCohorts    Cohorts            `json:"material_cohorts"`
	Bridge             RevenueBridge      `json:"bridge"`
	TopCustomers       []CustomerMovement `json:"top_customers"`
	TopCustomerPercent float64            `json:"top_customer_percent"`
	TopArticles        []ArticleRevenue   `json:"top_articles"`
	TopArticlePercent  float64            `json:"top_article_percent"`
	MonthlySeries      []PeriodPoint      `json:"monthly_series"`
	LTMSeries          []PeriodPoint      `json:"ltm_series"`
	YoYByMonth         []YearSeries       `json:"yoy_by_month"`
}
