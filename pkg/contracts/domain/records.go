package domain

import (
	"strings"
	"time"
)

// Order is one open order row from an order book export.
type Order struct {
	OrderID       string       `json:"order_id"`
	OrderDate     *time.Time   `json:"order_date,omitempty"`
	CustomerName  string       `json:"customer_name"`
	Status        string       `json:"status"`
	InvoiceStatus string       `json:"invoice_status"`
	Amount        ParsedAmount `json:"amount"`
	AmountBase    float64      `json:"amount_sek"`
	Row           int          `json:"row"`
}

// Invoiced reports whether the order has been fully or partially invoiced.
func (o Order) Invoiced() bool {
	s := strings.ToLower(o.InvoiceStatus)
	return strings.Contains(s, "fakturerad") || strings.Contains(s, "partial")
}

// ArticleSale is one article row from a monthly sales export.
// TB (contribution) and TG (margin) are kept as delivered; the source system
// is known to report them unreliably.
type ArticleSale struct {
	ArticleID   string       `json:"article_id"`
	ArticleName string       `json:"article_name"`
	NetAmount   float64      `json:"net_amount"`
	Quantity    float64      `json:"quantity"`
	TB          NumberResult `json:"tb"`
	TG          string       `json:"tg,omitempty"`
	Row         int          `json:"row"`
}

// CustomerSale is one customer row from a monthly sales export.
type CustomerSale struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	NetAmount    float64 `json:"net_amount"`
	Row          int     `json:"row"`
}

// PeriodValues maps a period label (YYYY-MM month, FY label or LTM label) to
// revenue.
type PeriodValues map[string]float64

// MasterCustomer is a customer's revenue history from the master work file.
type MasterCustomer struct {
	Name       string       `json:"name"`
	Monthly    PeriodValues `json:"monthly"`
	FiscalYear PeriodValues `json:"fiscal_year"`
	LTM        PeriodValues `json:"ltm"`
	Churned    bool         `json:"churned"`
}

// MasterArticle is an article's revenue history from the master work file.
type MasterArticle struct {
	ArticleID   string       `json:"article_id"`
	ArticleName string       `json:"article_name"`
	Monthly     PeriodValues `json:"monthly"`
	FiscalYear  PeriodValues `json:"fiscal_year"`
	LTM         PeriodValues `json:"ltm"`
}

// MasterData is everything read from the master work file in one run.
type MasterData struct {
	Articles  []MasterArticle  `json:"articles"`
	Customers []MasterCustomer `json:"customers"`
	// MonthlyTotals sums article revenue per YYYY-MM month.
	MonthlyTotals PeriodValues `json:"monthly_totals"`
	// LTMTrend sums customer LTM revenue per LTM label.
	LTMTrend PeriodValues `json:"ltm_trend"`
	// LTMLabels holds LTMTrend keys in chronological order.
	LTMLabels []string `json:"ltm_labels"`
}
