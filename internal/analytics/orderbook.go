package analytics

import (
	"fmt"
	"sort"
	"time"

	"salesintel/pkg/contracts/domain"
)

const (
	// DefaultAgingDays is the age past which an open order is flagged.
	DefaultAgingDays = 90
	// DefaultLargeOrderThreshold is the SEK amount above which an order is
	// flagged as large.
	DefaultLargeOrderThreshold = 100_000.0
	// DefaultConcentrationAlert is the top-3 customer share, in percent,
	// above which the order book is flagged as concentrated.
	DefaultConcentrationAlert = 50.0
)

// Aging returns the dated orders more than thresholdDays old on today,
// oldest first. Age is counted in whole calendar days.
func Aging(orders []domain.Order, today time.Time, thresholdDays int) []domain.AgingEntry {
	day := civilDate(today)
	var out []domain.AgingEntry
	for _, o := range orders {
		if o.OrderDate == nil {
			continue
		}
		days := int(day.Sub(civilDate(*o.OrderDate)).Hours() / 24)
		if days <= thresholdDays {
			continue
		}
		out = append(out, domain.AgingEntry{
			OrderID:      o.OrderID,
			CustomerName: o.CustomerName,
			OrderDate:    *o.OrderDate,
			DaysOld:      days,
			MonthsOld:    days / 30,
			AmountBase:   o.AmountBase,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysOld != out[j].DaysOld {
			return out[i].DaysOld > out[j].DaysOld
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LargeOrders returns orders whose SEK amount exceeds threshold, largest
// first.
func LargeOrders(orders []domain.Order, threshold float64) []domain.Order {
	var out []domain.Order
	for _, o := range orders {
		if o.AmountBase > threshold {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AmountBase != out[j].AmountBase {
			return out[i].AmountBase > out[j].AmountBase
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out
}

// TotalBase sums the SEK amounts of orders.
func TotalBase(orders []domain.Order) float64 {
	var total float64
	for _, o := range orders {
		total += o.AmountBase
	}
	return total
}

// InvoicedCount counts fully or partially invoiced orders.
func InvoicedCount(orders []domain.Order) int {
	n := 0
	for _, o := range orders {
		if o.Invoiced() {
			n++
		}
	}
	return n
}

// CurrencyBreakdown groups orders by quoted currency. Currencies are listed
// in code order and carry the rate used for conversion.
func CurrencyBreakdown(orders []domain.Order, rates map[domain.Currency]float64) []domain.CurrencyBreakdown {
	byCur := make(map[domain.Currency]*domain.CurrencyBreakdown)
	for _, o := range orders {
		b, ok := byCur[o.Amount.Currency]
		if !ok {
			rate, known := rates[o.Amount.Currency]
			if !known {
				rate = 1
			}
			b = &domain.CurrencyBreakdown{Currency: o.Amount.Currency, Rate: rate}
			byCur[o.Amount.Currency] = b
		}
		b.Count++
		b.Amount += o.Amount.Value
		b.AmountBase += o.AmountBase
	}

	out := make([]domain.CurrencyBreakdown, 0, len(byCur))
	for _, b := range byCur {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// AlertLimits holds the thresholds behind order book alerts.
type AlertLimits struct {
	AgingDays          int
	LargeOrder         float64
	ConcentrationAlert float64
}

// DefaultAlertLimits returns the standard alert thresholds.
func DefaultAlertLimits() AlertLimits {
	return AlertLimits{
		AgingDays:          DefaultAgingDays,
		LargeOrder:         DefaultLargeOrderThreshold,
		ConcentrationAlert: DefaultConcentrationAlert,
	}
}

// Alerts lists the warnings raised by an assembled order book report. A
// report with nothing to warn about has no alerts.
func Alerts(r domain.OrderBookReport, limits AlertLimits) []domain.Alert {
	var out []domain.Alert
	if n := len(r.Aging); n > 0 {
		out = append(out, domain.Alert{
			Kind:    domain.AlertAging,
			Count:   n,
			Message: fmt.Sprintf("%d orders older than %d days", n, limits.AgingDays),
		})
	}
	if n := len(r.LargeOrders); n > 0 {
		out = append(out, domain.Alert{
			Kind:    domain.AlertLargeOrders,
			Count:   n,
			Message: fmt.Sprintf("%d orders above %s SEK", n, FormatSEK(limits.LargeOrder)),
		})
	}
	if p := r.Concentration.Top3Percent; p > limits.ConcentrationAlert {
		out = append(out, domain.Alert{
			Kind:    domain.AlertConcentration,
			Percent: p,
			Message: fmt.Sprintf("Top 3 customers = %.0f%% of value", p),
		})
	}
	if r.InvoicedCount > 0 {
		out = append(out, domain.Alert{
			Kind:    domain.AlertPartialInvoicing,
			Count:   r.InvoicedCount,
			Message: fmt.Sprintf("%d orders already invoiced in part or full", r.InvoicedCount),
		})
	}
	return out
}
