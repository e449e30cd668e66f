package http

import (
	"context"

	"salesintel/internal/services"
	"salesintel/pkg/contracts/domain"
)

// ReportServiceInterface defines the report runs the HTTP layer exposes
type ReportServiceInterface interface {
	OrderBook(ctx context.Context, req services.OrderBookRequest) (*domain.OrderBookReport, error)
	Sales(ctx context.Context, req services.SalesRequest) (*domain.SalesReport, error)
	Intelligence(ctx context.Context, req services.IntelligenceRequest) (*domain.IntelligenceReport, error)
}
