package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "salesintel"
	AppVersion = "1.0.0"

	// Rate Limiting
	DefaultRateLimit = 10 // report requests per second
	DefaultBurstSize = 20

	// Timeouts
	DefaultReportTimeout = 60 * time.Second

	// Uploads
	DefaultMaxUploadBytes  = 64 << 20 // 64MB across all files of one request
	DefaultMaxUploadMemory = 16 << 20

	// File Paths (relative to the working directory)
	DefaultOutputDir = "reports"
	DefaultLogsDir   = "logs"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Exchange rates against SEK
	DefaultEURRate = 11.20
	DefaultUSDRate = 10.50
	DefaultGBPRate = 13.30
)

// API Endpoints
const (
	APIBasePath          = "/api"
	HealthEndpoint       = "/api/health"
	MetricsEndpoint      = "/metrics"
	OrderBookEndpoint    = "/api/reports/orderbook"
	SalesEndpoint        = "/api/reports/sales"
	IntelligenceEndpoint = "/api/reports/intelligence"
)
