package config

import "time"

// Application constants - all hardcoded values for the BondPulse system
const (
	// Application Info
	AppName    = "BondPulse"
	AppVersion = "0.3.0"

	// Dataset Files (relative to data dir, updated in place)
	TreasuryCSVName    = "global_treasury.csv"
	BondSummaryCSVName = "bond_summary.csv"

	// Export and Report Files
	PortalDownloadName   = "최종호가 수익률.xls" // fixed name the portal serves exports under
	BatchExportPattern   = "bond_summary_%s.xls"
	BondSummaryXLSXName  = "bond_summary.xlsx"
	YieldWorkbookName    = "yields.xlsx"
	ChangeSummaryCSVName = "change_summary.csv"

	// Network Timeouts
	DefaultHTTPTimeout     = 20 * time.Second
	DefaultStepTimeout     = 20 * time.Second // single guarded wait in the portal flow
	DefaultDownloadTimeout = 30 * time.Second // export file poll, once per second
	DownloadPollInterval   = 1 * time.Second
	WebSocketPingPeriod    = 30 * time.Second
	WebSocketPongWait      = 60 * time.Second

	// Request Pacing (both upstream sources throttle aggressive clients)
	DefaultResolveDelay = 300 * time.Millisecond
	DefaultFetchDelay   = 500 * time.Millisecond
	DefaultSettleDelay  = 5 * time.Second // portal grid re-render after a click

	// Rate Limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// History Windows
	DefaultLookbackYears        = 5
	TreasurySummaryLookbackDays = 365

	// Date Formats
	DateFormatISO     = "2006-01-02"
	DateFormatHistory = "01/02/2006" // MM/DD/YYYY, the history endpoint form
	DateFormatPortal  = "2006-01-02"
	DateFormatCompact = "20060102"

	// File Paths (relative to executable)
	DefaultDataDir      = "data"
	DefaultLogsDir      = "logs"
	DefaultWebDir       = "web"
	DefaultDownloadsDir = "data/downloads"
	DefaultReportsDir   = "data/reports"

	// Operation Timeouts
	DefaultOperationTimeout = 2 * time.Hour
	TreasuryCollectTimeout  = 30 * time.Minute
	PortalCollectTimeout    = 30 * time.Minute
	ReportGenerationTimeout = 15 * time.Minute

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	MaxLogFileSize    = 100 * 1024 * 1024 // 100MB
	MaxLogFileAge     = 30                // days
	MaxLogFileBackups = 10
)

// Feature Flags - compile-time configuration
const (
	// Core Features
	FeatureWebSocketEnabled   = true
	FeatureMetricsEnabled     = true
	FeatureHealthCheckEnabled = true

	// Collection Features
	FeatureHeadlessEnabled       = true
	FeatureDebugSnapshotsEnabled = false // saves unmatched pages for inspection
	FeatureRateLimitingEnabled   = true

	// Development Features
	FeatureDebugLoggingEnabled = false
	FeatureVerboseModeEnabled  = false
	FeatureMockDataEnabled     = false
)

// URLs and Endpoints (all embedded)
const (
	// API Endpoints (internal)
	APIBasePath        = "/api/v1"
	YieldsEndpoint     = "/api/v1/yields"
	OperationsEndpoint = "/api/v1/operations"
	HealthEndpoint     = "/health"
	MetricsEndpoint    = "/metrics"

	// WebSocket Endpoints
	WebSocketEndpoint = "/ws"
)

// GetFeatureFlag returns the value of a feature flag
func GetFeatureFlag(flag string) bool {
	switch flag {
	case "websocket":
		return FeatureWebSocketEnabled
	case "metrics":
		return FeatureMetricsEnabled
	case "health_check":
		return FeatureHealthCheckEnabled
	case "headless":
		return FeatureHeadlessEnabled
	case "debug_snapshots":
		return FeatureDebugSnapshotsEnabled
	case "rate_limiting":
		return FeatureRateLimitingEnabled
	case "debug_logging":
		return FeatureDebugLoggingEnabled
	case "verbose_mode":
		return FeatureVerboseModeEnabled
	case "mock_data":
		return FeatureMockDataEnabled
	default:
		return false
	}
}
