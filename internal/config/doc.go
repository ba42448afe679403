// Package config provides centralized configuration management for the
// BondPulse system. It handles loading configuration from multiple
// sources, validation, and provides a type-safe API for accessing
// configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration files (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern BONDPULSE_* for namespacing:
//
//	BONDPULSE_SERVER_PORT=8080
//	BONDPULSE_LOGGING_LEVEL=info
//	BONDPULSE_COLLECTION_HEADLESS=true
//	BONDPULSE_COLLECTION_LOOKBACK_YEARS=5
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, _ := config.GetPaths()
//	dataset := paths.TreasuryCSV
//	export := paths.GetBatchExportPath("A")
//
// # Validation
//
// All configuration is validated at load time to ensure:
//
//	- Required fields are present
//	- Values are within acceptable ranges
//	- Directories exist or can be created
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
