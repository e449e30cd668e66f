// Package config provides centralized configuration management for salesintel.
//
// # Configuration Sources
//
// Configuration is assembled in three layers, later layers winning field by
// field:
//
//  1. Default values (Default)
//  2. An optional YAML file: $SALESINTEL_CONFIG, or config.yaml /
//     configs/config.yaml near the working directory
//  3. Environment variables
//
// # Environment Variables
//
// Variables are namespaced with SALESINTEL and follow the struct nesting:
//
//	SALESINTEL_SERVER_PORT=8080
//	SALESINTEL_ANALYTICS_FX_EUR=11.20
//	SALESINTEL_ANALYTICS_AGING_DAYS=90
//	SALESINTEL_ANALYTICS_MATERIAL_CHANGE=20000
//	SALESINTEL_LOGGING_LEVEL=debug
//
// # Validation
//
// Load validates the result with go-playground/validator struct tags:
// exchange rates and thresholds must be positive, the port must be in range
// and log settings must be known values.
package config
