// Package app wires the report web service together: configuration,
// logger, OpenTelemetry providers, services, middleware and routes.
//
// New builds an Application from an explicit configuration, which is what
// tests use; NewApplication loads the configuration and initializes the
// process logger first. Run serves until SIGINT or SIGTERM and then shuts
// the server and the telemetry providers down within the configured
// shutdown timeout.
//
// Middleware order is RequestID, RealIP, OTel, logger, recoverer, security
// headers and CORS. Report routes add the rate limiter and the report
// timeout; /metrics is served outside the chain.
package app
