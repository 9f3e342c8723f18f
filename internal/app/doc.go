// Package app wires configuration, telemetry, services and HTTP handlers
// into a runnable clientpulse server.
//
// # Initialization Flow
//
//	1. The caller loads configuration and builds the logger
//	2. OpenTelemetry providers and business metrics are created
//	3. The report and health services are built on the analysis config
//	4. The chi router is assembled with the middleware chain
//	5. The HTTP server is configured from the server section
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns after SIGINT or SIGTERM. In-flight analyses finish within
// server.shutdown_timeout and telemetry is flushed. Initialization errors are
// returned; the package never calls os.Exit.
package app
