// Package app provides application initialization and lifecycle management
// for the BondPulse server. It wires configuration, logging, observability,
// the collection pipeline and the HTTP transport together and handles
// graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and OpenTelemetry
//	3. Resolve the data directory layout and create missing directories
//	4. Start the WebSocket hub and operation tracker
//	5. Initialize the collection, data and health services
//	6. Set up HTTP handlers and middleware
//	7. Configure the HTTP server
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM. Shutdown drains active requests,
// cancels any collection run still in flight, disconnects WebSocket
// clients and flushes OpenTelemetry exporters before returning.
//
// # Error Handling
//
// All initialization errors are returned to the caller. The app never
// calls os.Exit() directly, leaving exit control to the main function.
package app
