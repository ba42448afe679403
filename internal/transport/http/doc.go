// Package http implements the HTTP request handlers for the yield
// service. It is a thin layer between transport and the service layer,
// keeping handlers focused solely on HTTP concerns.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - request parsing, response formatting
//	3. Error transformation - convert service errors to HTTP responses
//	4. No business logic - all logic belongs in the service layer
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Store
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Handlers
//
// DataHandler serves the read side: the merged yield table, change
// summaries, curve snapshots and report exports. Views are rebuilt from
// the stored datasets on every request.
//
// OperationsHandler controls collection runs. Runs are asynchronous:
// POST /collect responds 202 with the pending snapshot and progress is
// broadcast over the WebSocket hub as the run advances.
//
// HealthHandler serves liveness, readiness and version endpoints plus
// storage statistics.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/data/not-found",
//	    "title": "No Dataset Available",
//	    "status": 404,
//	    "detail": "No yield dataset has been collected yet",
//	    "instance": "/api/v1/yields/summary"
//	}
//
// Service sentinel errors are mapped in the handlers; everything else
// flows through the central ErrorHandler in internal/errors.
//
// # Testing
//
// Handlers are tested with httptest against fake service
// implementations of the interfaces in this package.
package http
