// Package shared holds cross-cutting utilities that belong to no single
// domain or architectural layer.
//
// # Structure
//
// - testutil: test helpers shared by package-level tests
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - A buffered slog handler that captures records for assertions
//   - Canned yield tables, instruments and remote payloads for
//     collector and pipeline tests
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//
//	    // exercise code, then assert on logs.GetRecords()
//	}
//
// Nothing in this package may carry business logic or depend on other
// internal packages beyond the domain contracts.
package shared
