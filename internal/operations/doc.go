// Package operations tracks collection runs.
//
// A run is one pass of the acquisition pipeline over a date window,
// modeled as an ordered list of steps, one per data source. Run holds
// the mutable state behind a mutex and every transition hands back an
// immutable snapshot for broadcasting. Tracker serializes runs (the
// portal browser is a singleton resource, so concurrent runs are
// rejected rather than queued), keeps a bounded history of finished
// ones, and fans snapshots out to the websocket hub.
//
// The pipeline itself lives in the collection service; this package
// only owns run identity, step bookkeeping and the single-run rule.
package operations
