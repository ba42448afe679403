// Package services implements the business logic layer between the
// HTTP handlers and the collection/storage packages.
//
// Three services cover the application surface:
//
//   - DataService: read-side views over the stored datasets (merged
//     table, change summary, curve snapshots) plus workbook and CSV
//     report exports.
//   - CollectionService: orchestrates collection runs source by source
//     (load store, compute window, collect, standardize, merge-save),
//     tracked as operations and serialized behind the tracker.
//   - HealthService: health, readiness and liveness probes plus system
//     statistics.
//
// Services receive their dependencies through constructors and log
// through injected *slog.Logger instances. They return domain errors
// (see the errors package and this package's sentinels) that the
// transport layer maps onto RFC 7807 problem documents.
package services
