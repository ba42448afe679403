// Package store persists yield datasets as per-source CSV files and
// computes the incremental collection window for the next run.
//
// Files follow the wide-table contract: a Date header column with ISO
// dates, one column per instrument code, float cells, missing values
// serialized as NaN. Saves are atomic (temp file + rename) and a run
// that produced no fresh data never rewrites the stored file, so the
// last known-good dataset survives every failed collection.
package store
