// Package runlog records one row per (feed, collection cycle) in a
// SQLite database: outcome, row count, timing, error detail. The table
// is append-mostly; losing a metadata row never loses the underlying
// partition data, so callers treat store failures as logged-and-continue.
package runlog
