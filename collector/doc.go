// Package collector orchestrates one collection cycle: for every
// configured feed it runs fetch, decode and partition append, isolates
// per-feed failures, and records one RunRecord per feed attempted.
package collector
