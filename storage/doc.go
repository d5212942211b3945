// Package storage persists decoded vehicle positions as GeoParquet
// partitions on disk.
//
// A partition is a hive-style directory keyed by (feed, UTC date, UTC
// hour). Appends never rewrite committed files: each Append call writes
// one new ULID-named file per touched partition, serialized per partition
// key and parallel across keys.
package storage
