// Package gtfsrt handles fetching and decoding GTFS-Realtime protobuf feeds.
//
// Client issues a single bounded HTTP fetch per feed and never retries;
// Decode turns the raw FeedMessage bytes into VehiclePosition records,
// dropping entities without usable coordinates. Both report failures
// through typed errors (FetchError, DecodeError) so callers can map them
// to run outcomes.
package gtfsrt
