package gtfsrt

import "time"

// VehiclePosition is one decoded vehicle observation from a GTFS-RT feed
type VehiclePosition struct {
	Feed          string
	VehicleID     string
	TripID        *string
	RouteID       *string
	Latitude      float64
	Longitude     float64
	Bearing       *float64
	Speed         *float64
	StopSequence  *uint32
	CurrentStatus *string
	ObservedAt    int64 // epoch seconds
	IngestedAt    time.Time
}
