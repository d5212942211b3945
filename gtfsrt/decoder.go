package gtfsrt

import (
	"strings"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// Decode parses data as a GTFS-RT FeedMessage and extracts one
// VehiclePosition per vehicle entity. Entities without a vehicle payload
// are ignored; entities without a usable position (missing, or coordinates
// outside [-90,90]/[-180,180]) are dropped and counted in the returned
// skip count. Unknown wire fields are tolerated.
//
// Observation timestamps resolve in priority order: entity timestamp,
// feed header timestamp, fetchedAt.
func Decode(feed string, data []byte, fetchedAt time.Time) ([]VehiclePosition, int, error) {
	var fm gtfs.FeedMessage
	// AllowPartial keeps decoding permissive: feeds missing proto2
	// required fields are judged by our own checks, not rejected whole.
	if err := (proto.UnmarshalOptions{AllowPartial: true}).Unmarshal(data, &fm); err != nil {
		return nil, 0, &DecodeError{Kind: DecodeMalformed, Err: err}
	}

	if fm.Header == nil || !supportedVersion(fm.Header.GetGtfsRealtimeVersion()) {
		return nil, 0, &DecodeError{Kind: DecodeUnsupportedVersion}
	}

	var headerTS int64
	if fm.Header.Timestamp != nil {
		headerTS = int64(*fm.Header.Timestamp)
	}

	records := make([]VehiclePosition, 0, len(fm.Entity))
	skipped := 0
	for _, e := range fm.Entity {
		if e == nil || e.Vehicle == nil {
			continue
		}
		v := e.Vehicle
		if v.Position == nil || v.Position.Latitude == nil || v.Position.Longitude == nil {
			skipped++
			continue
		}
		lat := float64(*v.Position.Latitude)
		lon := float64(*v.Position.Longitude)
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			skipped++
			continue
		}

		rec := VehiclePosition{
			Feed:       feed,
			Latitude:   lat,
			Longitude:  lon,
			IngestedAt: fetchedAt,
		}

		if v.Vehicle != nil && v.Vehicle.Id != nil {
			rec.VehicleID = *v.Vehicle.Id
		} else if e.Id != nil {
			rec.VehicleID = *e.Id
		}
		if v.Trip != nil {
			rec.TripID = v.Trip.TripId
			rec.RouteID = v.Trip.RouteId
		}
		if v.Position.Bearing != nil {
			b := float64(*v.Position.Bearing)
			rec.Bearing = &b
		}
		if v.Position.Speed != nil {
			s := float64(*v.Position.Speed)
			rec.Speed = &s
		}
		rec.StopSequence = v.CurrentStopSequence
		if v.CurrentStatus != nil {
			status := v.CurrentStatus.String()
			rec.CurrentStatus = &status
		}

		switch {
		case v.Timestamp != nil:
			rec.ObservedAt = int64(*v.Timestamp)
		case headerTS > 0:
			rec.ObservedAt = headerTS
		default:
			rec.ObservedAt = fetchedAt.Unix()
		}

		records = append(records, rec)
	}
	return records, skipped, nil
}

// supportedVersion accepts GTFS-RT major versions 1 and 2
func supportedVersion(v string) bool {
	return strings.HasPrefix(v, "1.") || strings.HasPrefix(v, "2.")
}
