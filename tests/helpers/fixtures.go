// Package helpers builds GTFS-RT protobuf fixtures for tests.
package helpers

import (
	"testing"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// Vehicle describes one vehicle entity for fixture construction.
// Zero-valued optional fields are left unset in the protobuf.
type Vehicle struct {
	EntityID   string
	VehicleID  string
	TripID     string
	RouteID    string
	Lat        float32
	Lon        float32
	Bearing    *float32
	Speed      *float32
	Timestamp  uint64
	NoPosition bool
}

// VehicleEntity builds a FeedEntity carrying a vehicle-position payload
func VehicleEntity(v Vehicle) *gtfs.FeedEntity {
	vp := &gtfs.VehiclePosition{}
	if !v.NoPosition {
		vp.Position = &gtfs.Position{
			Latitude:  proto.Float32(v.Lat),
			Longitude: proto.Float32(v.Lon),
			Bearing:   v.Bearing,
			Speed:     v.Speed,
		}
	}
	if v.VehicleID != "" {
		vp.Vehicle = &gtfs.VehicleDescriptor{Id: proto.String(v.VehicleID)}
	}
	if v.TripID != "" || v.RouteID != "" {
		trip := &gtfs.TripDescriptor{}
		if v.TripID != "" {
			trip.TripId = proto.String(v.TripID)
		}
		if v.RouteID != "" {
			trip.RouteId = proto.String(v.RouteID)
		}
		vp.Trip = trip
	}
	if v.Timestamp != 0 {
		vp.Timestamp = proto.Uint64(v.Timestamp)
	}
	return &gtfs.FeedEntity{
		Id:      proto.String(v.EntityID),
		Vehicle: vp,
	}
}

// EmptyEntity builds a FeedEntity with no vehicle payload
func EmptyEntity(id string) *gtfs.FeedEntity {
	return &gtfs.FeedEntity{Id: proto.String(id)}
}

// FeedMessage builds a FeedMessage with the given header version and
// timestamp (0 leaves the header timestamp unset).
func FeedMessage(version string, headerTS uint64, entities ...*gtfs.FeedEntity) *gtfs.FeedMessage {
	header := &gtfs.FeedHeader{}
	if version != "" {
		header.GtfsRealtimeVersion = proto.String(version)
	}
	if headerTS != 0 {
		header.Timestamp = proto.Uint64(headerTS)
	}
	return &gtfs.FeedMessage{
		Header: header,
		Entity: entities,
	}
}

// Marshal serializes a FeedMessage to wire bytes. AllowPartial lets
// fixtures omit proto2 required fields on purpose.
func Marshal(t *testing.T, fm *gtfs.FeedMessage) []byte {
	t.Helper()
	data, err := (proto.MarshalOptions{AllowPartial: true}).Marshal(fm)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}
