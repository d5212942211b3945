package storage

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// BBox is a WGS84 bounding box in (minLon, minLat, maxLon, maxLat) order
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64

	set bool
}

// Extend grows the box to include (lon, lat)
func (b *BBox) Extend(lon, lat float64) {
	if !b.set {
		b.MinX, b.MinY, b.MaxX, b.MaxY = lon, lat, lon, lat
		b.set = true
		return
	}
	b.MinX = min(b.MinX, lon)
	b.MinY = min(b.MinY, lat)
	b.MaxX = max(b.MaxX, lon)
	b.MaxY = max(b.MaxY, lat)
}

// pointWKB encodes (lon, lat) as a WKB point for the geometry column
func pointWKB(lon, lat float64) ([]byte, error) {
	data, err := wkb.Marshal(orb.Point{lon, lat})
	if err != nil {
		return nil, fmt.Errorf("encode point: %w", err)
	}
	return data, nil
}

// geoMetadata builds the GeoParquet "geo" footer metadata value, which is
// what makes the file readable as a GeoDataFrame downstream.
func geoMetadata(bbox BBox) (string, error) {
	meta := map[string]any{
		"version":        "1.0.0",
		"primary_column": "geometry",
		"columns": map[string]any{
			"geometry": map[string]any{
				"encoding":       "WKB",
				"geometry_types": []string{"Point"},
				"bbox":           []float64{bbox.MinX, bbox.MinY, bbox.MaxX, bbox.MaxY},
			},
		},
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
