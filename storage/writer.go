package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/parquet-go/parquet-go"
	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/gtfsrt-archiver/gtfsrt"
)

const fileExt = ".geoparquet"

// partitionRow is the columnar layout of one vehicle observation
type partitionRow struct {
	Feed          string   `parquet:"feed"`
	VehicleID     string   `parquet:"vehicle_id"`
	TripID        *string  `parquet:"trip_id,optional"`
	RouteID       *string  `parquet:"route_id,optional"`
	Latitude      float64  `parquet:"latitude"`
	Longitude     float64  `parquet:"longitude"`
	Bearing       *float64 `parquet:"bearing,optional"`
	Speed         *float64 `parquet:"speed,optional"`
	StopSequence  *uint32  `parquet:"stop_sequence,optional"`
	CurrentStatus *string  `parquet:"current_status,optional"`
	ObservedAt    int64    `parquet:"observed_at"`
	IngestedAt    int64    `parquet:"ingested_at"`
	Geometry      []byte   `parquet:"geometry"`
}

var rowSchema = parquet.SchemaOf(partitionRow{})

// WriteResult describes one completed Append call
type WriteResult struct {
	Rows  int
	Files []string
	BBox  BBox
}

// Writer appends vehicle-position records to GeoParquet partitions under
// a storage root. Committed partition files are never rewritten; every
// append materializes as one new file inside the partition directory, so
// retrying a failed append can duplicate rows but never lose or corrupt
// data already on disk.
type Writer struct {
	root  string
	arena *lockArena
}

// NewWriter creates a partition writer rooted at dataDir
func NewWriter(dataDir string) *Writer {
	return &Writer{root: dataDir, arena: newLockArena()}
}

// Append groups records by (feed, UTC date, UTC hour) and writes one new
// partition file per group. Groups are written concurrently; writes to
// the same partition key serialize on a per-key mutex. The first group
// failure is returned; other groups' completed files remain valid.
func (w *Writer) Append(ctx context.Context, records []gtfsrt.VehiclePosition) (*WriteResult, error) {
	groups := map[PartitionKey][]gtfsrt.VehiclePosition{}
	for _, rec := range records {
		key := KeyFor(rec)
		groups[key] = append(groups[key], rec)
	}

	var (
		mu     sync.Mutex
		result WriteResult
	)
	g, ctx := errgroup.WithContext(ctx)
	for key, recs := range groups {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return &WriteError{Kind: WriteIO, Partition: key, Err: err}
			}
			lock := w.arena.get(key)
			lock.Lock()
			defer lock.Unlock()

			file, bbox, err := w.writePartitionFile(key, recs)
			if err != nil {
				return err
			}
			mu.Lock()
			result.Rows += len(recs)
			result.Files = append(result.Files, file)
			result.BBox.Extend(bbox.MinX, bbox.MinY)
			result.BBox.Extend(bbox.MaxX, bbox.MaxY)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(result.Files)
	return &result, nil
}

// writePartitionFile writes one new file into key's partition directory.
// The caller must hold the partition lock.
func (w *Writer) writePartitionFile(key PartitionKey, recs []gtfsrt.VehiclePosition) (string, BBox, error) {
	dir := key.Dir(w.root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", BBox{}, &WriteError{Kind: WriteIO, Partition: key, Err: err}
	}
	if err := w.checkExistingSchema(key, dir); err != nil {
		return "", BBox{}, err
	}

	var bbox BBox
	rows := make([]partitionRow, 0, len(recs))
	for _, rec := range recs {
		geom, err := pointWKB(rec.Longitude, rec.Latitude)
		if err != nil {
			return "", BBox{}, &WriteError{Kind: WriteIO, Partition: key, Err: err}
		}
		bbox.Extend(rec.Longitude, rec.Latitude)
		rows = append(rows, partitionRow{
			Feed:          rec.Feed,
			VehicleID:     rec.VehicleID,
			TripID:        rec.TripID,
			RouteID:       rec.RouteID,
			Latitude:      rec.Latitude,
			Longitude:     rec.Longitude,
			Bearing:       rec.Bearing,
			Speed:         rec.Speed,
			StopSequence:  rec.StopSequence,
			CurrentStatus: rec.CurrentStatus,
			ObservedAt:    rec.ObservedAt,
			IngestedAt:    rec.IngestedAt.UTC().Unix(),
			Geometry:      geom,
		})
	}

	geo, err := geoMetadata(bbox)
	if err != nil {
		return "", BBox{}, &WriteError{Kind: WriteIO, Partition: key, Err: err}
	}

	name := ulid.Make().String() + fileExt
	final := filepath.Join(dir, name)
	tmp := filepath.Join(dir, ".tmp-"+name)

	if err := writeParquet(tmp, rows, geo); err != nil {
		_ = os.Remove(tmp)
		return "", BBox{}, &WriteError{Kind: WriteIO, Partition: key, Err: err}
	}
	// Rename-into-place so readers never observe a partial file.
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", BBox{}, &WriteError{Kind: WriteIO, Partition: key, Err: err}
	}
	return final, bbox, nil
}

func writeParquet(path string, rows []partitionRow, geo string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	pw := parquet.NewGenericWriter[partitionRow](f,
		rowSchema,
		parquet.Compression(&parquet.Zstd),
		parquet.KeyValueMetadata("geo", geo),
	)
	if _, err := pw.Write(rows); err != nil {
		_ = f.Close()
		return err
	}
	if err := pw.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// checkExistingSchema verifies that a populated partition's column layout
// matches the current row schema before any new file is created. On
// mismatch the partition is left untouched and the append fails whole.
func (w *Writer) checkExistingSchema(key PartitionKey, dir string) error {
	existing, err := filepath.Glob(filepath.Join(dir, "*"+fileExt))
	if err != nil || len(existing) == 0 {
		return nil
	}
	sort.Strings(existing)
	got, err := leafColumns(existing[len(existing)-1])
	if err != nil {
		return &WriteError{Kind: WriteIO, Partition: key, Err: err}
	}
	want := make([]string, 0, len(rowSchema.Fields()))
	for _, f := range rowSchema.Fields() {
		want = append(want, f.Name())
	}
	sort.Strings(got)
	sort.Strings(want)
	if !slices.Equal(got, want) {
		return &WriteError{Kind: WriteSchemaMismatch, Partition: key,
			Err: fmt.Errorf("existing columns %v, want %v", got, want)}
	}
	return nil
}

// leafColumns reads a parquet file's footer and returns its column names
func leafColumns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, err
	}
	fields := pf.Schema().Fields()
	names := make([]string, 0, len(fields))
	for _, fld := range fields {
		names = append(names, fld.Name())
	}
	return names, nil
}
