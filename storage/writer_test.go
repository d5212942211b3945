package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfsrt-archiver/gtfsrt"
)

var observed = time.Date(2026, 3, 14, 10, 15, 0, 0, time.UTC)

func testRecord(feed, vehicle string, at time.Time) gtfsrt.VehiclePosition {
	return gtfsrt.VehiclePosition{
		Feed:       feed,
		VehicleID:  vehicle,
		Latitude:   42.6977,
		Longitude:  23.3219,
		ObservedAt: at.Unix(),
		IngestedAt: at,
	}
}

func readPartition(t *testing.T, dir string) []partitionRow {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*"+fileExt))
	require.NoError(t, err)
	var rows []partitionRow
	for _, f := range files {
		fileRows, err := parquet.ReadFile[partitionRow](f)
		require.NoError(t, err, "reading %s", f)
		rows = append(rows, fileRows...)
	}
	return rows
}

func TestAppend_CreatesPartitionFile(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	trip := "trip-1"
	rec := testRecord("sofia", "v1", observed)
	rec.TripID = &trip

	result, err := w.Append(context.Background(), []gtfsrt.VehiclePosition{rec})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	require.Len(t, result.Files, 1)

	dir := PartitionKey{Feed: "sofia", Date: "2026-03-14", Hour: 10}.Dir(root)
	rows := readPartition(t, dir)
	require.Len(t, rows, 1)
	assert.Equal(t, "sofia", rows[0].Feed)
	assert.Equal(t, "v1", rows[0].VehicleID)
	require.NotNil(t, rows[0].TripID)
	assert.Equal(t, "trip-1", *rows[0].TripID)
	assert.Equal(t, observed.Unix(), rows[0].ObservedAt)
	assert.NotEmpty(t, rows[0].Geometry, "geometry point must be written")
}

func TestAppend_EmptyInputWritesNothing(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	result, err := w.Append(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Rows)
	assert.Empty(t, result.Files)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppend_GroupsAcrossPartitions(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	result, err := w.Append(context.Background(), []gtfsrt.VehiclePosition{
		testRecord("sofia", "v1", observed),
		testRecord("sofia", "v2", observed.Add(time.Hour)),
		testRecord("mta", "v3", observed),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.Len(t, result.Files, 3)

	assert.Len(t, readPartition(t, PartitionKey{Feed: "sofia", Date: "2026-03-14", Hour: 10}.Dir(root)), 1)
	assert.Len(t, readPartition(t, PartitionKey{Feed: "sofia", Date: "2026-03-14", Hour: 11}.Dir(root)), 1)
	assert.Len(t, readPartition(t, PartitionKey{Feed: "mta", Date: "2026-03-14", Hour: 10}.Dir(root)), 1)
}

func TestAppend_RetryProducesDuplicates(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	batch := []gtfsrt.VehiclePosition{
		testRecord("sofia", "v1", observed),
		testRecord("sofia", "v2", observed),
	}

	_, err := w.Append(context.Background(), batch)
	require.NoError(t, err)
	firstFiles, err := filepath.Glob(filepath.Join(root, "feed=sofia", "*", "*", "*"+fileExt))
	require.NoError(t, err)
	firstContent, err := os.ReadFile(firstFiles[0])
	require.NoError(t, err)

	_, err = w.Append(context.Background(), batch)
	require.NoError(t, err)

	// Duplicates must appear, not vanish: append is no-data-loss, not dedup.
	dir := PartitionKey{Feed: "sofia", Date: "2026-03-14", Hour: 10}.Dir(root)
	rows := readPartition(t, dir)
	assert.Len(t, rows, 4)

	// The first file must remain bit-identical after the second append.
	afterContent, err := os.ReadFile(firstFiles[0])
	require.NoError(t, err)
	assert.Equal(t, firstContent, afterContent)
}

func TestAppend_ConcurrentSameKey(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	const workers = 8
	const perBatch = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := make([]gtfsrt.VehiclePosition, perBatch)
			for j := range batch {
				batch[j] = testRecord("sofia", "v", observed)
			}
			_, err := w.Append(context.Background(), batch)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Every file must be a complete, readable parquet file with whole
	// rows only; the total must account for every appended row.
	dir := PartitionKey{Feed: "sofia", Date: "2026-03-14", Hour: 10}.Dir(root)
	rows := readPartition(t, dir)
	assert.Len(t, rows, workers*perBatch)
}

func TestAppend_SchemaMismatch(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	key := PartitionKey{Feed: "sofia", Date: "2026-03-14", Hour: 10}
	dir := key.Dir(root)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	// Simulate a partition written by an incompatible prior format.
	type legacyRow struct {
		Feed string `parquet:"feed"`
		Blob string `parquet:"blob"`
	}
	legacy := filepath.Join(dir, "00LEGACY00000000000000000000"+fileExt)
	f, err := os.Create(legacy)
	require.NoError(t, err)
	lw := parquet.NewGenericWriter[legacyRow](f)
	_, err = lw.Write([]legacyRow{{Feed: "sofia", Blob: "x"}})
	require.NoError(t, err)
	require.NoError(t, lw.Close())
	require.NoError(t, f.Close())
	legacyContent, err := os.ReadFile(legacy)
	require.NoError(t, err)

	_, err = w.Append(context.Background(), []gtfsrt.VehiclePosition{testRecord("sofia", "v1", observed)})
	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, WriteSchemaMismatch, werr.Kind)
	assert.Equal(t, key, werr.Partition)

	// The partition is left untouched: no new files, old file intact.
	files, err := filepath.Glob(filepath.Join(dir, "*"+fileExt))
	require.NoError(t, err)
	assert.Equal(t, []string{legacy}, files)
	after, err := os.ReadFile(legacy)
	require.NoError(t, err)
	assert.Equal(t, legacyContent, after)
}

func TestAppend_ResultBBox(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	a := testRecord("sofia", "v1", observed)
	a.Latitude, a.Longitude = 42.5, 23.2
	b := testRecord("sofia", "v2", observed)
	b.Latitude, b.Longitude = 42.8, 23.4

	result, err := w.Append(context.Background(), []gtfsrt.VehiclePosition{a, b})
	require.NoError(t, err)
	assert.InDelta(t, 23.2, result.BBox.MinX, 1e-9)
	assert.InDelta(t, 42.5, result.BBox.MinY, 1e-9)
	assert.InDelta(t, 23.4, result.BBox.MaxX, 1e-9)
	assert.InDelta(t, 42.8, result.BBox.MaxY, 1e-9)
}
