package collector

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/gtfsrt-archiver/config"
	"github.com/theoremus-urban-solutions/gtfsrt-archiver/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-archiver/runlog"
	"github.com/theoremus-urban-solutions/gtfsrt-archiver/storage"
)

// Fetcher retrieves raw feed bytes for one descriptor
type Fetcher interface {
	Fetch(ctx context.Context, desc config.FeedDescriptor) ([]byte, error)
}

// Appender persists decoded records into partitions
type Appender interface {
	Append(ctx context.Context, records []gtfsrt.VehiclePosition) (*storage.WriteResult, error)
}

// RunRecorder persists per-feed run outcomes
type RunRecorder interface {
	Record(ctx context.Context, rec runlog.RunRecord) error
}

// Coordinator runs one collection cycle across all configured feeds.
// Feeds are processed independently and concurrently; a failure in one
// feed's pipeline becomes that feed's RunRecord and never blocks or
// aborts the others.
type Coordinator struct {
	client Fetcher
	writer Appender
	runs   RunRecorder
	now    func() time.Time
}

// New creates a cycle coordinator
func New(client Fetcher, writer Appender, runs RunRecorder) *Coordinator {
	return &Coordinator{
		client: client,
		writer: writer,
		runs:   runs,
		now:    time.Now,
	}
}

// RunCycle fetches, decodes and persists every feed once, then records
// one RunRecord per feed. It never returns an error: per-feed failures
// are captured as data, and a run metadata write failure is logged and
// swallowed since the partition data is already durable. An empty feed
// list is a no-op cycle.
func (c *Coordinator) RunCycle(ctx context.Context, feeds []config.FeedDescriptor) []runlog.RunRecord {
	if len(feeds) == 0 {
		return nil
	}

	records := make([]runlog.RunRecord, len(feeds))
	g, gctx := errgroup.WithContext(ctx)
	for i, feed := range feeds {
		g.Go(func() error {
			records[i] = c.collectFeed(gctx, feed)
			return nil
		})
	}
	// Goroutines only ever return nil; every failure is RunRecord data.
	_ = g.Wait()

	for _, rec := range records {
		if err := c.runs.Record(ctx, rec); err != nil {
			slog.Error("recording run metadata failed",
				"feed", rec.Feed, "outcome", rec.Outcome, "error", err)
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Feed < records[j].Feed })
	return records
}

// collectFeed drives one feed through fetch, decode and append, mapping
// the first stage failure to its terminal outcome.
func (c *Coordinator) collectFeed(ctx context.Context, feed config.FeedDescriptor) runlog.RunRecord {
	started := c.now()
	rec := runlog.RunRecord{Feed: feed.Name, StartedAt: started}

	finish := func(outcome runlog.Outcome, err error) runlog.RunRecord {
		rec.Outcome = outcome
		rec.Duration = c.now().Sub(started)
		if err != nil {
			rec.ErrorDetail = err.Error()
			slog.Warn("feed collection failed",
				"feed", feed.Name, "outcome", outcome, "error", err)
		}
		return rec
	}

	data, err := c.client.Fetch(ctx, feed)
	if err != nil {
		return finish(runlog.OutcomeFetchError, err)
	}

	positions, skipped, err := gtfsrt.Decode(feed.Name, data, started)
	if err != nil {
		return finish(runlog.OutcomeDecodeError, err)
	}
	if skipped > 0 {
		slog.Warn("dropped entities without usable coordinates",
			"feed", feed.Name, "skipped", skipped)
	}

	result, err := c.writer.Append(ctx, positions)
	if err != nil {
		return finish(runlog.OutcomeWriteError, err)
	}

	rec.RecordCount = result.Rows
	if result.Rows > 0 {
		rec.BBoxMinX = &result.BBox.MinX
		rec.BBoxMinY = &result.BBox.MinY
		rec.BBoxMaxX = &result.BBox.MaxX
		rec.BBoxMaxY = &result.BBox.MaxY
	}
	slog.Info("feed collected",
		"feed", feed.Name, "rows", result.Rows, "files", len(result.Files), "skipped", skipped)
	return finish(runlog.OutcomeDone, nil)
}
