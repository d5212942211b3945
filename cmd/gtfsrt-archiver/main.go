package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/theoremus-urban-solutions/gtfsrt-archiver/collector"
	"github.com/theoremus-urban-solutions/gtfsrt-archiver/config"
	"github.com/theoremus-urban-solutions/gtfsrt-archiver/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-archiver/internal"
	"github.com/theoremus-urban-solutions/gtfsrt-archiver/runlog"
	"github.com/theoremus-urban-solutions/gtfsrt-archiver/storage"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to configuration file")
	mode := flag.String("mode", "oneshot", "oneshot|loop|status")
	cronSpec := flag.String("cron", "* * * * *", "collection schedule for -mode=loop")
	flag.Parse()

	internal.InitLogging()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading configuration failed", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if len(cfg.Feeds) == 0 {
		slog.Error("no feeds configured", "path", *configPath)
		os.Exit(1)
	}

	store, err := runlog.New(cfg.Storage.MetadataDB)
	if err != nil {
		slog.Error("opening run metadata store failed", "path", cfg.Storage.MetadataDB, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	switch *mode {
	case "oneshot":
		coord := newCoordinator(cfg, store)
		records := coord.RunCycle(context.Background(), cfg.Feeds)
		if allFailed(records) {
			os.Exit(1)
		}
	case "loop":
		coord := newCoordinator(cfg, store)
		runLoop(coord, cfg.Feeds, *cronSpec)
	case "status":
		if !reportStatus(context.Background(), store, cfg.Feeds) {
			os.Exit(1)
		}
	default:
		slog.Error("unknown mode", "mode", *mode)
		os.Exit(2)
	}
}

func newCoordinator(cfg *config.AppConfig, store *runlog.Store) *collector.Coordinator {
	client := gtfsrt.NewClient(time.Duration(cfg.Fetch.TimeoutMS) * time.Millisecond)
	writer := storage.NewWriter(cfg.Storage.DataDir)
	return collector.New(client, writer, store)
}

// runLoop runs collection cycles on a cron schedule until SIGINT/SIGTERM.
// Cron will not start a cycle while the previous one for the same job is
// still running, matching the core's single-cycle-at-a-time model.
func runLoop(coord *collector.Coordinator, feeds []config.FeedDescriptor, spec string) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		coord.RunCycle(context.Background(), feeds)
	})
	if err != nil {
		slog.Error("invalid cron spec", "spec", spec, "error", err)
		os.Exit(2)
	}
	c.Start()
	slog.Info("collection loop started", "spec", spec, "feeds", len(feeds))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")
	<-c.Stop().Done()
}

func allFailed(records []runlog.RunRecord) bool {
	for _, rec := range records {
		if rec.Outcome == runlog.OutcomeDone {
			return false
		}
	}
	return len(records) > 0
}
