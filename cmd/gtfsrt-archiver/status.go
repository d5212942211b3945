package main

import (
	"context"
	"fmt"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-archiver/config"
	"github.com/theoremus-urban-solutions/gtfsrt-archiver/runlog"
)

// reportStatus prints each feed's most recent run and returns false if
// any feed has never run or last failed.
func reportStatus(ctx context.Context, store *runlog.Store, feeds []config.FeedDescriptor) bool {
	healthy := true
	for _, feed := range feeds {
		last, err := store.LastRun(ctx, feed.Name)
		if err != nil {
			fmt.Printf("%-24s error: %v\n", feed.Name, err)
			healthy = false
			continue
		}
		if last == nil {
			fmt.Printf("%-24s never run\n", feed.Name)
			healthy = false
			continue
		}
		age := time.Since(last.StartedAt).Round(time.Second)
		if last.Outcome == runlog.OutcomeDone {
			fmt.Printf("%-24s %s  %d rows  %s ago\n", feed.Name, last.Outcome, last.RecordCount, age)
		} else {
			fmt.Printf("%-24s %s  %s ago  %s\n", feed.Name, last.Outcome, age, last.ErrorDetail)
			healthy = false
		}
	}
	return healthy
}
