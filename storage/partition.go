package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-archiver/gtfsrt"
)

// PartitionKey identifies one physical storage partition. A partition
// belongs to exactly one (feed, UTC date, UTC hour) triple.
type PartitionKey struct {
	Feed string
	Date string // YYYY-MM-DD, UTC
	Hour int    // 0..23, UTC
}

// KeyFor derives the partition key from a record's observation timestamp
func KeyFor(rec gtfsrt.VehiclePosition) PartitionKey {
	t := time.Unix(rec.ObservedAt, 0).UTC()
	return PartitionKey{
		Feed: rec.Feed,
		Date: t.Format("2006-01-02"),
		Hour: t.Hour(),
	}
}

// Dir returns the partition directory under the storage root.
// The hive-style layout keeps partitions discoverable by downstream
// query engines without a catalog.
func (k PartitionKey) Dir(root string) string {
	return filepath.Join(root,
		"feed="+k.Feed,
		"date="+k.Date,
		fmt.Sprintf("hour=%02d", k.Hour),
	)
}

func (k PartitionKey) String() string {
	return fmt.Sprintf("%s/%s/%02dh", k.Feed, k.Date, k.Hour)
}
