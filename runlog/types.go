package runlog

import "time"

// Outcome is the terminal state of one feed's collection attempt
type Outcome string

const (
	OutcomeDone        Outcome = "done"
	OutcomeFetchError  Outcome = "fetch_error"
	OutcomeDecodeError Outcome = "decode_error"
	OutcomeWriteError  Outcome = "write_error"
)

// RunRecord is one row per (feed, collection cycle). Records are
// append-only: never mutated after creation, never deleted by the core.
type RunRecord struct {
	Feed        string
	StartedAt   time.Time
	Outcome     Outcome
	RecordCount int
	ErrorDetail string
	Duration    time.Duration

	// Bounding box of the rows written this run, unset on failure
	BBoxMinX *float64
	BBoxMinY *float64
	BBoxMaxX *float64
	BBoxMaxY *float64
}
