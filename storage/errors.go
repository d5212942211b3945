package storage

import "fmt"

// WriteErrorKind classifies a partition append failure
type WriteErrorKind string

const (
	WriteIO             WriteErrorKind = "io"
	WriteSchemaMismatch WriteErrorKind = "schema_mismatch"
)

// WriteError is returned by Writer.Append when a partition could not
// accept new rows. The affected partition is left untouched.
type WriteError struct {
	Kind      WriteErrorKind
	Partition PartitionKey
	Err       error
}

func (e *WriteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("partition %s: %s: %v", e.Partition, e.Kind, e.Err)
	}
	return fmt.Sprintf("partition %s: %s", e.Partition, e.Kind)
}

func (e *WriteError) Unwrap() error { return e.Err }
