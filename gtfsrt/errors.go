package gtfsrt

import "fmt"

// FetchErrorKind classifies a feed fetch failure
type FetchErrorKind string

const (
	FetchStatus  FetchErrorKind = "status"
	FetchTimeout FetchErrorKind = "timeout"
	FetchNetwork FetchErrorKind = "network"
)

// FetchError is returned by Client.Fetch when a feed could not be retrieved
type FetchError struct {
	Kind   FetchErrorKind
	URL    string
	Status int   // set for Kind == FetchStatus
	Err    error // set for network/timeout failures
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchStatus:
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	case FetchTimeout:
		return fmt.Sprintf("fetch %s: timeout: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeErrorKind classifies a feed decode failure
type DecodeErrorKind string

const (
	DecodeMalformed          DecodeErrorKind = "malformed"
	DecodeUnsupportedVersion DecodeErrorKind = "unsupported_version"
)

// DecodeError is returned by Decode when the feed bytes cannot be
// interpreted as a supported GTFS-RT FeedMessage
type DecodeError struct {
	Kind DecodeErrorKind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("decode: %s", e.Kind)
}

func (e *DecodeError) Unwrap() error { return e.Err }
