package gtfsrt

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-archiver/config"
)

// Client is a simple HTTP client for fetching GTFS-RT protobuf data.
// It makes exactly one attempt per call; retry policy belongs to the caller.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new GTFS-RT HTTP client. Every request is bounded by
// timeout so one slow feed cannot stall a whole collection cycle.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch fetches a single GTFS-RT feed and returns raw protobuf bytes.
// A configured API token is sent as an Authorization bearer header.
// All failures are reported as *FetchError.
func (c *Client) Fetch(ctx context.Context, desc config.FeedDescriptor) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.URL, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, URL: desc.URL, Err: err}
	}
	for k, v := range desc.Headers {
		req.Header.Set(k, v)
	}
	if desc.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+desc.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: fetchKindFor(err), URL: desc.URL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Kind: FetchStatus, URL: desc.URL, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: fetchKindFor(err), URL: desc.URL, Err: err}
	}
	return data, nil
}

func fetchKindFor(err error) FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FetchTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FetchTimeout
	}
	return FetchNetwork
}
