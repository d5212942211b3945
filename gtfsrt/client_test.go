package gtfsrt_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfsrt-archiver/config"
	"github.com/theoremus-urban-solutions/gtfsrt-archiver/gtfsrt"
)

func TestClient_FetchSendsConfiguredHeaders(t *testing.T) {
	var gotAuth, gotExtra string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotExtra = r.Header.Get("X-Api-Key")
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	client := gtfsrt.NewClient(time.Second)
	data, err := client.Fetch(context.Background(), config.FeedDescriptor{
		Name:     "mta",
		URL:      srv.URL,
		APIToken: "sekrit",
		Headers:  map[string]string{"X-Api-Key": "extra"},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
	assert.Equal(t, "Bearer sekrit", gotAuth)
	assert.Equal(t, "extra", gotExtra)
}

func TestClient_FetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := gtfsrt.NewClient(time.Second)
	_, err := client.Fetch(context.Background(), config.FeedDescriptor{Name: "mta", URL: srv.URL})

	var ferr *gtfsrt.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, gtfsrt.FetchStatus, ferr.Kind)
	assert.Equal(t, http.StatusForbidden, ferr.Status)
}

func TestClient_FetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	client := gtfsrt.NewClient(50 * time.Millisecond)
	start := time.Now()
	_, err := client.Fetch(context.Background(), config.FeedDescriptor{Name: "slow", URL: srv.URL})
	assert.Less(t, time.Since(start), 400*time.Millisecond)

	var ferr *gtfsrt.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, gtfsrt.FetchTimeout, ferr.Kind)
}

func TestClient_FetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := gtfsrt.NewClient(time.Second)
	_, err := client.Fetch(context.Background(), config.FeedDescriptor{Name: "down", URL: srv.URL})

	var ferr *gtfsrt.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, gtfsrt.FetchNetwork, ferr.Kind)
}
