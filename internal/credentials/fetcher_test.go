package credentials

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFetcherValidatesAgainstProbe(t *testing.T) {
	var probed bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = true
		assert.Equal(t, "tok", r.Header.Get("Kw-Umbrella-Token"))
		w.Write([]byte(`{"data":{"__typename":"Query"}}`))
	}))
	defer server.Close()

	fetcher := NewStaticFetcher(StaticFetcherConfig{
		Headers:  map[string]string{"kw-umbrella-token": "tok"},
		ProbeURL: server.URL,
	})

	headers, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, probed)
	assert.Equal(t, "tok", headers["kw-umbrella-token"])
}

func TestStaticFetcherRejectsInvalidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	fetcher := NewStaticFetcher(StaticFetcherConfig{
		Headers:  map[string]string{"kw-umbrella-token": "expired"},
		ProbeURL: server.URL,
	})

	_, err := fetcher.Fetch(context.Background())
	assert.Error(t, err)
}

func TestStaticFetcherSkipsProbeWhenUnconfigured(t *testing.T) {
	fetcher := NewStaticFetcher(StaticFetcherConfig{
		Headers: map[string]string{"kw-umbrella-token": "tok"},
	})

	headers, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", headers["kw-umbrella-token"])
}

func TestStaticFetcherRequiresHeaders(t *testing.T) {
	fetcher := NewStaticFetcher(StaticFetcherConfig{})
	_, err := fetcher.Fetch(context.Background())
	assert.Error(t, err)
}

func TestStaticFetcherReturnsCopy(t *testing.T) {
	fetcher := NewStaticFetcher(StaticFetcherConfig{
		Headers: map[string]string{"kw-umbrella-token": "tok"},
	})

	headers, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	headers["kw-umbrella-token"] = "mutated"

	again, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", again["kw-umbrella-token"])
}
