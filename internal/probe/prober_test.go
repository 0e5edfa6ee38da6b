package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeCapturesFirstHopLocation(t *testing.T) {
	var sawMethod string
	hops := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawMethod = r.Method
		hops++
		w.Header().Set("Location", "https://example.se/")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer srv.Close()

	p := NewProber(2*time.Second, 0, nil)
	result := p.Probe(context.Background(), srv.URL)

	assert.Equal(t, http.MethodHead, sawMethod)
	assert.Equal(t, http.StatusMovedPermanently, result.StatusCode)
	assert.Equal(t, "https://example.se/", result.Location)
	assert.Equal(t, 1, hops, "redirect must not be followed")
}

func TestProbeNonRedirectResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewProber(2*time.Second, 0, nil)
	result := p.Probe(context.Background(), srv.URL)

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Empty(t, result.Location)
}

func TestProbeTransportFailureYieldsZeroResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewProber(500*time.Millisecond, 0, nil)
	result := p.Probe(context.Background(), url)

	assert.Zero(t, result.StatusCode)
	assert.Empty(t, result.Location)
}

func TestProbeBadURL(t *testing.T) {
	p := NewProber(time.Second, 0, nil)
	result := p.Probe(context.Background(), "http://\x00bad")
	require.Zero(t, result.StatusCode)
}
