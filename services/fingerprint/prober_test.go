package fingerprint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeDiscoversEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/graphql":
			w.WriteHeader(http.StatusOK)
		case "/api":
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	prober := NewProber("test-agent", "")
	apis := prober.Probe(context.Background(), server.URL)

	assert.True(t, apis.GraphQL)
	assert.True(t, apis.REST)
	assert.ElementsMatch(t, []string{"/graphql", "/api"}, apis.Endpoints)
}

func TestProbeNothingDiscovered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	prober := NewProber("test-agent", "")
	apis := prober.Probe(context.Background(), server.URL)

	assert.False(t, apis.GraphQL)
	assert.False(t, apis.REST)
	assert.Empty(t, apis.Endpoints)
}

func TestProbeRedirectCountsAsDiscovered(t *testing.T) {
	// 3xx 状态也算发现
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/wp-json" {
			w.Header().Set("Location", "/wp-json/")
			w.WriteHeader(http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	prober := NewProber("test-agent", "")
	apis := prober.Probe(context.Background(), server.URL)
	assert.Contains(t, apis.Endpoints, "/wp-json")
}

func TestProbeRespectsRobots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /api\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewProber("test-agent", "")
	apis := prober.Probe(context.Background(), server.URL)

	assert.NotContains(t, apis.Endpoints, "/api")
	assert.Contains(t, apis.Endpoints, "/graphql")
}

func TestProbeInvalidURL(t *testing.T) {
	prober := NewProber("test-agent", "")
	apis := prober.Probe(context.Background(), "::bad::")
	require.Empty(t, apis.Endpoints)
	assert.False(t, apis.GraphQL)
	assert.False(t, apis.REST)
}
