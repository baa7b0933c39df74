package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/lei-flow/internal/cache"
	"github.com/Veraticus/lei-flow/internal/common"
	"github.com/Veraticus/lei-flow/internal/model"
)

const gleifRecordBody = `{
	"data": [
		{
			"attributes": {
				"entity": {
					"legalName": {"name": "Acme Holdings PLC"},
					"legalAddress": {"country": "GB"}
				},
				"bic": ["ACMEGB2L", "ACMEGB2X"]
			}
		}
	]
}`

// newTestClient wires a client to a test server, with sleeps recorded
// instead of slept.
func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) (*Client, *cache.Cache, *[]time.Duration) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL
	entityCache := cache.New()
	client := NewClient(cfg, entityCache)

	var slept []time.Duration
	client.sleep = func(d time.Duration) { slept = append(slept, d) }

	return client, entityCache, &slept
}

func countingHandler(calls *atomic.Int32, status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestResolveExtractsRecord(t *testing.T) {
	var calls atomic.Int32
	client, entityCache, slept := newTestClient(t,
		countingHandler(&calls, http.StatusOK, gleifRecordBody), Config{})

	rec, err := client.Resolve(context.Background(), "529900T8BM49AURSDO55")
	require.NoError(t, err)

	assert.Equal(t, "Acme Holdings PLC", rec.LegalName)
	assert.Equal(t, "ACMEGB2L", rec.BIC, "first BIC in the list wins")
	assert.Equal(t, "GB", rec.Country)

	cached, ok := entityCache.Get("529900T8BM49AURSDO55")
	require.True(t, ok)
	assert.Equal(t, rec, cached)

	// Rate-limit delay after a successful resolution.
	require.Len(t, *slept, 1)
	assert.Equal(t, 100*time.Millisecond, (*slept)[0])
}

func TestResolveFilterParameter(t *testing.T) {
	var gotFilter string
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("filter[lei]")
		_, _ = w.Write([]byte(`{"data": []}`))
	}, Config{})

	_, err := client.Resolve(context.Background(), "529900T8BM49AURSDO55")
	require.NoError(t, err)
	assert.Equal(t, "529900T8BM49AURSDO55", gotFilter)
}

func TestResolveBICVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "bic as scalar string",
			body: `{"data":[{"attributes":{"entity":{"legalName":{"name":"X"}},"bic":"ACMEGB2L"}}]}`,
			want: "ACMEGB2L",
		},
		{
			name: "bic as empty list",
			body: `{"data":[{"attributes":{"entity":{"legalName":{"name":"X"}},"bic":[]}}]}`,
			want: "",
		},
		{
			name: "bic absent",
			body: `{"data":[{"attributes":{"entity":{"legalName":{"name":"X"}}}}]}`,
			want: "",
		},
		{
			name: "bic null",
			body: `{"data":[{"attributes":{"entity":{"legalName":{"name":"X"}},"bic":null}}]}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client, _, _ := newTestClient(t,
				countingHandler(&calls, http.StatusOK, tt.body), Config{})

			rec, err := client.Resolve(context.Background(), "LEI-"+tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.BIC)
		})
	}
}

func TestResolveMissingNestedFieldsDefaultEmpty(t *testing.T) {
	var calls atomic.Int32
	client, _, _ := newTestClient(t,
		countingHandler(&calls, http.StatusOK, `{"data":[{"attributes":{}}]}`), Config{})

	rec, err := client.Resolve(context.Background(), "SPARSE000000000000000")
	require.NoError(t, err)
	assert.Equal(t, model.EntityRecord{}, rec)
}

func TestResolveEmptyDataIsCachedDefinitively(t *testing.T) {
	var calls atomic.Int32
	client, entityCache, slept := newTestClient(t,
		countingHandler(&calls, http.StatusOK, `{"data": []}`), Config{})

	rec, err := client.Resolve(context.Background(), "UNKNOWN00000000000000")
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
	assert.Equal(t, int32(1), calls.Load(), "absence of data is not retried")

	cached, ok := entityCache.Get("UNKNOWN00000000000000")
	require.True(t, ok)
	assert.True(t, cached.IsEmpty())

	// A repeat lookup makes zero additional network calls.
	_, err = client.Resolve(context.Background(), "UNKNOWN00000000000000")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	assert.Empty(t, *slept, "no rate-limit delay on the empty path")
}

func TestResolveMalformedPayloadShortCircuits(t *testing.T) {
	var calls atomic.Int32
	client, entityCache, slept := newTestClient(t,
		countingHandler(&calls, http.StatusOK, `{"data": [garbage`), Config{})

	rec, err := client.Resolve(context.Background(), "MALFORMED000000000000")
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
	assert.Equal(t, int32(1), calls.Load(), "malformed payload is not retried")
	assert.Empty(t, *slept, "no delay on the malformed path")

	// Treated as an empty-result resolution and cached as such.
	_, ok := entityCache.Get("MALFORMED000000000000")
	assert.True(t, ok)
}

func TestResolveTransportFailureExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	client, entityCache, slept := newTestClient(t,
		countingHandler(&calls, http.StatusInternalServerError, "boom"),
		Config{MaxRetries: 3})

	_, err := client.Resolve(context.Background(), "FAILING00000000000000")
	require.Error(t, err)

	var unavailable *common.RegistryUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "FAILING00000000000000", unavailable.LEI)
	assert.Equal(t, 3, unavailable.Attempts)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *slept,
		"exponential backoff between attempts, none after the last")

	// Transport failures do not write to the cache.
	_, ok := entityCache.Get("FAILING00000000000000")
	assert.False(t, ok)
}

func TestResolveRecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(gleifRecordBody))
	}, Config{})

	rec, err := client.Resolve(context.Background(), "FLAKY0000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings PLC", rec.LegalName)
	assert.Equal(t, int32(2), calls.Load())
}

func TestResolveCacheHitSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	client, entityCache, slept := newTestClient(t,
		countingHandler(&calls, http.StatusOK, gleifRecordBody), Config{})

	entityCache.Put("CACHED000000000000000", model.EntityRecord{LegalName: "Cached Co", Country: "GB"})

	rec, err := client.Resolve(context.Background(), "CACHED000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "Cached Co", rec.LegalName)
	assert.Equal(t, int32(0), calls.Load(), "cache hits never touch the network")
	assert.Empty(t, *slept, "no rate-limit delay on cache hits")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 100*time.Millisecond, cfg.RateLimitDelay)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}
