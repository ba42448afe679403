package investing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondpulse/internal/config"
	apperrors "bondpulse/internal/errors"
	"bondpulse/internal/shared/testutil"
)

func TestResolveCachesSuccesses(t *testing.T) {
	fixtures := testutil.NewYieldTestFixtures(t.TempDir())
	inst := fixtures.GetTestInstrument()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/rates-bonds/u.s.-10-year-bond-yield-historical-data", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		fmt.Fprint(w, fixtures.GetInstrumentPageHTML(1234567))
	}))
	defer srv.Close()

	resolver := NewResolver(newTestClient(t, srv.URL), nil, false, nil)

	id, err := resolver.Resolve(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, 1234567, id)

	// Second resolve is served from the cache.
	id, err = resolver.Resolve(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, 1234567, id)
	assert.Equal(t, int32(1), requests.Load())
}

func TestResolveExtractionFallbacks(t *testing.T) {
	fixtures := testutil.NewYieldTestFixtures(t.TempDir())

	testCases := []struct {
		name string
		page string
	}{
		{name: "canonical page state", page: fixtures.GetInstrumentPageHTML(2315678)},
		{name: "page state scan", page: fixtures.GetInstrumentPageScanHTML(2315678)},
		{name: "raw markup pattern", page: fixtures.GetInstrumentPageRegexHTML(2315678)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.page)
			}))
			defer srv.Close()

			resolver := NewResolver(newTestClient(t, srv.URL), nil, false, nil)
			id, err := resolver.Resolve(context.Background(), fixtures.GetTestInstrument())
			require.NoError(t, err)
			assert.Equal(t, 2315678, id)
		})
	}
}

func TestResolveNotFoundIsNotCached(t *testing.T) {
	fixtures := testutil.NewYieldTestFixtures(t.TempDir())

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	resolver := NewResolver(newTestClient(t, srv.URL), nil, false, nil)

	_, err := resolver.Resolve(context.Background(), fixtures.GetTestInstrument())
	require.ErrorIs(t, err, apperrors.ErrInstrumentNotFound)

	_, err = resolver.Resolve(context.Background(), fixtures.GetTestInstrument())
	require.ErrorIs(t, err, apperrors.ErrInstrumentNotFound)
	assert.Equal(t, int32(2), requests.Load())
}

func TestResolveTransientOnServerError(t *testing.T) {
	fixtures := testutil.NewYieldTestFixtures(t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unhappy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resolver := NewResolver(newTestClient(t, srv.URL), nil, false, nil)
	_, err := resolver.Resolve(context.Background(), fixtures.GetTestInstrument())
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
	assert.False(t, apperrors.IsNotFound(err))
}

func TestResolveTransientOnConnectFailure(t *testing.T) {
	fixtures := testutil.NewYieldTestFixtures(t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := srv.URL
	srv.Close()

	resolver := NewResolver(newTestClient(t, serverURL), nil, false, nil)
	_, err := resolver.Resolve(context.Background(), fixtures.GetTestInstrument())
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
}

func TestResolveSavesSnapshotWhenPageHasNoID(t *testing.T) {
	fixtures := testutil.NewYieldTestFixtures(t.TempDir())
	inst := fixtures.GetTestInstrument()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fixtures.GetInstrumentPageWithoutID())
	}))
	defer srv.Close()

	paths := &config.Paths{CacheDir: t.TempDir()}
	resolver := NewResolver(newTestClient(t, srv.URL), paths, true, nil)

	_, err := resolver.Resolve(context.Background(), inst)
	require.Error(t, err)
	var parseErr *apperrors.ParseFailureError
	assert.ErrorAs(t, err, &parseErr)

	data, readErr := os.ReadFile(paths.GetDebugSnapshotPath(inst.Code()))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "newsStore")
}

func TestResolveSkipsSnapshotWhenDisabled(t *testing.T) {
	fixtures := testutil.NewYieldTestFixtures(t.TempDir())
	inst := fixtures.GetTestInstrument()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fixtures.GetInstrumentPageWithoutID())
	}))
	defer srv.Close()

	paths := &config.Paths{CacheDir: t.TempDir()}
	resolver := NewResolver(newTestClient(t, srv.URL), paths, false, nil)

	_, err := resolver.Resolve(context.Background(), inst)
	require.Error(t, err)
	_, statErr := os.Stat(paths.GetDebugSnapshotPath(inst.Code()))
	assert.True(t, os.IsNotExist(statErr))
}
