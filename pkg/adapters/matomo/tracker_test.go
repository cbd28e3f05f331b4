package matomo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerBuilder_RequiresOptions(t *testing.T) {
	_, err := NewTrackerBuilder(Options{SiteID: "1"}).BuildMatomoTracker()
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = NewTrackerBuilder(Options{BaseURL: "https://matomo.example.com"}).BuildMatomoTracker()
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestTracker_DoTrackPageView(t *testing.T) {
	var got url.Values
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		got = r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	tracker, err := NewTrackerBuilder(Options{
		BaseURL:  server.URL + "/",
		SiteID:   "7",
		APIToken: "secret",
	}).BuildMatomoTracker()
	require.NoError(t, err)

	tracker.SetURL("https://s.test/open/abc")
	tracker.SetUserAgent("Mozilla/5.0")
	tracker.SetURLReferrer("https://ref.example")
	tracker.SetCity("Madrid")
	tracker.SetCountry("ES")
	tracker.SetLatitude(40.4168)
	tracker.SetLongitude(-3.7038)
	tracker.SetIP("203.0.113.5")
	tracker.SetCustomTrackingParameter("type", "valid_short_url")
	tracker.SetCustomTrackingParameter("orphan", "true")

	require.NoError(t, tracker.DoTrackPageView(context.Background(), ""))

	assert.Equal(t, "/matomo.php", path)
	assert.Equal(t, "7", got.Get("idsite"))
	assert.Equal(t, "1", got.Get("rec"))
	assert.Equal(t, "https://s.test/open/abc", got.Get("url"))
	assert.Equal(t, "Mozilla/5.0", got.Get("ua"))
	assert.Equal(t, "https://ref.example", got.Get("urlref"))
	assert.Equal(t, "Madrid", got.Get("city"))
	assert.Equal(t, "es", got.Get("country"))
	assert.Equal(t, "40.4168", got.Get("lat"))
	assert.Equal(t, "-3.7038", got.Get("long"))
	assert.Equal(t, "203.0.113.5", got.Get("cip"))
	assert.Equal(t, "secret", got.Get("token_auth"))
	assert.Equal(t, "valid_short_url", got.Get("type"))
	assert.Equal(t, "true", got.Get("orphan"))
	assert.True(t, got.Has("action_name"))
	assert.Empty(t, got.Get("action_name"))
}

func TestTracker_OmitsUnsetParameters(t *testing.T) {
	var got url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
	}))
	defer server.Close()

	tracker, err := NewTrackerBuilder(Options{BaseURL: server.URL, SiteID: "1"}).BuildMatomoTracker()
	require.NoError(t, err)
	require.NoError(t, tracker.DoTrackPageView(context.Background(), ""))

	assert.False(t, got.Has("cip"))
	assert.False(t, got.Has("token_auth"))
	assert.False(t, got.Has("orphan"))
}

func TestTracker_ErrorStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	tracker, err := NewTrackerBuilder(Options{BaseURL: server.URL, SiteID: "1"}).BuildMatomoTracker()
	require.NoError(t, err)

	err = tracker.DoTrackPageView(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTracker_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tracker, err := NewTrackerBuilder(Options{BaseURL: server.URL, SiteID: "1", Retries: 1}).BuildMatomoTracker()
	require.NoError(t, err)

	require.NoError(t, tracker.DoTrackPageView(context.Background(), ""))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
