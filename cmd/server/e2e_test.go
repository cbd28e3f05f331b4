package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/go-shortlink/pkg/bootstrap"
	"github.com/wadjakorntonsri/go-shortlink/pkg/config"
	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/database"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
)

func TestIntegration(t *testing.T) {
	hits := make(chan url.Values, 10)
	matomoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer matomoServer.Close()

	dbURL := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	cfg := &config.Config{
		DatabaseURL:         dbURL,
		BaseURL:             "https://s.test",
		JWTSecret:           "secret",
		AutoMigrate:         true,
		TrackOrphanVisits:   true,
		AnonymizeRemoteAddr: true,
		Matomo: config.MatomoConfig{
			Enabled: true,
			BaseURL: matomoServer.URL,
			SiteID:  "1",
			Timeout: 5 * time.Second,
		},
	}

	app, err := bootstrap.New(cfg, logger.NewNop(), nil)
	require.NoError(t, err)
	defer app.Close()

	// Second handle on the same in-memory database to seed an API key.
	conn, err := database.Open(dbURL)
	require.NoError(t, err)
	defer conn.Close()
	repo := sqlstore.NewRepository(conn)

	apiKey := &domain.APIKey{Key: uuid.NewString(), Name: "e2e", Enabled: true, CreatedAt: time.Now()}
	require.NoError(t, repo.CreateAPIKey(context.Background(), apiKey))

	server := httptest.NewServer(app.Handler)
	defer server.Close()

	client := server.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	do := func(method, path string, body []byte) *http.Response {
		req, err := http.NewRequest(method, server.URL+path, bytes.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("X-Api-Key", apiKey.Key)
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")
		resp, err := client.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	waitForHit := func() url.Values {
		select {
		case hit := <-hits:
			return hit
		case <-time.After(5 * time.Second):
			t.Fatal("no request reached matomo")
			return nil
		}
	}

	// Create Link
	payload, _ := json.Marshal(map[string]interface{}{
		"original_url": "https://example.com",
		"title":        "Example",
		"tags":         []string{"test", "demo"},
	})
	resp := do(http.MethodPost, "/api/v1/links", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created domain.Link
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.ShortCode)

	// Redirect, then the visit is forwarded to matomo
	resp = do(http.MethodGet, "/open/"+created.ShortCode, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com", resp.Header.Get("Location"))

	hit := waitForHit()
	assert.Equal(t, "https://s.test/open/"+created.ShortCode, hit.Get("url"))
	assert.Equal(t, "valid_short_url", hit.Get("type"))
	assert.Equal(t, "127.0.0.1", hit.Get("cip"))
	assert.False(t, hit.Has("orphan"))

	require.Eventually(t, func() bool {
		stats, err := repo.GetLinkStats(context.Background(), created.ID)
		return err == nil && stats.TotalClicks == 1
	}, 5*time.Second, 20*time.Millisecond)

	// Regular 404 becomes an orphan visit
	resp = do(http.MethodGet, "/does/not/exist", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	hit = waitForHit()
	assert.Equal(t, "regular_404", hit.Get("type"))
	assert.Equal(t, "true", hit.Get("orphan"))
	assert.Equal(t, server.URL+"/does/not/exist", hit.Get("url"))

	// Orphan visits listing
	resp = do(http.MethodGet, "/api/v1/visits/orphan?page=1&itemsPerPage=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Visits struct {
			Data       []domain.Visit `json:"data"`
			TotalItems int64          `json:"totalItems"`
		} `json:"visits"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.Equal(t, int64(1), listing.Visits.TotalItems)
	require.Len(t, listing.Visits.Data, 1)
	assert.Equal(t, domain.VisitTypeRegular404, listing.Visits.Data[0].Type)
	require.NotNil(t, listing.Visits.Data[0].RemoteAddr)
	assert.Equal(t, "127.0.0.0", *listing.Visits.Data[0].RemoteAddr)

	// Dashboard
	resp = do(http.MethodGet, "/api/v1/dashboard", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Export (Dump)
	links, err := repo.Dump(context.Background())
	require.NoError(t, err)
	assert.Len(t, links, 1)
}
