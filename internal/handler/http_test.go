package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tactics-catalog/internal/config"
	"github.com/tactics-catalog/internal/domain"
	"github.com/tactics-catalog/internal/ratelimit"
	"github.com/tactics-catalog/internal/websocket"
)

type fakeCatalog struct {
	err        error
	lastDevice string
	queries    []string
}

func (f *fakeCatalog) PlaylistPage(_ context.Context, deviceID, playlistID string) (*domain.PlaylistPage, error) {
	f.lastDevice = deviceID
	if f.err != nil {
		return nil, f.err
	}
	if playlistID != "p1" {
		return nil, fmt.Errorf("getting playlist: %w", domain.ErrPlaylistNotFound)
	}
	return &domain.PlaylistPage{
		Playlist: domain.TacticsPlaylist{ID: "p1", Title: "Gegenpress", Tags: []string{"press", "wide", "fast"}},
		Tactics:  []domain.MatchedTactic{},
	}, nil
}

func (f *fakeCatalog) Search(_ context.Context, query string) domain.SearchResults {
	f.queries = append(f.queries, query)
	return domain.SearchResults{Query: query, Playlists: []domain.TacticsPlaylist{}, Tactics: []domain.Tactic{}}
}

func (f *fakeCatalog) Home(_ context.Context) (*domain.HomeSections, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.HomeSections{Featured: []domain.Tactic{{ID: "t1"}}}, nil
}

func (f *fakeCatalog) Style(_ context.Context, tag string) (*domain.StyleResults, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.StyleResults{Tag: tag}, nil
}

func (f *fakeCatalog) Page(name string) (domain.StaticPage, error) {
	if name != "about" {
		return domain.StaticPage{}, domain.ErrPageNotFound
	}
	return domain.StaticPage{Name: "about", Title: "About"}, nil
}

type fakeLikes struct {
	liked map[string]bool
}

func (f *fakeLikes) Toggle(_ context.Context, deviceID, playlistID string) (*domain.LikeState, error) {
	if deviceID == "" {
		return nil, domain.ErrMissingDevice
	}
	if playlistID != "p1" {
		return nil, fmt.Errorf("getting playlist: %w", domain.ErrPlaylistNotFound)
	}
	f.liked[deviceID] = !f.liked[deviceID]
	likes := int64(0)
	if f.liked[deviceID] {
		likes = 1
	}
	return &domain.LikeState{PlaylistID: playlistID, Liked: f.liked[deviceID], Likes: likes}, nil
}

func (f *fakeLikes) IsLiked(_ context.Context, deviceID, playlistID string) (*domain.LikeState, error) {
	if deviceID == "" {
		return nil, domain.ErrMissingDevice
	}
	return &domain.LikeState{PlaylistID: playlistID, Liked: f.liked[deviceID]}, nil
}

func (f *fakeLikes) List(_ context.Context, deviceID string) ([]domain.TacticsPlaylist, error) {
	if deviceID == "" {
		return nil, domain.ErrMissingDevice
	}
	if f.liked[deviceID] {
		return []domain.TacticsPlaylist{{ID: "p1"}}, nil
	}
	return []domain.TacticsPlaylist{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(limiter *ratelimit.Limiter) (*Handler, *fakeCatalog, *fakeLikes) {
	catalog := &fakeCatalog{}
	likes := &fakeLikes{liked: make(map[string]bool)}
	cfg := config.DefaultConfig()
	return NewHandler(catalog, likes, nil, limiter, &cfg.CORS, testLogger()), catalog, likes
}

func do(t *testing.T, h http.Handler, method, path, device string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if device != "" {
		req.Header.Set(DeviceHeader, device)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestRoutes_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		device     string
		wantStatus int
		wantError  string
	}{
		{name: "home", method: http.MethodGet, path: "/api/v1/home", wantStatus: http.StatusOK},
		{name: "search", method: http.MethodGet, path: "/api/v1/search?q=barca", wantStatus: http.StatusOK},
		{name: "playlist", method: http.MethodGet, path: "/api/v1/playlists/p1", wantStatus: http.StatusOK},
		{name: "unknown playlist", method: http.MethodGet, path: "/api/v1/playlists/nope", wantStatus: http.StatusNotFound, wantError: "playlist not found"},
		{name: "style", method: http.MethodGet, path: "/api/v1/style/press", wantStatus: http.StatusOK},
		{name: "page", method: http.MethodGet, path: "/api/v1/pages/about", wantStatus: http.StatusOK},
		{name: "unknown page", method: http.MethodGet, path: "/api/v1/pages/jobs", wantStatus: http.StatusNotFound, wantError: "page not found"},
		{name: "liked without device", method: http.MethodGet, path: "/api/v1/liked", wantStatus: http.StatusBadRequest, wantError: "device id required"},
		{name: "liked", method: http.MethodGet, path: "/api/v1/liked", device: "d1", wantStatus: http.StatusOK},
		{name: "is liked", method: http.MethodGet, path: "/api/v1/liked/p1", device: "d1", wantStatus: http.StatusOK},
		{name: "toggle unknown playlist", method: http.MethodPost, path: "/api/v1/liked/nope/toggle", device: "d1", wantStatus: http.StatusNotFound},
		{name: "toggle without device", method: http.MethodPost, path: "/api/v1/liked/p1/toggle", wantStatus: http.StatusBadRequest},
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "ws stats", method: http.MethodGet, path: "/api/v1/ws/stats", wantStatus: http.StatusOK},
	}

	h, _, _ := newTestHandler(nil)
	router := h.Router()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, router, tt.method, tt.path, tt.device)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, resp.Success)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp.Error)
			}
		})
	}
}

func TestToggleLike_RoundTrip(t *testing.T) {
	h, _, _ := newTestHandler(nil)
	router := h.Router()

	_, resp := do(t, router, http.MethodPost, "/api/v1/liked/p1/toggle", "d1")
	state := resp.Data.(map[string]interface{})
	assert.Equal(t, true, state["liked"])
	assert.Equal(t, float64(1), state["likes"])

	_, resp = do(t, router, http.MethodGet, "/api/v1/liked", "d1")
	assert.Len(t, resp.Data, 1)

	_, resp = do(t, router, http.MethodPost, "/api/v1/liked/p1/toggle", "d1")
	assert.Equal(t, false, resp.Data.(map[string]interface{})["liked"])
}

func TestGetPlaylist_PassesDevice(t *testing.T) {
	h, catalog, _ := newTestHandler(nil)

	do(t, h.Router(), http.MethodGet, "/api/v1/playlists/p1", "d7")
	assert.Equal(t, "d7", catalog.lastDevice)
}

func TestServiceFailureIsInternalError(t *testing.T) {
	h, catalog, _ := newTestHandler(nil)
	catalog.err = errors.New("pool closed")

	rec, resp := do(t, h.Router(), http.MethodGet, "/api/v1/home", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", resp.Error)
}

func TestSearch_RejectsOverlongQuery(t *testing.T) {
	h, catalog, _ := newTestHandler(nil)

	rec, _ := do(t, h.Router(), http.MethodGet, "/api/v1/search?q="+strings.Repeat("a", maxQueryLength+1), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, catalog.queries)
}

func TestSearch_RateLimited(t *testing.T) {
	limiter := ratelimit.New(1, 2, 0)
	defer limiter.Stop()
	h, _, _ := newTestHandler(limiter)
	router := h.Router()

	for i := 0; i < 2; i++ {
		rec, _ := do(t, router, http.MethodGet, "/api/v1/search?q=x", "d1")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, resp := do(t, router, http.MethodGet, "/api/v1/search?q=x", "d1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", resp.Error)

	rec, _ = do(t, router, http.MethodGet, "/api/v1/search?q=x", "d2")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyCheck(t *testing.T) {
	h, _, _ := newTestHandler(nil)
	h.AddReadinessCheck("postgres", func(context.Context) error { return nil })
	router := h.Router()

	rec, resp := do(t, router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	h.AddReadinessCheck("redis", func(context.Context) error { return errors.New("dial tcp: refused") })
	rec, resp = do(t, router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", resp.Data.(map[string]interface{})["redis"])
}

func TestCORSPreflight(t *testing.T) {
	h, _, _ := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/liked/p1/toggle", nil)
	req.Header.Set("Origin", "https://tactics.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", DeviceHeader)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocketWithoutHub(t *testing.T) {
	h, _, _ := newTestHandler(nil)

	rec, _ := do(t, h.Router(), http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWebSocketStats_PlaylistSubscribers(t *testing.T) {
	catalog := &fakeCatalog{}
	hub := websocket.NewHub(catalog, 50*time.Millisecond, testLogger())
	go hub.Run()

	cfg := config.DefaultConfig()
	h := NewHandler(catalog, &fakeLikes{liked: make(map[string]bool)}, hub, nil, &cfg.CORS, testLogger())
	srv := httptest.NewServer(h.Router())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		srv.Close()
		hub.Stop()
	})

	require.NoError(t, conn.WriteJSON(websocket.ClientMessage{Type: websocket.MessageTypeSubscribe, PlaylistID: "p1"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ack websocket.Message
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, websocket.MessageTypeSubscribed, ack.Type)

	var stats map[string]interface{}
	require.Eventually(t, func() bool {
		rec, resp := do(t, h.Router(), http.MethodGet, "/api/v1/ws/stats?playlist_id=p1", "")
		if rec.Code != http.StatusOK {
			return false
		}
		stats, _ = resp.Data.(map[string]interface{})
		return stats["subscribers"] == float64(1)
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, float64(1), stats["total_connections"])
	assert.Equal(t, "p1", stats["playlist_id"])

	_, resp := do(t, h.Router(), http.MethodGet, "/api/v1/ws/stats?playlist_id=p2", "")
	stats = resp.Data.(map[string]interface{})
	assert.Equal(t, float64(0), stats["subscribers"])

	_, resp = do(t, h.Router(), http.MethodGet, "/api/v1/ws/stats", "")
	stats = resp.Data.(map[string]interface{})
	assert.NotContains(t, stats, "subscribers")
}
