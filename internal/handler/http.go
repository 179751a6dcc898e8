package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tactics-catalog/internal/config"
	"github.com/tactics-catalog/internal/domain"
	"github.com/tactics-catalog/internal/ratelimit"
	"github.com/tactics-catalog/internal/websocket"
)

// DeviceHeader identifies the device owning a liked set
const DeviceHeader = "X-Device-ID"

const maxQueryLength = 200

// CatalogReader serves catalog browsing
type CatalogReader interface {
	PlaylistPage(ctx context.Context, deviceID, playlistID string) (*domain.PlaylistPage, error)
	Search(ctx context.Context, query string) domain.SearchResults
	Home(ctx context.Context) (*domain.HomeSections, error)
	Style(ctx context.Context, tag string) (*domain.StyleResults, error)
	Page(name string) (domain.StaticPage, error)
}

// LikeManager serves per-device liked sets
type LikeManager interface {
	Toggle(ctx context.Context, deviceID, playlistID string) (*domain.LikeState, error)
	IsLiked(ctx context.Context, deviceID, playlistID string) (*domain.LikeState, error)
	List(ctx context.Context, deviceID string) ([]domain.TacticsPlaylist, error)
}

// ReadinessCheck reports whether a dependency can serve requests
type ReadinessCheck func(ctx context.Context) error

// Handler provides HTTP handlers for the catalog API
type Handler struct {
	catalog CatalogReader
	likes   LikeManager
	hub     *websocket.Hub
	limiter *ratelimit.Limiter
	cors    *config.CORSConfig
	checks  map[string]ReadinessCheck
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler. hub and limiter may be nil.
func NewHandler(
	catalog CatalogReader,
	likes LikeManager,
	hub *websocket.Hub,
	limiter *ratelimit.Limiter,
	corsCfg *config.CORSConfig,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		catalog: catalog,
		likes:   likes,
		hub:     hub,
		limiter: limiter,
		cors:    corsCfg,
		checks:  make(map[string]ReadinessCheck),
		logger:  logger,
	}
}

// AddReadinessCheck registers a dependency probed by /ready
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(h.corsHandler())

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.With(h.rateLimit).Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/home", h.GetHome)
		r.With(h.rateLimit).Get("/search", h.Search)
		r.Get("/style/{tag}", h.GetStyle)
		r.Get("/pages/{name}", h.GetPage)
		r.Get("/playlists/{playlistID}", h.GetPlaylist)

		r.Route("/liked", func(r chi.Router) {
			r.Get("/", h.ListLiked)
			r.Get("/{playlistID}", h.GetLiked)
			r.Post("/{playlistID}/toggle", h.ToggleLike)
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsHandler allows browser clients from the configured origins
func (h *Handler) corsHandler() func(http.Handler) http.Handler {
	origins := []string{"*"}
	maxAge := 300
	if h.cors != nil {
		origins = h.cors.AllowedOrigins
		maxAge = h.cors.MaxAge
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", DeviceHeader},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         maxAge,
	})
}

// rateLimit rejects clients exceeding their request budget
func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow(clientKey(r)) {
			h.writeError(w, http.StatusTooManyRequests, domain.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies a client for rate limiting, preferring its device id
func clientKey(r *http.Request) string {
	if device := deviceID(r); device != "" {
		return "device:" + device
	}
	return "ip:" + r.RemoteAddr
}

// deviceID reads the device from the request header, falling back to the
// device_id query parameter for WebSocket clients that cannot set headers
func deviceID(r *http.Request) string {
	if device := strings.TrimSpace(r.Header.Get(DeviceHeader)); device != "" {
		return device
	}
	return strings.TrimSpace(r.URL.Query().Get("device_id"))
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps a service error to its status and writes it.
// Unexpected errors are logged and reported as internal errors.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, unwrapSentinel(err))
	case errors.Is(err, domain.ErrMissingDevice):
		h.writeError(w, http.StatusBadRequest, domain.ErrMissingDevice)
	case errors.Is(err, domain.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
	case errors.Is(err, domain.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, domain.ErrRateLimited)
	default:
		h.logger.Error("request failed", "op", op, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// unwrapSentinel returns the not-found sentinel wrapped in err
func unwrapSentinel(err error) error {
	for _, sentinel := range []error{domain.ErrPlaylistNotFound, domain.ErrPageNotFound} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return err
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		h.writeError(w, http.StatusServiceUnavailable, domain.ErrInternalError)
		return
	}
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics. With a
// playlist_id query it also reports that playlist's like-update subscribers.
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	playlistID := strings.TrimSpace(r.URL.Query().Get("playlist_id"))

	total, subscribers := 0, 0
	if h.hub != nil {
		total = h.hub.GetTotalConnections()
		if playlistID != "" {
			subscribers = h.hub.GetSubscriberCount(playlistID)
		}
	}

	stats := map[string]interface{}{
		"total_connections": total,
	}
	if playlistID != "" {
		stats["playlist_id"] = playlistID
		stats["subscribers"] = subscribers
	}
	h.writeSuccess(w, stats)
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck probes every registered dependency
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	ready := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("readiness check failed", "dependency", name, "error", err)
			status[name] = "unavailable"
			ready = false
			continue
		}
		status[name] = "ok"
	}

	if !ready {
		h.writeJSON(w, http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Data:    status,
			Error:   "not ready",
		})
		return
	}
	status["status"] = "ready"
	h.writeSuccess(w, status)
}
