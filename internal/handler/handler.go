package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/armystay/hotels/internal/apperr"
	"github.com/armystay/hotels/internal/auth"
	"github.com/armystay/hotels/internal/bookmark"
	"github.com/armystay/hotels/internal/catalog"
	"github.com/armystay/hotels/internal/feed"
	"github.com/armystay/hotels/internal/middleware"
	"github.com/armystay/hotels/internal/obs"
	"github.com/armystay/hotels/internal/ratelimit"
)

// Accounts performs account operations against the auth server.
type Accounts interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password, name string) (*auth.User, error)
	ResetPassword(ctx context.Context, email string) error
	UpdateEmail(ctx context.Context, token, email string) (*auth.User, error)
	UpdatePassword(ctx context.Context, token, password string) (*auth.User, error)
}

// Handler handles HTTP requests.
type Handler struct {
	catalog     *catalog.Catalog
	bookmarks   bookmark.Store
	accounts    Accounts
	rateLimiter *ratelimit.Limiter
	metrics     *obs.Metrics
	logger      *slog.Logger
}

// New creates a new Handler. bookmarks and accounts may be nil, in which
// case their routes are not mounted.
func New(
	cat *catalog.Catalog,
	bookmarks bookmark.Store,
	accounts Accounts,
	rateLimiter *ratelimit.Limiter,
	metrics *obs.Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		catalog:     cat,
		bookmarks:   bookmarks,
		accounts:    accounts,
		rateLimiter: rateLimiter,
		metrics:     metrics,
		logger:      logger,
	}
}

// Mount registers the /api routes. Routes that need a signed-in user are
// mounted only when verifier is non-nil.
func (h *Handler) Mount(r chi.Router, verifier middleware.TokenVerifier) {
	r.Route("/api", func(r chi.Router) {
		r.Use(h.RateLimit)

		r.Get("/hotels", h.ListHotels)
		r.Get("/hotels/{id}", h.GetHotel)
		r.Get("/stats", h.Stats)
		r.Get("/spots", h.Spots)
		r.Get("/concerts", h.Concerts)

		if h.accounts != nil {
			r.Post("/auth/login", h.Login)
			r.Post("/auth/signup", h.SignUp)
			r.Post("/auth/reset-password", h.ResetPassword)
		}

		if verifier == nil {
			return
		}
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(verifier))

			if h.accounts != nil {
				r.Put("/account/email", h.UpdateEmail)
				r.Put("/account/password", h.UpdatePassword)
			}
			if h.bookmarks != nil {
				r.Get("/bookmarks", h.ListBookmarks)
				r.Post("/bookmarks", h.AddBookmark)
				r.Delete("/bookmarks", h.RemoveBookmark)
				r.Get("/bookmarks/hotels", h.BookmarkedHotels)
			}
		})
	})
}

// RateLimit rejects clients that exceed their allowance.
func (h *Handler) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ExtractIP(r)
		if !h.rateLimiter.Allow(ip) {
			h.metrics.IncRateLimited()
			h.logger.Warn("rate limit exceeded",
				"request_id", middleware.RequestID(r.Context()),
				"ip", ip)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListHotels handles GET /api/hotels.
func (h *Handler) ListHotels(w http.ResponseWriter, r *http.Request) {
	params, err := ParseListParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.catalog.Search(r.Context(), params.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// GetHotel handles GET /api/hotels/{id}.
func (h *Handler) GetHotel(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// Spots handles GET /api/spots.
func (h *Handler) Spots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.catalog.Spots(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if spots == nil {
		spots = []feed.LocalSpot{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"spots": spots})
}

// Concerts handles GET /api/concerts.
func (h *Handler) Concerts(w http.ResponseWriter, r *http.Request) {
	concerts, err := h.catalog.Concerts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(concerts) == 0 {
		concerts = json.RawMessage("null")
	}
	h.writeJSON(w, http.StatusOK, map[string]json.RawMessage{"concerts": concerts})
}

// fail logs err and writes the matching error response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := apperr.Status(err)
	attrs := []any{
		"request_id", middleware.RequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", attrs...)
	} else {
		h.logger.Debug("request rejected", attrs...)
	}
	writeError(w, status, msg)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Can't change status after WriteHeader, just log
		h.logger.Error("failed to encode response", "error", err)
	}
}

// ExtractIP extracts the client IP from the request.
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
