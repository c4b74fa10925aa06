// internal/httpserver/server.go
//
// HTTP server wiring for the MindMatch backend.
// Responsibilities:
//   - Router + middleware (request IDs, access logs, JSON, CORS, timeouts,
//     panic recovery).
//   - Public endpoints: "/", "/health", "/palette".
//   - Mount the game, auth, puzzle library and daily route groups.
//   - Map domain errors to JSON error responses.
//   - Graceful shutdown when the serve context is cancelled.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - /daily/generate sits outside the 10s handler timeout; the generator
//     client carries its own deadline.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mindmatch/internal/auth"
	"github.com/robalobadob/mindmatch/internal/config"
	"github.com/robalobadob/mindmatch/internal/generator"
	"github.com/robalobadob/mindmatch/internal/mastermind"
	"github.com/robalobadob/mindmatch/internal/palette"
	"github.com/robalobadob/mindmatch/internal/puzzles"
	"github.com/robalobadob/mindmatch/internal/solver"
	"github.com/robalobadob/mindmatch/internal/store"
)

// Server bundles the router with the session store and persistence layers.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	sessions store.Store
	db       *sql.DB
	auth     *auth.Service
	puzzles  *puzzles.Store
	daily    *dailyServer
	gen      *generator.Client
	limiter  *ipLimiter
	now      func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, sessions store.Store, db *sql.DB) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      cfg,
		sessions: sessions,
		db:       db,
		auth: &auth.Service{
			Users:      auth.NewUsers(db),
			Signer:     auth.NewSigner(cfg.JWTSecret, cfg.JWTExpiresDays),
			CookieName: cfg.CookieName,
			Production: cfg.Production,
		},
		puzzles: puzzles.NewStore(db),
		gen: generator.New(generator.Options{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			URL:     cfg.GeminiURL,
			Timeout: cfg.GeminiTimeout,
		}),
		limiter: newIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		now:     time.Now,
	}
	s.daily = newDailyServer(s)

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "mindmatch-go",
			"endpoints": []string{"/health", "POST /game/new", "POST /game/guess", "/puzzles", "/daily/*", "/auth/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/palette", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"colors": palette.Colors()})
	})

	// Generation may outlast the handler timeout.
	s.r.With(s.auth.Require, s.limiter.Middleware).Post("/daily/generate", s.daily.handleGenerate)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		s.mountGame(r)
		s.mountAuth(r)
		s.mountLibrary(r)
		s.daily.mount(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	go s.limiter.RunSweeper(ctx, time.Minute, limiterIdle)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutdown signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

func accessLog(r *http.Request, status, size int, d time.Duration) {
	ev := hlog.FromRequest(r).Info()
	if status >= 500 {
		ev = hlog.FromRequest(r).Error()
	}
	ev.Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": code} plus an optional human-readable detail.
func writeError(w http.ResponseWriter, status int, code string, detail error) {
	body := map[string]string{"error": code}
	if detail != nil {
		body["message"] = detail.Error()
	}
	writeJSON(w, status, body)
}

// writeDomainError maps engine and store errors to HTTP responses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, puzzles.ErrNotFound), errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, mastermind.ErrSessionOver):
		writeError(w, http.StatusConflict, "game_over", nil)
	case errors.Is(err, mastermind.ErrInvalidGuess):
		writeError(w, http.StatusBadRequest, "invalid_guess", err)
	case errors.Is(err, mastermind.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, "invalid_configuration", err)
	case errors.Is(err, mastermind.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, solver.ErrSpaceTooLarge):
		writeError(w, http.StatusUnprocessableEntity, "space_too_large", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "timeout", nil)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "server_error", nil)
	}
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", nil)
		return false
	}
	return true
}
