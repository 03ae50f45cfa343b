package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-signals-bot/internal/config"
	"telegram-signals-bot/internal/domain/ports/repository"
	"telegram-signals-bot/internal/usecase"
)

// Server exposes the operator API. Every mutating route goes through the
// admin use case with the configured primary admin as caller, so the same
// authorization and audit path covers the bot and the HTTP surface.
type Server struct {
	admin   usecase.AdminUseCase
	users   repository.UserStore
	auth    *AuthManager
	apiKey  string
	adminID int64
	log     *zerolog.Logger
}

func NewServer(
	cfg *config.WebConfig,
	adminID int64,
	admin usecase.AdminUseCase,
	users repository.UserStore,
	logger *zerolog.Logger,
) *Server {
	wlog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		admin:   admin,
		users:   users,
		auth:    NewAuthManager(cfg.JWTSecret, false, cfg.SessionTTL),
		apiKey:  cfg.APIKey,
		adminID: adminID,
		log:     &wlog,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/logout", s.handleLogout)
			r.Get("/stats", s.handleStats)
			r.Get("/users", s.handleUsersList)
			r.Get("/users/{tgID}", s.handleUserGet)
			r.Post("/broadcast", s.handleBroadcast)
			r.Post("/signal", s.handleSignal)
			r.Get("/export.csv", s.handleExport)
		})
	})

	return r
}

// requireSession admits either a minted JWT session or the raw API key as a
// bearer token, so scripted clients can skip the login round trip.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && bearerToken(r) == s.apiKey {
			next.ServeHTTP(w, r)
			return
		}
		if _, err := s.auth.Verify(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(hdr) > len(prefix) && hdr[:len(prefix)] == prefix {
		return hdr[len(prefix):]
	}
	return ""
}

// ListenAndServe blocks until the server fails or shuts down.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("operator API listening")
	return srv.ListenAndServe()
}
