// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/LuizHUlmi/life-planner-sub000/internal/auth"
	"github.com/LuizHUlmi/life-planner-sub000/internal/importer"
	applog "github.com/LuizHUlmi/life-planner-sub000/internal/log"
	"github.com/LuizHUlmi/life-planner-sub000/internal/middleware/ratelimit"
	"github.com/LuizHUlmi/life-planner-sub000/internal/middleware/security"
	"github.com/LuizHUlmi/life-planner-sub000/internal/middleware/trace"
	"github.com/LuizHUlmi/life-planner-sub000/internal/services"
	"github.com/LuizHUlmi/life-planner-sub000/internal/storage"
)

// defaultUserID is the account every request acts as when authentication is
// not configured. Single-user deployments behind a private network run this
// way.
const defaultUserID = "local"

// Options collects the collaborators the server needs.
type Options struct {
	Addr       string
	Store      storage.LedgerStore
	Ledger     *services.LedgerService
	Reconciler *services.Reconciler
	Importer   *importer.Importer

	// Authenticator enables the login endpoints and session checks on /api.
	// Nil means every request acts as the default local user.
	Authenticator *auth.Authenticator

	Logger *applog.Logger
}

type Server struct {
	http.Server

	store      storage.LedgerStore
	ledger     *services.LedgerService
	reconciler *services.Reconciler
	importer   *importer.Importer
	auth       *auth.Authenticator

	limiter *ratelimit.Limiter
	slog    *applog.StructuredLogger

	shutdownOnce sync.Once
}

// NewServer configures middleware and routes, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}

	s := &Server{
		store:      opts.Store,
		ledger:     opts.Ledger,
		reconciler: opts.Reconciler,
		importer:   opts.Importer,
		auth:       opts.Authenticator,
		limiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		slog:       applog.NewStructuredLogger(logger),
	}

	r := chi.NewRouter()
	r.Use(trace.NewMiddleware(clientIP, s.slog).Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(clientIP, rateLimited))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)

	if s.auth != nil {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
	}

	r.Route("/api", func(r chi.Router) {
		if s.auth != nil {
			r.Use(auth.Middleware(s.auth.Sessions()))
			r.Use(auth.RequireAuth())
		} else {
			r.Use(localUser)
		}

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Delete("/transactions/{id}", s.handleDeleteTransaction)

		r.Get("/obligations", s.handleListObligations)
		r.Post("/obligations", s.handleCreateObligation)
		r.Delete("/obligations/{id}", s.handleDeleteObligation)

		r.Post("/reconcile", s.handleReconcile)
		r.Get("/summary", s.handleSummary)
		r.Post("/import", s.handleImport)
	})

	s.Server = http.Server{
		Addr:    opts.Addr,
		Handler: r,
	}

	return s
}

// localUser stamps the fixed single-user identity onto every request when
// authentication is disabled.
func localUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), auth.UserIDKey, defaultUserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the listener and the rate limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
