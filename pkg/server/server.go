// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kadirpekel/hector-studio/pkg/auth"
	"github.com/kadirpekel/hector-studio/pkg/config"
	"github.com/kadirpekel/hector-studio/pkg/editor"
	"github.com/kadirpekel/hector-studio/pkg/keystore"
	"github.com/kadirpekel/hector-studio/pkg/observability"
	"github.com/kadirpekel/hector-studio/pkg/runtime"
	"github.com/kadirpekel/hector-studio/pkg/store"
	"github.com/kadirpekel/hector-studio/pkg/toolconfig"
)

// Server is the studio HTTP server.
type Server struct {
	config  *config.ServerConfig
	logger  *slog.Logger
	now     func() time.Time
	handler http.Handler
	server  *http.Server

	store     store.Store
	keys      keystore.Store
	catalog   *toolconfig.Catalog
	editors   *editor.Manager
	validator auth.TokenValidator
	obs       *observability.Manager
}

// Option configures the server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock overrides the time source used for new identities.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithTokenValidator replaces the validator built from the auth config.
func WithTokenValidator(v auth.TokenValidator) Option {
	return func(s *Server) { s.validator = v }
}

// New builds a server over the collaborators owned by rt.
func New(rt *runtime.Runtime, opts ...Option) *Server {
	cfg := &rt.Config().Server
	if cfg.Host == "" || cfg.Port == 0 {
		cfg.SetDefaults()
	}

	s := &Server{
		config:    cfg,
		logger:    rt.Logger(),
		now:       time.Now,
		store:     rt.Store(),
		keys:      rt.KeyStore(),
		catalog:   rt.Catalog(),
		editors:   rt.Editors(),
		validator: rt.TokenValidator(),
		obs:       rt.Observability(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the routed handler with every middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// routes wires middleware in the order: request id, recovery,
// observability, logging, cors, auth.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.obs != nil {
		r.Use(observability.HTTPMiddleware(s.obs.Tracer(), s.obs.Metrics()))
	}
	r.Use(s.loggingMiddleware)
	r.Use(s.corsMiddleware)
	if s.validator != nil {
		mw := auth.NewMiddleware(s.validator,
			auth.WithExcludedPaths(s.config.Auth.ExcludedPaths...),
			auth.WithRequireAuth(s.config.Auth.IsRequireAuth()),
		)
		r.Use(mw.Handler)
		s.logger.Info("Authentication enabled", "excluded_paths", s.config.Auth.ExcludedPaths)
	}

	r.Get("/health", s.handleHealth)
	if s.obs != nil && s.obs.Metrics() != nil {
		r.Method(http.MethodGet, s.obs.MetricsPath(), s.obs.Metrics().Handler())
		s.logger.Info("Metrics endpoint enabled", "path", s.obs.MetricsPath())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/schema", s.handleGetSchema)
		r.Post("/validate", s.handleValidate)
		r.Post("/export", s.handleExport)
		r.Post("/import", s.handleImport)

		r.Get("/tools", s.handleListTools)
		r.Post("/tools/{toolID}/resolve", s.handleResolveTool)
		r.Get("/keys", s.handleListKeys)

		r.Route("/agents", s.agentRoutes)
		r.Route("/sessions", s.sessionRoutes)
	})
	return r
}

// Start serves until ctx is cancelled or the listener fails. Idle editing
// sessions are swept while the server runs.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Address(),
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  2 * s.config.WriteTimeout,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.editors.Run(sweepCtx)

	s.logger.Info("HTTP server starting", "address", s.config.Address(), "base_url", s.config.BaseURL)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("HTTP server shutting down")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}
	return nil
}

// Address returns the HTTP listen address.
func (s *Server) Address() string {
	return s.config.Address()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	origins := s.config.CORS.AllowedOrigins
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(origins) == 0 {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin := r.Header.Get("Origin"); origin != "" {
			for _, allowed := range origins {
				if allowed == "*" || allowed == origin {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
					break
				}
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start),
		)
	})
}

// owner identifies the caller for ownership checks. Unauthenticated
// requests share the anonymous owner "".
func (s *Server) owner(r *http.Request) string {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		return ""
	}
	return claims.Owner(s.config.Auth.OwnerClaim)
}
