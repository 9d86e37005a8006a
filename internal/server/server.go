// Package server exposes the storefront API and the admin panel over one
// chi router. Admin routes sit behind basic auth; storefront routes are
// public and rate limited.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/acchub/acchub/internal/service"
)

type Deps struct {
	Catalog    *service.CatalogService
	Generation *service.GenerationService
	Promos     *service.PromoService
	Accounts   *service.AccountService
	Profiles   *service.ProfileService
	Stats      *service.StatsService
	Backups    *service.BackupService
	History    service.HistoryStore
	Activity   service.ActivityStore
	Settings   service.SettingsStore
	APIKeys    service.APIKeyStore
}

type Server struct {
	addr     string
	username string
	password string
	log      *slog.Logger
	deps     Deps
	limiter  *rateLimiter
	router   *chi.Mux
}

func NewServer(addr, username, password string, log *slog.Logger, deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:     addr,
		username: username,
		password: password,
		log:      log,
		deps:     deps,
		limiter:  newRateLimiter(),
		router:   r,
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", s.handleListCategories)
		r.Post("/generate", s.handleGenerate)
		r.Post("/redeem", s.handleRedeem)
		r.Get("/profile/{user_id}", s.handleGetProfile)
		r.Get("/stats", s.handleStats)
	})

	r.Group(func(protected chi.Router) {
		protected.Use(s.basicAuthMiddleware())
		protected.Route("/admin", func(r chi.Router) {
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", s.handleAdminListCategories)
				r.Post("/", s.handleAdminCreateCategory)
				r.Put("/{id}", s.handleAdminUpdateCategory)
				r.Delete("/{id}", s.handleAdminDeleteCategory)
			})
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", s.handleAdminListAccounts)
				r.Post("/", s.handleAdminCreateAccount)
				r.Put("/{id}", s.handleAdminUpdateAccount)
				r.Post("/delete", s.handleAdminDeleteAccounts)
				r.Post("/mark-used", s.handleAdminMarkUsed)
				r.Post("/bulk-import", s.handleAdminBulkImport)
				r.Post("/batch-generate", s.handleAdminBatchGenerate)
				r.Post("/{id}/validate", s.handleAdminValidateAccount)
				r.Put("/{id}/validation", s.handleAdminSetValidation)
			})
			r.Route("/promo-codes", func(r chi.Router) {
				r.Get("/", s.handleAdminListPromos)
				r.Post("/", s.handleAdminCreatePromo)
				r.Put("/{id}", s.handleAdminUpdatePromo)
				r.Delete("/{id}", s.handleAdminDeletePromo)
			})
			r.Get("/history", s.handleAdminHistory)
			r.Get("/activity", s.handleAdminActivity)
			r.Get("/settings", s.handleAdminGetSettings)
			r.Put("/settings", s.handleAdminSaveSettings)
			r.Route("/api-keys", func(r chi.Router) {
				r.Get("/", s.handleAdminListAPIKeys)
				r.Post("/", s.handleAdminCreateAPIKey)
				r.Delete("/{id}", s.handleAdminDeleteAPIKey)
			})
			r.Get("/export/categories.csv", s.handleExportCategories)
			r.Get("/export/accounts.csv", s.handleExportAccounts)
			r.Get("/export/history.csv", s.handleExportHistory)
			r.Get("/export/report", s.handleExportReport)
			r.Post("/import/categories", s.handleImportCategories)
			r.Post("/import/accounts", s.handleImportAccounts)
			r.Get("/backup", s.handleCreateBackup)
			r.Post("/backup/restore", s.handleRestoreBackup)
			r.Post("/backup/s3", s.handleBackupToS3)
		})
	})

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("server shutdown error", "err", err)
		}
	}()

	s.log.Info("server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.username || pass != s.password {
				w.Header().Set("WWW-Authenticate", `Basic realm="acchub"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("handler error", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func parseID(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
