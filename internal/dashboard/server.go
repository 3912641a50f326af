// Package dashboard serves the interactive viewer over the combined_score
// table: sample selection, cutoff filtering, summary plots and a per-peptide
// sequence panel. Every request reads fresh from SQLite.
package dashboard

import (
	"embed"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/omicsflow/quantdash/internal/config"
	"github.com/omicsflow/quantdash/internal/ratelimit"
)

//go:embed assets
var assets embed.FS

// Server holds the dashboard's dependencies.
type Server struct {
	db      *bun.DB
	limiter ratelimit.Limiter
}

// NewServer builds a dashboard server. The rate limiter is only installed
// when enabled in the config.
func NewServer(db *bun.DB, cfg config.Config) *Server {
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerSec, cfg.RateLimit.Burst)
	}
	return &Server{db: db, limiter: limiter}
}

// Router wires the page and API routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if s.limiter != nil {
		api.Use(ratelimit.Middleware(s.limiter))
	}
	api.HandleFunc("/samples", s.handleSamples).Methods(http.MethodGet)
	api.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodGet)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	return r
}

// ListenAndServe blocks serving the dashboard on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	logrus.WithField("addr", addr).Info("dashboard listening")
	return srv.ListenAndServe()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := assets.ReadFile("assets/index.html")
	if err != nil {
		logrus.WithError(err).Error("reading index page failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
