// Package httpapi wires the HTTP surface of the bookkeeping engine.
// It keeps handlers thin, delegating accounting rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/config"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/plan"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/service/ledger"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/service/lettrage"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/service/statements"
)

// Store bundles the persistence interfaces the API needs to build its
// services. Both the in-memory and the Postgres stores satisfy it.
type Store interface {
	ledger.Repo
	ledger.Writer
	lettrage.Writer
}

// Server wires handlers and middleware using Chi.
type Server struct {
	ledgerSvc   ledger.Service
	lettrageSvc lettrage.Service
	etatsSvc    statements.Service
	store       Store
	cfg         config.Config
	reg         *plan.Registry
	log         *slog.Logger
	rt          *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by request/response logging and panic recovery.
func New(store Store, cfg config.Config, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	lsvc := ledger.New(store, store, cfg)
	s := &Server{
		ledgerSvc:   lsvc,
		lettrageSvc: lettrage.New(store, store, cfg.Lettrage),
		etatsSvc:    statements.New(lsvc, cfg),
		store:       store,
		cfg:         cfg,
		reg:         plan.New(cfg),
		log:         logger,
		rt:          r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	// Ecritures
	s.rt.With(s.validatePostEcriture()).Post("/v1/ecritures", s.postEcriture)
	s.rt.Get("/v1/ecritures", s.listEcritures)
	// Comptes
	s.rt.Get("/v1/comptes", s.listComptes)
	s.rt.Get("/v1/comptes/{numero}/grand-livre", s.getGrandLivre)
	s.rt.Get("/v1/comptes/{numero}/solde", s.getSolde)
	s.rt.Get("/v1/balance", s.getBalance)
	// Lettrage
	s.rt.Post("/v1/comptes/{numero}/lettrage", s.postAutoLettrage)
	s.rt.With(s.validatePostGroupe()).Post("/v1/comptes/{numero}/lettrage/groupes", s.postGroupe)
	s.rt.Delete("/v1/comptes/{numero}/lettrage/groupes/{code}", s.deleteGroupe)
	// Etats financiers
	s.rt.Get("/v1/etats/bilan", s.getBilan)
	s.rt.Get("/v1/etats/compte-resultat", s.getCompteResultat)
	s.rt.Get("/v1/etats/indicateurs", s.getIndicateurs)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
