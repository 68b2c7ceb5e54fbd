package httpapi

import (
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/service/ledger"
)

// listComptes handles GET /v1/comptes.
func (s *Server) listComptes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	classMin, classMax := 1, 9
	var err error
	if raw := q.Get("classe_debut"); raw != "" {
		if classMin, err = strconv.Atoi(raw); err != nil {
			badRequest(w, "invalid classe_debut")
			return
		}
	}
	if raw := q.Get("classe_fin"); raw != "" {
		if classMax, err = strconv.Atoi(raw); err != nil {
			badRequest(w, "invalid classe_fin")
			return
		}
	}
	accounts, err := s.store.ListAccounts(r.Context(), classMin, classMax, boolParam(q, "avec_mouvements"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]compteResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, s.toCompteResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

// getGrandLivre handles GET /v1/comptes/{numero}/grand-livre.
func (s *Server) getGrandLivre(w http.ResponseWriter, r *http.Request) {
	numero := chi.URLParam(r, "numero")
	q := r.URL.Query()
	lq := ledger.Query{Account: numero, IncludeReconciled: true}
	var err error
	if lq.From, err = optionalDate(q, "du"); err != nil {
		badRequest(w, "invalid du")
		return
	}
	if lq.To, err = optionalDate(q, "au"); err != nil {
		badRequest(w, "invalid au")
		return
	}
	if q.Has("avec_lettrees") {
		lq.IncludeReconciled = boolParam(q, "avec_lettrees")
	}
	if raw := q.Get("solde_initial_minor"); raw != "" {
		lq.OpeningMinor, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(w, "invalid solde_initial_minor")
			return
		}
	}
	rec, err := s.ledgerSvc.Ledger(r.Context(), lq)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusOK, s.toGrandLivreResponse(rec))
}

// getSolde handles GET /v1/comptes/{numero}/solde.
func (s *Server) getSolde(w http.ResponseWriter, r *http.Request) {
	numero := chi.URLParam(r, "numero")
	au := time.Now().UTC()
	if raw := r.URL.Query().Get("au"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			badRequest(w, "invalid au")
			return
		}
		au = t
	}
	solde, err := s.ledgerSvc.BalanceAsOf(r.Context(), numero, au)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusOK, soldeResponse{Compte: numero, Au: au, SoldeMinor: solde})
}

// getBalance handles GET /v1/balance.
func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tq := ledger.TrialBalanceQuery{
		ClasseDebut:    q.Get("classe_debut"),
		ClasseFin:      q.Get("classe_fin"),
		AvecMouvements: boolParam(q, "avec_mouvements"),
	}
	var err error
	if tq.From, err = optionalDate(q, "du"); err != nil {
		badRequest(w, "invalid du")
		return
	}
	if tq.AsOf, err = optionalDate(q, "au"); err != nil {
		badRequest(w, "invalid au")
		return
	}
	tb, err := s.ledgerSvc.TrialBalance(r.Context(), tq)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusOK, s.toBalanceResponse(tb))
}
