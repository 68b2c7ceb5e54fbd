package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/compta"
)

// exerciceParam resolves the annee query param, defaulting to the current year.
func exerciceParam(r *http.Request) (compta.Exercice, bool) {
	raw := r.URL.Query().Get("annee")
	if raw == "" {
		return compta.NewExercice(time.Now().UTC().Year()), true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		return compta.Exercice{}, false
	}
	return compta.NewExercice(year), true
}

// getBilan handles GET /v1/etats/bilan.
func (s *Server) getBilan(w http.ResponseWriter, r *http.Request) {
	ex, ok := exerciceParam(r)
	if !ok {
		badRequest(w, "invalid annee")
		return
	}
	b, err := s.etatsSvc.BalanceSheet(r.Context(), ex)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusOK, s.toBilanResponse(b))
}

// getCompteResultat handles GET /v1/etats/compte-resultat.
func (s *Server) getCompteResultat(w http.ResponseWriter, r *http.Request) {
	ex, ok := exerciceParam(r)
	if !ok {
		badRequest(w, "invalid annee")
		return
	}
	cr, err := s.etatsSvc.IncomeStatement(r.Context(), ex)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusOK, s.toCompteResultatResponse(cr))
}

// getIndicateurs handles GET /v1/etats/indicateurs.
func (s *Server) getIndicateurs(w http.ResponseWriter, r *http.Request) {
	ex, ok := exerciceParam(r)
	if !ok {
		badRequest(w, "invalid annee")
		return
	}
	ind, err := s.etatsSvc.Indicators(r.Context(), ex)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toIndicateursResponse(ind))
}
