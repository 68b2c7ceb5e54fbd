package httpapi

import (
	"net/http"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/compta"
)

func (s *Server) postEcriture(w http.ResponseWriter, r *http.Request) {
	// Request has already been validated and is present in context
	v := r.Context().Value(ctxKeyPostEcriture)
	e, ok := v.(compta.JournalEntry)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "validated request missing", "")
		return
	}
	saved, err := s.ledgerSvc.PostEntry(r.Context(), e)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toEcritureResponse(saved))
}

// listEcritures handles GET /v1/ecritures with range and tiers filters.
func (s *Server) listEcritures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := compta.EntryFilter{
		AccountMin: q.Get("compte_debut"),
		AccountMax: q.Get("compte_fin"),
		Journal:    compta.JournalCode(q.Get("journal")),
		Tiers:      q.Get("tiers"),
	}
	var err error
	if f.From, err = optionalDate(q, "du"); err != nil {
		badRequest(w, "invalid du")
		return
	}
	if f.To, err = optionalDate(q, "au"); err != nil {
		badRequest(w, "invalid au")
		return
	}
	if f.Journal != "" && !s.cfg.KnownJournal(string(f.Journal)) {
		badRequest(w, "unknown journal")
		return
	}
	includeReconciled := true
	if q.Has("avec_lettrees") {
		includeReconciled = boolParam(q, "avec_lettrees")
	}
	lines, err := s.ledgerSvc.Search(r.Context(), f, includeReconciled)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]searchLigneResponse, 0, len(lines))
	for _, ln := range lines {
		out = append(out, searchLigneResponse{
			ligneResponse: toLigneResponse(ln.EntryLine),
			Journal:       ln.Journal,
			PieceRef:      ln.PieceRef,
		})
	}
	toJSON(w, http.StatusOK, out)
}
