package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
)

// postAutoLettrage handles POST /v1/comptes/{numero}/lettrage.
func (s *Server) postAutoLettrage(w http.ResponseWriter, r *http.Request) {
	numero := chi.URLParam(r, "numero")
	res, err := s.lettrageSvc.AutoMatch(r.Context(), numero)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAutoLettrageResponse(res))
}

// postGroupe handles POST /v1/comptes/{numero}/lettrage/groupes.
func (s *Server) postGroupe(w http.ResponseWriter, r *http.Request) {
	numero := chi.URLParam(r, "numero")
	v := r.Context().Value(ctxKeyPostGroupe)
	req, ok := v.(postGroupeRequest)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "validated request missing", "")
		return
	}
	group, err := s.lettrageSvc.Letter(r.Context(), numero, toLineRefs(req.Lignes))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	refs := make([]ligneRefResponse, 0, len(group.Lines))
	for _, ln := range group.Lines {
		refs = append(refs, ligneRefResponse{EcritureID: ln.EntryID, LigneID: ln.LineID})
	}
	toJSON(w, http.StatusCreated, groupeResponse{Code: group.Code, Compte: group.AccountNumber, Lignes: refs})
}

// deleteGroupe handles DELETE /v1/comptes/{numero}/lettrage/groupes/{code}.
func (s *Server) deleteGroupe(w http.ResponseWriter, r *http.Request) {
	numero := chi.URLParam(r, "numero")
	code := chi.URLParam(r, "code")
	if err := s.lettrageSvc.Unletter(r.Context(), numero, code); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
