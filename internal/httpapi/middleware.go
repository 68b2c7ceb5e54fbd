package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"log/slog"
)

type ctxKey string

const ctxKeyPostEcriture ctxKey = "validatedPostEcriture"
const ctxKeyPostGroupe ctxKey = "validatedPostGroupe"

// requestLogger logs basic request info at INFO and panics at ERROR.
func requestLogger(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqID := chimw.GetReqID(r.Context())
			l.Info("request started", "req_id", reqID, "method", r.Method, "path", r.URL.Path)

			next.ServeHTTP(ww, r)

			l.Info("request complete",
				"req_id", reqID,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		})
	}
}

// recoverer logs panics as ERROR and returns 500.
func recoverer(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					reqID := chimw.GetReqID(r.Context())
					l.Error("panic", "req_id", reqID, "err", rec, "stack", string(debug.Stack()))
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// validatePostEcriture decodes the POST /v1/ecritures body, runs the domain
// validation and stores the entry in the request context for the handler.
func (s *Server) validatePostEcriture() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postEcritureRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			e := s.toEntryDomain(req)
			if err := s.ledgerSvc.ValidateEntry(r.Context(), e); err != nil {
				code, msg := mapValidationError(err)
				unprocessable(w, msg, code)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostEcriture, e)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostGroupe decodes the manual lettrage body.
func (s *Server) validatePostGroupe() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postGroupeRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if len(req.Lignes) < 2 {
				unprocessable(w, "a lettrage group needs at least two lines", "too_few_lines")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostGroupe, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
