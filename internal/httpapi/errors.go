package httpapi

import (
	"errors"
	"net/http"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func unprocessable(w http.ResponseWriter, msg, code string) {
	writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// mapValidationError normalizes entry validation errors into a code and message.
func mapValidationError(err error) (code, msg string) {
	if err == nil {
		return "", ""
	}
	msg = err.Error()
	switch {
	case errors.Is(err, errs.ErrTooFewLines):
		return "too_few_lines", msg
	case errors.Is(err, errs.ErrInvalidAmount):
		return "invalid_amount", msg
	case errors.Is(err, errs.ErrUnbalancedEntry):
		return "unbalanced_entry", msg
	case errors.Is(err, errs.ErrUnknownJournal):
		return "unknown_journal", msg
	case errors.Is(err, errs.ErrBadAccount):
		return "bad_account", msg
	default:
		return "validation_error", msg
	}
}

// writeDomainError maps service errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.Is(err, errs.ErrUnknownGroup):
		writeErr(w, http.StatusNotFound, err.Error(), "unknown_group")
	case errors.Is(err, errs.ErrConflict):
		writeErr(w, http.StatusConflict, err.Error(), "conflict")
	case errors.Is(err, errs.ErrAlreadyLettered):
		writeErr(w, http.StatusConflict, err.Error(), "already_lettered")
	case errors.Is(err, errs.ErrUnbalancedGroup):
		unprocessable(w, err.Error(), "unbalanced_group")
	case errors.Is(err, errs.ErrInvalid):
		badRequest(w, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, "internal error", "")
	}
}
