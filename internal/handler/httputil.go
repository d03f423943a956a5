// Package handler implements the HTTP API over the store and the dunning
// engine.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/store"
	"github.com/matthewbaird/rentroll/internal/template"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// parseUUID extracts and validates a UUID path parameter.
func parseUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, paramName)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid UUID: "+raw)
		return uuid.Nil, false
	}
	return id, true
}

// Pagination holds parsed pagination parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination extracts page_size and offset from query params.
func parsePagination(r *http.Request) Pagination {
	p := Pagination{Limit: 20, Offset: 0}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.Offset = n
		}
	}
	return p
}

// errorToHTTP maps store and engine errors to HTTP responses. Data and
// template defects are 422 (the request was well-formed but cannot produce a
// valid document), conflicts with ledger state are 409.
func errorToHTTP(w http.ResponseWriter, log *zap.Logger, err error) {
	var (
		invalidCharge *dunning.InvalidChargeError
		settled       *dunning.AlreadySettledError
		premature     *dunning.PrematureEscalationError
		unmapped      *dunning.UnmappedStageError
		missingField  *dunning.MissingFieldError
		unresolved    *template.UnresolvedPlaceholderError
		unknownHelper *template.UnknownHelperError
		parseErr      *template.ParseError
		renderErr     *template.RenderError
	)

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &settled):
		writeError(w, http.StatusConflict, "ALREADY_SETTLED", err.Error())
	case errors.As(err, &premature):
		writeError(w, http.StatusConflict, "PREMATURE_ESCALATION", err.Error())
	case errors.As(err, &invalidCharge):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_CHARGE", err.Error())
	case errors.As(err, &missingField):
		writeError(w, http.StatusUnprocessableEntity, "MISSING_FIELD", err.Error())
	case errors.As(err, &unresolved):
		writeError(w, http.StatusUnprocessableEntity, "UNRESOLVED_PLACEHOLDER", err.Error())
	case errors.As(err, &unknownHelper):
		writeError(w, http.StatusUnprocessableEntity, "UNKNOWN_HELPER", err.Error())
	case errors.As(err, &parseErr):
		writeError(w, http.StatusUnprocessableEntity, "TEMPLATE_SYNTAX", err.Error())
	case errors.As(err, &renderErr):
		writeError(w, http.StatusUnprocessableEntity, "RENDER_ERROR", err.Error())
	case errors.As(err, &unmapped):
		log.Error("stage mapping defect", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "UNMAPPED_STAGE", err.Error())
	default:
		log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
