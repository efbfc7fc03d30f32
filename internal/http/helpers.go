package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"saldo/internal/core"
)

const maxBodySize = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondDomainError translates the ledger's error taxonomy to HTTP.
// Validation and dangling-reference problems are 422, missing entities
// 404, blocked deletes 409, everything else 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr  *core.ValidationError
		notFoundErr    *core.NotFoundError
		referenceErr   *core.ReferenceError
		referentialErr *core.ReferentialIntegrityError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &referenceErr):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &notFoundErr):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &referentialErr):
		respondError(w, http.StatusConflict, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Unhandled error", "error", err, "url", r.URL.Path)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a JSON request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
