package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"bookshare-backend/internal/api/errmap"
	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeError maps a service error to its HTTP status and stable reason.
func writeError(w http.ResponseWriter, err error) {
	m := errmap.Lookup(err)
	if m.HTTP >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	}
	respondWithError(w, m.HTTP, m.Reason, errmap.Message(err))
}

// decodeBody reads an optional JSON body; an empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed body: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}
