package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"mondesavoir/service"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to write JSON response")
	}
}

// writeError maps service errors to status codes. Unexpected errors are
// logged and reported with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	var notFoundErr *service.NotFoundError
	var authErr *service.AuthError

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFoundErr.Error()})
	case errors.As(err, &authErr):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: authErr.Error()})
	default:
		log.WithError(err).WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"requestID": middleware.GetReqID(r.Context()),
		}).Error("Request failed with internal error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
