package handler

// Response helpers keep the JSON shapes in one place:
//
//	401 {}
//	400 {"_errors":[],"title":{"_errors":["Title is required."]}}   schema failure
//	400 {"error":"Invalid user."}                                    bad reference
//	404 {"error":"Invalid issue"}
//	500 {"error":"An internal error occurred"}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/issue-tracker/internal/apperror"
)

// ErrorResponse is the flat error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends data with the given status. Headers must be set before
// WriteHeader; anything set afterwards is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, struct{}{})
}

// writeError maps a service error to its status code and body. Unknown
// errors become a generic 500 and are logged, never echoed.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrUnauthorized):
			writeUnauthorized(w)
			return
		case errors.Is(err, apperror.ErrValidation):
			if !appErr.Details.Empty() {
				writeJSON(w, http.StatusBadRequest, appErr.Details.Map())
				return
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: appErr.Message})
			return
		case errors.Is(err, apperror.ErrNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: appErr.Message})
			return
		}
	}

	logger.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "An internal error occurred"})
}
