package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, r, status, ErrorResponse{Error: msg})
}

// respondServiceError maps domain errors to status codes. Unexpected
// failures are logged and answered with fallback plus the error text.
func respondServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, fallback string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, r, http.StatusBadRequest, verr.Message)
	case errors.Is(err, domain.ErrDuplicateIdentity):
		respondError(w, r, http.StatusBadRequest, "Username or email already exists")
	case errors.Is(err, domain.ErrUnsupportedFormat):
		respondError(w, r, http.StatusBadRequest, "Unsupported format")
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondError(w, r, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, domain.ErrAuthentication):
		respondError(w, r, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "Not found")
	default:
		log.Error(fallback, sl.Err(err))
		respondError(w, r, http.StatusInternalServerError, fallback+": "+err.Error())
	}
}

func requestLogger(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
