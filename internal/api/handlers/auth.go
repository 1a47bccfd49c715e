package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dom/study-buddy/internal/api/middleware"
	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/dom/study-buddy/internal/service"
	"github.com/go-chi/render"
)

type AuthHandler struct {
	authService *service.AuthService
	log         *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: sl.OrDiscard(log)}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type UserResponse struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	SessionToken string `json:"session_token,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.auth.Register")

	var req RegisterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("failed to decode request body", sl.Err(err))
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(w, r, log, err, "Registration failed")
		return
	}

	respondJSON(w, r, http.StatusCreated, RegisterResponse{
		Message: "User registered successfully!",
		UserID:  user.ID.String(),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.auth.Login")

	var req LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("failed to decode request body", sl.Err(err))
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(w, r, log, err, "Login failed")
		return
	}

	log.Info("login success", slog.String("user_id", result.User.ID.String()))
	respondJSON(w, r, http.StatusOK, LoginResponse{
		Message: "Login successful!",
		User: UserResponse{
			UserID:       result.User.ID.String(),
			Username:     result.User.Username,
			Email:        result.User.Email,
			SessionToken: result.Token,
		},
	})
}

// Logout revokes the presented token. Missing or unknown tokens still
// succeed.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.auth.Logout")

	if err := h.authService.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
		respondServiceError(w, r, log, err, "Logout failed")
		return
	}

	respondJSON(w, r, http.StatusOK, MessageResponse{Message: "Logout successful!"})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.auth.Profile")

	userID := middleware.GetUserID(r.Context())
	if userID == nil {
		respondError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	identity, err := h.authService.Profile(r.Context(), *userID)
	if err != nil {
		respondServiceError(w, r, log, err, "Failed to load profile")
		return
	}

	respondJSON(w, r, http.StatusOK, UserResponse{
		UserID:   identity.UserID.String(),
		Username: identity.Username,
		Email:    identity.Email,
	})
}
