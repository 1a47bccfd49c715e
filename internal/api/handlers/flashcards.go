package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dom/study-buddy/internal/api/middleware"
	"github.com/dom/study-buddy/internal/domain"
	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/dom/study-buddy/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

const storageWarning = "Storage is unavailable; results may be incomplete"

type FlashcardHandler struct {
	flashcardService *service.FlashcardService
	log              *slog.Logger
}

func NewFlashcardHandler(flashcardService *service.FlashcardService, log *slog.Logger) *FlashcardHandler {
	return &FlashcardHandler{flashcardService: flashcardService, log: sl.OrDiscard(log)}
}

type GenerateRequest struct {
	Notes    string `json:"notes"`
	Subject  string `json:"subject"`
	NumCards int    `json:"num_cards"`
}

type GenerateResponse struct {
	Flashcards []domain.Card `json:"flashcards"`
	CardIDs    []string      `json:"card_ids"`
	Source     string        `json:"source"`
	Message    string        `json:"message"`
	Warning    string        `json:"warning,omitempty"`
}

type FlashcardsResponse struct {
	Flashcards []*domain.Flashcard `json:"flashcards"`
	Warning    string              `json:"warning,omitempty"`
}

type SaveSessionRequest struct {
	SessionName  string   `json:"session_name"`
	FlashcardIDs []string `json:"flashcard_ids"`
}

type SaveSessionResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type StudySessionsResponse struct {
	StudySessions []*domain.StudySession `json:"study_sessions"`
	Warning       string                 `json:"warning,omitempty"`
}

func (h *FlashcardHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.flashcards.Generate")

	var req GenerateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("failed to decode request body", sl.Err(err))
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.flashcardService.GenerateAndSave(r.Context(), service.GenerateInput{
		Notes:    req.Notes,
		Subject:  req.Subject,
		NumCards: req.NumCards,
		Owner:    middleware.GetUserID(r.Context()),
	})
	if err != nil {
		respondServiceError(w, r, log, err, "Failed to generate flashcards")
		return
	}

	resp := GenerateResponse{
		Flashcards: result.Cards,
		CardIDs:    result.IDs,
		Source:     result.Source,
		Message:    fmt.Sprintf("Successfully generated %d flashcards!", len(result.Cards)),
	}
	if !result.Saved && len(result.Cards) > 0 {
		resp.Warning = "Flashcards were generated but could not be saved"
	}

	log.Info("flashcards generated",
		slog.Int("count", len(result.Cards)),
		slog.String("source", result.Source),
		slog.Bool("saved", result.Saved),
	)
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *FlashcardHandler) List(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.flashcards.List")

	page, err := h.flashcardService.ListFlashcards(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, log, err, "Failed to load flashcards")
		return
	}

	respondJSON(w, r, http.StatusOK, flashcardsResponse(page))
}

func (h *FlashcardHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.flashcards.SaveSession")

	var req SaveSessionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("failed to decode request body", sl.Err(err))
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.flashcardService.SaveStudySession(r.Context(), service.SaveStudySessionInput{
		Name:         req.SessionName,
		FlashcardIDs: req.FlashcardIDs,
		Owner:        middleware.GetUserID(r.Context()),
	})
	if err != nil {
		respondServiceError(w, r, log, err, "Failed to save session")
		return
	}

	respondJSON(w, r, http.StatusOK, SaveSessionResponse{
		SessionID: id,
		Message:   "Session saved successfully!",
	})
}

func (h *FlashcardHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.flashcards.ListSessions")

	page, err := h.flashcardService.ListStudySessions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, log, err, "Failed to load study sessions")
		return
	}

	resp := StudySessionsResponse{StudySessions: page.StudySessions}
	if page.Degraded {
		resp.Warning = storageWarning
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *FlashcardHandler) Export(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.flashcards.Export")

	format := chi.URLParam(r, "format")
	page, err := h.flashcardService.Export(r.Context(), format, middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, log, err, "Export failed")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="flashcards.json"`)
	respondJSON(w, r, http.StatusOK, flashcardsResponse(page))
}

func flashcardsResponse(page *service.FlashcardPage) FlashcardsResponse {
	resp := FlashcardsResponse{Flashcards: page.Flashcards}
	if page.Degraded {
		resp.Warning = storageWarning
	}
	return resp
}
