package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/dom/study-buddy/internal/service"
)

type SystemHandler struct {
	systemService *service.SystemService
	endpoints     []string
	log           *slog.Logger
}

// NewSystemHandler builds the diagnostic handler. endpoints is the route
// list reported by Debug.
func NewSystemHandler(systemService *service.SystemService, endpoints []string, log *slog.Logger) *SystemHandler {
	return &SystemHandler{systemService: systemService, endpoints: endpoints, log: sl.OrDiscard(log)}
}

type DebugResponse struct {
	AppName            string    `json:"app_name"`
	Status             string    `json:"status"`
	Timestamp          time.Time `json:"timestamp"`
	UsersCount         int64     `json:"users_count"`
	SessionsCount      int64     `json:"sessions_count"`
	FlashcardsCount    int64     `json:"flashcards_count"`
	StudySessionsCount int64     `json:"study_sessions_count"`
	CORSEnabled        bool      `json:"cors_enabled"`
	Endpoints          []string  `json:"endpoints"`
	Error              string    `json:"error,omitempty"`
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.systemService.Health())
}

func (h *SystemHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.systemService.Status(r.Context()))
}

func (h *SystemHandler) Debug(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.system.Debug")

	resp := DebugResponse{
		AppName:     "Study Buddy",
		Status:      "running",
		Timestamp:   time.Now().UTC(),
		CORSEnabled: true,
		Endpoints:   h.endpoints,
	}

	stats, err := h.systemService.Stats(r.Context())
	if err != nil {
		log.Warn("failed to collect stats", sl.Err(err))
		resp.Status = "degraded"
		resp.Error = "storage unavailable"
	} else {
		resp.UsersCount = stats.Users
		resp.SessionsCount = stats.Sessions
		resp.FlashcardsCount = stats.Flashcards
		resp.StudySessionsCount = stats.StudySessions
	}

	respondJSON(w, r, http.StatusOK, resp)
}
