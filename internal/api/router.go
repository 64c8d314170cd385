package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/api/handler"
	apimiddleware "github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/api/middleware"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/client"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/middleware"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/room"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/scoring"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/web/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	RoomController room.ControllerInterface
	ScoringLedger  scoring.LedgerInterface
	Store          storage.Store
	Clock          clockwork.Clock
	HubManager     *sse.HubManager
	Relay          *sse.Relay
	Sessions       *client.Manager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	roomHandler := handler.NewRoomHandler(cfg.RoomController, cfg.Store, cfg.Clock, cfg.Sessions)
	answerHandler := handler.NewAnswerHandler(cfg.RoomController, cfg.ScoringLedger, cfg.Store, cfg.Clock)
	eventsHandler := handler.NewEventsHandler(cfg.RoomController, cfg.HubManager, cfg.Relay)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Room routes
	api.HandleFunc("/rooms", roomHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{code}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{code}/join", roomHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{code}/players", roomHandler.Roster).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{code}/start", roomHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{code}/advance", roomHandler.Advance).Methods(http.MethodPost)

	// Question and answer routes
	api.HandleFunc("/rooms/{code}/question", answerHandler.GetQuestion).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{code}/answers", answerHandler.SubmitAnswer).Methods(http.MethodPost)

	// Change notification stream
	api.HandleFunc("/rooms/{code}/events", eventsHandler.Stream).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
