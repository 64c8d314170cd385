package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	roomsvc "github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/room"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/web/sse"
)

// EventsHandler serves the per-room SSE change stream
type EventsHandler struct {
	rooms      roomsvc.ControllerInterface
	hubManager *sse.HubManager
	relay      *sse.Relay
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(rooms roomsvc.ControllerInterface, hubManager *sse.HubManager, relay *sse.Relay) *EventsHandler {
	return &EventsHandler{
		rooms:      rooms,
		hubManager: hubManager,
		relay:      relay,
	}
}

// Stream handles GET /api/v1/rooms/{code}/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	room, err := h.rooms.GetRoomByCode(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.relay.EnsureRunning(room.ID)
	hub := h.hubManager.GetOrCreateHub(room.ID)

	clientID := r.URL.Query().Get("player_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	sse.ServeSSE(w, r, hub, clientID)
}
