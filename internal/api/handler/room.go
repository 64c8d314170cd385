package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/api/request"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/api/response"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/client"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	roomsvc "github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/room"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
)

// RoomHandler handles room lifecycle endpoints. Every player that enters a
// room through these endpoints gets a server-side session launched for them,
// which carries the player's cooperative duties (timeout penalties, host
// advancement) between HTTP requests.
type RoomHandler struct {
	rooms    roomsvc.ControllerInterface
	storage  storage.Storage
	clock    clockwork.Clock
	sessions *client.Manager
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms roomsvc.ControllerInterface, store storage.Storage, clk clockwork.Clock, sessions *client.Manager) *RoomHandler {
	return &RoomHandler{
		rooms:    rooms,
		storage:  store,
		clock:    clk,
		sessions: sessions,
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.HostName == "" {
		WriteError(w, NewInvalidRequestError("host_name is required"))
		return
	}

	room, host, err := h.rooms.CreateRoom(r.Context(), req.HostName, req.MaxPlayers)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.sessions.Launch(room.ID, host.Name)

	response.JSON(w, http.StatusCreated, response.JoinResponse{
		Room:   response.RoomFromModel(room),
		Player: response.PlayerFromModel(host),
	})
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	room, err := h.rooms.GetRoomByCode(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	players, err := h.storage.ListPlayers(r.Context(), room.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.RoomStateResponse{
		Room:    response.RoomFromModel(room),
		Players: response.PlayersFromModel(players),
	}

	question, err := h.storage.GetActiveQuestion(r.Context(), room.ID)
	if err == nil {
		q := response.QuestionFromModel(question, h.windowElapsed(room))
		resp.Question = &q
	} else if !errors.Is(err, model.ErrNoActiveQuestion) {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

// Join handles POST /api/v1/rooms/{code}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}

	room, player, err := h.rooms.JoinRoom(r.Context(), code, req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.sessions.Launch(room.ID, player.Name)

	response.JSON(w, http.StatusOK, response.JoinResponse{
		Room:   response.RoomFromModel(room),
		Player: response.PlayerFromModel(player),
	})
}

// Roster handles GET /api/v1/rooms/{code}/players
func (h *RoomHandler) Roster(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	room, err := h.rooms.GetRoomByCode(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	players, err := h.storage.ListPlayers(r.Context(), room.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayersFromModel(players))
}

// Start handles POST /api/v1/rooms/{code}/start
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.StartGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}

	room, err := h.rooms.GetRoomByCode(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.rooms.StartGame(r.Context(), room.ID, model.PlayerID(req.PlayerID)); err != nil {
		WriteError(w, err)
		return
	}

	room, err = h.rooms.GetRoom(r.Context(), room.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Advance handles POST /api/v1/rooms/{code}/advance. Like Start, the
// request must carry the host's player_id; guests cannot force the room
// forward.
func (h *RoomHandler) Advance(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}

	room, err := h.rooms.GetRoomByCode(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.rooms.AdvanceQuestion(r.Context(), room.ID, model.PlayerID(req.PlayerID)); err != nil {
		WriteError(w, err)
		return
	}

	room, err = h.rooms.GetRoom(r.Context(), room.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// windowElapsed reports whether the room's answer window has passed, which
// is when the correct option may be revealed
func (h *RoomHandler) windowElapsed(room *model.Room) bool {
	if room.QuestionStartTime == nil {
		return false
	}
	return h.clock.Now().Sub(*room.QuestionStartTime) >= roomsvc.AnswerWindow
}
