package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/api/request"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/api/response"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	roomsvc "github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/room"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/scoring"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
)

// AnswerHandler handles question and answer endpoints
type AnswerHandler struct {
	rooms   roomsvc.ControllerInterface
	scoring scoring.LedgerInterface
	storage storage.Storage
	clock   clockwork.Clock
}

// NewAnswerHandler creates a new answer handler
func NewAnswerHandler(
	rooms roomsvc.ControllerInterface,
	ledger scoring.LedgerInterface,
	store storage.Storage,
	clk clockwork.Clock,
) *AnswerHandler {
	return &AnswerHandler{
		rooms:   rooms,
		scoring: ledger,
		storage: store,
		clock:   clk,
	}
}

// GetQuestion handles GET /api/v1/rooms/{code}/question
func (h *AnswerHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	room, err := h.rooms.GetRoomByCode(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	question, err := h.storage.GetActiveQuestion(r.Context(), room.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	includeAnswer := false
	if room.QuestionStartTime != nil {
		includeAnswer = h.clock.Now().Sub(*room.QuestionStartTime) >= roomsvc.AnswerWindow
	}
	response.JSON(w, http.StatusOK, response.QuestionFromModel(question, includeAnswer))
}

// SubmitAnswer handles POST /api/v1/rooms/{code}/answers
func (h *AnswerHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}
	if req.QuestionID == "" {
		WriteError(w, NewInvalidRequestError("question_id is required"))
		return
	}

	room, err := h.rooms.GetRoomByCode(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	answer, err := h.scoring.SubmitAnswer(
		r.Context(),
		room.ID,
		model.PlayerID(req.PlayerID),
		model.QuestionID(req.QuestionID),
		req.SelectedAnswer,
	)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AnswerFromModel(answer))
}
