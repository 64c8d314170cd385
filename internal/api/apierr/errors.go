package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidOption    = "INVALID_OPTION"
	CodeRoomNotFound     = "ROOM_NOT_FOUND"
	CodeRoomFull         = "ROOM_FULL"
	CodeRoomNotWaiting   = "ROOM_NOT_WAITING"
	CodeRoomNotPlaying   = "ROOM_NOT_PLAYING"
	CodeRoomFinished     = "ROOM_FINISHED"
	CodePlayerNotFound   = "PLAYER_NOT_FOUND"
	CodeNameTaken        = "NAME_TAKEN"
	CodeNotHost          = "NOT_HOST"
	CodeQuestionNotFound = "QUESTION_NOT_FOUND"
	CodeNoActiveQuestion = "NO_ACTIVE_QUESTION"
	CodeQuestionInactive = "QUESTION_INACTIVE"
	CodeNoQuestionsLeft  = "NO_QUESTIONS_LEFT"
	CodeAlreadyAnswered  = "ALREADY_ANSWERED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrRoomFull):
		return &httpError{http.StatusConflict, APIError{CodeRoomFull, "Room is full"}}
	case errors.Is(err, model.ErrRoomNotJoinable):
		return &httpError{http.StatusConflict, APIError{CodeRoomNotWaiting, "Room cannot be joined"}}
	case errors.Is(err, model.ErrRoomNotWaiting):
		return &httpError{http.StatusConflict, APIError{CodeRoomNotWaiting, "Room has already started"}}
	case errors.Is(err, model.ErrRoomNotPlaying):
		return &httpError{http.StatusConflict, APIError{CodeRoomNotPlaying, "Room is not in play"}}
	case errors.Is(err, model.ErrRoomFinished):
		return &httpError{http.StatusConflict, APIError{CodeRoomFinished, "Room has finished"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrNameTaken):
		return &httpError{http.StatusConflict, APIError{CodeNameTaken, "Name is already taken in this room"}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}}
	case errors.Is(err, model.ErrQuestionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeQuestionNotFound, "Question not found"}}
	case errors.Is(err, model.ErrNoActiveQuestion):
		return &httpError{http.StatusNotFound, APIError{CodeNoActiveQuestion, "No question is active"}}
	case errors.Is(err, model.ErrQuestionInactive):
		return &httpError{http.StatusConflict, APIError{CodeQuestionInactive, "Question is no longer accepting answers"}}
	case errors.Is(err, model.ErrNoQuestionsLeft):
		return &httpError{http.StatusConflict, APIError{CodeNoQuestionsLeft, "No questions available"}}
	case errors.Is(err, model.ErrInvalidOption):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidOption, "Selected option is out of range"}}
	case errors.Is(err, model.ErrAlreadyAnswered):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyAnswered, "Already answered this question"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
