package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrRoomNotJoinable = errors.New("room is not accepting players")
	ErrRoomNotWaiting  = errors.New("game has already started")
	ErrRoomFinished    = errors.New("game is already finished")
	ErrRoomNotPlaying  = errors.New("game is not in progress")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrNameTaken      = errors.New("name is already taken in this room")
	ErrNotHost        = errors.New("player is not the host")

	// Question errors
	ErrQuestionNotFound = errors.New("question not found")
	ErrNoActiveQuestion = errors.New("no question is active")
	ErrQuestionInactive = errors.New("question is no longer active")
	ErrNoQuestionsLeft  = errors.New("no unshown questions available")
	ErrQuestionClaimed  = errors.New("question was claimed by another client")
	ErrInvalidOption    = errors.New("selected option is out of range")

	// Answer errors
	ErrAnswerNotFound  = errors.New("answer not found")
	ErrAlreadyAnswered = errors.New("player has already answered this question")
)
