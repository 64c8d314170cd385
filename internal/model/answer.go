package model

import "time"

// AnswerID uniquely identifies an answer record
type AnswerID string

// Answer is a player's response to one room question. At most one answer
// exists per (player, question) pair; inserts use ignore-if-duplicate
// semantics so double submission is safe. Immutable after creation.
type Answer struct {
	ID         AnswerID
	RoomID     RoomID
	PlayerID   PlayerID
	QuestionID QuestionID

	// SelectedAnswer is nil for a timeout (no answer given)
	SelectedAnswer *int

	IsCorrect    bool
	PointsEarned int
	AnsweredAt   time.Time
}

// IsTimeout returns true if this answer was synthesized by the timeout handler
func (a *Answer) IsTimeout() bool {
	return a.SelectedAnswer == nil
}
