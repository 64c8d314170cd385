package model

import "time"

// PlayerID uniquely identifies a player
type PlayerID string

// Player represents a game participant. A player belongs to exactly one
// room for its lifetime; rows are never removed while the room lives.
type Player struct {
	ID     PlayerID
	RoomID RoomID

	// Name is trimmed and unique within a room (case-sensitive)
	Name string

	IsHost bool

	// Score is adjusted by the answer ledger and never drops below zero
	Score int

	LastAnswerTime *time.Time
	JoinedAt       time.Time
}
