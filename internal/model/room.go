package model

import "time"

// RoomID uniquely identifies a room
type RoomID string

// RoomCode is the human-shareable code players use to join a room
type RoomCode string

// RoomStatus represents the current phase of a room
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"  // Players joining, game not started
	RoomStatusPlaying  RoomStatus = "playing"  // Questions being asked
	RoomStatusFinished RoomStatus = "finished" // A player reached the win threshold
)

// Room represents a single game session identified by a shareable code
type Room struct {
	ID             RoomID
	Code           RoomCode
	MaxPlayers     int
	CurrentPlayers int
	Status         RoomStatus

	// Question currently being asked. QuestionStartTime is set iff
	// CurrentQuestionID is set; it is the authoritative countdown origin
	// every client derives its timer from.
	CurrentQuestionID *QuestionID
	QuestionStartTime *time.Time

	HostID   *PlayerID
	WinnerID *PlayerID // Set when the room finishes with a winner

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasActiveQuestion returns true if a question is currently being asked
func (r *Room) HasActiveQuestion() bool {
	return r.CurrentQuestionID != nil
}

// IsJoinable returns true if new players may still join
func (r *Room) IsJoinable() bool {
	return r.Status == RoomStatusWaiting && r.CurrentPlayers < r.MaxPlayers
}
