package model

import "time"

// Collection identifies an entity collection for change notifications
type Collection string

const (
	CollectionRooms     Collection = "rooms"
	CollectionPlayers   Collection = "players"
	CollectionQuestions Collection = "room_questions"
	CollectionAnswers   Collection = "player_answers"
)

// ChangeType identifies what happened to a record
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// ChangeEvent is a best-effort, at-least-once notification that a record
// in a collection changed. Consumers must not assume delivery; periodic
// polling is the self-healing backstop.
type ChangeEvent struct {
	Collection Collection `json:"collection"`
	Type       ChangeType `json:"type"`
	RoomID     RoomID     `json:"room_id"`
	RecordID   string     `json:"record_id"`
	Timestamp  time.Time  `json:"timestamp"`
}
