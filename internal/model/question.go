package model

import "time"

// QuestionID uniquely identifies a question instance scoped to one room
type QuestionID string

// OptionCount is the fixed number of answer options per question
const OptionCount = 4

// RoomQuestion is a question instance scoped to one room, distinct from
// the reusable global pool. Activated once, never reactivated.
type RoomQuestion struct {
	ID     QuestionID
	RoomID RoomID

	Text          string
	Options       []string // Always OptionCount entries
	CorrectAnswer int      // Index into Options

	// Order is the sequence number within the generation batch
	Order int

	// IsActive marks the question currently being asked. Within a room at
	// most one question is active at any instant (best-effort).
	IsActive bool

	// ShownAt is nil until the question is activated for the first time
	ShownAt *time.Time

	CreatedAt time.Time
}

// PoolQuestionID uniquely identifies a question in the global reusable pool
type PoolQuestionID string

// PoolQuestion is reusable global question content, consumed by the
// question supply when seeding rooms
type PoolQuestion struct {
	ID            PoolQuestionID
	Text          string
	Options       []string
	CorrectAnswer int
	Category      string
	CreatedAt     time.Time
}

// QuestionUsage is the global deduplication ledger entry for one question,
// keyed by a hash of its normalized text
type QuestionUsage struct {
	Hash       string
	Text       string
	UsageCount int
	LastUsedAt time.Time
}
