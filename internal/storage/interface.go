package storage

import (
	"context"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
)

// Storage defines the interface for the shared state store. All writes are
// last-write-wins at the record level; the only stronger guarantees are the
// insert-if-absent constraint on answers and the question claim, which back
// the idempotency mechanisms the coordinator relies on.
type Storage interface {
	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error)
	RoomCodeExists(ctx context.Context, code model.RoomCode) (bool, error)

	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	// ListPlayers returns the room's roster sorted by score descending,
	// ties broken by join order
	ListPlayers(ctx context.Context, roomID model.RoomID) ([]*model.Player, error)
	FindPlayerByName(ctx context.Context, roomID model.RoomID, name string) (*model.Player, error)

	// Room question operations
	SaveRoomQuestion(ctx context.Context, question *model.RoomQuestion) error
	GetRoomQuestion(ctx context.Context, id model.QuestionID) (*model.RoomQuestion, error)
	// GetActiveQuestion returns the room's active question, or
	// model.ErrNoActiveQuestion if none is active
	GetActiveQuestion(ctx context.Context, roomID model.RoomID) (*model.RoomQuestion, error)
	// NextUnshownQuestion returns the earliest-created question with no
	// shown timestamp, or model.ErrNoQuestionsLeft
	NextUnshownQuestion(ctx context.Context, roomID model.RoomID) (*model.RoomQuestion, error)
	// ClaimQuestion atomically marks a question as claimed for activation.
	// Exactly one caller succeeds per question; the rest get false.
	ClaimQuestion(ctx context.Context, id model.QuestionID) (bool, error)

	// Answer operations
	// InsertAnswer inserts if no answer exists for (player, question) and
	// reports whether the insert happened. A false return with nil error is
	// the duplicate no-op case.
	InsertAnswer(ctx context.Context, answer *model.Answer) (bool, error)
	GetAnswer(ctx context.Context, playerID model.PlayerID, questionID model.QuestionID) (*model.Answer, error)
	CountAnswers(ctx context.Context, roomID model.RoomID, questionID model.QuestionID) (int, error)

	// Global question pool operations
	SavePoolQuestions(ctx context.Context, questions []*model.PoolQuestion) error
	// ListRecentPoolQuestions returns up to limit pool questions, newest first
	ListRecentPoolQuestions(ctx context.Context, limit int) ([]*model.PoolQuestion, error)
	GetQuestionUsage(ctx context.Context, hash string) (*model.QuestionUsage, error)
	SaveQuestionUsage(ctx context.Context, usage *model.QuestionUsage) error
}

// Watcher delivers change notifications for a (collection, room) pair.
// Delivery is at-least-once and best-effort: events may be dropped for slow
// consumers, so subscribers also poll.
type Watcher interface {
	// Watch returns a channel of change events and a cancel function that
	// releases the subscription. The channel is closed on cancel.
	Watch(ctx context.Context, collection model.Collection, roomID model.RoomID) (<-chan model.ChangeEvent, func())
}

// Store combines persistence with change notification
type Store interface {
	Storage
	Watcher
}
