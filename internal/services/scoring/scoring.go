package scoring

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/room"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
)

const (
	// PointsCorrect is awarded for a correct answer
	PointsCorrect = 2
	// PointsIncorrect is the penalty for a wrong answer or a timeout
	PointsIncorrect = -1
)

// Ledger records answers and applies score deltas. Per-question idempotency
// comes from the store's insert-if-absent constraint on (player, question):
// only the caller whose insert lands applies the delta, so retries and
// duplicate submissions from racing clients cannot double-score.
type Ledger struct {
	storage storage.Storage
	rooms   room.ControllerInterface
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewLedger creates a new scoring Ledger
func NewLedger(
	store storage.Storage,
	rooms room.ControllerInterface,
	clk clockwork.Clock,
	logger *slog.Logger,
) *Ledger {
	return &Ledger{
		storage: store,
		rooms:   rooms,
		clock:   clk,
		logger:  logger,
	}
}

// SubmitAnswer records a player's option selection for a question and
// applies the score delta. Duplicate submissions for the same question are
// no-ops. A correct answer that reaches the win threshold finishes the room.
func (l *Ledger) SubmitAnswer(
	ctx context.Context,
	roomID model.RoomID,
	playerID model.PlayerID,
	questionID model.QuestionID,
	selected int,
) (*model.Answer, error) {
	if selected < 0 || selected >= model.OptionCount {
		return nil, model.ErrInvalidOption
	}

	question, err := l.storage.GetRoomQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.RoomID != roomID {
		return nil, model.ErrQuestionNotFound
	}
	if !question.IsActive {
		return nil, model.ErrQuestionInactive
	}

	correct := selected == question.CorrectAnswer
	points := PointsIncorrect
	if correct {
		points = PointsCorrect
	}

	answer := &model.Answer{
		ID:             model.AnswerID(uuid.NewString()),
		RoomID:         roomID,
		PlayerID:       playerID,
		QuestionID:     questionID,
		SelectedAnswer: &selected,
		IsCorrect:      correct,
		PointsEarned:   points,
		AnsweredAt:     l.clock.Now(),
	}
	return l.record(ctx, answer)
}

// RecordTimeout records a no-answer penalty for a player whose answer
// window elapsed. Harmless if the player answered in the meantime: the
// insert is skipped and no score changes.
func (l *Ledger) RecordTimeout(
	ctx context.Context,
	roomID model.RoomID,
	playerID model.PlayerID,
	questionID model.QuestionID,
) (*model.Answer, error) {
	if _, err := l.storage.GetAnswer(ctx, playerID, questionID); err == nil {
		return nil, model.ErrAlreadyAnswered
	} else if !errors.Is(err, model.ErrAnswerNotFound) {
		return nil, err
	}

	answer := &model.Answer{
		ID:           model.AnswerID(uuid.NewString()),
		RoomID:       roomID,
		PlayerID:     playerID,
		QuestionID:   questionID,
		IsCorrect:    false,
		PointsEarned: PointsIncorrect,
		AnsweredAt:   l.clock.Now(),
	}
	return l.record(ctx, answer)
}

// record inserts the answer and, when the insert lands, applies the score
// delta and checks the win condition.
func (l *Ledger) record(ctx context.Context, answer *model.Answer) (*model.Answer, error) {
	inserted, err := l.storage.InsertAnswer(ctx, answer)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, model.ErrAlreadyAnswered
	}

	player, err := l.storage.GetPlayer(ctx, answer.PlayerID)
	if err != nil {
		return nil, err
	}

	player.Score += answer.PointsEarned
	if player.Score < 0 {
		player.Score = 0
	}
	answeredAt := answer.AnsweredAt
	player.LastAnswerTime = &answeredAt
	if err := l.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	l.logger.Info("answer recorded",
		slog.String("room_id", string(answer.RoomID)),
		slog.String("player_id", string(answer.PlayerID)),
		slog.String("question_id", string(answer.QuestionID)),
		slog.Bool("correct", answer.IsCorrect),
		slog.Int("score", player.Score),
	)

	if player.Score >= room.WinThreshold {
		if err := l.rooms.FinishRoom(ctx, answer.RoomID, player.ID); err != nil {
			return nil, err
		}
	}

	return answer, nil
}

// AllAnswered reports whether every player in the room has an answer
// recorded for the question
func (l *Ledger) AllAnswered(ctx context.Context, roomID model.RoomID, questionID model.QuestionID) (bool, error) {
	roomRecord, err := l.storage.GetRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	count, err := l.storage.CountAnswers(ctx, roomID, questionID)
	if err != nil {
		return false, err
	}
	return count >= roomRecord.CurrentPlayers, nil
}

// TimeRemaining returns how much of the answer window is left for the
// room's current question, clamped at zero. Zero also when no question is
// active.
func (l *Ledger) TimeRemaining(roomRecord *model.Room) time.Duration {
	if roomRecord.QuestionStartTime == nil {
		return 0
	}
	elapsed := l.clock.Now().Sub(*roomRecord.QuestionStartTime)
	remaining := room.AnswerWindow - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Interface for dependency injection
type LedgerInterface interface {
	SubmitAnswer(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, questionID model.QuestionID, selected int) (*model.Answer, error)
	RecordTimeout(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, questionID model.QuestionID) (*model.Answer, error)
	AllAnswered(ctx context.Context, roomID model.RoomID, questionID model.QuestionID) (bool, error)
	TimeRemaining(roomRecord *model.Room) time.Duration
}

var _ LedgerInterface = (*Ledger)(nil)
