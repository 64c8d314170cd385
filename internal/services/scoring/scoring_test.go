package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/dependencies/mocks"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/room"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/supply"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage/memory"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/testutil"
)

type LedgerSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *clockwork.FakeClock
	rooms   *room.Controller
	ledger  *Ledger
	ctx     context.Context

	room     *model.Room
	host     *model.Player
	guest    *model.Player
	question *model.RoomQuestion
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	rnd := mocks.NewMockRandom()
	rnd.QueueString("ABC123")
	logger := testutil.NopLogger()
	questionSupply := supply.NewStatic(s.storage, s.clock, supply.DefaultQuestions())
	s.rooms = room.NewController(s.storage, questionSupply, s.clock, rnd, logger)
	s.ledger = NewLedger(s.storage, s.rooms, s.clock, logger)
	s.ctx = context.Background()

	created, host, err := s.rooms.CreateRoom(s.ctx, "Alice", 4)
	s.Require().NoError(err)
	_, guest, err := s.rooms.JoinRoom(s.ctx, "ABC123", "Bob")
	s.Require().NoError(err)
	s.Require().NoError(s.rooms.StartGame(s.ctx, created.ID, host.ID))

	s.room, err = s.storage.GetRoom(s.ctx, created.ID)
	s.Require().NoError(err)
	s.host = host
	s.guest = guest
	s.question, err = s.storage.GetActiveQuestion(s.ctx, created.ID)
	s.Require().NoError(err)
}

func (s *LedgerSuite) score(playerID model.PlayerID) int {
	player, err := s.storage.GetPlayer(s.ctx, playerID)
	s.Require().NoError(err)
	return player.Score
}

// SubmitAnswer tests

func (s *LedgerSuite) TestCorrectAnswerAwardsPoints() {
	answer, err := s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, s.question.CorrectAnswer)
	s.Require().NoError(err)

	s.True(answer.IsCorrect)
	s.Equal(PointsCorrect, answer.PointsEarned)
	s.Require().NotNil(answer.SelectedAnswer)
	s.Equal(s.question.CorrectAnswer, *answer.SelectedAnswer)
	s.Equal(2, s.score(s.host.ID))
}

func (s *LedgerSuite) TestWrongAnswerScoreFloorsAtZero() {
	wrong := (s.question.CorrectAnswer + 1) % model.OptionCount

	answer, err := s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, wrong)
	s.Require().NoError(err)

	s.False(answer.IsCorrect)
	s.Equal(PointsIncorrect, answer.PointsEarned)
	s.Equal(0, s.score(s.host.ID))
}

func (s *LedgerSuite) TestWrongAnswerDeductsFromPositiveScore() {
	s.host.Score = 5
	s.Require().NoError(s.storage.SavePlayer(s.ctx, s.host))

	wrong := (s.question.CorrectAnswer + 1) % model.OptionCount
	_, err := s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, wrong)
	s.Require().NoError(err)

	s.Equal(4, s.score(s.host.ID))
}

func (s *LedgerSuite) TestDuplicateSubmissionDoesNotDoubleScore() {
	_, err := s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, s.question.CorrectAnswer)
	s.Require().NoError(err)

	_, err = s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, s.question.CorrectAnswer)
	s.ErrorIs(err, model.ErrAlreadyAnswered)
	s.Equal(2, s.score(s.host.ID))
}

func (s *LedgerSuite) TestSubmitRejectsOutOfRangeOption() {
	_, err := s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, -1)
	s.ErrorIs(err, model.ErrInvalidOption)

	_, err = s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, model.OptionCount)
	s.ErrorIs(err, model.ErrInvalidOption)
}

func (s *LedgerSuite) TestSubmitRejectsInactiveQuestion() {
	s.question.IsActive = false
	s.Require().NoError(s.storage.SaveRoomQuestion(s.ctx, s.question))

	_, err := s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, 0)
	s.ErrorIs(err, model.ErrQuestionInactive)
}

func (s *LedgerSuite) TestSubmitRejectsQuestionFromAnotherRoom() {
	_, err := s.ledger.SubmitAnswer(s.ctx, model.RoomID("other-room"), s.host.ID, s.question.ID, 0)
	s.ErrorIs(err, model.ErrQuestionNotFound)
}

func (s *LedgerSuite) TestSubmitRecordsLastAnswerTime() {
	_, err := s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, 0)
	s.Require().NoError(err)

	player, err := s.storage.GetPlayer(s.ctx, s.host.ID)
	s.Require().NoError(err)
	s.Require().NotNil(player.LastAnswerTime)
	s.True(s.clock.Now().Equal(*player.LastAnswerTime))
}

// RecordTimeout tests

func (s *LedgerSuite) TestTimeoutAppliesPenaltyWithNoSelection() {
	s.host.Score = 3
	s.Require().NoError(s.storage.SavePlayer(s.ctx, s.host))

	answer, err := s.ledger.RecordTimeout(s.ctx, s.room.ID, s.host.ID, s.question.ID)
	s.Require().NoError(err)

	s.Nil(answer.SelectedAnswer)
	s.False(answer.IsCorrect)
	s.Equal(PointsIncorrect, answer.PointsEarned)
	s.Equal(2, s.score(s.host.ID))
}

func (s *LedgerSuite) TestTimeoutSkippedWhenPlayerAnswered() {
	_, err := s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, s.question.CorrectAnswer)
	s.Require().NoError(err)

	_, err = s.ledger.RecordTimeout(s.ctx, s.room.ID, s.host.ID, s.question.ID)
	s.ErrorIs(err, model.ErrAlreadyAnswered)
	s.Equal(2, s.score(s.host.ID))
}

// Win condition tests

func (s *LedgerSuite) TestReachingThresholdFinishesRoom() {
	s.host.Score = room.WinThreshold - PointsCorrect
	s.Require().NoError(s.storage.SavePlayer(s.ctx, s.host))

	_, err := s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, s.question.CorrectAnswer)
	s.Require().NoError(err)

	updated, err := s.storage.GetRoom(s.ctx, s.room.ID)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusFinished, updated.Status)
	s.Require().NotNil(updated.WinnerID)
	s.Equal(s.host.ID, *updated.WinnerID)
}

func (s *LedgerSuite) TestBelowThresholdLeavesRoomPlaying() {
	_, err := s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, s.question.CorrectAnswer)
	s.Require().NoError(err)

	updated, err := s.storage.GetRoom(s.ctx, s.room.ID)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusPlaying, updated.Status)
	s.Nil(updated.WinnerID)
}

// AllAnswered and TimeRemaining tests

func (s *LedgerSuite) TestAllAnsweredTracksRoster() {
	done, err := s.ledger.AllAnswered(s.ctx, s.room.ID, s.question.ID)
	s.Require().NoError(err)
	s.False(done)

	_, err = s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.host.ID, s.question.ID, 0)
	s.Require().NoError(err)
	done, err = s.ledger.AllAnswered(s.ctx, s.room.ID, s.question.ID)
	s.Require().NoError(err)
	s.False(done)

	_, err = s.ledger.SubmitAnswer(s.ctx, s.room.ID, s.guest.ID, s.question.ID, 1)
	s.Require().NoError(err)
	done, err = s.ledger.AllAnswered(s.ctx, s.room.ID, s.question.ID)
	s.Require().NoError(err)
	s.True(done)
}

func (s *LedgerSuite) TestTimeRemainingCountsDownAndClamps() {
	s.Equal(room.AnswerWindow, s.ledger.TimeRemaining(s.room))

	s.clock.Advance(5 * time.Second)
	s.Equal(10*time.Second, s.ledger.TimeRemaining(s.room))

	s.clock.Advance(time.Minute)
	s.Equal(time.Duration(0), s.ledger.TimeRemaining(s.room))
}

func (s *LedgerSuite) TestTimeRemainingZeroWithoutActiveQuestion() {
	s.room.QuestionStartTime = nil
	s.Equal(time.Duration(0), s.ledger.TimeRemaining(s.room))
}
