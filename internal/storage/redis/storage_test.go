package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.RoomTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) saveRoom(id, code string) *model.Room {
	room := &model.Room{
		ID:         model.RoomID(id),
		Code:       model.RoomCode(code),
		MaxPlayers: 4,
		Status:     model.RoomStatusWaiting,
		CreatedAt:  time.Now().UTC(),
	}
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))
	return room
}

// Room tests

func (s *StorageSuite) TestSaveAndGetRoom() {
	room := s.saveRoom("room-1", "ABC123")

	retrieved, err := s.storage.GetRoom(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Equal(room.Code, retrieved.Code)
	s.Equal(model.RoomStatusWaiting, retrieved.Status)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestGetRoomByCode() {
	room := s.saveRoom("room-1", "ABC123")

	retrieved, err := s.storage.GetRoomByCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(room.ID, retrieved.ID)
}

func (s *StorageSuite) TestRoomCodeExists() {
	s.saveRoom("room-1", "ABC123")

	exists, err := s.storage.RoomCodeExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.storage.RoomCodeExists(s.ctx, "ZZZZZZ")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestRoomPointerFieldsSurviveRoundTrip() {
	questionID := model.QuestionID("q1")
	startTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	hostID := model.PlayerID("p1")

	room := &model.Room{
		ID:                "room-1",
		Code:              "ABC123",
		Status:            model.RoomStatusPlaying,
		CurrentQuestionID: &questionID,
		QuestionStartTime: &startTime,
		HostID:            &hostID,
	}
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	retrieved, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Require().NotNil(retrieved.CurrentQuestionID)
	s.Equal(questionID, *retrieved.CurrentQuestionID)
	s.Require().NotNil(retrieved.QuestionStartTime)
	s.True(startTime.Equal(*retrieved.QuestionStartTime))
	s.Require().NotNil(retrieved.HostID)
	s.Equal(hostID, *retrieved.HostID)
}

// Player tests

func (s *StorageSuite) TestSaveAndListPlayers() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.SavePlayer(s.ctx, &model.Player{
		ID: "p1", RoomID: "room-1", Name: "Alice", Score: 4, JoinedAt: base,
	})
	_ = s.storage.SavePlayer(s.ctx, &model.Player{
		ID: "p2", RoomID: "room-1", Name: "Bob", Score: 8, JoinedAt: base.Add(time.Minute),
	})
	_ = s.storage.SavePlayer(s.ctx, &model.Player{
		ID: "p3", RoomID: "other", Name: "Carol", Score: 99, JoinedAt: base,
	})

	players, err := s.storage.ListPlayers(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	s.Equal(model.PlayerID("p2"), players[0].ID)
	s.Equal(model.PlayerID("p1"), players[1].ID)
}

func (s *StorageSuite) TestFindPlayerByName() {
	_ = s.storage.SavePlayer(s.ctx, &model.Player{
		ID: "p1", RoomID: "room-1", Name: "Alice", JoinedAt: time.Now().UTC(),
	})

	found, err := s.storage.FindPlayerByName(s.ctx, "room-1", "Alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), found.ID)

	_, err = s.storage.FindPlayerByName(s.ctx, "room-1", "Bob")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Question tests

func (s *StorageSuite) saveQuestion(id string, roomID string, order int, createdAt time.Time) *model.RoomQuestion {
	q := &model.RoomQuestion{
		ID:            model.QuestionID(id),
		RoomID:        model.RoomID(roomID),
		Text:          "Question " + id,
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: 0,
		Order:         order,
		CreatedAt:     createdAt,
	}
	s.Require().NoError(s.storage.SaveRoomQuestion(s.ctx, q))
	return q
}

func (s *StorageSuite) TestNextUnshownQuestionPicksEarliest() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.saveQuestion("q2", "room-1", 1, base)
	s.saveQuestion("q1", "room-1", 0, base)
	s.saveQuestion("q0", "room-1", 5, base.Add(-time.Minute))

	next, err := s.storage.NextUnshownQuestion(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(model.QuestionID("q0"), next.ID)
}

func (s *StorageSuite) TestNextUnshownQuestionSkipsShown() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	q1 := s.saveQuestion("q1", "room-1", 0, base)
	s.saveQuestion("q2", "room-1", 1, base)

	shown := base.Add(time.Minute)
	q1.ShownAt = &shown
	s.Require().NoError(s.storage.SaveRoomQuestion(s.ctx, q1))

	next, err := s.storage.NextUnshownQuestion(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(model.QuestionID("q2"), next.ID)
}

func (s *StorageSuite) TestNextUnshownQuestionEmpty() {
	_, err := s.storage.NextUnshownQuestion(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrNoQuestionsLeft)
}

func (s *StorageSuite) TestGetActiveQuestion() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	q := s.saveQuestion("q1", "room-1", 0, base)

	_, err := s.storage.GetActiveQuestion(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrNoActiveQuestion)

	q.IsActive = true
	s.Require().NoError(s.storage.SaveRoomQuestion(s.ctx, q))

	active, err := s.storage.GetActiveQuestion(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(model.QuestionID("q1"), active.ID)
}

func (s *StorageSuite) TestClaimQuestionExactlyOnce() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.saveQuestion("q1", "room-1", 0, base)

	claimed, err := s.storage.ClaimQuestion(s.ctx, "q1")
	s.Require().NoError(err)
	s.True(claimed)

	claimed, err = s.storage.ClaimQuestion(s.ctx, "q1")
	s.Require().NoError(err)
	s.False(claimed)
}

func (s *StorageSuite) TestClaimQuestionNotFound() {
	_, err := s.storage.ClaimQuestion(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrQuestionNotFound)
}

// Answer tests

func (s *StorageSuite) TestInsertAnswerIsIdempotentPerPlayerQuestion() {
	selected := 2
	answer := &model.Answer{
		ID:             "a1",
		RoomID:         "room-1",
		PlayerID:       "p1",
		QuestionID:     "q1",
		SelectedAnswer: &selected,
		IsCorrect:      true,
		PointsEarned:   2,
		AnsweredAt:     time.Now().UTC(),
	}

	inserted, err := s.storage.InsertAnswer(s.ctx, answer)
	s.Require().NoError(err)
	s.True(inserted)

	duplicate := *answer
	duplicate.ID = "a2"
	inserted, err = s.storage.InsertAnswer(s.ctx, &duplicate)
	s.Require().NoError(err)
	s.False(inserted)

	retrieved, err := s.storage.GetAnswer(s.ctx, "p1", "q1")
	s.Require().NoError(err)
	s.Equal(model.AnswerID("a1"), retrieved.ID)
	s.Require().NotNil(retrieved.SelectedAnswer)
	s.Equal(2, *retrieved.SelectedAnswer)
}

func (s *StorageSuite) TestGetAnswerNotFound() {
	_, err := s.storage.GetAnswer(s.ctx, "p1", "q1")
	s.ErrorIs(err, model.ErrAnswerNotFound)
}

func (s *StorageSuite) TestCountAnswers() {
	for i, pid := range []model.PlayerID{"p1", "p2", "p3"} {
		_, err := s.storage.InsertAnswer(s.ctx, &model.Answer{
			ID:         model.AnswerID(string(rune('a' + i))),
			RoomID:     "room-1",
			PlayerID:   pid,
			QuestionID: "q1",
			AnsweredAt: time.Now().UTC(),
		})
		s.Require().NoError(err)
	}

	count, err := s.storage.CountAnswers(s.ctx, "room-1", "q1")
	s.Require().NoError(err)
	s.Equal(3, count)

	count, err = s.storage.CountAnswers(s.ctx, "room-1", "q2")
	s.Require().NoError(err)
	s.Equal(0, count)
}

// Pool tests

func (s *StorageSuite) TestPoolQuestionsNewestFirstAndTrimmed() {
	cfg := DefaultConfig()
	cfg.PoolQuestionLimit = 2
	s.storage.cfg = cfg

	_ = s.storage.SavePoolQuestions(s.ctx, []*model.PoolQuestion{
		{ID: "pq1", Text: "first"},
		{ID: "pq2", Text: "second"},
		{ID: "pq3", Text: "third"},
	})

	recent, err := s.storage.ListRecentPoolQuestions(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal(model.PoolQuestionID("pq3"), recent[0].ID)
	s.Equal(model.PoolQuestionID("pq2"), recent[1].ID)
}

func (s *StorageSuite) TestQuestionUsageRoundTrip() {
	usage := &model.QuestionUsage{
		Hash:       "abc",
		Text:       "some question",
		UsageCount: 3,
		LastUsedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.storage.SaveQuestionUsage(s.ctx, usage))

	retrieved, err := s.storage.GetQuestionUsage(s.ctx, "abc")
	s.Require().NoError(err)
	s.Equal(3, retrieved.UsageCount)
}

// Watcher tests

func (s *StorageSuite) TestWatchDeliversPublishedEvents() {
	events, cancel := s.storage.Watch(s.ctx, model.CollectionRooms, "room-1")
	defer cancel()

	// Subscription setup races the save; give the subscriber a moment
	time.Sleep(50 * time.Millisecond)
	s.saveRoom("room-1", "ABC123")

	select {
	case event := <-events:
		s.Equal(model.CollectionRooms, event.Collection)
		s.Equal(model.RoomID("room-1"), event.RoomID)
		s.Equal("room-1", event.RecordID)
	case <-time.After(2 * time.Second):
		s.Fail("expected a change event")
	}
}
