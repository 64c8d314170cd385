package client

import (
	"time"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/testutil"
)

func (s *SessionSuite) newManager() *Manager {
	return NewManager(s.storage, s.rooms, s.ledger, s.clock, testutil.NopLogger())
}

func (s *SessionSuite) runningSessions(m *Manager) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.running)
}

func (s *SessionSuite) TestManagerLaunchIsIdempotentPerPlayer() {
	manager := s.newManager()
	defer manager.Shutdown()

	manager.Launch(s.room.ID, "Alice")
	manager.Launch(s.room.ID, "Alice")
	s.Equal(1, s.runningSessions(manager))

	manager.Launch(s.room.ID, "Bob")
	s.Equal(2, s.runningSessions(manager))
}

func (s *SessionSuite) TestManagerShutdownStopsSessions() {
	manager := s.newManager()
	manager.Launch(s.room.ID, "Alice")
	s.Equal(1, s.runningSessions(manager))

	manager.Shutdown()
	s.Eventually(func() bool {
		return s.runningSessions(manager) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

// A launched session must carry its player's duties without any further
// calls: once the answer window lapses, the timeout penalty lands, and the
// host's session moves the room to the next question after the grace period.
func (s *SessionSuite) TestManagerRunsTimeoutAndAdvancement() {
	s.host.Score = 5
	s.Require().NoError(s.storage.SavePlayer(s.ctx, s.host))
	firstQuestion := s.activeQuestionID()

	manager := s.newManager()
	defer manager.Shutdown()
	manager.Launch(s.room.ID, "Alice")

	// The session loop runs on its own goroutine against the fake clock, so
	// nudge the clock one tick at a time until its work is visible.
	s.Require().Eventually(func() bool {
		s.clock.Advance(time.Second)
		answer, err := s.storage.GetAnswer(s.ctx, s.host.ID, firstQuestion)
		return err == nil && answer.SelectedAnswer == nil
	}, 5*time.Second, 20*time.Millisecond, "timeout penalty never recorded")
	s.Equal(4, s.playerScore(s.host.ID))

	s.Require().Eventually(func() bool {
		s.clock.Advance(time.Second)
		active, err := s.storage.GetActiveQuestion(s.ctx, s.room.ID)
		return err == nil && active.ID != firstQuestion
	}, 5*time.Second, 20*time.Millisecond, "host session never advanced the question")

	room, err := s.storage.GetRoom(s.ctx, s.room.ID)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusPlaying, room.Status)
}
