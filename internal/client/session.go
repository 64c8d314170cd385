package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/room"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/scoring"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
)

const (
	// TickInterval is how often the session reconciles local state against
	// the store
	TickInterval = 1 * time.Second

	// AdvanceGrace is how long the driving client holds the finished
	// question on screen before activating the next one
	AdvanceGrace = 2 * time.Second
)

// Session is one client's view of a room. The store is the single source of
// truth; the session holds a local copy that converges to it through change
// notifications and a periodic tick. Ticks also drive the cooperative parts
// of the protocol: the self timeout penalty and, for the host, question
// advancement.
type Session struct {
	store   storage.Store
	rooms   room.ControllerInterface
	scoring scoring.LedgerInterface
	clock   clockwork.Clock
	logger  *slog.Logger

	roomID     model.RoomID
	playerName string

	mu       sync.Mutex
	room     *model.Room
	players  []*model.Player
	self     *model.Player
	question *model.RoomQuestion

	// timeoutDone marks questions whose window this client already settled
	// for itself, so the penalty is attempted at most once per question
	timeoutDone map[model.QuestionID]bool

	// advanceAt is when the held question may be advanced; nil when no
	// advancement is pending
	advanceAt   *time.Time
	isAdvancing bool
}

// NewSession creates a session for the named player in the given room
func NewSession(
	store storage.Store,
	rooms room.ControllerInterface,
	ledger scoring.LedgerInterface,
	clk clockwork.Clock,
	logger *slog.Logger,
	roomID model.RoomID,
	playerName string,
) *Session {
	return &Session{
		store:       store,
		rooms:       rooms,
		scoring:     ledger,
		clock:       clk,
		logger:      logger,
		roomID:      roomID,
		playerName:  playerName,
		timeoutDone: make(map[model.QuestionID]bool),
	}
}

// Load fetches the room, roster, and active question concurrently and
// resolves this client's own player record
func (s *Session) Load(ctx context.Context) error {
	var (
		wg       sync.WaitGroup
		roomRec  *model.Room
		players  []*model.Player
		question *model.RoomQuestion
		roomErr  error
		listErr  error
		qErr     error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		roomRec, roomErr = s.store.GetRoom(ctx, s.roomID)
	}()
	go func() {
		defer wg.Done()
		players, listErr = s.store.ListPlayers(ctx, s.roomID)
	}()
	go func() {
		defer wg.Done()
		question, qErr = s.store.GetActiveQuestion(ctx, s.roomID)
		if errors.Is(qErr, model.ErrNoActiveQuestion) {
			question, qErr = nil, nil
		}
	}()
	wg.Wait()

	if roomErr != nil {
		return roomErr
	}
	if listErr != nil {
		return listErr
	}
	if qErr != nil {
		return qErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = roomRec
	s.players = players
	s.question = question
	s.self = s.resolveSelf(roomRec, players)
	if s.self == nil {
		return model.ErrPlayerNotFound
	}
	return nil
}

// resolveSelf finds this client's player row by name. When the name does
// not match (renamed or divergent roster) and this client created the room,
// it falls back to the room's recorded host ID.
func (s *Session) resolveSelf(roomRec *model.Room, players []*model.Player) *model.Player {
	for _, p := range players {
		if p.Name == s.playerName {
			return p
		}
	}
	if roomRec.HostID != nil {
		for _, p := range players {
			if p.ID == *roomRec.HostID {
				return p
			}
		}
	}
	return nil
}

// Run reconciles until the room finishes or the context is cancelled. It
// subscribes to change notifications for the room, its roster, and its
// questions, and reloads on every event; a steady tick covers dropped events
// and drives the timeout and advancement duties.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Load(ctx); err != nil {
		return err
	}

	roomEvents, cancelRooms := s.store.Watch(ctx, model.CollectionRooms, s.roomID)
	defer cancelRooms()
	playerEvents, cancelPlayers := s.store.Watch(ctx, model.CollectionPlayers, s.roomID)
	defer cancelPlayers()
	questionEvents, cancelQuestions := s.store.Watch(ctx, model.CollectionQuestions, s.roomID)
	defer cancelQuestions()

	ticker := s.clock.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-roomEvents:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("refresh failed", slog.String("error", err.Error()))
			}
		case <-playerEvents:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("refresh failed", slog.String("error", err.Error()))
			}
		case <-questionEvents:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("refresh failed", slog.String("error", err.Error()))
			}
		case <-ticker.Chan():
			if err := s.Tick(ctx); err != nil {
				s.logger.Warn("tick failed", slog.String("error", err.Error()))
			}
		}
		if s.Finished() {
			return nil
		}
	}
}

// Refresh re-reads the room, roster, and active question from the store
func (s *Session) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// Tick runs one reconciliation step: refresh state, settle this client's
// own timeout when the window has elapsed, and, on the driving client,
// advance the question after the grace period
func (s *Session) Tick(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	roomRec := s.room
	self := s.self
	question := s.question
	s.mu.Unlock()

	if roomRec == nil || self == nil {
		return nil
	}
	if roomRec.Status != model.RoomStatusPlaying || question == nil {
		return nil
	}

	now := s.clock.Now()
	elapsed := s.elapsed(roomRec, now)

	if elapsed >= room.AnswerWindow {
		s.settleTimeout(ctx, self, question)
	}

	if !self.IsHost {
		return nil
	}
	return s.maybeAdvance(ctx, roomRec, question, now, elapsed)
}

// settleTimeout applies the no-answer penalty for this client once per
// question. An answer recorded in the meantime makes it a no-op.
func (s *Session) settleTimeout(ctx context.Context, self *model.Player, question *model.RoomQuestion) {
	s.mu.Lock()
	done := s.timeoutDone[question.ID]
	s.timeoutDone[question.ID] = true
	s.mu.Unlock()
	if done {
		return
	}

	_, err := s.scoring.RecordTimeout(ctx, s.roomID, self.ID, question.ID)
	if err != nil && !errors.Is(err, model.ErrAlreadyAnswered) {
		s.logger.Warn("timeout penalty failed",
			slog.String("question_id", string(question.ID)),
			slog.String("error", err.Error()),
		)
		s.mu.Lock()
		delete(s.timeoutDone, question.ID)
		s.mu.Unlock()
	}
}

// maybeAdvance triggers question advancement once the question is settled:
// either every player answered or the window elapsed. The question is held
// for a grace period first so players see the outcome.
func (s *Session) maybeAdvance(
	ctx context.Context,
	roomRec *model.Room,
	question *model.RoomQuestion,
	now time.Time,
	elapsed time.Duration,
) error {
	settled := elapsed >= room.AnswerWindow
	if !settled {
		all, err := s.scoring.AllAnswered(ctx, s.roomID, question.ID)
		if err != nil {
			return err
		}
		settled = all
	}

	s.mu.Lock()
	if !settled {
		s.advanceAt = nil
		s.mu.Unlock()
		return nil
	}
	if s.advanceAt == nil {
		at := now.Add(AdvanceGrace)
		s.advanceAt = &at
	}
	ready := !s.isAdvancing && !now.Before(*s.advanceAt)
	if ready {
		s.isAdvancing = true
	}
	s.mu.Unlock()

	if !ready {
		return nil
	}

	err := s.rooms.ActivateNextQuestion(ctx, s.roomID)

	s.mu.Lock()
	s.isAdvancing = false
	s.advanceAt = nil
	s.mu.Unlock()

	if err != nil && !errors.Is(err, model.ErrRoomNotPlaying) {
		return err
	}
	return nil
}

// Answer submits this client's option selection for the current question
func (s *Session) Answer(ctx context.Context, selected int) (*model.Answer, error) {
	s.mu.Lock()
	self := s.self
	question := s.question
	roomRec := s.room
	s.mu.Unlock()

	if self == nil || roomRec == nil {
		return nil, model.ErrPlayerNotFound
	}
	if question == nil {
		return nil, model.ErrNoActiveQuestion
	}
	if s.elapsed(roomRec, s.clock.Now()) >= room.AnswerWindow {
		return nil, model.ErrQuestionInactive
	}
	return s.scoring.SubmitAnswer(ctx, s.roomID, self.ID, question.ID, selected)
}

// Countdown returns the whole seconds left in the current answer window:
// window minus the floor of elapsed, clamped at zero. All clients derive
// this from the same stored start time, so the value agrees across the room
// regardless of when each client joined the question, and a fresh question
// shows the full window until a whole second has passed.
func (s *Session) Countdown() int {
	s.mu.Lock()
	roomRec := s.room
	s.mu.Unlock()
	if roomRec == nil || roomRec.QuestionStartTime == nil {
		return 0
	}
	elapsed := s.elapsed(roomRec, s.clock.Now())
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := int(room.AnswerWindow/time.Second) - int(elapsed/time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// elapsed is time since the current question's authoritative start
func (s *Session) elapsed(roomRec *model.Room, now time.Time) time.Duration {
	if roomRec.QuestionStartTime == nil {
		return 0
	}
	return now.Sub(*roomRec.QuestionStartTime)
}

// Finished reports whether the room has reached its terminal state
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room != nil && s.room.Status == model.RoomStatusFinished
}

// Snapshot is a point-in-time copy of the session's local state
type Snapshot struct {
	Room     *model.Room
	Players  []*model.Player
	Self     *model.Player
	Question *model.RoomQuestion
}

// Snapshot returns the session's current local state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	players := make([]*model.Player, len(s.players))
	copy(players, s.players)
	return Snapshot{
		Room:     s.room,
		Players:  players,
		Self:     s.self,
		Question: s.question,
	}
}

// Standings is the final ranking with aggregate score statistics
type Standings struct {
	Players   []*model.Player
	WinnerID  *model.PlayerID
	MaxScore  int
	MeanScore float64
}

// Standings ranks the roster by score, ties broken by join order, and
// computes the room's score statistics. Meaningful once the room finishes
// but safe to call at any time.
func (s *Session) Standings() Standings {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := Standings{
		Players: make([]*model.Player, len(s.players)),
	}
	copy(result.Players, s.players)
	if s.room != nil {
		result.WinnerID = s.room.WinnerID
	}

	if len(result.Players) == 0 {
		return result
	}
	total := 0
	for _, p := range result.Players {
		total += p.Score
		if p.Score > result.MaxScore {
			result.MaxScore = p.Score
		}
	}
	result.MeanScore = float64(total) / float64(len(result.Players))
	return result
}
