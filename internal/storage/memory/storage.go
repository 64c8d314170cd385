package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
)

// Storage is an in-memory implementation of the store interface
type Storage struct {
	mu sync.RWMutex

	rooms     map[model.RoomID]*model.Room
	codeIndex map[model.RoomCode]model.RoomID
	players   map[model.PlayerID]*model.Player
	questions map[model.QuestionID]*model.RoomQuestion
	claims    map[model.QuestionID]bool
	answers   map[answerKey]*model.Answer
	pool      []*model.PoolQuestion
	usage     map[string]*model.QuestionUsage

	subMu       sync.RWMutex
	subscribers map[subKey][]*subscriber
}

type answerKey struct {
	playerID   model.PlayerID
	questionID model.QuestionID
}

type subKey struct {
	collection model.Collection
	roomID     model.RoomID
}

type subscriber struct {
	ch   chan model.ChangeEvent
	once sync.Once
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms:       make(map[model.RoomID]*model.Room),
		codeIndex:   make(map[model.RoomCode]model.RoomID),
		players:     make(map[model.PlayerID]*model.Player),
		questions:   make(map[model.QuestionID]*model.RoomQuestion),
		claims:      make(map[model.QuestionID]bool),
		answers:     make(map[answerKey]*model.Answer),
		usage:       make(map[string]*model.QuestionUsage),
		subscribers: make(map[subKey][]*subscriber),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	_, existed := s.rooms[room.ID]
	s.rooms[room.ID] = room
	s.codeIndex[room.Code] = room.ID
	s.mu.Unlock()

	s.publish(model.CollectionRooms, changeType(existed), room.ID, string(room.ID))
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room, nil
}

func (s *Storage) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room, nil
}

func (s *Storage) RoomCodeExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.codeIndex[code]
	return ok, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	_, existed := s.players[player.ID]
	s.players[player.ID] = player
	s.mu.Unlock()

	s.publish(model.CollectionPlayers, changeType(existed), player.RoomID, string(player.ID))
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

func (s *Storage) ListPlayers(ctx context.Context, roomID model.RoomID) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var players []*model.Player
	for _, p := range s.players {
		if p.RoomID == roomID {
			players = append(players, p)
		}
	}
	sortPlayers(players)
	return players, nil
}

func (s *Storage) FindPlayerByName(ctx context.Context, roomID model.RoomID, name string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name = strings.TrimSpace(name)
	for _, p := range s.players {
		if p.RoomID == roomID && p.Name == name {
			return p, nil
		}
	}
	return nil, model.ErrPlayerNotFound
}

// Room question operations

func (s *Storage) SaveRoomQuestion(ctx context.Context, question *model.RoomQuestion) error {
	s.mu.Lock()
	_, existed := s.questions[question.ID]
	s.questions[question.ID] = question
	s.mu.Unlock()

	s.publish(model.CollectionQuestions, changeType(existed), question.RoomID, string(question.ID))
	return nil
}

func (s *Storage) GetRoomQuestion(ctx context.Context, id model.QuestionID) (*model.RoomQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[id]
	if !ok {
		return nil, model.ErrQuestionNotFound
	}
	return question, nil
}

func (s *Storage) GetActiveQuestion(ctx context.Context, roomID model.RoomID) (*model.RoomQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range s.questions {
		if q.RoomID == roomID && q.IsActive {
			return q, nil
		}
	}
	return nil, model.ErrNoActiveQuestion
}

func (s *Storage) NextUnshownQuestion(ctx context.Context, roomID model.RoomID) (*model.RoomQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var next *model.RoomQuestion
	for _, q := range s.questions {
		if q.RoomID != roomID || q.ShownAt != nil {
			continue
		}
		if next == nil || earlier(q, next) {
			next = q
		}
	}
	if next == nil {
		return nil, model.ErrNoQuestionsLeft
	}
	return next, nil
}

func (s *Storage) ClaimQuestion(ctx context.Context, id model.QuestionID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return false, model.ErrQuestionNotFound
	}
	if s.claims[id] {
		return false, nil
	}
	s.claims[id] = true
	return true, nil
}

// Answer operations

func (s *Storage) InsertAnswer(ctx context.Context, answer *model.Answer) (bool, error) {
	key := answerKey{playerID: answer.PlayerID, questionID: answer.QuestionID}

	s.mu.Lock()
	if _, exists := s.answers[key]; exists {
		s.mu.Unlock()
		return false, nil
	}
	s.answers[key] = answer
	s.mu.Unlock()

	s.publish(model.CollectionAnswers, model.ChangeInsert, answer.RoomID, string(answer.ID))
	return true, nil
}

func (s *Storage) GetAnswer(ctx context.Context, playerID model.PlayerID, questionID model.QuestionID) (*model.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	answer, ok := s.answers[answerKey{playerID: playerID, questionID: questionID}]
	if !ok {
		return nil, model.ErrAnswerNotFound
	}
	return answer, nil
}

func (s *Storage) CountAnswers(ctx context.Context, roomID model.RoomID, questionID model.QuestionID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.answers {
		if a.RoomID == roomID && a.QuestionID == questionID {
			count++
		}
	}
	return count, nil
}

// Global question pool operations

func (s *Storage) SavePoolQuestions(ctx context.Context, questions []*model.PoolQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = append(s.pool, questions...)
	return nil
}

func (s *Storage) ListRecentPoolQuestions(ctx context.Context, limit int) ([]*model.PoolQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.PoolQuestion, 0, limit)
	for i := len(s.pool) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.pool[i])
	}
	return result, nil
}

func (s *Storage) GetQuestionUsage(ctx context.Context, hash string) (*model.QuestionUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	usage, ok := s.usage[hash]
	if !ok {
		return nil, model.ErrQuestionNotFound
	}
	return usage, nil
}

func (s *Storage) SaveQuestionUsage(ctx context.Context, usage *model.QuestionUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[usage.Hash] = usage
	return nil
}

// sortPlayers orders by score descending, join time ascending for ties
func sortPlayers(players []*model.Player) {
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
}

// earlier orders questions by creation time, order number for ties
func earlier(a, b *model.RoomQuestion) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Order < b.Order
}

func changeType(existed bool) model.ChangeType {
	if existed {
		return model.ChangeUpdate
	}
	return model.ChangeInsert
}

// Watcher implementation

// watchBuffer bounds the per-subscriber event queue. Events beyond it are
// dropped; subscribers poll to recover.
const watchBuffer = 64

func (s *Storage) Watch(ctx context.Context, collection model.Collection, roomID model.RoomID) (<-chan model.ChangeEvent, func()) {
	sub := &subscriber{ch: make(chan model.ChangeEvent, watchBuffer)}
	key := subKey{collection: collection, roomID: roomID}

	s.subMu.Lock()
	s.subscribers[key] = append(s.subscribers[key], sub)
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		subs := s.subscribers[key]
		for i, candidate := range subs {
			if candidate == sub {
				s.subscribers[key] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.subMu.Unlock()
		sub.once.Do(func() { close(sub.ch) })
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return sub.ch, cancel
}

func (s *Storage) publish(collection model.Collection, change model.ChangeType, roomID model.RoomID, recordID string) {
	event := model.ChangeEvent{
		Collection: collection,
		Type:       change,
		RoomID:     roomID,
		RecordID:   recordID,
		Timestamp:  time.Now(),
	}

	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, sub := range s.subscribers[subKey{collection: collection, roomID: roomID}] {
		select {
		case sub.ch <- event:
		default:
			// Slow consumer; dropped events are healed by polling
		}
	}
}
