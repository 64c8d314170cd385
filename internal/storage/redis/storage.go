package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
)

// Storage is a Redis-backed implementation of the store interface. Change
// notifications ride Redis pub/sub on per-(collection, room) channels.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL)
	pipe.Set(ctx, roomCodeIndexKey(room.Code), string(room.ID), s.cfg.RoomTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	s.publish(ctx, model.CollectionRooms, model.ChangeUpdate, room.ID, string(room.ID))
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	roomIDStr, err := s.client.Get(ctx, roomCodeIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	return s.GetRoom(ctx, model.RoomID(roomIDStr))
}

func (s *Storage) RoomCodeExists(ctx context.Context, code model.RoomCode) (bool, error) {
	exists, err := s.client.Exists(ctx, roomCodeIndexKey(code)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	pKey := playerKey(player.ID)
	indexKey := playersForRoomIndexKey(player.RoomID)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, pKey, data, s.cfg.RoomTTL)
	pipe.SAdd(ctx, indexKey, pKey)
	pipe.Expire(ctx, indexKey, s.cfg.RoomTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	s.publish(ctx, model.CollectionPlayers, model.ChangeUpdate, player.RoomID, string(player.ID))
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context, roomID model.RoomID) ([]*model.Player, error) {
	playerKeys, err := s.client.SMembers(ctx, playersForRoomIndexKey(roomID)).Result()
	if err != nil {
		return nil, err
	}

	if len(playerKeys) == 0 {
		return []*model.Player{}, nil
	}

	values, err := s.client.MGet(ctx, playerKeys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Player may have expired
		}
		var player model.Player
		if err := json.Unmarshal([]byte(val.(string)), &player); err != nil {
			continue // Skip invalid data
		}
		players = append(players, &player)
	}

	sortPlayers(players)
	return players, nil
}

func (s *Storage) FindPlayerByName(ctx context.Context, roomID model.RoomID, name string) (*model.Player, error) {
	players, err := s.ListPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	for _, p := range players {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, model.ErrPlayerNotFound
}

// Room question operations

func (s *Storage) SaveRoomQuestion(ctx context.Context, question *model.RoomQuestion) error {
	data, err := json.Marshal(question)
	if err != nil {
		return err
	}

	qKey := questionKey(question.ID)
	indexKey := questionsForRoomIndexKey(question.RoomID)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, qKey, data, s.cfg.RoomTTL)
	pipe.SAdd(ctx, indexKey, qKey)
	pipe.Expire(ctx, indexKey, s.cfg.RoomTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	s.publish(ctx, model.CollectionQuestions, model.ChangeUpdate, question.RoomID, string(question.ID))
	return nil
}

func (s *Storage) GetRoomQuestion(ctx context.Context, id model.QuestionID) (*model.RoomQuestion, error) {
	data, err := s.client.Get(ctx, questionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrQuestionNotFound
		}
		return nil, err
	}

	var question model.RoomQuestion
	if err := json.Unmarshal(data, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *Storage) GetActiveQuestion(ctx context.Context, roomID model.RoomID) (*model.RoomQuestion, error) {
	questions, err := s.questionsForRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	for _, q := range questions {
		if q.IsActive {
			return q, nil
		}
	}
	return nil, model.ErrNoActiveQuestion
}

func (s *Storage) NextUnshownQuestion(ctx context.Context, roomID model.RoomID) (*model.RoomQuestion, error) {
	questions, err := s.questionsForRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	var next *model.RoomQuestion
	for _, q := range questions {
		if q.ShownAt != nil {
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
	exists, err := s.client.Exists(ctx, questionKey(id)).Result()
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, model.ErrQuestionNotFound
	}

	// SETNX succeeds for exactly one caller per question
	return s.client.SetNX(ctx, questionClaimKey(id), "1", s.cfg.RoomTTL).Result()
}

// questionsForRoom loads all of a room's questions via the room index
func (s *Storage) questionsForRoom(ctx context.Context, roomID model.RoomID) ([]*model.RoomQuestion, error) {
	questionKeys, err := s.client.SMembers(ctx, questionsForRoomIndexKey(roomID)).Result()
	if err != nil {
		return nil, err
	}

	if len(questionKeys) == 0 {
		return []*model.RoomQuestion{}, nil
	}

	values, err := s.client.MGet(ctx, questionKeys...).Result()
	if err != nil {
		return nil, err
	}

	questions := make([]*model.RoomQuestion, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var question model.RoomQuestion
		if err := json.Unmarshal([]byte(val.(string)), &question); err != nil {
			continue
		}
		questions = append(questions, &question)
	}

	return questions, nil
}

// Answer operations

func (s *Storage) InsertAnswer(ctx context.Context, answer *model.Answer) (bool, error) {
	data, err := json.Marshal(answer)
	if err != nil {
		return false, err
	}

	aKey := answerKey(answer.PlayerID, answer.QuestionID)

	// SETNX is the uniqueness constraint on (player, question)
	inserted, err := s.client.SetNX(ctx, aKey, data, s.cfg.RoomTTL).Result()
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}

	indexKey := answersForQuestionIndexKey(answer.RoomID, answer.QuestionID)
	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, indexKey, aKey)
	pipe.Expire(ctx, indexKey, s.cfg.RoomTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}

	s.publish(ctx, model.CollectionAnswers, model.ChangeInsert, answer.RoomID, string(answer.ID))
	return true, nil
}

func (s *Storage) GetAnswer(ctx context.Context, playerID model.PlayerID, questionID model.QuestionID) (*model.Answer, error) {
	data, err := s.client.Get(ctx, answerKey(playerID, questionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAnswerNotFound
		}
		return nil, err
	}

	var answer model.Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

func (s *Storage) CountAnswers(ctx context.Context, roomID model.RoomID, questionID model.QuestionID) (int, error) {
	count, err := s.client.SCard(ctx, answersForQuestionIndexKey(roomID, questionID)).Result()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Global question pool operations

func (s *Storage) SavePoolQuestions(ctx context.Context, questions []*model.PoolQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, q := range questions {
		data, err := json.Marshal(q)
		if err != nil {
			return err
		}
		pipe.LPush(ctx, poolQuestionsKey(), data)
	}
	// Newest entries live at the head; trim the tail
	pipe.LTrim(ctx, poolQuestionsKey(), 0, int64(s.cfg.PoolQuestionLimit)-1)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListRecentPoolQuestions(ctx context.Context, limit int) ([]*model.PoolQuestion, error) {
	values, err := s.client.LRange(ctx, poolQuestionsKey(), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	questions := make([]*model.PoolQuestion, 0, len(values))
	for _, val := range values {
		var question model.PoolQuestion
		if err := json.Unmarshal([]byte(val), &question); err != nil {
			continue
		}
		questions = append(questions, &question)
	}
	return questions, nil
}

func (s *Storage) GetQuestionUsage(ctx context.Context, hash string) (*model.QuestionUsage, error) {
	data, err := s.client.Get(ctx, questionUsageKey(hash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrQuestionNotFound
		}
		return nil, err
	}

	var usage model.QuestionUsage
	if err := json.Unmarshal(data, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

func (s *Storage) SaveQuestionUsage(ctx context.Context, usage *model.QuestionUsage) error {
	data, err := json.Marshal(usage)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, questionUsageKey(usage.Hash), data, 0).Err()
}

// Watcher implementation

func (s *Storage) Watch(ctx context.Context, collection model.Collection, roomID model.RoomID) (<-chan model.ChangeEvent, func()) {
	sub := s.client.Subscribe(ctx, eventsChannel(collection, roomID))
	out := make(chan model.ChangeEvent, 64)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var event model.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			select {
			case out <- event:
			default:
				// Slow consumer; dropped events are healed by polling
			}
		}
	}()

	cancel := func() {
		_ = sub.Close()
	}
	return out, cancel
}

func (s *Storage) publish(ctx context.Context, collection model.Collection, change model.ChangeType, roomID model.RoomID, recordID string) {
	event := model.ChangeEvent{
		Collection: collection,
		Type:       change,
		RoomID:     roomID,
		RecordID:   recordID,
		Timestamp:  time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	// Best-effort; subscribers poll to recover from missed notifications
	_ = s.client.Publish(ctx, eventsChannel(collection, roomID), data).Err()
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
