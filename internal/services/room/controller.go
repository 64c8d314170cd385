package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/dependencies/random"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/supply"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room codes
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// AnswerWindow is how long a question stays eligible for answers
	AnswerWindow = 15 * time.Second
	// WinThreshold is the score at which a player wins and the room finishes
	WinThreshold = 20
	// SupplyWait is the grace period after requesting fresh questions before
	// re-querying the store
	SupplyWait = 2 * time.Second

	// MinPlayers is the smallest allowed room capacity (host plus one)
	MinPlayers = 2
)

// Controller owns the room state machine: waiting -> playing -> finished.
// There is no single owning process for a room; any client may drive
// progression, so every mutation here is written to be safe under
// concurrent invocation from multiple processes.
type Controller struct {
	storage storage.Storage
	supply  supply.Supply
	clock   clockwork.Clock
	random  random.Random
	logger  *slog.Logger

	// advancing guards ActivateNextQuestion per room within this process.
	// Cross-process exclusion comes from the store's question claim.
	advancing sync.Map // model.RoomID -> struct{}
}

// NewController creates a new room Controller
func NewController(
	store storage.Storage,
	questionSupply supply.Supply,
	clk clockwork.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: store,
		supply:  questionSupply,
		clock:   clk,
		random:  rnd,
		logger:  logger,
	}
}

// CreateRoom creates a room in the waiting state with the given player as
// host, and seeds its initial question batch
func (c *Controller) CreateRoom(ctx context.Context, hostName string, maxPlayers int) (*model.Room, *model.Player, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, nil, fmt.Errorf("host name is required")
	}
	if maxPlayers < MinPlayers {
		maxPlayers = MinPlayers
	}

	now := c.clock.Now()

	// Generate unique room code
	var code model.RoomCode
	for {
		code = model.RoomCode(c.random.String(RoomCodeLength, RoomCodeAlphabet))
		exists, err := c.storage.RoomCodeExists(ctx, code)
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			break
		}
	}

	host := &model.Player{
		ID:       model.PlayerID(uuid.NewString()),
		Name:     hostName,
		IsHost:   true,
		Score:    0,
		JoinedAt: now,
	}

	room := &model.Room{
		ID:             model.RoomID(uuid.NewString()),
		Code:           code,
		MaxPlayers:     maxPlayers,
		CurrentPlayers: 1,
		Status:         model.RoomStatusWaiting,
		HostID:         &host.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	host.RoomID = room.ID

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, nil, err
	}
	if err := c.storage.SavePlayer(ctx, host); err != nil {
		return nil, nil, err
	}

	// Seed the initial batch. Failure is not fatal: the next activation
	// attempt retries the supply.
	if err := c.supply.RequestQuestions(ctx, room.ID); err != nil {
		c.logger.Warn("initial question supply failed",
			slog.String("room_id", string(room.ID)),
			slog.String("error", err.Error()),
		)
	}

	c.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("room_code", string(code)),
		slog.Int("max_players", maxPlayers),
	)

	return room, host, nil
}

// GetRoom retrieves a room by ID
func (c *Controller) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return c.storage.GetRoom(ctx, id)
}

// GetRoomByCode retrieves a room by its join code
func (c *Controller) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	normalized := model.RoomCode(strings.ToUpper(strings.TrimSpace(string(code))))
	return c.storage.GetRoomByCode(ctx, normalized)
}

// JoinRoom adds a player to a waiting room. The name must be unused within
// the room and the capacity not exceeded.
func (c *Controller) JoinRoom(ctx context.Context, code model.RoomCode, name string) (*model.Room, *model.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("player name is required")
	}

	room, err := c.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	if room.Status != model.RoomStatusWaiting {
		return nil, nil, model.ErrRoomNotWaiting
	}
	if room.CurrentPlayers >= room.MaxPlayers {
		return nil, nil, model.ErrRoomFull
	}

	if _, err := c.storage.FindPlayerByName(ctx, room.ID, name); err == nil {
		return nil, nil, model.ErrNameTaken
	} else if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, nil, err
	}

	now := c.clock.Now()
	player := &model.Player{
		ID:       model.PlayerID(uuid.NewString()),
		RoomID:   room.ID,
		Name:     name,
		IsHost:   false,
		Score:    0,
		JoinedAt: now,
	}
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return nil, nil, err
	}

	room.CurrentPlayers++
	room.UpdatedAt = now
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, nil, err
	}

	c.logger.Info("player joined",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(player.ID)),
		slog.Int("current_players", room.CurrentPlayers),
	)

	return room, player, nil
}

// StartGame transitions a waiting room to playing and activates the first
// question. Only the host may start.
func (c *Controller) StartGame(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error {
	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	player, err := c.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if !c.isHost(room, player) {
		return model.ErrNotHost
	}

	if room.Status != model.RoomStatusWaiting {
		return model.ErrRoomNotWaiting
	}

	room.Status = model.RoomStatusPlaying
	room.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return err
	}

	c.logger.Info("game started",
		slog.String("room_id", string(roomID)),
		slog.String("host_id", string(playerID)),
	)

	return c.ActivateNextQuestion(ctx, roomID)
}

// AdvanceQuestion is the host-gated advancement path for untrusted callers.
// It verifies the requesting player drives this room before activating the
// next question.
func (c *Controller) AdvanceQuestion(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error {
	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	player, err := c.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if !c.isHost(room, player) {
		return model.ErrNotHost
	}

	return c.ActivateNextQuestion(ctx, roomID)
}

// ActivateNextQuestion deactivates the current question, selects the
// earliest-created unshown question (authoring a fresh batch if none
// remain), claims it, and publishes it as active with a new authoritative
// start time. Steps are best-effort; no transaction spans them. Safe to
// call from multiple clients concurrently: the claim resolves the winner.
func (c *Controller) ActivateNextQuestion(ctx context.Context, roomID model.RoomID) error {
	if _, busy := c.advancing.LoadOrStore(roomID, struct{}{}); busy {
		return nil
	}
	defer c.advancing.Delete(roomID)

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Status != model.RoomStatusPlaying {
		return model.ErrRoomNotPlaying
	}

	// Deactivate only the currently active question to minimize churn
	if active, err := c.storage.GetActiveQuestion(ctx, roomID); err == nil {
		active.IsActive = false
		if err := c.storage.SaveRoomQuestion(ctx, active); err != nil {
			return err
		}
	} else if !errors.Is(err, model.ErrNoActiveQuestion) {
		return err
	}

	next, err := c.claimNextQuestion(ctx, roomID)
	if errors.Is(err, model.ErrQuestionClaimed) {
		// Another client is activating right now; its write will land
		c.logger.Debug("activation lost to another client",
			slog.String("room_id", string(roomID)))
		return nil
	}
	if err != nil {
		return err
	}

	now := c.clock.Now()
	next.IsActive = true
	next.ShownAt = &now
	if err := c.storage.SaveRoomQuestion(ctx, next); err != nil {
		return err
	}

	room.CurrentQuestionID = &next.ID
	room.QuestionStartTime = &now
	room.UpdatedAt = now
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return err
	}

	c.logger.Info("question activated",
		slog.String("room_id", string(roomID)),
		slog.String("question_id", string(next.ID)),
	)
	return nil
}

// claimNextQuestion selects the earliest unshown question and claims it.
// When the room runs dry it asks the supply for a fresh batch, waits a
// grace period, and retries the selection once. A lost claim returns
// model.ErrQuestionClaimed: another client is activating that question.
func (c *Controller) claimNextQuestion(ctx context.Context, roomID model.RoomID) (*model.RoomQuestion, error) {
	next, err := c.storage.NextUnshownQuestion(ctx, roomID)
	if errors.Is(err, model.ErrNoQuestionsLeft) {
		if supplyErr := c.supply.RequestQuestions(ctx, roomID); supplyErr != nil {
			c.logger.Warn("question supply failed",
				slog.String("room_id", string(roomID)),
				slog.String("error", supplyErr.Error()),
			)
		}
		c.clock.Sleep(SupplyWait)

		next, err = c.storage.NextUnshownQuestion(ctx, roomID)
		if err != nil {
			return nil, fmt.Errorf("no questions available after supply request: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	claimed, err := c.storage.ClaimQuestion(ctx, next.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, model.ErrQuestionClaimed
	}
	return next, nil
}

// FinishRoom transitions a room to finished and records the winner.
// Idempotent: the first writer wins, later calls are no-ops.
func (c *Controller) FinishRoom(ctx context.Context, roomID model.RoomID, winnerID model.PlayerID) error {
	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	if room.Status == model.RoomStatusFinished {
		return nil
	}

	room.Status = model.RoomStatusFinished
	room.WinnerID = &winnerID
	room.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return err
	}

	c.logger.Info("room finished",
		slog.String("room_id", string(roomID)),
		slog.String("winner_id", string(winnerID)),
	)
	return nil
}

// isHost reports whether the player drives this room's progression. The
// host flag on the player is authoritative; the room's recorded host ID is
// the fallback for stale player rows.
func (c *Controller) isHost(room *model.Room, player *model.Player) bool {
	if player.RoomID != room.ID {
		return false
	}
	if player.IsHost {
		return true
	}
	return room.HostID != nil && *room.HostID == player.ID
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateRoom(ctx context.Context, hostName string, maxPlayers int) (*model.Room, *model.Player, error)
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error)
	JoinRoom(ctx context.Context, code model.RoomCode, name string) (*model.Room, *model.Player, error)
	StartGame(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error
	AdvanceQuestion(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error
	ActivateNextQuestion(ctx context.Context, roomID model.RoomID) error
	FinishRoom(ctx context.Context, roomID model.RoomID, winnerID model.PlayerID) error
}

var _ ControllerInterface = (*Controller)(nil)
