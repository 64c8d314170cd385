package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/room"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/scoring"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
)

// Manager runs a Session for every player joined through the HTTP API. The
// API itself is stateless between requests, so the cooperative duties of the
// protocol, the self timeout penalty and host-driven advancement, need a
// long-lived loop somewhere; the manager co-locates that loop with the store.
type Manager struct {
	store   storage.Store
	rooms   room.ControllerInterface
	scoring scoring.LedgerInterface
	clock   clockwork.Clock
	logger  *slog.Logger

	mu      sync.Mutex
	running map[sessionKey]context.CancelFunc
}

type sessionKey struct {
	roomID model.RoomID
	player string
}

// NewManager creates a manager with no running sessions
func NewManager(
	store storage.Store,
	rooms room.ControllerInterface,
	ledger scoring.LedgerInterface,
	clk clockwork.Clock,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		store:   store,
		rooms:   rooms,
		scoring: ledger,
		clock:   clk,
		logger:  logger,
		running: make(map[sessionKey]context.CancelFunc),
	}
}

// Launch starts a session for the named player in the given room. A second
// launch for the same player is a no-op while the first is still running.
// The session stops on its own when the room finishes.
func (m *Manager) Launch(roomID model.RoomID, playerName string) {
	key := sessionKey{roomID: roomID, player: playerName}

	m.mu.Lock()
	if _, ok := m.running[key]; ok {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.running[key] = cancel
	m.mu.Unlock()

	session := NewSession(m.store, m.rooms, m.scoring, m.clock, m.logger, roomID, playerName)
	go func() {
		defer func() {
			cancel()
			m.mu.Lock()
			delete(m.running, key)
			m.mu.Unlock()
		}()

		err := session.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn("session stopped",
				slog.String("room_id", string(roomID)),
				slog.String("player", playerName),
				slog.String("error", err.Error()),
			)
			return
		}
		m.logger.Debug("session finished",
			slog.String("room_id", string(roomID)),
			slog.String("player", playerName),
		)
	}()
}

// Shutdown cancels every running session
func (m *Manager) Shutdown() {
	m.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(m.running))
	for _, cancel := range m.running {
		cancels = append(cancels, cancel)
	}
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
