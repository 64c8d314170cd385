package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
)

// relayCollections are the collections forwarded to SSE clients
var relayCollections = []model.Collection{
	model.CollectionRooms,
	model.CollectionPlayers,
	model.CollectionQuestions,
	model.CollectionAnswers,
}

// Relay forwards store change events to a room's SSE hub. Each event is
// emitted as an SSE event named after its collection, with the change
// record as JSON data. Delivery inherits the store's best-effort
// semantics; clients are expected to poll as a backstop.
type Relay struct {
	watcher storage.Watcher
	manager *HubManager
	logger  *slog.Logger

	mu      sync.Mutex
	cancels map[model.RoomID]func()
}

// NewRelay creates a new Relay
func NewRelay(watcher storage.Watcher, manager *HubManager, logger *slog.Logger) *Relay {
	return &Relay{
		watcher: watcher,
		manager: manager,
		logger:  logger.With(slog.String("component", "sse_relay")),
	}
}

// EnsureRunning starts forwarding for a room if it isn't already
func (r *Relay) EnsureRunning(roomID model.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cancels[roomID]; ok {
		return
	}
	if r.cancels == nil {
		r.cancels = make(map[model.RoomID]func())
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancels[roomID] = cancel

	hub := r.manager.GetOrCreateHub(roomID)
	for _, collection := range relayCollections {
		events, release := r.watcher.Watch(ctx, collection, roomID)
		go r.pump(ctx, hub, events, release)
	}

	r.logger.Info("relay started", slog.String("room", string(roomID)))
}

// Stop halts forwarding for a room and removes its hub
func (r *Relay) Stop(roomID model.RoomID) {
	r.mu.Lock()
	cancel, ok := r.cancels[roomID]
	if ok {
		delete(r.cancels, roomID)
	}
	r.mu.Unlock()

	if ok {
		cancel()
		r.manager.RemoveHub(roomID)
		r.logger.Info("relay stopped", slog.String("room", string(roomID)))
	}
}

// pump forwards one watch stream into the hub until it closes
func (r *Relay) pump(ctx context.Context, hub *Hub, events <-chan model.ChangeEvent, release func()) {
	defer release()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				r.logger.Warn("event encode failed", slog.String("error", err.Error()))
				continue
			}
			hub.BroadcastEvent(string(event.Collection), string(data))
		}
	}
}
