package sse

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage/memory"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/testutil"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()
	t.Cleanup(hub.Close)
	return hub
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached %d clients", want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := newTestHub(t)

	first := NewClient(hub, "client-1")
	second := NewClient(hub, "client-2")
	hub.Register(first)
	hub.Register(second)
	waitForClients(t, hub, 2)

	hub.BroadcastEvent("players", `{"score":4}`)

	for _, client := range []*Client{first, second} {
		select {
		case msg := <-client.send:
			assert.Equal(t, "event: players\ndata: {\"score\":4}\n\n", string(msg))
		case <-time.After(time.Second):
			t.Fatalf("client %s received no message", client.id)
		}
	}
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := newTestHub(t)

	client := NewClient(hub, "client-1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Unregister(client)
	waitForClients(t, hub, 0)

	select {
	case _, open := <-client.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestHubCloseDisconnectsEveryone(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()

	client := NewClient(hub, "client-1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Close()

	select {
	case _, open := <-client.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestFormatSSEMessage(t *testing.T) {
	assert.Equal(t,
		"event: rooms\ndata: {\"a\":1}\n\n",
		string(formatSSEMessage("rooms", `{"a":1}`)))

	// Multi-line data gets one data: prefix per line
	assert.Equal(t,
		"event: rooms\ndata: line one\ndata: line two\n\n",
		string(formatSSEMessage("rooms", "line one\r\nline two")))

	assert.Equal(t,
		"event: ping\ndata: \n\n",
		string(formatSSEMessage("ping", "")))
}

// HubManager tests

func TestHubManagerReusesHubPerRoom(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	hub := manager.GetOrCreateHub("room-1")
	t.Cleanup(func() { manager.RemoveHub("room-1") })

	assert.Same(t, hub, manager.GetOrCreateHub("room-1"))
	assert.Same(t, hub, manager.GetHub("room-1"))
	assert.Nil(t, manager.GetHub("room-2"))
}

func TestHubManagerCleanupRemovesEmptyHubs(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	empty := manager.GetOrCreateHub("empty-room")
	busy := manager.GetOrCreateHub("busy-room")
	t.Cleanup(func() { manager.RemoveHub("busy-room") })

	client := NewClient(busy, "client-1")
	busy.Register(client)
	waitForClients(t, busy, 1)
	require.Equal(t, 0, empty.ClientCount())

	manager.CleanupEmptyHubs()

	assert.Nil(t, manager.GetHub("empty-room"))
	assert.Same(t, busy, manager.GetHub("busy-room"))
}

// Relay tests

func TestRelayForwardsStoreChangesToHub(t *testing.T) {
	store := memory.New()
	manager := NewHubManager(testutil.NopLogger())
	relay := NewRelay(store, manager, testutil.NopLogger())

	roomID := model.RoomID("room-1")
	relay.EnsureRunning(roomID)
	t.Cleanup(func() { relay.Stop(roomID) })

	hub := manager.GetHub(roomID)
	require.NotNil(t, hub)
	client := NewClient(hub, "client-1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	room := &model.Room{
		ID:     roomID,
		Code:   "ABC123",
		Status: model.RoomStatusWaiting,
	}
	require.NoError(t, store.SaveRoom(context.Background(), room))

	select {
	case msg := <-client.send:
		text := string(msg)
		require.True(t, strings.HasPrefix(text, "event: rooms\n"), "unexpected message: %q", text)

		var event model.ChangeEvent
		data := strings.TrimPrefix(strings.SplitN(text, "\n", 3)[1], "data: ")
		require.NoError(t, json.Unmarshal([]byte(data), &event))
		assert.Equal(t, model.CollectionRooms, event.Collection)
		assert.Equal(t, roomID, event.RoomID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event relayed")
	}
}

func TestRelayEnsureRunningIsIdempotent(t *testing.T) {
	store := memory.New()
	manager := NewHubManager(testutil.NopLogger())
	relay := NewRelay(store, manager, testutil.NopLogger())

	relay.EnsureRunning("room-1")
	relay.EnsureRunning("room-1")
	t.Cleanup(func() { relay.Stop("room-1") })

	hub := manager.GetHub("room-1")
	require.NotNil(t, hub)
	client := NewClient(hub, "client-1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	room := &model.Room{ID: "room-1", Code: "ABC123", Status: model.RoomStatusWaiting}
	require.NoError(t, store.SaveRoom(context.Background(), room))

	// One watcher set means exactly one forwarded event
	select {
	case <-client.send:
	case <-time.After(2 * time.Second):
		t.Fatal("no event relayed")
	}
	select {
	case msg := <-client.send:
		t.Fatalf("duplicate event relayed: %q", string(msg))
	case <-time.After(100 * time.Millisecond):
	}
}
