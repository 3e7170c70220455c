package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/internal/network"
)

func dial(t *testing.T, hub *Hub, streams string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(strings.Split(r.URL.Query().Get("streams"), ","), w, r)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?streams=" + streams
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitForSubscribers(t *testing.T, hub *Hub, stream string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers(stream) == n }, 2*time.Second, 5*time.Millisecond)
}

func TestHubSendsSnapshotThenBroadcasts(t *testing.T) {
	hub := NewHub()
	t.Cleanup(hub.Close)

	hub.SetSnapshot(StreamCache, func() any {
		return models.CacheMetadata{Version: "1.0.0", IsStale: true}
	})

	conn := dial(t, hub, "cache,unknown")
	snapshot := readMessage(t, conn)
	require.Equal(t, StreamCache, snapshot.Stream)
	require.Equal(t, EventSnapshot, snapshot.Event)

	waitForSubscribers(t, hub, StreamCache, 1)
	require.Equal(t, 0, hub.Subscribers("unknown"))

	hub.PublishCache(models.CacheMetadata{Version: "1.0.0"})
	update := readMessage(t, conn)
	require.Equal(t, EventMetadata, update.Event)
	data, ok := update.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, false, data["isStale"])
}

func TestHubControlMessages(t *testing.T) {
	hub := NewHub()
	t.Cleanup(hub.Close)

	conn := dial(t, hub, "")
	require.NoError(t, conn.WriteJSON(controlMessage{Action: "subscribe", Streams: []string{"Network"}}))
	waitForSubscribers(t, hub, StreamNetwork, 1)

	require.NoError(t, conn.WriteJSON(controlMessage{Action: "ping"}))
	require.Equal(t, "pong", readMessage(t, conn).Event)

	require.NoError(t, conn.WriteJSON(controlMessage{Action: "unsubscribe", Streams: []string{"network"}}))
	waitForSubscribers(t, hub, StreamNetwork, 0)
}

func TestForwardNetworkRelaysTransitions(t *testing.T) {
	hub := NewHub()
	t.Cleanup(hub.Close)

	monitor := network.NewMonitor(nil)
	forwarder := hub.ForwardNetwork(context.Background(), monitor)
	t.Cleanup(forwarder.Stop)

	conn := dial(t, hub, "network")
	snapshot := readMessage(t, conn)
	require.Equal(t, EventSnapshot, snapshot.Event)
	waitForSubscribers(t, hub, StreamNetwork, 1)

	monitor.SetOffline()
	update := readMessage(t, conn)
	require.Equal(t, StreamNetwork, update.Stream)
	require.Equal(t, EventStatus, update.Event)
	data, ok := update.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, false, data["isOnline"])
}

func TestCloseDisconnectsClients(t *testing.T) {
	hub := NewHub()
	conn := dial(t, hub, "cache")
	waitForSubscribers(t, hub, StreamCache, 1)

	hub.Close()
	waitForSubscribers(t, hub, StreamCache, 0)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}
