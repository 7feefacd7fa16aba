package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/arena/go/internal/models"
)

func newTestGateway(t *testing.T) (*Service, *httptest.Server) {
	t.Helper()
	svc := NewService(DefaultConnectionConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Start(ctx)

	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return svc, srv
}

func testView(seq uint64, status string) models.View {
	v := models.NewView("Alpha", "Beta")
	v.Seq = seq
	v.Status = status
	v.RunState = models.RunStateRunning
	v.Game, v.TotalGames = 1, 2
	v.Board = models.Board{"B2": models.MarkX}
	return v
}

func readEvent(t *testing.T, conn *websocket.Conn) MatchEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event MatchEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestService_ViewEndpoint(t *testing.T) {
	svc, srv := newTestGateway(t)

	resp, err := http.Get(srv.URL + "/api/view")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	svc.Render(testView(3, "Alpha's turn..."))
	svc.RenderTimer(models.AgentA, "1.2s")

	resp, err = http.Get(srv.URL + "/api/view")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var view models.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, uint64(3), view.Seq)
	assert.Equal(t, "Alpha's turn...", view.Status)
	assert.Equal(t, models.MarkX, view.Board.At("B2"))
	assert.Equal(t, "1.2s", view.A.Timer)
	assert.Equal(t, models.TimerZero, view.B.Timer)
}

func TestService_Health(t *testing.T) {
	_, srv := newTestGateway(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://viewer.local")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestService_StreamsSnapshotsAndTimers(t *testing.T) {
	svc, srv := newTestGateway(t)
	svc.Render(testView(1, "Game 1 of 2"))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/match"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readEvent(t, conn)
	assert.Equal(t, EventTypeSnapshot, initial.Type)
	assert.Equal(t, uint64(1), initial.Seq)

	require.Eventually(t, func() bool { return svc.ConnectionCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	svc.Render(testView(2, "Alpha's turn..."))
	snapshot := readEvent(t, conn)
	for snapshot.Seq < 2 {
		// the first render may still have been in the broadcast queue at connect time
		snapshot = readEvent(t, conn)
	}
	assert.Equal(t, EventTypeSnapshot, snapshot.Type)
	assert.Equal(t, uint64(2), snapshot.Seq)

	var view models.View
	require.NoError(t, json.Unmarshal(snapshot.Data, &view))
	assert.Equal(t, "Alpha's turn...", view.Status)
	assert.Equal(t, "Beta", view.B.Name)

	svc.RenderTimer(models.AgentA, "0.3s")
	tick := readEvent(t, conn)
	assert.Equal(t, EventTypeTimer, tick.Type)
	assert.Equal(t, uint64(2), tick.Seq)

	var payload TimerPayload
	require.NoError(t, json.Unmarshal(tick.Data, &payload))
	assert.Equal(t, TimerPayload{Agent: models.AgentA, Readout: "0.3s"}, payload)
}

func TestConnectionManager_DropsSlowConnections(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	// a registered connection whose write pump never runs
	registered := make(chan *Connection, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := cm.upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		conn := &Connection{ID: "stalled", Conn: ws, Send: make(chan []byte, 1), Manager: cm, ConnectedAt: time.Now()}
		cm.registerConnection(conn)
		registered <- conn
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()
	stalled := <-registered

	event, err := NewTimerEvent(1, models.AgentA, "0.1s")
	require.NoError(t, err)

	cm.handleBroadcast(event)
	assert.Equal(t, 1, cm.ConnectionCount())
	assert.Len(t, stalled.Send, 1)

	cm.handleBroadcast(event)
	assert.Equal(t, 0, cm.ConnectionCount())
}

func TestConnectionManager_ZeroSendBufferUsesDefault(t *testing.T) {
	config := DefaultConnectionConfig()
	config.SendBufferSize = 0
	cm := NewConnectionManager(config)

	initial, err := NewSnapshotEvent(testView(5, "Game 1 of 2"))
	require.NoError(t, err)

	upgraded := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgraded <- cm.UpgradeConnection(w, r, initial)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case err := <-upgraded:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("upgrade did not return")
	}

	event := readEvent(t, conn)
	assert.Equal(t, EventTypeSnapshot, event.Type)
	assert.Equal(t, uint64(5), event.Seq)
}
