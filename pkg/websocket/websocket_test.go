package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubEchoAndBroadcast(t *testing.T) {
	received := make(chan Message, 1)
	hub := NewHub(nil, func(c *Connection, msg Message) {
		received <- msg
		reply, _ := NewMessage("ack", map[string]string{"type": msg.Type})
		_ = c.Send(reply)
	}, zaptest.NewLogger(t))
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, func(c *Connection) {
			hello, _ := NewMessage("hello", nil)
			_ = c.Send(hello)
		})
	}))
	defer srv.Close()

	conn := dial(t, srv)
	assert.Equal(t, "hello", readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: "tick", Data: json.RawMessage(`{"time":1.5}`)}))
	select {
	case msg := <-received:
		assert.Equal(t, "tick", msg.Type)
		assert.JSONEq(t, `{"time":1.5}`, string(msg.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
	assert.Equal(t, "ack", readMessage(t, conn).Type)

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)
	state, _ := NewMessage("state", map[string]float64{"currentTime": 3})
	require.NoError(t, hub.Broadcast(state))
	got := readMessage(t, conn)
	assert.Equal(t, "state", got.Type)
	assert.JSONEq(t, `{"currentTime":3}`, string(got.Data))

	conn.Close()
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}
