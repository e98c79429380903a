package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// newUpgrader 根据配置创建WebSocket升级器
func newUpgrader(cfg *Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Serve upgrades the request and pumps messages until the peer goes away.
// onOpen runs after registration and may send an initial message.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, onOpen func(*Connection)) {
	upgrader := newUpgrader(h.config)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.lg.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &Connection{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.config.MessageBufferSize),
		hub:  h,
	}
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		conn.Close()
		return
	}
	if onOpen != nil {
		onOpen(c)
	}

	go c.writePump()
	c.readPump()
}

// Send queues msg for this connection only.
func (c *Connection) Send(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	defer func() { _ = recover() }() // send on a connection closed concurrently
	select {
	case c.send <- data:
	default:
	}
	return nil
}

func (c *Connection) closeSend() {
	c.once.Do(func() { close(c.send) })
}

// readPump 读取消息的协程
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregisterConn(c)
		c.conn.Close()
	}()

	cfg := c.hub.config
	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.ConnectionTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.ConnectionTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.lg.Warn("websocket read failed", zap.String("conn_id", c.ID), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(cfg.ConnectionTimeout))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.lg.Debug("websocket bad message", zap.String("conn_id", c.ID), zap.Error(err))
			continue
		}
		if c.hub.handler != nil {
			c.hub.handler(c, msg)
		}
	}
}

// writePump 发送消息的协程
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
