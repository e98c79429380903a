package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message 定义WebSocket消息结构
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// NewMessage encodes data into a message of type typ.
func NewMessage(typ string, data interface{}) (*Message, error) {
	m := &Message{Type: typ, Timestamp: time.Now().UnixMilli()}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		m.Data = b
	}
	return m, nil
}

// HandlerFunc handles one inbound message. It runs on the connection's read
// goroutine.
type HandlerFunc func(conn *Connection, msg Message)

// Config WebSocket配置
type Config struct {
	// 心跳间隔
	HeartbeatInterval time.Duration
	// 连接超时时间
	ConnectionTimeout time.Duration
	// 消息缓冲区大小
	MessageBufferSize int
	ReadBufferSize    int
	WriteBufferSize   int
	// 最大消息大小
	MaxMessageSize int
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		HeartbeatInterval: 30 * time.Second,
		ConnectionTimeout: 60 * time.Second,
		MessageBufferSize: 64,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		MaxMessageSize:    64 * 1024,
	}
}

// Connection 表示一个WebSocket连接
type Connection struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
	once sync.Once
}

// Hub 管理所有WebSocket连接
type Hub struct {
	config  *Config
	handler HandlerFunc
	lg      *zap.Logger

	mu          sync.RWMutex
	connections map[string]*Connection

	register   chan *Connection
	unregister chan *Connection
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewHub(config *Config, handler HandlerFunc, lg *zap.Logger) *Hub {
	if config == nil {
		config = DefaultConfig()
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		config:      config,
		handler:     handler,
		lg:          lg,
		connections: make(map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			h.mu.Lock()
			for id, c := range h.connections {
				c.closeSend()
				delete(h.connections, id)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.connections[c.ID] = c
			h.mu.Unlock()
			h.lg.Debug("websocket connected", zap.String("conn_id", c.ID))
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[c.ID]; ok {
				delete(h.connections, c.ID)
				c.closeSend()
			}
			h.mu.Unlock()
			h.lg.Debug("websocket disconnected", zap.String("conn_id", c.ID))
		}
	}
}

// ConnectionCount 获取连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Broadcast sends msg to every connection. Full send buffers drop the frame.
func (h *Hub) Broadcast(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connections {
		select {
		case c.send <- data:
		default:
			h.lg.Warn("websocket send buffer full, dropping", zap.String("conn_id", c.ID), zap.String("type", msg.Type))
		}
	}
	return nil
}

// Close disconnects everyone and stops the hub.
func (h *Hub) Close() {
	h.cancel()
	h.wg.Wait()
}

func (h *Hub) unregisterConn(c *Connection) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}
