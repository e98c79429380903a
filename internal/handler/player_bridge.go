package handlers

import (
	"encoding/json"
	"net/http"

	"MediaScribe/internal/playback"
	"MediaScribe/pkg/websocket"

	"go.uber.org/zap"
)

// Messages exchanged with the browser media element.
const (
	MsgSeek     = "seek"
	MsgPlay     = "play"
	MsgPause    = "pause"
	MsgVolume   = "volume"
	MsgMute     = "mute"
	MsgState    = "state"
	MsgTick     = "tick"
	MsgDuration = "duration"
	MsgEnded    = "ended"
)

type playerPayload struct {
	Time     *float64 `json:"time,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`
	Muted    *bool    `json:"muted,omitempty"`
}

// PlayerBridge is the playback.Player of connected browsers. Commands are
// broadcast to every socket; reports from any socket drive the Sync.
type PlayerBridge struct {
	hub   *websocket.Hub
	sync  *playback.Sync
	lg    *zap.Logger
	unsub func()
}

func NewPlayerBridge(s *playback.Sync, cfg *websocket.Config, lg *zap.Logger) *PlayerBridge {
	if lg == nil {
		lg = zap.NewNop()
	}
	b := &PlayerBridge{sync: s, lg: lg}
	b.hub = websocket.NewHub(cfg, b.handle, lg)
	s.SetPlayer(b)
	b.unsub = s.Subscribe(func(st playback.State) { b.send(MsgState, st) })
	return b
}

func (b *PlayerBridge) SeekTo(t float64)    { b.send(MsgSeek, playerPayload{Time: &t}) }
func (b *PlayerBridge) Play()               { b.send(MsgPlay, nil) }
func (b *PlayerBridge) Pause()              { b.send(MsgPause, nil) }
func (b *PlayerBridge) SetVolume(v float64) { b.send(MsgVolume, playerPayload{Volume: &v}) }
func (b *PlayerBridge) SetMuted(m bool)     { b.send(MsgMute, playerPayload{Muted: &m}) }

func (b *PlayerBridge) Connections() int { return b.hub.ConnectionCount() }

// Serve upgrades r and sends the current state first.
func (b *PlayerBridge) Serve(w http.ResponseWriter, r *http.Request) {
	b.hub.Serve(w, r, func(conn *websocket.Connection) {
		msg, err := websocket.NewMessage(MsgState, b.sync.State())
		if err == nil {
			_ = conn.Send(msg)
		}
	})
}

func (b *PlayerBridge) Close() {
	b.sync.SetPlayer(nil)
	b.unsub()
	b.hub.Close()
}

func (b *PlayerBridge) send(typ string, data interface{}) {
	msg, err := websocket.NewMessage(typ, data)
	if err != nil {
		b.lg.Warn("encode player message failed", zap.String("type", typ), zap.Error(err))
		return
	}
	if err := b.hub.Broadcast(msg); err != nil {
		b.lg.Warn("broadcast player message failed", zap.String("type", typ), zap.Error(err))
	}
}

func (b *PlayerBridge) handle(conn *websocket.Connection, msg websocket.Message) {
	var p playerPayload
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			b.lg.Debug("bad player payload", zap.String("conn_id", conn.ID), zap.Error(err))
			return
		}
	}

	var err error
	switch msg.Type {
	case MsgTick:
		if p.Time != nil {
			_, err = b.sync.Tick(*p.Time)
		}
	case MsgDuration:
		if p.Duration != nil {
			_, err = b.sync.SetDuration(*p.Duration)
		}
	case MsgSeek:
		if p.Time != nil {
			_, err = b.sync.Seek(*p.Time)
		}
	case MsgPlay:
		b.sync.Play()
	case MsgPause, MsgEnded:
		b.sync.Pause()
	case MsgVolume:
		if p.Volume != nil {
			_, err = b.sync.SetVolume(*p.Volume)
		}
	case MsgMute:
		if p.Muted != nil {
			b.sync.SetMuted(*p.Muted)
		}
	default:
		b.lg.Debug("unknown player message", zap.String("type", msg.Type))
	}
	if err != nil {
		b.lg.Debug("player report rejected", zap.String("type", msg.Type), zap.Error(err))
	}
}
