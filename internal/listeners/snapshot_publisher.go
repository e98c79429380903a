package listeners

import (
	"sync"

	"MediaScribe/internal/orchestrator"

	"go.uber.org/zap"
)

const (
	EventSnapshot   = "snapshot"
	EventTranscript = "transcript"
)

// Publisher is the fan-out the listeners write into, normally *sse.Hub.
type Publisher interface {
	PublishJSON(group, name string, v interface{}) error
}

// MediaGroup names the event group of one media.
func MediaGroup(mediaID string) string { return "media:" + mediaID }

// SnapshotPublisher forwards orchestrator snapshots to subscribers. A
// delivery older than the last one seen for the same session is dropped.
type SnapshotPublisher struct {
	pub Publisher
	lg  *zap.Logger

	mu   sync.Mutex
	last map[string]uint64 // key -> version
}

func NewSnapshotPublisher(pub Publisher, lg *zap.Logger) *SnapshotPublisher {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &SnapshotPublisher{pub: pub, lg: lg, last: make(map[string]uint64)}
}

func (p *SnapshotPublisher) OnSnapshot(s orchestrator.Snapshot) {
	p.mu.Lock()
	if s.Version <= p.last[s.Key] {
		p.mu.Unlock()
		return
	}
	p.last[s.Key] = s.Version
	if s.UploadKey != "" && s.UploadKey != s.Key {
		// uploads are rekeyed to their media id once acknowledged
		if s.Version > p.last[s.UploadKey] {
			p.last[s.UploadKey] = s.Version
		}
	}
	p.mu.Unlock()

	group := s.Key
	if s.MediaID != "" {
		group = MediaGroup(s.MediaID)
	}
	if err := p.pub.PublishJSON(group, EventSnapshot, s); err != nil {
		p.lg.Warn("publish snapshot failed", zap.String("key", s.Key), zap.Error(err))
	}
}

// OnTranscript announces a replaced transcript so clients refetch it.
func (p *SnapshotPublisher) OnTranscript(mediaID string) {
	payload := map[string]string{"mediaId": mediaID}
	if err := p.pub.PublishJSON(MediaGroup(mediaID), EventTranscript, payload); err != nil {
		p.lg.Warn("publish transcript failed", zap.String("media_id", mediaID), zap.Error(err))
	}
}
