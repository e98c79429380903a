package listeners

import (
	"MediaScribe/internal/orchestrator"
	"MediaScribe/internal/project"

	"go.uber.org/zap"
)

// InitPipelineListeners connects the pipeline to the event fan-out and
// returns a func that detaches the snapshot subscription.
func InitPipelineListeners(o *orchestrator.Orchestrator, store *project.Store, pub Publisher, lg *zap.Logger) func() {
	p := NewSnapshotPublisher(pub, lg)
	store.OnTranscript(p.OnTranscript)
	return o.Subscribe(p.OnSnapshot)
}
