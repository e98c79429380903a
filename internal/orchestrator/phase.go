package orchestrator

import (
	apperrors "MediaScribe/pkg/errors"
)

// Phase is the lifecycle state of one media's pipeline.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseUploading    Phase = "uploading"
	PhaseExtracting   Phase = "extracting"
	PhaseTranscribing Phase = "transcribing"
	PhaseCompleted    Phase = "completed"
	PhaseError        Phase = "error"
	PhaseTimedOut     Phase = "timed_out"
)

// edges lists every legal transition. Idle has three entry points: a new
// upload, a retranscription of an uploaded asset, and resuming a known job.
var edges = map[Phase][]Phase{
	PhaseIdle:         {PhaseUploading, PhaseExtracting, PhaseTranscribing},
	PhaseUploading:    {PhaseExtracting, PhaseError},
	PhaseExtracting:   {PhaseTranscribing, PhaseError},
	PhaseTranscribing: {PhaseCompleted, PhaseError, PhaseTimedOut},
}

func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseError || p == PhaseTimedOut
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Phase) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to Phase) error {
	if !CanTransition(from, to) {
		return apperrors.WithCodef(apperrors.CodeConflict, "illegal phase transition %s -> %s", from, to)
	}
	return nil
}
