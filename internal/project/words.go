package project

import (
	"MediaScribe/internal/transcript"
	apperrors "MediaScribe/pkg/errors"
)

// MediaWords resolves word lookups against whatever transcript mediaID has
// at call time, so a player loaded before transcription picks it up later.
type MediaWords struct {
	store   *Store
	mediaID string
}

func (s *Store) Words(mediaID string) *MediaWords {
	return &MediaWords{store: s, mediaID: mediaID}
}

func (w *MediaWords) ActiveWordAt(t float64) (transcript.WordRef, bool) {
	m, ok := w.store.Transcript(w.mediaID)
	if !ok {
		return transcript.WordRef{}, false
	}
	return m.ActiveWordAt(t)
}

func (w *MediaWords) WordTime(segmentID string, wordIndex int) (float64, error) {
	m, ok := w.store.Transcript(w.mediaID)
	if !ok {
		return 0, apperrors.WithCodef(apperrors.CodeNotFound, "media %s has no transcript", w.mediaID)
	}
	return m.WordTime(segmentID, wordIndex)
}
