package project

import (
	"context"
	"testing"

	"MediaScribe/internal/models"
	"MediaScribe/internal/timeline"
	apperrors "MediaScribe/pkg/errors"
	"MediaScribe/pkg/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	engine, err := search.New(search.Config{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return New(timeline.New(100), engine, zaptest.NewLogger(t))
}

func segs(texts ...string) []models.Segment {
	out := make([]models.Segment, len(texts))
	for i, txt := range texts {
		out[i] = models.Segment{
			ID:    string(rune('a' + i)),
			Range: models.TimeRange{Start: float64(i * 2), End: float64(i*2 + 2)},
			Text:  txt,
		}
	}
	return out
}

func TestRegisterMediaKeepsOrderAndIgnoresDuplicates(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.RegisterMedia(models.MediaAsset{ID: "m1", OriginalName: "a.mp4"}))
	require.NoError(t, s.RegisterMedia(models.MediaAsset{ID: "m2", OriginalName: "b.mp3"}))
	require.NoError(t, s.RegisterMedia(models.MediaAsset{ID: "m1", OriginalName: "changed.mp4"}))

	list := s.MediaList()
	require.Len(t, list, 2)
	assert.Equal(t, "a.mp4", list[0].OriginalName)
	assert.True(t, apperrors.IsCode(s.RegisterMedia(models.MediaAsset{}), apperrors.CodeValidation))
}

func TestApplyTranscriptBuildsCaptionsAndIndex(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	var notified []string
	s.OnTranscript(func(id string) { notified = append(notified, id) })

	require.NoError(t, s.ApplyTranscript(ctx, "m1", segs("welcome to the show", "goodbye now"), "en"))

	m, ok := s.Transcript("m1")
	require.True(t, ok)
	assert.Equal(t, "en", m.Language())

	tr, ok := s.Timeline().Track(CaptionTrackID("m1"))
	require.True(t, ok)
	assert.Equal(t, models.TrackCaption, tr.Kind)
	require.Len(t, tr.Clips, 2)
	assert.Equal(t, "m1:b", tr.Clips[1].ID)

	res, err := s.Search(ctx, search.SearchRequest{Query: "goodbye"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "b", res.Hits[0].SegmentID)
	assert.Equal(t, []string{"m1"}, notified)

	// a second transcript replaces captions and index entries
	require.NoError(t, s.ApplyTranscript(ctx, "m1", segs("only one"), "en"))
	tr, _ = s.Timeline().Track(CaptionTrackID("m1"))
	assert.Len(t, tr.Clips, 1)
	res, err = s.Search(ctx, search.SearchRequest{Query: "goodbye"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestApplyTranscriptInvalidLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.ApplyTranscript(ctx, "m1", segs("first"), "en"))

	bad := []models.Segment{
		{ID: "x", Range: models.TimeRange{Start: 0, End: 3}, Text: "x"},
		{ID: "y", Range: models.TimeRange{Start: 1, End: 2}, Text: "y"},
	}
	err := s.ApplyTranscript(ctx, "m1", bad, "fr")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	m, _ := s.Transcript("m1")
	assert.Equal(t, "en", m.Language())
	tr, _ := s.Timeline().Track(CaptionTrackID("m1"))
	require.Len(t, tr.Clips, 1)
	assert.Equal(t, "first", tr.Clips[0].Name)

	_, ok := s.Transcript("m2")
	assert.False(t, ok)
	assert.Error(t, s.ApplyTranscript(ctx, "m2", bad, ""))
	_, ok = s.Transcript("m2")
	assert.False(t, ok)
}

func TestApplyTranscriptCaptionConflictLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	tl := s.Timeline()

	_, err := tl.AddTrack(CaptionTrackID("m1"), models.TrackVideo, "#000000")
	require.NoError(t, err)
	err = s.ApplyTranscript(ctx, "m1", segs("hello world"), "en")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
	_, ok := s.Transcript("m1")
	assert.False(t, ok)

	_, err = tl.AddTrack("v", models.TrackVideo, "#3b82f6")
	require.NoError(t, err)
	require.NoError(t, tl.InsertClip("v", models.Clip{ID: "m2:a", Name: "taken", Range: models.TimeRange{Start: 20, End: 21}}))
	assert.Error(t, s.ApplyTranscript(ctx, "m2", segs("first"), "en"))
	_, ok = s.Transcript("m2")
	assert.False(t, ok)
	_, ok = tl.Track(CaptionTrackID("m2"))
	assert.False(t, ok, "caption track created for the failed apply is dropped")

	require.NoError(t, s.ApplyTranscript(ctx, "m3", segs("first"), "en"))
	require.NoError(t, tl.InsertClip("v", models.Clip{ID: "m3:b", Name: "taken", Range: models.TimeRange{Start: 30, End: 31}}))
	assert.Error(t, s.ApplyTranscript(ctx, "m3", segs("one", "two"), "fr"))
	m, ok := s.Transcript("m3")
	require.True(t, ok)
	assert.Equal(t, "en", m.Language())
	require.Len(t, m.Segments(), 1)
	tr, _ := tl.Track(CaptionTrackID("m3"))
	require.Len(t, tr.Clips, 1)
	assert.Equal(t, "first", tr.Clips[0].Name)
}

func TestSearchDisabled(t *testing.T) {
	s := New(nil, nil, nil)
	_, err := s.Search(context.Background(), search.SearchRequest{Query: "x"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestWordsFollowLaterTranscripts(t *testing.T) {
	s := newStore(t)
	w := s.Words("m1")

	_, ok := w.ActiveWordAt(0.5)
	assert.False(t, ok)
	_, err := w.WordTime("a", 0)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	require.NoError(t, s.RegisterMedia(models.MediaAsset{ID: "m1"}))
	require.NoError(t, s.ApplyTranscript(context.Background(), "m1", segs("hello there", "general kenobi"), "en"))

	ref, ok := w.ActiveWordAt(2.5)
	require.True(t, ok)
	assert.Equal(t, "general", ref.Word.Text)
	start, err := w.WordTime("b", 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, start)
}
