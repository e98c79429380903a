package project

import (
	"context"
	"sync"
	"time"

	"MediaScribe/internal/models"
	"MediaScribe/internal/timeline"
	"MediaScribe/internal/transcript"
	apperrors "MediaScribe/pkg/errors"
	"MediaScribe/pkg/search"

	"go.uber.org/zap"
)

const (
	captionTrackPrefix = "captions:"
	captionColor       = "#f59e0b"
	indexTimeout       = 10 * time.Second
)

// CaptionTrackID is the timeline track holding a media's transcript segments.
func CaptionTrackID(mediaID string) string {
	return captionTrackPrefix + mediaID
}

// Store owns the project state: media list, transcripts, timeline and the
// transcript search index.
type Store struct {
	mu          sync.RWMutex
	media       []models.MediaAsset
	byID        map[string]int
	transcripts map[string]*transcript.Model
	listeners   []func(mediaID string)

	timeline *timeline.Model
	search   search.Engine
	lg       *zap.Logger
}

// New builds a store. engine may be nil, which disables search.
func New(tl *timeline.Model, engine search.Engine, lg *zap.Logger) *Store {
	if tl == nil {
		tl = timeline.New(timeline.DefaultPixelsPerSecond)
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Store{
		byID:        make(map[string]int),
		transcripts: make(map[string]*transcript.Model),
		timeline:    tl,
		search:      engine,
		lg:          lg,
	}
}

func (s *Store) Timeline() *timeline.Model { return s.timeline }

// RegisterMedia adds asset to the media list. Assets are immutable, so a
// second registration of the same id is ignored.
func (s *Store) RegisterMedia(asset models.MediaAsset) error {
	if asset.ID == "" {
		return apperrors.WithCode(apperrors.CodeValidation, "media id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[asset.ID]; ok {
		return nil
	}
	s.byID[asset.ID] = len(s.media)
	s.media = append(s.media, asset)
	return nil
}

func (s *Store) Media(id string) (models.MediaAsset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return models.MediaAsset{}, false
	}
	return s.media[i], true
}

// MediaList returns assets in registration order.
func (s *Store) MediaList() []models.MediaAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MediaAsset(nil), s.media...)
}

func (s *Store) Transcript(mediaID string) (*transcript.Model, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.transcripts[mediaID]
	return m, ok
}

// OnTranscript registers fn to run after a transcript was replaced.
func (s *Store) OnTranscript(fn func(mediaID string)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// ApplyTranscript replaces the transcript of mediaID, rebuilds its caption
// track and reindexes it for search. Nothing changes when segments are
// invalid or the caption track cannot take them. Search indexing failures are
// only logged.
func (s *Store) ApplyTranscript(ctx context.Context, mediaID string, segments []models.Segment, language string) error {
	staged := transcript.NewModel()
	if err := staged.ReplaceAll(segments, language); err != nil {
		return err
	}
	segs := staged.Segments()

	s.mu.Lock()
	if err := s.rebuildCaptions(mediaID, segs); err != nil {
		s.mu.Unlock()
		return apperrors.Wrapf(err, "rebuild captions for %s", mediaID)
	}
	if model, ok := s.transcripts[mediaID]; ok {
		// segs already passed validation
		if err := model.ReplaceAll(segs, language); err != nil {
			s.mu.Unlock()
			return err
		}
	} else {
		s.transcripts[mediaID] = staged
	}
	listeners := make([]func(string), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	s.reindex(ctx, mediaID, segs)

	for _, fn := range listeners {
		fn(mediaID)
	}
	return nil
}

// rebuildCaptions swaps the caption clips of mediaID. A caption track created
// here is removed again when the clips are rejected.
func (s *Store) rebuildCaptions(mediaID string, segs []models.Segment) error {
	trackID := CaptionTrackID(mediaID)
	_, existed := s.timeline.Track(trackID)
	if _, err := s.timeline.AddTrack(trackID, models.TrackCaption, captionColor); err != nil {
		return err
	}
	clips := make([]models.Clip, 0, len(segs))
	for _, seg := range segs {
		clips = append(clips, models.Clip{
			ID:    mediaID + ":" + seg.ID,
			Name:  seg.Text,
			Range: seg.Range,
		})
	}
	if err := s.timeline.ReplaceClips(trackID, clips); err != nil {
		if !existed {
			_ = s.timeline.RemoveTrack(trackID)
		}
		return err
	}
	return nil
}

func (s *Store) reindex(ctx context.Context, mediaID string, segs []models.Segment) {
	if s.search == nil {
		return
	}
	docs := make([]search.SegmentDoc, 0, len(segs))
	for _, seg := range segs {
		docs = append(docs, search.SegmentDoc{
			MediaID:   mediaID,
			SegmentID: seg.ID,
			Text:      seg.Text,
			Start:     seg.Range.Start,
			End:       seg.Range.End,
		})
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()
	if err := s.search.ReplaceMedia(ctx, mediaID, docs); err != nil {
		s.lg.Warn("reindex transcript failed", zap.String("media_id", mediaID), zap.Error(err))
	}
}

// Search queries the transcript index.
func (s *Store) Search(ctx context.Context, req search.SearchRequest) (search.SearchResult, error) {
	if s.search == nil {
		return search.SearchResult{}, apperrors.WithCode(apperrors.CodeNotFound, "search is disabled")
	}
	return s.search.Search(ctx, req)
}
