package timeline

import (
	"math"
	"sort"
	"sync"

	"MediaScribe/internal/models"
	apperrors "MediaScribe/pkg/errors"
)

const DefaultPixelsPerSecond = 100.0

// overlapError reports a placement colliding with another clip on the same
// track.
func overlapError(trackID string, c, other models.Clip) error {
	return apperrors.WithCodef(apperrors.CodeOverlap,
		"clip %s %s overlaps clip %s %s on track %s", c.ID, c.Range, other.ID, other.Range, trackID).
		WithContext("track_id", trackID)
}

// Model owns tracks, clips and the time to pixel mapping of one project.
type Model struct {
	mu            sync.RWMutex
	pps           float64
	mediaDuration float64
	tracks        []*models.Track
	clipTrack     map[string]string // clip id -> track id
}

func New(pixelsPerSecond float64) *Model {
	if pixelsPerSecond <= 0 || math.IsNaN(pixelsPerSecond) || math.IsInf(pixelsPerSecond, 0) {
		pixelsPerSecond = DefaultPixelsPerSecond
	}
	return &Model{pps: pixelsPerSecond, clipTrack: make(map[string]string)}
}

// TimeToPosition maps seconds to pixels.
func (m *Model) TimeToPosition(t float64) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return t * m.pps
}

// PositionToTime maps pixels to seconds clamped to [0, Duration()].
func (m *Model) PositionToTime(x float64) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t := x / m.pps
	return math.Max(0, math.Min(t, m.duration()))
}

func (m *Model) PixelsPerSecond() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pps
}

func (m *Model) SetZoom(pps float64) error {
	if !(pps > 0) || math.IsInf(pps, 0) {
		return apperrors.WithCodef(apperrors.CodeValidation, "pixels per second must be positive, got %g", pps)
	}
	m.mu.Lock()
	m.pps = pps
	m.mu.Unlock()
	return nil
}

// SetDuration records the loaded media duration.
func (m *Model) SetDuration(d float64) error {
	if !(d >= 0) || math.IsInf(d, 0) {
		return apperrors.WithCodef(apperrors.CodeValidation, "duration must be finite and non-negative, got %g", d)
	}
	m.mu.Lock()
	m.mediaDuration = d
	m.mu.Unlock()
	return nil
}

// Duration is max(media duration, end of the last clip).
func (m *Model) Duration() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.duration()
}

func (m *Model) duration() float64 {
	d := m.mediaDuration
	for _, tr := range m.tracks {
		for _, c := range tr.Clips {
			if c.Range.End > d {
				d = c.Range.End
			}
		}
	}
	return d
}

// AddTrack registers an empty track. Adding an existing id with the same kind
// is a no-op.
func (m *Model) AddTrack(id string, kind models.TrackKind, color string) (models.Track, error) {
	if id == "" {
		return models.Track{}, apperrors.WithCode(apperrors.CodeValidation, "track id is required")
	}
	if !kind.Valid() {
		return models.Track{}, apperrors.WithCodef(apperrors.CodeValidation, "unknown track kind %q", kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if tr := m.track(id); tr != nil {
		if tr.Kind != kind {
			return models.Track{}, apperrors.WithCodef(apperrors.CodeConflict, "track %s already exists as %s", id, tr.Kind)
		}
		return copyTrack(tr), nil
	}
	tr := &models.Track{ID: id, Kind: kind, Color: color}
	m.tracks = append(m.tracks, tr)
	return copyTrack(tr), nil
}

func (m *Model) RemoveTrack(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, tr := range m.tracks {
		if tr.ID != id {
			continue
		}
		for _, c := range tr.Clips {
			delete(m.clipTrack, c.ID)
		}
		m.tracks = append(m.tracks[:i], m.tracks[i+1:]...)
		return nil
	}
	return apperrors.WithCodef(apperrors.CodeNotFound, "track %s not found", id)
}

// Tracks returns a deep copy of all tracks.
func (m *Model) Tracks() []models.Track {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Track, len(m.tracks))
	for i, tr := range m.tracks {
		out[i] = copyTrack(tr)
	}
	return out
}

func (m *Model) Track(id string) (models.Track, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tr := m.track(id)
	if tr == nil {
		return models.Track{}, false
	}
	return copyTrack(tr), true
}

// InsertClip places c on trackID, keeping clips sorted by start.
func (m *Model) InsertClip(trackID string, c models.Clip) error {
	if c.ID == "" {
		return apperrors.WithCode(apperrors.CodeValidation, "clip id is required")
	}
	if err := c.Range.Validate(); err != nil {
		return apperrors.Wrapf(err, "clip %s", c.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tr := m.track(trackID)
	if tr == nil {
		return apperrors.WithCodef(apperrors.CodeNotFound, "track %s not found", trackID)
	}
	if owner, ok := m.clipTrack[c.ID]; ok {
		return apperrors.WithCodef(apperrors.CodeConflict, "clip %s already on track %s", c.ID, owner)
	}
	if other, ok := findOverlap(tr.Clips, c, ""); ok {
		return overlapError(trackID, c, other)
	}
	tr.Clips = insertSorted(tr.Clips, c)
	m.clipTrack[c.ID] = trackID
	return nil
}

// MoveClip moves clipID to newStart on its own track, keeping its duration.
func (m *Model) MoveClip(clipID string, newStart float64) (models.Clip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tr, i := m.findClip(clipID)
	if tr == nil {
		return models.Clip{}, apperrors.WithCodef(apperrors.CodeNotFound, "clip %s not found", clipID)
	}
	moved := tr.Clips[i]
	r, err := moved.Range.Shift(newStart)
	if err != nil {
		return models.Clip{}, apperrors.Wrapf(err, "move clip %s", clipID)
	}
	moved.Range = r
	if other, ok := findOverlap(tr.Clips, moved, clipID); ok {
		return models.Clip{}, overlapError(tr.ID, moved, other)
	}
	rest := append(tr.Clips[:i:i], tr.Clips[i+1:]...)
	tr.Clips = insertSorted(rest, moved)
	return moved, nil
}

func (m *Model) RemoveClip(clipID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tr, i := m.findClip(clipID)
	if tr == nil {
		return apperrors.WithCodef(apperrors.CodeNotFound, "clip %s not found", clipID)
	}
	tr.Clips = append(tr.Clips[:i:i], tr.Clips[i+1:]...)
	delete(m.clipTrack, clipID)
	return nil
}

// ReplaceClips swaps the whole clip list of trackID after validating it.
// The track is left unchanged on error.
func (m *Model) ReplaceClips(trackID string, clips []models.Clip) error {
	sorted := append([]models.Clip(nil), clips...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Range.Start < sorted[j].Range.Start })

	m.mu.Lock()
	defer m.mu.Unlock()

	tr := m.track(trackID)
	if tr == nil {
		return apperrors.WithCodef(apperrors.CodeNotFound, "track %s not found", trackID)
	}
	ids := make(map[string]struct{}, len(sorted))
	// non-empty clip reaching furthest so far
	var widest *models.Clip
	for i, c := range sorted {
		if c.ID == "" {
			return apperrors.WithCode(apperrors.CodeValidation, "clip id is required")
		}
		if err := c.Range.Validate(); err != nil {
			return apperrors.Wrapf(err, "clip %s", c.ID)
		}
		if _, dup := ids[c.ID]; dup {
			return apperrors.WithCodef(apperrors.CodeConflict, "duplicate clip id %s", c.ID)
		}
		if owner, ok := m.clipTrack[c.ID]; ok && owner != trackID {
			return apperrors.WithCodef(apperrors.CodeConflict, "clip %s already on track %s", c.ID, owner)
		}
		ids[c.ID] = struct{}{}
		if c.Range.Duration() > 0 {
			if widest != nil && widest.Range.Overlaps(c.Range) {
				return overlapError(trackID, c, *widest)
			}
			if widest == nil || c.Range.End > widest.Range.End {
				widest = &sorted[i]
			}
		} else if other, ok := findOverlap(sorted[:i], c, ""); ok {
			return overlapError(trackID, c, other)
		}
	}

	for _, c := range tr.Clips {
		delete(m.clipTrack, c.ID)
	}
	for _, c := range sorted {
		m.clipTrack[c.ID] = trackID
	}
	tr.Clips = sorted
	return nil
}

// ActiveClip is a clip under the playhead.
type ActiveClip struct {
	TrackID string      `json:"trackId"`
	Clip    models.Clip `json:"clip"`
}

// ClipsAt returns, per track, the clip containing t.
func (m *Model) ClipsAt(t float64) []ActiveClip {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ActiveClip
	for _, tr := range m.tracks {
		for _, c := range tr.Clips {
			if c.Range.Start > t {
				break
			}
			if c.Range.Contains(t) {
				out = append(out, ActiveClip{TrackID: tr.ID, Clip: c})
				break
			}
		}
	}
	return out
}

func (m *Model) track(id string) *models.Track {
	for _, tr := range m.tracks {
		if tr.ID == id {
			return tr
		}
	}
	return nil
}

func (m *Model) findClip(clipID string) (*models.Track, int) {
	trackID, ok := m.clipTrack[clipID]
	if !ok {
		return nil, -1
	}
	tr := m.track(trackID)
	if tr == nil {
		return nil, -1
	}
	for i, c := range tr.Clips {
		if c.ID == clipID {
			return tr, i
		}
	}
	return nil, -1
}

func findOverlap(clips []models.Clip, c models.Clip, skipID string) (models.Clip, bool) {
	for _, other := range clips {
		if other.ID == skipID {
			continue
		}
		if other.Range.Overlaps(c.Range) {
			return other, true
		}
	}
	return models.Clip{}, false
}

func insertSorted(clips []models.Clip, c models.Clip) []models.Clip {
	i := sort.Search(len(clips), func(i int) bool { return clips[i].Range.Start > c.Range.Start })
	clips = append(clips, models.Clip{})
	copy(clips[i+1:], clips[i:])
	clips[i] = c
	return clips
}

func copyTrack(tr *models.Track) models.Track {
	out := *tr
	out.Clips = append([]models.Clip(nil), tr.Clips...)
	return out
}
