package playback

import (
	"math"
	"sync"

	"MediaScribe/internal/timeline"
	"MediaScribe/internal/transcript"
	apperrors "MediaScribe/pkg/errors"
)

type Origin string

const (
	OriginUser     Origin = "user"
	OriginPlayback Origin = "playback"
)

// Player is the external media element. Calls are made outside the sync lock.
type Player interface {
	SeekTo(t float64)
	Play()
	Pause()
	SetVolume(v float64)
	SetMuted(muted bool)
}

// WordIndex answers word lookups for the loaded media.
type WordIndex interface {
	ActiveWordAt(t float64) (transcript.WordRef, bool)
	WordTime(segmentID string, wordIndex int) (float64, error)
}

// ClipIndex answers playhead lookups on the timeline.
type ClipIndex interface {
	ClipsAt(t float64) []timeline.ActiveClip
	PositionToTime(x float64) float64
}

// State is a copy of the playhead.
type State struct {
	MediaID        string                `json:"mediaId,omitempty"`
	CurrentTime    float64               `json:"currentTime"`
	Duration       float64               `json:"duration"`
	IsPlaying      bool                  `json:"isPlaying"`
	LastSeekOrigin Origin                `json:"lastSeekOrigin"`
	SeekVersion    uint64                `json:"seekVersion"`
	Volume         float64               `json:"volume"`
	Muted          bool                  `json:"muted"`
	ActiveWord     *transcript.WordRef   `json:"activeWord,omitempty"`
	ActiveClips    []timeline.ActiveClip `json:"activeClips,omitempty"`
	// Revision increases on every change so subscribers can drop stale copies.
	Revision uint64 `json:"revision"`
}

type nopPlayer struct{}

func (nopPlayer) SeekTo(float64)    {}
func (nopPlayer) Play()             {}
func (nopPlayer) Pause()            {}
func (nopPlayer) SetVolume(float64) {}
func (nopPlayer) SetMuted(bool)     {}

// Sync is the single writer of the playhead.
type Sync struct {
	mu     sync.Mutex
	st     State
	words  WordIndex
	clips  ClipIndex
	player Player
	subs   map[int]func(State)
	nextID int
}

func New(clips ClipIndex, player Player) *Sync {
	if player == nil {
		player = nopPlayer{}
	}
	return &Sync{
		st:     State{Volume: 1, LastSeekOrigin: OriginPlayback},
		clips:  clips,
		player: player,
		subs:   make(map[int]func(State)),
	}
}

func (s *Sync) SetPlayer(p Player) {
	if p == nil {
		p = nopPlayer{}
	}
	s.mu.Lock()
	s.player = p
	s.mu.Unlock()
}

// Load switches to another media. The playhead returns to zero and pauses.
func (s *Sync) Load(mediaID string, words WordIndex, duration float64) error {
	if err := checkFinite(duration, "duration"); err != nil || duration < 0 {
		return apperrors.WithCodef(apperrors.CodeValidation, "invalid duration %g", duration)
	}
	s.mu.Lock()
	wasPlaying := s.st.IsPlaying
	s.words = words
	s.st.MediaID = mediaID
	s.st.Duration = duration
	s.st.CurrentTime = 0
	s.st.IsPlaying = false
	s.refresh()
	st, p := s.commit()
	s.mu.Unlock()

	if wasPlaying {
		p.Pause()
	}
	p.SeekTo(0)
	s.publish(st)
	return nil
}

// Seek is a user initiated jump: it pauses and bumps SeekVersion.
func (s *Sync) Seek(t float64) (State, error) {
	if err := checkFinite(t, "seek time"); err != nil {
		return State{}, err
	}
	s.mu.Lock()
	wasPlaying := s.st.IsPlaying
	s.st.CurrentTime = s.clamp(t)
	s.st.SeekVersion++
	s.st.IsPlaying = false
	s.st.LastSeekOrigin = OriginUser
	s.refresh()
	st, p := s.commit()
	s.mu.Unlock()

	if wasPlaying {
		p.Pause()
	}
	p.SeekTo(st.CurrentTime)
	s.publish(st)
	return st, nil
}

// Tick records the position reported by the player during natural playback.
func (s *Sync) Tick(t float64) (State, error) {
	if err := checkFinite(t, "tick time"); err != nil {
		return State{}, err
	}
	s.mu.Lock()
	s.st.CurrentTime = s.clamp(t)
	s.st.LastSeekOrigin = OriginPlayback
	s.refresh()
	st, _ := s.commit()
	s.mu.Unlock()

	s.publish(st)
	return st, nil
}

func (s *Sync) Play() State {
	s.mu.Lock()
	s.st.IsPlaying = true
	st, p := s.commit()
	s.mu.Unlock()

	p.Play()
	s.publish(st)
	return st
}

func (s *Sync) Pause() State {
	s.mu.Lock()
	s.st.IsPlaying = false
	st, p := s.commit()
	s.mu.Unlock()

	p.Pause()
	s.publish(st)
	return st
}

// SetVolume clamps v to [0, 1].
func (s *Sync) SetVolume(v float64) (State, error) {
	if math.IsNaN(v) {
		return State{}, apperrors.WithCode(apperrors.CodeValidation, "volume is not a number")
	}
	v = math.Max(0, math.Min(1, v))
	s.mu.Lock()
	s.st.Volume = v
	st, p := s.commit()
	s.mu.Unlock()

	p.SetVolume(v)
	s.publish(st)
	return st, nil
}

func (s *Sync) SetMuted(muted bool) State {
	s.mu.Lock()
	s.st.Muted = muted
	st, p := s.commit()
	s.mu.Unlock()

	p.SetMuted(muted)
	s.publish(st)
	return st
}

// SetDuration records the media duration reported by the player.
func (s *Sync) SetDuration(d float64) (State, error) {
	if err := checkFinite(d, "duration"); err != nil {
		return State{}, err
	}
	if d < 0 {
		return State{}, apperrors.WithCodef(apperrors.CodeValidation, "negative duration %g", d)
	}
	s.mu.Lock()
	s.st.Duration = d
	s.st.CurrentTime = s.clamp(s.st.CurrentTime)
	s.refresh()
	st, _ := s.commit()
	s.mu.Unlock()

	s.publish(st)
	return st, nil
}

// SeekToWord seeks to the start of a transcript word.
func (s *Sync) SeekToWord(segmentID string, wordIndex int) (State, error) {
	s.mu.Lock()
	words := s.words
	s.mu.Unlock()
	if words == nil {
		return State{}, apperrors.WithCode(apperrors.CodeNotFound, "no transcript loaded")
	}
	t, err := words.WordTime(segmentID, wordIndex)
	if err != nil {
		return State{}, err
	}
	return s.Seek(t)
}

// SeekToPosition seeks to a timeline click at pixel x.
func (s *Sync) SeekToPosition(x float64) (State, error) {
	if err := checkFinite(x, "position"); err != nil {
		return State{}, err
	}
	if s.clips == nil {
		return State{}, apperrors.WithCode(apperrors.CodeNotFound, "no timeline")
	}
	return s.Seek(s.clips.PositionToTime(x))
}

// Refresh recomputes active word and clips, e.g. after the transcript changed.
func (s *Sync) Refresh() State {
	s.mu.Lock()
	s.refresh()
	st, _ := s.commit()
	s.mu.Unlock()
	s.publish(st)
	return st
}

func (s *Sync) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn for state changes and returns its cancel func.
func (s *Sync) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Sync) clamp(t float64) float64 {
	return math.Max(0, math.Min(t, s.st.Duration))
}

func (s *Sync) refresh() {
	s.st.ActiveWord = nil
	if s.words != nil {
		if w, ok := s.words.ActiveWordAt(s.st.CurrentTime); ok {
			s.st.ActiveWord = &w
		}
	}
	s.st.ActiveClips = nil
	if s.clips != nil {
		s.st.ActiveClips = s.clips.ClipsAt(s.st.CurrentTime)
	}
}

func (s *Sync) commit() (State, Player) {
	s.st.Revision++
	return s.snapshot(), s.player
}

func (s *Sync) snapshot() State {
	st := s.st
	if st.ActiveWord != nil {
		w := *st.ActiveWord
		st.ActiveWord = &w
	}
	st.ActiveClips = append([]timeline.ActiveClip(nil), s.st.ActiveClips...)
	return st
}

func (s *Sync) publish(st State) {
	s.mu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

func checkFinite(v float64, what string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return apperrors.WithCodef(apperrors.CodeValidation, "%s must be finite", what)
	}
	return nil
}
