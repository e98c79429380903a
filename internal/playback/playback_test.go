package playback

import (
	"math"
	"sync"
	"testing"

	"MediaScribe/internal/models"
	"MediaScribe/internal/timeline"
	"MediaScribe/internal/transcript"
	apperrors "MediaScribe/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlayer struct {
	mu    sync.Mutex
	calls []string
	seeks []float64
}

func (p *recordingPlayer) record(c string) {
	p.mu.Lock()
	p.calls = append(p.calls, c)
	p.mu.Unlock()
}

func (p *recordingPlayer) SeekTo(t float64) {
	p.mu.Lock()
	p.seeks = append(p.seeks, t)
	p.mu.Unlock()
	p.record("seek")
}
func (p *recordingPlayer) Play()             { p.record("play") }
func (p *recordingPlayer) Pause()            { p.record("pause") }
func (p *recordingPlayer) SetVolume(float64) { p.record("volume") }
func (p *recordingPlayer) SetMuted(bool)     { p.record("mute") }

func setup(t *testing.T) (*Sync, *recordingPlayer) {
	t.Helper()
	words := transcript.NewModel()
	require.NoError(t, words.ReplaceAll([]models.Segment{{
		ID:    "s1",
		Range: models.TimeRange{Start: 0, End: 2},
		Text:  "hello world",
		Words: []models.Word{
			{Text: "hello", Range: models.TimeRange{Start: 0, End: 1}},
			{Text: "world", Range: models.TimeRange{Start: 1, End: 2}},
		},
	}}, "en"))

	tl := timeline.New(100)
	_, err := tl.AddTrack("v", models.TrackVideo, "")
	require.NoError(t, err)
	require.NoError(t, tl.InsertClip("v", models.Clip{ID: "c1", Range: models.TimeRange{Start: 0, End: 10}}))

	p := &recordingPlayer{}
	s := New(tl, p)
	require.NoError(t, s.Load("m1", words, 10))
	p.calls, p.seeks = nil, nil
	return s, p
}

func TestSeekToWordWhilePlaying(t *testing.T) {
	s, p := setup(t)
	s.Play()

	st, err := s.SeekToWord("s1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, st.CurrentTime)
	assert.Equal(t, uint64(1), st.SeekVersion)
	assert.False(t, st.IsPlaying)
	assert.Equal(t, OriginUser, st.LastSeekOrigin)
	require.NotNil(t, st.ActiveWord)
	assert.Equal(t, "world", st.ActiveWord.Word.Text)

	assert.Equal(t, []string{"play", "pause", "seek"}, p.calls)
	assert.Equal(t, []float64{1}, p.seeks)
}

func TestTickDoesNotBumpSeekVersion(t *testing.T) {
	s, p := setup(t)
	_, err := s.Seek(0.2)
	require.NoError(t, err)

	st, err := s.Tick(0.5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.SeekVersion)
	assert.Equal(t, OriginPlayback, st.LastSeekOrigin)
	assert.Equal(t, "hello", st.ActiveWord.Word.Text)
	require.Len(t, st.ActiveClips, 1)

	st, err = s.Tick(5)
	require.NoError(t, err)
	assert.Nil(t, st.ActiveWord)
	assert.Equal(t, []string{"seek"}, p.calls, "ticks are not echoed to the player")
}

func TestSeekClampsToDuration(t *testing.T) {
	s, _ := setup(t)
	st, err := s.Seek(42)
	require.NoError(t, err)
	assert.Equal(t, 10.0, st.CurrentTime)

	st, err = s.Seek(-3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.CurrentTime)

	_, err = s.Seek(math.NaN())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestUnknownDurationPinsPlayheadAtZero(t *testing.T) {
	s := New(nil, nil)
	st, err := s.Tick(3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.CurrentTime)

	st, err = s.SetDuration(8)
	require.NoError(t, err)
	assert.Equal(t, 8.0, st.Duration)
	st, _ = s.Tick(3)
	assert.Equal(t, 3.0, st.CurrentTime)

	st, err = s.SetDuration(2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, st.CurrentTime)
}

func TestVolumeAndMute(t *testing.T) {
	s, p := setup(t)
	st, err := s.SetVolume(1.7)
	require.NoError(t, err)
	assert.Equal(t, 1.0, st.Volume)
	st, _ = s.SetVolume(-1)
	assert.Equal(t, 0.0, st.Volume)
	st = s.SetMuted(true)
	assert.True(t, st.Muted)
	assert.Equal(t, []string{"volume", "volume", "mute"}, p.calls)
}

func TestSeekToPosition(t *testing.T) {
	s, _ := setup(t)
	st, err := s.SeekToPosition(150)
	require.NoError(t, err)
	assert.Equal(t, 1.5, st.CurrentTime)
	assert.Equal(t, uint64(1), st.SeekVersion)
}

func TestSeekToWordWithoutTranscript(t *testing.T) {
	s := New(nil, nil)
	_, err := s.SeekToWord("s1", 0)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestSubscribeReceivesChanges(t *testing.T) {
	s, _ := setup(t)
	var got []State
	cancel := s.Subscribe(func(st State) { got = append(got, st) })

	s.Play()
	_, _ = s.Tick(1.2)
	cancel()
	s.Pause()

	require.Len(t, got, 2)
	assert.True(t, got[0].IsPlaying)
	assert.Less(t, got[0].Revision, got[1].Revision)
}
