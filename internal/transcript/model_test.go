package transcript

import (
	"testing"

	"MediaScribe/internal/models"
	apperrors "MediaScribe/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(s, e float64) models.TimeRange { return models.TimeRange{Start: s, End: e} }

func helloWorld() []models.Segment {
	return []models.Segment{{
		ID:    "s1",
		Range: rng(0, 2),
		Text:  "hello world",
		Words: []models.Word{
			{Text: "hello", Range: rng(0, 1)},
			{Text: "world", Range: rng(1, 2)},
		},
	}}
}

func TestActiveWordAt(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.ReplaceAll(helloWorld(), "en"))

	w, ok := m.ActiveWordAt(0.5)
	require.True(t, ok)
	assert.Equal(t, "hello", w.Word.Text)

	w, ok = m.ActiveWordAt(1.5)
	require.True(t, ok)
	assert.Equal(t, "world", w.Word.Text)
	assert.Equal(t, "s1", w.SegmentID)
	assert.Equal(t, 1, w.WordIndex)

	w, ok = m.ActiveWordAt(1)
	require.True(t, ok)
	assert.Equal(t, "world", w.Word.Text, "boundary belongs to the later word")

	_, ok = m.ActiveWordAt(5)
	assert.False(t, ok)
	_, ok = m.ActiveWordAt(-1)
	assert.False(t, ok)
	_, ok = m.ActiveWordAt(2)
	assert.False(t, ok)
}

func TestActiveWordAtNeverReturnsWordOutsideRange(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.ReplaceAll([]models.Segment{
		{ID: "a", Range: rng(0, 3), Text: "one two three"},
		{ID: "b", Range: rng(5, 6), Words: []models.Word{{Text: "gap", Range: rng(5.2, 5.6)}}},
	}, ""))

	for i := 0; i <= 70; i++ {
		tt := float64(i) / 10
		if w, ok := m.ActiveWordAt(tt); ok {
			assert.True(t, w.Word.Range.Contains(tt), "t=%v word=%v", tt, w.Word.Range)
		}
	}
	_, ok := m.ActiveWordAt(4)
	assert.False(t, ok)
	_, ok = m.ActiveWordAt(5.1)
	assert.False(t, ok)
}

func TestReplaceAllSynthesizesWords(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.ReplaceAll([]models.Segment{{ID: "s", Range: rng(2, 5), Text: "a b c"}}, "en"))

	segs := m.Segments()
	require.Len(t, segs[0].Words, 3)
	assert.Equal(t, rng(2, 3), segs[0].Words[0].Range)
	assert.InDelta(t, 4, segs[0].Words[1].Range.End, 1e-9)
	assert.Equal(t, 5.0, segs[0].Words[2].Range.End)
	assert.True(t, segs[0].Words[1].Synthetic)

	w, ok := m.ActiveWordAt(3.5)
	require.True(t, ok)
	assert.Equal(t, "b", w.Word.Text)
}

func TestReplaceAllRejectsOverlapAndKeepsModel(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.ReplaceAll(helloWorld(), "en"))
	before := m.Version()

	err := m.ReplaceAll([]models.Segment{
		{ID: "a", Range: rng(0, 3), Text: "x"},
		{ID: "b", Range: rng(2, 4), Text: "y"},
	}, "fr")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	assert.Equal(t, before, m.Version())
	assert.Equal(t, "en", m.Language())
	assert.Equal(t, helloWorld()[0].Words, m.Segments()[0].Words)
}

func TestReplaceAllRejectsBadWords(t *testing.T) {
	cases := map[string][]models.Word{
		"overlapping words": {{Text: "a", Range: rng(0, 1.5)}, {Text: "b", Range: rng(1, 2)}},
		"outside segment":   {{Text: "a", Range: rng(0, 3)}},
		"inverted":          {{Text: "a", Range: rng(1, 0.5)}},
	}
	for name, words := range cases {
		t.Run(name, func(t *testing.T) {
			err := NewModel().ReplaceAll([]models.Segment{{ID: "s", Range: rng(0, 2), Words: words}}, "")
			assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
		})
	}
}

func TestReplaceAllRejectsDuplicateIDs(t *testing.T) {
	err := NewModel().ReplaceAll([]models.Segment{
		{ID: "s", Range: rng(0, 1), Text: "a"},
		{ID: "s", Range: rng(1, 2), Text: "b"},
	}, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestWordTimeAndTextFor(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.ReplaceAll(helloWorld(), "en"))

	ts, err := m.WordTime("s1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, ts)

	_, err = m.WordTime("s1", 2)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = m.WordTime("nope", 0)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	assert.Equal(t, "hello world", m.TextFor(rng(0, 2)))
	assert.Equal(t, "world", m.TextFor(rng(1, 1.2)))
	assert.Equal(t, "", m.TextFor(rng(3, 4)))
	assert.Equal(t, 2.0, m.Duration())
	assert.Equal(t, 2, m.WordCount())
}

func TestSegmentsReturnsCopy(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.ReplaceAll(helloWorld(), "en"))
	segs := m.Segments()
	segs[0].Words[0].Text = "mutated"

	w, ok := m.ActiveWordAt(0.1)
	require.True(t, ok)
	assert.Equal(t, "hello", w.Word.Text)
}
