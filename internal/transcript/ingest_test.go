package transcript

import (
	"encoding/json"
	"testing"

	apperrors "MediaScribe/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAcceptsAlternateFieldNames(t *testing.T) {
	payload := `[
		{"id": 7, "start_time": 0, "end_time": "2", "text": " hello world ",
		 "words": [{"word": "hello", "startTime": 0, "endTime": 1}, {"text": "world", "start": 1, "end": 2}]},
		{"id": "b", "startTime": 2.5, "endTime": 4, "text": "no timing", "words": [{"word": "no"}, {"word": "timing"}]}
	]`
	var raw []RawSegment
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	segs, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, segs, 2)

	assert.Equal(t, "7", segs[0].ID)
	assert.Equal(t, "hello world", segs[0].Text)
	assert.Equal(t, 2.0, segs[0].Range.End)
	require.Len(t, segs[0].Words, 2)
	assert.Equal(t, "hello", segs[0].Words[0].Text)
	assert.Equal(t, 1.0, segs[0].Words[1].Range.Start)

	assert.Empty(t, segs[1].Words, "untimed words fall back to synthesis")

	m := NewModel()
	require.NoError(t, m.ReplaceAll(segs, "en"))
	w, ok := m.ActiveWordAt(3.5)
	require.True(t, ok)
	assert.Equal(t, "timing", w.Word.Text)
}

func TestNormalizeRejectsMissingTiming(t *testing.T) {
	_, err := Normalize([]RawSegment{{Text: strPtr("x")}})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = Normalize([]RawSegment{{Start: 1.0}})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = Normalize([]RawSegment{{Start: "soon", End: 2.0}})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func strPtr(s string) *string { return &s }
