package transcript

import (
	"bytes"
	"testing"

	"MediaScribe/internal/models"
	apperrors "MediaScribe/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportSegments() []models.Segment {
	return []models.Segment{
		{ID: "1", Range: rng(0, 5.23), Text: "Hello there."},
		{ID: "2", Range: rng(5.5, 3671.1), Text: "Second line."},
	}
}

func TestExportSRT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatSRT, exportSegments()))
	got := buf.String()
	assert.Contains(t, got, "1\n00:00:00,000 --> 00:00:05,230\nHello there.\n")
	assert.Contains(t, got, "\n2\n00:00:05,500 --> 01:01:11,100\nSecond line.\n")
}

func TestExportVTT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatVTT, exportSegments()))
	got := buf.String()
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("WEBVTT\n")))
	assert.Contains(t, got, "00:00:00.000 --> 00:00:05.230")
}

func TestExportText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatText, exportSegments()))
	assert.Equal(t, "[00:00:00] Hello there.\n[00:00:05] Second line.\n", buf.String())
}

func TestExportUnknownFormat(t *testing.T) {
	err := Export(&bytes.Buffer{}, "docx", nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}
