package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir(), "/api/preview")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "abc/clip.mp4", strings.NewReader("frames"), 6, "video/mp4"))

	rc, size, err := s.Open(ctx, "abc/clip.mp4")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, int64(6), size)
	assert.Equal(t, "frames", string(data))
	assert.Equal(t, "/api/preview/abc/clip.mp4", s.PublicURL("abc/clip.mp4"))

	require.NoError(t, s.Delete(ctx, "abc/clip.mp4"))
	require.NoError(t, s.Delete(ctx, "abc/clip.mp4"))
	_, _, err = s.Open(ctx, "abc/clip.mp4")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	err = s.Put(context.Background(), "../outside", strings.NewReader("x"), 1, "")
	assert.Error(t, err)
	_, err = s.Path("")
	assert.Error(t, err)
}
