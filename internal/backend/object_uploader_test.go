package backend

import (
	"context"
	"io"
	"strings"
	"testing"

	"MediaScribe/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectUploaderStoresUnderUUIDKey(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "http://objects.local/bucket")
	require.NoError(t, err)
	u := &ObjectUploader{Store: store, Prefix: "media/"}

	var sent int64
	res, err := u.UploadMedia(context.Background(), File{
		Name: "Talk.MP3", ContentType: "audio/mpeg", Size: 5, Reader: strings.NewReader("hello"),
	}, func(n, _ int64) { sent = n })
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "http://objects.local/bucket/media/"+res.ID+".mp3", res.URL)
	assert.Equal(t, int64(5), sent)

	rc, size, err := store.Open(context.Background(), "media/"+res.ID+".mp3")
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, int64(5), size)
	assert.Equal(t, "hello", string(data))
}
