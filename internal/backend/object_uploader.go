package backend

import (
	"context"
	"path/filepath"
	"strings"

	apperrors "MediaScribe/pkg/errors"
	"MediaScribe/pkg/storage"

	"github.com/google/uuid"
)

// ObjectUploader puts media into an object store (MinIO in production) and
// hands the public object URL to the transcription backend.
type ObjectUploader struct {
	Store  storage.Store
	Prefix string // 对象路径前缀，例如 "media/"
}

func (u *ObjectUploader) UploadMedia(ctx context.Context, f File, onProgress ProgressFunc) (UploadResult, error) {
	id := uuid.NewString()
	key := u.Prefix + id + strings.ToLower(filepath.Ext(f.Name))

	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	if err := u.Store.Put(ctx, key, newProgressReader(f.Reader, f.Size, onProgress), f.Size, ct); err != nil {
		return UploadResult{}, apperrors.WrapCode(err, apperrors.CodeUploadFailure, "put media object")
	}
	return UploadResult{ID: id, URL: u.Store.PublicURL(key), Type: ct, Size: f.Size}, nil
}
