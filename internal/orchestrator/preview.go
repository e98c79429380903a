package orchestrator

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"MediaScribe/pkg/storage"

	"github.com/google/uuid"
)

// StorePreviewer keeps previews in a storage.Store, normally the local
// upload directory served under /api/preview.
type StorePreviewer struct {
	Store storage.Store
}

func (p StorePreviewer) Open(ctx context.Context, name, contentType string, r io.Reader, size int64) (Preview, error) {
	handle := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	if err := p.Store.Put(ctx, handle, r, size, contentType); err != nil {
		return Preview{}, err
	}
	if size <= 0 {
		rc, n, err := p.Store.Open(ctx, handle)
		if err == nil {
			_ = rc.Close()
			size = n
		}
	}
	return Preview{Handle: handle, URL: p.Store.PublicURL(handle), Size: size}, nil
}

func (p StorePreviewer) Reader(ctx context.Context, handle string) (io.ReadCloser, int64, error) {
	return p.Store.Open(ctx, handle)
}

func (p StorePreviewer) Release(ctx context.Context, handle string) error {
	return p.Store.Delete(ctx, handle)
}
