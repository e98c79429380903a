package ingest

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"MediaScribe/internal/backend"
	"MediaScribe/internal/orchestrator"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DoneDir is the subdirectory ingested files are moved into.
const DoneDir = "ingested"

var mediaExts = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".webm": true, ".avi": true, ".m4v": true,
	".mp3": true, ".wav": true, ".m4a": true, ".aac": true, ".flac": true, ".ogg": true, ".opus": true,
}

// Starter is the pipeline entry, normally *orchestrator.Orchestrator.
type Starter interface {
	Start(ctx context.Context, f backend.File) (orchestrator.Snapshot, error)
}

// Watcher feeds media files dropped into a directory to the pipeline. A file
// is picked up once it has not been written to for Settle.
type Watcher struct {
	Dir    string
	Settle time.Duration

	start  Starter
	lg     *zap.Logger
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewWatcher(dir string, start Starter, lg *zap.Logger) *Watcher {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Watcher{Dir: dir, Settle: time.Second, start: start, lg: lg, timers: make(map[string]*time.Timer)}
}

// IsMedia reports whether name has a known audio or video extension.
func IsMedia(name string) bool {
	return mediaExts[strings.ToLower(filepath.Ext(name))]
}

// Run watches Dir until ctx ends. Files already present are ingested first.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Join(w.Dir, DoneDir), 0o755); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			w.lg.Warn("close watcher failed", zap.Error(err))
		}
	}()
	if err := watcher.Add(w.Dir); err != nil {
		return err
	}
	w.lg.Info("watch folder started", zap.String("dir", w.Dir))

	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.schedule(ctx, filepath.Join(w.Dir, e.Name()))
		}
	}

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.lg.Warn("watch folder error", zap.Error(err))
		}
	}
}

// schedule (re)arms the settle timer of path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	if !IsMedia(path) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Reset(w.Settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.Settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		if ctx.Err() == nil {
			w.ingest(ctx, path)
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		// removed before it settled
		w.lg.Debug("skip vanished file", zap.String("path", path), zap.Error(err))
		return
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return
	}

	name := filepath.Base(path)
	snap, err := w.start.Start(ctx, backend.File{
		Name:        name,
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		Size:        info.Size(),
		Reader:      f,
	})
	_ = f.Close()
	if err != nil {
		w.lg.Warn("ingest failed", zap.String("path", path), zap.Error(err))
		return
	}

	// the preview holds a copy now, so the source can leave the watched dir
	if err := os.Rename(path, filepath.Join(w.Dir, DoneDir, name)); err != nil {
		w.lg.Warn("move ingested file failed", zap.String("path", path), zap.Error(err))
	}
	w.lg.Info("file ingested", zap.String("path", path), zap.String("key", snap.Key))
}
