package listeners

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"MediaScribe/internal/models"
	"MediaScribe/internal/orchestrator"
	"MediaScribe/internal/project"
	"MediaScribe/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type published struct {
	group, name string
	v           interface{}
}

type fakePublisher struct {
	mu  sync.Mutex
	out []published
}

func (f *fakePublisher) PublishJSON(group, name string, v interface{}) error {
	f.mu.Lock()
	f.out = append(f.out, published{group, name, v})
	f.mu.Unlock()
	return nil
}

func (f *fakePublisher) events() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.out...)
}

func TestSnapshotPublisherDropsStaleVersions(t *testing.T) {
	pub := &fakePublisher{}
	p := NewSnapshotPublisher(pub, zaptest.NewLogger(t))

	p.OnSnapshot(orchestrator.Snapshot{Key: "upload-1", UploadKey: "upload-1", Phase: orchestrator.PhaseUploading, Version: 1})
	p.OnSnapshot(orchestrator.Snapshot{Key: "m1", UploadKey: "upload-1", MediaID: "m1", Phase: orchestrator.PhaseTranscribing, Version: 4})
	p.OnSnapshot(orchestrator.Snapshot{Key: "m1", MediaID: "m1", Phase: orchestrator.PhaseExtracting, Version: 3})
	p.OnSnapshot(orchestrator.Snapshot{Key: "upload-1", UploadKey: "upload-1", Phase: orchestrator.PhaseUploading, Version: 2})

	events := pub.events()
	require.Len(t, events, 2)
	assert.Equal(t, "upload-1", events[0].group)
	assert.Equal(t, MediaGroup("m1"), events[1].group)
	assert.Equal(t, EventSnapshot, events[1].name)
	assert.Equal(t, orchestrator.PhaseTranscribing, events[1].v.(orchestrator.Snapshot).Phase)
}

func TestTranscriptEventsFollowProjectStore(t *testing.T) {
	pub := &fakePublisher{}
	store := project.New(nil, nil, zaptest.NewLogger(t))
	o := orchestrator.New(orchestrator.Deps{Project: store}, orchestrator.Options{}, zaptest.NewLogger(t))
	t.Cleanup(o.Close)

	detach := InitPipelineListeners(o, store, pub, zaptest.NewLogger(t))
	defer detach()

	require.NoError(t, store.RegisterMedia(models.MediaAsset{ID: "m1"}))
	require.NoError(t, store.ApplyTranscript(context.Background(), "m1", []models.Segment{
		{ID: "s1", Range: models.TimeRange{Start: 0, End: 1}, Text: "hi"},
	}, "en"))

	events := pub.events()
	require.Len(t, events, 1)
	assert.Equal(t, EventTranscript, events[0].name)
	assert.Equal(t, MediaGroup("m1"), events[0].group)
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := util.CreateDatabaseInstance(&gorm.Config{}, "sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.TranscriptionJob{}))
	return db
}

func TestJobRecorderKeepsNewestVersion(t *testing.T) {
	rec := NewJobRecorder(setupDB(t))
	ctx := context.Background()

	require.NoError(t, rec.SaveJob(ctx, models.TranscriptionJob{ID: "j1", MediaID: "m1", Status: models.JobProcessing, Progress: 20, Version: 2}))
	require.NoError(t, rec.SaveJob(ctx, models.TranscriptionJob{ID: "j1", MediaID: "m1", Status: models.JobCompleted, Progress: 100, Version: 6}))
	require.NoError(t, rec.SaveJob(ctx, models.TranscriptionJob{ID: "j1", MediaID: "m1", Status: models.JobProcessing, Progress: 50, Version: 5}))

	jobs, err := rec.Jobs(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobCompleted, jobs[0].Status)
	assert.Equal(t, uint64(6), jobs[0].Version)
}
