package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"MediaScribe/internal/backend"
	"MediaScribe/internal/models"
)

type fakePreviews struct {
	mu       sync.Mutex
	files    map[string][]byte
	released map[string]int
	next     int
}

func newFakePreviews() *fakePreviews {
	return &fakePreviews{files: map[string][]byte{}, released: map[string]int{}}
}

func (p *fakePreviews) Open(_ context.Context, name, _ string, r io.Reader, _ int64) (Preview, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Preview{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	h := name + "#" + string(rune('0'+p.next))
	p.files[h] = data
	return Preview{Handle: h, URL: "/api/preview/" + h, Size: int64(len(data))}, nil
}

func (p *fakePreviews) Reader(_ context.Context, handle string) (io.ReadCloser, int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.files[handle]
	if !ok {
		return nil, 0, errors.New("no preview")
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (p *fakePreviews) Release(_ context.Context, handle string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released[handle]++
	delete(p.files, handle)
	return nil
}

func (p *fakePreviews) releaseCounts() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.released))
	for k, v := range p.released {
		out[k] = v
	}
	return out
}

type fakeUploader struct {
	mu    sync.Mutex
	err   error
	id    string
	block chan struct{} // upload waits on it when set
}

func (u *fakeUploader) UploadMedia(ctx context.Context, f backend.File, onProgress backend.ProgressFunc) (backend.UploadResult, error) {
	data, err := io.ReadAll(f.Reader)
	if err != nil {
		return backend.UploadResult{}, err
	}
	if onProgress != nil {
		onProgress(int64(len(data)), int64(len(data)))
	}
	u.mu.Lock()
	block, failWith, id := u.block, u.err, u.id
	u.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return backend.UploadResult{}, ctx.Err()
		}
	}
	if failWith != nil {
		return backend.UploadResult{}, failWith
	}
	if id == "" {
		id = "m1"
	}
	return backend.UploadResult{ID: id, URL: "https://cdn.example/" + id, Type: f.ContentType, Size: int64(len(data))}, nil
}

// fakeJobs serves scripted poll answers per job id. The last answer repeats.
type fakeJobs struct {
	mu        sync.Mutex
	createErr error
	nextIDs   []string
	scripts   map[string][]pollAnswer
	polls     map[string]int
	created   []string
}

type pollAnswer struct {
	status backend.JobStatus
	err    error
}

func newFakeJobs(ids ...string) *fakeJobs {
	return &fakeJobs{nextIDs: ids, scripts: map[string][]pollAnswer{}, polls: map[string]int{}}
}

func (j *fakeJobs) script(jobID string, answers ...pollAnswer) {
	j.mu.Lock()
	j.scripts[jobID] = answers
	j.mu.Unlock()
}

func (j *fakeJobs) CreateTranscriptionJob(_ context.Context, mediaID, mediaURL, language string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.createErr != nil {
		return "", j.createErr
	}
	if len(j.nextIDs) == 0 {
		return "", errors.New("no job ids left")
	}
	id := j.nextIDs[0]
	j.nextIDs = j.nextIDs[1:]
	j.created = append(j.created, mediaID+"|"+mediaURL+"|"+language)
	return id, nil
}

func (j *fakeJobs) GetTranscriptionStatus(_ context.Context, jobID string) (backend.JobStatus, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := j.polls[jobID]
	j.polls[jobID] = n + 1
	answers := j.scripts[jobID]
	if len(answers) == 0 {
		return backend.JobStatus{Status: backend.StatusProcessing}, nil
	}
	if n >= len(answers) {
		n = len(answers) - 1
	}
	return answers[n].status, answers[n].err
}

func (j *fakeJobs) pollCount(jobID string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.polls[jobID]
}

type fakeJobStore struct {
	mu   sync.Mutex
	jobs map[string]models.TranscriptionJob
}

func (s *fakeJobStore) SaveJob(_ context.Context, job models.TranscriptionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs == nil {
		s.jobs = map[string]models.TranscriptionJob{}
	}
	if cur, ok := s.jobs[job.ID]; ok && cur.Version >= job.Version {
		return nil
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *fakeJobStore) get(id string) (models.TranscriptionJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

type countingObserver struct {
	mu       sync.Mutex
	finished map[string]int
	live     int
}

func (c *countingObserver) PhaseChanged(string, string)        {}
func (c *countingObserver) PollCompleted(time.Duration, error) {}
func (c *countingObserver) UploadCompleted(int64)              {}

func (c *countingObserver) JobFinished(status string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished == nil {
		c.finished = map[string]int{}
	}
	c.finished[status]++
}

func (c *countingObserver) SetLiveSessions(n int) {
	c.mu.Lock()
	c.live = n
	c.mu.Unlock()
}

func (c *countingObserver) liveSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

func processing(progress float64) pollAnswer {
	return pollAnswer{status: backend.JobStatus{Status: backend.StatusProcessing, Progress: &progress}}
}

func completedHelloWorld() pollAnswer {
	payload := `[{"start":0,"end":2,"text":"hello world","words":[{"text":"hello","start":0,"end":1},{"text":"world","start":1,"end":2}]}]`
	return pollAnswer{status: backend.JobStatus{Status: backend.StatusCompleted, Language: "en", Segments: rawSegments(payload)}}
}
