package orchestrator

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"MediaScribe/internal/backend"
	"MediaScribe/internal/models"
	"MediaScribe/internal/transcript"
	apperrors "MediaScribe/pkg/errors"
	"MediaScribe/pkg/scheduler"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const releaseTimeout = 10 * time.Second

type fileMeta struct {
	name        string
	contentType string
	size        int64
}

// session is the live state of one media's pipeline. Every field is guarded
// by Orchestrator.mu.
type session struct {
	key       string
	uploadKey string
	gen       uint64
	phase     Phase
	mediaID   string
	file      fileMeta

	preview         *Preview
	previewReleased bool

	asset          *models.MediaAsset
	job            *models.TranscriptionJob
	uploadProgress int
	cancelled      bool
	err            error

	ramp, work, poll, timeout *scheduler.Task

	version   uint64
	updatedAt time.Time
	createdAt time.Time
}

func (s *session) active() bool {
	return !s.cancelled && !s.phase.Terminal() && s.phase != PhaseIdle
}

// effects collects the side effects of one locked section; they run after
// the lock is released.
type effects struct {
	snaps    []Snapshot
	jobs     []models.TranscriptionJob
	releases []string
	register *models.MediaAsset
	uploaded int64
}

type Deps struct {
	Uploader backend.Uploader
	Jobs     backend.JobAPI
	Project  Project
	Previews Previewer
	Store    JobStore // optional
	Observer Observer // optional
}

// Orchestrator drives upload, job creation and status polling for every
// media of a project.
type Orchestrator struct {
	mu       sync.Mutex
	opts     Options
	deps     Deps
	obs      Observer
	sched    *scheduler.Scheduler
	lg       *zap.Logger
	sessions map[string]*session // media id, or upload key before the ack
	aliases  map[string]string   // upload key -> media id
	history  map[string][]*models.TranscriptionJob
	subs     map[int]func(Snapshot)
	nextSub  int
	gen      uint64
	version  uint64
	closed   bool
}

func New(deps Deps, opts Options, lg *zap.Logger) *Orchestrator {
	if lg == nil {
		lg = zap.NewNop()
	}
	obs := deps.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Orchestrator{
		opts:     opts.withDefaults(),
		deps:     deps,
		obs:      obs,
		sched:    scheduler.New(),
		lg:       lg,
		sessions: make(map[string]*session),
		aliases:  make(map[string]string),
		history:  make(map[string][]*models.TranscriptionJob),
		subs:     make(map[int]func(Snapshot)),
	}
}

// Start creates the local preview, then uploads f in the background. It
// returns as soon as the preview exists.
func (o *Orchestrator) Start(ctx context.Context, f backend.File) (Snapshot, error) {
	if f.Reader == nil {
		return Snapshot{}, apperrors.WithCode(apperrors.CodeValidation, "file is required")
	}
	if o.isClosed() {
		return Snapshot{}, ErrClosed
	}

	pv, err := o.deps.Previews.Open(ctx, f.Name, f.ContentType, f.Reader, f.Size)
	if err != nil {
		return Snapshot{}, apperrors.WrapCode(err, apperrors.CodeUploadFailure, "create preview")
	}
	if f.Size <= 0 {
		f.Size = pv.Size
	}

	fx := &effects{}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.release(pv.Handle)
		return Snapshot{}, ErrClosed
	}
	key := "upload-" + uuid.NewString()
	s := o.newSession(key)
	s.uploadKey = key
	s.file = fileMeta{name: f.Name, contentType: f.ContentType, size: f.Size}
	s.preview = &pv
	o.transition(s, PhaseUploading)

	gen := s.gen
	s.ramp = o.sched.Every(o.opts.RampInterval, scheduler.FuncJob(func(context.Context) {
		o.rampTick(s, gen)
	}))
	s.work = o.sched.Go(scheduler.FuncJob(func(ctx context.Context) {
		o.runUpload(ctx, s, gen)
	}))
	o.sessions[key] = s
	snap := o.touch(s, fx)
	o.updateLive()
	o.mu.Unlock()

	o.flush(fx)
	return snap, nil
}

// Retranscribe requests a new job for an already uploaded asset. A live job
// of that media is superseded first.
func (o *Orchestrator) Retranscribe(ctx context.Context, mediaID string) (Snapshot, error) {
	asset, ok := o.deps.Project.Media(mediaID)
	if !ok {
		return Snapshot{}, apperrors.WithCodef(apperrors.CodeNotFound, "media %s not found", mediaID)
	}
	if asset.RemoteURL == "" {
		return Snapshot{}, apperrors.WithCodef(apperrors.CodeValidation, "media %s has no remote url", mediaID)
	}

	fx := &effects{}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	o.supersedeMedia(mediaID, fx)
	s := o.newSession(mediaID)
	s.mediaID = mediaID
	s.asset = &asset
	s.uploadProgress = 100
	o.transition(s, PhaseExtracting)

	gen := s.gen
	s.work = o.sched.Go(scheduler.FuncJob(func(ctx context.Context) {
		o.createJob(ctx, s, gen)
	}))
	o.sessions[mediaID] = s
	snap := o.touch(s, fx)
	o.updateLive()
	o.mu.Unlock()

	o.flush(fx)
	return snap, nil
}

// Resume polls an existing job id without creating a new job.
func (o *Orchestrator) Resume(ctx context.Context, mediaID, jobID string) (Snapshot, error) {
	if mediaID == "" || jobID == "" {
		return Snapshot{}, apperrors.WithCode(apperrors.CodeValidation, "media id and job id are required")
	}
	asset, hasAsset := o.deps.Project.Media(mediaID)

	fx := &effects{}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	o.supersedeMedia(mediaID, fx)
	s := o.newSession(mediaID)
	s.mediaID = mediaID
	s.uploadProgress = 100
	if hasAsset {
		s.asset = &asset
	}
	now := time.Now()
	s.job = &models.TranscriptionJob{
		ID:        jobID,
		MediaID:   mediaID,
		Status:    models.JobProcessing,
		Language:  o.opts.Language,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.addHistory(s.job)
	o.sessions[mediaID] = s
	o.enterTranscribing(s)
	snap := o.touch(s, fx)
	o.updateLive()
	o.mu.Unlock()

	o.flush(fx)
	return snap, nil
}

// Cancel stops the live session of key. The job, if any, stays in history
// marked as superseded. Cancelling a finished session is a no-op.
func (o *Orchestrator) Cancel(key string) error {
	fx := &effects{}
	o.mu.Lock()
	s := o.lookup(key)
	if s == nil {
		o.mu.Unlock()
		return apperrors.WithCodef(apperrors.CodeNotFound, "session %s not found", key)
	}
	if s.active() {
		o.supersede(s, fx)
		o.updateLive()
	}
	o.mu.Unlock()

	o.flush(fx)
	return nil
}

// Close cancels every task. No callback applies state afterwards.
func (o *Orchestrator) Close() {
	fx := &effects{}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	for _, s := range o.sessions {
		o.stopTasks(s)
		o.releaseLocked(s, fx)
	}
	o.obs.SetLiveSessions(0)
	o.mu.Unlock()

	for _, h := range fx.releases {
		o.release(h)
	}
	o.sched.Stop()
}

func (o *Orchestrator) Snapshot(key string) (Snapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.lookup(key)
	if s == nil {
		return Snapshot{}, false
	}
	return o.snapshot(s), true
}

// Snapshots returns every known session ordered by last change.
func (o *Orchestrator) Snapshots() []Snapshot {
	o.mu.Lock()
	out := make([]Snapshot, 0, len(o.sessions))
	for _, s := range o.sessions {
		out = append(out, o.snapshot(s))
	}
	o.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// History returns the jobs of mediaID, newest first. Superseded and terminal
// jobs are kept.
func (o *Orchestrator) History(mediaID string) []models.TranscriptionJob {
	o.mu.Lock()
	defer o.mu.Unlock()
	jobs := o.history[mediaID]
	out := make([]models.TranscriptionJob, 0, len(jobs))
	for i := len(jobs) - 1; i >= 0; i-- {
		out = append(out, *jobs[i])
	}
	return out
}

// Subscribe registers fn for every snapshot change and returns its cancel
// func. fn runs outside the orchestrator lock; use Snapshot.Version to drop
// out of order deliveries.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) func() {
	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// ---- background work ----

func (o *Orchestrator) rampTick(s *session, gen uint64) {
	fx := &effects{}
	o.mu.Lock()
	if o.current(s, gen) && s.phase == PhaseUploading {
		next := s.uploadProgress + o.opts.RampStep
		if next > o.opts.RampCap {
			next = o.opts.RampCap
		}
		if next > s.uploadProgress {
			s.uploadProgress = next
			o.touch(s, fx)
		}
	}
	o.mu.Unlock()
	o.flush(fx)
}

func (o *Orchestrator) uploadProgress(s *session, gen uint64, sent, total int64) {
	if total <= 0 {
		return
	}
	pct := int(sent * 100 / total)
	if pct > o.opts.RampCap {
		pct = o.opts.RampCap
	}

	fx := &effects{}
	o.mu.Lock()
	if o.current(s, gen) && s.phase == PhaseUploading && pct > s.uploadProgress {
		s.uploadProgress = pct
		o.touch(s, fx)
	}
	o.mu.Unlock()
	o.flush(fx)
}

func (o *Orchestrator) runUpload(ctx context.Context, s *session, gen uint64) {
	o.mu.Lock()
	if !o.current(s, gen) {
		o.mu.Unlock()
		return
	}
	handle, meta := s.preview.Handle, s.file
	o.mu.Unlock()

	var res backend.UploadResult
	rc, size, err := o.deps.Previews.Reader(ctx, handle)
	if err == nil {
		if meta.size <= 0 {
			meta.size = size
		}
		res, err = o.deps.Uploader.UploadMedia(ctx, backend.File{
			Name:        meta.name,
			ContentType: meta.contentType,
			Size:        meta.size,
			Reader:      rc,
		}, func(sent, total int64) { o.uploadProgress(s, gen, sent, total) })
		_ = rc.Close()
	}
	if ctx.Err() != nil {
		return
	}

	fx := &effects{}
	o.mu.Lock()
	if !o.current(s, gen) {
		o.mu.Unlock()
		return
	}
	if err != nil {
		o.lg.Warn("upload failed", zap.String("key", s.key), zap.Error(err))
		o.finish(s, PhaseError, withCode(err, apperrors.CodeUploadFailure, "upload media"), fx)
		o.mu.Unlock()
		o.flush(fx)
		return
	}

	if res.Size <= 0 {
		res.Size = meta.size
	}
	ct := meta.contentType
	if ct == "" {
		ct = res.Type
	}
	// no SourceURL: the preview is released below
	asset := models.MediaAsset{
		ID:           res.ID,
		OriginalName: meta.name,
		Kind:         models.KindFromMIME(ct, meta.name),
		SizeBytes:    res.Size,
		RemoteURL:    res.URL,
	}
	// adopt the remote url, release the preview, then register the asset
	s.asset = &asset
	s.mediaID = asset.ID
	s.uploadProgress = 100
	s.ramp.Cancel()
	o.transition(s, PhaseExtracting)
	o.rekey(s, asset.ID, fx)
	o.releaseLocked(s, fx)
	fx.register = &asset
	fx.uploaded = res.Size
	o.touch(s, fx)
	o.mu.Unlock()
	o.flush(fx)

	o.createJob(ctx, s, gen)
}

func (o *Orchestrator) createJob(ctx context.Context, s *session, gen uint64) {
	o.mu.Lock()
	if !o.current(s, gen) {
		o.mu.Unlock()
		return
	}
	mediaID, mediaURL, language := s.mediaID, s.asset.RemoteURL, o.opts.Language
	o.mu.Unlock()

	jobID, err := o.deps.Jobs.CreateTranscriptionJob(ctx, mediaID, mediaURL, language)
	if ctx.Err() != nil {
		return
	}

	fx := &effects{}
	o.mu.Lock()
	defer func() {
		o.mu.Unlock()
		o.flush(fx)
	}()
	if !o.current(s, gen) {
		return
	}
	if err != nil {
		o.lg.Warn("create transcription job failed", zap.String("media_id", mediaID), zap.Error(err))
		o.finish(s, PhaseError, withCode(err, apperrors.CodeJobCreationFailure, "create transcription job"), fx)
		return
	}
	now := time.Now()
	s.job = &models.TranscriptionJob{
		ID:        jobID,
		MediaID:   mediaID,
		Status:    models.JobPending,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.addHistory(s.job)
	o.enterTranscribing(s)
	o.touch(s, fx)
}

// enterTranscribing starts the poll loop and the timeout guard. Caller holds
// the lock.
func (o *Orchestrator) enterTranscribing(s *session) {
	if !o.transition(s, PhaseTranscribing) {
		return
	}
	gen := s.gen
	s.poll = o.sched.Every(o.opts.PollInterval, scheduler.FuncJob(func(ctx context.Context) {
		o.pollOnce(ctx, s, gen)
	}))
	s.timeout = o.sched.OnceAfter(o.opts.Timeout, scheduler.FuncJob(func(context.Context) {
		o.timeoutFired(s, gen)
	}))
}

func (o *Orchestrator) pollOnce(ctx context.Context, s *session, gen uint64) {
	o.mu.Lock()
	if !o.current(s, gen) || s.phase != PhaseTranscribing {
		o.mu.Unlock()
		return
	}
	jobID := s.job.ID
	o.mu.Unlock()

	began := time.Now()
	st, err := o.deps.Jobs.GetTranscriptionStatus(ctx, jobID)
	if ctx.Err() != nil {
		return
	}
	o.obs.PollCompleted(time.Since(began), err)
	if err != nil {
		// transient, next tick retries
		o.lg.Warn("poll transcription status failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	switch st.Status {
	case backend.StatusCompleted:
		o.complete(ctx, s, gen, st)
	case backend.StatusError:
		o.serverError(s, gen, st.Error)
	default:
		o.advance(s, gen, st)
	}
}

func (o *Orchestrator) advance(s *session, gen uint64, st backend.JobStatus) {
	fx := &effects{}
	o.mu.Lock()
	defer func() {
		o.mu.Unlock()
		o.flush(fx)
	}()
	if !o.current(s, gen) || s.phase != PhaseTranscribing {
		return
	}

	job := s.job
	progress := job.Progress
	if st.Progress != nil && !math.IsNaN(*st.Progress) {
		// processing never reports 100
		reported := int(math.Round(math.Max(0, math.Min(*st.Progress, 99))))
		if reported > progress {
			progress = reported
		}
	} else if progress < o.opts.SyntheticCap {
		progress += o.opts.SyntheticStep
		if progress > o.opts.SyntheticCap {
			progress = o.opts.SyntheticCap
		}
	}
	if st.Language != "" {
		job.Language = st.Language
	}
	if progress == job.Progress && job.Status == models.JobProcessing {
		return
	}
	job.Progress = progress
	job.Status = models.JobProcessing
	o.touch(s, fx)
}

func (o *Orchestrator) complete(ctx context.Context, s *session, gen uint64, st backend.JobStatus) {
	segments, err := transcript.Normalize(st.Segments)

	fx := &effects{}
	o.mu.Lock()
	defer func() {
		o.mu.Unlock()
		o.flush(fx)
	}()
	if !o.current(s, gen) || s.phase != PhaseTranscribing {
		return
	}

	language := st.Language
	if language == "" {
		language = s.job.Language
	}
	// applied under the lock so a superseding job can never interleave
	if err == nil {
		err = o.deps.Project.ApplyTranscript(ctx, s.mediaID, segments, language)
	}
	if err != nil {
		code := apperrors.CodeTranscriptionFailure
		if apperrors.IsCode(err, apperrors.CodeValidation) {
			code = apperrors.CodeValidation
		}
		o.lg.Warn("transcript rejected", zap.String("job_id", s.job.ID), zap.Error(err))
		o.finishJob(s, models.JobError, PhaseError, apperrors.WrapCode(err, code, "apply transcript"), fx)
		return
	}
	s.job.Language = language
	s.job.Progress = 100
	o.finishJob(s, models.JobCompleted, PhaseCompleted, nil, fx)
}

func (o *Orchestrator) serverError(s *session, gen uint64, msg string) {
	if msg == "" {
		msg = "transcription failed"
	}
	fx := &effects{}
	o.mu.Lock()
	if o.current(s, gen) && s.phase == PhaseTranscribing {
		o.finishJob(s, models.JobError, PhaseError, apperrors.WithCode(apperrors.CodeTranscriptionFailure, msg), fx)
	}
	o.mu.Unlock()
	o.flush(fx)
}

func (o *Orchestrator) timeoutFired(s *session, gen uint64) {
	fx := &effects{}
	o.mu.Lock()
	if o.current(s, gen) && s.phase == PhaseTranscribing {
		o.lg.Warn("transcription timed out", zap.String("job_id", s.job.ID), zap.Duration("timeout", o.opts.Timeout))
		err := apperrors.WithCodef(apperrors.CodeTimeout, "no result after %s", o.opts.Timeout)
		o.finishJob(s, models.JobTimedOut, PhaseTimedOut, err, fx)
	}
	o.mu.Unlock()
	o.flush(fx)
}

// ---- locked helpers ----

func (o *Orchestrator) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *Orchestrator) newSession(key string) *session {
	o.gen++
	now := time.Now()
	return &session{key: key, gen: o.gen, phase: PhaseIdle, createdAt: now, updatedAt: now}
}

// current reports whether results of generation gen may still be applied.
func (o *Orchestrator) current(s *session, gen uint64) bool {
	return !o.closed && s.gen == gen
}

func (o *Orchestrator) lookup(key string) *session {
	if s, ok := o.sessions[key]; ok {
		return s
	}
	if mediaID, ok := o.aliases[key]; ok {
		return o.sessions[mediaID]
	}
	return nil
}

// transition applies an edge from the table. An illegal edge is a bug and is
// logged instead of applied.
func (o *Orchestrator) transition(s *session, to Phase) bool {
	if err := checkTransition(s.phase, to); err != nil {
		o.lg.Error("phase transition rejected", zap.String("key", s.key), zap.Error(err))
		return false
	}
	o.obs.PhaseChanged(string(s.phase), string(to))
	s.phase = to
	return true
}

// rekey moves an uploading session under its media id.
func (o *Orchestrator) rekey(s *session, mediaID string, fx *effects) {
	o.supersedeMedia(mediaID, fx)
	delete(o.sessions, s.key)
	o.aliases[s.key] = mediaID
	s.key = mediaID
	o.sessions[mediaID] = s
}

func (o *Orchestrator) supersedeMedia(mediaID string, fx *effects) {
	if old, ok := o.sessions[mediaID]; ok && old.active() {
		o.lg.Info("superseding live session", zap.String("media_id", mediaID))
		o.supersede(old, fx)
	}
}

func (o *Orchestrator) supersede(s *session, fx *effects) {
	o.stopTasks(s)
	s.cancelled = true
	if s.job != nil && !s.job.IsTerminal() {
		s.job.Superseded = true
	}
	o.releaseLocked(s, fx)
	o.touch(s, fx)
}

// stopTasks cancels every task of s and invalidates its generation.
func (o *Orchestrator) stopTasks(s *session) {
	for _, t := range []*scheduler.Task{s.ramp, s.work, s.poll, s.timeout} {
		t.Cancel()
	}
	o.gen++
	s.gen = o.gen
}

func (o *Orchestrator) finish(s *session, phase Phase, err error, fx *effects) {
	o.transition(s, phase)
	s.err = err
	o.stopTasks(s)
	o.releaseLocked(s, fx)
	o.touch(s, fx)
	o.updateLive()
}

func (o *Orchestrator) finishJob(s *session, status models.JobStatus, phase Phase, err error, fx *effects) {
	s.job.Status = status
	if err != nil {
		s.job.Error = err.Error()
		s.job.ErrorCode = apperrors.CodeName(apperrors.GetCode(err))
	}
	o.obs.JobFinished(string(status), time.Since(s.job.CreatedAt))
	o.finish(s, phase, err, fx)
}

// releaseLocked schedules the preview release once.
func (o *Orchestrator) releaseLocked(s *session, fx *effects) {
	if s.preview == nil || s.previewReleased {
		return
	}
	s.previewReleased = true
	fx.releases = append(fx.releases, s.preview.Handle)
}

func (o *Orchestrator) addHistory(job *models.TranscriptionJob) {
	jobs := o.history[job.MediaID]
	for i, j := range jobs {
		if j.ID == job.ID {
			jobs[i] = job
			return
		}
	}
	o.history[job.MediaID] = append(jobs, job)
}

// touch bumps the version of s and queues its snapshot and job record.
func (o *Orchestrator) touch(s *session, fx *effects) Snapshot {
	o.version++
	s.version = o.version
	s.updatedAt = time.Now()
	if s.job != nil {
		s.job.Version = s.version
		s.job.UpdatedAt = s.updatedAt
		fx.jobs = append(fx.jobs, *s.job)
	}
	snap := o.snapshot(s)
	fx.snaps = append(fx.snaps, snap)
	return snap
}

func (o *Orchestrator) updateLive() {
	n := 0
	for _, s := range o.sessions {
		if s.active() {
			n++
		}
	}
	o.obs.SetLiveSessions(n)
}

func (o *Orchestrator) snapshot(s *session) Snapshot {
	snap := Snapshot{
		Key:            s.key,
		UploadKey:      s.uploadKey,
		MediaID:        s.mediaID,
		Phase:          s.phase,
		Progress:       s.uploadProgress,
		UploadProgress: s.uploadProgress,
		Cancelled:      s.cancelled,
		Version:        s.version,
		UpdatedAt:      s.updatedAt,
	}
	if s.preview != nil && !s.previewReleased {
		snap.PreviewURL = s.preview.URL
	}
	if s.asset != nil {
		a := *s.asset
		snap.Asset = &a
	}
	if s.job != nil {
		j := *s.job
		snap.Job = &j
		snap.Progress = j.Progress
	}
	if s.err != nil {
		snap.Error = s.err.Error()
		snap.ErrorCode = apperrors.CodeName(apperrors.GetCode(s.err))
	}
	return snap
}

// ---- unlocked side effects ----

func (o *Orchestrator) flush(fx *effects) {
	for _, h := range fx.releases {
		o.release(h)
	}
	if fx.register != nil {
		if err := o.deps.Project.RegisterMedia(*fx.register); err != nil {
			o.lg.Error("register media failed", zap.String("media_id", fx.register.ID), zap.Error(err))
		}
	}
	if fx.uploaded > 0 {
		o.obs.UploadCompleted(fx.uploaded)
	}
	if o.deps.Store != nil {
		for _, job := range fx.jobs {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			if err := o.deps.Store.SaveJob(ctx, job); err != nil {
				o.lg.Warn("persist job failed", zap.String("job_id", job.ID), zap.Error(err))
			}
			cancel()
		}
	}
	if len(fx.snaps) == 0 {
		return
	}
	o.mu.Lock()
	subs := make([]func(Snapshot), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	o.mu.Unlock()
	for _, snap := range fx.snaps {
		for _, fn := range subs {
			fn(snap)
		}
	}
}

func (o *Orchestrator) release(handle string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := o.deps.Previews.Release(ctx, handle); err != nil {
		o.lg.Warn("release preview failed", zap.String("handle", handle), zap.Error(err))
	}
}

// withCode tags err with code unless it already carries one.
func withCode(err error, code int, msg string) error {
	if apperrors.GetCode(err) != apperrors.CodeUnknown {
		return apperrors.Wrap(err, msg)
	}
	return apperrors.WrapCode(err, code, msg)
}
