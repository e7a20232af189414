package publish

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosscast/crosscast/errors"
	"github.com/crosscast/crosscast/hub"
	"github.com/crosscast/crosscast/platform"
	"github.com/crosscast/crosscast/timing"
)

// Orchestrator is the facade over the publishing pipeline. It owns the
// in-memory table of active jobs, launches execution goroutines, relays
// status transitions to the broadcast hub, and hands terminal jobs to the
// store.
type Orchestrator struct {
	store      *Store
	executor   *Executor
	scheduler  *timing.Scheduler
	hub        *hub.Hub
	logger     *zap.SugaredLogger
	maxRetries int

	mu      sync.RWMutex
	jobs    map[string]*Job
	retries map[string]int
	cancels map[string]context.CancelFunc

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup
}

// NewOrchestrator creates the publishing orchestrator
func NewOrchestrator(store *Store, executor *Executor, scheduler *timing.Scheduler, h *hub.Hub, maxRetries int, logger *zap.SugaredLogger) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:      store,
		executor:   executor,
		scheduler:  scheduler,
		hub:        h,
		logger:     logger,
		maxRetries: maxRetries,
		jobs:       make(map[string]*Job),
		retries:    make(map[string]int),
		cancels:    make(map[string]context.CancelFunc),
		rootCtx:    ctx,
		rootCancel: cancel,
	}
}

// Submit accepts a publish request. A request scheduled for the future is
// persisted as a pending scheduled job and picked up by the ticker at its run
// time; anything else starts executing immediately on its own goroutine.
// Returns the job id in both cases.
func (o *Orchestrator) Submit(req Request) (string, error) {
	if req.ScheduledAt != nil && req.ScheduledAt.After(time.Now()) {
		return o.submitScheduled(req)
	}

	job, err := NewJob(req)
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	o.jobs[job.ID] = job
	o.mu.Unlock()

	o.logger.Infow("Publish job submitted",
		"job_id", job.ID,
		"owner_id", job.OwnerID,
		"platforms", job.Platforms,
	)

	o.launch(job)
	return job.ID, nil
}

// submitScheduled persists a deferred request without creating a live job
func (o *Orchestrator) submitScheduled(req Request) (string, error) {
	platforms, err := platform.ParseAll(req.Platforms)
	if err != nil {
		return "", err
	}
	if req.OwnerID == "" {
		return "", errors.New("owner id cannot be empty")
	}
	if req.MediaRef == "" {
		return "", errors.New("media reference cannot be empty")
	}

	sj := &ScheduledJob{
		ID:          "JB" + uuid.NewString(),
		OwnerID:     req.OwnerID,
		MediaRef:    req.MediaRef,
		Title:       req.Title,
		Description: req.Description,
		Tags:        append([]string(nil), req.Tags...),
		Platforms:   platforms,
		RunAt:       *req.ScheduledAt,
		CreatedAt:   time.Now(),
	}
	if err := o.store.CreateScheduled(sj); err != nil {
		return "", err
	}

	o.logger.Infow("Publish job scheduled",
		"job_id", sj.ID,
		"owner_id", sj.OwnerID,
		"run_at", sj.RunAt,
	)
	return sj.ID, nil
}

// SchedulePlatforms creates one deferred job per platform, each at that
// platform's optimal posting slot in the audience timezone on the day
// daysAhead days out. daysAhead <= 0 schedules for tomorrow.
func (o *Orchestrator) SchedulePlatforms(req Request, tz string, daysAhead int) (map[platform.Platform]*ScheduledJob, error) {
	platforms, err := platform.ParseAll(req.Platforms)
	if err != nil {
		return nil, err
	}
	if req.OwnerID == "" {
		return nil, errors.New("owner id cannot be empty")
	}
	if req.MediaRef == "" {
		return nil, errors.New("media reference cannot be empty")
	}

	if daysAhead <= 0 {
		daysAhead = 1
	}
	targetDate := time.Now().AddDate(0, 0, daysAhead)
	scheduled := make(map[platform.Platform]*ScheduledJob, len(platforms))
	for _, p := range platforms {
		best, err := o.scheduler.BestSlot(p, tz, targetDate)
		if err != nil {
			return nil, err
		}

		sj := &ScheduledJob{
			ID:              "JB" + uuid.NewString(),
			OwnerID:         req.OwnerID,
			MediaRef:        req.MediaRef,
			Title:           req.Title,
			Description:     req.Description,
			Tags:            append([]string(nil), req.Tags...),
			Platforms:       []platform.Platform{p},
			RunAt:           best.At,
			EngagementScore: best.Score,
			CreatedAt:       time.Now(),
		}
		if err := o.store.CreateScheduled(sj); err != nil {
			return nil, err
		}
		scheduled[p] = sj

		o.logger.Infow("Platform publish scheduled at optimal slot",
			"job_id", sj.ID,
			"platform", p,
			"run_at", sj.RunAt,
			"engagement_score", sj.EngagementScore,
		)
	}
	return scheduled, nil
}

// ContentCalendar returns the optimal-slot planning view for the given
// platforms over a forward window.
func (o *Orchestrator) ContentCalendar(platforms []string, tz string, daysAhead int) ([]timing.CalendarDay, error) {
	parsed, err := platform.ParseAll(platforms)
	if err != nil {
		return nil, err
	}
	return o.scheduler.Calendar(parsed, tz, daysAhead)
}

// launch starts job execution on a tracked goroutine
func (o *Orchestrator) launch(job *Job) {
	ctx, cancel := context.WithCancel(o.rootCtx)

	o.mu.Lock()
	o.cancels[job.ID] = cancel
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		o.run(ctx, job)
	}()
}

// run drives one job through the pipeline. Nothing escapes this boundary:
// a panic or unexpected error becomes a failed terminal status.
func (o *Orchestrator) run(ctx context.Context, job *Job) {
	log := o.logger.With("job_id", job.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Job execution panicked", "panic", r)
			o.withJob(job.ID, func(j *Job) {
				j.Fail(fmt.Errorf("internal error: %v", r))
			})
			o.finish(job.ID)
		}
	}()

	o.withJob(job.ID, func(j *Job) { j.StartProcessing() })
	o.notify(job.ID, "preparing media for publishing")

	o.withJob(job.ID, func(j *Job) { j.StartPublishing() })
	o.notify(job.ID, "publishing to platforms")

	// Every platform gets an attempt regardless of earlier outcomes; one
	// platform's failure must not starve the rest.
	for _, p := range job.Platforms {
		if ctx.Err() != nil {
			log.Warnw("Job interrupted by shutdown", "platform", p)
			o.withJob(job.ID, func(j *Job) { j.Fail(ctx.Err()) })
			o.finish(job.ID)
			return
		}

		result := o.executor.Attempt(ctx, job, p)
		o.withJob(job.ID, func(j *Job) { j.RecordResult(p, result) })
		o.notify(job.ID, fmt.Sprintf("platform %s done", p))
	}

	o.withJob(job.ID, func(j *Job) { j.Finalize() })
	o.finish(job.ID)
}

// withJob mutates a live job under the table lock
func (o *Orchestrator) withJob(id string, fn func(*Job)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if job, ok := o.jobs[id]; ok {
		fn(job)
	}
}

// notify pushes the job's current status to the owner's live subscribers
func (o *Orchestrator) notify(id, message string) {
	o.mu.RLock()
	job, ok := o.jobs[id]
	var update *hub.Update
	var ownerID string
	if ok {
		update = hub.NewJobUpdate(job.ID, string(job.Status), job.Progress, message)
		ownerID = job.OwnerID
	}
	o.mu.RUnlock()

	if update != nil {
		o.hub.PublishUpdate(ownerID, update)
	}
}

// finish persists a terminal job to the store, announces the outcome, and
// evicts the job from the in-memory table. Retry counts survive eviction so
// the retry cap holds across store round-trips.
func (o *Orchestrator) finish(id string) {
	o.mu.Lock()
	job, ok := o.jobs[id]
	if !ok {
		o.mu.Unlock()
		return
	}
	snap := job.Snapshot()
	delete(o.jobs, id)
	delete(o.cancels, id)
	o.mu.Unlock()

	if err := o.store.SaveSnapshot(snap); err != nil {
		o.logger.Errorw("Failed to persist terminal job", "job_id", id, "error", err)
	}

	message := "job finished"
	if snap.Error != "" {
		message = snap.Error
	}
	o.hub.PublishUpdate(snap.OwnerID, hub.NewJobUpdate(snap.ID, string(snap.Status), snap.Progress, message))

	o.logger.Infow("Publish job finished",
		"job_id", snap.ID,
		"status", snap.Status,
		"platforms", len(snap.Platforms),
	)
}

// GetStatus returns a point-in-time view of a job: live jobs from memory,
// pending scheduled jobs from the schedule table, terminal jobs from the store.
func (o *Orchestrator) GetStatus(jobID string) (*Job, error) {
	o.mu.RLock()
	if job, ok := o.jobs[jobID]; ok {
		snap := job.Snapshot()
		o.mu.RUnlock()
		return snap, nil
	}
	o.mu.RUnlock()

	sj, err := o.store.GetScheduled(jobID)
	if err != nil {
		return nil, err
	}
	if sj != nil {
		runAt := sj.RunAt
		return &Job{
			ID:          sj.ID,
			OwnerID:     sj.OwnerID,
			MediaRef:    sj.MediaRef,
			Title:       sj.Title,
			Description: sj.Description,
			Tags:        sj.Tags,
			Platforms:   sj.Platforms,
			ScheduledAt: &runAt,
			Status:      StatusCreated,
			Results:     map[platform.Platform]*PlatformResult{},
			CreatedAt:   sj.CreatedAt,
			UpdatedAt:   sj.CreatedAt,
		}, nil
	}

	snap, err := o.store.LoadSnapshot(jobID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errors.NewNotFoundError("job %s not found", jobID)
	}
	return snap, nil
}

// Retry re-runs a finished job up to the retry cap. All prior platform
// results are discarded so every platform is attempted fresh. Cancelled jobs
// stay cancelled.
func (o *Orchestrator) Retry(jobID, ownerID string) error {
	o.mu.RLock()
	_, active := o.jobs[jobID]
	o.mu.RUnlock()
	if active {
		return errors.Newf("job %s is still running", jobID)
	}

	snap, err := o.store.LoadSnapshot(jobID)
	if err != nil {
		return err
	}
	if snap == nil {
		return errors.NewNotFoundError("job %s not found", jobID)
	}
	if snap.OwnerID != ownerID {
		return errors.NewNotFoundError("job %s not found", jobID)
	}
	if snap.Status == StatusCancelled {
		return errors.NewNotFoundError("job %s not found", jobID)
	}

	o.mu.Lock()
	if o.retries[jobID] >= o.maxRetries {
		o.mu.Unlock()
		return errors.Wrapf(errors.ErrRetryLimitExceeded, "job %s already retried %d times", jobID, o.maxRetries)
	}
	o.retries[jobID]++
	attempt := o.retries[jobID]
	snap.ResetForRetry()
	o.jobs[jobID] = snap
	o.mu.Unlock()

	o.logger.Infow("Retrying publish job",
		"job_id", jobID,
		"attempt", attempt,
		"max_retries", o.maxRetries,
	)
	o.notify(jobID, fmt.Sprintf("retry attempt %d", attempt))

	o.launch(snap)
	return nil
}

// Cancel stops a job that has not started publishing. Pending scheduled jobs
// are removed from the schedule and recorded as cancelled; jobs already
// executing cannot be cancelled.
func (o *Orchestrator) Cancel(jobID, ownerID string) error {
	sj, err := o.store.GetScheduled(jobID)
	if err != nil {
		return err
	}
	if sj != nil {
		if sj.OwnerID != ownerID {
			return errors.NewNotFoundError("job %s not found", jobID)
		}
		if _, err := o.store.DeleteScheduled(jobID); err != nil {
			return err
		}

		runAt := sj.RunAt
		cancelled := &Job{
			ID:          sj.ID,
			OwnerID:     sj.OwnerID,
			MediaRef:    sj.MediaRef,
			Title:       sj.Title,
			Description: sj.Description,
			Tags:        sj.Tags,
			Platforms:   sj.Platforms,
			ScheduledAt: &runAt,
			Results:     map[platform.Platform]*PlatformResult{},
			CreatedAt:   sj.CreatedAt,
		}
		cancelled.Cancel("cancelled before scheduled run")
		if err := o.store.SaveSnapshot(cancelled); err != nil {
			return err
		}

		o.logger.Infow("Scheduled job cancelled", "job_id", jobID)
		o.hub.PublishUpdate(ownerID, hub.NewJobUpdate(jobID, string(StatusCancelled), 0, "cancelled before scheduled run"))
		return nil
	}

	o.mu.Lock()
	if job, ok := o.jobs[jobID]; ok {
		if job.OwnerID != ownerID {
			o.mu.Unlock()
			return errors.NewNotFoundError("job %s not found", jobID)
		}
		// A job that has not started its pipeline can still be stopped;
		// anything past created is committed to attempting every platform.
		if job.Status != StatusCreated {
			status := job.Status
			o.mu.Unlock()
			return errors.Wrapf(errors.ErrNotCancellable, "job %s is %s", jobID, status)
		}

		if cancel := o.cancels[jobID]; cancel != nil {
			cancel()
		}
		job.Cancel("cancelled by owner")
		snap := job.Snapshot()
		delete(o.jobs, jobID)
		delete(o.cancels, jobID)
		o.mu.Unlock()

		if err := o.store.SaveSnapshot(snap); err != nil {
			return err
		}
		o.logger.Infow("Job cancelled before start", "job_id", jobID)
		o.hub.PublishUpdate(ownerID, hub.NewJobUpdate(jobID, string(StatusCancelled), snap.Progress, "cancelled by owner"))
		return nil
	}
	o.mu.Unlock()

	snap, err := o.store.LoadSnapshot(jobID)
	if err != nil {
		return err
	}
	if snap == nil || snap.OwnerID != ownerID {
		return errors.NewNotFoundError("job %s not found", jobID)
	}
	return errors.Wrapf(errors.ErrNotCancellable, "job %s is %s", jobID, snap.Status)
}

// ListJobs returns stored terminal jobs, optionally filtered by status
func (o *Orchestrator) ListJobs(status *Status, limit int) ([]*Job, error) {
	return o.store.ListSnapshots(status, limit)
}

// GetStats returns counts of stored terminal jobs by outcome
func (o *Orchestrator) GetStats() (*Stats, error) {
	return o.store.GetStats()
}

// ActiveCount returns the number of jobs currently executing
func (o *Orchestrator) ActiveCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.jobs)
}

// runScheduled promotes one due scheduled job into a live job and launches it
func (o *Orchestrator) runScheduled(sj *ScheduledJob) error {
	if _, err := o.store.DeleteScheduled(sj.ID); err != nil {
		return err
	}

	runAt := sj.RunAt
	job := &Job{
		ID:          sj.ID,
		OwnerID:     sj.OwnerID,
		MediaRef:    sj.MediaRef,
		Title:       sj.Title,
		Description: sj.Description,
		Tags:        sj.Tags,
		Platforms:   sj.Platforms,
		ScheduledAt: &runAt,
		Status:      StatusCreated,
		Results:     make(map[platform.Platform]*PlatformResult, len(sj.Platforms)),
		CreatedAt:   sj.CreatedAt,
		UpdatedAt:   time.Now(),
	}

	o.mu.Lock()
	o.jobs[job.ID] = job
	o.mu.Unlock()

	o.logger.Infow("Launching scheduled job",
		"job_id", job.ID,
		"run_at", sj.RunAt,
	)

	o.launch(job)
	return nil
}

// Shutdown cancels all running jobs and waits for their goroutines to drain,
// bounded by the context.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.rootCancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "timed out waiting for jobs to stop")
	}
}
