// Package publish implements the multi-platform publishing core: the job
// state machine, the per-platform publish executor, and the orchestrator
// facade that ties them to the quota tracker, the optimal-time scheduler,
// and the broadcast hub.
package publish

import (
	"time"

	"github.com/google/uuid"

	"github.com/crosscast/crosscast/errors"
	"github.com/crosscast/crosscast/platform"
)

// Status represents the current state of a publishing job
type Status string

const (
	StatusCreated    Status = "created"
	StatusProcessing Status = "processing"
	StatusPublishing Status = "publishing"
	StatusRetrying   Status = "retrying"
	StatusCompleted  Status = "completed"
	StatusPartial    Status = "partial"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsValidStatus returns true if the status string is a valid Status
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusCreated, StatusProcessing, StatusPublishing, StatusRetrying,
		StatusCompleted, StatusPartial, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether a job in this status has reached its final
// outcome. Terminal jobs are persisted to the store and evicted from the
// orchestrator's in-memory table.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Progress checkpoints for the job lifecycle. Between publishing start and
// the terminal transition, progress advances per completed platform attempt.
const (
	progressProcessing = 5
	progressPublishing = 10
	progressTerminal   = 100
)

// PlatformResult records the outcome of one platform attempt
type PlatformResult struct {
	Success bool   `json:"success"`
	PostID  string `json:"post_id,omitempty"`
	PostURL string `json:"post_url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Job represents one request to publish a single media artifact to one or
// more platforms. Fields are mutated only by the state machine while the
// job executes; once terminal the job is immutable and the store owns it.
type Job struct {
	ID          string                               `json:"id"`
	OwnerID     string                               `json:"owner_id"`
	MediaRef    string                               `json:"media_ref"`
	Title       string                               `json:"title"`
	Description string                               `json:"description,omitempty"`
	Tags        []string                             `json:"tags,omitempty"`
	Platforms   []platform.Platform                  `json:"platforms"`
	ScheduledAt *time.Time                           `json:"scheduled_at,omitempty"`
	Status      Status                               `json:"status"`
	Progress    int                                  `json:"progress"`
	Results     map[platform.Platform]*PlatformResult `json:"platform_results,omitempty"`
	Error       string                               `json:"error,omitempty"`
	CreatedAt   time.Time                            `json:"created_at"`
	CompletedAt *time.Time                           `json:"completed_at,omitempty"`
	UpdatedAt   time.Time                            `json:"updated_at"`
}

// Request carries everything needed to create a publishing job
type Request struct {
	OwnerID     string
	MediaRef    string
	Title       string
	Description string
	Tags        []string
	Platforms   []string
	ScheduledAt *time.Time
}

// NewJob validates a request and creates a job in the created state.
// Unknown platform names are rejected; duplicates collapse preserving order.
func NewJob(req Request) (*Job, error) {
	if req.OwnerID == "" {
		return nil, errors.New("owner id cannot be empty")
	}
	if req.MediaRef == "" {
		return nil, errors.New("media reference cannot be empty")
	}

	platforms, err := platform.ParseAll(req.Platforms)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Job{
		ID:          "JB" + uuid.NewString(),
		OwnerID:     req.OwnerID,
		MediaRef:    req.MediaRef,
		Title:       req.Title,
		Description: req.Description,
		Tags:        append([]string(nil), req.Tags...),
		Platforms:   platforms,
		ScheduledAt: req.ScheduledAt,
		Status:      StatusCreated,
		Progress:    0,
		Results:     make(map[platform.Platform]*PlatformResult, len(platforms)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// StartProcessing marks the job as processing
func (j *Job) StartProcessing() {
	j.Status = StatusProcessing
	j.Progress = progressProcessing
	j.UpdatedAt = time.Now()
}

// StartPublishing marks the job as publishing, after pre-publish media
// preparation has completed
func (j *Job) StartPublishing() {
	j.Status = StatusPublishing
	j.Progress = progressPublishing
	j.UpdatedAt = time.Now()
}

// RecordResult stores one platform attempt outcome and advances progress to
// 20 + done*60/total regardless of the attempt's outcome.
func (j *Job) RecordResult(p platform.Platform, result *PlatformResult) {
	j.Results[p] = result
	j.Progress = 20 + len(j.Results)*60/len(j.Platforms)
	j.UpdatedAt = time.Now()
}

// Finalize derives the terminal status from the recorded platform results:
// completed iff every attempt succeeded, failed iff none did, partial
// otherwise. The trichotomy is exhaustive and mutually exclusive.
func (j *Job) Finalize() {
	succeeded := 0
	var failures []string
	for _, p := range j.Platforms {
		result := j.Results[p]
		if result != nil && result.Success {
			succeeded++
		} else if result != nil {
			failures = append(failures, string(p)+": "+result.Error)
		}
	}

	now := time.Now()
	switch {
	case succeeded == len(j.Platforms):
		j.Status = StatusCompleted
	case succeeded > 0:
		j.Status = StatusPartial
	default:
		j.Status = StatusFailed
		j.Error = "all platform attempts failed"
		if len(failures) > 0 {
			j.Error = "all platform attempts failed: " + failures[0]
		}
	}
	j.Progress = progressTerminal
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Fail forces a terminal failed status with the error message preserved.
// Used when execution hits an unexpected error at the job boundary.
func (j *Job) Fail(err error) {
	now := time.Now()
	j.Status = StatusFailed
	j.Error = err.Error()
	j.Progress = progressTerminal
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Cancel marks the job as cancelled with a reason
func (j *Job) Cancel(reason string) {
	now := time.Now()
	j.Status = StatusCancelled
	j.Error = reason
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// ResetForRetry clears all prior platform results and re-arms the job for
// another publishing pass.
func (j *Job) ResetForRetry() {
	j.Status = StatusRetrying
	j.Progress = 0
	j.Results = make(map[platform.Platform]*PlatformResult, len(j.Platforms))
	j.Error = ""
	j.CompletedAt = nil
	j.UpdatedAt = time.Now()
}

// Snapshot returns a deep copy safe to hand across goroutine boundaries
func (j *Job) Snapshot() *Job {
	snap := *j
	snap.Tags = append([]string(nil), j.Tags...)
	snap.Platforms = append([]platform.Platform(nil), j.Platforms...)
	snap.Results = make(map[platform.Platform]*PlatformResult, len(j.Results))
	for p, r := range j.Results {
		result := *r
		snap.Results[p] = &result
	}
	if j.ScheduledAt != nil {
		at := *j.ScheduledAt
		snap.ScheduledAt = &at
	}
	if j.CompletedAt != nil {
		at := *j.CompletedAt
		snap.CompletedAt = &at
	}
	return &snap
}
