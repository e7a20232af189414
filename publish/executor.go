package publish

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/crosscast/crosscast/errors"
	"github.com/crosscast/crosscast/platform"
	"github.com/crosscast/crosscast/quota"
)

// Executor performs one platform attempt: quota gate, best-effort media
// preparation, provider call, quota increment. It never panics or returns an
// error past this boundary - every failure becomes a PlatformResult.
type Executor struct {
	quota    *quota.Tracker
	media    MediaPreparer
	provider ProviderClient
	logger   *zap.SugaredLogger

	// Per-provider rate limiting in front of external calls
	callsPerMinute int
	limiterMu      sync.Mutex
	limiters       map[platform.Platform]*rate.Limiter
}

// NewExecutor creates a publish executor. callsPerMinute <= 0 disables
// provider rate limiting.
func NewExecutor(tracker *quota.Tracker, media MediaPreparer, provider ProviderClient, callsPerMinute int, logger *zap.SugaredLogger) *Executor {
	return &Executor{
		quota:          tracker,
		media:          media,
		provider:       provider,
		logger:         logger,
		callsPerMinute: callsPerMinute,
		limiters:       make(map[platform.Platform]*rate.Limiter),
	}
}

// Attempt publishes one job to one platform and returns the attempt result.
func (e *Executor) Attempt(ctx context.Context, job *Job, p platform.Platform) *PlatformResult {
	log := e.logger.With("job_id", job.ID, "platform", p)

	// Gate 1: quota. An inactive provider or zero remaining quota skips the
	// external call entirely.
	status, err := e.quota.Check(job.OwnerID, string(p))
	if err != nil {
		log.Errorw("Quota check failed", "error", err)
		return &PlatformResult{Success: false, Error: err.Error()}
	}
	if !status.Available {
		log.Infow("Platform attempt skipped, quota exhausted",
			"usage", status.Usage,
			"limit", status.Limit,
		)
		return &PlatformResult{Success: false, Error: errors.ErrQuotaExhausted.Error()}
	}

	// Gate 2: provider rate limit.
	if err := e.waitForRate(ctx, p); err != nil {
		return &PlatformResult{Success: false, Error: err.Error()}
	}

	// Best-effort media preparation: a preparation failure falls back to the
	// original media reference instead of failing the attempt.
	mediaRef := job.MediaRef
	if prepared, err := e.media.Prepare(ctx, job.MediaRef, p); err != nil {
		log.Warnw("Media preparation failed, publishing original media", "error", err)
	} else if prepared != "" {
		mediaRef = prepared
	}

	post, err := e.provider.Publish(ctx, p, mediaRef, job.Title, job.Description, job.Tags)
	if err != nil {
		log.Warnw("Provider publish failed", "error", err)
		return &PlatformResult{
			Success: false,
			Error:   errors.Wrap(errors.ErrProviderError, err.Error()).Error(),
		}
	}

	// Only a successful publish consumes quota.
	if ok, err := e.quota.Increment(job.OwnerID, string(p), 1); err != nil {
		log.Warnw("Failed to increment quota usage", "error", err)
	} else if !ok {
		log.Warnw("Quota record vanished during attempt")
	}

	log.Infow("Platform attempt succeeded", "post_id", post.PostID)
	return &PlatformResult{
		Success: true,
		PostID:  post.PostID,
		PostURL: post.PostURL,
	}
}

// waitForRate blocks until the platform's rate limiter admits a call or the
// context is cancelled.
func (e *Executor) waitForRate(ctx context.Context, p platform.Platform) error {
	if e.callsPerMinute <= 0 {
		return nil
	}

	e.limiterMu.Lock()
	limiter, ok := e.limiters[p]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(e.callsPerMinute)/60.0), e.callsPerMinute)
		e.limiters[p] = limiter
	}
	e.limiterMu.Unlock()

	return limiter.Wait(ctx)
}
