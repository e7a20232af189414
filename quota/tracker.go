// Package quota tracks per (channel, provider) monthly provider-call budgets.
package quota

import (
	"database/sql"
	"sync"
	"time"
)

// DefaultPeriod is the quota reset cadence
const DefaultPeriod = 30 * 24 * time.Hour

// Record is the stored quota state for one (channel, provider) pair
type Record struct {
	ChannelID    string    `json:"channel_id"`
	ProviderID   string    `json:"provider_id"`
	MonthlyLimit int       `json:"monthly_limit"`
	CurrentUsage int       `json:"current_usage"`
	ResetAt      time.Time `json:"reset_at"`
	Active       bool      `json:"active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Status is the result of a quota check
type Status struct {
	Available bool      `json:"available"`
	Usage     int       `json:"usage"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// Tracker tracks and enforces per (channel, provider) quotas.
// Records may be read and incremented concurrently by multiple jobs; the
// tracker serializes read-modify-write sequences so usage is never undercounted.
type Tracker struct {
	store   *Store
	period  time.Duration
	mu      sync.Mutex
	timeNow func() time.Time // Injectable for testing
}

// NewTracker creates a quota tracker with the default 30-day period
func NewTracker(db *sql.DB) *Tracker {
	return NewTrackerWithClock(db, DefaultPeriod, time.Now)
}

// NewTrackerWithClock creates a tracker with a custom period and injectable
// clock (for testing)
func NewTrackerWithClock(db *sql.DB, period time.Duration, timeNow func() time.Time) *Tracker {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Tracker{
		store:   NewStore(db),
		period:  period,
		timeNow: timeNow,
	}
}

// Configure creates or replaces the quota record for a (channel, provider)
// pair. Callers must configure quota before the executor will permit calls.
func (t *Tracker) Configure(channelID, providerID string, monthlyLimit int, active bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.timeNow()
	return t.store.Upsert(&Record{
		ChannelID:    channelID,
		ProviderID:   providerID,
		MonthlyLimit: monthlyLimit,
		CurrentUsage: 0,
		ResetAt:      now.Add(t.period),
		Active:       active,
		UpdatedAt:    now,
	})
}

// Check reports quota availability for a (channel, provider) pair.
// If the reset timestamp has passed, usage is zeroed and the reset advances
// by one period as a side effect before reporting. Available is true iff the
// provider is active and remaining > 0. A pair that was never configured
// reports unavailable with a zero limit.
func (t *Tracker) Check(channelID, providerID string) (*Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.store.Get(channelID, providerID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &Status{Available: false}, nil
	}

	if rec, err = t.maybeReset(rec); err != nil {
		return nil, err
	}

	remaining := rec.MonthlyLimit - rec.CurrentUsage
	if remaining < 0 {
		remaining = 0
	}

	return &Status{
		Available: rec.Active && remaining > 0,
		Usage:     rec.CurrentUsage,
		Limit:     rec.MonthlyLimit,
		Remaining: remaining,
		ResetAt:   rec.ResetAt,
	}, nil
}

// Increment adds count to a pair's usage and persists the updated record.
// Returns false when no record exists - callers must configure quota first.
func (t *Tracker) Increment(channelID, providerID string, count int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.store.Get(channelID, providerID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	if _, err = t.maybeReset(rec); err != nil {
		return false, err
	}

	return t.store.AddUsage(channelID, providerID, count, t.timeNow())
}

// SetActive flips the active flag without touching usage or limits
func (t *Tracker) SetActive(channelID, providerID string, active bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.store.Get(channelID, providerID)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	rec.Active = active
	rec.UpdatedAt = t.timeNow()
	return t.store.Upsert(rec)
}

// ListByChannel returns every quota record configured for a channel
func (t *Tracker) ListByChannel(channelID string) ([]*Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.store.ListByChannel(channelID)
}

// maybeReset applies the lazy period rollover: once "now" passes reset_at,
// usage drops to 0 and reset_at advances whole periods until it is in the
// future. Requires t.mu held.
func (t *Tracker) maybeReset(rec *Record) (*Record, error) {
	now := t.timeNow()
	if now.Before(rec.ResetAt) {
		return rec, nil
	}

	resetAt := rec.ResetAt
	for !now.Before(resetAt) {
		resetAt = resetAt.Add(t.period)
	}

	if err := t.store.ResetUsage(rec.ChannelID, rec.ProviderID, resetAt, now); err != nil {
		return nil, err
	}

	rec.CurrentUsage = 0
	rec.ResetAt = resetAt
	rec.UpdatedAt = now
	return rec, nil
}
