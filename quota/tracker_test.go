package quota_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscast/crosscast/db"
	cctest "github.com/crosscast/crosscast/internal/testing"
	"github.com/crosscast/crosscast/quota"
)

func newTestTracker(t *testing.T, now *time.Time) *quota.Tracker {
	t.Helper()

	database := cctest.CreateTestDB(t)
	require.NoError(t, db.Migrate(database, nil))

	return quota.NewTrackerWithClock(database, 30*24*time.Hour, func() time.Time {
		return *now
	})
}

func TestCheckUnconfiguredPair(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(t, &now)

	status, err := tracker.Check("chan-1", "tiktok")
	require.NoError(t, err)
	assert.False(t, status.Available)
	assert.Zero(t, status.Limit)
}

func TestCheckAndIncrement(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(t, &now)

	require.NoError(t, tracker.Configure("chan-1", "youtube", 5, true))

	status, err := tracker.Check("chan-1", "youtube")
	require.NoError(t, err)
	assert.True(t, status.Available)
	assert.Equal(t, 5, status.Limit)
	assert.Equal(t, 5, status.Remaining)
	assert.Zero(t, status.Usage)

	ok, err := tracker.Increment("chan-1", "youtube", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	status, err = tracker.Check("chan-1", "youtube")
	require.NoError(t, err)
	assert.Equal(t, 1, status.Usage)
	assert.Equal(t, 4, status.Remaining)
}

func TestIncrementWithoutRecordFailsSilently(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(t, &now)

	ok, err := tracker.Increment("chan-1", "tiktok", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExhaustedQuotaNotAvailable(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(t, &now)

	require.NoError(t, tracker.Configure("chan-1", "tiktok", 2, true))

	for i := 0; i < 2; i++ {
		ok, err := tracker.Increment("chan-1", "tiktok", 1)
		require.NoError(t, err)
		require.True(t, ok)
	}

	status, err := tracker.Check("chan-1", "tiktok")
	require.NoError(t, err)
	assert.False(t, status.Available, "available must never be true when remaining <= 0")
	assert.Zero(t, status.Remaining)
}

func TestInactiveProviderNotAvailable(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(t, &now)

	require.NoError(t, tracker.Configure("chan-1", "instagram", 100, false))

	status, err := tracker.Check("chan-1", "instagram")
	require.NoError(t, err)
	assert.False(t, status.Available)
	assert.Equal(t, 100, status.Remaining, "remaining still reported for inactive providers")

	require.NoError(t, tracker.SetActive("chan-1", "instagram", true))

	status, err = tracker.Check("chan-1", "instagram")
	require.NoError(t, err)
	assert.True(t, status.Available)
}

func TestPeriodResetHappensExactlyOnce(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(t, &now)

	require.NoError(t, tracker.Configure("chan-1", "youtube", 10, true))

	ok, err := tracker.Increment("chan-1", "youtube", 7)
	require.NoError(t, err)
	require.True(t, ok)

	firstReset := now.Add(30 * 24 * time.Hour)

	// Advance past the reset boundary: next check zeroes usage and advances
	// the reset timestamp one period.
	now = firstReset.Add(time.Hour)

	status, err := tracker.Check("chan-1", "youtube")
	require.NoError(t, err)
	assert.Zero(t, status.Usage)
	assert.Equal(t, 10, status.Remaining)
	assert.Equal(t, firstReset.Add(30*24*time.Hour), status.ResetAt)

	// A second check within the same period must not reset again.
	ok, err = tracker.Increment("chan-1", "youtube", 3)
	require.NoError(t, err)
	require.True(t, ok)

	status, err = tracker.Check("chan-1", "youtube")
	require.NoError(t, err)
	assert.Equal(t, 3, status.Usage)
	assert.Equal(t, firstReset.Add(30*24*time.Hour), status.ResetAt)
}

func TestResetSkipsWholeElapsedPeriods(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(t, &now)

	require.NoError(t, tracker.Configure("chan-1", "twitter", 10, true))

	// Jump three full periods ahead; reset_at must land in the future.
	now = now.Add(3*30*24*time.Hour + time.Hour)

	status, err := tracker.Check("chan-1", "twitter")
	require.NoError(t, err)
	assert.True(t, status.ResetAt.After(now))
	assert.Zero(t, status.Usage)
}

func TestListByChannel(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tracker := newTestTracker(t, &now)

	require.NoError(t, tracker.Configure("chan-1", "youtube", 10, true))
	require.NoError(t, tracker.Configure("chan-1", "tiktok", 20, true))
	require.NoError(t, tracker.Configure("chan-2", "youtube", 5, true))

	records, err := tracker.ListByChannel("chan-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "tiktok", records[0].ProviderID)
	assert.Equal(t, "youtube", records[1].ProviderID)
}
