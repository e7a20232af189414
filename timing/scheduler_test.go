package timing

import (
	"testing"
	"time"

	"github.com/crosscast/crosscast/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestSlotPicksHighestEngagement(t *testing.T) {
	s := NewScheduler()

	// 2026-09-01 is a Tuesday. Instagram Tuesday slots:
	// 11:00 (1.3), 14:00 (1.2), 17:00 (1.4).
	tuesday := time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)
	best, err := s.BestSlot(platform.Instagram, "UTC", tuesday)
	require.NoError(t, err)

	assert.Equal(t, "17:00", best.Slot)
	assert.Equal(t, 1.4, best.Score)
	assert.Equal(t, time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC), best.At)
}

func TestBestSlotTieBreaksTowardFirstListed(t *testing.T) {
	profiles := map[platform.Platform]*Profile{
		platform.Twitter: {
			Weekday: map[time.Weekday][]string{
				time.Monday: {"09:00", "13:00", "18:00"},
			},
			Engagement: map[string]float64{
				"09:00": 1.2,
				"13:00": 1.2,
				"18:00": 1.1,
			},
		},
	}
	s := NewSchedulerWithProfiles(profiles)

	monday := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	best, err := s.BestSlot(platform.Twitter, "UTC", monday)
	require.NoError(t, err)
	assert.Equal(t, "09:00", best.Slot)
	assert.Equal(t, 1.2, best.Score)
}

func TestBestSlotEmptyScheduleFallsBackToMidday(t *testing.T) {
	s := NewScheduler()

	// LinkedIn has no weekend slots configured.
	saturday := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	require.Equal(t, time.Saturday, saturday.Weekday())

	best, err := s.BestSlot(platform.LinkedIn, "UTC", saturday)
	require.NoError(t, err)
	assert.Equal(t, DefaultSlot, best.Slot)
	assert.Equal(t, 1.0, best.Score)
	assert.Equal(t, 12, best.At.Hour())
}

func TestBestSlotConvertsTimezoneToUTC(t *testing.T) {
	s := NewScheduler()

	// 2026-09-01 00:30 UTC is still Monday 19:30 in New York (UTC-5/-4).
	// The slot is evaluated against the New York weekday and the returned
	// instant must come back in UTC.
	date := time.Date(2026, 9, 1, 0, 30, 0, 0, time.UTC)
	best, err := s.BestSlot(platform.Instagram, "America/New_York", date)
	require.NoError(t, err)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	local := best.At.In(loc)

	assert.Equal(t, time.Monday, local.Weekday())
	assert.Equal(t, "17:00", best.Slot, "Instagram Monday peak is 17:00")
	assert.Equal(t, 17, local.Hour())
	assert.Equal(t, time.UTC, best.At.Location())
}

func TestBestSlotRejectsUnknownInputs(t *testing.T) {
	s := NewScheduler()
	now := time.Now()

	_, err := s.BestSlot(platform.Platform("vine"), "UTC", now)
	assert.Error(t, err)

	_, err = s.BestSlot(platform.YouTube, "Mars/Olympus_Mons", now)
	assert.Error(t, err)
}

func TestBestSlotScoreIsDayMaximum(t *testing.T) {
	s := NewScheduler()
	profiles := DefaultProfiles()

	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC) // Wednesday
	for _, p := range platform.All() {
		best, err := s.BestSlot(p, "UTC", date)
		require.NoError(t, err)

		profile := profiles[p]
		for _, slot := range profile.SlotsFor(date.Weekday()) {
			assert.GreaterOrEqual(t, best.Score, profile.Multiplier(slot),
				"platform %s slot %s", p, slot)
		}
	}
}

func TestCalendarCoversWindowAndPlatforms(t *testing.T) {
	s := NewScheduler()
	platforms := []platform.Platform{platform.YouTube, platform.TikTok}

	days, err := s.Calendar(platforms, "UTC", 7)
	require.NoError(t, err)
	require.Len(t, days, 7)

	for _, day := range days {
		assert.Len(t, day.Slots, 2)
		for _, p := range platforms {
			slot, ok := day.Slots[p]
			require.True(t, ok, "missing slot for %s on %s", p, day.Date)
			assert.GreaterOrEqual(t, slot.Score, 1.0)
			assert.False(t, slot.At.IsZero())
		}
	}
}
