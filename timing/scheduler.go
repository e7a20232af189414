package timing

import (
	"strconv"
	"strings"
	"time"

	"github.com/crosscast/crosscast/errors"
	"github.com/crosscast/crosscast/platform"
)

// DefaultSlot is used when a platform has no slots configured for a day
const DefaultSlot = "12:00"

// BestSlot is an optimal posting instant with its engagement score
type BestSlot struct {
	At    time.Time `json:"at"` // UTC instant
	Slot  string    `json:"slot"`
	Score float64   `json:"score"`
}

// CalendarDay holds the best slot per platform for one day in a planning window
type CalendarDay struct {
	Date  string                         `json:"date"` // YYYY-MM-DD in the audience timezone
	Slots map[platform.Platform]BestSlot `json:"slots"`
}

// Scheduler picks optimal posting slots from per-platform timing profiles
type Scheduler struct {
	profiles map[platform.Platform]*Profile
}

// NewScheduler creates a scheduler over the built-in timing tables
func NewScheduler() *Scheduler {
	return NewSchedulerWithProfiles(DefaultProfiles())
}

// NewSchedulerWithProfiles creates a scheduler over custom timing tables (for tests)
func NewSchedulerWithProfiles(profiles map[platform.Platform]*Profile) *Scheduler {
	return &Scheduler{profiles: profiles}
}

// BestSlot returns the highest-engagement slot for a platform on targetDate,
// evaluated in the audience timezone. Ties break toward the first-listed slot.
// A platform or day with no configured slots falls back to a midday slot with
// score 1.0. The returned instant is converted back to UTC.
func (s *Scheduler) BestSlot(p platform.Platform, tz string, targetDate time.Time) (BestSlot, error) {
	if !p.IsValid() {
		return BestSlot{}, errors.NewInvalidPlatformError("unknown platform: %q", string(p))
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return BestSlot{}, errors.Wrapf(err, "unknown timezone %q", tz)
	}

	local := targetDate.In(loc)

	slot := DefaultSlot
	score := 1.0

	if profile, ok := s.profiles[p]; ok {
		if slots := profile.SlotsFor(local.Weekday()); len(slots) > 0 {
			slot, score = pickBest(profile, slots)
		}
	}

	hour, minute, err := parseSlot(slot)
	if err != nil {
		return BestSlot{}, err
	}

	at := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	return BestSlot{At: at.UTC(), Slot: slot, Score: score}, nil
}

// Calendar produces the best slot and score per platform for each day in a
// planning window starting tomorrow. Used for planning, not execution.
func (s *Scheduler) Calendar(platforms []platform.Platform, tz string, daysAhead int) ([]CalendarDay, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown timezone %q", tz)
	}

	now := time.Now().In(loc)
	days := make([]CalendarDay, 0, daysAhead)
	for i := 1; i <= daysAhead; i++ {
		date := now.AddDate(0, 0, i)
		day := CalendarDay{
			Date:  date.Format("2006-01-02"),
			Slots: make(map[platform.Platform]BestSlot, len(platforms)),
		}
		for _, p := range platforms {
			best, err := s.BestSlot(p, tz, date)
			if err != nil {
				return nil, err
			}
			day.Slots[p] = best
		}
		days = append(days, day)
	}
	return days, nil
}

// pickBest returns the slot with the highest multiplier; the first-listed
// slot wins ties because later candidates must strictly beat it.
func pickBest(profile *Profile, slots []string) (string, float64) {
	best := slots[0]
	bestScore := profile.Multiplier(best)
	for _, candidate := range slots[1:] {
		if m := profile.Multiplier(candidate); m > bestScore {
			best = candidate
			bestScore = m
		}
	}
	return best, bestScore
}

func parseSlot(slot string) (hour, minute int, err error) {
	parts := strings.SplitN(slot, ":", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Newf("malformed slot %q", slot)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.Newf("malformed slot hour %q", slot)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.Newf("malformed slot minute %q", slot)
	}
	return hour, minute, nil
}
