// Package timing picks optimal publishing slots per platform from static
// engagement tables.
package timing

import (
	"time"

	"github.com/crosscast/crosscast/platform"
)

// Profile holds the posting-time tables for one platform: ordered slot lists
// per weekday, separate lists for weekend days, and an engagement multiplier
// per time-of-day slot. Slots are "HH:MM" in the audience's local time.
// Profiles are built once at process start and read-only thereafter.
type Profile struct {
	Weekday    map[time.Weekday][]string
	Weekend    map[time.Weekday][]string
	Engagement map[string]float64
}

// SlotsFor returns the ordered slot list for a day, consulting the weekend
// table for Saturday/Sunday and the weekday table otherwise.
func (p *Profile) SlotsFor(day time.Weekday) []string {
	if day == time.Saturday || day == time.Sunday {
		return p.Weekend[day]
	}
	return p.Weekday[day]
}

// Multiplier returns the engagement multiplier for a slot, defaulting to 1.0
// when the slot has no entry.
func (p *Profile) Multiplier(slot string) float64 {
	if m, ok := p.Engagement[slot]; ok {
		return m
	}
	return 1.0
}

// DefaultProfiles returns the built-in timing tables for every platform.
func DefaultProfiles() map[platform.Platform]*Profile {
	return map[platform.Platform]*Profile{
		platform.YouTube: {
			Weekday: map[time.Weekday][]string{
				time.Monday:    {"15:00", "18:00"},
				time.Tuesday:   {"15:00", "18:00"},
				time.Wednesday: {"15:00", "18:00", "20:00"},
				time.Thursday:  {"15:00", "18:00", "20:00"},
				time.Friday:    {"15:00", "17:00", "20:00"},
			},
			Weekend: map[time.Weekday][]string{
				time.Saturday: {"10:00", "15:00"},
				time.Sunday:   {"10:00", "15:00"},
			},
			Engagement: map[string]float64{
				"10:00": 1.1,
				"15:00": 1.2,
				"17:00": 1.3,
				"18:00": 1.4,
				"20:00": 1.3,
			},
		},
		platform.TikTok: {
			Weekday: map[time.Weekday][]string{
				time.Monday:    {"06:00", "10:00", "22:00"},
				time.Tuesday:   {"02:00", "04:00", "09:00"},
				time.Wednesday: {"07:00", "08:00", "23:00"},
				time.Thursday:  {"09:00", "12:00", "19:00"},
				time.Friday:    {"05:00", "13:00", "15:00"},
			},
			Weekend: map[time.Weekday][]string{
				time.Saturday: {"11:00", "19:00", "20:00"},
				time.Sunday:   {"07:00", "08:00", "16:00"},
			},
			Engagement: map[string]float64{
				"06:00": 1.1,
				"09:00": 1.3,
				"12:00": 1.2,
				"19:00": 1.5,
				"20:00": 1.4,
				"22:00": 1.2,
			},
		},
		platform.Instagram: {
			Weekday: map[time.Weekday][]string{
				time.Monday:    {"11:00", "14:00", "17:00"},
				time.Tuesday:   {"11:00", "14:00", "17:00"},
				time.Wednesday: {"11:00", "15:00", "17:00"},
				time.Thursday:  {"11:00", "14:00", "17:00"},
				time.Friday:    {"11:00", "14:00", "16:00"},
			},
			Weekend: map[time.Weekday][]string{
				time.Saturday: {"10:00", "11:00"},
				time.Sunday:   {"10:00", "14:00"},
			},
			Engagement: map[string]float64{
				"10:00": 1.2,
				"11:00": 1.3,
				"14:00": 1.2,
				"15:00": 1.2,
				"16:00": 1.1,
				"17:00": 1.4,
			},
		},
		platform.Twitter: {
			Weekday: map[time.Weekday][]string{
				time.Monday:    {"08:00", "12:00", "17:00"},
				time.Tuesday:   {"08:00", "12:00", "17:00"},
				time.Wednesday: {"08:00", "12:00", "17:00"},
				time.Thursday:  {"08:00", "12:00", "17:00"},
				time.Friday:    {"08:00", "12:00", "15:00"},
			},
			Weekend: map[time.Weekday][]string{
				time.Saturday: {"09:00", "11:00"},
				time.Sunday:   {"09:00", "11:00"},
			},
			Engagement: map[string]float64{
				"08:00": 1.2,
				"09:00": 1.1,
				"11:00": 1.1,
				"12:00": 1.3,
				"15:00": 1.1,
				"17:00": 1.2,
			},
		},
		platform.Facebook: {
			Weekday: map[time.Weekday][]string{
				time.Monday:    {"09:00", "13:00", "15:00"},
				time.Tuesday:   {"09:00", "13:00", "15:00"},
				time.Wednesday: {"09:00", "13:00", "15:00"},
				time.Thursday:  {"09:00", "13:00", "15:00"},
				time.Friday:    {"09:00", "13:00", "15:00"},
			},
			Weekend: map[time.Weekday][]string{
				time.Saturday: {"12:00", "13:00"},
				time.Sunday:   {"12:00", "13:00"},
			},
			Engagement: map[string]float64{
				"09:00": 1.1,
				"12:00": 1.2,
				"13:00": 1.3,
				"15:00": 1.2,
			},
		},
		platform.LinkedIn: {
			Weekday: map[time.Weekday][]string{
				time.Monday:    {"08:00", "10:00", "12:00"},
				time.Tuesday:   {"08:00", "10:00", "12:00"},
				time.Wednesday: {"08:00", "10:00", "12:00"},
				time.Thursday:  {"08:00", "10:00", "12:00"},
				time.Friday:    {"08:00", "10:00"},
			},
			// LinkedIn engagement craters on weekends; no slots configured,
			// so weekend dates fall back to the default midday slot.
			Weekend: map[time.Weekday][]string{},
			Engagement: map[string]float64{
				"08:00": 1.2,
				"10:00": 1.4,
				"12:00": 1.2,
			},
		},
	}
}
