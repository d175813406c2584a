package scheduling

import (
	"errors"
	"fmt"
	"time"
)

// Recurrence frequencies
const (
	FrequencyDaily    = "daily"
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

// End modes
const (
	EndNever = "never"
	EndOn    = "on"
	EndAfter = "after"
)

// NeverCap bounds open-ended expansions so "repeats forever" stays previewable.
const NeverCap = 52

var (
	ErrInvalidStart     = errors.New("recurrence start date is required")
	ErrEmptyWeekdays    = errors.New("recurrence weekday set is empty")
	ErrInvalidCount     = errors.New("recurrence count must be at least 1")
	ErrInvalidUntil     = errors.New("recurrence end date is required")
	ErrUnknownFrequency = errors.New("unknown recurrence frequency")
	ErrUnknownEndMode   = errors.New("unknown recurrence end mode")
)

// Rule describes a recurring booking pattern. Weekdays applies to weekly
// and biweekly frequencies only; Until applies to EndOn; Count to EndAfter.
type Rule struct {
	Start     time.Time
	Frequency string
	Weekdays  []time.Weekday
	End       string
	Until     time.Time
	Count     int
}

// Validate reports why a rule cannot expand. Mutating endpoints call this
// before creating lessons so a bad rule fails loudly instead of quietly
// producing nothing.
func (r Rule) Validate() error {
	if r.Start.IsZero() {
		return ErrInvalidStart
	}
	switch r.Frequency {
	case FrequencyDaily, FrequencyMonthly:
	case FrequencyWeekly, FrequencyBiweekly:
		if len(r.Weekdays) == 0 {
			return ErrEmptyWeekdays
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFrequency, r.Frequency)
	}
	switch r.End {
	case EndNever:
	case EndOn:
		if r.Until.IsZero() {
			return ErrInvalidUntil
		}
	case EndAfter:
		if r.Count < 1 {
			return ErrInvalidCount
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEndMode, r.End)
	}
	return nil
}

// Expand materializes the occurrence dates for a rule, normalized to
// midnight UTC, strictly ascending and duplicate-free. Invalid rules expand
// to an empty slice so preview paths degrade gracefully; Validate carries
// the loud version of the same checks.
func Expand(r Rule) []time.Time {
	if r.Validate() != nil {
		return nil
	}

	start := dateOnly(r.Start)
	until := dateOnly(r.Until)
	limit := r.occurrenceLimit()

	if r.Frequency == FrequencyMonthly {
		return expandMonthly(start, until, r.End, limit)
	}

	weekdays := weekdaySet(r.Weekdays)
	anchor := startOfWeek(start)
	var out []time.Time
	for d := start; ; d = d.AddDate(0, 0, 1) {
		if r.End == EndOn && d.After(until) {
			break
		}
		if r.matchesDay(d, anchor, weekdays) {
			out = append(out, d)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

func (r Rule) occurrenceLimit() int {
	switch r.End {
	case EndAfter:
		return r.Count
	case EndOn:
		return 0 // bounded by the end date instead
	default:
		return NeverCap
	}
}

func (r Rule) matchesDay(d, anchor time.Time, weekdays map[time.Weekday]bool) bool {
	switch r.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return weekdays[d.Weekday()]
	case FrequencyBiweekly:
		if !weekdays[d.Weekday()] {
			return false
		}
		// anchored to the week containing the start date
		weeks := int(d.Sub(anchor)/(24*time.Hour)) / 7
		return weeks%2 == 0
	}
	return false
}

// expandMonthly emits the start's day-of-month in each following month.
// Months that do not contain that day (the 31st in April, the 29th-31st
// in most Februaries) are skipped rather than shifted.
func expandMonthly(start, until time.Time, endMode string, limit int) []time.Time {
	day := start.Day()
	horizon := monthlyHorizon
	if endMode == EndAfter {
		// A day-31 rule lands in only seven months a year, so a fixed
		// horizon would cut large counts short. Twice the count in months
		// always reaches it.
		horizon = limit*2 + 24
	}
	var out []time.Time
	for i := 0; i < horizon; i++ {
		d := time.Date(start.Year(), start.Month()+time.Month(i), day, 0, 0, 0, 0, time.UTC)
		if d.Day() != day {
			continue
		}
		if endMode == EndOn && d.After(until) {
			break
		}
		out = append(out, d)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// monthlyHorizon stops an EndOn monthly walk that has passed its end date
// on a skipped month from scanning further than a century out.
const monthlyHorizon = 1200

func weekdaySet(days []time.Weekday) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	return set
}

func startOfWeek(d time.Time) time.Time {
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
