package scheduling

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"melodica_go/models"
)

// DefaultDurationMinutes is assumed when a lesson carries no duration.
const DefaultDurationMinutes = 30

// MinuteOfDay parses a zero-padded HH:MM wall-clock string into minutes
// since midnight.
func MinuteOfDay(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// lessonSpan resolves a lesson's [start, end) minutes within its day.
func lessonSpan(l models.Lesson) (int, int, bool) {
	start, err := MinuteOfDay(l.StartTime)
	if err != nil {
		return 0, 0, false
	}
	dur := l.DurationMinutes
	if dur <= 0 {
		dur = DefaultDurationMinutes
	}
	return start, start + dur, true
}

// ConflictCandidate describes a proposed booking to check against the
// calendar. LessonID is zero when the lesson does not exist yet.
type ConflictCandidate struct {
	LessonID        uint
	Date            time.Time
	StartTime       string
	DurationMinutes int
}

// DetectConflicts returns the scheduled lessons on the candidate's day whose
// half-open [start, end) span intersects the candidate's. Back-to-back
// bookings where one ends exactly when the other begins do not conflict.
// Cancelled and completed lessons never conflict, and a lesson is never
// reported as conflicting with itself.
func DetectConflicts(candidate ConflictCandidate, existing []models.Lesson) []models.Lesson {
	startMin, err := MinuteOfDay(candidate.StartTime)
	if err != nil {
		return nil
	}
	dur := candidate.DurationMinutes
	if dur <= 0 {
		dur = DefaultDurationMinutes
	}
	endMin := startMin + dur

	var conflicts []models.Lesson
	for _, l := range existing {
		if candidate.LessonID != 0 && l.ID == candidate.LessonID {
			continue
		}
		if l.Status != models.LessonStatusScheduled {
			continue
		}
		if !sameDay(l.Date, candidate.Date) {
			continue
		}
		ls, le, ok := lessonSpan(l)
		if !ok {
			continue
		}
		if startMin < le && ls < endMin {
			conflicts = append(conflicts, l)
		}
	}
	return conflicts
}

// Placement positions a lesson within its overlap cluster: Column is the
// zero-based slot, Columns the cluster width shared by every member.
type Placement struct {
	Column  int `json:"column"`
	Columns int `json:"columns"`
}

// ComputeOverlapLayout assigns side-by-side columns to one day's lessons.
// Lessons are sorted by start time (longer first on ties) and grouped into
// clusters that grow while the next lesson starts before the furthest end
// seen so far. Every member of a cluster shares the cluster's width, so a
// chain of pairwise overlaps widens the whole group even when its first and
// last lessons never touch. The calendar grid renders on that assumption.
func ComputeOverlapLayout(lessons []models.Lesson) map[uint]Placement {
	type span struct {
		id         uint
		start, end int
	}
	spans := make([]span, 0, len(lessons))
	for _, l := range lessons {
		s, e, ok := lessonSpan(l)
		if !ok {
			continue
		}
		spans = append(spans, span{id: l.ID, start: s, end: e})
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	placements := make(map[uint]Placement, len(spans))
	for i := 0; i < len(spans); {
		j := i + 1
		maxEnd := spans[i].end
		for j < len(spans) && spans[j].start < maxEnd {
			if spans[j].end > maxEnd {
				maxEnd = spans[j].end
			}
			j++
		}
		cluster := spans[i:j]
		for k, sp := range cluster {
			placements[sp.id] = Placement{Column: k, Columns: len(cluster)}
		}
		i = j
	}
	return placements
}
