package scheduling

import (
	"testing"
	"time"

	"melodica_go/models"
)

func scheduledLesson(id uint, day time.Time, start string, duration int) models.Lesson {
	return models.Lesson{
		BaseModel:       models.BaseModel{ID: id},
		StudentID:       1,
		Date:            day,
		StartTime:       start,
		DurationMinutes: duration,
		Status:          models.LessonStatusScheduled,
	}
}

func TestMinuteOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{" 10:15 ", 615, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"9", 0, true},
		{"nine:thirty", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := MinuteOfDay(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%q: expected %d, got %d", c.in, c.want, got)
		}
	}
}

func TestDetectConflicts(t *testing.T) {
	day := date(2026, time.March, 2)
	otherDay := date(2026, time.March, 3)

	existing := []models.Lesson{
		scheduledLesson(1, day, "09:00", 60),  // 09:00-10:00
		scheduledLesson(2, day, "10:00", 30),  // 10:00-10:30, back to back with 1
		scheduledLesson(3, otherDay, "09:00", 60),
		func() models.Lesson {
			l := scheduledLesson(4, day, "09:00", 60)
			l.Status = models.LessonStatusCancelled
			return l
		}(),
		func() models.Lesson {
			l := scheduledLesson(5, day, "09:00", 60)
			l.Status = models.LessonStatusCompleted
			return l
		}(),
	}

	cases := []struct {
		name      string
		candidate ConflictCandidate
		wantIDs   []uint
	}{
		{
			"overlapping start",
			ConflictCandidate{Date: day, StartTime: "09:30", DurationMinutes: 60},
			[]uint{1, 2},
		},
		{
			"contained within",
			ConflictCandidate{Date: day, StartTime: "09:15", DurationMinutes: 15},
			[]uint{1},
		},
		{
			"back to back is not a conflict",
			ConflictCandidate{Date: day, StartTime: "10:30", DurationMinutes: 30},
			nil,
		},
		{
			"ends exactly at the next start",
			ConflictCandidate{Date: day, StartTime: "08:00", DurationMinutes: 60},
			nil,
		},
		{
			"only considers its own day",
			ConflictCandidate{Date: otherDay, StartTime: "09:00", DurationMinutes: 60},
			[]uint{3},
		},
		{
			"default duration applies",
			ConflictCandidate{Date: day, StartTime: "09:45"},
			[]uint{1, 2},
		},
		{
			"excludes itself when rescheduling",
			ConflictCandidate{LessonID: 1, Date: day, StartTime: "09:00", DurationMinutes: 60},
			nil,
		},
		{
			"invalid start time finds nothing",
			ConflictCandidate{Date: day, StartTime: "late"},
			nil,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := DetectConflicts(c.candidate, existing)
			if len(got) != len(c.wantIDs) {
				t.Fatalf("expected %d conflicts, got %d: %+v", len(c.wantIDs), len(got), got)
			}
			for i, want := range c.wantIDs {
				if got[i].ID != want {
					t.Fatalf("conflict %d: expected lesson %d, got %d", i, want, got[i].ID)
				}
			}
		})
	}
}

func TestComputeOverlapLayoutDisjoint(t *testing.T) {
	day := date(2026, time.March, 2)
	lessons := []models.Lesson{
		scheduledLesson(1, day, "09:00", 30),
		scheduledLesson(2, day, "09:30", 30),
		scheduledLesson(3, day, "14:00", 60),
	}

	layout := ComputeOverlapLayout(lessons)
	for _, l := range lessons {
		p, ok := layout[l.ID]
		if !ok {
			t.Fatalf("lesson %d missing from layout", l.ID)
		}
		if p.Column != 0 || p.Columns != 1 {
			t.Fatalf("lesson %d: expected full width, got %+v", l.ID, p)
		}
	}
}

func TestComputeOverlapLayoutPair(t *testing.T) {
	day := date(2026, time.March, 2)
	lessons := []models.Lesson{
		scheduledLesson(1, day, "09:00", 60),
		scheduledLesson(2, day, "09:30", 60),
	}

	layout := ComputeOverlapLayout(lessons)
	if layout[1].Columns != 2 || layout[2].Columns != 2 {
		t.Fatalf("expected a cluster of 2, got %+v", layout)
	}
	if layout[1].Column != 0 || layout[2].Column != 1 {
		t.Fatalf("expected columns ordered by start time, got %+v", layout)
	}
}

// A chain of pairwise overlaps is treated as one cluster, so the first and
// last lessons share its width even though they never touch. The calendar
// grid renders on that assumption.
func TestComputeOverlapLayoutChain(t *testing.T) {
	day := date(2026, time.March, 2)
	lessons := []models.Lesson{
		scheduledLesson(1, day, "09:00", 60),  // 09:00-10:00
		scheduledLesson(2, day, "09:30", 60),  // 09:30-10:30
		scheduledLesson(3, day, "10:15", 45),  // 10:15-11:00, clear of lesson 1
	}

	layout := ComputeOverlapLayout(lessons)
	for id := uint(1); id <= 3; id++ {
		if layout[id].Columns != 3 {
			t.Fatalf("lesson %d: expected cluster width 3, got %+v", id, layout[id])
		}
	}
	if layout[1].Column != 0 || layout[2].Column != 1 || layout[3].Column != 2 {
		t.Fatalf("unexpected column order: %+v", layout)
	}
}

func TestComputeOverlapLayoutTies(t *testing.T) {
	day := date(2026, time.March, 2)
	lessons := []models.Lesson{
		scheduledLesson(1, day, "09:00", 30),
		scheduledLesson(2, day, "09:00", 90),
	}

	layout := ComputeOverlapLayout(lessons)
	if layout[2].Column != 0 {
		t.Fatalf("expected the longer lesson in the first column, got %+v", layout)
	}
	if layout[1].Column != 1 {
		t.Fatalf("expected the shorter lesson in the second column, got %+v", layout)
	}
}

func TestComputeOverlapLayoutInvariants(t *testing.T) {
	day := date(2026, time.March, 2)
	lessons := []models.Lesson{
		scheduledLesson(1, day, "08:00", 45),
		scheduledLesson(2, day, "08:30", 90),
		scheduledLesson(3, day, "09:00", 30),
		scheduledLesson(4, day, "11:00", 60),
		scheduledLesson(5, day, "11:45", 30),
		scheduledLesson(6, day, "15:00", 30),
	}

	layout := ComputeOverlapLayout(lessons)
	if len(layout) != len(lessons) {
		t.Fatalf("expected a placement per lesson, got %d of %d", len(layout), len(lessons))
	}
	for id, p := range layout {
		if p.Columns < 1 {
			t.Fatalf("lesson %d: non-positive cluster width %+v", id, p)
		}
		if p.Column < 0 || p.Column >= p.Columns {
			t.Fatalf("lesson %d: column out of range %+v", id, p)
		}
	}
}

func TestComputeOverlapLayoutSkipsUnparseable(t *testing.T) {
	day := date(2026, time.March, 2)
	lessons := []models.Lesson{
		scheduledLesson(1, day, "09:00", 30),
		scheduledLesson(2, day, "whenever", 30),
	}

	layout := ComputeOverlapLayout(lessons)
	if _, ok := layout[2]; ok {
		t.Fatalf("expected unparseable lesson to be skipped, got %+v", layout)
	}
	if layout[1].Columns != 1 {
		t.Fatalf("expected remaining lesson at full width, got %+v", layout)
	}
}
