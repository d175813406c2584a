package scheduling

import (
	"errors"
	"testing"
	"time"

	"melodica_go/models"
)

func TestBuildLesson(t *testing.T) {
	draft := LessonDraft{
		StudentID:  7,
		Date:       time.Date(2026, time.April, 3, 18, 30, 0, 0, time.UTC),
		StartTime:  "16:00",
		LessonType: "Piano 30",
		Rate:       40,
	}

	lesson, err := BuildLesson(draft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lesson.Date.Equal(date(2026, time.April, 3)) {
		t.Fatalf("expected date normalized to midnight, got %s", lesson.Date)
	}
	if lesson.DurationMinutes != DefaultDurationMinutes {
		t.Fatalf("expected default duration, got %d", lesson.DurationMinutes)
	}
	if lesson.Status != models.LessonStatusScheduled {
		t.Fatalf("expected new lesson scheduled, got %q", lesson.Status)
	}

	if _, err := BuildLesson(LessonDraft{StudentID: 7, Date: date(2026, time.April, 3), StartTime: "4pm"}); !errors.Is(err, ErrInvalidStartTime) {
		t.Fatalf("expected ErrInvalidStartTime, got %v", err)
	}
}

func TestBuildRecurringLessons(t *testing.T) {
	draft := LessonDraft{StudentID: 7, Date: date(2026, time.April, 6), StartTime: "16:00", DurationMinutes: 45, Rate: 50}
	dates := []time.Time{
		date(2026, time.April, 6),
		date(2026, time.April, 13),
		date(2026, time.April, 20),
	}

	lessons, err := BuildRecurringLessons(draft, dates, "batch-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lessons) != 3 {
		t.Fatalf("expected 3 lessons, got %d", len(lessons))
	}
	for i, l := range lessons {
		if !l.Date.Equal(dates[i]) {
			t.Fatalf("lesson %d: expected %s, got %s", i, dates[i], l.Date)
		}
		if l.BatchID == nil || *l.BatchID != "batch-1" {
			t.Fatalf("lesson %d: missing batch id", i)
		}
		if l.SessionNumber != i+1 || l.TotalSessions != 3 {
			t.Fatalf("lesson %d: expected session %d of 3, got %d of %d", i, i+1, l.SessionNumber, l.TotalSessions)
		}
		if l.DurationMinutes != 45 {
			t.Fatalf("lesson %d: expected duration carried over, got %d", i, l.DurationMinutes)
		}
	}

	if _, err := BuildRecurringLessons(LessonDraft{StartTime: "never"}, dates, "batch-2"); !errors.Is(err, ErrInvalidStartTime) {
		t.Fatalf("expected ErrInvalidStartTime, got %v", err)
	}
}

func TestAddLessonDoesNotMutateInput(t *testing.T) {
	day := date(2026, time.April, 6)
	original := []models.Lesson{scheduledLesson(1, day, "09:00", 30)}

	extended := AddLesson(original, scheduledLesson(2, day, "10:00", 30))
	if len(original) != 1 {
		t.Fatalf("input snapshot mutated: %d lessons", len(original))
	}
	if len(extended) != 2 {
		t.Fatalf("expected 2 lessons, got %d", len(extended))
	}
}

func TestUpdateLesson(t *testing.T) {
	day := date(2026, time.April, 6)
	lessons := []models.Lesson{
		scheduledLesson(1, day, "09:00", 30),
		scheduledLesson(2, day, "10:00", 30),
	}

	newStart := "11:30"
	newRate := 55.0
	updated, lesson, err := UpdateLesson(lessons, 2, LessonPatch{StartTime: &newStart, Rate: &newRate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lesson.StartTime != "11:30" || lesson.Rate != 55 {
		t.Fatalf("patch not applied: %+v", lesson)
	}
	if lessons[1].StartTime != "10:00" {
		t.Fatalf("input snapshot mutated: %+v", lessons[1])
	}
	if updated[1].StartTime != "11:30" {
		t.Fatalf("returned snapshot not updated: %+v", updated[1])
	}

	bad := "25:00"
	if _, _, err := UpdateLesson(lessons, 1, LessonPatch{StartTime: &bad}); !errors.Is(err, ErrInvalidStartTime) {
		t.Fatalf("expected ErrInvalidStartTime, got %v", err)
	}

	if _, _, err := UpdateLesson(lessons, 99, LessonPatch{}); !errors.Is(err, ErrLessonNotFound) {
		t.Fatalf("expected ErrLessonNotFound, got %v", err)
	}
}

func TestDeleteLesson(t *testing.T) {
	day := date(2026, time.April, 6)
	lessons := []models.Lesson{
		scheduledLesson(1, day, "09:00", 30),
		scheduledLesson(2, day, "10:00", 30),
	}

	remaining, err := DeleteLesson(lessons, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != 2 {
		t.Fatalf("unexpected remaining lessons: %+v", remaining)
	}
	if len(lessons) != 2 {
		t.Fatalf("input snapshot mutated: %d lessons", len(lessons))
	}

	if _, err := DeleteLesson(lessons, 99); !errors.Is(err, ErrLessonNotFound) {
		t.Fatalf("expected ErrLessonNotFound, got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	day := date(2026, time.April, 6)
	now := time.Date(2026, time.April, 6, 17, 0, 0, 0, time.UTC)
	present := "present"

	t.Run("complete with attendance", func(t *testing.T) {
		l, err := SetStatus(scheduledLesson(1, day, "16:00", 30), models.LessonStatusCompleted, &present, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if l.Status != models.LessonStatusCompleted {
			t.Fatalf("expected completed, got %q", l.Status)
		}
		if l.Attendance == nil || *l.Attendance != "present" {
			t.Fatalf("attendance not recorded: %+v", l.Attendance)
		}
		if l.CompletedAt == nil || !l.CompletedAt.Equal(now) {
			t.Fatalf("completion time not recorded: %+v", l.CompletedAt)
		}
	})

	t.Run("cancel clears completion fields", func(t *testing.T) {
		completed, _ := SetStatus(scheduledLesson(1, day, "16:00", 30), models.LessonStatusCompleted, &present, now)
		l, err := SetStatus(completed, models.LessonStatusCancelled, nil, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if l.Attendance != nil || l.CompletedAt != nil {
			t.Fatalf("completion fields not cleared: %+v", l)
		}
	})

	t.Run("reschedule clears completion fields", func(t *testing.T) {
		completed, _ := SetStatus(scheduledLesson(1, day, "16:00", 30), models.LessonStatusCompleted, &present, now)
		l, err := SetStatus(completed, models.LessonStatusScheduled, nil, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if l.Status != models.LessonStatusScheduled || l.CompletedAt != nil {
			t.Fatalf("expected a clean reschedule, got %+v", l)
		}
	})

	t.Run("rejects unknown attendance", func(t *testing.T) {
		tardy := "tardy"
		if _, err := SetStatus(scheduledLesson(1, day, "16:00", 30), models.LessonStatusCompleted, &tardy, now); !errors.Is(err, ErrInvalidAttend) {
			t.Fatalf("expected ErrInvalidAttend, got %v", err)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		if _, err := SetStatus(scheduledLesson(1, day, "16:00", 30), "postponed", nil, now); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("expected ErrInvalidStatus, got %v", err)
		}
	})
}

func TestLessonQueries(t *testing.T) {
	monday := date(2026, time.April, 6)
	tuesday := date(2026, time.April, 7)
	lessons := []models.Lesson{
		scheduledLesson(1, monday, "09:00", 30),
		scheduledLesson(2, tuesday, "09:00", 30),
		func() models.Lesson {
			l := scheduledLesson(3, monday, "10:00", 30)
			l.StudentID = 2
			return l
		}(),
	}

	onMonday := LessonsOn(lessons, monday)
	if len(onMonday) != 2 {
		t.Fatalf("expected 2 lessons on Monday, got %d", len(onMonday))
	}

	forStudent := LessonsForStudent(lessons, 2)
	if len(forStudent) != 1 || forStudent[0].ID != 3 {
		t.Fatalf("unexpected lessons for student 2: %+v", forStudent)
	}
}
