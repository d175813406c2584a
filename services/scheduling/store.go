package scheduling

import (
	"errors"
	"fmt"
	"time"

	"melodica_go/models"
)

var (
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrInvalidStatus    = errors.New("invalid lesson status")
	ErrInvalidAttend    = errors.New("invalid attendance value")
	ErrInvalidStartTime = errors.New("invalid lesson start time")
)

// LessonDraft carries the caller-supplied fields for a new lesson.
type LessonDraft struct {
	StudentID       uint
	Date            time.Time
	StartTime       string
	DurationMinutes int
	LessonType      string
	Rate            float64
	Notes           string
}

func lessonFromDraft(d LessonDraft) models.Lesson {
	dur := d.DurationMinutes
	if dur <= 0 {
		dur = DefaultDurationMinutes
	}
	return models.Lesson{
		StudentID:       d.StudentID,
		Date:            dateOnly(d.Date),
		StartTime:       d.StartTime,
		DurationMinutes: dur,
		LessonType:      d.LessonType,
		Rate:            d.Rate,
		Status:          models.LessonStatusScheduled,
		Notes:           d.Notes,
	}
}

// BuildLesson materializes a single scheduled lesson from a draft.
func BuildLesson(d LessonDraft) (models.Lesson, error) {
	if _, err := MinuteOfDay(d.StartTime); err != nil {
		return models.Lesson{}, fmt.Errorf("%w: %v", ErrInvalidStartTime, err)
	}
	return lessonFromDraft(d), nil
}

// BuildRecurringLessons materializes one lesson per occurrence date. The
// batch shares an id and each member carries its position in the series;
// row ids are assigned by the database when the batch is persisted.
func BuildRecurringLessons(d LessonDraft, dates []time.Time, batchID string) ([]models.Lesson, error) {
	if _, err := MinuteOfDay(d.StartTime); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStartTime, err)
	}
	out := make([]models.Lesson, 0, len(dates))
	for i, date := range dates {
		l := lessonFromDraft(d)
		l.Date = dateOnly(date)
		bid := batchID
		l.BatchID = &bid
		l.SessionNumber = i + 1
		l.TotalSessions = len(dates)
		out = append(out, l)
	}
	return out, nil
}

// AddLesson appends a lesson to a collection snapshot without mutating the
// input slice.
func AddLesson(lessons []models.Lesson, lesson models.Lesson) []models.Lesson {
	out := make([]models.Lesson, 0, len(lessons)+1)
	out = append(out, lessons...)
	out = append(out, lesson)
	return out
}

// LessonPatch holds the fields an update may change; nil means keep.
type LessonPatch struct {
	Date            *time.Time
	StartTime       *string
	DurationMinutes *int
	LessonType      *string
	Rate            *float64
	Notes           *string
}

// ApplyPatch merges a patch into a lesson, validating the fields it touches.
func ApplyPatch(l models.Lesson, p LessonPatch) (models.Lesson, error) {
	if p.Date != nil {
		l.Date = dateOnly(*p.Date)
	}
	if p.StartTime != nil {
		if _, err := MinuteOfDay(*p.StartTime); err != nil {
			return models.Lesson{}, fmt.Errorf("%w: %v", ErrInvalidStartTime, err)
		}
		l.StartTime = *p.StartTime
	}
	if p.DurationMinutes != nil && *p.DurationMinutes > 0 {
		l.DurationMinutes = *p.DurationMinutes
	}
	if p.LessonType != nil {
		l.LessonType = *p.LessonType
	}
	if p.Rate != nil {
		l.Rate = *p.Rate
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	return l, nil
}

// UpdateLesson replaces the lesson with the given id in a collection
// snapshot, returning a fresh slice.
func UpdateLesson(lessons []models.Lesson, id uint, p LessonPatch) ([]models.Lesson, models.Lesson, error) {
	for i, l := range lessons {
		if l.ID != id {
			continue
		}
		updated, err := ApplyPatch(l, p)
		if err != nil {
			return nil, models.Lesson{}, err
		}
		out := make([]models.Lesson, len(lessons))
		copy(out, lessons)
		out[i] = updated
		return out, updated, nil
	}
	return nil, models.Lesson{}, ErrLessonNotFound
}

// DeleteLesson removes the lesson with the given id from a collection
// snapshot, returning a fresh slice.
func DeleteLesson(lessons []models.Lesson, id uint) ([]models.Lesson, error) {
	for i, l := range lessons {
		if l.ID != id {
			continue
		}
		out := make([]models.Lesson, 0, len(lessons)-1)
		out = append(out, lessons[:i]...)
		out = append(out, lessons[i+1:]...)
		return out, nil
	}
	return nil, ErrLessonNotFound
}

// SetStatus transitions a lesson between scheduled, completed and
// cancelled. Attendance is only meaningful alongside completion and is
// cleared on any other transition, as is the completion timestamp.
func SetStatus(l models.Lesson, status string, attendance *string, at time.Time) (models.Lesson, error) {
	switch status {
	case models.LessonStatusScheduled, models.LessonStatusCancelled:
		l.Status = status
		l.Attendance = nil
		l.CompletedAt = nil
	case models.LessonStatusCompleted:
		if attendance != nil {
			switch *attendance {
			case "present", "absent":
			default:
				return models.Lesson{}, fmt.Errorf("%w: %q", ErrInvalidAttend, *attendance)
			}
		}
		l.Status = status
		l.Attendance = attendance
		completed := at
		l.CompletedAt = &completed
	default:
		return models.Lesson{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return l, nil
}

// LessonsOn returns the lessons falling on the given calendar day.
func LessonsOn(lessons []models.Lesson, day time.Time) []models.Lesson {
	var out []models.Lesson
	for _, l := range lessons {
		if sameDay(l.Date, day) {
			out = append(out, l)
		}
	}
	return out
}

// LessonsForStudent returns the lessons belonging to one student.
func LessonsForStudent(lessons []models.Lesson, studentID uint) []models.Lesson {
	var out []models.Lesson
	for _, l := range lessons {
		if l.StudentID == studentID {
			out = append(out, l)
		}
	}
	return out
}
