package controllers

import (
	"sort"
	"strconv"
	"time"

	"melodica_go/database"
	"melodica_go/middleware"
	"melodica_go/models"
	"melodica_go/services/scheduling"
	"melodica_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LessonController struct{}

const dateLayout = "2006-01-02"

// LessonRequest carries the caller-supplied fields for booking a lesson.
// Duration, type and rate fall back to the student's defaults and the
// catalog when omitted.
type LessonRequest struct {
	StudentID       uint     `json:"student_id" validate:"required"`
	Date            string   `json:"date" validate:"required"`
	StartTime       string   `json:"start_time" validate:"required,hhmm"`
	DurationMinutes int      `json:"duration_minutes" validate:"omitempty,gt=0"`
	LessonType      string   `json:"lesson_type"`
	Rate            *float64 `json:"rate" validate:"omitempty,gte=0"`
	Notes           string   `json:"notes"`
	AllowConflicts  bool     `json:"allow_conflicts"`
}

// RecurrenceRule mirrors the recurrence options: weekdays use Go's
// numbering (Sunday = 0) and apply to weekly and biweekly frequencies.
type RecurrenceRule struct {
	Frequency string `json:"frequency"`
	Weekdays  []int  `json:"weekdays"`
	EndMode   string `json:"end_mode"`
	Until     string `json:"until"`
	Count     int    `json:"count"`
}

// RecurringLessonRequest books a whole series in one call
type RecurringLessonRequest struct {
	LessonRequest
	Recurrence RecurrenceRule `json:"recurrence"`
}

// LessonPatchRequest updates a lesson; nil fields stay untouched
type LessonPatchRequest struct {
	Date            *string  `json:"date"`
	StartTime       *string  `json:"start_time" validate:"omitempty,hhmm"`
	DurationMinutes *int     `json:"duration_minutes" validate:"omitempty,gt=0"`
	LessonType      *string  `json:"lesson_type"`
	Rate            *float64 `json:"rate" validate:"omitempty,gte=0"`
	Notes           *string  `json:"notes"`
	AllowConflicts  bool     `json:"allow_conflicts"`
}

// ConflictCheckRequest checks the calendar for a proposed slot
type ConflictCheckRequest struct {
	LessonID        uint   `json:"lesson_id"`
	Date            string `json:"date" validate:"required"`
	StartTime       string `json:"start_time" validate:"required,hhmm"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,gt=0"`
}

// DayConflicts lists the bookings colliding with one proposed occurrence
type DayConflicts struct {
	Date      string          `json:"date"`
	Conflicts []models.Lesson `json:"conflicts"`
}

func parseLessonDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// scheduledOn loads the scheduled lessons on one calendar day
func scheduledOn(day time.Time) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := database.DB.
		Where("date = ? AND status = ?", day.Format(dateLayout), models.LessonStatusScheduled).
		Find(&lessons).Error
	return lessons, err
}

// resolveLessonDefaults fills duration, type and rate from the student's
// profile and the lesson catalog. Precedence for the rate: explicit value,
// student custom rate, catalog rate.
func resolveLessonDefaults(student models.Student, typeName string, duration int, rate *float64) (string, int, float64) {
	if typeName == "" {
		typeName = student.DefaultLessonType
	}

	var catalog models.LessonType
	inCatalog := typeName != "" &&
		database.DB.Where("name = ?", typeName).First(&catalog).Error == nil

	if duration <= 0 {
		if inCatalog && catalog.DurationMinutes > 0 {
			duration = catalog.DurationMinutes
		} else {
			duration = scheduling.DefaultDurationMinutes
		}
	}

	resolved := 0.0
	switch {
	case rate != nil:
		resolved = *rate
	case student.CustomRate != nil:
		resolved = *student.CustomRate
	case inCatalog:
		resolved = catalog.Rate
	}

	return typeName, duration, resolved
}

func (lc *LessonController) loadActiveStudent(c *fiber.Ctx, id uint) (models.Student, bool) {
	var student models.Student
	if err := database.DB.First(&student, id).Error; err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Student not found",
		})
		return models.Student{}, false
	}
	if !student.Active {
		c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot book lessons for an archived student",
		})
		return models.Student{}, false
	}
	return student, true
}

// GetLessons returns lessons with filters and pagination
func (lc *LessonController) GetLessons(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	query := database.DB.Model(&models.Lesson{})

	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if batchID := c.Query("batch_id"); batchID != "" {
		query = query.Where("batch_id = ?", batchID)
	}
	if from := c.Query("from"); from != "" {
		if d, err := parseLessonDate(from); err == nil {
			query = query.Where("date >= ?", d.Format(dateLayout))
		}
	}
	if to := c.Query("to"); to != "" {
		if d, err := parseLessonDate(to); err == nil {
			query = query.Where("date <= ?", d.Format(dateLayout))
		}
	}

	var total int64
	query.Count(&total)

	var lessons []models.Lesson
	if err := query.Preload("Student").
		Order("date ASC, start_time ASC").
		Offset(offset).Limit(limit).
		Find(&lessons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch lessons",
		})
	}

	return c.JSON(fiber.Map{
		"lessons": lessons,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetLesson returns a specific lesson by ID
func (lc *LessonController) GetLesson(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var lesson models.Lesson
	if err := database.DB.Preload("Student").First(&lesson, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lesson not found",
		})
	}

	return c.JSON(fiber.Map{
		"lesson": lesson,
	})
}

// CreateLesson books a single lesson, refusing double bookings unless the
// caller explicitly allows the overlap
func (lc *LessonController) CreateLesson(c *fiber.Ctx) error {
	var req LessonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if msg := utils.ValidateStruct(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	day, err := parseLessonDate(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}

	student, ok := lc.loadActiveStudent(c, req.StudentID)
	if !ok {
		return nil
	}

	typeName, duration, rate := resolveLessonDefaults(student, req.LessonType, req.DurationMinutes, req.Rate)

	lesson, err := scheduling.BuildLesson(scheduling.LessonDraft{
		StudentID:       student.ID,
		Date:            day,
		StartTime:       req.StartTime,
		DurationMinutes: duration,
		LessonType:      typeName,
		Rate:            rate,
		Notes:           req.Notes,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	existing, err := scheduledOn(day)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check for conflicts",
		})
	}
	conflicts := scheduling.DetectConflicts(scheduling.ConflictCandidate{
		Date:            day,
		StartTime:       lesson.StartTime,
		DurationMinutes: lesson.DurationMinutes,
	}, existing)
	if len(conflicts) > 0 && !req.AllowConflicts {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "The slot overlaps existing lessons",
			"conflicts": conflicts,
		})
	}

	if err := database.DB.Create(&lesson).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create lesson",
		})
	}

	database.DB.Preload("Student").First(&lesson, lesson.ID)

	middleware.LogActivity(c, "CREATE", "lessons", lesson.ID, lesson)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Lesson created successfully",
		"lesson":  lesson,
	})
}

func buildRecurrenceRule(start time.Time, r RecurrenceRule) (scheduling.Rule, error) {
	rule := scheduling.Rule{
		Start:     start,
		Frequency: r.Frequency,
		End:       r.EndMode,
		Count:     r.Count,
	}
	if rule.End == "" {
		rule.End = scheduling.EndNever
	}
	for _, wd := range r.Weekdays {
		rule.Weekdays = append(rule.Weekdays, time.Weekday(wd))
	}
	if r.Until != "" {
		until, err := parseLessonDate(r.Until)
		if err != nil {
			return scheduling.Rule{}, err
		}
		rule.Until = until
	}
	return rule, rule.Validate()
}

// PreviewRecurrence expands a recurrence rule without persisting anything
func (lc *LessonController) PreviewRecurrence(c *fiber.Ctx) error {
	var req struct {
		Date       string         `json:"date" validate:"required"`
		Recurrence RecurrenceRule `json:"recurrence"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	start, err := parseLessonDate(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}

	rule, err := buildRecurrenceRule(start, req.Recurrence)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	occurrences := scheduling.Expand(rule)
	dates := make([]string, 0, len(occurrences))
	for _, d := range occurrences {
		dates = append(dates, d.Format(dateLayout))
	}

	return c.JSON(fiber.Map{
		"dates":  dates,
		"count":  len(dates),
		"capped": rule.End == scheduling.EndNever && len(dates) == scheduling.NeverCap,
	})
}

// CreateRecurringLessons books a whole series that shares a batch id
func (lc *LessonController) CreateRecurringLessons(c *fiber.Ctx) error {
	var req RecurringLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if msg := utils.ValidateStruct(req.LessonRequest); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	start, err := parseLessonDate(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}

	rule, err := buildRecurrenceRule(start, req.Recurrence)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	dates := scheduling.Expand(rule)
	if len(dates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "The recurrence produces no occurrences",
		})
	}

	student, ok := lc.loadActiveStudent(c, req.StudentID)
	if !ok {
		return nil
	}

	typeName, duration, rate := resolveLessonDefaults(student, req.LessonType, req.DurationMinutes, req.Rate)

	batchID := uuid.New().String()
	lessons, err := scheduling.BuildRecurringLessons(scheduling.LessonDraft{
		StudentID:       student.ID,
		Date:            start,
		StartTime:       req.StartTime,
		DurationMinutes: duration,
		LessonType:      typeName,
		Rate:            rate,
		Notes:           req.Notes,
	}, dates, batchID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// Collect existing scheduled lessons across the series' dates in one pass
	dateStrings := make([]string, 0, len(dates))
	for _, d := range dates {
		dateStrings = append(dateStrings, d.Format(dateLayout))
	}
	var existing []models.Lesson
	if err := database.DB.
		Where("date IN ? AND status = ?", dateStrings, models.LessonStatusScheduled).
		Find(&existing).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check for conflicts",
		})
	}

	var conflictDays []DayConflicts
	for _, lesson := range lessons {
		found := scheduling.DetectConflicts(scheduling.ConflictCandidate{
			Date:            lesson.Date,
			StartTime:       lesson.StartTime,
			DurationMinutes: lesson.DurationMinutes,
		}, existing)
		if len(found) > 0 {
			conflictDays = append(conflictDays, DayConflicts{
				Date:      lesson.Date.Format(dateLayout),
				Conflicts: found,
			})
		}
	}
	if len(conflictDays) > 0 && !req.AllowConflicts {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "The series overlaps existing lessons",
			"conflicts": conflictDays,
		})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&lessons).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create lessons",
		})
	}

	middleware.LogActivity(c, "CREATE", "lessons", 0, fiber.Map{
		"batch_id": batchID,
		"count":    len(lessons),
		"student":  student.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Recurring lessons created successfully",
		"batch_id": batchID,
		"count":    len(lessons),
		"lessons":  lessons,
	})
}

// CheckConflicts reports the lessons a proposed slot would collide with
func (lc *LessonController) CheckConflicts(c *fiber.Ctx) error {
	var req ConflictCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	day, err := parseLessonDate(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}

	existing, err := scheduledOn(day)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check for conflicts",
		})
	}

	conflicts := scheduling.DetectConflicts(scheduling.ConflictCandidate{
		LessonID:        req.LessonID,
		Date:            day,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
	}, existing)

	return c.JSON(fiber.Map{
		"has_conflicts": len(conflicts) > 0,
		"conflicts":     conflicts,
	})
}

// calendarLesson decorates a lesson with its column placement so the
// client can render overlapping bookings side by side
type calendarLesson struct {
	models.Lesson
	Column  int `json:"column"`
	Columns int `json:"columns"`
}

// layoutDay assigns overlap placements to one day's lessons. A lesson whose
// stored start time no longer parses is omitted from the layout pass, so it
// falls back to a full-width slot rather than a zero-width one.
func layoutDay(dayLessons []models.Lesson) []calendarLesson {
	placements := scheduling.ComputeOverlapLayout(dayLessons)

	entries := make([]calendarLesson, 0, len(dayLessons))
	for _, l := range dayLessons {
		p, ok := placements[l.ID]
		if !ok {
			p = scheduling.Placement{Column: 0, Columns: 1}
		}
		entries = append(entries, calendarLesson{Lesson: l, Column: p.Column, Columns: p.Columns})
	}
	return entries
}

// GetCalendar returns lessons grouped by day with overlap layout, defaulting
// to the current month
func (lc *LessonController) GetCalendar(c *fiber.Ctx) error {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	if q := c.Query("from"); q != "" {
		d, err := parseLessonDate(q)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid from date, expected YYYY-MM-DD",
			})
		}
		from = d
	}
	if q := c.Query("to"); q != "" {
		d, err := parseLessonDate(q)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid to date, expected YYYY-MM-DD",
			})
		}
		to = d
	}
	if to.Before(from) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "to must not be before from",
		})
	}

	var lessons []models.Lesson
	if err := database.DB.Preload("Student").
		Where("date BETWEEN ? AND ?", from.Format(dateLayout), to.Format(dateLayout)).
		Order("date ASC, start_time ASC").
		Find(&lessons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch calendar",
		})
	}

	byDay := make(map[string][]models.Lesson)
	for _, l := range lessons {
		key := l.Date.Format(dateLayout)
		byDay[key] = append(byDay[key], l)
	}

	dayKeys := make([]string, 0, len(byDay))
	for key := range byDay {
		dayKeys = append(dayKeys, key)
	}
	sort.Strings(dayKeys)

	days := make([]fiber.Map, 0, len(dayKeys))
	for _, key := range dayKeys {
		days = append(days, fiber.Map{
			"date":    key,
			"lessons": layoutDay(byDay[key]),
		})
	}

	return c.JSON(fiber.Map{
		"from":  from.Format(dateLayout),
		"to":    to.Format(dateLayout),
		"days":  days,
		"total": len(lessons),
	})
}

// UpdateLesson reschedules or edits a lesson
func (lc *LessonController) UpdateLesson(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var lesson models.Lesson
	if err := database.DB.First(&lesson, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lesson not found",
		})
	}

	var req LessonPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	patch := scheduling.LessonPatch{
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		LessonType:      req.LessonType,
		Rate:            req.Rate,
		Notes:           req.Notes,
	}
	if req.Date != nil {
		d, err := parseLessonDate(*req.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid date, expected YYYY-MM-DD",
			})
		}
		patch.Date = &d
	}

	updated, err := scheduling.ApplyPatch(lesson, patch)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	slotChanged := patch.Date != nil || patch.StartTime != nil || patch.DurationMinutes != nil
	if slotChanged && updated.Status == models.LessonStatusScheduled {
		existing, err := scheduledOn(updated.Date)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to check for conflicts",
			})
		}
		conflicts := scheduling.DetectConflicts(scheduling.ConflictCandidate{
			LessonID:        updated.ID,
			Date:            updated.Date,
			StartTime:       updated.StartTime,
			DurationMinutes: updated.DurationMinutes,
		}, existing)
		if len(conflicts) > 0 && !req.AllowConflicts {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":     "The new slot overlaps existing lessons",
				"conflicts": conflicts,
			})
		}
	}

	if err := database.DB.Save(&updated).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update lesson",
		})
	}

	middleware.LogActivity(c, "UPDATE", "lessons", updated.ID, req)

	return c.JSON(fiber.Map{
		"message": "Lesson updated successfully",
		"lesson":  updated,
	})
}

// UpdateLessonStatus transitions a lesson between scheduled, completed and
// cancelled, recording attendance on completion
func (lc *LessonController) UpdateLessonStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var lesson models.Lesson
	if err := database.DB.First(&lesson, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lesson not found",
		})
	}

	var req struct {
		Status     string  `json:"status" validate:"required"`
		Attendance *string `json:"attendance"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	updated, err := scheduling.SetStatus(lesson, req.Status, req.Attendance, time.Now())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// Map updates so clearing attendance and completed_at writes NULLs
	if err := database.DB.Model(&lesson).Updates(map[string]interface{}{
		"status":       updated.Status,
		"attendance":   updated.Attendance,
		"completed_at": updated.CompletedAt,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update lesson status",
		})
	}

	middleware.LogActivity(c, "UPDATE", "lessons", lesson.ID, fiber.Map{
		"status":     updated.Status,
		"attendance": updated.Attendance,
	})

	return c.JSON(fiber.Map{
		"message": "Lesson status updated successfully",
		"lesson":  updated,
	})
}

// DeleteLesson removes a booking. scope=future removes the remaining
// scheduled lessons of the series from this one onward; scope=series
// removes every scheduled lesson in the series. Completed lessons stay.
func (lc *LessonController) DeleteLesson(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson ID",
		})
	}

	var lesson models.Lesson
	if err := database.DB.First(&lesson, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lesson not found",
		})
	}

	scope := c.Query("scope", "single")

	var deleted int64
	switch scope {
	case "single":
		if lesson.Status == models.LessonStatusCompleted {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Completed lessons cannot be deleted",
			})
		}
		result := database.DB.Delete(&lesson)
		if result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete lesson",
			})
		}
		deleted = result.RowsAffected

	case "future", "series":
		if lesson.BatchID == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Lesson is not part of a recurring series",
			})
		}
		query := database.DB.
			Where("batch_id = ? AND status = ?", *lesson.BatchID, models.LessonStatusScheduled)
		if scope == "future" {
			query = query.Where("date >= ?", lesson.Date.Format(dateLayout))
		}
		result := query.Delete(&models.Lesson{})
		if result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete lessons",
			})
		}
		deleted = result.RowsAffected

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid scope, expected single, future or series",
		})
	}

	middleware.LogActivity(c, "DELETE", "lessons", lesson.ID, fiber.Map{
		"scope":         scope,
		"deleted_count": deleted,
	})

	return c.JSON(fiber.Map{
		"message":       "Lessons deleted successfully",
		"deleted_count": deleted,
	})
}
