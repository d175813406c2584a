package controllers

import (
	"strconv"
	"strings"

	"melodica_go/database"
	"melodica_go/middleware"
	"melodica_go/models"
	"melodica_go/services/billing"
	"melodica_go/utils"

	"github.com/gofiber/fiber/v2"
)

type StudentController struct{}

// StudentRequest carries the caller-editable student fields. Pointers let
// updates distinguish "leave alone" from "clear".
type StudentRequest struct {
	Name              *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Email             *string  `json:"email" validate:"omitempty,email"`
	Phone             *string  `json:"phone" validate:"omitempty,max=20"`
	IsMinor           *bool    `json:"is_minor"`
	ParentName        *string  `json:"parent_name" validate:"omitempty,max=200"`
	ParentEmail       *string  `json:"parent_email" validate:"omitempty,email"`
	ParentPhone       *string  `json:"parent_phone" validate:"omitempty,max=20"`
	Instrument        *string  `json:"instrument" validate:"omitempty,max=100"`
	DefaultLessonType *string  `json:"default_lesson_type" validate:"omitempty,max=100"`
	CustomRate        *float64 `json:"custom_rate" validate:"omitempty,gte=0"`
	BillingModel      *string  `json:"billing_model" validate:"omitempty,billing_model"`
	MonthlyRate       *float64 `json:"monthly_rate" validate:"omitempty,gte=0"`
	Notes             *string  `json:"notes"`
}

// GetStudents returns students with pagination and filters
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	var students []models.Student
	var total int64

	query := database.DB.Model(&models.Student{})

	// Filter by active status if specified
	if active := c.Query("active"); active == "true" {
		query = query.Where("active = ?", true)
	} else if active == "false" {
		query = query.Where("active = ?", false)
	}

	if billingModel := c.Query("billing_model"); billingModel != "" {
		query = query.Where("billing_model = ?", billingModel)
	}

	if instrument := c.Query("instrument"); instrument != "" {
		query = query.Where("instrument = ?", instrument)
	}

	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	query.Count(&total)

	if err := query.Order("name ASC").
		Offset(offset).Limit(limit).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}

	return c.JSON(fiber.Map{
		"students": students,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetStudent returns a specific student with balance and activity counts
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	var invoices []models.Invoice
	database.DB.Where("student_id = ?", student.ID).Find(&invoices)

	var upcomingLessons int64
	database.DB.Model(&models.Lesson{}).
		Where("student_id = ? AND status = ? AND date >= CURDATE()", student.ID, models.LessonStatusScheduled).
		Count(&upcomingLessons)

	var completedLessons int64
	database.DB.Model(&models.Lesson{}).
		Where("student_id = ? AND status = ?", student.ID, models.LessonStatusCompleted).
		Count(&completedLessons)

	return c.JSON(fiber.Map{
		"student":           student,
		"balance":           billing.StudentBalance(invoices, student.ID),
		"upcoming_lessons":  upcomingLessons,
		"completed_lessons": completedLessons,
		"invoice_count":     len(invoices),
	})
}

// CreateStudent creates a new student
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	if msg := utils.ValidateStruct(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	student := models.Student{
		Name:         strings.TrimSpace(*req.Name),
		BillingModel: models.BillingPerLesson,
		Active:       true,
	}
	applyStudentRequest(&student, req)

	if err := database.DB.Create(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create student",
		})
	}

	middleware.LogActivity(c, "CREATE", "students", student.ID, student)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student created successfully",
		"student": student,
	})
}

// UpdateStudent updates an existing student
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name cannot be empty",
		})
	}

	if msg := utils.ValidateStruct(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	applyStudentRequest(&student, req)

	if err := database.DB.Save(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update student",
		})
	}

	middleware.LogActivity(c, "UPDATE", "students", student.ID, req)

	return c.JSON(fiber.Map{
		"message": "Student updated successfully",
		"student": student,
	})
}

// ArchiveStudent marks a student inactive without touching their history
func (sc *StudentController) ArchiveStudent(c *fiber.Ctx) error {
	return sc.setActive(c, false, "Student archived successfully")
}

// ReactivateStudent brings an archived student back
func (sc *StudentController) ReactivateStudent(c *fiber.Ctx) error {
	return sc.setActive(c, true, "Student reactivated successfully")
}

func (sc *StudentController) setActive(c *fiber.Ctx, active bool, message string) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	if err := database.DB.Model(&student).Update("active", active).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update student",
		})
	}

	middleware.LogActivity(c, "UPDATE", "students", student.ID, fiber.Map{"active": active})

	return c.JSON(fiber.Map{
		"message": message,
		"student": student,
	})
}

// DeleteStudent removes a student who has no lessons or invoices.
// Students with history get archived instead so billing records survive.
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	var lessonCount int64
	database.DB.Model(&models.Lesson{}).Where("student_id = ?", student.ID).Count(&lessonCount)

	var invoiceCount int64
	database.DB.Model(&models.Invoice{}).Where("student_id = ?", student.ID).Count(&invoiceCount)

	if lessonCount > 0 || invoiceCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot delete a student with lessons or invoices; archive them instead",
		})
	}

	if err := database.DB.Delete(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete student",
		})
	}

	middleware.LogActivity(c, "DELETE", "students", student.ID, student)

	return c.JSON(fiber.Map{
		"message": "Student deleted successfully",
	})
}

func applyStudentRequest(student *models.Student, req StudentRequest) {
	if req.Name != nil {
		student.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		student.Email = *req.Email
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.IsMinor != nil {
		student.IsMinor = *req.IsMinor
	}
	if req.ParentName != nil {
		student.ParentName = *req.ParentName
	}
	if req.ParentEmail != nil {
		student.ParentEmail = *req.ParentEmail
	}
	if req.ParentPhone != nil {
		student.ParentPhone = *req.ParentPhone
	}
	if req.Instrument != nil {
		student.Instrument = *req.Instrument
	}
	if req.DefaultLessonType != nil {
		student.DefaultLessonType = *req.DefaultLessonType
	}
	if req.CustomRate != nil {
		student.CustomRate = req.CustomRate
	}
	if req.BillingModel != nil {
		student.BillingModel = *req.BillingModel
	}
	if req.MonthlyRate != nil {
		student.MonthlyRate = req.MonthlyRate
	}
	if req.Notes != nil {
		student.Notes = *req.Notes
	}
}
