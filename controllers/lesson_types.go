package controllers

import (
	"strconv"
	"strings"

	"melodica_go/database"
	"melodica_go/middleware"
	"melodica_go/models"

	"github.com/gofiber/fiber/v2"
)

type LessonTypeController struct{}

// GetLessonTypes returns the studio's lesson catalog
func (ltc *LessonTypeController) GetLessonTypes(c *fiber.Ctx) error {
	var lessonTypes []models.LessonType

	query := database.DB.Model(&models.LessonType{})

	// Filter by active status if specified
	if active := c.Query("active"); active == "true" {
		query = query.Where("active = ?", true)
	} else if active == "false" {
		query = query.Where("active = ?", false)
	}

	if err := query.Order("name ASC").Find(&lessonTypes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch lesson types",
		})
	}

	return c.JSON(fiber.Map{
		"lesson_types": lessonTypes,
		"total":        len(lessonTypes),
	})
}

// GetLessonType returns a specific lesson type by ID
func (ltc *LessonTypeController) GetLessonType(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson type ID",
		})
	}

	var lessonType models.LessonType
	if err := database.DB.First(&lessonType, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lesson type not found",
		})
	}

	return c.JSON(fiber.Map{
		"lesson_type": lessonType,
	})
}

// CreateLessonType creates a new lesson type
func (ltc *LessonTypeController) CreateLessonType(c *fiber.Ctx) error {
	var lessonType models.LessonType
	if err := c.BodyParser(&lessonType); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	lessonType.Name = strings.TrimSpace(lessonType.Name)
	if lessonType.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}
	if lessonType.Rate < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Rate cannot be negative",
		})
	}

	// Check if name already exists
	var existing models.LessonType
	if err := database.DB.Where("name = ?", lessonType.Name).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Lesson type name already exists",
		})
	}

	// Set default values
	if lessonType.DurationMinutes <= 0 {
		lessonType.DurationMinutes = 30
	}
	lessonType.Active = true

	if err := database.DB.Create(&lessonType).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create lesson type",
		})
	}

	middleware.LogActivity(c, "CREATE", "lesson-types", lessonType.ID, lessonType)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Lesson type created successfully",
		"lesson_type": lessonType,
	})
}

// UpdateLessonType updates an existing lesson type
func (ltc *LessonTypeController) UpdateLessonType(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson type ID",
		})
	}

	var lessonType models.LessonType
	if err := database.DB.First(&lessonType, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lesson type not found",
		})
	}

	var updateData models.LessonType
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Check if name already exists (if changing)
	updateData.Name = strings.TrimSpace(updateData.Name)
	if updateData.Name != "" && updateData.Name != lessonType.Name {
		var existing models.LessonType
		if err := database.DB.Where("name = ? AND id != ?", updateData.Name, lessonType.ID).First(&existing).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Lesson type name already exists",
			})
		}
	}

	if err := database.DB.Model(&lessonType).Updates(updateData).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update lesson type",
		})
	}

	middleware.LogActivity(c, "UPDATE", "lesson-types", lessonType.ID, updateData)

	return c.JSON(fiber.Map{
		"message":     "Lesson type updated successfully",
		"lesson_type": lessonType,
	})
}

// DeactivateLessonType retires a lesson type from the catalog. Lessons
// already booked keep their copied rate and label.
func (ltc *LessonTypeController) DeactivateLessonType(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson type ID",
		})
	}

	var lessonType models.LessonType
	if err := database.DB.First(&lessonType, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lesson type not found",
		})
	}

	if err := database.DB.Model(&lessonType).Update("active", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to deactivate lesson type",
		})
	}

	middleware.LogActivity(c, "UPDATE", "lesson-types", lessonType.ID, fiber.Map{"active": false})

	return c.JSON(fiber.Map{
		"message":     "Lesson type deactivated successfully",
		"lesson_type": lessonType,
	})
}

// DeleteLessonType deletes a lesson type that no lesson references
func (ltc *LessonTypeController) DeleteLessonType(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson type ID",
		})
	}

	var lessonType models.LessonType
	if err := database.DB.First(&lessonType, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lesson type not found",
		})
	}

	// Check if lessons reference this type by name
	var lessonCount int64
	database.DB.Model(&models.Lesson{}).Where("lesson_type = ?", lessonType.Name).Count(&lessonCount)
	if lessonCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot delete a lesson type in use; deactivate it instead",
		})
	}

	if err := database.DB.Delete(&lessonType).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete lesson type",
		})
	}

	middleware.LogActivity(c, "DELETE", "lesson-types", lessonType.ID, lessonType)

	return c.JSON(fiber.Map{
		"message": "Lesson type deleted successfully",
	})
}
