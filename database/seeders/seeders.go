package seeders

import (
	"encoding/json"
	"log"
	"melodica_go/database"
	"melodica_go/models"
	"time"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedBillingSettings()
	SeedLessonTypes()
	SeedStudents()

	log.Println("Database seeding completed successfully!")
}

// SeedBillingSettings seeds the single billing settings row
func SeedBillingSettings() {
	var count int64
	database.DB.Model(&models.BillingSettings{}).Count(&count)
	if count > 0 {
		log.Println("Billing settings already seeded, skipping...")
		return
	}

	methods, _ := json.Marshal([]string{"cash", "check", "venmo", "zelle", "card"})

	settings := models.BillingSettings{
		BaseModel:               models.BaseModel{ID: 1, CreatedAt: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)},
		DefaultBillingModel:     models.BillingPerLesson,
		InvoicePrefix:           "INV",
		NextInvoiceNumber:       1,
		DefaultPaymentTermsDays: 14,
		AcceptedMethods:         methods,
	}

	if err := database.DB.Create(&settings).Error; err != nil {
		log.Printf("Error seeding billing settings: %v", err)
		return
	}

	log.Println("Billing settings seeded successfully")
}

// SeedLessonTypes seeds the lesson types table
func SeedLessonTypes() {
	var count int64
	database.DB.Model(&models.LessonType{}).Count(&count)
	if count > 0 {
		log.Println("Lesson types already seeded, skipping...")
		return
	}

	lessonTypes := []models.LessonType{
		{
			BaseModel:       models.BaseModel{ID: 1, CreatedAt: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)},
			Name:            "Piano 30",
			DurationMinutes: 30,
			Rate:            40,
			Active:          true,
		},
		{
			BaseModel:       models.BaseModel{ID: 2, CreatedAt: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)},
			Name:            "Piano 45",
			DurationMinutes: 45,
			Rate:            55,
			Active:          true,
		},
		{
			BaseModel:       models.BaseModel{ID: 3, CreatedAt: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)},
			Name:            "Piano 60",
			DurationMinutes: 60,
			Rate:            70,
			Active:          true,
		},
		{
			BaseModel:       models.BaseModel{ID: 4, CreatedAt: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)},
			Name:            "Voice 30",
			DurationMinutes: 30,
			Rate:            45,
			Active:          true,
		},
		{
			BaseModel:       models.BaseModel{ID: 5, CreatedAt: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)},
			Name:            "Music Theory 60",
			DurationMinutes: 60,
			Rate:            50,
			Active:          true,
		},
	}

	for _, lessonType := range lessonTypes {
		if err := database.DB.Create(&lessonType).Error; err != nil {
			log.Printf("Error seeding lesson type %s: %v", lessonType.Name, err)
		}
	}

	log.Println("Lesson types seeded successfully")
}

// SeedStudents seeds the students table with a starter roster
func SeedStudents() {
	var count int64
	database.DB.Model(&models.Student{}).Count(&count)
	if count > 0 {
		log.Println("Students already seeded, skipping...")
		return
	}

	monthlyRate := 220.0
	customRate := 65.0

	students := []models.Student{
		{
			BaseModel:         models.BaseModel{ID: 1, CreatedAt: time.Date(2025, 9, 2, 15, 30, 0, 0, time.UTC)},
			Name:              "Alice Chen",
			Email:             "alice.chen@gmail.com",
			Phone:             "555-0101",
			Instrument:        "piano",
			DefaultLessonType: "Piano 45",
			BillingModel:      models.BillingPerLesson,
			Notes:             "Working through RCM level 6, prepping spring recital",
			Active:            true,
		},
		{
			BaseModel:         models.BaseModel{ID: 2, CreatedAt: time.Date(2025, 9, 2, 15, 45, 0, 0, time.UTC)},
			Name:              "Ben Okafor",
			Email:             "",
			Phone:             "",
			IsMinor:           true,
			ParentName:        "Grace Okafor",
			ParentEmail:       "grace.okafor@gmail.com",
			ParentPhone:       "555-0102",
			Instrument:        "piano",
			DefaultLessonType: "Piano 30",
			BillingModel:      models.BillingMonthly,
			MonthlyRate:       &monthlyRate,
			Active:            true,
		},
		{
			BaseModel:         models.BaseModel{ID: 3, CreatedAt: time.Date(2025, 9, 5, 10, 0, 0, 0, time.UTC)},
			Name:              "Chloe Park",
			Email:             "chloe.park@outlook.com",
			Phone:             "555-0103",
			Instrument:        "voice",
			DefaultLessonType: "Voice 30",
			CustomRate:        &customRate,
			BillingModel:      models.BillingPerLesson,
			Notes:             "Audition prep, extended sessions at a negotiated rate",
			Active:            true,
		},
	}

	for _, student := range students {
		if err := database.DB.Create(&student).Error; err != nil {
			log.Printf("Error seeding student %s: %v", student.Name, err)
		}
	}

	log.Println("Students seeded successfully")
}
