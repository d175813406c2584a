package controllers

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"melodica_go/database"
	"melodica_go/models"
	"melodica_go/services/billing"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct{}

const (
	dashboardCacheKey = "dashboard:summary"
	dashboardCacheTTL = 2 * time.Minute
)

// GetDashboard returns the studio overview: today's teaching load, open
// receivables and month-to-date cash. The summary is cached briefly in
// Redis since every page load asks for it.
func (dc *DashboardController) GetDashboard(c *fiber.Ctx) error {
	rc := database.GetRedisClient()
	if rc != nil {
		if raw, err := rc.Get(context.Background(), dashboardCacheKey).Result(); err == nil && raw != "" {
			return c.Type("json").SendString(raw)
		}
	}

	today := time.Now().Format(dateLayout)

	var activeStudents int64
	database.DB.Model(&models.Student{}).Where("active = ?", true).Count(&activeStudents)

	var todayTotal, todayCompleted int64
	database.DB.Model(&models.Lesson{}).Where("date = ?", today).Count(&todayTotal)
	database.DB.Model(&models.Lesson{}).
		Where("date = ? AND status = ?", today, models.LessonStatusCompleted).
		Count(&todayCompleted)

	weekAhead := time.Now().AddDate(0, 0, 7).Format(dateLayout)
	var upcomingWeek int64
	database.DB.Model(&models.Lesson{}).
		Where("date > ? AND date <= ? AND status = ?", today, weekAhead, models.LessonStatusScheduled).
		Count(&upcomingWeek)

	var open []models.Invoice
	database.DB.Where("status IN ?", []string{
		models.InvoiceStatusUnpaid,
		models.InvoiceStatusPartial,
		models.InvoiceStatusOverdue,
	}).Find(&open)

	outstanding := 0.0
	for _, inv := range open {
		outstanding += inv.Balance
	}
	overdue := billing.OverdueInvoices(open, time.Now())
	overdueAmount := 0.0
	for _, inv := range overdue {
		overdueAmount += inv.Balance
	}

	var drafts int64
	database.DB.Model(&models.Invoice{}).
		Where("status = ?", models.InvoiceStatusDraft).
		Count(&drafts)

	monthStart := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.UTC)
	var monthPayments []models.Payment
	database.DB.Where("date >= ?", monthStart.Format(dateLayout)).Find(&monthPayments)
	monthRevenue := 0.0
	for _, p := range monthPayments {
		monthRevenue += p.Amount
	}

	summary := fiber.Map{
		"active_students": activeStudents,
		"lessons_today": fiber.Map{
			"total":     todayTotal,
			"completed": todayCompleted,
		},
		"lessons_next_7_days": upcomingWeek,
		"invoices": fiber.Map{
			"open_count":        len(open),
			"total_outstanding": outstanding,
			"overdue_count":     len(overdue),
			"overdue_amount":    overdueAmount,
			"draft_count":       drafts,
		},
		"revenue_month_to_date": monthRevenue,
		"generated_at":          time.Now(),
	}

	if rc != nil {
		if raw, err := json.Marshal(summary); err == nil {
			rc.Set(context.Background(), dashboardCacheKey, raw, dashboardCacheTTL)
		}
	}

	return c.JSON(summary)
}

// GetMonthlyRevenue charts collected payments per month, oldest first
func (dc *DashboardController) GetMonthlyRevenue(c *fiber.Ctx) error {
	months, _ := strconv.Atoi(c.Query("months", "6"))
	if months < 1 {
		months = 6
	}
	if months > 36 {
		months = 36
	}

	now := time.Now()
	rangeStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(months - 1), 0)

	var payments []models.Payment
	if err := database.DB.
		Where("date >= ?", rangeStart.Format(dateLayout)).
		Find(&payments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch payments",
		})
	}

	points := billing.MonthlyRevenue(payments, months, now)

	total := 0.0
	for _, p := range points {
		total += p.Total
	}

	return c.JSON(fiber.Map{
		"months": points,
		"total":  total,
	})
}

// GetOutstandingBalances lists who owes what, largest balance first
func (dc *DashboardController) GetOutstandingBalances(c *fiber.Ctx) error {
	var students []models.Student
	if err := database.DB.Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}

	var invoices []models.Invoice
	if err := database.DB.Find(&invoices).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch invoices",
		})
	}

	balances := billing.OutstandingBalances(students, invoices)

	total := 0.0
	for _, b := range balances {
		total += b.Balance
	}

	return c.JSON(fiber.Map{
		"balances":          balances,
		"total_outstanding": total,
	})
}

// GetRevenueReport compares lesson-side revenue (earned and expected)
// against invoice-side revenue for a period, defaulting to this month
func (dc *DashboardController) GetRevenueReport(c *fiber.Ctx) error {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	if q := c.Query("from"); q != "" {
		d, err := time.Parse(dateLayout, q)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid from date, expected YYYY-MM-DD",
			})
		}
		from = d
	}
	if q := c.Query("to"); q != "" {
		d, err := time.Parse(dateLayout, q)
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
	window := billing.Window{Start: from, End: to}

	var lessons []models.Lesson
	if err := database.DB.
		Where("date BETWEEN ? AND ?", from.Format(dateLayout), to.Format(dateLayout)).
		Find(&lessons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch lessons",
		})
	}

	var invoices []models.Invoice
	if err := database.DB.
		Where("created_date BETWEEN ? AND ?", from.Format(dateLayout), to.Format(dateLayout)).
		Find(&invoices).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch invoices",
		})
	}

	return c.JSON(fiber.Map{
		"from":     from.Format(dateLayout),
		"to":       to.Format(dateLayout),
		"lessons":  billing.LessonRevenue(lessons, window),
		"invoices": billing.InvoiceRevenue(invoices, window),
	})
}
