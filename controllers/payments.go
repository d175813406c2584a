package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"melodica_go/database"
	"melodica_go/middleware"
	"melodica_go/models"
	"melodica_go/services/billing"
	notifsvc "melodica_go/services/notifications"
	"melodica_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentController struct{}

// PaymentRequest records money received against an invoice. Date defaults
// to today, method to "other".
type PaymentRequest struct {
	InvoiceID uint    `json:"invoice_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Method    string  `json:"method"`
	Date      string  `json:"date"`
	Notes     string  `json:"notes"`
}

// GetPayments returns payments with filters and pagination
func (pc *PaymentController) GetPayments(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	query := database.DB.Model(&models.Payment{})

	if invoiceID := c.Query("invoice_id"); invoiceID != "" {
		query = query.Where("invoice_id = ?", invoiceID)
	}
	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if method := c.Query("method"); method != "" {
		query = query.Where("method = ?", method)
	}
	if source := c.Query("source"); source != "" {
		query = query.Where("source = ?", source)
	}
	if batchID := c.Query("import_batch_id"); batchID != "" {
		query = query.Where("import_batch_id = ?", batchID)
	}
	if from := c.Query("from"); from != "" {
		if d, err := time.Parse(dateLayout, from); err == nil {
			query = query.Where("date >= ?", d.Format(dateLayout))
		}
	}
	if to := c.Query("to"); to != "" {
		if d, err := time.Parse(dateLayout, to); err == nil {
			query = query.Where("date <= ?", d.Format(dateLayout))
		}
	}

	var total int64
	query.Count(&total)

	var payments []models.Payment
	if err := query.Preload("Student").Preload("Invoice").
		Order("date DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&payments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch payments",
		})
	}

	return c.JSON(fiber.Map{
		"payments": payments,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetPayment returns a specific payment by ID
func (pc *PaymentController) GetPayment(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payment ID",
		})
	}

	var payment models.Payment
	if err := database.DB.Preload("Student").Preload("Invoice").
		First(&payment, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Payment not found",
		})
	}

	return c.JSON(fiber.Map{
		"payment": payment,
	})
}

// RecordPayment applies a payment to an invoice. The invoice row is read
// under a row lock and the payment row, paid amount, balance and status are
// written in the same transaction, so concurrent payments against one
// invoice compound instead of overwriting each other.
func (pc *PaymentController) RecordPayment(c *fiber.Ctx) error {
	var req PaymentRequest
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

	date := time.Now()
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid date, expected YYYY-MM-DD",
			})
		}
		date = d
	}

	var (
		invoice models.Invoice
		updated models.Invoice
		payment models.Payment
	)
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&invoice, req.InvoiceID).Error; err != nil {
			return err
		}

		result, err := billing.RecordPayment([]models.Invoice{invoice}, billing.PaymentInput{
			InvoiceID: invoice.ID,
			Amount:    req.Amount,
			Method:    req.Method,
			Date:      date,
			Notes:     req.Notes,
		})
		if err != nil {
			return err
		}

		// A partial payment pulls an overdue invoice back to partial; re-run
		// the overdue check so a still-late invoice lands back on overdue
		// immediately instead of waiting for the nightly scan.
		updated = result.Invoice
		if refreshed, _ := billing.CheckOverdue([]models.Invoice{updated}, time.Now()); len(refreshed) == 1 {
			updated = refreshed[0]
		}

		payment = result.Payment
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Invoice{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]interface{}{
				"amount_paid": updated.AmountPaid,
				"balance":     updated.Balance,
				"status":      updated.Status,
			}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Invoice not found",
			})
		case errors.Is(err, billing.ErrInvoiceVoid), errors.Is(err, billing.ErrInvoiceDraft):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, billing.ErrInvalidAmount), errors.Is(err, billing.ErrInvalidMethod),
			errors.Is(err, billing.ErrInvalidDate):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to record payment",
			})
		}
	}

	middleware.LogActivity(c, "CREATE", "payments", payment.ID, payment)

	if updated.Status == models.InvoiceStatusPaid {
		var student models.Student
		database.DB.First(&student, invoice.StudentID)
		notif := notifsvc.Queued(
			fmt.Sprintf("Invoice %s paid in full", invoice.InvoiceNumber),
			fmt.Sprintf("%s settled $%.2f", student.Name, updated.AmountPaid),
			"success",
		)
		if err := notifsvc.NewService().EnqueueOrCreate(notif); err != nil {
			logrus.WithError(err).Warn("Failed to queue payment notification")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment recorded successfully",
		"payment": payment,
		"invoice": fiber.Map{
			"id":          updated.ID,
			"status":      updated.Status,
			"amount_paid": updated.AmountPaid,
			"balance":     updated.Balance,
			"credit":      updated.Credit(),
		},
	})
}
