package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"melodica_go/database"
	"melodica_go/middleware"
	"melodica_go/models"
	"melodica_go/services"
	"melodica_go/services/billing"
	notifsvc "melodica_go/services/notifications"
	"melodica_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type InvoiceController struct{}

// CreateInvoiceRequest issues a manual invoice. Omitted dates fall back to
// today and the configured payment terms; an omitted billing model falls
// back to the settings default.
type CreateInvoiceRequest struct {
	StudentID    uint                `json:"student_id" validate:"required"`
	Items        []billing.ItemInput `json:"items" validate:"required,min=1"`
	Discount     float64             `json:"discount" validate:"omitempty,gte=0"`
	Tax          float64             `json:"tax" validate:"omitempty,gte=0"`
	CreatedDate  string              `json:"created_date"`
	DueDate      string              `json:"due_date"`
	BillingModel string              `json:"billing_model" validate:"omitempty,billing_model"`
	Notes        string              `json:"notes"`
	Draft        bool                `json:"draft"`
	PeriodStart  string              `json:"period_start"`
	PeriodEnd    string              `json:"period_end"`
}

// BatchRequest drives batch invoice generation for a billing period.
// An empty student list means every eligible student.
type BatchRequest struct {
	PeriodStart string `json:"period_start" validate:"required"`
	PeriodEnd   string `json:"period_end" validate:"required"`
	StudentIDs  []uint `json:"student_ids"`
	CreatedDate string `json:"created_date"`
	DueDate     string `json:"due_date"`
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetInvoices returns invoices with filters and pagination
func (ic *InvoiceController) GetInvoices(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := database.DB.Model(&models.Invoice{})

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
		if d, err := time.Parse(dateLayout, from); err == nil {
			query = query.Where("created_date >= ?", d.Format(dateLayout))
		}
	}
	if to := c.Query("to"); to != "" {
		if d, err := time.Parse(dateLayout, to); err == nil {
			query = query.Where("created_date <= ?", d.Format(dateLayout))
		}
	}

	var total int64
	query.Count(&total)

	var invoices []models.Invoice
	if err := query.Preload("Student").Preload("Items").Preload("Payments").
		Order("created_date DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&invoices).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch invoices",
		})
	}

	return c.JSON(fiber.Map{
		"invoices": utils.ToInvoiceDTOs(invoices),
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetInvoice returns a specific invoice by ID
func (ic *InvoiceController) GetInvoice(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid invoice ID",
		})
	}

	var invoice models.Invoice
	if err := database.DB.Preload("Student").Preload("Items").Preload("Payments").
		First(&invoice, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invoice not found",
		})
	}

	return c.JSON(fiber.Map{
		"invoice": utils.ToInvoiceDTO(invoice),
	})
}

// CreateInvoice issues a numbered invoice. The invoice row and the advanced
// number counter are written in one transaction so numbering never skips
// or repeats.
func (ic *InvoiceController) CreateInvoice(c *fiber.Ctx) error {
	var req CreateInvoiceRequest
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

	var student models.Student
	if err := database.DB.First(&student, req.StudentID).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	createdDate := time.Now()
	if d, err := parseOptionalDate(req.CreatedDate); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid created_date, expected YYYY-MM-DD",
		})
	} else if d != nil {
		createdDate = *d
	}

	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid due_date, expected YYYY-MM-DD",
		})
	}
	periodStart, err := parseOptionalDate(req.PeriodStart)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period_start, expected YYYY-MM-DD",
		})
	}
	periodEnd, err := parseOptionalDate(req.PeriodEnd)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period_end, expected YYYY-MM-DD",
		})
	}

	settings, err := services.NewBillingSettingsService().GetOrCreate()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load billing settings",
		})
	}

	input := billing.InvoiceInput{
		StudentID:    student.ID,
		Items:        req.Items,
		Discount:     req.Discount,
		Tax:          req.Tax,
		CreatedDate:  createdDate,
		BillingModel: req.BillingModel,
		Notes:        req.Notes,
		Draft:        req.Draft,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
	}
	if dueDate != nil {
		input.DueDate = *dueDate
	}

	result, err := billing.CreateInvoice(nil, *settings, input)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	invoice := result.Invoice
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		return tx.Model(&models.BillingSettings{}).
			Where("id = ?", settings.ID).
			Update("next_invoice_number", result.Settings.NextInvoiceNumber).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create invoice",
		})
	}

	database.DB.Preload("Student").Preload("Items").Preload("Payments").
		First(&invoice, invoice.ID)

	middleware.LogActivity(c, "CREATE", "invoices", invoice.ID, invoice)
	if !req.Draft {
		notif := notifsvc.Queued(
			fmt.Sprintf("Invoice %s issued", invoice.InvoiceNumber),
			fmt.Sprintf("%s owes $%.2f, due %s", student.Name, invoice.Total, invoice.DueDate.Format(dateLayout)),
			"info",
		)
		if err := notifsvc.NewService().EnqueueOrCreate(notif); err != nil {
			logrus.WithError(err).Warn("Failed to queue invoice notification")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Invoice created successfully",
		"invoice": utils.ToInvoiceDTO(invoice),
	})
}

// VoidInvoice cancels an invoice while keeping it on the books
func (ic *InvoiceController) VoidInvoice(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid invoice ID",
		})
	}

	var invoice models.Invoice
	if err := database.DB.Preload("Student").Preload("Items").Preload("Payments").
		First(&invoice, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invoice not found",
		})
	}

	result, err := billing.VoidInvoice([]models.Invoice{invoice}, invoice.ID)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, billing.ErrInvoicePaid) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := database.DB.Model(&invoice).Updates(map[string]interface{}{
		"status":  result.Invoice.Status,
		"balance": result.Invoice.Balance,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to void invoice",
		})
	}

	invoice.Status = result.Invoice.Status
	invoice.Balance = result.Invoice.Balance

	middleware.LogActivity(c, "UPDATE", "invoices", invoice.ID, fiber.Map{
		"action": "void",
	})

	return c.JSON(fiber.Map{
		"message": "Invoice voided successfully",
		"invoice": utils.ToInvoiceDTO(invoice),
	})
}

// FinalizeInvoice flips one draft invoice to unpaid
func (ic *InvoiceController) FinalizeInvoice(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid invoice ID",
		})
	}

	var invoice models.Invoice
	if err := database.DB.Preload("Student").Preload("Items").Preload("Payments").
		First(&invoice, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invoice not found",
		})
	}

	if invoice.Status != models.InvoiceStatusDraft {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Only draft invoices can be finalized",
		})
	}

	_, finalized := billing.FinalizeDrafts([]models.Invoice{invoice})
	if len(finalized) == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Only draft invoices can be finalized",
		})
	}

	if err := database.DB.Model(&invoice).
		Update("status", finalized[0].Status).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to finalize invoice",
		})
	}
	invoice.Status = finalized[0].Status

	middleware.LogActivity(c, "UPDATE", "invoices", invoice.ID, fiber.Map{
		"action": "finalize",
	})

	return c.JSON(fiber.Map{
		"message": "Invoice finalized successfully",
		"invoice": utils.ToInvoiceDTO(invoice),
	})
}

// FinalizeDrafts flips every draft invoice to unpaid, optionally scoped to
// one generation batch
func (ic *InvoiceController) FinalizeDrafts(c *fiber.Ctx) error {
	var req struct {
		BatchID string `json:"batch_id"`
	}
	// Body is optional; without one every draft is finalized
	_ = c.BodyParser(&req)

	query := database.DB.Where("status = ?", models.InvoiceStatusDraft)
	if req.BatchID != "" {
		query = query.Where("batch_id = ?", req.BatchID)
	}

	var drafts []models.Invoice
	if err := query.Find(&drafts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch draft invoices",
		})
	}

	_, finalized := billing.FinalizeDrafts(drafts)
	if len(finalized) == 0 {
		return c.JSON(fiber.Map{
			"message":         "No draft invoices to finalize",
			"finalized_count": 0,
		})
	}

	ids := make([]uint, 0, len(finalized))
	total := 0.0
	for _, inv := range finalized {
		ids = append(ids, inv.ID)
		total += inv.Total
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.Invoice{}).
			Where("id IN ?", ids).
			Update("status", models.InvoiceStatusUnpaid).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to finalize invoices",
		})
	}

	middleware.LogActivity(c, "UPDATE", "invoices", 0, fiber.Map{
		"action":          "finalize_drafts",
		"batch_id":        req.BatchID,
		"finalized_count": len(finalized),
	})
	notif := notifsvc.Queued(
		"Draft invoices finalized",
		fmt.Sprintf("%d invoice(s) totaling $%.2f are now awaiting payment", len(finalized), total),
		"info",
	)
	if err := notifsvc.NewService().EnqueueOrCreate(notif); err != nil {
		logrus.WithError(err).Warn("Failed to queue finalize notification")
	}

	return c.JSON(fiber.Map{
		"message":         "Draft invoices finalized successfully",
		"finalized_count": len(finalized),
		"invoice_ids":     ids,
	})
}

// GetOverdueInvoices reports every open invoice past its due date with the
// days elapsed, without writing anything
func (ic *InvoiceController) GetOverdueInvoices(c *fiber.Ctx) error {
	var open []models.Invoice
	if err := database.DB.Preload("Student").
		Where("status IN ?", []string{
			models.InvoiceStatusUnpaid,
			models.InvoiceStatusPartial,
			models.InvoiceStatusOverdue,
		}).
		Find(&open).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch invoices",
		})
	}

	overdue := billing.OverdueInvoices(open, time.Now())

	outstanding := 0.0
	for _, inv := range overdue {
		outstanding += inv.Balance
	}

	return c.JSON(fiber.Map{
		"overdue":           overdue,
		"count":             len(overdue),
		"total_outstanding": outstanding,
	})
}

// RunOverdueScan triggers the nightly overdue pass on demand
func (ic *InvoiceController) RunOverdueScan(c *fiber.Ctx) error {
	services.NewBillingScheduler().RunOverdueScan()

	var count int64
	database.DB.Model(&models.Invoice{}).
		Where("status = ?", models.InvoiceStatusOverdue).
		Count(&count)

	middleware.LogActivity(c, "UPDATE", "invoices", 0, fiber.Map{
		"action": "overdue_scan",
	})

	return c.JSON(fiber.Map{
		"message":       "Overdue scan completed",
		"overdue_count": count,
	})
}

func (ic *InvoiceController) loadBatchSnapshot(window billing.Window) ([]models.Student, []models.Lesson, []models.Invoice, error) {
	var students []models.Student
	if err := database.DB.Where("active = ?", true).Find(&students).Error; err != nil {
		return nil, nil, nil, err
	}

	var lessons []models.Lesson
	if err := database.DB.
		Where("date BETWEEN ? AND ?", window.Start.Format(dateLayout), window.End.Format(dateLayout)).
		Find(&lessons).Error; err != nil {
		return nil, nil, nil, err
	}

	// Period overlap checks need every invoice, not just the window's
	var invoices []models.Invoice
	if err := database.DB.Find(&invoices).Error; err != nil {
		return nil, nil, nil, err
	}

	return students, lessons, invoices, nil
}

// PreviewBatchInvoices proposes invoices for a billing period without
// writing anything
func (ic *InvoiceController) PreviewBatchInvoices(c *fiber.Ctx) error {
	var req BatchRequest
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

	start, err := time.Parse(dateLayout, req.PeriodStart)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period_start, expected YYYY-MM-DD",
		})
	}
	end, err := time.Parse(dateLayout, req.PeriodEnd)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period_end, expected YYYY-MM-DD",
		})
	}
	window := billing.Window{Start: start, End: end}

	students, lessons, invoices, err := ic.loadBatchSnapshot(window)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load billing data",
		})
	}

	previews := billing.GeneratePreviews(students, lessons, invoices, window)

	billable := 0
	projected := 0.0
	for _, p := range previews {
		if !p.Skipped {
			billable++
			projected += p.Subtotal
		}
	}

	return c.JSON(fiber.Map{
		"previews":         previews,
		"billable_count":   billable,
		"projected_amount": projected,
	})
}

// CreateBatchInvoices issues draft invoices for a billing period, one per
// eligible student, sharing a batch id
func (ic *InvoiceController) CreateBatchInvoices(c *fiber.Ctx) error {
	var req BatchRequest
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

	start, err := time.Parse(dateLayout, req.PeriodStart)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period_start, expected YYYY-MM-DD",
		})
	}
	end, err := time.Parse(dateLayout, req.PeriodEnd)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period_end, expected YYYY-MM-DD",
		})
	}
	window := billing.Window{Start: start, End: end}

	createdDate := time.Now()
	if d, err := parseOptionalDate(req.CreatedDate); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid created_date, expected YYYY-MM-DD",
		})
	} else if d != nil {
		createdDate = *d
	}

	var dueDate time.Time
	if d, err := parseOptionalDate(req.DueDate); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid due_date, expected YYYY-MM-DD",
		})
	} else if d != nil {
		dueDate = *d
	}

	students, lessons, invoices, err := ic.loadBatchSnapshot(window)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load billing data",
		})
	}

	settings, err := services.NewBillingSettingsService().GetOrCreate()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load billing settings",
		})
	}

	batchID := uuid.New().String()
	result, err := billing.CreateBatchInvoices(students, lessons, invoices, *settings, billing.BatchInput{
		Window:      window,
		StudentIDs:  req.StudentIDs,
		CreatedDate: createdDate,
		DueDate:     dueDate,
		BatchID:     batchID,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	created := result.Created
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		for i := range created {
			if err := tx.Create(&created[i]).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.BillingSettings{}).
			Where("id = ?", settings.ID).
			Update("next_invoice_number", result.Settings.NextInvoiceNumber).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create batch invoices",
		})
	}

	total := 0.0
	for _, inv := range created {
		total += inv.Total
	}

	middleware.LogActivity(c, "CREATE", "invoices", 0, fiber.Map{
		"action":   "batch_create",
		"batch_id": batchID,
		"created":  len(created),
		"skipped":  len(result.Skipped),
	})
	if len(created) > 0 {
		notif := notifsvc.QueuedWithData(
			"Batch invoices drafted",
			fmt.Sprintf("%d draft invoice(s) totaling $%.2f for %s through %s", len(created), total, req.PeriodStart, req.PeriodEnd),
			"info",
			map[string]interface{}{
				"batch_id":     batchID,
				"created":      len(created),
				"total_amount": total,
			},
		)
		if err := notifsvc.NewService().EnqueueOrCreate(notif); err != nil {
			logrus.WithError(err).Warn("Failed to queue batch notification")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Batch invoices created successfully",
		"batch_id": batchID,
		"created":  utils.ToInvoiceDTOs(created),
		"skipped":  result.Skipped,
	})
}
