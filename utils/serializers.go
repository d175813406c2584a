package utils

import (
	"time"

	"melodica_go/models"
)

// Compact representations used across APIs
type StudentShort struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func ToStudentShort(s models.Student) StudentShort {
	return StudentShort{ID: s.ID, Name: s.Name}
}

type NotificationDTO struct {
	ID        uint        `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Type      string      `json:"type"`
	Data      models.JSON `json:"data,omitempty"`
	Read      bool        `json:"read"`
	ReadAt    *time.Time  `json:"read_at,omitempty"`
}

// ToNotificationDTO maps a models.Notification to the compact DTO.
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Data:      n.Data,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
	}
}

type InvoiceDTO struct {
	ID            uint                 `json:"id"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	InvoiceNumber string               `json:"invoice_number"`
	StudentID     uint                 `json:"student_id"`
	Student       StudentShort         `json:"student"`
	Status        string               `json:"status"`
	CreatedDate   time.Time            `json:"created_date"`
	DueDate       time.Time            `json:"due_date"`
	Subtotal      float64              `json:"subtotal"`
	Discount      float64              `json:"discount"`
	Tax           float64              `json:"tax"`
	Total         float64              `json:"total"`
	AmountPaid    float64              `json:"amount_paid"`
	Balance       float64              `json:"balance"`
	Credit        float64              `json:"credit"`
	BillingModel  string               `json:"billing_model"`
	Notes         string               `json:"notes,omitempty"`
	BatchID       *string              `json:"batch_id,omitempty"`
	PeriodStart   *time.Time           `json:"period_start,omitempty"`
	PeriodEnd     *time.Time           `json:"period_end,omitempty"`
	Items         []models.InvoiceItem `json:"items"`
	Payments      []models.Payment     `json:"payments"`
}

// ToInvoiceDTO maps a models.Invoice to the API shape.
// Assumptions: caller has preloaded Student, Items and Payments when possible.
func ToInvoiceDTO(inv models.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:            inv.ID,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		InvoiceNumber: inv.InvoiceNumber,
		StudentID:     inv.StudentID,
		Student:       ToStudentShort(inv.Student),
		Status:        inv.Status,
		CreatedDate:   inv.CreatedDate,
		DueDate:       inv.DueDate,
		Subtotal:      inv.Subtotal,
		Discount:      inv.Discount,
		Tax:           inv.Tax,
		Total:         inv.Total,
		AmountPaid:    inv.AmountPaid,
		Balance:       inv.Balance,
		Credit:        inv.Credit(),
		BillingModel:  inv.BillingModel,
		Notes:         inv.Notes,
		BatchID:       inv.BatchID,
		PeriodStart:   inv.PeriodStart,
		PeriodEnd:     inv.PeriodEnd,
		Items:         inv.Items,
		Payments:      inv.Payments,
	}
}

// ToInvoiceDTOs maps a slice preserving order.
func ToInvoiceDTOs(invoices []models.Invoice) []InvoiceDTO {
	out := make([]InvoiceDTO, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, ToInvoiceDTO(inv))
	}
	return out
}
