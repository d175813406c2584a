package billing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"melodica_go/models"
)

var (
	ErrUnknownInvoice = errors.New("invoice not found")
	ErrInvalidAmount  = errors.New("payment amount must be positive")
	ErrInvoiceVoid    = errors.New("invoice is void")
	ErrInvoicePaid    = errors.New("invoice is paid")
	ErrInvoiceDraft   = errors.New("invoice has not been finalized")
	ErrInvalidMethod  = errors.New("unknown payment method")
	ErrNoItems        = errors.New("invoice needs at least one line item")
	ErrInvalidItem    = errors.New("invalid invoice line item")
	ErrInvalidTotals  = errors.New("discount and tax may not push the total below zero")
	ErrInvalidStudent = errors.New("invoice student is required")
	ErrInvalidDate    = errors.New("a dated value is required")
)

// Monetary values stay float64 end to end; every computed figure is
// snapped to the cent grid so comparisons against zero stay exact.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ItemInput is one caller-supplied invoice line.
type ItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
}

// InvoiceInput carries everything needed to issue an invoice. A zero
// DueDate falls back to the created date plus the settings' payment terms.
type InvoiceInput struct {
	StudentID    uint
	Items        []ItemInput
	Discount     float64
	Tax          float64
	CreatedDate  time.Time
	DueDate      time.Time
	BillingModel string
	Notes        string
	Draft        bool
	BatchID      *string
	PeriodStart  *time.Time
	PeriodEnd    *time.Time
}

// CreateInvoiceResult returns the extended snapshot, the new invoice and
// the settings with the advanced number counter. Callers persist both the
// invoice and the settings in one transaction so numbering never skips or
// repeats.
type CreateInvoiceResult struct {
	Invoices []models.Invoice
	Invoice  models.Invoice
	Settings models.BillingSettings
}

// CreateInvoice issues the next numbered invoice against a collection
// snapshot. Item amounts are quantity times rate, the subtotal is their
// sum, and the total is subtotal minus discount plus tax. New invoices
// start unpaid, or as drafts when flagged for review.
func CreateInvoice(invoices []models.Invoice, settings models.BillingSettings, in InvoiceInput) (CreateInvoiceResult, error) {
	if in.StudentID == 0 {
		return CreateInvoiceResult{}, ErrInvalidStudent
	}
	if len(in.Items) == 0 {
		return CreateInvoiceResult{}, ErrNoItems
	}
	if in.CreatedDate.IsZero() {
		return CreateInvoiceResult{}, fmt.Errorf("%w: created date", ErrInvalidDate)
	}
	if in.Discount < 0 || in.Tax < 0 {
		return CreateInvoiceResult{}, ErrInvalidTotals
	}

	subtotal := 0.0
	items := make([]models.InvoiceItem, 0, len(in.Items))
	for _, it := range in.Items {
		if strings.TrimSpace(it.Description) == "" || it.Quantity < 0 || it.Rate < 0 {
			return CreateInvoiceResult{}, fmt.Errorf("%w: %q", ErrInvalidItem, it.Description)
		}
		amount := round2(it.Quantity * it.Rate)
		subtotal += amount
		items = append(items, models.InvoiceItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			Rate:        it.Rate,
			Amount:      amount,
		})
	}
	subtotal = round2(subtotal)
	total := round2(subtotal - in.Discount + in.Tax)
	if total < 0 {
		return CreateInvoiceResult{}, ErrInvalidTotals
	}

	prefix := settings.InvoicePrefix
	if prefix == "" {
		prefix = "INV"
	}
	number := fmt.Sprintf("%s-%d", prefix, settings.NextInvoiceNumber)
	settings.NextInvoiceNumber++

	createdDate := dateOnly(in.CreatedDate)
	dueDate := in.DueDate
	if dueDate.IsZero() {
		dueDate = createdDate.AddDate(0, 0, settings.DefaultPaymentTermsDays)
	}

	status := models.InvoiceStatusUnpaid
	if in.Draft {
		status = models.InvoiceStatusDraft
	}

	billingModel := in.BillingModel
	if billingModel == "" {
		billingModel = settings.DefaultBillingModel
	}

	invoice := models.Invoice{
		InvoiceNumber: number,
		StudentID:     in.StudentID,
		Status:        status,
		CreatedDate:   createdDate,
		DueDate:       dateOnly(dueDate),
		Subtotal:      subtotal,
		Discount:      round2(in.Discount),
		Tax:           round2(in.Tax),
		Total:         total,
		AmountPaid:    0,
		Balance:       total,
		BillingModel:  billingModel,
		Notes:         in.Notes,
		BatchID:       in.BatchID,
		PeriodStart:   in.PeriodStart,
		PeriodEnd:     in.PeriodEnd,
		Items:         items,
	}

	out := make([]models.Invoice, 0, len(invoices)+1)
	out = append(out, invoices...)
	out = append(out, invoice)

	return CreateInvoiceResult{Invoices: out, Invoice: invoice, Settings: settings}, nil
}

// PaymentInput records money received against an invoice.
type PaymentInput struct {
	InvoiceID     uint
	Amount        float64
	Method        string
	Date          time.Time
	Notes         string
	Source        string
	ImportBatchID *string
	RowUID        *string
}

// RecordPaymentResult returns the updated snapshot, the touched invoice
// and the immutable payment row to persist alongside it.
type RecordPaymentResult struct {
	Invoices []models.Invoice
	Invoice  models.Invoice
	Payment  models.Payment
}

func validMethod(m string) bool {
	switch m {
	case "cash", "check", "venmo", "zelle", "card", "other":
		return true
	}
	return false
}

// RecordPayment applies a payment to an invoice in a collection snapshot.
// AmountPaid accumulates the true sum received even past the total, while
// Balance clamps at zero; the excess stays visible through Invoice.Credit.
// The invoice lands on paid when the balance reaches zero and partial
// otherwise, which also pulls an overdue invoice back into partial until
// the next overdue pass re-examines it.
func RecordPayment(invoices []models.Invoice, in PaymentInput) (RecordPaymentResult, error) {
	idx := -1
	for i := range invoices {
		if invoices[i].ID == in.InvoiceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return RecordPaymentResult{}, fmt.Errorf("%w: id %d", ErrUnknownInvoice, in.InvoiceID)
	}

	invoice := invoices[idx]
	switch invoice.Status {
	case models.InvoiceStatusVoid:
		return RecordPaymentResult{}, fmt.Errorf("%w: %s", ErrInvoiceVoid, invoice.InvoiceNumber)
	case models.InvoiceStatusDraft:
		return RecordPaymentResult{}, fmt.Errorf("%w: %s", ErrInvoiceDraft, invoice.InvoiceNumber)
	}

	if in.Amount <= 0 {
		return RecordPaymentResult{}, fmt.Errorf("%w: got %.2f", ErrInvalidAmount, in.Amount)
	}
	if in.Date.IsZero() {
		return RecordPaymentResult{}, fmt.Errorf("%w: payment date", ErrInvalidDate)
	}

	method := in.Method
	if method == "" {
		method = "other"
	}
	if !validMethod(method) {
		return RecordPaymentResult{}, fmt.Errorf("%w: %q", ErrInvalidMethod, in.Method)
	}

	source := in.Source
	if source == "" {
		source = "manual"
	}

	amount := round2(in.Amount)
	invoice.AmountPaid = round2(invoice.AmountPaid + amount)
	balance := round2(invoice.Total - invoice.AmountPaid)
	if balance <= 0 {
		invoice.Balance = 0
		invoice.Status = models.InvoiceStatusPaid
	} else {
		invoice.Balance = balance
		invoice.Status = models.InvoiceStatusPartial
	}

	payment := models.Payment{
		InvoiceID:     invoice.ID,
		StudentID:     invoice.StudentID,
		Amount:        amount,
		Method:        method,
		Date:          dateOnly(in.Date),
		Notes:         in.Notes,
		Source:        source,
		ImportBatchID: in.ImportBatchID,
		RowUID:        in.RowUID,
	}

	out := make([]models.Invoice, len(invoices))
	copy(out, invoices)
	out[idx] = invoice

	return RecordPaymentResult{Invoices: out, Invoice: invoice, Payment: payment}, nil
}

// VoidResult returns the updated snapshot and the voided invoice.
type VoidResult struct {
	Invoices []models.Invoice
	Invoice  models.Invoice
}

// VoidInvoice cancels an invoice without deleting it. The balance drops to
// zero while the total, the line items and any recorded payments stay put
// for the audit trail. Paid and void are both terminal: a settled invoice
// cannot be voided, and voiding twice is a no-op.
func VoidInvoice(invoices []models.Invoice, id uint) (VoidResult, error) {
	idx := -1
	for i := range invoices {
		if invoices[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return VoidResult{}, fmt.Errorf("%w: id %d", ErrUnknownInvoice, id)
	}

	invoice := invoices[idx]
	if invoice.Status == models.InvoiceStatusVoid {
		return VoidResult{Invoices: invoices, Invoice: invoice}, nil
	}
	if invoice.Status == models.InvoiceStatusPaid {
		return VoidResult{}, fmt.Errorf("%w: %s", ErrInvoicePaid, invoice.InvoiceNumber)
	}

	invoice.Status = models.InvoiceStatusVoid
	invoice.Balance = 0

	out := make([]models.Invoice, len(invoices))
	copy(out, invoices)
	out[idx] = invoice

	return VoidResult{Invoices: out, Invoice: invoice}, nil
}

// FinalizeDrafts flips every draft invoice to unpaid, leaving the rest
// untouched, and returns the snapshot plus the invoices that changed.
func FinalizeDrafts(invoices []models.Invoice) ([]models.Invoice, []models.Invoice) {
	out := make([]models.Invoice, len(invoices))
	copy(out, invoices)

	var finalized []models.Invoice
	for i := range out {
		if out[i].Status != models.InvoiceStatusDraft {
			continue
		}
		out[i].Status = models.InvoiceStatusUnpaid
		finalized = append(finalized, out[i])
	}
	return out, finalized
}

// CheckOverdue flips unpaid and partial invoices whose due date has passed
// to overdue. The pass is idempotent and leaves every other status alone;
// an invoice due today is not yet overdue.
func CheckOverdue(invoices []models.Invoice, today time.Time) ([]models.Invoice, []models.Invoice) {
	day := dateOnly(today)
	out := make([]models.Invoice, len(invoices))
	copy(out, invoices)

	var flipped []models.Invoice
	for i := range out {
		switch out[i].Status {
		case models.InvoiceStatusUnpaid, models.InvoiceStatusPartial:
			if dateOnly(out[i].DueDate).Before(day) {
				out[i].Status = models.InvoiceStatusOverdue
				flipped = append(flipped, out[i])
			}
		}
	}
	return out, flipped
}

// OverdueInvoice pairs an overdue invoice with how late it is.
type OverdueInvoice struct {
	models.Invoice
	DaysOverdue int `json:"days_overdue"`
}

// OverdueInvoices runs an overdue pass over the snapshot and reports every
// overdue invoice with whole days elapsed since its due date, most overdue
// first.
func OverdueInvoices(invoices []models.Invoice, today time.Time) []OverdueInvoice {
	checked, _ := CheckOverdue(invoices, today)
	day := dateOnly(today)

	var out []OverdueInvoice
	for _, inv := range checked {
		if inv.Status != models.InvoiceStatusOverdue {
			continue
		}
		days := int(day.Sub(dateOnly(inv.DueDate)) / (24 * time.Hour))
		out = append(out, OverdueInvoice{Invoice: inv, DaysOverdue: days})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysOverdue > out[j].DaysOverdue })
	return out
}
