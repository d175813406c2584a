package billing

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"melodica_go/models"
)

// Skip reasons surfaced by batch previews.
const (
	SkipNoLessons     = "no billable lessons in period"
	SkipAlreadyBilled = "already invoiced for this period"
	SkipManualBilling = "per-course billing is invoiced manually"
	SkipNoMonthlyRate = "monthly rate not set"
)

var ErrInvalidWindow = errors.New("billing window needs a start and end date")

// Window is an inclusive calendar date range. Zero bounds are open ends,
// which the report queries use; batch generation requires both.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) contains(d time.Time) bool {
	day := dateOnly(d)
	if !w.Start.IsZero() && day.Before(dateOnly(w.Start)) {
		return false
	}
	if !w.End.IsZero() && day.After(dateOnly(w.End)) {
		return false
	}
	return true
}

func (w Window) validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return ErrInvalidWindow
	}
	if dateOnly(w.End).Before(dateOnly(w.Start)) {
		return fmt.Errorf("%w: end precedes start", ErrInvalidWindow)
	}
	return nil
}

func (w Window) overlaps(start, end time.Time) bool {
	return !dateOnly(end).Before(dateOnly(w.Start)) && !dateOnly(w.End).Before(dateOnly(start))
}

// Preview summarizes what one student would be billed for a window, or why
// the student is being skipped.
type Preview struct {
	StudentID    uint        `json:"student_id"`
	StudentName  string      `json:"student_name"`
	BillingModel string      `json:"billing_model"`
	LessonCount  int         `json:"lesson_count"`
	Subtotal     float64     `json:"subtotal"`
	Items        []ItemInput `json:"items,omitempty"`
	Skipped      bool        `json:"skipped"`
	SkipReason   string      `json:"skip_reason,omitempty"`
}

// GeneratePreviews walks the active students and proposes invoice lines for
// each from the non-cancelled lessons inside the window. Students already
// invoiced for an overlapping period, students with nothing billable and
// per-course students come back marked skipped with the reason; nothing is
// silently dropped. The pass never writes, so the operator can preview as
// often as needed before committing.
func GeneratePreviews(students []models.Student, lessons []models.Lesson, invoices []models.Invoice, window Window) []Preview {
	var previews []Preview
	for _, s := range students {
		if !s.Active {
			continue
		}
		previews = append(previews, previewStudent(s, lessons, invoices, window))
	}
	return previews
}

func previewStudent(s models.Student, lessons []models.Lesson, invoices []models.Invoice, window Window) Preview {
	p := Preview{StudentID: s.ID, StudentName: s.Name, BillingModel: s.BillingModel}

	billable := billableLessons(s.ID, lessons, window)
	p.LessonCount = len(billable)

	if alreadyInvoiced(s.ID, invoices, window) {
		p.Skipped = true
		p.SkipReason = SkipAlreadyBilled
		return p
	}
	if len(billable) == 0 {
		p.Skipped = true
		p.SkipReason = SkipNoLessons
		return p
	}

	switch s.BillingModel {
	case models.BillingPerCourse:
		p.Skipped = true
		p.SkipReason = SkipManualBilling
		return p
	case models.BillingMonthly:
		if s.MonthlyRate == nil {
			p.Skipped = true
			p.SkipReason = SkipNoMonthlyRate
			return p
		}
		p.Items = monthlyItems(billable, *s.MonthlyRate)
	default:
		p.Items = perLessonItems(billable)
	}

	subtotal := 0.0
	for _, it := range p.Items {
		subtotal += it.Quantity * it.Rate
	}
	p.Subtotal = round2(subtotal)
	return p
}

func billableLessons(studentID uint, lessons []models.Lesson, window Window) []models.Lesson {
	var out []models.Lesson
	for _, l := range lessons {
		if l.StudentID != studentID {
			continue
		}
		if l.Status == models.LessonStatusCancelled {
			continue
		}
		if !window.contains(l.Date) {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func alreadyInvoiced(studentID uint, invoices []models.Invoice, window Window) bool {
	for _, inv := range invoices {
		if inv.StudentID != studentID {
			continue
		}
		if inv.Status == models.InvoiceStatusVoid {
			continue
		}
		if inv.PeriodStart == nil || inv.PeriodEnd == nil {
			continue
		}
		if window.overlaps(*inv.PeriodStart, *inv.PeriodEnd) {
			return true
		}
	}
	return false
}

func perLessonItems(lessons []models.Lesson) []ItemInput {
	items := make([]ItemInput, 0, len(lessons))
	for _, l := range lessons {
		label := l.LessonType
		if label == "" {
			label = "Lesson"
		}
		items = append(items, ItemInput{
			Description: fmt.Sprintf("%s, %s", label, l.Date.Format("Jan 2, 2006")),
			Quantity:    1,
			Rate:        l.Rate,
		})
	}
	return items
}

func monthlyItems(lessons []models.Lesson, rate float64) []ItemInput {
	seen := make(map[int]bool)
	var items []ItemInput
	for _, l := range lessons {
		key := l.Date.Year()*100 + int(l.Date.Month())
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, ItemInput{
			Description: fmt.Sprintf("Monthly tuition, %s", l.Date.Format("January 2006")),
			Quantity:    1,
			Rate:        rate,
		})
	}
	return items
}

// BatchInput drives the commit phase of batch generation. StudentIDs
// restricts creation to the approved subset; nil approves every billable
// preview. A zero DueDate falls back to the settings' payment terms.
type BatchInput struct {
	Window      Window
	StudentIDs  []uint
	CreatedDate time.Time
	DueDate     time.Time
	BatchID     string
}

// BatchResult returns the grown snapshot, the invoices created in this
// run, the previews that were skipped and the settings carrying the
// advanced number counter.
type BatchResult struct {
	Invoices []models.Invoice
	Created  []models.Invoice
	Skipped  []Preview
	Settings models.BillingSettings
}

// CreateBatchInvoices re-runs the preview pass and issues a draft invoice
// per approved student, threading the settings through each creation so
// the batch receives consecutive numbers. Every invoice is stamped with
// the shared batch id and the billed period, which is what later previews
// consult to refuse double billing.
func CreateBatchInvoices(students []models.Student, lessons []models.Lesson, invoices []models.Invoice, settings models.BillingSettings, in BatchInput) (BatchResult, error) {
	if err := in.Window.validate(); err != nil {
		return BatchResult{}, err
	}
	if in.CreatedDate.IsZero() {
		return BatchResult{}, fmt.Errorf("%w: created date", ErrInvalidDate)
	}

	var approved map[uint]bool
	if in.StudentIDs != nil {
		approved = make(map[uint]bool, len(in.StudentIDs))
		for _, id := range in.StudentIDs {
			approved[id] = true
		}
	}

	periodStart := dateOnly(in.Window.Start)
	periodEnd := dateOnly(in.Window.End)

	out := invoices
	result := BatchResult{Settings: settings}
	for _, p := range GeneratePreviews(students, lessons, invoices, in.Window) {
		if p.Skipped {
			result.Skipped = append(result.Skipped, p)
			continue
		}
		if approved != nil && !approved[p.StudentID] {
			continue
		}

		ps, pe := periodStart, periodEnd
		input := InvoiceInput{
			StudentID:    p.StudentID,
			Items:        p.Items,
			CreatedDate:  in.CreatedDate,
			DueDate:      in.DueDate,
			BillingModel: p.BillingModel,
			Draft:        true,
			PeriodStart:  &ps,
			PeriodEnd:    &pe,
		}
		if in.BatchID != "" {
			batchID := in.BatchID
			input.BatchID = &batchID
		}
		created, err := CreateInvoice(out, result.Settings, input)
		if err != nil {
			return BatchResult{}, err
		}
		out = created.Invoices
		result.Settings = created.Settings
		result.Created = append(result.Created, created.Invoice)
	}

	result.Invoices = out
	return result, nil
}
