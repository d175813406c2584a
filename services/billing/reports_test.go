package billing

import (
	"testing"
	"time"

	"melodica_go/models"
)

func invoiceWith(id, studentID uint, status string, total, paid float64) models.Invoice {
	inv := openInvoice(id, studentID, total, date(2026, time.March, 15))
	inv.Status = status
	inv.AmountPaid = paid
	inv.Balance = round2(total - paid)
	if inv.Balance < 0 || status == models.InvoiceStatusPaid || status == models.InvoiceStatusVoid {
		inv.Balance = 0
	}
	return inv
}

func TestStudentBalance(t *testing.T) {
	invoices := []models.Invoice{
		invoiceWith(1, 1, models.InvoiceStatusUnpaid, 100, 0),
		invoiceWith(2, 1, models.InvoiceStatusPartial, 200, 80),
		invoiceWith(3, 1, models.InvoiceStatusOverdue, 50, 0),
		invoiceWith(4, 1, models.InvoiceStatusPaid, 150, 150),
		invoiceWith(5, 1, models.InvoiceStatusDraft, 80, 0),
		invoiceWith(6, 1, models.InvoiceStatusVoid, 70, 0),
		invoiceWith(7, 2, models.InvoiceStatusUnpaid, 999, 0),
	}
	if got := StudentBalance(invoices, 1); got != 270 {
		t.Errorf("balance = %v, want 270 (open invoices only)", got)
	}
	if got := StudentBalance(invoices, 3); got != 0 {
		t.Errorf("balance for student with no invoices = %v, want 0", got)
	}
}

func TestOutstandingBalances(t *testing.T) {
	students := []models.Student{
		activeStudent(1, "Alice Chen", models.BillingPerLesson),
		activeStudent(2, "Bob Reyes", models.BillingMonthly),
		activeStudent(3, "Carol Diaz", models.BillingPerLesson),
	}
	invoices := []models.Invoice{
		invoiceWith(1, 1, models.InvoiceStatusOverdue, 200, 0),
		invoiceWith(2, 1, models.InvoiceStatusPartial, 100, 30),
		invoiceWith(3, 2, models.InvoiceStatusUnpaid, 300.50, 0),
		invoiceWith(4, 3, models.InvoiceStatusPaid, 400, 400),
	}

	out := OutstandingBalances(students, invoices)
	if len(out) != 2 {
		t.Fatalf("got %d summaries, want 2 (settled students omitted)", len(out))
	}
	if out[0].StudentID != 2 || out[0].Balance != 300.50 {
		t.Errorf("out[0] = %+v, want Bob with 300.50 first", out[0])
	}
	if out[1].StudentID != 1 || out[1].Balance != 270 || out[1].OverdueCount != 1 {
		t.Errorf("out[1] = %+v, want Alice at 270 with one overdue invoice", out[1])
	}
}

func TestLessonRevenue(t *testing.T) {
	completedFeb := lessonOn(5, 1, date(2026, time.February, 20), 45)
	completedFeb.Status = models.LessonStatusCompleted
	cancelled := lessonOn(4, 1, date(2026, time.March, 19), 45)
	cancelled.Status = models.LessonStatusCancelled
	doneA := lessonOn(1, 1, date(2026, time.March, 5), 45)
	doneA.Status = models.LessonStatusCompleted
	doneB := lessonOn(2, 2, date(2026, time.March, 6), 50)
	doneB.Status = models.LessonStatusCompleted

	lessons := []models.Lesson{doneA, doneB, lessonOn(3, 1, date(2026, time.March, 26), 45), cancelled, completedFeb}

	t.Run("window splits earned from expected", func(t *testing.T) {
		got := LessonRevenue(lessons, march2026())
		want := LessonRevenueReport{CompletedCount: 2, CompletedTotal: 95, ScheduledCount: 1, ScheduledTotal: 45}
		if got != want {
			t.Errorf("report = %+v, want %+v", got, want)
		}
	})

	t.Run("open window spans everything", func(t *testing.T) {
		got := LessonRevenue(lessons, Window{})
		if got.CompletedCount != 3 || got.CompletedTotal != 140 {
			t.Errorf("completed = %d for %v, want 3 lessons at 140", got.CompletedCount, got.CompletedTotal)
		}
	})
}

func TestInvoiceRevenue(t *testing.T) {
	outside := invoiceWith(6, 2, models.InvoiceStatusUnpaid, 999, 0)
	outside.CreatedDate = date(2026, time.February, 10)

	invoices := []models.Invoice{
		invoiceWith(1, 1, models.InvoiceStatusUnpaid, 100, 0),
		invoiceWith(2, 1, models.InvoiceStatusPartial, 200, 80),
		invoiceWith(3, 2, models.InvoiceStatusPaid, 150, 150),
		invoiceWith(4, 2, models.InvoiceStatusVoid, 75, 0),
		invoiceWith(5, 3, models.InvoiceStatusDraft, 60, 0),
		outside,
	}

	got := InvoiceRevenue(invoices, march2026())
	if got.TotalInvoiced != 510 {
		t.Errorf("invoiced = %v, want 510 (void excluded, draft included)", got.TotalInvoiced)
	}
	if got.TotalCollected != 230 {
		t.Errorf("collected = %v, want 230", got.TotalCollected)
	}
	if got.TotalOutstanding != 220 {
		t.Errorf("outstanding = %v, want 220 (open balances only)", got.TotalOutstanding)
	}
	wantCounts := map[string]int{
		models.InvoiceStatusUnpaid:  1,
		models.InvoiceStatusPartial: 1,
		models.InvoiceStatusPaid:    1,
		models.InvoiceStatusVoid:    1,
		models.InvoiceStatusDraft:   1,
	}
	for status, want := range wantCounts {
		if got.StatusCounts[status] != want {
			t.Errorf("StatusCounts[%q] = %d, want %d", status, got.StatusCounts[status], want)
		}
	}
}

func TestMonthlyRevenue(t *testing.T) {
	paymentOn := func(day time.Time, amount float64) models.Payment {
		return models.Payment{Amount: amount, Method: "cash", Date: day}
	}

	t.Run("buckets by month with zero fill", func(t *testing.T) {
		payments := []models.Payment{
			paymentOn(date(2026, time.January, 10), 100),
			paymentOn(date(2026, time.January, 20), 50),
			paymentOn(date(2026, time.March, 1), 75.25),
			paymentOn(date(2025, time.December, 5), 999),
		}
		points := MonthlyRevenue(payments, 3, date(2026, time.March, 15))
		if len(points) != 3 {
			t.Fatalf("got %d points, want 3", len(points))
		}
		want := []MonthlyRevenuePoint{
			{Year: 2026, Month: 1, Label: "Jan 2026", Total: 150},
			{Year: 2026, Month: 2, Label: "Feb 2026", Total: 0},
			{Year: 2026, Month: 3, Label: "Mar 2026", Total: 75.25},
		}
		for i := range want {
			if points[i] != want[i] {
				t.Errorf("points[%d] = %+v, want %+v", i, points[i], want[i])
			}
		}
	})

	t.Run("spans year boundaries", func(t *testing.T) {
		points := MonthlyRevenue(nil, 3, date(2026, time.January, 10))
		if points[0].Label != "Nov 2025" || points[2].Label != "Jan 2026" {
			t.Errorf("labels = %q to %q, want Nov 2025 through Jan 2026", points[0].Label, points[2].Label)
		}
	})

	t.Run("non-positive month count", func(t *testing.T) {
		if points := MonthlyRevenue(nil, 0, date(2026, time.March, 15)); points != nil {
			t.Errorf("got %+v, want nil", points)
		}
	})
}
