package billing

import (
	"errors"
	"testing"
	"time"

	"melodica_go/models"
)

func activeStudent(id uint, name, model string) models.Student {
	s := models.Student{Name: name, BillingModel: model, Active: true}
	s.ID = id
	return s
}

func lessonOn(id, studentID uint, day time.Time, rate float64) models.Lesson {
	l := models.Lesson{
		StudentID:       studentID,
		Date:            day,
		StartTime:       "15:00",
		DurationMinutes: 30,
		LessonType:      "Piano",
		Rate:            rate,
		Status:          models.LessonStatusScheduled,
	}
	l.ID = id
	return l
}

func findPreview(t *testing.T, previews []Preview, studentID uint) Preview {
	t.Helper()
	for _, p := range previews {
		if p.StudentID == studentID {
			return p
		}
	}
	t.Fatalf("no preview for student %d", studentID)
	return Preview{}
}

func march2026() Window {
	return Window{Start: date(2026, time.March, 1), End: date(2026, time.March, 31)}
}

func TestGeneratePreviews(t *testing.T) {
	t.Run("per-lesson students get one line per lesson", func(t *testing.T) {
		cancelled := lessonOn(4, 1, date(2026, time.March, 19), 45)
		cancelled.Status = models.LessonStatusCancelled
		lessons := []models.Lesson{
			lessonOn(1, 1, date(2026, time.March, 5), 45),
			lessonOn(2, 1, date(2026, time.March, 12), 45),
			lessonOn(3, 1, date(2026, time.April, 2), 45),
			cancelled,
		}
		students := []models.Student{activeStudent(1, "Alice Chen", models.BillingPerLesson)}

		previews := GeneratePreviews(students, lessons, nil, march2026())
		if len(previews) != 1 {
			t.Fatalf("got %d previews, want 1", len(previews))
		}
		p := previews[0]
		if p.Skipped {
			t.Fatalf("preview skipped: %q", p.SkipReason)
		}
		if p.LessonCount != 2 || len(p.Items) != 2 {
			t.Errorf("lesson count = %d items = %d, want 2 and 2", p.LessonCount, len(p.Items))
		}
		if p.Items[0].Description != "Piano, Mar 5, 2026" {
			t.Errorf("first item = %q, want lesson type and date", p.Items[0].Description)
		}
		if p.Subtotal != 90 {
			t.Errorf("subtotal = %v, want 90", p.Subtotal)
		}
	})

	t.Run("monthly students get one line per month", func(t *testing.T) {
		rate := 300.0
		bob := activeStudent(2, "Bob Reyes", models.BillingMonthly)
		bob.MonthlyRate = &rate
		lessons := []models.Lesson{
			lessonOn(1, 2, date(2026, time.March, 10), 0),
			lessonOn(2, 2, date(2026, time.March, 17), 0),
			lessonOn(3, 2, date(2026, time.April, 2), 0),
		}
		window := Window{Start: date(2026, time.March, 1), End: date(2026, time.April, 30)}

		previews := GeneratePreviews([]models.Student{bob}, lessons, nil, window)
		p := findPreview(t, previews, 2)
		if p.Skipped {
			t.Fatalf("preview skipped: %q", p.SkipReason)
		}
		if len(p.Items) != 2 || p.Subtotal != 600 {
			t.Fatalf("items = %d subtotal = %v, want 2 months at 300", len(p.Items), p.Subtotal)
		}
		if p.Items[0].Description != "Monthly tuition, March 2026" ||
			p.Items[1].Description != "Monthly tuition, April 2026" {
			t.Errorf("item descriptions = %q, %q", p.Items[0].Description, p.Items[1].Description)
		}
	})

	t.Run("skip reasons", func(t *testing.T) {
		noRate := activeStudent(3, "Erin Walsh", models.BillingMonthly)
		students := []models.Student{
			activeStudent(1, "Alice Chen", models.BillingPerLesson),
			activeStudent(2, "Carol Diaz", models.BillingPerCourse),
			noRate,
			activeStudent(4, "Frank Osei", models.BillingPerLesson),
		}
		lessons := []models.Lesson{
			lessonOn(1, 1, date(2026, time.March, 5), 45),
			lessonOn(2, 2, date(2026, time.March, 6), 45),
			lessonOn(3, 3, date(2026, time.March, 7), 45),
		}
		billed := openInvoice(1, 1, 90, date(2026, time.March, 15))
		ps, pe := date(2026, time.March, 1), date(2026, time.March, 31)
		billed.PeriodStart, billed.PeriodEnd = &ps, &pe

		previews := GeneratePreviews(students, lessons, []models.Invoice{billed}, march2026())

		cases := []struct {
			studentID uint
			reason    string
		}{
			{1, SkipAlreadyBilled},
			{2, SkipManualBilling},
			{3, SkipNoMonthlyRate},
			{4, SkipNoLessons},
		}
		for _, tc := range cases {
			p := findPreview(t, previews, tc.studentID)
			if !p.Skipped || p.SkipReason != tc.reason {
				t.Errorf("student %d: skipped=%v reason=%q, want %q", tc.studentID, p.Skipped, p.SkipReason, tc.reason)
			}
		}
	})

	t.Run("voided invoices do not block rebilling", func(t *testing.T) {
		voided := openInvoice(1, 1, 90, date(2026, time.March, 15))
		voided.Status = models.InvoiceStatusVoid
		ps, pe := date(2026, time.March, 1), date(2026, time.March, 31)
		voided.PeriodStart, voided.PeriodEnd = &ps, &pe

		previews := GeneratePreviews(
			[]models.Student{activeStudent(1, "Alice Chen", models.BillingPerLesson)},
			[]models.Lesson{lessonOn(1, 1, date(2026, time.March, 5), 45)},
			[]models.Invoice{voided},
			march2026(),
		)
		if p := findPreview(t, previews, 1); p.Skipped {
			t.Errorf("skipped with reason %q, want billable after void", p.SkipReason)
		}
	})

	t.Run("inactive students are left out entirely", func(t *testing.T) {
		inactive := activeStudent(1, "Dave Kim", models.BillingPerLesson)
		inactive.Active = false
		previews := GeneratePreviews(
			[]models.Student{inactive},
			[]models.Lesson{lessonOn(1, 1, date(2026, time.March, 5), 45)},
			nil,
			march2026(),
		)
		if len(previews) != 0 {
			t.Fatalf("got %d previews for an inactive student, want none", len(previews))
		}
	})
}

func TestCreateBatchInvoices(t *testing.T) {
	rate := 300.0
	bob := activeStudent(2, "Bob Reyes", models.BillingMonthly)
	bob.MonthlyRate = &rate
	students := []models.Student{
		activeStudent(1, "Alice Chen", models.BillingPerLesson),
		bob,
		activeStudent(3, "Carol Diaz", models.BillingPerCourse),
	}
	lessons := []models.Lesson{
		lessonOn(1, 1, date(2026, time.March, 5), 45),
		lessonOn(2, 1, date(2026, time.March, 12), 45),
		lessonOn(3, 2, date(2026, time.March, 10), 0),
		lessonOn(4, 3, date(2026, time.March, 11), 60),
	}

	input := BatchInput{
		Window:      march2026(),
		CreatedDate: date(2026, time.April, 1),
		BatchID:     "3f1c9a52-88a1-4c58-9f6e-0b7d2f1c44aa",
	}

	t.Run("issues consecutive drafts stamped with batch and period", func(t *testing.T) {
		settings := testSettings()
		settings.NextInvoiceNumber = 500

		res, err := CreateBatchInvoices(students, lessons, nil, settings, input)
		if err != nil {
			t.Fatalf("CreateBatchInvoices: %v", err)
		}
		if len(res.Created) != 2 {
			t.Fatalf("created %d invoices, want 2", len(res.Created))
		}
		if res.Created[0].InvoiceNumber != "INV-500" || res.Created[1].InvoiceNumber != "INV-501" {
			t.Errorf("numbers = %q, %q, want INV-500 then INV-501",
				res.Created[0].InvoiceNumber, res.Created[1].InvoiceNumber)
		}
		if res.Settings.NextInvoiceNumber != 502 {
			t.Errorf("next number = %d, want 502", res.Settings.NextInvoiceNumber)
		}
		for _, inv := range res.Created {
			if inv.Status != models.InvoiceStatusDraft {
				t.Errorf("invoice %s status = %q, want draft", inv.InvoiceNumber, inv.Status)
			}
			if inv.BatchID == nil || *inv.BatchID != input.BatchID {
				t.Errorf("invoice %s batch id = %v, want the shared id", inv.InvoiceNumber, inv.BatchID)
			}
			if inv.PeriodStart == nil || !inv.PeriodStart.Equal(date(2026, time.March, 1)) ||
				inv.PeriodEnd == nil || !inv.PeriodEnd.Equal(date(2026, time.March, 31)) {
				t.Errorf("invoice %s period = %v to %v, want the window", inv.InvoiceNumber, inv.PeriodStart, inv.PeriodEnd)
			}
		}
		if res.Created[0].Total != 90 || res.Created[1].Total != 300 {
			t.Errorf("totals = %v, %v, want 90 and 300", res.Created[0].Total, res.Created[1].Total)
		}
		if len(res.Skipped) != 1 || res.Skipped[0].SkipReason != SkipManualBilling {
			t.Errorf("skipped = %+v, want only the per-course student", res.Skipped)
		}
		if len(res.Invoices) != 2 {
			t.Errorf("snapshot size = %d, want 2", len(res.Invoices))
		}
	})

	t.Run("only the approved subset is created", func(t *testing.T) {
		in := input
		in.StudentIDs = []uint{2}
		res, err := CreateBatchInvoices(students, lessons, nil, testSettings(), in)
		if err != nil {
			t.Fatalf("CreateBatchInvoices: %v", err)
		}
		if len(res.Created) != 1 || res.Created[0].StudentID != 2 {
			t.Fatalf("created = %+v, want just student 2", res.Created)
		}
		for _, p := range res.Skipped {
			if p.StudentID == 1 {
				t.Errorf("unapproved student reported as skipped: %+v", p)
			}
		}
	})

	t.Run("a committed batch blocks the next preview", func(t *testing.T) {
		res, err := CreateBatchInvoices(students, lessons, nil, testSettings(), input)
		if err != nil {
			t.Fatalf("CreateBatchInvoices: %v", err)
		}
		previews := GeneratePreviews(students, lessons, res.Invoices, march2026())
		p := findPreview(t, previews, 1)
		if !p.Skipped || p.SkipReason != SkipAlreadyBilled {
			t.Errorf("rerun preview = %+v, want already billed", p)
		}
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name    string
			in      BatchInput
			wantErr error
		}{
			{"missing window", BatchInput{CreatedDate: date(2026, time.April, 1)}, ErrInvalidWindow},
			{"end before start", BatchInput{
				Window:      Window{Start: date(2026, time.March, 31), End: date(2026, time.March, 1)},
				CreatedDate: date(2026, time.April, 1),
			}, ErrInvalidWindow},
			{"missing created date", BatchInput{Window: march2026()}, ErrInvalidDate},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := CreateBatchInvoices(students, lessons, nil, testSettings(), tc.in); !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
			})
		}
	})
}
