package billing

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"melodica_go/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testSettings() models.BillingSettings {
	return models.BillingSettings{
		DefaultBillingModel:     models.BillingPerLesson,
		InvoicePrefix:           "INV",
		NextInvoiceNumber:       100,
		DefaultPaymentTermsDays: 14,
	}
}

func openInvoice(id, studentID uint, total float64, due time.Time) models.Invoice {
	inv := models.Invoice{
		InvoiceNumber: fmt.Sprintf("INV-%d", id),
		StudentID:     studentID,
		Status:        models.InvoiceStatusUnpaid,
		CreatedDate:   date(2026, time.March, 1),
		DueDate:       due,
		Subtotal:      total,
		Total:         total,
		Balance:       total,
	}
	inv.ID = id
	return inv
}

func TestCreateInvoice(t *testing.T) {
	createdDate := date(2026, time.March, 1)

	t.Run("totals and numbering", func(t *testing.T) {
		res, err := CreateInvoice(nil, testSettings(), InvoiceInput{
			StudentID: 1,
			Items: []ItemInput{
				{Description: "Piano lesson", Quantity: 4, Rate: 45},
				{Description: "Lesson books", Quantity: 1, Rate: 25.5},
			},
			Discount:    20,
			Tax:         10.25,
			CreatedDate: createdDate,
		})
		if err != nil {
			t.Fatalf("CreateInvoice: %v", err)
		}
		inv := res.Invoice
		if inv.InvoiceNumber != "INV-100" {
			t.Errorf("number = %q, want INV-100", inv.InvoiceNumber)
		}
		if inv.Subtotal != 205.5 {
			t.Errorf("subtotal = %v, want 205.5", inv.Subtotal)
		}
		if inv.Total != 195.75 {
			t.Errorf("total = %v, want 195.75", inv.Total)
		}
		if inv.Balance != inv.Total || inv.AmountPaid != 0 {
			t.Errorf("balance = %v paid = %v, want full balance and nothing paid", inv.Balance, inv.AmountPaid)
		}
		if inv.Status != models.InvoiceStatusUnpaid {
			t.Errorf("status = %q, want unpaid", inv.Status)
		}
		if len(inv.Items) != 2 || inv.Items[0].Amount != 180 {
			t.Errorf("items = %+v, want two lines with first amount 180", inv.Items)
		}
		if res.Settings.NextInvoiceNumber != 101 {
			t.Errorf("next number = %d, want 101", res.Settings.NextInvoiceNumber)
		}
		if len(res.Invoices) != 1 {
			t.Errorf("snapshot size = %d, want 1", len(res.Invoices))
		}
	})

	t.Run("due date falls back to payment terms", func(t *testing.T) {
		res, err := CreateInvoice(nil, testSettings(), InvoiceInput{
			StudentID:   1,
			Items:       []ItemInput{{Description: "Lesson", Quantity: 1, Rate: 45}},
			CreatedDate: createdDate,
		})
		if err != nil {
			t.Fatalf("CreateInvoice: %v", err)
		}
		want := date(2026, time.March, 15)
		if !res.Invoice.DueDate.Equal(want) {
			t.Errorf("due date = %v, want %v", res.Invoice.DueDate, want)
		}
	})

	t.Run("explicit due date wins", func(t *testing.T) {
		res, err := CreateInvoice(nil, testSettings(), InvoiceInput{
			StudentID:   1,
			Items:       []ItemInput{{Description: "Lesson", Quantity: 1, Rate: 45}},
			CreatedDate: createdDate,
			DueDate:     date(2026, time.April, 1),
		})
		if err != nil {
			t.Fatalf("CreateInvoice: %v", err)
		}
		if !res.Invoice.DueDate.Equal(date(2026, time.April, 1)) {
			t.Errorf("due date = %v, want the explicit one", res.Invoice.DueDate)
		}
	})

	t.Run("numbers stay consecutive when settings are threaded", func(t *testing.T) {
		input := InvoiceInput{
			StudentID:   1,
			Items:       []ItemInput{{Description: "Lesson", Quantity: 1, Rate: 45}},
			CreatedDate: createdDate,
		}
		first, err := CreateInvoice(nil, testSettings(), input)
		if err != nil {
			t.Fatalf("first CreateInvoice: %v", err)
		}
		second, err := CreateInvoice(first.Invoices, first.Settings, input)
		if err != nil {
			t.Fatalf("second CreateInvoice: %v", err)
		}
		if first.Invoice.InvoiceNumber != "INV-100" || second.Invoice.InvoiceNumber != "INV-101" {
			t.Errorf("numbers = %q, %q, want INV-100 then INV-101",
				first.Invoice.InvoiceNumber, second.Invoice.InvoiceNumber)
		}
		if second.Settings.NextInvoiceNumber != 102 {
			t.Errorf("next number = %d, want 102", second.Settings.NextInvoiceNumber)
		}
	})

	t.Run("draft flag", func(t *testing.T) {
		res, err := CreateInvoice(nil, testSettings(), InvoiceInput{
			StudentID:   1,
			Items:       []ItemInput{{Description: "Lesson", Quantity: 1, Rate: 45}},
			CreatedDate: createdDate,
			Draft:       true,
		})
		if err != nil {
			t.Fatalf("CreateInvoice: %v", err)
		}
		if res.Invoice.Status != models.InvoiceStatusDraft {
			t.Errorf("status = %q, want draft", res.Invoice.Status)
		}
	})

	t.Run("billing model defaults from settings", func(t *testing.T) {
		res, err := CreateInvoice(nil, testSettings(), InvoiceInput{
			StudentID:   1,
			Items:       []ItemInput{{Description: "Lesson", Quantity: 1, Rate: 45}},
			CreatedDate: createdDate,
		})
		if err != nil {
			t.Fatalf("CreateInvoice: %v", err)
		}
		if res.Invoice.BillingModel != models.BillingPerLesson {
			t.Errorf("billing model = %q, want %q", res.Invoice.BillingModel, models.BillingPerLesson)
		}
	})

	t.Run("empty prefix falls back to INV", func(t *testing.T) {
		settings := testSettings()
		settings.InvoicePrefix = ""
		res, err := CreateInvoice(nil, settings, InvoiceInput{
			StudentID:   1,
			Items:       []ItemInput{{Description: "Lesson", Quantity: 1, Rate: 45}},
			CreatedDate: createdDate,
		})
		if err != nil {
			t.Fatalf("CreateInvoice: %v", err)
		}
		if res.Invoice.InvoiceNumber != "INV-100" {
			t.Errorf("number = %q, want INV-100", res.Invoice.InvoiceNumber)
		}
	})

	t.Run("input snapshot is not mutated", func(t *testing.T) {
		existing := []models.Invoice{openInvoice(1, 1, 50, date(2026, time.March, 10))}
		res, err := CreateInvoice(existing, testSettings(), InvoiceInput{
			StudentID:   1,
			Items:       []ItemInput{{Description: "Lesson", Quantity: 1, Rate: 45}},
			CreatedDate: createdDate,
		})
		if err != nil {
			t.Fatalf("CreateInvoice: %v", err)
		}
		if len(existing) != 1 || len(res.Invoices) != 2 {
			t.Errorf("snapshot sizes = %d and %d, want 1 and 2", len(existing), len(res.Invoices))
		}
	})
}

func TestCreateInvoiceValidation(t *testing.T) {
	item := []ItemInput{{Description: "Lesson", Quantity: 1, Rate: 45}}
	created := date(2026, time.March, 1)

	cases := []struct {
		name    string
		in      InvoiceInput
		wantErr error
	}{
		{"missing student", InvoiceInput{Items: item, CreatedDate: created}, ErrInvalidStudent},
		{"no items", InvoiceInput{StudentID: 1, CreatedDate: created}, ErrNoItems},
		{"missing created date", InvoiceInput{StudentID: 1, Items: item}, ErrInvalidDate},
		{"negative discount", InvoiceInput{StudentID: 1, Items: item, CreatedDate: created, Discount: -5}, ErrInvalidTotals},
		{"negative tax", InvoiceInput{StudentID: 1, Items: item, CreatedDate: created, Tax: -5}, ErrInvalidTotals},
		{"discount exceeds subtotal", InvoiceInput{StudentID: 1, Items: item, CreatedDate: created, Discount: 100}, ErrInvalidTotals},
		{"blank item description", InvoiceInput{StudentID: 1, Items: []ItemInput{{Description: "  ", Quantity: 1, Rate: 45}}, CreatedDate: created}, ErrInvalidItem},
		{"negative quantity", InvoiceInput{StudentID: 1, Items: []ItemInput{{Description: "Lesson", Quantity: -1, Rate: 45}}, CreatedDate: created}, ErrInvalidItem},
		{"negative rate", InvoiceInput{StudentID: 1, Items: []ItemInput{{Description: "Lesson", Quantity: 1, Rate: -45}}, CreatedDate: created}, ErrInvalidItem},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := CreateInvoice(nil, testSettings(), tc.in); !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRecordPayment(t *testing.T) {
	due := date(2026, time.March, 15)
	payDate := date(2026, time.March, 10)

	t.Run("full payment", func(t *testing.T) {
		invoices := []models.Invoice{openInvoice(1, 7, 200, due)}
		res, err := RecordPayment(invoices, PaymentInput{InvoiceID: 1, Amount: 200, Method: "cash", Date: payDate})
		if err != nil {
			t.Fatalf("RecordPayment: %v", err)
		}
		inv := res.Invoice
		if inv.Status != models.InvoiceStatusPaid || inv.Balance != 0 || inv.AmountPaid != 200 {
			t.Errorf("invoice = %q balance %v paid %v, want paid/0/200", inv.Status, inv.Balance, inv.AmountPaid)
		}
		if res.Payment.InvoiceID != 1 || res.Payment.StudentID != 7 || res.Payment.Amount != 200 {
			t.Errorf("payment = %+v, want invoice 1 student 7 amount 200", res.Payment)
		}
		if invoices[0].Status != models.InvoiceStatusUnpaid {
			t.Errorf("input snapshot mutated: %q", invoices[0].Status)
		}
	})

	t.Run("partial then remainder", func(t *testing.T) {
		invoices := []models.Invoice{openInvoice(1, 7, 200, due)}
		first, err := RecordPayment(invoices, PaymentInput{InvoiceID: 1, Amount: 80, Method: "venmo", Date: payDate})
		if err != nil {
			t.Fatalf("first RecordPayment: %v", err)
		}
		if first.Invoice.Status != models.InvoiceStatusPartial || first.Invoice.Balance != 120 {
			t.Errorf("after 80: %q balance %v, want partial/120", first.Invoice.Status, first.Invoice.Balance)
		}
		second, err := RecordPayment(first.Invoices, PaymentInput{InvoiceID: 1, Amount: 120, Method: "venmo", Date: payDate})
		if err != nil {
			t.Fatalf("second RecordPayment: %v", err)
		}
		if second.Invoice.Status != models.InvoiceStatusPaid || second.Invoice.Balance != 0 || second.Invoice.AmountPaid != 200 {
			t.Errorf("after 200: %q balance %v paid %v, want paid/0/200",
				second.Invoice.Status, second.Invoice.Balance, second.Invoice.AmountPaid)
		}
	})

	t.Run("repeated equal payments compound", func(t *testing.T) {
		// Each payment must run against the result of the one before it;
		// two 50s on a 100 invoice settle it rather than leaving 50 paid.
		invoices := []models.Invoice{openInvoice(1, 7, 100, due)}
		first, err := RecordPayment(invoices, PaymentInput{InvoiceID: 1, Amount: 50, Method: "cash", Date: payDate})
		if err != nil {
			t.Fatalf("first RecordPayment: %v", err)
		}
		second, err := RecordPayment(first.Invoices, PaymentInput{InvoiceID: 1, Amount: 50, Method: "cash", Date: payDate})
		if err != nil {
			t.Fatalf("second RecordPayment: %v", err)
		}
		inv := second.Invoice
		if inv.AmountPaid != 100 || inv.Balance != 0 || inv.Status != models.InvoiceStatusPaid {
			t.Errorf("after two 50s: paid %v balance %v status %q, want 100/0/paid",
				inv.AmountPaid, inv.Balance, inv.Status)
		}
	})

	t.Run("overpayment clamps balance and keeps the credit visible", func(t *testing.T) {
		invoices := []models.Invoice{openInvoice(1, 7, 150, due)}
		res, err := RecordPayment(invoices, PaymentInput{InvoiceID: 1, Amount: 200, Method: "check", Date: payDate})
		if err != nil {
			t.Fatalf("RecordPayment: %v", err)
		}
		inv := res.Invoice
		if inv.Status != models.InvoiceStatusPaid || inv.Balance != 0 {
			t.Errorf("invoice = %q balance %v, want paid with zero balance", inv.Status, inv.Balance)
		}
		if inv.AmountPaid != 200 {
			t.Errorf("amount paid = %v, want the factual 200", inv.AmountPaid)
		}
		if inv.Credit() != 50 {
			t.Errorf("credit = %v, want 50", inv.Credit())
		}
	})

	t.Run("cent amounts settle exactly", func(t *testing.T) {
		invoices := []models.Invoice{openInvoice(1, 7, 100.10, due)}
		snapshot := invoices
		for _, amount := range []float64{33.37, 33.37, 33.36} {
			res, err := RecordPayment(snapshot, PaymentInput{InvoiceID: 1, Amount: amount, Method: "cash", Date: payDate})
			if err != nil {
				t.Fatalf("RecordPayment(%v): %v", amount, err)
			}
			snapshot = res.Invoices
		}
		inv := snapshot[0]
		if inv.Status != models.InvoiceStatusPaid || inv.Balance != 0 || inv.AmountPaid != 100.10 {
			t.Errorf("invoice = %q balance %v paid %v, want paid/0/100.10", inv.Status, inv.Balance, inv.AmountPaid)
		}
	})

	t.Run("payment on an overdue invoice lands on partial", func(t *testing.T) {
		inv := openInvoice(1, 7, 100, date(2026, time.February, 1))
		inv.Status = models.InvoiceStatusOverdue
		res, err := RecordPayment([]models.Invoice{inv}, PaymentInput{InvoiceID: 1, Amount: 40, Method: "cash", Date: payDate})
		if err != nil {
			t.Fatalf("RecordPayment: %v", err)
		}
		if res.Invoice.Status != models.InvoiceStatusPartial || res.Invoice.Balance != 60 {
			t.Errorf("invoice = %q balance %v, want partial/60", res.Invoice.Status, res.Invoice.Balance)
		}
	})

	t.Run("method and source defaults", func(t *testing.T) {
		invoices := []models.Invoice{openInvoice(1, 7, 100, due)}
		res, err := RecordPayment(invoices, PaymentInput{InvoiceID: 1, Amount: 25, Date: payDate})
		if err != nil {
			t.Fatalf("RecordPayment: %v", err)
		}
		if res.Payment.Method != "other" || res.Payment.Source != "manual" {
			t.Errorf("method = %q source = %q, want other/manual", res.Payment.Method, res.Payment.Source)
		}
	})
}

func TestRecordPaymentErrors(t *testing.T) {
	due := date(2026, time.March, 15)
	payDate := date(2026, time.March, 10)

	void := openInvoice(2, 7, 100, due)
	void.Status = models.InvoiceStatusVoid
	draft := openInvoice(3, 7, 100, due)
	draft.Status = models.InvoiceStatusDraft
	invoices := []models.Invoice{openInvoice(1, 7, 100, due), void, draft}

	cases := []struct {
		name    string
		in      PaymentInput
		wantErr error
	}{
		{"unknown invoice", PaymentInput{InvoiceID: 99, Amount: 50, Date: payDate}, ErrUnknownInvoice},
		{"void invoice", PaymentInput{InvoiceID: 2, Amount: 50, Date: payDate}, ErrInvoiceVoid},
		{"draft invoice", PaymentInput{InvoiceID: 3, Amount: 50, Date: payDate}, ErrInvoiceDraft},
		{"zero amount", PaymentInput{InvoiceID: 1, Amount: 0, Date: payDate}, ErrInvalidAmount},
		{"negative amount", PaymentInput{InvoiceID: 1, Amount: -20, Date: payDate}, ErrInvalidAmount},
		{"missing date", PaymentInput{InvoiceID: 1, Amount: 50}, ErrInvalidDate},
		{"unknown method", PaymentInput{InvoiceID: 1, Amount: 50, Method: "crypto", Date: payDate}, ErrInvalidMethod},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := RecordPayment(invoices, tc.in); !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestVoidInvoice(t *testing.T) {
	due := date(2026, time.March, 15)

	t.Run("void zeroes the balance and keeps the history", func(t *testing.T) {
		inv := openInvoice(1, 7, 180, due)
		inv.Status = models.InvoiceStatusPartial
		inv.AmountPaid = 50
		inv.Balance = 130
		invoices := []models.Invoice{inv}

		res, err := VoidInvoice(invoices, 1)
		if err != nil {
			t.Fatalf("VoidInvoice: %v", err)
		}
		got := res.Invoice
		if got.Status != models.InvoiceStatusVoid || got.Balance != 0 {
			t.Errorf("invoice = %q balance %v, want void with zero balance", got.Status, got.Balance)
		}
		if got.Total != 180 || got.AmountPaid != 50 {
			t.Errorf("total = %v paid = %v, want history preserved (180/50)", got.Total, got.AmountPaid)
		}
		if invoices[0].Status != models.InvoiceStatusPartial {
			t.Errorf("input snapshot mutated: %q", invoices[0].Status)
		}
	})

	t.Run("void is idempotent", func(t *testing.T) {
		res, err := VoidInvoice([]models.Invoice{openInvoice(1, 7, 100, due)}, 1)
		if err != nil {
			t.Fatalf("VoidInvoice: %v", err)
		}
		again, err := VoidInvoice(res.Invoices, 1)
		if err != nil {
			t.Fatalf("second VoidInvoice: %v", err)
		}
		if again.Invoice.Status != models.InvoiceStatusVoid {
			t.Errorf("status = %q, want void", again.Invoice.Status)
		}
	})

	t.Run("paid invoices cannot be voided", func(t *testing.T) {
		paid, err := RecordPayment([]models.Invoice{openInvoice(1, 7, 150, due)},
			PaymentInput{InvoiceID: 1, Amount: 150, Method: "cash", Date: due})
		if err != nil {
			t.Fatalf("RecordPayment: %v", err)
		}
		if paid.Invoice.Status != models.InvoiceStatusPaid {
			t.Fatalf("status after full payment = %q, want paid", paid.Invoice.Status)
		}
		if _, err := VoidInvoice(paid.Invoices, 1); !errors.Is(err, ErrInvoicePaid) {
			t.Fatalf("err = %v, want %v", err, ErrInvoicePaid)
		}
		if paid.Invoices[0].Status != models.InvoiceStatusPaid {
			t.Errorf("input snapshot mutated: %q", paid.Invoices[0].Status)
		}
	})

	t.Run("unknown invoice", func(t *testing.T) {
		if _, err := VoidInvoice(nil, 42); !errors.Is(err, ErrUnknownInvoice) {
			t.Fatalf("err = %v, want %v", err, ErrUnknownInvoice)
		}
	})
}

func TestFinalizeDrafts(t *testing.T) {
	due := date(2026, time.April, 15)
	draftA := openInvoice(1, 7, 100, due)
	draftA.Status = models.InvoiceStatusDraft
	draftB := openInvoice(2, 8, 200, due)
	draftB.Status = models.InvoiceStatusDraft
	paid := openInvoice(3, 7, 50, due)
	paid.Status = models.InvoiceStatusPaid
	invoices := []models.Invoice{draftA, paid, draftB, openInvoice(4, 9, 75, due)}

	out, finalized := FinalizeDrafts(invoices)
	if len(finalized) != 2 {
		t.Fatalf("finalized %d invoices, want 2", len(finalized))
	}
	for _, inv := range finalized {
		if inv.Status != models.InvoiceStatusUnpaid {
			t.Errorf("invoice %d status = %q, want unpaid", inv.ID, inv.Status)
		}
	}
	if out[1].Status != models.InvoiceStatusPaid || out[3].Status != models.InvoiceStatusUnpaid {
		t.Errorf("non-draft statuses changed: %q, %q", out[1].Status, out[3].Status)
	}
	if invoices[0].Status != models.InvoiceStatusDraft {
		t.Errorf("input snapshot mutated: %q", invoices[0].Status)
	}

	_, none := FinalizeDrafts(out)
	if len(none) != 0 {
		t.Errorf("second pass finalized %d invoices, want 0", len(none))
	}
}

func TestCheckOverdue(t *testing.T) {
	today := date(2026, time.March, 10)

	t.Run("flips open invoices past their due date", func(t *testing.T) {
		partial := openInvoice(2, 8, 200, date(2026, time.March, 3))
		partial.Status = models.InvoiceStatusPartial
		partial.AmountPaid = 50
		partial.Balance = 150
		paid := openInvoice(4, 7, 50, date(2026, time.February, 1))
		paid.Status = models.InvoiceStatusPaid
		draft := openInvoice(5, 8, 75, date(2026, time.February, 1))
		draft.Status = models.InvoiceStatusDraft

		invoices := []models.Invoice{
			openInvoice(1, 7, 100, date(2026, time.March, 9)),
			partial,
			openInvoice(3, 9, 80, today),
			paid,
			draft,
		}

		out, flipped := CheckOverdue(invoices, today)
		if len(flipped) != 2 {
			t.Fatalf("flipped %d invoices, want 2", len(flipped))
		}
		if out[0].Status != models.InvoiceStatusOverdue || out[1].Status != models.InvoiceStatusOverdue {
			t.Errorf("past-due statuses = %q, %q, want overdue", out[0].Status, out[1].Status)
		}
		if out[2].Status != models.InvoiceStatusUnpaid {
			t.Errorf("due today flipped to %q, want still unpaid", out[2].Status)
		}
		if out[3].Status != models.InvoiceStatusPaid || out[4].Status != models.InvoiceStatusDraft {
			t.Errorf("settled statuses changed: %q, %q", out[3].Status, out[4].Status)
		}

		_, again := CheckOverdue(out, today)
		if len(again) != 0 {
			t.Errorf("second pass flipped %d invoices, want 0", len(again))
		}
	})

	t.Run("re-flags an overdue invoice after a partial payment", func(t *testing.T) {
		inv := openInvoice(1, 7, 100, date(2026, time.March, 1))
		out, flipped := CheckOverdue([]models.Invoice{inv}, today)
		if len(flipped) != 1 {
			t.Fatalf("first pass flipped %d, want 1", len(flipped))
		}
		paidRes, err := RecordPayment(out, PaymentInput{InvoiceID: 1, Amount: 30, Method: "cash", Date: today})
		if err != nil {
			t.Fatalf("RecordPayment: %v", err)
		}
		if paidRes.Invoice.Status != models.InvoiceStatusPartial {
			t.Fatalf("status after payment = %q, want partial", paidRes.Invoice.Status)
		}
		_, reflagged := CheckOverdue(paidRes.Invoices, today)
		if len(reflagged) != 1 || reflagged[0].Status != models.InvoiceStatusOverdue {
			t.Errorf("next pass flipped %d, want the invoice back on overdue", len(reflagged))
		}
	})
}

func TestOverdueInvoices(t *testing.T) {
	today := date(2026, time.March, 11)

	alreadyFlagged := openInvoice(3, 9, 80, date(2026, time.March, 6))
	alreadyFlagged.Status = models.InvoiceStatusOverdue

	invoices := []models.Invoice{
		openInvoice(1, 7, 100, date(2026, time.March, 1)),
		openInvoice(2, 8, 200, date(2026, time.March, 8)),
		alreadyFlagged,
		openInvoice(4, 7, 50, date(2026, time.March, 12)),
	}

	out := OverdueInvoices(invoices, today)
	if len(out) != 3 {
		t.Fatalf("got %d overdue invoices, want 3", len(out))
	}
	wantDays := []int{10, 5, 3}
	for i, want := range wantDays {
		if out[i].DaysOverdue != want {
			t.Errorf("out[%d].DaysOverdue = %d, want %d", i, out[i].DaysOverdue, want)
		}
	}
	if out[0].ID != 1 || out[1].ID != 3 || out[2].ID != 2 {
		t.Errorf("order = %d, %d, %d, want most overdue first (1, 3, 2)", out[0].ID, out[1].ID, out[2].ID)
	}
}
