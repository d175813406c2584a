package billing

import (
	"sort"
	"time"

	"melodica_go/models"
)

func openStatus(status string) bool {
	switch status {
	case models.InvoiceStatusUnpaid, models.InvoiceStatusPartial, models.InvoiceStatusOverdue:
		return true
	}
	return false
}

// StudentBalance sums the open balances of one student's invoices. Drafts
// and voided invoices do not owe anything yet, so only open statuses count.
func StudentBalance(invoices []models.Invoice, studentID uint) float64 {
	total := 0.0
	for _, inv := range invoices {
		if inv.StudentID != studentID || !openStatus(inv.Status) {
			continue
		}
		total += inv.Balance
	}
	return round2(total)
}

type StudentBalanceSummary struct {
	StudentID    uint    `json:"student_id"`
	StudentName  string  `json:"student_name"`
	Balance      float64 `json:"balance"`
	OverdueCount int     `json:"overdue_count"`
}

// OutstandingBalances lists every student who owes money, largest balance
// first. Students with nothing open are omitted.
func OutstandingBalances(students []models.Student, invoices []models.Invoice) []StudentBalanceSummary {
	var out []StudentBalanceSummary
	for _, s := range students {
		balance := StudentBalance(invoices, s.ID)
		if balance <= 0 {
			continue
		}
		overdue := 0
		for _, inv := range invoices {
			if inv.StudentID == s.ID && inv.Status == models.InvoiceStatusOverdue {
				overdue++
			}
		}
		out = append(out, StudentBalanceSummary{
			StudentID:    s.ID,
			StudentName:  s.Name,
			Balance:      balance,
			OverdueCount: overdue,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Balance > out[j].Balance })
	return out
}

type LessonRevenueReport struct {
	CompletedCount int     `json:"completed_count"`
	CompletedTotal float64 `json:"completed_total"`
	ScheduledCount int     `json:"scheduled_count"`
	ScheduledTotal float64 `json:"scheduled_total"`
}

// LessonRevenue totals lesson rates inside the window, split into earned
// (completed) and expected (still scheduled). Cancelled lessons earn
// nothing and are left out entirely.
func LessonRevenue(lessons []models.Lesson, window Window) LessonRevenueReport {
	var report LessonRevenueReport
	completed, scheduled := 0.0, 0.0
	for _, l := range lessons {
		if !window.contains(l.Date) {
			continue
		}
		switch l.Status {
		case models.LessonStatusCompleted:
			report.CompletedCount++
			completed += l.Rate
		case models.LessonStatusScheduled:
			report.ScheduledCount++
			scheduled += l.Rate
		}
	}
	report.CompletedTotal = round2(completed)
	report.ScheduledTotal = round2(scheduled)
	return report
}

type InvoiceRevenueReport struct {
	TotalInvoiced    float64        `json:"total_invoiced"`
	TotalCollected   float64        `json:"total_collected"`
	TotalOutstanding float64        `json:"total_outstanding"`
	StatusCounts     map[string]int `json:"status_counts"`
}

// InvoiceRevenue reports on invoices created inside the window. Voided
// invoices still show up in the status counts but contribute nothing to
// the money totals.
func InvoiceRevenue(invoices []models.Invoice, window Window) InvoiceRevenueReport {
	report := InvoiceRevenueReport{StatusCounts: make(map[string]int)}
	invoiced, collected, outstanding := 0.0, 0.0, 0.0
	for _, inv := range invoices {
		if !window.contains(inv.CreatedDate) {
			continue
		}
		report.StatusCounts[inv.Status]++
		if inv.Status == models.InvoiceStatusVoid {
			continue
		}
		invoiced += inv.Total
		collected += inv.AmountPaid
		if openStatus(inv.Status) {
			outstanding += inv.Balance
		}
	}
	report.TotalInvoiced = round2(invoiced)
	report.TotalCollected = round2(collected)
	report.TotalOutstanding = round2(outstanding)
	return report
}

type MonthlyRevenuePoint struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// MonthlyRevenue buckets payment amounts by calendar month for the last
// `months` months ending at now, oldest first. Months with no payments
// appear as zero points so charts get an unbroken series. Payments are
// cash facts, so money received on a later-voided invoice still counts.
func MonthlyRevenue(payments []models.Payment, months int, now time.Time) []MonthlyRevenuePoint {
	if months <= 0 {
		return nil
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	points := make([]MonthlyRevenuePoint, months)
	index := make(map[int]int, months)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, -(months - 1 - i), 0)
		points[i] = MonthlyRevenuePoint{
			Year:  m.Year(),
			Month: int(m.Month()),
			Label: m.Format("Jan 2006"),
		}
		index[m.Year()*100+int(m.Month())] = i
	}

	for _, p := range payments {
		if i, ok := index[p.Date.Year()*100+int(p.Date.Month())]; ok {
			points[i].Total += p.Amount
		}
	}
	for i := range points {
		points[i].Total = round2(points[i].Total)
	}
	return points
}
