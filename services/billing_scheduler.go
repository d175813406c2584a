package services

import (
	"fmt"
	"strings"
	"time"

	"melodica_go/database"
	"melodica_go/models"
	"melodica_go/services/billing"
	notifsvc "melodica_go/services/notifications"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BillingScheduler runs the recurring billing jobs: flipping open invoices to
// overdue, the morning lesson digest, and the monthly invoicing reminder.
type BillingScheduler struct {
	db *gorm.DB
}

// NewBillingScheduler creates a scheduler bound to the shared database handle
func NewBillingScheduler() *BillingScheduler {
	return &BillingScheduler{db: database.DB}
}

// Start registers the cron entries and kicks off an immediate overdue scan so
// invoices that went past due while the service was down get flagged right away.
func (bs *BillingScheduler) Start() {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	jobs := []struct {
		schedule string
		name     string
		run      func()
	}{
		{"0 2 * * *", "overdue-scan", bs.RunOverdueScan},
		{"0 7 * * *", "daily-lesson-digest", bs.SendDailyLessonDigest},
		{"0 8 1 * *", "monthly-billing-reminder", bs.SendMonthlyBillingReminder},
	}

	for _, job := range jobs {
		if _, err := c.AddFunc(job.schedule, job.run); err != nil {
			logrus.WithError(err).Errorf("Failed to register %s job", job.name)
		}
	}

	c.Start()
	go bs.RunOverdueScan()

	logrus.Info("Billing scheduler started")
}

// RunOverdueScan flags unpaid and partially paid invoices whose due date has
// passed, then queues a notification summarizing what changed.
func (bs *BillingScheduler) RunOverdueScan() {
	var open []models.Invoice
	err := bs.db.
		Where("status IN ?", []string{models.InvoiceStatusUnpaid, models.InvoiceStatusPartial}).
		Find(&open).Error
	if err != nil {
		logrus.WithError(err).Error("Overdue scan: failed to load open invoices")
		return
	}

	_, flipped := billing.CheckOverdue(open, time.Now())
	if len(flipped) == 0 {
		logrus.Debug("Overdue scan: no invoices past due")
		return
	}

	ids := make([]uint, 0, len(flipped))
	var outstanding float64
	for _, inv := range flipped {
		ids = append(ids, inv.ID)
		outstanding += inv.Balance
	}

	err = bs.db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.Invoice{}).
			Where("id IN ?", ids).
			Update("status", models.InvoiceStatusOverdue).Error
	})
	if err != nil {
		logrus.WithError(err).Error("Overdue scan: failed to update invoice statuses")
		return
	}

	logrus.Infof("Overdue scan: flagged %d invoice(s), $%.2f outstanding", len(flipped), outstanding)

	notif := notifsvc.QueuedWithData(
		"Overdue invoices",
		fmt.Sprintf("%d invoice(s) went past due, $%.2f outstanding", len(flipped), outstanding),
		"warning",
		map[string]interface{}{"invoice_ids": ids, "outstanding": outstanding},
	)
	if err := notifsvc.NewService().EnqueueOrCreate(notif); err != nil {
		logrus.WithError(err).Warn("Overdue scan: failed to queue notification")
	}
}

// SendDailyLessonDigest queues a morning summary of the day's scheduled lessons
func (bs *BillingScheduler) SendDailyLessonDigest() {
	today := time.Now().Format("2006-01-02")

	var lessons []models.Lesson
	err := bs.db.
		Preload("Student").
		Where("date = ? AND status = ?", today, models.LessonStatusScheduled).
		Order("start_time ASC").
		Find(&lessons).Error
	if err != nil {
		logrus.WithError(err).Error("Daily digest: failed to load today's lessons")
		return
	}

	if len(lessons) == 0 {
		logrus.Debug("Daily digest: no lessons scheduled today")
		return
	}

	var b strings.Builder
	for _, lesson := range lessons {
		name := lesson.Student.Name
		if name == "" {
			name = fmt.Sprintf("student #%d", lesson.StudentID)
		}
		fmt.Fprintf(&b, "- %s %s (%s, %d min)\n", lesson.StartTime, name, lesson.LessonType, lesson.DurationMinutes)
	}

	notif := notifsvc.Queued(
		fmt.Sprintf("Today's schedule: %d lesson(s)", len(lessons)),
		b.String(),
		"info",
	)
	if err := notifsvc.NewService().EnqueueOrCreate(notif); err != nil {
		logrus.WithError(err).Warn("Daily digest: failed to queue notification")
	}
}

// SendMonthlyBillingReminder runs on the first of the month and reports how many
// students have uninvoiced billable lessons from the month that just ended.
func (bs *BillingScheduler) SendMonthlyBillingReminder() {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevStart := monthStart.AddDate(0, -1, 0)
	prevEnd := monthStart.AddDate(0, 0, -1)
	window := billing.Window{Start: prevStart, End: prevEnd}

	var students []models.Student
	if err := bs.db.Where("active = ?", true).Find(&students).Error; err != nil {
		logrus.WithError(err).Error("Billing reminder: failed to load students")
		return
	}

	var lessons []models.Lesson
	err := bs.db.
		Where("date BETWEEN ? AND ?", prevStart.Format("2006-01-02"), prevEnd.Format("2006-01-02")).
		Find(&lessons).Error
	if err != nil {
		logrus.WithError(err).Error("Billing reminder: failed to load lessons")
		return
	}

	var invoices []models.Invoice
	if err := bs.db.Find(&invoices).Error; err != nil {
		logrus.WithError(err).Error("Billing reminder: failed to load invoices")
		return
	}

	previews := billing.GeneratePreviews(students, lessons, invoices, window)

	billable := 0
	var projected float64
	for _, p := range previews {
		if p.Skipped {
			continue
		}
		billable++
		projected += p.Subtotal
	}

	if billable == 0 {
		logrus.Infof("Billing reminder: nothing to invoice for %s", prevStart.Format("January 2006"))
		return
	}

	period := prevStart.Format("January 2006")
	notif := notifsvc.QueuedWithData(
		fmt.Sprintf("Time to invoice %s", period),
		fmt.Sprintf("%d student(s) have uninvoiced lessons from %s, roughly $%.2f. Run batch invoicing to generate drafts.", billable, period, projected),
		"info",
		map[string]interface{}{
			"period_start":     prevStart.Format("2006-01-02"),
			"period_end":       prevEnd.Format("2006-01-02"),
			"billable_count":   billable,
			"projected_amount": projected,
		},
	)
	if err := notifsvc.NewService().EnqueueOrCreate(notif); err != nil {
		logrus.WithError(err).Warn("Billing reminder: failed to queue notification")
	}
}
