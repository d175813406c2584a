package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Lesson statuses
const (
	LessonStatusScheduled = "scheduled"
	LessonStatusCompleted = "completed"
	LessonStatusCancelled = "cancelled"
)

// Invoice statuses
const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusUnpaid  = "unpaid"
	InvoiceStatusPartial = "partial"
	InvoiceStatusOverdue = "overdue"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusVoid    = "void"
)

// Billing models
const (
	BillingPerLesson = "per_lesson"
	BillingMonthly   = "monthly"
	BillingPerCourse = "per_course"
)

// Student model
type Student struct {
	BaseModel
	Name              string   `json:"name" gorm:"size:200;not null"`
	Email             string   `json:"email" gorm:"size:255;index"`
	Phone             string   `json:"phone" gorm:"size:20"`
	IsMinor           bool     `json:"is_minor" gorm:"default:false"`
	ParentName        string   `json:"parent_name" gorm:"size:200"`
	ParentEmail       string   `json:"parent_email" gorm:"size:255"`
	ParentPhone       string   `json:"parent_phone" gorm:"size:20"`
	Instrument        string   `json:"instrument" gorm:"size:100"`
	DefaultLessonType string   `json:"default_lesson_type" gorm:"size:100"`
	CustomRate        *float64 `json:"custom_rate" gorm:"type:decimal(10,2)"`
	BillingModel      string   `json:"billing_model" gorm:"size:50;not null;default:'per_lesson';type:enum('per_lesson','monthly','per_course')"` // per_lesson, monthly, per_course
	MonthlyRate       *float64 `json:"monthly_rate" gorm:"type:decimal(10,2)"`
	Notes             string   `json:"notes" gorm:"type:text"`
	Active            bool     `json:"active" gorm:"default:true"`

	// Relationships
	Lessons  []Lesson  `json:"lessons,omitempty" gorm:"foreignKey:StudentID"`
	Invoices []Invoice `json:"invoices,omitempty" gorm:"foreignKey:StudentID"`
}

// LessonType model describes an offering in the studio catalog
type LessonType struct {
	BaseModel
	Name            string  `json:"name" gorm:"size:100;not null;uniqueIndex"`
	DurationMinutes int     `json:"duration_minutes" gorm:"not null;default:30"`
	Rate            float64 `json:"rate" gorm:"type:decimal(10,2);not null"`
	Active          bool    `json:"active" gorm:"default:true"`
}

// Lesson model. Date carries the calendar day at midnight UTC;
// StartTime is a zero-padded HH:MM wall-clock string.
type Lesson struct {
	BaseModel
	StudentID       uint       `json:"student_id" gorm:"not null;index"`
	Date            time.Time  `json:"date" gorm:"type:date;not null;index"`
	StartTime       string     `json:"start_time" gorm:"size:5;not null"`
	DurationMinutes int        `json:"duration_minutes" gorm:"not null;default:30"`
	LessonType      string     `json:"lesson_type" gorm:"size:100"`
	Rate            float64    `json:"rate" gorm:"type:decimal(10,2)"`
	Status          string     `json:"status" gorm:"size:50;not null;default:'scheduled';type:enum('scheduled','completed','cancelled')"` // scheduled, completed, cancelled
	Attendance      *string    `json:"attendance" gorm:"size:20;type:enum('present','absent')"`                                           // present, absent
	Notes           string     `json:"notes" gorm:"type:text"`
	CompletedAt     *time.Time `json:"completed_at"`
	BatchID         *string    `json:"batch_id" gorm:"size:36;index"`
	SessionNumber   int        `json:"session_number"`
	TotalSessions   int        `json:"total_sessions"`

	// Relationships
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// Invoice model. Never hard-deleted; voiding keeps the row for audit.
type Invoice struct {
	BaseModel
	InvoiceNumber string     `json:"invoice_number" gorm:"size:50;not null;uniqueIndex"`
	StudentID     uint       `json:"student_id" gorm:"not null;index"`
	Status        string     `json:"status" gorm:"size:50;not null;default:'unpaid';index;type:enum('draft','unpaid','partial','overdue','paid','void')"` // draft, unpaid, partial, overdue, paid, void
	CreatedDate   time.Time  `json:"created_date" gorm:"type:date;not null"`
	DueDate       time.Time  `json:"due_date" gorm:"type:date;not null;index"`
	Subtotal      float64    `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	Discount      float64    `json:"discount" gorm:"type:decimal(10,2);not null;default:0"`
	Tax           float64    `json:"tax" gorm:"type:decimal(10,2);not null;default:0"`
	Total         float64    `json:"total" gorm:"type:decimal(10,2);not null"`
	AmountPaid    float64    `json:"amount_paid" gorm:"type:decimal(10,2);not null;default:0"`
	Balance       float64    `json:"balance" gorm:"type:decimal(10,2);not null"`
	BillingModel  string     `json:"billing_model" gorm:"size:50;default:'per_lesson';type:enum('per_lesson','monthly','per_course')"`
	Notes         string     `json:"notes" gorm:"type:text"`
	BatchID       *string    `json:"batch_id" gorm:"size:36;index"`
	PeriodStart   *time.Time `json:"period_start" gorm:"type:date"`
	PeriodEnd     *time.Time `json:"period_end" gorm:"type:date"`

	// Relationships
	Student  Student       `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Items    []InvoiceItem `json:"items,omitempty" gorm:"foreignKey:InvoiceID"`
	Payments []Payment     `json:"payments,omitempty" gorm:"foreignKey:InvoiceID"`
}

// Credit reports the amount received beyond the invoice total.
// AmountPaid keeps the true sum of payments; Balance never goes negative.
func (i Invoice) Credit() float64 {
	if c := i.AmountPaid - i.Total; c > 0 {
		return c
	}
	return 0
}

// IsOpen reports whether the invoice can still receive payments.
func (i Invoice) IsOpen() bool {
	return i.Status != InvoiceStatusVoid
}

// InvoiceItem model
type InvoiceItem struct {
	BaseModel
	InvoiceID   uint    `json:"invoice_id" gorm:"not null;index"`
	Description string  `json:"description" gorm:"size:255;not null"`
	Quantity    float64 `json:"quantity" gorm:"type:decimal(10,2);not null;default:1"`
	Rate        float64 `json:"rate" gorm:"type:decimal(10,2);not null"`
	Amount      float64 `json:"amount" gorm:"type:decimal(10,2);not null"`
}

// Payment model. Rows are immutable once recorded; corrections go
// through voiding the invoice and reissuing it.
type Payment struct {
	BaseModel
	InvoiceID     uint      `json:"invoice_id" gorm:"not null;index"`
	StudentID     uint      `json:"student_id" gorm:"not null;index"`
	Amount        float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	Method        string    `json:"method" gorm:"size:50;not null;type:enum('cash','check','venmo','zelle','card','other')"` // cash, check, venmo, zelle, card, other
	Date          time.Time `json:"date" gorm:"type:date;not null"`
	Notes         string    `json:"notes" gorm:"size:500"`
	Source        string    `json:"source" gorm:"size:50;not null;default:'manual';type:enum('manual','import')"` // manual, import
	ImportBatchID *string   `json:"import_batch_id" gorm:"size:36;index"`
	RowUID        *string   `json:"row_uid" gorm:"size:191;uniqueIndex"`

	// Relationships
	Invoice Invoice `json:"invoice,omitempty" gorm:"foreignKey:InvoiceID"`
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// BillingSettings model, a single row created on first access
type BillingSettings struct {
	BaseModel
	DefaultBillingModel     string `json:"default_billing_model" gorm:"size:50;not null;default:'per_lesson';type:enum('per_lesson','monthly','per_course')"`
	InvoicePrefix           string `json:"invoice_prefix" gorm:"size:10;not null;default:'INV'"`
	NextInvoiceNumber       int    `json:"next_invoice_number" gorm:"not null;default:1"`
	DefaultPaymentTermsDays int    `json:"default_payment_terms_days" gorm:"not null;default:14"`
	AcceptedMethods         JSON   `json:"accepted_methods" gorm:"type:json"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`
}

// Notification model. The studio has a single operator, so
// notifications are global rather than per-user.
type Notification struct {
	BaseModel
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Data    JSON       `json:"data" gorm:"type:json"`
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
