package controllers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"melodica_go/config"
	"melodica_go/database"
	"melodica_go/middleware"
	"melodica_go/models"
	"melodica_go/services/billing"
	notifsvc "melodica_go/services/notifications"
	"melodica_go/storage"
	"melodica_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentsImportController ingests bank or ledger exports of received
// payments and applies them to invoices
type PaymentsImportController struct{}

// POST /api/payments/import
// Multipart form with file field: file. Expected columns: Invoice Number,
// Amount, Date, and optionally Method and Notes. Rows are deduplicated by a
// deterministic row uid so re-uploading the same export is safe.
func (pic *PaymentsImportController) Import(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	allowed := strings.Split(config.AppConfig.AllowedExtensions, ",")
	if !utils.IsValidFileExtension(fh.Filename, allowed) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("unsupported file type (%s)", config.AppConfig.AllowedExtensions),
		})
	}

	// Read rows
	var rows [][]string
	filename := strings.ToLower(fh.Filename)
	if strings.HasSuffix(filename, ".csv") {
		f, err := fh.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot open file"})
		}
		defer f.Close()
		rows, err = readCSVRows(f)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	} else if strings.HasSuffix(filename, ".xlsx") || strings.HasSuffix(filename, ".xls") {
		// buffer to temp path for excelize
		tmpDir, _ := os.MkdirTemp("", "melodica-payments-")
		tmp := filepath.Join(tmpDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeImportFilename(fh.Filename)))
		if err := c.SaveFile(fh, tmp); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to buffer upload"})
		}
		var rerr error
		rows, rerr = readXLSXRows(tmp)
		_ = os.Remove(tmp)
		if rerr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": rerr.Error()})
		}
	} else {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported file type (csv,xlsx,xls)"})
	}

	if len(rows) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is empty"})
	}

	// Header mapping
	header := rows[0]
	col := mapImportHeader(header)
	for _, required := range []string{"Invoice Number", "Amount", "Date"} {
		if _, ok := col[required]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("missing column: %s", required),
			})
		}
	}

	// Keep the original export so a disputed payment can be traced back
	archiveKey := ""
	if svc, serr := storage.NewStorageService(); serr == nil {
		if key, uerr := svc.UploadFile(fh, "payment-imports"); uerr == nil {
			archiveKey = key
		} else {
			logrus.WithError(uerr).Warn("Failed to archive payment import file")
		}
	} else {
		logrus.WithError(serr).Warn("Storage unavailable, payment import file not archived")
	}

	importBatchID := uuid.New().String()

	inserted := 0
	skipped := 0
	duplicates := 0
	paidInFull := 0
	totalApplied := 0.0
	errorsList := []string{}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		for i := 1; i < len(rows); i++ {
			r := rows[i]
			get := func(key string) string {
				if idx, ok := col[key]; ok && idx < len(r) {
					return strings.TrimSpace(r[idx])
				}
				return ""
			}

			invoiceNo := get("Invoice Number")
			amountStr := cleanNumber(get("Amount"))
			dateStr := get("Date")
			method := normalizeImportMethod(get("Method"))
			notes := get("Notes")

			// Blank filler rows are common at the end of exports
			if invoiceNo == "" && amountStr == "" && dateStr == "" {
				skipped++
				continue
			}

			// Deterministic row uid so the same export line never applies twice
			rowUID := strings.Join([]string{invoiceNo, dateStr, amountStr, method}, "|")

			var existing models.Payment
			if err := tx.Where("row_uid = ?", rowUID).First(&existing).Error; err == nil {
				duplicates++
				skipped++
				continue
			}

			if invoiceNo == "" {
				errorsList = append(errorsList, fmt.Sprintf("row %d: missing invoice number", i+1))
				skipped++
				continue
			}
			amount := parseImportFloat(amountStr)
			if amount == nil || *amount <= 0 {
				errorsList = append(errorsList, fmt.Sprintf("row %d: invalid amount %q", i+1, get("Amount")))
				skipped++
				continue
			}
			date := parseImportDate(dateStr)
			if date == nil {
				errorsList = append(errorsList, fmt.Sprintf("row %d: invalid date %q", i+1, dateStr))
				skipped++
				continue
			}

			// Re-read under a row lock inside the loop so earlier rows and
			// concurrent manual payments against the same invoice are
			// reflected
			var invoice models.Invoice
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("invoice_number = ?", invoiceNo).First(&invoice).Error; err != nil {
				errorsList = append(errorsList, fmt.Sprintf("row %d: invoice %q not found", i+1, invoiceNo))
				skipped++
				continue
			}

			result, rerr := billing.RecordPayment([]models.Invoice{invoice}, billing.PaymentInput{
				InvoiceID:     invoice.ID,
				Amount:        *amount,
				Method:        method,
				Date:          *date,
				Notes:         notes,
				Source:        "import",
				ImportBatchID: &importBatchID,
				RowUID:        &rowUID,
			})
			if rerr != nil {
				errorsList = append(errorsList, fmt.Sprintf("row %d: %v", i+1, rerr))
				skipped++
				continue
			}

			// Same overdue re-check as the manual payment path
			updated := result.Invoice
			if refreshed, _ := billing.CheckOverdue([]models.Invoice{updated}, time.Now()); len(refreshed) == 1 {
				updated = refreshed[0]
			}

			payment := result.Payment
			if err := tx.Create(&payment).Error; err != nil {
				errorsList = append(errorsList, fmt.Sprintf("row %d: %v", i+1, err))
				skipped++
				continue
			}
			if err := tx.Model(&models.Invoice{}).
				Where("id = ?", invoice.ID).
				Updates(map[string]interface{}{
					"amount_paid": updated.AmountPaid,
					"balance":     updated.Balance,
					"status":      updated.Status,
				}).Error; err != nil {
				return err
			}

			inserted++
			totalApplied += payment.Amount
			if updated.Status == models.InvoiceStatusPaid {
				paidInFull++
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	middleware.LogActivity(c, "CREATE", "payments", 0, fiber.Map{
		"action":          "import",
		"import_batch_id": importBatchID,
		"file_name":       fh.Filename,
		"inserted":        inserted,
		"duplicates":      duplicates,
		"errors":          len(errorsList),
	})

	if inserted > 0 || len(errorsList) > 0 {
		typ := "success"
		if len(errorsList) > 0 {
			typ = "warning"
		}
		notif := notifsvc.QueuedWithData(
			"Payment import finished",
			fmt.Sprintf("%d payment(s) applied totaling $%.2f, %d duplicate(s), %d error(s)",
				inserted, totalApplied, duplicates, len(errorsList)),
			typ,
			map[string]interface{}{
				"import_batch_id": importBatchID,
				"paid_in_full":    paidInFull,
			},
		)
		if err := notifsvc.NewService().EnqueueOrCreate(notif); err != nil {
			logrus.WithError(err).Warn("Failed to queue import notification")
		}
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"file_name":       fh.Filename,
		"import_batch_id": importBatchID,
		"archive_key":     archiveKey,
		"data_rows":       len(rows) - 1,
		"inserted":        inserted,
		"skipped":         skipped,
		"duplicates":      duplicates,
		"paid_in_full":    paidInFull,
		"total_applied":   totalApplied,
		"errors_count":    len(errorsList),
		"errors":          errorsList,
	})
}

// DownloadArchive streams a previously archived import file back from S3.
// The key is the archive_key returned by the import endpoint.
func (pic *PaymentsImportController) DownloadArchive(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || !strings.HasPrefix(key, "payment-imports/") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "key must reference a payment-imports object",
		})
	}

	svc, err := storage.NewStorageService()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "File storage is not configured",
		})
	}

	body, err := svc.DownloadFile(key)
	if err != nil {
		logrus.WithError(err).Error("Failed to download import archive")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Archive not found or unavailable",
		})
	}

	fileName := filepath.Base(key)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		c.Set("Content-Type", "text/csv")
	case ".xlsx", ".xls":
		c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	default:
		c.Set("Content-Type", "application/octet-stream")
	}
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))
	return c.SendStream(body)
}

// DeleteArchive removes an archived import file from S3
func (pic *PaymentsImportController) DeleteArchive(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || !strings.HasPrefix(key, "payment-imports/") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "key must reference a payment-imports object",
		})
	}

	svc, err := storage.NewStorageService()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "File storage is not configured",
		})
	}

	if err := svc.DeleteFile(key); err != nil {
		logrus.WithError(err).Error("Failed to delete import archive")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete archive",
		})
	}

	middleware.LogActivity(c, "DELETE", "payment-import-archives", 0, fiber.Map{
		"key": key,
	})

	return c.JSON(fiber.Map{
		"message": "Archive deleted successfully",
	})
}

// Helpers (localized to this controller to avoid cross-file imports)

func readCSVRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sht := f.GetSheetName(0)
	if sht == "" {
		sht = "Sheet1"
	}
	data, err := f.GetRows(sht)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func mapImportHeader(header []string) map[string]int {
	m := map[string]int{}
	for i, h := range header {
		key := strings.TrimSpace(h)
		m[key] = i
	}
	return m
}

func parseImportDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	layouts := []string{"2006-01-02", "1/2/2006", "01/02/2006", "02/01/2006", time.RFC3339}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return &t
		}
	}
	// Try 1/2/06
	if t, err := time.Parse("1/2/06", s); err == nil {
		return &t
	}
	return nil
}

func parseImportFloat(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return &v
	}
	return nil
}

// cleanNumber strips currency symbols and commas so "$1,250.00" parses
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"")
	s = strings.TrimPrefix(s, "$")
	return strings.ReplaceAll(s, ",", "")
}

// normalizeImportMethod maps free-form ledger labels onto the accepted
// payment methods
func normalizeImportMethod(s string) string {
	chk := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(chk, "venmo"):
		return "venmo"
	case strings.Contains(chk, "zelle"):
		return "zelle"
	case strings.Contains(chk, "check") || strings.Contains(chk, "cheque"):
		return "check"
	case strings.Contains(chk, "cash"):
		return "cash"
	case strings.Contains(chk, "card") || strings.Contains(chk, "credit") || strings.Contains(chk, "debit"):
		return "card"
	default:
		return "other"
	}
}

func sanitizeImportFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "..", "_")
	return name
}
