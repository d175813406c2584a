package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"melodica_go/database"
	"melodica_go/models"

	"gorm.io/gorm"
)

var (
	allowedBillingModels = map[string]struct{}{
		models.BillingPerLesson: {},
		models.BillingMonthly:   {},
		models.BillingPerCourse: {},
	}

	allowedPaymentMethods = map[string]struct{}{
		"cash":  {},
		"check": {},
		"venmo": {},
		"zelle": {},
		"card":  {},
		"other": {},
	}

	defaultAcceptedMethods = []string{"cash", "check", "venmo", "zelle", "card"}

	// ErrSettingsValidation indicates a user-facing validation error while updating settings
	ErrSettingsValidation = errors.New("settings validation error")
)

// BillingSettingsService manages the studio-wide billing settings record
type BillingSettingsService struct{}

// UpdateBillingSettingsInput describes the fields that can be updated on billing settings
type UpdateBillingSettingsInput struct {
	DefaultBillingModel     *string  `json:"default_billing_model"`
	InvoicePrefix           *string  `json:"invoice_prefix"`
	NextInvoiceNumber       *int     `json:"next_invoice_number"`
	DefaultPaymentTermsDays *int     `json:"default_payment_terms_days"`
	AcceptedMethods         []string `json:"accepted_methods"`
}

// BillingSettingsDTO is a structured representation of billing settings for API responses
type BillingSettingsDTO struct {
	DefaultBillingModel     string   `json:"default_billing_model"`
	InvoicePrefix           string   `json:"invoice_prefix"`
	NextInvoiceNumber       int      `json:"next_invoice_number"`
	DefaultPaymentTermsDays int      `json:"default_payment_terms_days"`
	AcceptedMethods         []string `json:"accepted_methods"`
}

// BillingSettingsResponse bundles settings alongside the allowed option lists for clients
type BillingSettingsResponse struct {
	Settings         BillingSettingsDTO `json:"settings"`
	BillingModels    []string           `json:"billing_models"`
	AvailableMethods []string           `json:"available_methods"`
}

// NewBillingSettingsService creates a new service instance
func NewBillingSettingsService() *BillingSettingsService {
	return &BillingSettingsService{}
}

func defaultBillingSettings() models.BillingSettings {
	methods, _ := json.Marshal(defaultAcceptedMethods)
	return models.BillingSettings{
		DefaultBillingModel:     models.BillingPerLesson,
		InvoicePrefix:           "INV",
		NextInvoiceNumber:       1,
		DefaultPaymentTermsDays: 14,
		AcceptedMethods:         models.JSON(methods),
	}
}

// GetOrCreate fetches the billing settings row, creating defaults if necessary.
// The studio runs on a single settings record.
func (s *BillingSettingsService) GetOrCreate() (*models.BillingSettings, error) {
	settings := &models.BillingSettings{}
	if err := database.DB.Order("id ASC").First(settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := defaultBillingSettings()
			if createErr := database.DB.Create(&defaults).Error; createErr != nil {
				return nil, createErr
			}
			return &defaults, nil
		}

		// Detect MySQL "table doesn't exist" error (1146), which happens when
		// automatic migrations were skipped; create the table then the defaults.
		if strings.Contains(err.Error(), "1146") || strings.Contains(strings.ToLower(err.Error()), "doesn't exist") {
			if migrateErr := database.DB.AutoMigrate(&models.BillingSettings{}); migrateErr != nil {
				return nil, migrateErr
			}
			defaults := defaultBillingSettings()
			if createErr := database.DB.Create(&defaults).Error; createErr != nil {
				return nil, createErr
			}
			return &defaults, nil
		}

		return nil, err
	}
	return settings, nil
}

// Update applies the requested changes to billing settings, enforcing validation rules
func (s *BillingSettingsService) Update(input UpdateBillingSettingsInput) (*models.BillingSettings, error) {
	settings, err := s.GetOrCreate()
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}

	if err := applyBillingModelUpdate(updates, input.DefaultBillingModel); err != nil {
		return nil, err
	}

	if err := applyInvoicePrefixUpdate(updates, input.InvoicePrefix); err != nil {
		return nil, err
	}

	if input.NextInvoiceNumber != nil {
		next := *input.NextInvoiceNumber
		if next < 1 {
			return nil, settingsValidationError("next_invoice_number must be at least 1")
		}
		// Lowering the counter would reissue numbers already assigned to invoices
		if next < settings.NextInvoiceNumber {
			return nil, settingsValidationError(fmt.Sprintf("next_invoice_number cannot be lowered below the current value %d", settings.NextInvoiceNumber))
		}
		updates["next_invoice_number"] = next
	}

	if input.DefaultPaymentTermsDays != nil {
		days := *input.DefaultPaymentTermsDays
		if days < 0 || days > 365 {
			return nil, settingsValidationError("default_payment_terms_days must be between 0 and 365")
		}
		updates["default_payment_terms_days"] = days
	}

	if input.AcceptedMethods != nil {
		methods, err := normalizeAcceptedMethods(input.AcceptedMethods)
		if err != nil {
			return nil, err
		}
		buffer, err := json.Marshal(methods)
		if err != nil {
			return nil, fmt.Errorf("failed to encode accepted_methods: %w", err)
		}
		updates["accepted_methods"] = models.JSON(buffer)
	}

	if len(updates) == 0 {
		return settings, nil
	}

	if err := database.DB.Model(settings).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := database.DB.First(settings, settings.ID).Error; err != nil {
		return nil, err
	}

	return settings, nil
}

func applyBillingModelUpdate(updates map[string]interface{}, value *string) error {
	if value == nil {
		return nil
	}

	model := strings.ToLower(strings.TrimSpace(*value))
	if model == "" {
		return settingsValidationError("default_billing_model cannot be empty")
	}
	if _, ok := allowedBillingModels[model]; !ok {
		return settingsValidationError(fmt.Sprintf("unsupported billing model '%s'", model))
	}
	updates["default_billing_model"] = model
	return nil
}

func applyInvoicePrefixUpdate(updates map[string]interface{}, value *string) error {
	if value == nil {
		return nil
	}

	prefix := strings.ToUpper(strings.TrimSpace(*value))
	if prefix == "" {
		return settingsValidationError("invoice_prefix cannot be empty")
	}
	if len(prefix) > 10 {
		return settingsValidationError("invoice_prefix must be 10 characters or fewer")
	}
	updates["invoice_prefix"] = prefix
	return nil
}

func normalizeAcceptedMethods(methods []string) ([]string, error) {
	if len(methods) == 0 {
		return nil, settingsValidationError("accepted_methods cannot be empty")
	}

	seen := map[string]struct{}{}
	normalized := make([]string, 0, len(methods))
	for _, m := range methods {
		method := strings.ToLower(strings.TrimSpace(m))
		if method == "" {
			continue
		}
		if _, ok := allowedPaymentMethods[method]; !ok {
			return nil, settingsValidationError(fmt.Sprintf("unsupported payment method '%s'", method))
		}
		if _, dup := seen[method]; dup {
			continue
		}
		seen[method] = struct{}{}
		normalized = append(normalized, method)
	}

	if len(normalized) == 0 {
		return nil, settingsValidationError("accepted_methods cannot be empty")
	}
	return normalized, nil
}

func decodeAcceptedMethods(data models.JSON) []string {
	if data.IsNull() {
		return append([]string(nil), defaultAcceptedMethods...)
	}
	var methods []string
	if err := json.Unmarshal(data, &methods); err != nil || len(methods) == 0 {
		return append([]string(nil), defaultAcceptedMethods...)
	}
	return methods
}

func allowedMethodList() []string {
	return []string{"cash", "check", "venmo", "zelle", "card", "other"}
}

// BuildBillingSettingsResponse converts a settings record into the API response shape
func (s *BillingSettingsService) BuildBillingSettingsResponse(settings *models.BillingSettings) BillingSettingsResponse {
	if settings == nil {
		defaults := defaultBillingSettings()
		settings = &defaults
	}

	dto := BillingSettingsDTO{
		DefaultBillingModel:     settings.DefaultBillingModel,
		InvoicePrefix:           settings.InvoicePrefix,
		NextInvoiceNumber:       settings.NextInvoiceNumber,
		DefaultPaymentTermsDays: settings.DefaultPaymentTermsDays,
		AcceptedMethods:         decodeAcceptedMethods(settings.AcceptedMethods),
	}

	return BillingSettingsResponse{
		Settings:         dto,
		BillingModels:    []string{models.BillingPerLesson, models.BillingMonthly, models.BillingPerCourse},
		AvailableMethods: allowedMethodList(),
	}
}

func settingsValidationError(message string) error {
	return fmt.Errorf("%w: %s", ErrSettingsValidation, message)
}
