package controllers

import (
	"errors"

	"melodica_go/middleware"
	"melodica_go/services"

	"github.com/gofiber/fiber/v2"
)

type BillingSettingsController struct {
	service *services.BillingSettingsService
}

type updateBillingSettingsRequest struct {
	DefaultBillingModel     *string  `json:"default_billing_model"`
	InvoicePrefix           *string  `json:"invoice_prefix"`
	NextInvoiceNumber       *int     `json:"next_invoice_number"`
	DefaultPaymentTermsDays *int     `json:"default_payment_terms_days"`
	AcceptedMethods         []string `json:"accepted_methods"`
}

func NewBillingSettingsController() *BillingSettingsController {
	return &BillingSettingsController{service: services.NewBillingSettingsService()}
}

// GetBillingSettings returns the studio's billing configuration, creating
// the row with defaults on first access
func (bc *BillingSettingsController) GetBillingSettings(c *fiber.Ctx) error {
	settings, err := bc.service.GetOrCreate()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load billing settings"})
	}

	response := bc.service.BuildBillingSettingsResponse(settings)
	return c.JSON(response)
}

// UpdateBillingSettings applies partial updates to the billing configuration
func (bc *BillingSettingsController) UpdateBillingSettings(c *fiber.Ctx) error {
	var req updateBillingSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	input := services.UpdateBillingSettingsInput{
		DefaultBillingModel:     req.DefaultBillingModel,
		InvoicePrefix:           req.InvoicePrefix,
		NextInvoiceNumber:       req.NextInvoiceNumber,
		DefaultPaymentTermsDays: req.DefaultPaymentTermsDays,
		AcceptedMethods:         req.AcceptedMethods,
	}

	settings, err := bc.service.Update(input)
	if err != nil {
		return handleBillingSettingsError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "billing_settings", settings.ID, req)

	response := bc.service.BuildBillingSettingsResponse(settings)
	return c.JSON(fiber.Map{
		"message":  "Billing settings updated successfully",
		"settings": response.Settings,
	})
}

func handleBillingSettingsError(c *fiber.Ctx, err error) error {
	if err == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unknown settings error"})
	}

	if errors.Is(err, services.ErrSettingsValidation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update billing settings"})
}
