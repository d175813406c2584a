package utils

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"melodica_go/models"
)

var validate = newValidator()

var timeHHMM = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func newValidator() *validator.Validate {
	v := validator.New()
	// 24-hour HH:MM wall-clock strings
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timeHHMM.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("billing_model", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case models.BillingPerLesson, models.BillingMonthly, models.BillingPerCourse:
			return true
		}
		return false
	})
	return v
}

// ValidateStruct runs the shared validator over a request payload and
// returns a human-readable message, or "" when the payload is valid.
func ValidateStruct(s interface{}) string {
	err := validate.Struct(s)
	if err == nil {
		return ""
	}
	return TranslateValidationError(err)
}

func TranslateValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		var messages []string
		for _, fe := range ve {
			field := fe.Field()
			switch fe.Tag() {
			case "required":
				messages = append(messages, field+" is required")
			case "email":
				messages = append(messages, "invalid email format")
			case "min":
				messages = append(messages, field+" must be at least "+fe.Param())
			case "max":
				messages = append(messages, field+" must be at most "+fe.Param())
			case "gt":
				messages = append(messages, field+" must be greater than "+fe.Param())
			case "gte":
				messages = append(messages, field+" must be at least "+fe.Param())
			case "oneof":
				messages = append(messages, field+" must be one of "+fe.Param())
			case "hhmm":
				messages = append(messages, field+" must be a HH:MM time")
			case "billing_model":
				messages = append(messages, field+" must be per_lesson, monthly or per_course")
			default:
				messages = append(messages, field+" is invalid")
			}
		}
		return strings.Join(messages, ", ")
	}
	return err.Error()
}
