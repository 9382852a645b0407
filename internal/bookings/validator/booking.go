package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"bookit/pkg/config"
	"bookit/pkg/logger"
	"bookit/pkg/model"
	"bookit/pkg/sanitizer"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Fields returns field -> message for error response details.
func (v ValidationErrors) Fields() map[string]any {
	fields := make(map[string]any, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return fields
}

type BookingValidator struct {
	validate *validator.Validate
	cfg      *config.Config
	logger   *logger.Logger
}

func NewBookingValidator(cfg *config.Config, log *logger.Logger) *BookingValidator {
	v := validator.New()

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		cfg:      cfg,
		logger:   log,
	}
}

// ValidateRequest sanitizes contact fields in place, then validates the
// request. It has no side effects beyond mutating req and never touches
// storage, so a rejected request leaves no trace.
func (v *BookingValidator) ValidateRequest(req *model.BookingRequest) error {
	req.UserName = sanitizer.NormalizeName(req.UserName)
	req.UserEmail = sanitizer.NormalizeEmail(req.UserEmail)
	req.UserPhone = sanitizer.NormalizePhone(req.UserPhone)
	req.PromoCode = sanitizer.NormalizePromoCode(req.PromoCode)

	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if req.NumberOfSlots > v.cfg.MaxSlotsPerBooking {
		return ValidationErrors{
			ValidationError{
				Field:   "NumberOfSlots",
				Message: fmt.Sprintf("number_of_slots (%d) exceeds the per-booking maximum (%d)", req.NumberOfSlots, v.cfg.MaxSlotsPerBooking),
			},
		}
	}

	if model.DayStart(req.SelectedDate).Before(model.DayStart(time.Now().UTC())) {
		return ValidationErrors{
			ValidationError{
				Field:   "SelectedDate",
				Message: "selected_date cannot be in the past",
			},
		}
	}

	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155551234)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
