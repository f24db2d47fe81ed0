package validator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateRequest validates struct tags and returns an ErrValidation-marked error
// listing the offending fields
func ValidateRequest(req interface{}) error {
	err := GetValidator().Struct(req)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ierr.WithError(err).
			WithHint("Données invalides").
			Mark(ierr.ErrValidation)
	}

	details := make(map[string]any, len(validationErrors))
	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details[fe.Field()] = fmt.Sprintf("failed on '%s'", fe.Tag())
		fields = append(fields, fe.Field())
	}

	return ierr.NewErrorf("validation failed for %s", strings.Join(fields, ", ")).
		WithHint("Champs obligatoires manquants ou invalides : " + strings.Join(fields, ", ")).
		WithReportableDetails(details).
		Mark(ierr.ErrValidation)
}
