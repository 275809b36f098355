package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"scanner-registry/internal/apperror"
	"scanner-registry/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with the domain tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("office_type", func(fl validator.FieldLevel) bool {
			return IsOfficeType(models.OfficeType(fl.Field().String()))
		})
		_ = v.RegisterValidation("scanner_status", func(fl validator.FieldLevel) bool {
			return IsScannerStatus(models.ScannerStatus(fl.Field().String()))
		})
		instance = v
	})
	return instance
}

// Struct validates s and reports the first failure as a ValidationError.
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return apperror.Validation(fe.Field(), message(fe.Field(), fe))
}

// Field validates a single value against tag and reports it under name.
func Field(name string, value interface{}, tag string) error {
	err := Validator().Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return apperror.Validation(name, message(name, verrs[0]))
}

func message(name string, fe validator.FieldError) string {
	field := strings.ReplaceAll(name, "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
	case "office_type":
		return fmt.Sprintf("The %s must be one of: %s.", field, joinOfficeTypes())
	case "scanner_status":
		return fmt.Sprintf("The %s must be one of: %s.", field, joinStatuses())
	}
	return fmt.Sprintf("The %s field is invalid.", field)
}

func IsOfficeType(t models.OfficeType) bool {
	for _, v := range models.OfficeTypes {
		if v == t {
			return true
		}
	}
	return false
}

func IsScannerStatus(s models.ScannerStatus) bool {
	for _, v := range models.ScannerStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// NormalizeOfficeType maps the legacy lower-case spellings onto the enum.
func NormalizeOfficeType(raw string) models.OfficeType {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "branch":
		return models.OfficeTypeBranch
	case "ho", "head office", "head_office":
		return models.OfficeTypeHeadOffice
	case "logistic", "logistics":
		return models.OfficeTypeLogistic
	}
	return models.OfficeType(v)
}

// NormalizeStatus accepts the historical "Deffective" spelling and any casing.
func NormalizeStatus(raw string) models.ScannerStatus {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "active":
		return models.ScannerStatusActive
	case "defective", "deffective":
		return models.ScannerStatusDefective
	case "for repair":
		return models.ScannerStatusForRepair
	}
	return models.ScannerStatus(v)
}

func joinOfficeTypes() string {
	parts := make([]string, 0, len(models.OfficeTypes))
	for _, v := range models.OfficeTypes {
		parts = append(parts, string(v))
	}
	return strings.Join(parts, ", ")
}

func joinStatuses() string {
	parts := make([]string, 0, len(models.ScannerStatuses))
	for _, v := range models.ScannerStatuses {
		parts = append(parts, string(v))
	}
	return strings.Join(parts, ", ")
}
