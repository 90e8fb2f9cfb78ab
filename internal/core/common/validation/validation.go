package validation

import (
	"fmt"
	"strconv"
	"strings"

	errors "github.com/frahmantamala/appraisal-portal/internal"
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

// ValidationBuilder collects field rules and reports every failure at once.
type ValidationBuilder struct {
	fields []FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{fields: make([]FieldValidator, 0)}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	v.fields = append(v.fields, FieldValidator{FieldName: name, Value: value})
	return &v.fields[len(v.fields)-1]
}

func (fv *FieldValidator) add(fn ValidatorFunc) *FieldValidator {
	fv.Validators = append(fv.Validators, fn)
	return fv
}

func (fv *FieldValidator) Required() *FieldValidator {
	name := fv.FieldName
	return fv.add(func(value interface{}) *errors.AppError {
		missing := false
		switch v := value.(type) {
		case string:
			missing = strings.TrimSpace(v) == ""
		case int64:
			missing = v == 0
		case int:
			missing = v == 0
		}
		if missing {
			return errors.NewValidationFieldError(name, fmt.Sprintf("%s is required", name), errors.ErrCodeValidationFailed)
		}
		return nil
	})
}

func (fv *FieldValidator) Between(min, max int64, code errors.ErrorCode) *FieldValidator {
	name := fv.FieldName
	return fv.add(func(value interface{}) *errors.AppError {
		var n int64
		switch v := value.(type) {
		case int64:
			n = v
		case int:
			n = int64(v)
		default:
			return nil
		}
		if n < min || n > max {
			return errors.NewValidationFieldError(name, fmt.Sprintf("%s must be between %d and %d", name, min, max), code)
		}
		return nil
	})
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	name := fv.FieldName
	return fv.add(func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && len(v) > max {
			return errors.NewValidationFieldError(name, fmt.Sprintf("%s must not exceed %d characters", name, max), errors.ErrCodeValidationFailed)
		}
		return nil
	})
}

// Year accepts a four digit calendar year given as text.
func (fv *FieldValidator) Year() *FieldValidator {
	name := fv.FieldName
	return fv.add(func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok || v == "" {
			return nil
		}
		y, err := strconv.Atoi(v)
		if err != nil || y < 1000 || y > 9999 {
			return errors.NewValidationFieldError(name, fmt.Sprintf("%s must be a four digit year", name), errors.ErrCodeInvalidYear)
		}
		return nil
	})
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	return fv.add(validator)
}

// Validate runs every rule. Only the first failure of a field is reported.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var failures []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			err := validator(field.Value)
			if err == nil {
				continue
			}
			if details, ok := err.Details.(errors.ValidationErrors); ok {
				failures = append(failures, details.Errors...)
			} else {
				failures = append(failures, errors.ValidationError{
					Field:   field.FieldName,
					Message: err.Message,
					Code:    string(err.Code),
				})
			}
			break
		}
	}

	if len(failures) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: failures})
	}
	return nil
}

func ValidateRating(field string, rating int, min, max int) *errors.AppError {
	validator := NewValidator()
	validator.Field(field, rating).Between(int64(min), int64(max), errors.ErrCodeInvalidRating)
	return validator.Validate()
}

func ValidateComment(field, comment string) *errors.AppError {
	validator := NewValidator()
	validator.Field(field, comment).MaxLength(2000)
	return validator.Validate()
}
