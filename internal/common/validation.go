package common

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Validator collects field errors so a request reports all of them at once.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
			break
		}
	}
	return v
}

// Check records msg against field when ok is false.
func (v *Validator) Check(ok bool, fieldName, msg string) *Validator {
	if !ok {
		v.errors = append(v.errors, ValidationError{Field: fieldName, Message: msg})
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}
	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Err returns nil or an AppError wrapping ErrValidation.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError("VALIDATION_FAILED", v.ErrorMessage(), ErrValidation)
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}

// Required rejects nil, empty and whitespace-only strings.
func Required(fieldName string, value interface{}) *ValidationError {
	missing := &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	switch v := value.(type) {
	case nil:
		return missing
	case string:
		if strings.TrimSpace(v) == "" {
			return missing
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return missing
		}
	}
	return nil
}

func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := stringValue(value)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

// IntRange accepts int or *int; nil pointers pass.
func IntRange(min, max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		var n int
		switch v := value.(type) {
		case int:
			n = v
		case *int:
			if v == nil {
				return nil
			}
			n = *v
		default:
			return &ValidationError{Field: fieldName, Value: value, Message: "must be an integer"}
		}
		if n < min || n > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be between %d and %d", min, max),
			}
		}
		return nil
	}
}

func UUID(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if _, err := uuid.Parse(str); err != nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a valid UUID"}
	}
	return nil
}
