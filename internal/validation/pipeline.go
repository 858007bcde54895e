package validation

import (
	"postboard/internal/models"
)

// Field binds an input to the rules it must satisfy.
type Field struct {
	Input Input
	Rules []Rule
	// Sometimes skips every rule when the input is absent.
	Sometimes bool
	// Nullable skips every rule when the input is absent or empty.
	Nullable bool
}

// Validate runs each field's rules in order and collects the failures.
// A failed "required" rule stops the remaining rules for that field.
func Validate(fields ...Field) ([]models.FieldError, error) {
	var failures []models.FieldError
	for _, f := range fields {
		in := f.Input
		if f.Sometimes && !in.Present && in.File == nil {
			continue
		}
		if f.Nullable && !filled(in) {
			continue
		}
		for _, rule := range f.Rules {
			msg, err := rule.Check(in)
			if err != nil {
				return nil, err
			}
			if msg == "" {
				continue
			}
			failures = append(failures, models.FieldError{Field: in.Field, Message: msg})
			if rule.Name == "required" {
				break
			}
		}
	}
	return failures, nil
}

// Check runs Validate and wraps any failures in a validation AppError.
func Check(fields ...Field) error {
	failures, err := Validate(fields...)
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		return models.NewFieldValidationError(failures)
	}
	return nil
}
