// Package validation checks request input against named per-field rules.
package validation

import (
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// File describes an uploaded file as seen by the image rules.
type File struct {
	Filename string
	Size     int64
	// Head holds the leading bytes of the content, enough for type sniffing.
	Head []byte
}

// Input is one field of a request.
type Input struct {
	Field   string
	Present bool
	Value   string
	File    *File
}

// Rule checks one input. It returns a non-empty message on failure, and an
// error only when the check itself could not run.
type Rule struct {
	Name  string
	Check func(in Input) (string, error)
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func filled(in Input) bool {
	if in.File != nil {
		return in.File.Size > 0
	}
	return in.Present && strings.TrimSpace(in.Value) != ""
}

// Required fails when the field is absent or blank.
func Required() Rule {
	return Rule{Name: "required", Check: func(in Input) (string, error) {
		if filled(in) {
			return "", nil
		}
		return fmt.Sprintf("The %s field is required.", label(in.Field)), nil
	}}
}

// MinLen fails when the value has fewer than n characters.
func MinLen(n int) Rule {
	return Rule{Name: "min", Check: func(in Input) (string, error) {
		if utf8.RuneCountInString(in.Value) >= n {
			return "", nil
		}
		return fmt.Sprintf("The %s field must be at least %d characters.", label(in.Field), n), nil
	}}
}

// MaxLen fails when the value has more than n characters.
func MaxLen(n int) Rule {
	return Rule{Name: "max", Check: func(in Input) (string, error) {
		if utf8.RuneCountInString(in.Value) <= n {
			return "", nil
		}
		return fmt.Sprintf("The %s field must not be greater than %d characters.", label(in.Field), n), nil
	}}
}

// Email fails when the value is not a well-formed address.
func Email() Rule {
	return Rule{Name: "email", Check: func(in Input) (string, error) {
		if err := validate.Var(in.Value, "required,email"); err == nil {
			return "", nil
		}
		return fmt.Sprintf("The %s field must be a valid email address.", label(in.Field)), nil
	}}
}

// Unique fails when taken reports the value is already in use.
func Unique(taken func(value string) (bool, error)) Rule {
	return Rule{Name: "unique", Check: func(in Input) (string, error) {
		exists, err := taken(in.Value)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", nil
		}
		return fmt.Sprintf("The %s has already been taken.", label(in.Field)), nil
	}}
}

var imageContentTypes = []string{"image/jpeg", "image/png", "image/gif"}

// Image fails when the file content is not a jpeg, png or gif image.
func Image() Rule {
	return Rule{Name: "image", Check: func(in Input) (string, error) {
		if in.File != nil && slices.Contains(imageContentTypes, http.DetectContentType(in.File.Head)) {
			return "", nil
		}
		return fmt.Sprintf("The %s field must be an image.", label(in.Field)), nil
	}}
}

// Mimes fails when the file extension is not one of exts.
func Mimes(exts ...string) Rule {
	return Rule{Name: "mimes", Check: func(in Input) (string, error) {
		if in.File != nil {
			ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(in.File.Filename)), ".")
			if slices.Contains(exts, ext) {
				return "", nil
			}
		}
		return fmt.Sprintf("The %s field must be a file of type: %s.", label(in.Field), strings.Join(exts, ", ")), nil
	}}
}

// MaxKB fails when the file is larger than kb kilobytes.
func MaxKB(kb int) Rule {
	return Rule{Name: "max_kb", Check: func(in Input) (string, error) {
		if in.File != nil && in.File.Size <= int64(kb)*1024 {
			return "", nil
		}
		return fmt.Sprintf("The %s field must not be greater than %d kilobytes.", label(in.Field), kb), nil
	}}
}
