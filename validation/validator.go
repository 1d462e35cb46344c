package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/blobgate/errors"
)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an AppError if there are validation errors, nil otherwise.
func (v *Validator) Validate() error {
	if !v.HasErrors() {
		return nil
	}
	return fieldErrorsToAppError(v.errors)
}

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// MaxLength checks if a string is within max length.
func (v *Validator) MaxLength(field, value string, maxLen int) *Validator {
	if len(value) > maxLen {
		v.AddError(field, fmt.Sprintf("must be %d characters or less", maxLen))
	}
	return v
}

// OneOf checks if a non-empty value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" || slices.Contains(allowed, value) {
		return v
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Folder checks that value is a usable object folder.
func (v *Validator) Folder(field, value string) *Validator {
	if !IsFolder(value) {
		v.AddError(field, folderMessage)
	}
	return v
}

// FileName checks that value is a single object name segment.
func (v *Validator) FileName(field, value string) *Validator {
	if !IsFileName(value) {
		v.AddError(field, fileNameMessage)
	}
	return v
}

const (
	folderMessage   = "must be a relative folder without empty, '.' or '..' segments"
	fileNameMessage = "must be a file name without path separators"
)

// IsFolder reports whether s is a relative, slash-separated folder whose
// segments are all non-empty and neither "." nor "..". A single trailing
// slash is tolerated.
func IsFolder(s string) bool {
	s = strings.TrimSuffix(s, "/")
	if s == "" || strings.HasPrefix(s, "/") || hasControl(s) {
		return false
	}
	for seg := range strings.SplitSeq(s, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// IsFileName reports whether s is a single object name segment.
func IsFileName(s string) bool {
	if s == "" || s == "." || s == ".." || hasControl(s) {
		return false
	}
	return !strings.ContainsAny(s, `/\`)
}

func hasControl(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool { return r < 0x20 || r == 0x7f })
}

func fieldErrorsToAppError(fields []FieldError) error {
	messages := make([]string, len(fields))
	for i, e := range fields {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	appErr := errors.Validation(strings.Join(messages, "; "))
	appErr.Details = map[string]any{"fields": fields}
	return appErr
}
