package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/blobgate/errors"
)

func TestValidatorRequired(t *testing.T) {
	if New().Required("container", "uploads").HasErrors() {
		t.Error("expected no errors for valid input")
	}
	if !New().Required("container", "   ").HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorChaining(t *testing.T) {
	v := New().
		Required("container", "").
		OneOf("scheme", "ftp", []string{"s3", "local", "memory"}).
		MaxLength("name", strings.Repeat("x", 5), 3)
	if got := len(v.Errors()); got != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", got, v.Errors())
	}

	err := v.Validate()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "container: is required") {
		t.Errorf("message should name the field, got %q", appErr.Message)
	}
}

func TestValidatorNoErrors(t *testing.T) {
	if err := New().OneOf("scheme", "", []string{"s3"}).Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestIsFolder(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"docs", true},
		{"docs/", true},
		{"docs/2024", true},
		{"", false},
		{"/", false},
		{"/docs", false},
		{"docs//x", false},
		{"../etc", false},
		{"docs/./x", false},
		{"docs\n", false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := IsFolder(tc.in); got != tc.want {
				t.Errorf("IsFolder(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsFileName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1700000000000-abcdef012345.txt", true},
		{"report final.pdf", true},
		{"", false},
		{"..", false},
		{"a/b.txt", false},
		{`a\b.txt`, false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := IsFileName(tc.in); got != tc.want {
				t.Errorf("IsFileName(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

type downloadParams struct {
	FileName string `uri:"fileName" validate:"required,filename"`
	Folder   string `form:"folder" validate:"omitempty,folder"`
}

type nestedConfig struct {
	Storage struct {
		Container string `mapstructure:"container" validate:"required"`
	} `mapstructure:"storage"`
}

func TestValidateStruct(t *testing.T) {
	if err := Validate(downloadParams{FileName: "a.txt"}); err != nil {
		t.Errorf("expected valid, got %v", err)
	}

	err := Validate(downloadParams{FileName: "a/b.txt", Folder: "../x"})
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	if len(fields) != 2 {
		t.Fatalf("expected 2 field errors, got %v", appErr.Details)
	}
	if fields[0].Field != "fileName" || fields[1].Field != "folder" {
		t.Errorf("expected tag names, got %+v", fields)
	}
}

func TestValidateNestedFieldPath(t *testing.T) {
	err := Validate(nestedConfig{})
	if err == nil || !strings.Contains(err.Error(), "storage.container: is required") {
		t.Errorf("expected dotted config path, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("ConnectionString"); got != "connection_string" {
		t.Errorf("got %q", got)
	}
}
