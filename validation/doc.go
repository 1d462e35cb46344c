// Package validation checks configuration structs and request inputs.
//
// Struct tags are evaluated by go-playground/validator, extended with the
// object-storage tags "folder" and "filename":
//
//	type listRequest struct {
//	    Folder string `uri:"folder" validate:"required,folder"`
//	}
//	err := validation.Validate(req)
//
// For checks that do not fit tags, collect errors programmatically:
//
//	v := validation.New()
//	v.Required("container", cfg.Container).OneOf("scheme", scheme, schemes)
//	if err := v.Validate(); err != nil { ... }
package validation
