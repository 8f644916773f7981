// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MaxIdentifierLength bounds item and actor IDs.
const MaxIdentifierLength = 128

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9._:@-]+$`)

var (
	instance *validator.Validate
	initOnce sync.Once
)

// FieldError describes one failed constraint.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   any
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func (e FieldError) detail(withMessage bool) map[string]any {
	d := map[string]any{"field": e.Field, "tag": e.Tag}
	if withMessage {
		d["message"] = e.Message
	}
	return d
}

// RequestValidationError collects every field that failed, in struct order.
type RequestValidationError struct {
	fields []FieldError
}

func (ve *RequestValidationError) Errors() []FieldError { return ve.fields }

func (ve *RequestValidationError) Error() string {
	if len(ve.fields) == 0 {
		return "validation failed"
	}
	var b strings.Builder
	for i, f := range ve.fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Message)
	}
	return b.String()
}

// APIError mirrors models.APIError without importing it.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError converts the failure into the VALIDATION_ERROR response shape.
// A single failure is reported inline; several are listed under "fields".
func (ve *RequestValidationError) ToAPIError() *APIError {
	out := &APIError{Code: "VALIDATION_ERROR", Message: ve.Error()}
	switch n := len(ve.fields); {
	case n == 0:
		out.Message = "Validation failed"
	case n == 1:
		out.Details = ve.fields[0].detail(false)
	default:
		list := make([]map[string]any, 0, n)
		for _, f := range ve.fields {
			list = append(list, f.detail(true))
		}
		out.Details = map[string]any{"fields": list}
	}
	return out
}

// GetValidator returns the process-wide validator. Field names in errors are
// the JSON names clients sent; the "identifier" tag checks item and actor IDs.
func GetValidator() *validator.Validate {
	initOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		if err := v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
			return ValidIdentifier(fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("register identifier validator: %v", err))
		}
		instance = v
	})
	return instance
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// ValidIdentifier reports whether s is a well-formed item or actor ID.
func ValidIdentifier(s string) bool {
	return len(s) > 0 && len(s) <= MaxIdentifierLength && identifierPattern.MatchString(s)
}

// ValidateStruct validates s and returns nil or a *RequestValidationError.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestValidationError{fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := &RequestValidationError{fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.fields = append(out.fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: describe(fe),
		})
	}
	return out
}

// describe renders a client-facing sentence for one failed tag.
func describe(fe validator.FieldError) string {
	f, p := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "identifier":
		return fmt.Sprintf("%s must be 1-%d characters of letters, digits, '.', '_', ':', '@' or '-'", f, MaxIdentifierLength)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", f, p, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", f, p, unit)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", f, p)
	}
	return fmt.Sprintf("%s failed %s validation", f, fe.Tag())
}
