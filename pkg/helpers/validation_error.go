package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrorData holds structured validation error information
type ValidationErrorData struct {
	Fields map[string]string `json:"fields"`
}

// FieldErrors flattens validator errors into field -> message.
// Returns nil when err is not a validation error.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[toSnakeCase(fe.Field())] = fieldMessage(fe)
	}
	return fields
}

// EncodeValidationError encodes field validation errors into a JSON string
// This can be embedded in gRPC error messages for structured error handling
func EncodeValidationError(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}

	jsonData, err := json.Marshal(ValidationErrorData{Fields: fields})
	if err != nil {
		for _, msg := range fields {
			return msg
		}
		return "validation error"
	}
	return string(jsonData)
}

// DecodeValidationError decodes a JSON string into field validation errors
func DecodeValidationError(errorMsg string) (map[string]string, bool) {
	var data ValidationErrorData
	if err := json.Unmarshal([]byte(errorMsg), &data); err != nil || len(data.Fields) == 0 {
		return nil, false
	}
	return data.Fields, true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "content_cid":
		return fmt.Sprintf("must be %d to %d characters of [A-Za-z0-9_-]", MinCIDLength, MaxCIDLength)
	case "hash_hex":
		return "must be a 64 character hex digest"
	case "identity":
		return "must be 1 to 64 printable characters without spaces"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
