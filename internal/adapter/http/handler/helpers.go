package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DescribeBindError turns a JSON binding failure into a client-facing message
func DescribeBindError(err error) string {
	var validationErrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &validationErrs) && len(validationErrs) > 0:
		fe := validationErrs[0]
		field := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			return fmt.Sprintf("field '%s' is required", field)
		}
		return fmt.Sprintf("field '%s' failed validation '%s'", field, fe.Tag())
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Sprintf("field '%s' must be a %s", typeErr.Field, typeErr.Type.Kind())
		}
		return "request body must be a JSON object"
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "request body must be valid JSON"
	case errors.Is(err, io.EOF):
		return "request body is required"
	default:
		return "invalid request body"
	}
}
