// Package apperr defines the error taxonomy shared by the catalog and auth
// layers and maps it onto HTTP status codes at the boundary. Errors carry an
// oops code; anything without a known code is treated as internal.
package apperr

import (
	"log/slog"
	"net/http"

	"github.com/samber/oops"
)

// Error codes attached to domain errors.
const (
	CodeValidation   = "VALIDATION"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
)

// Validation returns an error that maps to 400.
func Validation(format string, args ...any) error {
	return oops.Code(CodeValidation).Errorf(format, args...)
}

// Unauthorized returns an error that maps to 401.
func Unauthorized(format string, args ...any) error {
	return oops.Code(CodeUnauthorized).Errorf(format, args...)
}

// Forbidden returns an error that maps to 403.
func Forbidden(format string, args ...any) error {
	return oops.Code(CodeForbidden).Errorf(format, args...)
}

// NotFound returns an error that maps to 404.
func NotFound(format string, args ...any) error {
	return oops.Code(CodeNotFound).Errorf(format, args...)
}

// Conflict returns an error that maps to 409.
func Conflict(format string, args ...any) error {
	return oops.Code(CodeConflict).Errorf(format, args...)
}

// Code returns the oops code carried by err, or "" when there is none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch Code(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Message returns the text safe to show a caller. Internal errors never
// leak their detail.
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return http.StatusText(http.StatusInternalServerError)
	}
	return err.Error()
}

// LogError logs an error with structured context if it's an oops error.
func LogError(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code := oopsErr.Code(); code != nil && code != "" {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
		return
	}
	logger.Error(msg, "error", err)
}
