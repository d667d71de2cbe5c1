// Package service holds the error type shared by the domain services and
// the REST layer.
package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/content-agent/internal/storage"
)

// Error is a domain error with a machine-readable code and an HTTP status
type Error struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so sentinel values work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Error codes
const (
	CodeNotFound          = "not_found"
	CodeInvalidParam      = "invalid_param"
	CodeInvalidStatus     = "invalid_status"
	CodeInvalidTransition = "invalid_transition"
	CodeInvalidTitle      = "invalid_title"
	CodeInvalidSetting    = "invalid_setting"
	CodeInvalidDate       = "invalid_date"
	CodeInvalidLicense    = "invalid_license"
	CodeLicenseRequired   = "license_required"
	CodeAlreadyPublished  = "already_published"
	CodeNoContent         = "no_content"
	CodeMissingAPIKey     = "missing_api_key"
	CodeNoImageFound      = "no_image_found"
	CodeGSCNotConnected   = "gsc_not_connected"
	CodeAIError           = "ai_error"
	CodeUpstream          = "upstream_error"
	CodeForbidden         = "rest_forbidden"
	CodeInternal          = "internal_error"
)

// New creates an Error
func New(code string, status int, format string, args ...any) *Error {
	return &Error{Code: code, Status: status, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that keeps the underlying cause
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

func NotFound(what string, id uint) *Error {
	return New(CodeNotFound, http.StatusNotFound, "%s %d not found", what, id)
}

func InvalidParam(format string, args ...any) *Error {
	return New(CodeInvalidParam, http.StatusBadRequest, format, args...)
}

func InvalidTransition(format string, args ...any) *Error {
	return New(CodeInvalidTransition, http.StatusConflict, format, args...)
}

// AIError wraps a failed model call
func AIError(err error) *Error {
	return Wrap(err, CodeAIError, http.StatusBadGateway, "AI request failed")
}

// FromStorage maps a repository error for the named entity. Not-found rows
// become not_found; anything else is returned wrapped as-is.
func FromStorage(err error, what string, id uint) error {
	if err == nil {
		return nil
	}
	if storage.IsNotFound(err) {
		return NotFound(what, id)
	}
	return fmt.Errorf("%s %d: %w", what, id, err)
}

// StatusOf returns the HTTP status and code for any error
func StatusOf(err error) (int, string, string) {
	var e *Error
	if errors.As(err, &e) {
		status := e.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, e.Code, e.Message
	}
	if storage.IsNotFound(err) {
		return http.StatusNotFound, CodeNotFound, "resource not found"
	}
	return http.StatusInternalServerError, CodeInternal, "internal server error"
}
