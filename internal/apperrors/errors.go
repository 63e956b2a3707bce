package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Wire-level error codes. These are part of the API contract: clients switch
// on them to distinguish a date conflict from bad input from a flaky backend.
const (
	CodeConflict     = "conflict"
	CodeInvalidRange = "invalid_range"
	CodeStorage      = "storage_error"
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// As extracts an *AppError from an error chain, or nil.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// Conflict reports an overlapping booking. The details carry enough for the
// caller to pick new dates.
func Conflict(bookingID, start, end string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    "requested dates overlap an existing booking",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"conflictingBookingId": bookingID,
			"unavailableFrom":      start,
			"unavailableUntil":     end,
		},
	}
}

func InvalidRange(msg string) *AppError {
	return &AppError{Code: CodeInvalidRange, Message: msg, HTTPStatus: http.StatusBadRequest}
}

// Storage wraps a persistent-store failure that survived the internal retry.
// The message is deliberately generic; the cause stays in logs.
func Storage(err error) *AppError {
	return &AppError{
		Code:       CodeStorage,
		Message:    "could not complete the request, please try again",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func InvalidInput(msg string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: msg, HTTPStatus: http.StatusBadRequest}
}

func NotFound(what string) *AppError {
	return &AppError{Code: CodeNotFound, Message: what + " not found", HTTPStatus: http.StatusNotFound}
}

func Unauthorized() *AppError {
	return &AppError{Code: CodeUnauthorized, Message: "login required", HTTPStatus: http.StatusUnauthorized}
}

func Forbidden(msg string) *AppError {
	return &AppError{Code: CodeForbidden, Message: msg, HTTPStatus: http.StatusForbidden}
}
