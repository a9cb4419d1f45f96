package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers that need to translate it into a
// transport-level response without inspecting messages.
type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeFileNotFound   Code = "FILE_NOT_FOUND"
	CodeFolderNotFound Code = "FOLDER_NOT_FOUND"
	CodeUpload         Code = "UPLOAD_ERROR"
	CodeThumbnail      Code = "THUMBNAIL_ERROR"
	CodeDatabase       Code = "DATABASE_ERROR"
	CodeConfiguration  Code = "CONFIGURATION_ERROR"
	CodeInternal       Code = "INTERNAL_ERROR"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrForbidden marks a validation-class error caused by an unauthorized
// action, so transports can answer 403 instead of 400.
var ErrForbidden = errors.New("forbidden")

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewForbidden builds a validation-class error for an action the requester
// is not allowed to perform.
func NewForbidden(message string) *Error {
	return &Error{Code: CodeValidation, Message: message, Err: ErrForbidden}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// MessageOf returns the user-facing message from err, or a generic one.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
