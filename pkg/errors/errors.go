// Package errors defines the audit engine's error taxonomy. Hard errors
// (bad configuration, invalid input) carry a code a host can switch on;
// soft degradations are absorbed by the pipeline and never surface here.
package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// CodeConfig marks an invalid or contradictory configuration. Fatal
	// to engine construction only.
	CodeConfig ErrorCode = "CONFIG_ERROR"
	// CodeInvalidInput marks a malformed path or payload. Fatal to the
	// single call that supplied it.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	// CodeInputTooLarge marks content exceeding the configured caps.
	CodeInputTooLarge ErrorCode = "INPUT_TOO_LARGE"
	CodeNotSupported  ErrorCode = "NOT_SUPPORTED"
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxLanguage  = "language"
	CtxPattern   = "pattern"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error carries a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
