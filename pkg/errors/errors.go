// Package errors defines the typed error carried from services to the HTTP
// and worker edges. A Code decides the status, the public message and whether
// a worker should retry.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// Business rule violations raised by the inventory and ledger core.
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeOverReceipt       Code = "OVER_RECEIPT"
	CodeIncompleteReceipt Code = "INCOMPLETE_RECEIPT"
	CodeSerialNotFound    Code = "SERIAL_NOT_FOUND"
	CodeSerialConflict    Code = "SERIAL_CONFLICT"
	CodeUnbalancedEntry   Code = "UNBALANCED_ENTRY"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const unprocessable = http.StatusUnprocessableEntity

var metadataByCode = map[Code]Metadata{
	CodeValidation:    {HTTPStatus: unprocessable, PublicMessage: "validation failed", DetailsAllowed: true},
	CodeUnauthorized:  {HTTPStatus: http.StatusUnauthorized, PublicMessage: "unauthorized"},
	CodeNotFound:      {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
	CodeConflict:      {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected"},
	CodeStateConflict: {HTTPStatus: unprocessable, PublicMessage: "state transition disallowed", DetailsAllowed: true},
	CodeIdempotency:   {HTTPStatus: http.StatusConflict, PublicMessage: "idempotency key reused", DetailsAllowed: true},

	CodeInsufficientStock: {HTTPStatus: unprocessable, PublicMessage: "insufficient stock", DetailsAllowed: true},
	CodeOverReceipt:       {HTTPStatus: unprocessable, PublicMessage: "received quantity exceeds expected quantity", DetailsAllowed: true},
	CodeIncompleteReceipt: {HTTPStatus: unprocessable, PublicMessage: "goods receipt is not fully received", DetailsAllowed: true},
	CodeSerialNotFound:    {HTTPStatus: unprocessable, PublicMessage: "serial number not found or already sold", DetailsAllowed: true},
	CodeSerialConflict:    {HTTPStatus: http.StatusConflict, PublicMessage: "serial number already in use", DetailsAllowed: true},
	CodeUnbalancedEntry:   {HTTPStatus: unprocessable, PublicMessage: "journal entry is not balanced", DetailsAllowed: true},

	CodeInternal:   {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
	CodeDependency: {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "dependency unavailable", DetailsAllowed: true},
}

// MetadataFor falls back to the internal-error metadata for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether the outermost typed error in err's chain has code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets client-visible details in place and returns e.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}
