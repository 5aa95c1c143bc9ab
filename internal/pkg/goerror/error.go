// Package goerror carries the typed errors returned by use cases. Each error
// has a user-facing message and a stable code that maps to an HTTP status.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the request could not be completed due to a conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier used for mapping errors to HTTP status codes.
type Code int

const (
	CodeInternal Code = iota
	// CodeInvalidFormat is a request that could not be read at all.
	CodeInvalidFormat
	// CodeInvalidInput is a readable request with missing or wrong values.
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeUnauthorized
	CodePayloadTooLarge
	// CodeUnprocessable is input that was read but holds nothing usable, such
	// as an image without a QR code.
	CodeUnprocessable
)

var codeNames = map[Code]string{
	CodeInternal:        "ERROR_CODE_INTERNAL",
	CodeInvalidFormat:   "ERROR_CODE_INVALID_FORMAT",
	CodeInvalidInput:    "ERROR_CODE_INVALID_INPUT",
	CodeNotFound:        "ERROR_CODE_NOT_FOUND",
	CodeConflict:        "ERROR_CODE_CONFLICT",
	CodeUnauthorized:    "ERROR_CODE_UNAUTHORIZED",
	CodePayloadTooLarge: "ERROR_CODE_PAYLOAD_TOO_LARGE",
	CodeUnprocessable:   "ERROR_CODE_UNPROCESSABLE",
}

var codeStatus = map[Code]int{
	CodeInvalidFormat:   http.StatusBadRequest,
	CodeInvalidInput:    http.StatusUnprocessableEntity,
	CodeNotFound:        http.StatusNotFound,
	CodeConflict:        http.StatusConflict,
	CodeUnauthorized:    http.StatusUnauthorized,
	CodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	CodeUnprocessable:   http.StatusUnprocessableEntity,
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "ERROR_CODE_INTERNAL"
}

// Error is a structured error used across the application.
//
// It can wrap an underlying error while also carrying a user-facing message,
// a high-level type, and a stable error code.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error implements the error interface. The underlying error wins over the
// user-facing message so logs keep the diagnostic.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	case e.errType == TypeValidation:
		return "Validation violation"
	case e.errType == TypeBusiness:
		return "Logical business not meet with requirement"
	default:
		return "Internal error"
	}
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err,
	)
}

// Msg returns the user-facing error message, if set.
func (e *Error) Msg() string {
	return e.msg
}

func (e *Error) Type() Type {
	return e.errType
}

func (e *Error) Code() Code {
	return e.code
}

// Fields returns validation errors (field to message map), if any.
func (e *Error) Fields() map[string]string {
	return e.fields
}

func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	if status, ok := codeStatus[e.code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func newError(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer creates a server-type error with the provided error.
func NewServer(err error) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness creates a business-type error with the specified message and code.
func NewBusiness(msg string, code Code) error {
	return newError(nil, msg, TypeBusiness, code)
}

// WrapBusiness is NewBusiness keeping cause for errors.Is and logging.
func WrapBusiness(cause error, msg string, code Code) error {
	return newError(cause, msg, TypeBusiness, code)
}

// NewInvalidInput creates a validation error. A non-nil err is wrapped as is;
// otherwise kv is read as field/message pairs.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return newError(err, "Validation error", TypeValidation, CodeInvalidInput)
	}

	if len(kv)%2 != 0 {
		return newError(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}

	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat creates a validation error for an invalid request body format.
func NewInvalidFormat(msgs ...string) error {
	if len(msgs) == 0 {
		return newError(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}
	return newError(nil, msgs[0], TypeValidation, CodeInvalidFormat)
}
