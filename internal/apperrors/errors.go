package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the request clashes with the current state of a resource,
// e.g. deleting an account that still owns ledger entries.
var ErrConflict = errors.New("resource state conflict")

// ErrInternal marks failures that are not the caller's fault (storage, settlement, timeouts).
var ErrInternal = errors.New("internal error")

// ErrEncryption is returned when a secret cannot be sealed, including a vault built without a key.
var ErrEncryption = errors.New("encryption failed")

// ErrDecryption is returned when stored ciphertext cannot be opened with the configured key.
var ErrDecryption = errors.New("decryption failed")

// AppError carries an HTTP-ish status code along with the underlying cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports server-side AppErrors as ErrInternal so callers only need errors.Is.
func (e *AppError) Is(target error) bool {
	return target == ErrInternal && e.Code >= http.StatusInternalServerError
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// FieldError is a client-facing error tied to one or more request fields.
// Kind is one of the sentinels above and is what errors.Is matches on.
type FieldError struct {
	Kind   error
	Fields map[string]string
}

func (e *FieldError) Error() string {
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			return fmt.Sprintf("%v: %s: %s", e.Kind, field, msg)
		}
	}
	return e.Kind.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

// NewFieldError builds a FieldError for a single field.
func NewFieldError(kind error, field, message string) *FieldError {
	return &FieldError{Kind: kind, Fields: map[string]string{field: message}}
}

// FieldsOf extracts the field map from anywhere in err's chain, or nil.
func FieldsOf(err error) map[string]string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return nil
}
