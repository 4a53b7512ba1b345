package application

import (
	"errors"
	"slices"
	"strings"
)

// Kind classifies failures so transports can map them onto responses.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidToken
	KindTokenExpired
	KindPendingApproval
	KindForbidden
	KindNotFound
	KindConflict
	KindDatabase
)

var kindNames = map[Kind]string{
	KindInternal:        "internal",
	KindValidation:      "validation",
	KindInvalidToken:    "invalid_token",
	KindTokenExpired:    "token_expired",
	KindPendingApproval: "pending_approval",
	KindForbidden:       "forbidden",
	KindNotFound:        "not_found",
	KindConflict:        "conflict",
	KindDatabase:        "database",
}

// String returns the stable label used in logs and error codes.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "internal"
}

// Error is the single failure type returned by the services. Message is safe
// to show to clients; Err carries the underlying cause for logs.
type Error struct {
	Kind        Kind
	Message     string
	FieldErrors map[string]string
	Err         error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrInvalidToken    = &Error{Kind: KindInvalidToken}
	ErrTokenExpired    = &Error{Kind: KindTokenExpired}
	ErrPendingApproval = &Error{Kind: KindPendingApproval}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrDatabase        = &Error{Kind: KindDatabase}
)

// NewError builds an *Error of the given kind.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf reports the Kind carried by err. Errors outside the taxonomy are
// treated as internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil && appErr.Message != "" {
		return appErr.Message
	}
	return defaultMessages[KindOf(err)]
}

var defaultMessages = map[Kind]string{
	KindInternal:        "an internal error occurred",
	KindValidation:      "invalid input",
	KindInvalidToken:    "invalid token",
	KindTokenExpired:    "token has expired",
	KindPendingApproval: "account is pending administrator approval",
	KindForbidden:       "permission denied",
	KindNotFound:        "resource not found",
	KindConflict:        "resource already exists",
	KindDatabase:        "a database error occurred",
}

// fieldErrors accumulates per-field validation messages.
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; exists {
		return
	}
	f[field] = message
}

// err returns nil when nothing was recorded.
func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	return &Error{
		Kind:        KindValidation,
		Message:     "invalid input",
		FieldErrors: map[string]string(f),
		Err:         errors.New("invalid fields: " + strings.Join(fields, ", ")),
	}
}

func validationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func notFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}
