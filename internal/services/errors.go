package services

import (
	"errors"
	"fmt"

	"github.com/proofpay/backend/internal/models"
)

// ErrorKind classifies workflow rejections. All kinds except KindUnavailable
// are expected, caller-recoverable conditions.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindForbidden          ErrorKind = "forbidden"
	KindInvalidTransition  ErrorKind = "invalid_transition"
	KindPreconditionFailed ErrorKind = "precondition_failed"
	KindExpired            ErrorKind = "expired"
	KindLimitExceeded      ErrorKind = "limit_exceeded"
	KindUnavailable        ErrorKind = "unavailable"
)

// Error is a typed workflow rejection. Status carries the project's current
// lifecycle state when relevant, so callers can explain why an action was
// refused ("cannot approve: project is in draft").
type Error struct {
	Kind    ErrorKind
	Message string
	Status  models.ProjectStatus
}

func (e *Error) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %s (status: %s)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf extracts the kind from an error chain; unknown errors map to
// KindUnavailable since only persistence failures escape the taxonomy.
func KindOf(err error) ErrorKind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindUnavailable
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf extracts the project status attached to a workflow error, if any.
func StatusOf(err error) models.ProjectStatus {
	var we *Error
	if errors.As(err, &we) {
		return we.Status
	}
	return ""
}

func notFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func invalidTransition(msg string, status models.ProjectStatus) *Error {
	return &Error{Kind: KindInvalidTransition, Message: msg, Status: status}
}

func preconditionFailed(msg string) *Error {
	return &Error{Kind: KindPreconditionFailed, Message: msg}
}

func expired(msg string) *Error {
	return &Error{Kind: KindExpired, Message: msg}
}

func limitExceeded(msg string) *Error {
	return &Error{Kind: KindLimitExceeded, Message: msg}
}

func unavailable(err error) *Error {
	return &Error{Kind: KindUnavailable, Message: err.Error()}
}
