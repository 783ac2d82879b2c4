// File path: internal/pipeline/errors.go
package pipeline

import (
	"errors"

	"github.com/raglinehq/ragline/internal/ledger"
	"github.com/raglinehq/ragline/internal/safety"
	"github.com/raglinehq/ragline/internal/sqldb"
)

// Kind is the machine-checkable failure category carried by every pipeline
// error. API handlers map kinds to status codes; clients branch on the kind
// string, never on message text.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindUnsafeStatement     Kind = "unsafe_statement"
	KindInvalidPendingState Kind = "invalid_pending_state"
	KindNotFound            Kind = "not_found"
	KindTimeout             Kind = "timeout"
	KindCompute             Kind = "compute"
	KindTransientStore      Kind = "transient_store"
)

// Error pairs a kind with a human-readable message. Suggestion is set for
// unsafe statement rejections to steer the user toward a rephrasing.
type Error struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	cause      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// classify wraps a collaborator failure in the pipeline taxonomy. Already-
// classified errors pass through unchanged.
func classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	var violation *safety.Violation
	if errors.As(err, &violation) {
		return &Error{
			Kind:       KindUnsafeStatement,
			Message:    violation.Reason,
			Suggestion: violation.Suggestion,
			cause:      err,
		}
	}
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return newError(KindNotFound, err.Error(), err)
	case errors.Is(err, ledger.ErrInvalidState):
		return newError(KindInvalidPendingState, err.Error(), err)
	case errors.Is(err, sqldb.ErrTimeout):
		return newError(KindTimeout, err.Error(), err)
	default:
		return newError(KindCompute, err.Error(), err)
	}
}

// KindOf extracts the failure kind, defaulting to compute for unclassified
// errors.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindCompute
}
