// Package errs provides the unified error type used across dbinspect.
//
// Every subsystem (connectors, pool, inspector, registry) wraps its native
// errors into *errs.Error before returning them to callers. Callers use the
// Is* predicates to handle errors without importing driver-specific packages.
//
// Usage:
//
//	// In a connector, wrap native errors:
//	return errs.Wrap(errs.ErrKindConnectionFailed, "open session", pgErr)
//
//	// In a caller, check the error kind:
//	if errs.IsPoolExhausted(err) {
//	    // back off and retry
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing engine-specific codes.
// All connectors (Postgres, MySQL, SQL Server, …) map their native errors to
// one of these kinds, giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown            ErrKind = iota
	ErrKindNotFound                   // no rows, unknown table or schema
	ErrKindConnectionFailed           // cannot reach, authenticate or validate a session
	ErrKindTimeout                    // context deadline / cancellation
	ErrKindQueryFailed                // statement rejected or failed in the engine
	ErrKindInvalidInput               // bad arguments from the caller
	ErrKindPermissionDenied           // access denied
	ErrKindPoolExhausted              // acquire timeout elapsed with no free connection
	ErrKindPoolClosed                 // pool is draining or drained
	ErrKindNotConnected               // handle was never connected or already disconnected
	ErrKindTransactionAborted         // a statement inside a transaction failed
	ErrKindMetadataFailed             // catalog introspection failed
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindPoolExhausted:
		return "pool_exhausted"
	case ErrKindPoolClosed:
		return "pool_closed"
	case ErrKindNotConnected:
		return "not_connected"
	case ErrKindTransactionAborted:
		return "transaction_aborted"
	case ErrKindMetadataFailed:
		return "metadata_failed"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all dbinspect subsystems.
// Connectors produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// TransactionError reports which statement of a transaction failed.
// Index is zero-based; it equals the statement count when COMMIT itself failed.
type TransactionError struct {
	Index int
	Cause error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("[%s] statement %d failed: %v", ErrKindTransactionAborted, e.Index, e.Cause)
}

func (e *TransactionError) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Annotate adds operation context to cause. When cause already carries a
// kind that kind is kept, otherwise kind is used.
func Annotate(kind ErrKind, msg string, cause error) *Error {
	if k := KindOf(cause); k != ErrKindUnknown {
		kind = k
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a statement execution failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsPoolExhausted reports whether err is an acquire timeout on a full pool.
func IsPoolExhausted(err error) bool {
	return KindOf(err) == ErrKindPoolExhausted
}

// IsPoolClosed reports whether err came from a pool that no longer accepts acquisitions.
func IsPoolClosed(err error) bool {
	return KindOf(err) == ErrKindPoolClosed
}

// IsNotConnected reports whether err signals use of a dead connection handle.
func IsNotConnected(err error) bool {
	return KindOf(err) == ErrKindNotConnected
}

// IsTransactionAborted reports whether err aborted a transaction.
func IsTransactionAborted(err error) bool {
	return KindOf(err) == ErrKindTransactionAborted
}

// IsMetadataFailed reports whether err is a catalog introspection failure.
func IsMetadataFailed(err error) bool {
	return KindOf(err) == ErrKindMetadataFailed
}

// KindOf extracts the outermost ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Kind
		case *TransactionError:
			return ErrKindTransactionAborted
		}
		err = errors.Unwrap(err)
	}
	return ErrKindUnknown
}
