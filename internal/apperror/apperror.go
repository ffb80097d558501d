// Package apperror defines the error taxonomy shared by every domain package.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidArgument        Kind = "InvalidArgument"
	KindUnauthenticated        Kind = "Unauthenticated"
	KindPermissionDenied       Kind = "PermissionDenied"
	KindNotFound               Kind = "NotFound"
	KindConflict               Kind = "Conflict"
	KindInsufficientStock      Kind = "InsufficientStock"
	KindNoCopiesAvailable      Kind = "NoCopiesAvailable"
	KindInvalidStateTransition Kind = "InvalidStateTransition"
	KindUnrecognized           Kind = "Unrecognized"
	KindUpstream               Kind = "UpstreamFailure"
	KindRateLimited            Kind = "RateLimited"
	KindInternal               Kind = "Internal"
)

// Error is a classified failure with a message safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds a fresh classified error. Use New for package-level sentinels.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err without exposing its text in Message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) ErrorKind() Kind { return e.Kind }

func (e *Error) PublicMessage() string { return e.Message }

// InsufficientStockError reports the first cart line that exceeds stock.
type InsufficientStockError struct {
	BookID    int64
	Title     string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %q: requested %d, available %d",
		e.Title, e.Requested, e.Available)
}

func (e *InsufficientStockError) ErrorKind() Kind { return KindInsufficientStock }

func (e *InsufficientStockError) PublicMessage() string { return e.Error() }

type kinded interface {
	error
	ErrorKind() Kind
}

type public interface {
	PublicMessage() string
}

// KindOf returns the kind of the first classified error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var k kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the caller-safe message for err. Unclassified errors never
// leak their text.
func MessageOf(err error) string {
	var p public
	if errors.As(err, &p) && KindOf(err) != KindInternal {
		return p.PublicMessage()
	}
	return "internal server error"
}
