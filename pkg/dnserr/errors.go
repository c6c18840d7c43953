package dnserr

import (
	"fmt"
	"strings"
)

// Kind identifies which of the four single-error variants an Error value
// is; the fifth variant, the aggregate, is the separate List type.
type Kind int

const (
	// Message is a free-form contextual error.
	Message Kind = iota
	// IO wraps a file, socket, or pipe failure.
	IO
	// AddrParse wraps a malformed IP literal failure.
	AddrParse
	// Chain wraps an inner error with an additional message for context.
	Chain
)

// Error is the concrete error type for Message, IO, AddrParse, and Chain.
// Use the constructor matching the Kind you need rather than building this
// directly.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case IO:
		return fmt.Sprintf("io: %s: %v", e.Msg, e.Err)
	case AddrParse:
		return fmt.Sprintf("addr parse: %s: %v", e.Msg, e.Err)
	case Chain:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	default:
		return e.Msg
	}
}

// Unwrap exposes the wrapped error, if any, so errors.Is/errors.As work.
func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a Message error.
func New(msg string) *Error {
	return &Error{Kind: Message, Msg: msg}
}

// Newf builds a Message error with fmt.Sprintf formatting.
func Newf(format string, args ...interface{}) *Error {
	return &Error{Kind: Message, Msg: fmt.Sprintf(format, args...)}
}

// WrapIO wraps err as an IO error annotated with msg.
func WrapIO(msg string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: IO, Msg: msg, Err: err}
}

// WrapAddrParse wraps err as an AddrParse error annotated with msg.
func WrapAddrParse(msg string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: AddrParse, Msg: msg, Err: err}
}

// Chainf wraps err with additional context, producing a Chain error.
// It is the netresolved analogue of fmt.Errorf("%s: %w", msg, err).
func Chainf(format string, err error, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Chain, Msg: fmt.Sprintf(format, args...), Err: err}
}

// List aggregates errors collected from several independent operations
// (e.g. binding every listener identity during a reconcile pass) so a
// single failure doesn't hide the rest.
type List struct {
	Errs []error
}

// Add appends err to the list if it is non-nil.
func (l *List) Add(err error) {
	if err != nil {
		l.Errs = append(l.Errs, err)
	}
}

// Len reports how many errors have been collected.
func (l *List) Len() int {
	return len(l.Errs)
}

// ErrOrNil returns l if it has collected at least one error, else nil.
// This lets callers write `return errs.ErrOrNil()` unconditionally.
func (l *List) ErrOrNil() error {
	if l == nil || len(l.Errs) == 0 {
		return nil
	}
	return l
}

func (l *List) Error() string {
	if len(l.Errs) == 1 {
		return l.Errs[0].Error()
	}
	parts := make([]string, len(l.Errs))
	for i, e := range l.Errs {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%d errors occurred: [%s]", len(l.Errs), strings.Join(parts, "; "))
}

// Unwrap exposes the collected errors for errors.Is/errors.As via the
// multi-error Unwrap() []error convention.
func (l *List) Unwrap() []error {
	return l.Errs
}
