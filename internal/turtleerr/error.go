package turtleerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is the value every TURTLE operation returns on failure. It records
// the error kind, the function that raised it, a formatted message, and —
// via github.com/pkg/errors — the stack frame the error was created at, so
// a handler can recover the source file:line the C implementation recorded
// explicitly.
type Error struct {
	Kind Kind
	Func string
	msg  string
	// stack is captured at construction time with errors.WithStack so
	// Location() can recover "file:line" without the caller threading it
	// through by hand.
	stack error
}

// New creates an Error of the given kind, attributing it to fn (typically
// the exported method name, e.g. "Stack.Elevation"), and invokes the
// process-wide handler (spec §7: "a process-wide handler is then
// invoked") before returning it to the caller.
func New(kind Kind, fn, format string, args ...interface{}) *Error {
	e := &Error{
		Kind: kind,
		Func: fn,
		msg:  fmt.Sprintf(format, args...),
	}
	e.stack = errors.WithStack(e)
	return Report(e)
}

// Wrap annotates an existing error with a TURTLE kind and origin, keeping
// the original error reachable through Unwrap, and invokes the
// process-wide handler before returning it to the caller.
func Wrap(kind Kind, fn string, cause error, format string, args ...interface{}) *Error {
	e := &Error{
		Kind: kind,
		Func: fn,
		msg:  fmt.Sprintf(format, args...),
	}
	e.stack = errors.Wrap(cause, e.msg)
	return Report(e)
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Func, e.Kind, e.msg)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	type causer interface{ Cause() error }
	if c, ok := e.stack.(causer); ok {
		if cause := c.Cause(); cause != e {
			return cause
		}
	}
	return nil
}

// Location returns the "file:line" the error was constructed at.
func (e *Error) Location() string {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}
	st, ok := e.stack.(stackTracer)
	if !ok {
		return "unknown"
	}
	frames := st.StackTrace()
	// frames[0] is New or Wrap itself; the constructing call site is next.
	if len(frames) < 2 {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", frames[1], frames[1])
}

// Is reports whether err is a *Error of the given kind, so callers can
// write `turtleerr.Is(err, turtleerr.PathError)`.
func Is(err error, kind Kind) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}
