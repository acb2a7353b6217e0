package errors

import "fmt"

// ScriptError is the interface implemented by all script-visible errors
// produced by the object model. A ScriptError returned from a property
// operation represents a pending exception: the caller must propagate it
// before performing further property operations on the same object.
type ScriptError interface {
	error
	Kind() string // e.g. "Type", "Range"
	// Message returns the specific error message without the kind prefix,
	// for callers that want to format the error differently.
	Message() string
	Unwrap() error
}

// --- Concrete error types ---

// TypeError corresponds to a JavaScript TypeError: writing a read-only
// property, reconfiguring a non-configurable property, adding to a
// non-extensible object, deleting a non-configurable property, or creating
// a prototype cycle.
type TypeError struct {
	Msg   string
	Cause error
}

func (e *TypeError) Error() string   { return "TypeError: " + e.Msg }
func (e *TypeError) Kind() string    { return "Type" }
func (e *TypeError) Message() string { return e.Msg }
func (e *TypeError) Unwrap() error   { return e.Cause }

func NewTypeError(format string, args ...interface{}) *TypeError {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}

// RangeError corresponds to a JavaScript RangeError, e.g. an out-of-range
// length supplied to a bounded storage constructor.
type RangeError struct {
	Msg   string
	Cause error
}

func (e *RangeError) Error() string   { return "RangeError: " + e.Msg }
func (e *RangeError) Kind() string    { return "Range" }
func (e *RangeError) Message() string { return e.Msg }
func (e *RangeError) Unwrap() error   { return e.Cause }

func NewRangeError(format string, args ...interface{}) *RangeError {
	return &RangeError{Msg: fmt.Sprintf(format, args...)}
}

// OOMError reports an allocation failure. Unlike the script-visible errors
// above it is fatal to the executing program: the object model cannot
// continue without the requested memory, so the heap panics with an
// *OOMError instead of returning it.
type OOMError struct {
	Msg string
}

func (e *OOMError) Error() string { return "out of memory: " + e.Msg }

// IsTypeError reports whether err is (or wraps) a *TypeError.
func IsTypeError(err error) bool {
	for err != nil {
		if _, ok := err.(*TypeError); ok {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// IsRangeError reports whether err is (or wraps) a *RangeError.
func IsRangeError(err error) bool {
	for err != nil {
		if _, ok := err.(*RangeError); ok {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
