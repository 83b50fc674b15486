// Package qferr defines the result-kind taxonomy every boundary operation in
// this module returns on failure, in place of the ad-hoc "_name" string
// globals and the result-code enum the core was distilled from.
package qferr

import "fmt"

// Kind classifies why an operation failed.
type Kind int

const (
	// Success is never wrapped in an *Error; it exists so the full wire
	// taxonomy from the originating spec is representable.
	Success Kind = iota
	// Fatal marks an internal invariant breakage (e.g. a tree with some
	// but not all four children set). Callers should abort rather than
	// retry.
	Fatal
	// CaughtError wraps an error surfaced from a collaborator (e.g. the
	// standard library) that doesn't fit one of the other kinds.
	CaughtError
	// BadPointer is a null handle or buffer where a non-null is required.
	BadPointer
	// BadType is an element type, image format, step, or annotation kind
	// mismatch.
	BadType
	// BadSize is a shape mismatch between source and target, or an
	// out-of-range rectangle.
	BadSize
	// BadParam is a numeric precondition violated (threshold <= 0,
	// min_size > max_size, step zero, ...).
	BadParam
	// NotFound is an annotation or neighbor absent where required.
	NotFound
	// InputError is a malformed file header or payload while reading PNM.
	InputError
	// NotImplemented is an unsupported operation, e.g. a format conversion
	// pair with no defined matrix.
	NotImplemented
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Fatal:
		return "fatal"
	case CaughtError:
		return "caught_error"
	case BadPointer:
		return "bad_pointer"
	case BadType:
		return "bad_type"
	case BadSize:
		return "bad_size"
	case BadParam:
		return "bad_param"
	case NotFound:
		return "not_found"
	case InputError:
		return "input_error"
	case NotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every fallible operation in
// this module. Op names the failing operation ("quad_tree.divide",
// "pixel_image.create_roi", ...); Context carries an optional free-form
// detail string; Err wraps an underlying error when one exists.
type Error struct {
	Kind    Kind
	Op      string
	Context string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(kind Kind, op, context string) *Error {
	return &Error{Kind: kind, Op: op, Context: context}
}

// Wrap builds an *Error around an existing error. Returns nil if err is nil.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	qe, ok := err.(*Error)
	return ok && qe.Kind == kind
}

// Errorf builds an *Error with a formatted context string.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Context: fmt.Sprintf(format, args...)}
}
