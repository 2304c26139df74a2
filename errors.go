package hxtag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pthm/hxtag/lib/encoding"
)

// Sentinel errors for registry, routing and resolution.
var (
	ErrNotFound         = errors.New("hxtag: resource not found")
	ErrInvalidComponent = errors.New("hxtag: invalid component definition")
	ErrInvalidPattern   = errors.New("hxtag: invalid path pattern")
	ErrDuplicateRoute   = errors.New("hxtag: duplicate route key")
	ErrUnknownRoute     = errors.New("hxtag: unknown route key")
	ErrArgCount         = errors.New("hxtag: path argument count mismatch")
	ErrRecursionLimit   = errors.New("hxtag: recursion limit exceeded")
	ErrInvalidFormat    = errors.New("hxtag: invalid parameter format")
	ErrSignatureInvalid = errors.New("hxtag: signature verification failed")
	ErrDecryptFailed    = errors.New("hxtag: parameter decryption failed")
	ErrReservedAttr     = errors.New("hxtag: reserved attribute")
)

// PropErrorKind classifies a prop validation failure.
type PropErrorKind int

const (
	// RequiredMissing: a required prop had no attribute.
	RequiredMissing PropErrorKind = iota + 1
	// InvalidValue: the attribute was present but not acceptable for the prop type.
	InvalidValue
	// ParseFailed: an array or object attribute was not well-formed JSON.
	ParseFailed
)

func (k PropErrorKind) String() string {
	switch k {
	case RequiredMissing:
		return "RequiredMissing"
	case InvalidValue:
		return "InvalidValue"
	case ParseFailed:
		return "ParseFailed"
	default:
		return "Unknown"
	}
}

// PropError describes why a single prop could not be parsed.
type PropError struct {
	Kind     PropErrorKind
	Key      string
	Expected string // expected type or value set, e.g. "number" or "one of: sm, md"
	Value    string // raw attribute value, empty for RequiredMissing
	Reason   string // parser detail for ParseFailed
}

func (e *PropError) Error() string {
	switch e.Kind {
	case RequiredMissing:
		return fmt.Sprintf("prop %q is required (%s)", e.Key, e.Expected)
	case ParseFailed:
		return fmt.Sprintf("prop %q: cannot parse %q as %s: %s", e.Key, e.Value, e.Expected, e.Reason)
	default:
		return fmt.Sprintf("prop %q: invalid value %q, expected %s", e.Key, e.Value, e.Expected)
	}
}

// PropErrors is every failure from one ParseProps call, in schema order.
type PropErrors []*PropError

func (es PropErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return "hxtag: " + strings.Join(msgs, "; ")
}

// Keys returns the offending prop names.
func (es PropErrors) Keys() []string {
	keys := make([]string, len(es))
	for i, e := range es {
		keys[i] = e.Key
	}
	return keys
}

// ResolveError is the failure of a resolution pass. It carries the tag and
// its position in the buffer where the failure happened.
//
// Stack lists the components whose output contained the tag, outermost
// first. It is empty for tags in the source passed to Resolve. Line and
// Column are relative to the rendered output of the last entry in Stack
// when it is set.
type ResolveError struct {
	Tag        string
	Line       int
	Column     int
	Depth      int
	Stack      []string
	Err        error
	Suggestion string
}

func (e *ResolveError) Error() string {
	if len(e.Stack) > 0 {
		return fmt.Sprintf("hxtag: resolving <%s> at %d:%d in <%s>: %v", e.Tag, e.Line, e.Column, e.Stack[len(e.Stack)-1], e.Err)
	}
	return fmt.Sprintf("hxtag: resolving <%s> at %d:%d: %v", e.Tag, e.Line, e.Column, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Format renders the error for a development error page or terminal.
func (e *ResolveError) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Failed to resolve <%s> (line %d, column %d, depth %d)\n", e.Tag, e.Line, e.Column, e.Depth)
	if len(e.Stack) > 0 {
		fmt.Fprintf(&b, "  in <%s>\n", strings.Join(append(append([]string(nil), e.Stack...), e.Tag), "> <"))
	}

	var perrs PropErrors
	if errors.As(e.Err, &perrs) {
		for _, pe := range perrs {
			fmt.Fprintf(&b, "  - %s [%s]\n", pe.Error(), pe.Kind)
		}
	} else {
		fmt.Fprintf(&b, "  %v\n", e.Err)
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\nSuggestion: %s\n", e.Suggestion)
	}
	return b.String()
}

// HandlerError wraps a route handler failure or panic.
type HandlerError struct {
	Method  string
	Pattern string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("hxtag: handler %s %s: %v", e.Method, e.Pattern, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecryptionError checks if err is a decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid)
}

// IsPropError reports whether err carries prop validation failures.
func IsPropError(err error) bool {
	var perrs PropErrors
	return errors.As(err, &perrs)
}

// IsHandlerError reports whether err came from a route handler.
func IsHandlerError(err error) bool {
	var herr *HandlerError
	return errors.As(err, &herr)
}

// wrapEncodingError maps lib/encoding errors onto hxtag sentinels.
func wrapEncodingError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, encoding.ErrSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, encoding.ErrDecryptFailed):
		return ErrDecryptFailed
	case errors.Is(err, encoding.ErrInvalidFormat):
		return ErrInvalidFormat
	}
	return err
}
