package stream

import (
	"errors"
	"fmt"
)

// ErrMalformed is the sentinel cause for every well-formedness failure
// reported by the reader. Use errors.Is to detect it through SyntaxError.
var ErrMalformed = errors.New("malformed document")

var (
	errUnexpectedEOF     = errors.New("unexpected EOF")
	errInvalidName       = errors.New("invalid XML name")
	errInvalidEntity     = errors.New("invalid entity reference")
	errInvalidCharRef    = errors.New("invalid character reference")
	errInvalidToken      = errors.New("invalid XML token")
	errInvalidComment    = errors.New("invalid XML comment")
	errMismatchedEndTag  = errors.New("mismatched end tag")
	errMultipleRoots     = errors.New("multiple root elements")
	errContentOutside    = errors.New("content outside root element")
	errMissingRoot       = errors.New("missing root element")
	errDoctype           = errors.New("DOCTYPE is not supported")
	errUnboundPrefix     = errors.New("unbound namespace prefix")
	errDuplicateAttr     = errors.New("duplicate attribute name")
	errUnterminatedCData = errors.New("unterminated CDATA section")
)

// SyntaxError reports a well-formedness error with location context.
// It always wraps ErrMalformed.
type SyntaxError struct {
	Line   int
	Column int
	Err    error
}

// Error formats the syntax error with its location and cause.
func (e *SyntaxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("xml syntax error at line %d, column %d: %v", e.Line, e.Column, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *SyntaxError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrMalformed) succeed for any syntax error.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrMalformed
}

func syntaxErr(line, column int, cause error) error {
	return &SyntaxError{Line: line, Column: column, Err: cause}
}
