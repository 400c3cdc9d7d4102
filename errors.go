package xmlcodec

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/zoobzio/xmlcodec/stream"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrMalformedDocument indicates a tokenizer-level failure:
	// unbalanced tags, invalid entities, content outside the root.
	ErrMalformedDocument = stream.ErrMalformed

	// ErrUnknownType indicates a wire name that resolved to no
	// registered type or alias.
	ErrUnknownType = errors.New("unknown type")

	// ErrDanglingReference indicates a reference attribute named an id
	// that was never registered.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrIncompleteRead indicates a format returned with element
	// children still unconsumed, desynchronizing the stream.
	ErrIncompleteRead = errors.New("incomplete read")

	// ErrNotAllocatable indicates a format that declared reference
	// semantics without an allocation hook or factory.
	ErrNotAllocatable = errors.New("format is not allocatable")
)

// TypeError reports a wire-name-to-type resolution failure.
type TypeError struct {
	Err  error  // ErrUnknownType
	Name string // wire local name
	URI  string // namespace URI, if any
}

func (e *TypeError) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("%s: no type bound to {%s}%s", e.Err.Error(), e.URI, e.Name)
	}
	return fmt.Sprintf("%s: no type bound to %q", e.Err.Error(), e.Name)
}

func (e *TypeError) Unwrap() error {
	return e.Err
}

// ReferenceError reports a reference-table failure during a read pass.
type ReferenceError struct {
	Err error  // ErrDanglingReference
	ID  string // the id named by the reference attribute
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: id %q was never defined", e.Err.Error(), e.ID)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// ReadError reports a format-level failure during a read pass.
type ReadError struct {
	Err     error        // underlying sentinel (ErrIncompleteRead, ...)
	Type    reflect.Type // type being read, if resolved
	Element string       // element local name
	Cause   error        // original error from the format, if any
}

func (e *ReadError) Error() string {
	name := "?"
	if e.Type != nil {
		name = e.Type.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("read <%s> as %s: %v", e.Element, name, e.Cause)
	}
	return fmt.Sprintf("read <%s> as %s: %v", e.Element, name, e.Err)
}

func (e *ReadError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// RegistrationError is the panic value raised when two static formats
// are registered for the same type, or a referenceable format has no
// way to allocate its objects. Both are programming errors detected at
// startup and are deliberately fatal.
type RegistrationError struct {
	Type reflect.Type
	Err  error
}

func (e *RegistrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("register format for %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("duplicate format registration for %s", e.Type)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// OrderingError is the panic value raised when an attribute is set on
// an element after child content has been written to it. This is a bug
// in a Format implementation and is deliberately fatal.
type OrderingError struct {
	Attribute string
	Element   string
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("attribute %q set on <%s> after content was written", e.Attribute, e.Element)
}

func newTypeError(uri, name string) error {
	return &TypeError{Err: ErrUnknownType, Name: name, URI: uri}
}

func newReferenceError(id string) error {
	return &ReferenceError{Err: ErrDanglingReference, ID: id}
}

// newReadError wraps a format-level failure. Errors that already carry
// full context (syntax errors, nested read errors, resolution and
// reference failures) pass through untouched so the innermost report
// wins.
func newReadError(sentinel error, typ reflect.Type, element string, cause error) error {
	if cause != nil {
		var re *ReadError
		var te *TypeError
		var fe *ReferenceError
		if errors.As(cause, &re) || errors.As(cause, &te) || errors.As(cause, &fe) ||
			errors.Is(cause, ErrMalformedDocument) {
			return cause
		}
	}
	return &ReadError{Err: sentinel, Type: typ, Element: element, Cause: cause}
}
