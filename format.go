package xmlcodec

import "reflect"

// Format is the read/write strategy bound to one Go type. A format
// writes a value as the content of an already-opened element and reads
// it back from the matching input cursor.
//
// Write may set attributes and add children in any order, with one
// constraint: all attributes of an element must be set before its first
// child or character content (violations are fatal, see OrderingError).
//
// Read receives the value produced by the format's allocation hook, or
// nil when the format has none, and returns the final value. Returning
// a value different from obj is how formats for immutable kinds
// (strings, numbers) produce their result.
type Format interface {
	// Write emits v into el.
	Write(el *OutputElement, v any) error

	// Read populates obj from el and returns the resulting value.
	Read(el *InputElement, obj any) (any, error)
}

// Optional format capabilities, checked by type assertion. A format
// implements only the ones its type needs.

// Allocator creates the instance for an element before its body is
// parsed. Objects allocated this way are registered in the reference
// table under their id first, so descendants can reference them while
// they are still under construction. This is what makes true circular
// references readable in a single pass.
type Allocator interface {
	// Alloc returns a new, empty instance for typ.
	Alloc(el *InputElement, typ reflect.Type) (any, error)
}

// Referencer opts a format out of (or explicitly into) id/ref
// tracking. Formats that do not implement it are tracked whenever
// their values carry pointer identity.
type Referencer interface {
	// Referenceable reports whether values of this format participate
	// in id/ref tracking during a read or write pass.
	Referenceable() bool
}

// referenceable reports the effective reference semantics of a format.
func referenceable(f Format) bool {
	if r, ok := f.(Referencer); ok {
		return r.Referenceable()
	}
	return true
}

// deref unwraps one level of pointer indirection, if any. Formats use
// it so Write can accept both T and *T.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return v
}
