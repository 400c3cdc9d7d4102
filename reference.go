package xmlcodec

import (
	"reflect"
	"strconv"
)

// DefaultIDAttribute and DefaultRefAttribute are the attribute names
// for identifier/reference semantics unless reconfigured.
const (
	DefaultIDAttribute  = "id"
	DefaultRefAttribute = "ref"
)

// refKey identifies an object by pointer identity. Only pointer-like
// values have identity; everything else is written by value.
type refKey struct {
	ptr uintptr
	typ reflect.Type
}

// identity extracts the pointer identity of v, if it has one.
func identity(v any) (refKey, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if rv.IsNil() {
			return refKey{}, false
		}
		return refKey{ptr: rv.Pointer(), typ: rv.Type()}, true
	default:
		return refKey{}, false
	}
}

// ReferenceResolver is the id/ref bookkeeping for one read or write
// pass. The write side maps object identity to an id string; the read
// side maps id strings to objects, including objects registered before
// their body finished parsing (forward references).
//
// Ids are unique per pass: one id per distinct write-side identity. A
// resolver belongs to a single reader or writer and must be reset
// between passes.
type ReferenceResolver struct {
	idAttr  string
	refAttr string
	out     map[refKey]string
	in      map[string]any
	next    int
}

// NewReferenceResolver creates a resolver with the default "id"/"ref"
// attribute names.
func NewReferenceResolver() *ReferenceResolver {
	return &ReferenceResolver{
		idAttr:  DefaultIDAttribute,
		refAttr: DefaultRefAttribute,
	}
}

// SetAttributes reconfigures the identifier and reference attribute
// names. At most one of each appears per element.
func (rr *ReferenceResolver) SetAttributes(id, ref string) {
	rr.idAttr = id
	rr.refAttr = ref
}

// IDAttribute returns the identifier attribute name.
func (rr *ReferenceResolver) IDAttribute() string {
	return rr.idAttr
}

// RefAttribute returns the reference attribute name.
func (rr *ReferenceResolver) RefAttribute() string {
	return rr.refAttr
}

// lookupWrite returns the id already assigned to v's identity.
func (rr *ReferenceResolver) lookupWrite(key refKey) (string, bool) {
	id, ok := rr.out[key]
	return id, ok
}

// register assigns the next id to v's identity.
func (rr *ReferenceResolver) register(key refKey) string {
	if rr.out == nil {
		rr.out = make(map[refKey]string)
	}
	id := strconv.Itoa(rr.next)
	rr.next++
	rr.out[key] = id
	return id
}

// define binds an id read from the document to obj. Called before the
// object's body is parsed when the format can pre-allocate, which is
// what lets descendants point back at an object under construction.
func (rr *ReferenceResolver) define(id string, obj any) {
	if rr.in == nil {
		rr.in = make(map[string]any)
	}
	rr.in[id] = obj
}

// lookupRead resolves an id to the object it was defined as.
func (rr *ReferenceResolver) lookupRead(id string) (any, bool) {
	obj, ok := rr.in[id]
	return obj, ok
}

// reset clears both tables for the next pass.
func (rr *ReferenceResolver) reset() {
	rr.out = nil
	rr.in = nil
	rr.next = 0
}
