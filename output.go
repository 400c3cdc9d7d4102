package xmlcodec

import (
	"errors"
	"reflect"
	"strconv"

	"github.com/zoobzio/xmlcodec/stream"
)

// OutputElement is the cursor a Format writes its element through. One
// instance per writer; it always addresses the innermost open element.
//
// Attributes accumulate on the open start tag; the tag is flushed
// lazily, exactly when the first child or character content is about
// to be written, or as a self-closing tag when the element ends with
// no content. Formats may therefore interleave attribute computation
// and child emission in any convenient order, with one hard rule:
// setting an attribute after content has been written panics with
// *OrderingError.
type OutputElement struct {
	w *ObjectWriter
}

// SetAttribute sets a CDATA-typed attribute on the current element.
func (out *OutputElement) SetAttribute(name, value string) error {
	err := out.w.sw.Attribute(name, value)
	if errors.Is(err, stream.ErrNoOpenTag) {
		panic(&OrderingError{Attribute: name, Element: out.w.currentName()})
	}
	return err
}

// SetAttributeBool sets a boolean attribute.
func (out *OutputElement) SetAttributeBool(name string, v bool) error {
	return out.SetAttribute(name, strconv.FormatBool(v))
}

// SetAttributeInt sets an integer attribute.
func (out *OutputElement) SetAttributeInt(name string, v int64) error {
	return out.SetAttribute(name, strconv.FormatInt(v, 10))
}

// SetAttributeFloat sets a float attribute.
func (out *OutputElement) SetAttributeFloat(name string, v float64) error {
	return out.SetAttribute(name, strconv.FormatFloat(v, 'g', -1, 64))
}

// Text writes escaped character content into the current element.
func (out *OutputElement) Text(s string) error {
	return out.w.sw.Characters(s)
}

// CData writes a CDATA section into the current element.
func (out *OutputElement) CData(s string) error {
	return out.w.sw.CData(s)
}

// Add writes v as a child element named after its type (alias or type
// name, namespace-qualified by the binding). A nil value produces the
// canonical null element.
func (out *OutputElement) Add(v any) error {
	w := out.w
	if isNilValue(v) {
		if err := w.sw.StartElement("", NullElement, ""); err != nil {
			return err
		}
		return w.sw.EndElement()
	}
	typ := reflect.TypeOf(v)
	f := w.registry.Resolve(typ)
	prefix, local, uri := w.binding.ElementName(typ)
	return w.writeInstance(v, f, prefix, local, uri, false)
}

// AddNamed writes v as a child element with an application-chosen
// name. The type-carrying attribute records the value's type so the
// reader can resolve it. A nil value writes nothing.
func (out *OutputElement) AddNamed(v any, name string) error {
	if isNilValue(v) {
		return nil
	}
	w := out.w
	f := w.registry.Resolve(reflect.TypeOf(v))
	return w.writeInstance(v, f, "", name, "", true)
}

// AddWith writes v through an explicit format under an
// application-chosen name, bypassing registry resolution. No
// type-carrying attribute is emitted; the reader must pair it with
// GetWith.
func (out *OutputElement) AddWith(v any, name string, f Format) error {
	if isNilValue(v) {
		return nil
	}
	return out.w.writeInstance(v, f, "", name, "", false)
}

// writeInstance emits one element for v: start tag, id/ref semantics,
// formatted body, end tag.
func (w *ObjectWriter) writeInstance(v any, f Format, prefix, local, uri string, withClass bool) error {
	if err := w.sw.StartElement(prefix, local, uri); err != nil {
		return err
	}
	w.names = append(w.names, local)
	defer func() { w.names = w.names[:len(w.names)-1] }()

	if withClass {
		classLocal, classURI := w.class.resolve(w.binding)
		name := w.binding.NameFor(reflect.TypeOf(v))
		if err := w.sw.AttributeNS("c", classLocal, classURI, name); err != nil {
			return err
		}
	}

	if referenceable(f) {
		if key, ok := identity(v); ok {
			if id, seen := w.refs.lookupWrite(key); seen {
				if w.expand && !w.inFlight(key) {
					// Expand mode re-emits the full body instead of a
					// reference stub. The in-flight stack is what stops
					// a cycle from expanding forever.
					if err := w.sw.Attribute(w.refs.IDAttribute(), id); err != nil {
						return err
					}
					return w.writeBody(v, f, key)
				}
				if err := w.sw.Attribute(w.refs.RefAttribute(), id); err != nil {
					return err
				}
				return w.sw.EndElement()
			}
			id := w.refs.register(key)
			if err := w.sw.Attribute(w.refs.IDAttribute(), id); err != nil {
				return err
			}
			return w.writeBody(v, f, key)
		}
	}

	if err := f.Write(&w.out, v); err != nil {
		return err
	}
	return w.sw.EndElement()
}

func (w *ObjectWriter) writeBody(v any, f Format, key refKey) error {
	w.inflight = append(w.inflight, key)
	err := f.Write(&w.out, v)
	w.inflight = w.inflight[:len(w.inflight)-1]
	if err != nil {
		return err
	}
	return w.sw.EndElement()
}

func (w *ObjectWriter) inFlight(key refKey) bool {
	for _, k := range w.inflight {
		if k == key {
			return true
		}
	}
	return false
}

func (w *ObjectWriter) currentName() string {
	if len(w.names) == 0 {
		return ""
	}
	return w.names[len(w.names)-1]
}

// isNilValue reports whether v is nil or a typed nil pointer.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
