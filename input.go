package xmlcodec

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/zoobzio/xmlcodec/stream"
)

// frameState is the lifecycle of one input frame.
//
//	Fresh    - inside the element, not positioned on a child
//	AtNext   - positioned on the start tag of the next child
//	Consumed - the pending child is being read
//	Closed   - the element's end tag has been consumed
type frameState uint8

const (
	stateFresh frameState = iota
	stateAtNext
	stateConsumed
	stateClosed
)

var (
	errNoNext         = errors.New("no pending element: HasNext must return true first")
	errUnexpectedText = errors.New("unexpected character data")
)

// inputFrame is the live cursor state for one open element during a
// read pass. Frames live in a depth-indexed arena owned by the reader
// and are reset when their end tag is processed.
type inputFrame struct {
	state        frameState
	local        string
	uri          string
	typ          reflect.Type
	attrs        []stream.Attr
	suppressRefs bool
}

// InputElement is the cursor a Format reads its element through. One
// instance per reader; it always addresses the innermost open element.
type InputElement struct {
	r *ObjectReader
}

// LocalName returns the local name of the element being read.
func (in *InputElement) LocalName() string {
	return in.r.frame().local
}

// Namespace returns the namespace URI of the element being read.
func (in *InputElement) Namespace() string {
	return in.r.frame().uri
}

// Type returns the runtime type the element resolved to. Allocation
// hooks use it to construct the right concrete instance.
func (in *InputElement) Type() reflect.Type {
	return in.r.frame().typ
}

// Attribute returns the value of the named attribute on the element
// being read.
func (in *InputElement) Attribute(name string) (string, bool) {
	attrs := in.r.frame().attrs
	for i := range attrs {
		if attrs[i].Prefix == "" && attrs[i].Local == name {
			return attrs[i].Value, true
		}
	}
	return "", false
}

// AttributeBool reads a boolean attribute, returning def when absent.
func (in *InputElement) AttributeBool(name string, def bool) (bool, error) {
	s, ok := in.Attribute(name)
	if !ok {
		return def, nil
	}
	return strconv.ParseBool(s)
}

// AttributeInt reads an integer attribute, returning def when absent.
func (in *InputElement) AttributeInt(name string, def int64) (int64, error) {
	s, ok := in.Attribute(name)
	if !ok {
		return def, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// AttributeFloat reads a float attribute, returning def when absent.
func (in *InputElement) AttributeFloat(name string, def float64) (float64, error) {
	s, ok := in.Attribute(name)
	if !ok {
		return def, nil
	}
	return strconv.ParseFloat(s, 64)
}

// HasNext reports whether another child element follows. It advances
// the tokenizer to the next significant token when the frame is not
// already positioned, and is idempotent while a child is pending.
// Returning false consumes the element's end tag.
func (in *InputElement) HasNext() (bool, error) {
	return in.r.hasNext()
}

// NextName returns the local name of the pending child element without
// consuming it. The second result is false when no child is pending.
func (in *InputElement) NextName() (string, bool) {
	r := in.r
	if r.frame().state != stateAtNext {
		return "", false
	}
	return r.tok.Local, true
}

// Next reads the pending child element: resolves its type and format,
// handles id/ref semantics and returns the resulting object. HasNext
// must have returned true.
func (in *InputElement) Next() (any, error) {
	r := in.r
	if err := r.requireNext(); err != nil {
		return nil, err
	}
	return r.readInstance(nil)
}

// Get reads the pending child element, requiring its local name to be
// name. The child's type comes from the type-carrying attribute.
func (in *InputElement) Get(name string) (any, error) {
	r := in.r
	if err := r.requireNext(); err != nil {
		return nil, err
	}
	if r.tok.Local != name {
		return nil, newReadError(ErrIncompleteRead, nil, r.tok.Local,
			errors.New("expected element <"+name+">"))
	}
	return r.readInstance(nil)
}

// GetWith reads the pending child element with an explicit format,
// bypassing type resolution. The child's local name must be name.
func (in *InputElement) GetWith(name string, f Format) (any, error) {
	r := in.r
	if err := r.requireNext(); err != nil {
		return nil, err
	}
	if r.tok.Local != name {
		return nil, newReadError(ErrIncompleteRead, nil, r.tok.Local,
			errors.New("expected element <"+name+">"))
	}
	return r.readInstance(f)
}

// Text reads the character content of the element being read,
// concatenating text and CDATA runs. It stops at the first child start
// tag or at the end tag, consuming the latter.
func (in *InputElement) Text() (string, error) {
	r := in.r
	fr := r.frame()
	if fr.state == stateAtNext {
		return "", nil
	}
	if fr.state == stateClosed {
		return "", nil
	}
	var b strings.Builder
	for {
		tok, err := r.advance()
		if err != nil {
			return "", err
		}
		switch tok.Kind {
		case stream.KindText, stream.KindCData:
			b.WriteString(tok.Text)
		case stream.KindStartTag:
			fr.state = stateAtNext
			return b.String(), nil
		case stream.KindEndTag:
			fr.state = stateClosed
			return b.String(), nil
		default:
			return "", newReadError(ErrIncompleteRead, nil, fr.local, errUnexpectedText)
		}
	}
}

// hasNext implements the frame positioning protocol.
func (r *ObjectReader) hasNext() (bool, error) {
	fr := r.frame()
	switch fr.state {
	case stateAtNext:
		return true, nil
	case stateClosed:
		return false, nil
	}
	tok, err := r.advanceSignificant()
	if err != nil {
		return false, err
	}
	switch tok.Kind {
	case stream.KindStartTag:
		fr.state = stateAtNext
		return true, nil
	case stream.KindEndTag:
		fr.state = stateClosed
		return false, nil
	case stream.KindText, stream.KindCData:
		return false, newReadError(ErrIncompleteRead, nil, fr.local, errUnexpectedText)
	default:
		return false, newReadError(ErrIncompleteRead, nil, fr.local, errors.New("unexpected end of document"))
	}
}

func (r *ObjectReader) requireNext() error {
	fr := r.frame()
	if fr.state != stateAtNext {
		ok, err := r.hasNext()
		if err != nil {
			return err
		}
		if !ok {
			return errNoNext
		}
	}
	fr.state = stateConsumed
	return nil
}

// readInstance reads one object from the start tag the tokenizer is
// positioned on. forced, when non-nil, bypasses type resolution.
func (r *ObjectReader) readInstance(forced Format) (any, error) {
	tok := r.tok
	local := tok.Local
	uri := r.sr.TokenNamespace()

	// Canonical null element.
	if forced == nil && tok.Prefix == "" && local == NullElement && uri == "" {
		if err := r.expectEnd(local); err != nil {
			return nil, err
		}
		r.childDone()
		return nil, nil
	}

	var (
		typ  = anyType
		f    = forced
		err  error
		refs = r.refs
	)
	if f == nil {
		classLocal, classURI := r.class.resolve(r.binding)
		if name, ok := r.sr.TokenAttr(classLocal, classURI); ok {
			typ, err = r.binding.TypeForName(name)
		} else {
			typ, err = r.binding.TypeForElement(uri, local)
		}
		if err != nil {
			return nil, err
		}
		f = r.registry.Resolve(typ)
	} else if bound, ok := r.registry.BoundType(f); ok {
		typ = bound
	}

	suppressed := r.depth > 0 && r.frame().suppressRefs
	refable := referenceable(f) && !suppressed
	var (
		idVal      string
		hasID      bool
		childSuppr = suppressed
	)
	if refable {
		if refID, ok := tok.Attr(refs.RefAttribute()); ok {
			existing, ok := refs.lookupRead(refID)
			if !ok {
				return nil, newReferenceError(refID)
			}
			if err := r.expectEnd(local); err != nil {
				return nil, err
			}
			r.childDone()
			return existing, nil
		}
		idVal, hasID = tok.Attr(refs.IDAttribute())
		if !hasID {
			childSuppr = true
		}
	}

	depth := r.depth
	fr := r.pushFrame(local, uri, tok.Attrs)
	fr.suppressRefs = childSuppr
	fr.typ = typ

	// Allocate before the body parses. Registering the id first is
	// what lets descendants reference an object under construction.
	var obj any
	if alloc, ok := f.(Allocator); ok {
		obj, err = alloc.Alloc(&r.in, typ)
		if err != nil {
			return nil, newReadError(ErrIncompleteRead, typ, local, err)
		}
		if refable && hasID {
			refs.define(idVal, obj)
		}
	}

	result, err := f.Read(&r.in, obj)
	if err != nil {
		return nil, newReadError(ErrIncompleteRead, typ, local, err)
	}

	// The format must leave the element fully consumed; unread
	// children mean it silently desynchronized the stream. Nested
	// reads may have regrown the arena, so re-fetch the frame.
	fr = &r.frames[depth]
	switch fr.state {
	case stateClosed:
	case stateAtNext, stateConsumed:
		return nil, newReadError(ErrIncompleteRead, typ, local, nil)
	default:
		tok, err := r.advanceSignificant()
		if err != nil {
			return nil, err
		}
		if tok.Kind != stream.KindEndTag {
			return nil, newReadError(ErrIncompleteRead, typ, local, nil)
		}
	}
	r.popFrame()

	if refable && hasID && obj == nil {
		// No allocation hook: the object exists only now, so register
		// it late. Back-references from later siblings still resolve.
		refs.define(idVal, result)
	}
	r.childDone()
	return result, nil
}

// expectEnd consumes the end tag of an element that must be empty.
func (r *ObjectReader) expectEnd(local string) error {
	tok, err := r.advanceSignificant()
	if err != nil {
		return err
	}
	if tok.Kind != stream.KindEndTag {
		return newReadError(ErrIncompleteRead, nil, local,
			errors.New("element must be empty"))
	}
	return nil
}

// childDone returns the parent frame to Fresh after a child completes.
func (r *ObjectReader) childDone() {
	if r.depth > 0 {
		r.frame().state = stateFresh
	}
}
