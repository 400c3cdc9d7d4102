package xmlcodec

import (
	"errors"
	"reflect"

	"github.com/zoobzio/xmlcodec/container"
)

// ValueAttribute carries the content of built-in scalar formats.
const ValueAttribute = "value"

// builtinTypes are resolvable by wire identity in every new Binding.
var builtinTypes = []reflect.Type{
	reflect.TypeOf(""),
	reflect.TypeOf(false),
	reflect.TypeOf(int(0)),
	reflect.TypeOf(int64(0)),
	reflect.TypeOf(float64(0)),
	reflect.TypeOf(container.List{}),
	reflect.TypeOf(container.OrderedMap{}),
}

// registerBuiltins installs the default formats every new Registry
// starts with: the scalar formats and the structural container
// formats.
func registerBuiltins(r *Registry) {
	r.Register(reflect.TypeOf(""), stringFormat{})
	r.Register(reflect.TypeOf(false), boolFormat{})
	r.Register(reflect.TypeOf(int(0)), intFormat{})
	r.Register(reflect.TypeOf(int64(0)), int64Format{})
	r.Register(reflect.TypeOf(float64(0)), float64Format{})
	r.Register(reflect.TypeOf((*container.Sequence)(nil)).Elem(), sequenceFormat{})
	r.Register(reflect.TypeOf((*container.Mapping)(nil)).Elem(), mappingFormat{})
}

// defaultEmptyFormat terminates every resolution chain: it writes no
// content and reads an empty instance, so Super never runs off the end
// of the chain.
var defaultEmptyFormat Format = emptyFormat{}

type emptyFormat struct{}

func (emptyFormat) Write(el *OutputElement, v any) error { return nil }

func (emptyFormat) Alloc(el *InputElement, typ reflect.Type) (any, error) {
	if typ == nil {
		return nil, nil
	}
	return reflect.New(typ).Interface(), nil
}

func (emptyFormat) Read(el *InputElement, obj any) (any, error) {
	return obj, nil
}

// Scalar formats represent their value in a single attribute and stay
// outside id/ref tracking: scalars carry no useful identity.

type stringFormat struct{}

func (stringFormat) Referenceable() bool { return false }

func (stringFormat) Write(el *OutputElement, v any) error {
	s, ok := deref(v).(string)
	if !ok {
		return errors.New("xmlcodec: string format given " + reflect.TypeOf(v).String())
	}
	return el.SetAttribute(ValueAttribute, s)
}

func (stringFormat) Read(el *InputElement, obj any) (any, error) {
	s, _ := el.Attribute(ValueAttribute)
	return s, nil
}

type boolFormat struct{}

func (boolFormat) Referenceable() bool { return false }

func (boolFormat) Write(el *OutputElement, v any) error {
	b, ok := deref(v).(bool)
	if !ok {
		return errors.New("xmlcodec: bool format given " + reflect.TypeOf(v).String())
	}
	return el.SetAttributeBool(ValueAttribute, b)
}

func (boolFormat) Read(el *InputElement, obj any) (any, error) {
	return el.AttributeBool(ValueAttribute, false)
}

type intFormat struct{}

func (intFormat) Referenceable() bool { return false }

func (intFormat) Write(el *OutputElement, v any) error {
	n, ok := deref(v).(int)
	if !ok {
		return errors.New("xmlcodec: int format given " + reflect.TypeOf(v).String())
	}
	return el.SetAttributeInt(ValueAttribute, int64(n))
}

func (intFormat) Read(el *InputElement, obj any) (any, error) {
	n, err := el.AttributeInt(ValueAttribute, 0)
	if err != nil {
		return nil, err
	}
	return int(n), nil
}

type int64Format struct{}

func (int64Format) Referenceable() bool { return false }

func (int64Format) Write(el *OutputElement, v any) error {
	n, ok := deref(v).(int64)
	if !ok {
		return errors.New("xmlcodec: int64 format given " + reflect.TypeOf(v).String())
	}
	return el.SetAttributeInt(ValueAttribute, n)
}

func (int64Format) Read(el *InputElement, obj any) (any, error) {
	return el.AttributeInt(ValueAttribute, 0)
}

type float64Format struct{}

func (float64Format) Referenceable() bool { return false }

func (float64Format) Write(el *OutputElement, v any) error {
	f, ok := deref(v).(float64)
	if !ok {
		return errors.New("xmlcodec: float64 format given " + reflect.TypeOf(v).String())
	}
	return el.SetAttributeFloat(ValueAttribute, f)
}

func (float64Format) Read(el *InputElement, obj any) (any, error) {
	return el.AttributeFloat(ValueAttribute, 0)
}

// sequenceFormat handles any container.Sequence: one anonymous child
// element per value, in order.
type sequenceFormat struct{}

func (sequenceFormat) Write(el *OutputElement, v any) error {
	seq, ok := v.(container.Sequence)
	if !ok {
		return errors.New("xmlcodec: sequence format given " + reflect.TypeOf(v).String())
	}
	for i := 0; i < seq.Len(); i++ {
		if err := el.Add(seq.At(i)); err != nil {
			return err
		}
	}
	return nil
}

func (sequenceFormat) Alloc(el *InputElement, typ reflect.Type) (any, error) {
	if typ == nil {
		return nil, errors.New("xmlcodec: sequence element without a resolvable type")
	}
	return reflect.New(typ).Interface(), nil
}

func (sequenceFormat) Read(el *InputElement, obj any) (any, error) {
	seq, ok := obj.(container.Sequence)
	if !ok {
		return nil, errors.New("xmlcodec: sequence format allocated " + reflect.TypeOf(obj).String())
	}
	for {
		more, err := el.HasNext()
		if err != nil {
			return nil, err
		}
		if !more {
			return seq, nil
		}
		item, err := el.Next()
		if err != nil {
			return nil, err
		}
		seq.Append(item)
	}
}

// mappingFormat handles any container.Mapping: alternating Key and
// Value child elements in iteration order.
type mappingFormat struct{}

func (mappingFormat) Write(el *OutputElement, v any) error {
	m, ok := v.(container.Mapping)
	if !ok {
		return errors.New("xmlcodec: mapping format given " + reflect.TypeOf(v).String())
	}
	var werr error
	m.Range(func(k, v any) bool {
		if werr = el.AddNamed(k, "Key"); werr != nil {
			return false
		}
		if werr = el.AddNamed(v, "Value"); werr != nil {
			return false
		}
		return true
	})
	return werr
}

func (mappingFormat) Alloc(el *InputElement, typ reflect.Type) (any, error) {
	if typ == nil {
		return nil, errors.New("xmlcodec: mapping element without a resolvable type")
	}
	return reflect.New(typ).Interface(), nil
}

func (mappingFormat) Read(el *InputElement, obj any) (any, error) {
	m, ok := obj.(container.Mapping)
	if !ok {
		return nil, errors.New("xmlcodec: mapping format allocated " + reflect.TypeOf(obj).String())
	}
	for {
		more, err := el.HasNext()
		if err != nil {
			return nil, err
		}
		if !more {
			return m, nil
		}
		k, err := el.Get("Key")
		if err != nil {
			return nil, err
		}
		more, err = el.HasNext()
		if err != nil {
			return nil, err
		}
		if !more {
			return nil, errors.New("xmlcodec: mapping entry <Key> without <Value>")
		}
		v, err := el.Get("Value")
		if err != nil {
			return nil, err
		}
		m.Put(k, v)
	}
}
