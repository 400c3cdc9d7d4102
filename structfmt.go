package xmlcodec

import (
	"errors"
	"reflect"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register the struct tag consumed by RegisterStruct.
	sentinel.Tag("xml")
}

// fieldPlan is the serialization plan for one exported struct field,
// built once at registration.
type fieldPlan struct {
	name  string
	index []int
	kind  reflect.Kind // scalar attribute kind; Invalid for child elements
}

// structFormat serializes a struct type from its scanned field plans:
// scalar fields become attributes, composite fields become named child
// elements. Values round-trip as *T.
type structFormat[T any] struct {
	typeName string
	attrs    []fieldPlan
	children []fieldPlan
	byName   map[string]*fieldPlan
}

// RegisterStruct scans T's exported fields and installs a format for it
// in the registry, making the type resolvable through the binding. The
// `xml` struct tag renames a field on the wire; `xml:"-"` omits it.
// Passing nil for either target uses the process-wide default.
func RegisterStruct[T any](r *Registry, b *Binding) Format {
	if r == nil {
		r = DefaultRegistry()
	}
	if b == nil {
		b = DefaultBinding()
	}

	spec := sentinel.Scan[T]()
	f := &structFormat[T]{
		typeName: spec.TypeName,
		byName:   make(map[string]*fieldPlan),
	}
	for _, field := range spec.Fields {
		name := field.Name
		if tag, ok := field.Tags["xml"]; ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		plan := fieldPlan{name: name, index: field.Index}
		if field.Kind == sentinel.KindScalar {
			plan.kind = field.ReflectType.Kind()
			f.attrs = append(f.attrs, plan)
		} else {
			f.children = append(f.children, plan)
		}
	}
	for i := range f.attrs {
		f.byName[f.attrs[i].name] = &f.attrs[i]
	}
	for i := range f.children {
		f.byName[f.children[i].name] = &f.children[i]
	}

	typ := reflect.TypeFor[T]()
	r.Register(typ, f)
	b.RegisterType(typ)
	return f
}

func (f *structFormat[T]) Write(el *OutputElement, v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	for _, p := range f.attrs {
		fv := rv.FieldByIndex(p.index)
		if err := writeAttrField(el, p.name, fv); err != nil {
			return err
		}
	}
	for _, p := range f.children {
		fv := rv.FieldByIndex(p.index)
		if err := el.AddNamed(fv.Interface(), p.name); err != nil {
			return err
		}
	}
	return nil
}

func (f *structFormat[T]) Alloc(el *InputElement, typ reflect.Type) (any, error) {
	return new(T), nil
}

func (f *structFormat[T]) Read(el *InputElement, obj any) (any, error) {
	ptr, ok := obj.(*T)
	if !ok {
		return nil, errors.New("xmlcodec: " + f.typeName + " format allocated " + reflect.TypeOf(obj).String())
	}
	rv := reflect.ValueOf(ptr).Elem()

	for _, p := range f.attrs {
		fv := rv.FieldByIndex(p.index)
		if err := readAttrField(el, p.name, fv); err != nil {
			return nil, err
		}
	}
	for {
		more, err := el.HasNext()
		if err != nil {
			return nil, err
		}
		if !more {
			return ptr, nil
		}
		name, _ := el.NextName()
		plan, ok := f.byName[name]
		if !ok || plan.kind != reflect.Invalid {
			return nil, errors.New("xmlcodec: unexpected element <" + name + "> in " + f.typeName)
		}
		child, err := el.Get(name)
		if err != nil {
			return nil, err
		}
		if err := assignField(rv.FieldByIndex(plan.index), child); err != nil {
			return nil, err
		}
	}
}

func writeAttrField(el *OutputElement, name string, fv reflect.Value) error {
	switch fv.Kind() {
	case reflect.String:
		return el.SetAttribute(name, fv.String())
	case reflect.Bool:
		return el.SetAttributeBool(name, fv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return el.SetAttributeInt(name, fv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return el.SetAttributeInt(name, int64(fv.Uint()))
	case reflect.Float32, reflect.Float64:
		return el.SetAttributeFloat(name, fv.Float())
	default:
		return errors.New("xmlcodec: unsupported attribute field kind " + fv.Kind().String())
	}
}

func readAttrField(el *InputElement, name string, fv reflect.Value) error {
	switch fv.Kind() {
	case reflect.String:
		s, _ := el.Attribute(name)
		fv.SetString(s)
	case reflect.Bool:
		b, err := el.AttributeBool(name, false)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := el.AttributeInt(name, 0)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := el.AttributeInt(name, 0)
		if err != nil {
			return err
		}
		fv.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, err := el.AttributeFloat(name, 0)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	default:
		return errors.New("xmlcodec: unsupported attribute field kind " + fv.Kind().String())
	}
	return nil
}

// assignField stores a decoded child value into a struct field,
// unwrapping the pointer produced by allocation when the field holds
// the value directly.
func assignField(fv reflect.Value, v any) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(fv.Type()) {
		fv.Set(rv)
		return nil
	}
	if rv.Kind() == reflect.Ptr && rv.Elem().Type().AssignableTo(fv.Type()) {
		fv.Set(rv.Elem())
		return nil
	}
	if rv.Type().ConvertibleTo(fv.Type()) {
		fv.Set(rv.Convert(fv.Type()))
		return nil
	}
	return errors.New("xmlcodec: cannot assign " + rv.Type().String() + " to field of type " + fv.Type().String())
}
