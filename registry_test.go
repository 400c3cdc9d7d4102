package xmlcodec_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zoobzio/xmlcodec"
)

// namedFormat is a registrable no-op format distinguished by name.
type namedFormat struct {
	name string
}

func (f *namedFormat) Write(el *xmlcodec.OutputElement, v any) error { return nil }

func (f *namedFormat) Read(el *xmlcodec.InputElement, obj any) (any, error) {
	return obj, nil
}

func (f *namedFormat) Alloc(el *xmlcodec.InputElement, typ reflect.Type) (any, error) {
	if typ == nil {
		return nil, nil
	}
	return reflect.New(typ).Interface(), nil
}

// bareFormat has no allocation hook and default reference semantics.
type bareFormat struct{}

func (bareFormat) Write(el *xmlcodec.OutputElement, v any) error { return nil }

func (bareFormat) Read(el *xmlcodec.InputElement, obj any) (any, error) {
	return obj, nil
}

type regShape interface {
	Area() float64
}

type regCircle struct {
	R float64
}

func (c *regCircle) Area() float64 { return 3 * c.R * c.R }

func TestRegistry_ResolveUnregistered(t *testing.T) {
	r := xmlcodec.NewRegistry()
	type orphan struct{ A int }

	f := r.Resolve(reflect.TypeOf(orphan{}))
	if f == nil {
		t.Fatal("Resolve() must never return nil")
	}
	if _, ok := r.Super(f); ok {
		t.Error("the default format should end the chain")
	}
}

func TestRegistry_ResolveDeterministic(t *testing.T) {
	r := xmlcodec.NewRegistry()
	typ := reflect.TypeOf(&regCircle{})
	r.Register(reflect.TypeOf(regCircle{}), &namedFormat{name: "circle"})

	first := r.Resolve(typ)
	for i := 0; i < 10; i++ {
		if got := r.Resolve(typ); got != first {
			t.Fatal("Resolve() must be deterministic for one type")
		}
	}
}

func TestRegistry_SpecificityPrefersConcrete(t *testing.T) {
	r := xmlcodec.NewRegistry()
	shapeFmt := &namedFormat{name: "shape"}
	circleFmt := &namedFormat{name: "circle"}
	r.Register(reflect.TypeOf((*regShape)(nil)).Elem(), shapeFmt)
	r.Register(reflect.TypeOf(regCircle{}), circleFmt)

	if got := r.Resolve(reflect.TypeOf(&regCircle{})); got != circleFmt {
		t.Errorf("Resolve() = %v, want the concrete format", got)
	}
}

func TestRegistry_Super(t *testing.T) {
	r := xmlcodec.NewRegistry()
	shapeFmt := &namedFormat{name: "shape"}
	circleFmt := &namedFormat{name: "circle"}
	r.Register(reflect.TypeOf((*regShape)(nil)).Elem(), shapeFmt)
	r.Register(reflect.TypeOf(regCircle{}), circleFmt)

	super, ok := r.Super(circleFmt)
	if !ok {
		t.Fatal("Super() should find the interface format")
	}
	if super != shapeFmt {
		t.Errorf("Super() = %v, want the interface format", super)
	}

	last, ok := r.Super(shapeFmt)
	if !ok {
		t.Fatal("Super() of the least specific match should be the default")
	}
	if _, ok := r.Super(last); ok {
		t.Error("the default format should end the chain")
	}
}

func TestRegistry_OverrideWins(t *testing.T) {
	r := xmlcodec.NewRegistry()
	static := &namedFormat{name: "static"}
	scoped := &namedFormat{name: "scoped"}
	typ := reflect.TypeOf(regCircle{})
	r.Register(typ, static)

	r.SetOverride(typ, scoped)
	if got := r.Resolve(typ); got != scoped {
		t.Errorf("Resolve() = %v, want the override", got)
	}

	r.ClearOverride(typ)
	if got := r.Resolve(typ); got != static {
		t.Errorf("Resolve() = %v after ClearOverride, want the static format", got)
	}
}

func TestRegistry_OverrideBeatsSpecificity(t *testing.T) {
	// A dynamic override on the interface must shadow a more specific
	// static format for the concrete type.
	r := xmlcodec.NewRegistry()
	circleFmt := &namedFormat{name: "circle"}
	ifaceFmt := &namedFormat{name: "iface"}
	r.Register(reflect.TypeOf(regCircle{}), circleFmt)
	r.SetOverride(reflect.TypeOf((*regShape)(nil)).Elem(), ifaceFmt)

	if got := r.Resolve(reflect.TypeOf(&regCircle{})); got != ifaceFmt {
		t.Errorf("Resolve() = %v, want the override", got)
	}
}

func TestRegistry_DuplicateRegistrationPanics(t *testing.T) {
	r := xmlcodec.NewRegistry()
	typ := reflect.TypeOf(regCircle{})
	r.Register(typ, &namedFormat{name: "one"})

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("duplicate registration must panic")
		}
		if _, ok := rec.(*xmlcodec.RegistrationError); !ok {
			t.Fatalf("panic value = %T, want *RegistrationError", rec)
		}
	}()
	r.Register(typ, &namedFormat{name: "two"})
}

func TestRegistry_ReferenceableNeedsAllocator(t *testing.T) {
	r := xmlcodec.NewRegistry()

	defer func() {
		rec := recover()
		regErr, ok := rec.(*xmlcodec.RegistrationError)
		if !ok {
			t.Fatalf("panic value = %T, want *RegistrationError", rec)
		}
		if !errors.Is(regErr, xmlcodec.ErrNotAllocatable) {
			t.Errorf("want ErrNotAllocatable, got %v", regErr)
		}
	}()
	r.Register(reflect.TypeOf(regCircle{}), bareFormat{})
}

func TestRegistry_BoundType(t *testing.T) {
	r := xmlcodec.NewRegistry()
	f := &namedFormat{name: "circle"}
	r.Register(reflect.TypeOf(&regCircle{}), f)

	typ, ok := r.BoundType(f)
	if !ok {
		t.Fatal("BoundType() should know a registered format")
	}
	if typ != reflect.TypeOf(regCircle{}) {
		t.Errorf("BoundType() = %v, want the element type", typ)
	}
}
