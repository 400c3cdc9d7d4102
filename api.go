// Package xmlcodec serializes object graphs to XML and reconstructs
// them, preserving shared references and cycles.
//
// The package separates three concerns:
//
//   - Format: the read/write strategy for one type, operating on
//     element cursors (OutputElement, InputElement)
//   - Binding: the mapping between runtime types and wire-level names,
//     namespaces and aliases
//   - Registry: format resolution by type, with specificity rules and
//     scoped overrides
//
// ObjectWriter and ObjectReader orchestrate these over a streaming
// tokenizer (package stream) with memory proportional to document
// depth, not document size.
//
// # References
//
// Values with pointer identity (pointers, maps) are tracked during a
// write pass: the first occurrence is written in full and tagged with
// an id attribute, later occurrences become empty ref elements. On
// read, instances are registered under their id before their body is
// parsed, so forward references and genuinely circular graphs resolve
// in a single pass.
//
// # Basic Usage
//
//	type Point struct {
//	    X int
//	    Y int
//	}
//
//	xmlcodec.RegisterStruct[Point](nil, nil)
//
//	var buf bytes.Buffer
//	err := xmlcodec.Write(ctx, &buf, &Point{X: 1, Y: 2})
//
//	v, err := xmlcodec.Read(ctx, &buf)
//	p := v.(*Point)
//
// Aliases and namespace prefixes shorten the wire form:
//
//	b := xmlcodec.DefaultBinding()
//	b.Alias(reflect.TypeFor[Point](), "Point")
//	b.DeclarePrefix("g", "myapp/geom")
//
// Custom formats implement the Format interface and register against a
// type; Registry.SetOverride scopes a replacement format to one writer
// or reader without disturbing the static table.
package xmlcodec

import (
	"context"
	"io"
)

// Write serializes v to dst as a complete XML document using the
// process-wide default binding and registry.
func Write(ctx context.Context, dst io.Writer, v any, opts ...Option) error {
	return NewObjectWriter(dst, opts...).Write(ctx, v)
}

// Read reconstructs the object graph serialized in src using the
// process-wide default binding and registry.
func Read(ctx context.Context, src io.Reader, opts ...Option) (any, error) {
	return NewObjectReader(src, opts...).Read(ctx)
}
