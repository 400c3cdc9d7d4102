package xmlcodec

import (
	"context"
	"errors"
	"io"
	"reflect"
	"time"

	"github.com/zoobzio/xmlcodec/stream"
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

var errBusy = errors.New("reader/writer is not reentrant: a pass is already in flight")

// ObjectReader drives one top-level read: it owns the pull tokenizer,
// the frame arena and the read-side reference table, and consults the
// binding and registry it was configured with.
//
// An ObjectReader is owned exclusively by one in-flight Read call. It
// is not reentrant and must never be shared across concurrent calls;
// Reset prepares it for the next document.
type ObjectReader struct {
	sr       *stream.Reader
	binding  *Binding
	registry *Registry
	refs     *ReferenceResolver
	frames   []inputFrame
	depth    int
	tok      *stream.Token
	in       InputElement
	class    classAttr
	busy     bool
}

// classAttr is a per-pass override of the binding's type-carrying
// attribute.
type classAttr struct {
	local string
	uri   string
	set   bool
}

func (c classAttr) resolve(b *Binding) (local, uri string) {
	if c.set {
		return c.local, c.uri
	}
	return b.TypeAttribute()
}

// NewObjectReader creates a reader over src. Without options it uses
// the process-wide default binding and registry.
func NewObjectReader(src io.Reader, opts ...Option) *ObjectReader {
	cfg := buildConfig(opts...)
	r := &ObjectReader{
		sr:       stream.NewReader(src),
		binding:  cfg.binding,
		registry: cfg.registry,
		refs:     cfg.refs,
		class:    classAttr{local: cfg.classAttr, uri: cfg.classURI, set: cfg.classSet},
	}
	r.in.r = r
	return r
}

// Reset prepares the reader for a new input stream. Internal tables
// are cleared; buffers are retained.
func (r *ObjectReader) Reset(src io.Reader) {
	r.sr.Reset(src)
	r.refs.reset()
	r.depth = 0
	r.tok = nil
	r.busy = false
}

// Read consumes one object graph from the stream and returns its root.
// Any error aborts the operation: no partial graph is returned and the
// internal tables are reset for the next use.
func (r *ObjectReader) Read(ctx context.Context) (any, error) {
	if r.busy {
		return nil, errBusy
	}
	r.busy = true
	start := time.Now()
	emitReadStart(ctx)

	root, err := r.readRoot()

	emitReadComplete(ctx, rootTypeName(root), time.Since(start), r.refs.next, err)
	r.refs.reset()
	r.depth = 0
	r.busy = false
	if err != nil {
		return nil, err
	}
	return root, nil
}

func (r *ObjectReader) readRoot() (any, error) {
	tok, err := r.advanceSignificant()
	if err != nil {
		return nil, err
	}
	if tok.Kind != stream.KindStartTag {
		return nil, newReadError(ErrIncompleteRead, nil, "", errors.New("expected root element"))
	}
	root, err := r.readInstance(nil)
	if err != nil {
		return nil, err
	}
	tok, err = r.advanceSignificant()
	if err != nil {
		return nil, err
	}
	if tok.Kind != stream.KindEndDocument {
		return nil, newReadError(ErrIncompleteRead, nil, "", errors.New("content after root element"))
	}
	return root, nil
}

func (r *ObjectReader) advance() (*stream.Token, error) {
	tok, err := r.sr.Next()
	if err != nil {
		return nil, err
	}
	r.tok = tok
	return tok, nil
}

func (r *ObjectReader) advanceSignificant() (*stream.Token, error) {
	tok, err := r.sr.NextSignificant()
	if err != nil {
		return nil, err
	}
	r.tok = tok
	return tok, nil
}

// frame returns the innermost frame.
func (r *ObjectReader) frame() *inputFrame {
	return &r.frames[r.depth-1]
}

// pushFrame takes a frame from the depth-indexed arena, growing it on
// first descent past the current maximum depth.
func (r *ObjectReader) pushFrame(local, uri string, attrs []stream.Attr) *inputFrame {
	if r.depth == len(r.frames) {
		r.frames = append(r.frames, inputFrame{})
	}
	fr := &r.frames[r.depth]
	r.depth++
	fr.state = stateFresh
	fr.local = local
	fr.uri = uri
	fr.attrs = append(fr.attrs[:0], attrs...)
	fr.suppressRefs = false
	return fr
}

func (r *ObjectReader) popFrame() {
	r.depth--
}

func rootTypeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
