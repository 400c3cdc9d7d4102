package xmlcodec

import (
	"context"
	"io"
	"time"

	"github.com/zoobzio/xmlcodec/stream"
)

// ObjectWriter drives one top-level write: it owns the streaming tag
// writer, the write-side reference table and the re-entrancy stack,
// and consults the binding and registry it was configured with.
//
// An ObjectWriter is owned exclusively by one in-flight Write call. It
// is not reentrant and must never be shared across concurrent calls;
// Reset prepares it for the next document.
type ObjectWriter struct {
	sw       *stream.Writer
	binding  *Binding
	registry *Registry
	refs     *ReferenceResolver
	count    countingWriter
	out      OutputElement
	names    []string
	inflight []refKey
	class    classAttr
	expand   bool
	busy     bool
}

// countingWriter tracks bytes emitted for the completion signal.
type countingWriter struct {
	dst io.Writer
	n   int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.dst.Write(p)
	c.n += n
	return n, err
}

// NewObjectWriter creates a writer emitting to dst. Without options it
// uses the process-wide default binding and registry.
func NewObjectWriter(dst io.Writer, opts ...Option) *ObjectWriter {
	cfg := buildConfig(opts...)
	w := &ObjectWriter{
		binding:  cfg.binding,
		registry: cfg.registry,
		refs:     cfg.refs,
		class:    classAttr{local: cfg.classAttr, uri: cfg.classURI, set: cfg.classSet},
		expand:   cfg.expand,
	}
	w.count = countingWriter{dst: dst}
	w.sw = stream.NewWriter(&w.count)
	w.out.w = w
	return w
}

// Reset prepares the writer for a new output stream. Internal tables
// are cleared; buffers are retained.
func (w *ObjectWriter) Reset(dst io.Writer) {
	w.count = countingWriter{dst: dst}
	w.sw.Reset(&w.count)
	w.refs.reset()
	w.names = w.names[:0]
	w.inflight = w.inflight[:0]
	w.busy = false
}

// Write emits v as one root element and finishes the document. Any
// error aborts the operation and leaves the internal tables reset for
// the next use.
func (w *ObjectWriter) Write(ctx context.Context, v any) error {
	if w.busy {
		return errBusy
	}
	w.busy = true
	start := time.Now()
	emitWriteStart(ctx, rootTypeName(v))

	err := w.out.Add(v)
	if err == nil {
		err = w.sw.EndDocument()
	}

	emitWriteComplete(ctx, rootTypeName(v), w.count.n, time.Since(start), w.refs.next, err)
	w.refs.reset()
	w.inflight = w.inflight[:0]
	w.names = w.names[:0]
	w.busy = false
	return err
}
