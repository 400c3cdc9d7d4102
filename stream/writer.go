package stream

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrNoOpenTag is returned when an attribute is written after the
	// enclosing start tag has already been flushed to the stream.
	ErrNoOpenTag = errors.New("no open start tag")

	// ErrUnbalanced is returned when the document is finished with
	// elements still open, or an end tag has no matching start tag.
	ErrUnbalanced = errors.New("unbalanced element nesting")
)

// Writer emits a well-formed XML element stream. The start tag of the
// innermost element is held back until its first content arrives (or
// until it closes, producing a self-closing tag), so callers may
// interleave attribute and child emission freely. Memory use is bounded
// by nesting depth.
//
// A Writer is owned by a single write pass and is not safe for
// concurrent use.
type Writer struct {
	w         *bufio.Writer
	ns        nsStack
	stack     []stackedTag
	attrs     []pendingAttr
	pendingNS []pendingAttr
	buf       []byte
	err       error
}

type stackedTag struct {
	qname   string
	flushed bool
}

type pendingAttr struct {
	name  string
	value string
}

// NewWriter creates a writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	sw := &Writer{}
	sw.Reset(w)
	return sw
}

// Reset prepares the writer for a new output stream, retaining internal
// buffers.
func (w *Writer) Reset(out io.Writer) {
	if w.w == nil {
		w.w = bufio.NewWriter(out)
	} else {
		w.w.Reset(out)
	}
	w.ns.reset()
	w.stack = w.stack[:0]
	w.attrs = w.attrs[:0]
	w.pendingNS = w.pendingNS[:0]
	w.err = nil
}

// Depth reports the number of currently open elements.
func (w *Writer) Depth() int {
	return len(w.stack)
}

// TagOpen reports whether the innermost start tag is still unflushed,
// meaning attributes may still be added.
func (w *Writer) TagOpen() bool {
	return len(w.stack) > 0 && !w.stack[len(w.stack)-1].flushed
}

// StartElement opens a new element. A non-empty uri triggers a repaired
// namespace declaration on this element unless the prefix already binds
// that uri in the active scope.
func (w *Writer) StartElement(prefix, local, uri string) error {
	if w.err != nil {
		return w.err
	}
	if err := w.flushPending(false); err != nil {
		return err
	}

	var decls []nsBinding
	if uri != "" {
		if bound, ok := w.ns.lookup(prefix); !ok || bound != uri {
			decls = append(decls, nsBinding{prefix: prefix, uri: uri})
		}
	}
	w.ns.push(decls)

	qname := local
	if prefix != "" {
		qname = prefix + ":" + local
	}
	w.stack = append(w.stack, stackedTag{qname: qname})
	w.attrs = w.attrs[:0]
	for _, d := range decls {
		name := "xmlns"
		if d.prefix != "" {
			name = "xmlns:" + d.prefix
		}
		w.pendingNS = append(w.pendingNS, pendingAttr{name: name, value: d.uri})
	}
	return nil
}

// Attribute adds an attribute to the innermost start tag. It fails with
// ErrNoOpenTag once any content has been written for that element.
func (w *Writer) Attribute(name, value string) error {
	if w.err != nil {
		return w.err
	}
	if !w.TagOpen() {
		return ErrNoOpenTag
	}
	w.attrs = append(w.attrs, pendingAttr{name: name, value: value})
	return nil
}

// AttributeNS adds a namespace-qualified attribute to the innermost
// start tag, reusing an in-scope prefix bound to uri or declaring one
// on this tag. Attributes never use the default namespace, so prefix
// is a non-empty suggestion used when a declaration is needed; an
// empty uri degrades to a plain Attribute call.
func (w *Writer) AttributeNS(prefix, local, uri, value string) error {
	if w.err != nil {
		return w.err
	}
	if uri == "" {
		return w.Attribute(local, value)
	}
	if !w.TagOpen() {
		return ErrNoOpenTag
	}
	p, ok := w.ns.prefixFor(uri)
	if !ok {
		base := prefix
		if base == "" {
			base = "ns"
		}
		p = base
		for n := 1; w.prefixTaken(p, uri); n++ {
			p = base + strconv.Itoa(n)
		}
		w.ns.addToScope(nsBinding{prefix: p, uri: uri})
		w.pendingNS = append(w.pendingNS, pendingAttr{name: "xmlns:" + p, value: uri})
	}
	w.attrs = append(w.attrs, pendingAttr{name: p + ":" + local, value: value})
	return nil
}

// prefixTaken reports whether p cannot be declared for uri on the open
// tag: the tag already declares it for another URI, or the element's
// own name uses it and a redeclaration would move the element into the
// attribute's namespace.
func (w *Writer) prefixTaken(p, uri string) bool {
	name := "xmlns:" + p
	for _, d := range w.pendingNS {
		if d.name == name {
			return d.value != uri
		}
	}
	if strings.HasPrefix(w.stack[len(w.stack)-1].qname, p+":") {
		bound, ok := w.ns.lookup(p)
		return !ok || bound != uri
	}
	return false
}

// Characters writes escaped character data.
func (w *Writer) Characters(s string) error {
	if w.err != nil {
		return w.err
	}
	if err := w.flushPending(false); err != nil {
		return err
	}
	w.buf = appendEscaped(w.buf[:0], s, false)
	_, err := w.w.Write(w.buf)
	return w.setErr(err)
}

// CData writes a CDATA section. Occurrences of "]]>" in s are split
// across adjacent sections.
func (w *Writer) CData(s string) error {
	if w.err != nil {
		return w.err
	}
	if err := w.flushPending(false); err != nil {
		return err
	}
	if _, err := w.w.WriteString("<![CDATA["); err != nil {
		return w.setErr(err)
	}
	for {
		i := strings.Index(s, "]]>")
		if i < 0 {
			break
		}
		if _, err := w.w.WriteString(s[:i+2]); err != nil {
			return w.setErr(err)
		}
		if _, err := w.w.WriteString("]]><![CDATA["); err != nil {
			return w.setErr(err)
		}
		s = s[i+2:]
	}
	if _, err := w.w.WriteString(s); err != nil {
		return w.setErr(err)
	}
	_, err := w.w.WriteString("]]>")
	return w.setErr(err)
}

// EndElement closes the innermost element. An element whose start tag
// was never flushed becomes a self-closing tag.
func (w *Writer) EndElement() error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) == 0 {
		return w.setErr(ErrUnbalanced)
	}
	top := w.stack[len(w.stack)-1]
	if !top.flushed {
		if err := w.flushPending(true); err != nil {
			return err
		}
	} else {
		if _, err := w.w.WriteString("</" + top.qname + ">"); err != nil {
			return w.setErr(err)
		}
	}
	w.stack = w.stack[:len(w.stack)-1]
	w.ns.pop()
	return nil
}

// EndDocument verifies balance and flushes buffered output.
func (w *Writer) EndDocument() error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) > 0 {
		return w.setErr(ErrUnbalanced)
	}
	return w.setErr(w.w.Flush())
}

// Flush forces buffered output to the underlying stream.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.flushPending(false); err != nil {
		return err
	}
	return w.setErr(w.w.Flush())
}

// flushPending writes the held-back start tag of the innermost element,
// if any. selfClose emits it as an empty element.
func (w *Writer) flushPending(selfClose bool) error {
	if len(w.stack) == 0 {
		return nil
	}
	top := &w.stack[len(w.stack)-1]
	if top.flushed {
		return nil
	}
	w.buf = append(w.buf[:0], '<')
	w.buf = append(w.buf, top.qname...)
	for _, d := range w.pendingNS {
		w.buf = append(w.buf, ' ')
		w.buf = append(w.buf, d.name...)
		w.buf = append(w.buf, '=', '"')
		w.buf = appendEscaped(w.buf, d.value, true)
		w.buf = append(w.buf, '"')
	}
	for _, a := range w.attrs {
		w.buf = append(w.buf, ' ')
		w.buf = append(w.buf, a.name...)
		w.buf = append(w.buf, '=', '"')
		w.buf = appendEscaped(w.buf, a.value, true)
		w.buf = append(w.buf, '"')
	}
	if selfClose {
		w.buf = append(w.buf, '/', '>')
	} else {
		w.buf = append(w.buf, '>')
	}
	if _, err := w.w.Write(w.buf); err != nil {
		return w.setErr(err)
	}
	top.flushed = true
	w.attrs = w.attrs[:0]
	w.pendingNS = w.pendingNS[:0]
	return nil
}

func (w *Writer) setErr(err error) error {
	if err != nil && w.err == nil {
		w.err = err
	}
	return err
}
