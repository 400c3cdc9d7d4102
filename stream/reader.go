package stream

import (
	"bufio"
	"io"
	"strings"
)

const readerBufferSize = 32 * 1024

// Reader is a pull tokenizer over an XML byte stream. It produces one
// token at a time and keeps only the open-element and namespace stacks,
// so memory use is bounded by nesting depth, never document size.
//
// A Reader is owned by a single read pass and is not safe for
// concurrent use.
type Reader struct {
	src        *bufio.Reader
	ns         nsStack
	stack      []openElem
	tok        Token
	attrs      []Attr
	decls      []nsBinding
	line       int
	column     int
	tokLine    int
	tokColumn  int
	pendingEnd bool
	rootSeen   bool
	rootClosed bool
	err        error
}

type openElem struct {
	prefix string
	local  string
}

// NewReader creates a reader over src.
func NewReader(src io.Reader) *Reader {
	r := &Reader{}
	r.Reset(src)
	return r
}

// Reset prepares the reader for a new input stream, retaining internal
// buffers.
func (r *Reader) Reset(src io.Reader) {
	if r.src == nil {
		r.src = bufio.NewReaderSize(src, readerBufferSize)
	} else {
		r.src.Reset(src)
	}
	r.ns.reset()
	r.stack = r.stack[:0]
	r.attrs = r.attrs[:0]
	r.decls = r.decls[:0]
	r.tok = Token{}
	r.line = 1
	r.column = 1
	r.pendingEnd = false
	r.rootSeen = false
	r.rootClosed = false
	r.err = nil
}

// Depth reports the number of currently open elements.
func (r *Reader) Depth() int {
	return len(r.stack)
}

// Position returns the line and column of the current token.
func (r *Reader) Position() (line, column int) {
	return r.tokLine, r.tokColumn
}

// Namespace resolves a prefix in the current scope. The empty prefix
// resolves to the default namespace URI, which may itself be empty.
func (r *Reader) Namespace(prefix string) (string, bool) {
	return r.ns.lookup(prefix)
}

// TokenNamespace resolves the namespace URI of the current start or end
// tag. An unprefixed tag in the absence of a default namespace resolves
// to the empty URI.
func (r *Reader) TokenNamespace() string {
	uri, _ := r.ns.lookup(r.tok.Prefix)
	return uri
}

// TokenAttr returns the value of the named attribute on the current
// start tag, matching by namespace. An empty uri matches only
// unprefixed attributes; a non-empty uri matches prefixed attributes
// whose prefix resolves to uri in the current scope.
func (r *Reader) TokenAttr(local, uri string) (string, bool) {
	for i := range r.tok.Attrs {
		a := &r.tok.Attrs[i]
		if a.Local != local {
			continue
		}
		if uri == "" {
			if a.Prefix == "" {
				return a.Value, true
			}
			continue
		}
		if a.Prefix == "" {
			continue
		}
		if got, ok := r.ns.lookup(a.Prefix); ok && got == uri {
			return a.Value, true
		}
	}
	return "", false
}

// Next advances to the next token. Comments and processing instructions
// are consumed transparently. After the root element closes, Next
// returns an EndDocument token; subsequent calls keep returning it.
func (r *Reader) Next() (*Token, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.pendingEnd {
		r.pendingEnd = false
		return r.emitEndTag(r.tokLine, r.tokColumn)
	}
	for {
		r.tokLine, r.tokColumn = r.line, r.column
		b, err := r.readByte()
		if err != nil {
			return r.atEOF()
		}
		if b != '<' {
			text, err := r.readText(b)
			if err != nil {
				return nil, r.fail(err)
			}
			if len(r.stack) == 0 {
				if !allWhitespace(text) {
					return nil, r.fail(errContentOutside)
				}
				continue
			}
			r.tok = Token{Kind: KindText, Text: text, Line: r.tokLine, Column: r.tokColumn}
			return &r.tok, nil
		}

		b, err = r.readByte()
		if err != nil {
			return nil, r.fail(errUnexpectedEOF)
		}
		switch b {
		case '?':
			if err := r.skipPI(); err != nil {
				return nil, r.fail(err)
			}
		case '!':
			tok, err := r.readBang()
			if err != nil {
				return nil, r.fail(err)
			}
			if tok != nil {
				return tok, nil
			}
		case '/':
			return r.readEndTag()
		default:
			return r.readStartTag(b)
		}
	}
}

// NextSignificant advances past whitespace-only text to the next
// significant token.
func (r *Reader) NextSignificant() (*Token, error) {
	for {
		tok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if tok.IsWhitespace() {
			continue
		}
		return tok, nil
	}
}

func (r *Reader) atEOF() (*Token, error) {
	if len(r.stack) > 0 {
		return nil, r.fail(errUnexpectedEOF)
	}
	if !r.rootClosed {
		return nil, r.fail(errMissingRoot)
	}
	r.tok = Token{Kind: KindEndDocument, Line: r.line, Column: r.column}
	return &r.tok, nil
}

func (r *Reader) fail(cause error) error {
	if _, ok := cause.(*SyntaxError); ok {
		r.err = cause
		return cause
	}
	r.err = syntaxErr(r.tokLine, r.tokColumn, cause)
	return r.err
}

func (r *Reader) readByte() (byte, error) {
	b, err := r.src.ReadByte()
	if err != nil {
		return 0, err
	}
	if b == '\n' {
		r.line++
		r.column = 1
	} else {
		r.column++
	}
	return b, nil
}

func (r *Reader) peekByte() (byte, error) {
	p, err := r.src.Peek(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// readText consumes character data up to the next '<'. The first byte
// has already been read.
func (r *Reader) readText(first byte) (string, error) {
	var b strings.Builder
	b.WriteByte(first)
	for {
		p, err := r.peekByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		if p == '<' {
			break
		}
		c, _ := r.readByte()
		b.WriteByte(c)
	}
	return unescape(b.String())
}

func allWhitespace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

// skipPI consumes a processing instruction (or the XML declaration)
// after "<?" without interpreting it.
func (r *Reader) skipPI() error {
	var prev byte
	for {
		b, err := r.readByte()
		if err != nil {
			return errUnexpectedEOF
		}
		if prev == '?' && b == '>' {
			return nil
		}
		prev = b
	}
}

// readBang dispatches "<!" constructs: comments are skipped, CDATA
// sections become tokens, DOCTYPE is rejected.
func (r *Reader) readBang() (*Token, error) {
	if ok, err := r.consume("--"); err != nil {
		return nil, err
	} else if ok {
		return nil, r.skipComment()
	}
	if ok, err := r.consume("[CDATA["); err != nil {
		return nil, err
	} else if ok {
		return r.readCData()
	}
	if ok, err := r.consume("DOCTYPE"); err != nil {
		return nil, err
	} else if ok {
		return nil, errDoctype
	}
	return nil, errInvalidToken
}

// consume reads s if and only if it is next in the stream.
func (r *Reader) consume(s string) (bool, error) {
	p, err := r.src.Peek(len(s))
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	if string(p) != s {
		return false, nil
	}
	for i := 0; i < len(s); i++ {
		if _, err := r.readByte(); err != nil {
			return false, errUnexpectedEOF
		}
	}
	return true, nil
}

func (r *Reader) skipComment() error {
	var p1, p2 byte
	for {
		b, err := r.readByte()
		if err != nil {
			return errInvalidComment
		}
		if p1 == '-' && p2 == '-' {
			if b != '>' {
				return errInvalidComment
			}
			return nil
		}
		p1, p2 = p2, b
	}
}

func (r *Reader) readCData() (*Token, error) {
	if len(r.stack) == 0 {
		return nil, errContentOutside
	}
	var b strings.Builder
	var p1, p2 byte
	for {
		c, err := r.readByte()
		if err != nil {
			return nil, errUnterminatedCData
		}
		if p1 == ']' && p2 == ']' && c == '>' {
			s := b.String()
			r.tok = Token{Kind: KindCData, Text: s[:len(s)-2], Line: r.tokLine, Column: r.tokColumn}
			return &r.tok, nil
		}
		b.WriteByte(c)
		p1, p2 = p2, c
	}
}

// readName reads an XML name whose first byte has already been read.
func (r *Reader) readName(first byte) (string, error) {
	if !isNameStart(first) {
		return "", errInvalidName
	}
	var b strings.Builder
	b.WriteByte(first)
	for {
		p, err := r.peekByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		if !isNameByte(p) {
			break
		}
		c, _ := r.readByte()
		b.WriteByte(c)
	}
	return b.String(), nil
}

// splitName splits a raw qualified name into prefix and local part.
func splitName(raw string) (prefix, local string, err error) {
	i := strings.IndexByte(raw, ':')
	if i < 0 {
		return "", raw, nil
	}
	prefix, local = raw[:i], raw[i+1:]
	if prefix == "" || local == "" || strings.IndexByte(local, ':') >= 0 {
		return "", "", errInvalidName
	}
	return prefix, local, nil
}

func (r *Reader) skipSpace() (byte, error) {
	for {
		b, err := r.readByte()
		if err != nil {
			return 0, errUnexpectedEOF
		}
		switch b {
		case ' ', '\t', '\r', '\n':
		default:
			return b, nil
		}
	}
}

func (r *Reader) readStartTag(first byte) (*Token, error) {
	if r.rootClosed && len(r.stack) == 0 {
		return nil, r.fail(errMultipleRoots)
	}
	raw, err := r.readName(first)
	if err != nil {
		return nil, r.fail(err)
	}
	prefix, local, err := splitName(raw)
	if err != nil {
		return nil, r.fail(err)
	}

	r.attrs = r.attrs[:0]
	r.decls = r.decls[:0]
	selfClosing := false

	for {
		b, err := r.skipSpace()
		if err != nil {
			return nil, r.fail(err)
		}
		if b == '/' {
			c, err := r.readByte()
			if err != nil || c != '>' {
				return nil, r.fail(errInvalidToken)
			}
			selfClosing = true
			break
		}
		if b == '>' {
			break
		}
		if err := r.readAttribute(b); err != nil {
			return nil, r.fail(err)
		}
	}

	r.ns.push(r.decls)
	if prefix != "" && prefix != "xml" {
		if _, ok := r.ns.lookup(prefix); !ok {
			return nil, r.fail(errUnboundPrefix)
		}
	}
	for i := range r.attrs {
		p := r.attrs[i].Prefix
		if p == "" || p == "xml" {
			continue
		}
		if _, ok := r.ns.lookup(p); !ok {
			return nil, r.fail(errUnboundPrefix)
		}
	}

	r.rootSeen = true
	r.stack = append(r.stack, openElem{prefix: prefix, local: local})
	r.tok = Token{
		Kind:   KindStartTag,
		Prefix: prefix,
		Local:  local,
		Attrs:  r.attrs,
		Line:   r.tokLine,
		Column: r.tokColumn,
	}
	r.pendingEnd = selfClosing
	return &r.tok, nil
}

// readAttribute parses one attribute whose first name byte is b.
// Namespace declarations go to the scope under construction instead of
// the attribute list.
func (r *Reader) readAttribute(b byte) error {
	raw, err := r.readName(b)
	if err != nil {
		return err
	}
	eq, err := r.skipSpace()
	if err != nil {
		return err
	}
	if eq != '=' {
		return errInvalidToken
	}
	quote, err := r.skipSpace()
	if err != nil {
		return err
	}
	if quote != '"' && quote != '\'' {
		return errInvalidToken
	}
	var vb strings.Builder
	for {
		c, err := r.readByte()
		if err != nil {
			return errUnexpectedEOF
		}
		if c == quote {
			break
		}
		if c == '<' {
			return errInvalidToken
		}
		vb.WriteByte(c)
	}
	value, err := unescape(vb.String())
	if err != nil {
		return err
	}

	if raw == "xmlns" {
		r.decls = append(r.decls, nsBinding{prefix: "", uri: value})
		return nil
	}
	if rest, ok := strings.CutPrefix(raw, "xmlns:"); ok {
		if rest == "" {
			return errInvalidName
		}
		r.decls = append(r.decls, nsBinding{prefix: rest, uri: value})
		return nil
	}

	prefix, local, err := splitName(raw)
	if err != nil {
		return err
	}
	for i := range r.attrs {
		if r.attrs[i].Prefix == prefix && r.attrs[i].Local == local {
			return errDuplicateAttr
		}
	}
	r.attrs = append(r.attrs, Attr{Prefix: prefix, Local: local, Value: value})
	return nil
}

func (r *Reader) readEndTag() (*Token, error) {
	b, err := r.readByte()
	if err != nil {
		return nil, r.fail(errUnexpectedEOF)
	}
	raw, err := r.readName(b)
	if err != nil {
		return nil, r.fail(err)
	}
	prefix, local, err := splitName(raw)
	if err != nil {
		return nil, r.fail(err)
	}
	c, err := r.skipSpace()
	if err != nil {
		return nil, r.fail(err)
	}
	if c != '>' {
		return nil, r.fail(errInvalidToken)
	}
	if len(r.stack) == 0 {
		return nil, r.fail(errMismatchedEndTag)
	}
	top := r.stack[len(r.stack)-1]
	if top.prefix != prefix || top.local != local {
		return nil, r.fail(errMismatchedEndTag)
	}
	return r.emitEndTag(r.tokLine, r.tokColumn)
}

// emitEndTag produces the end token for the innermost open element and
// unwinds one level of both stacks.
func (r *Reader) emitEndTag(line, column int) (*Token, error) {
	top := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	r.tok = Token{
		Kind:   KindEndTag,
		Prefix: top.prefix,
		Local:  top.local,
		Line:   line,
		Column: column,
	}
	r.ns.pop()
	if len(r.stack) == 0 {
		r.rootClosed = true
	}
	return &r.tok, nil
}
