package stream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, doc string) []Token {
	t.Helper()
	r := NewReader(strings.NewReader(doc))
	var toks []Token
	for {
		tok, err := r.Next()
		require.NoError(t, err)
		toks = append(toks, *tok)
		if tok.Kind == KindEndDocument {
			return toks
		}
	}
}

func TestReader_SimpleDocument(t *testing.T) {
	toks := tokenize(t, `<a><b x="1">hi</b></a>`)

	require.Len(t, toks, 6)
	assert.Equal(t, KindStartTag, toks[0].Kind)
	assert.Equal(t, "a", toks[0].Local)
	assert.Equal(t, KindStartTag, toks[1].Kind)
	assert.Equal(t, "b", toks[1].Local)
	v, ok := toks[1].Attr("x")
	require.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, KindText, toks[2].Kind)
	assert.Equal(t, "hi", toks[2].Text)
	assert.Equal(t, KindEndTag, toks[3].Kind)
	assert.Equal(t, "b", toks[3].Local)
	assert.Equal(t, KindEndTag, toks[4].Kind)
	assert.Equal(t, "a", toks[4].Local)
	assert.Equal(t, KindEndDocument, toks[5].Kind)
}

func TestReader_SelfClosing(t *testing.T) {
	toks := tokenize(t, `<a><b/></a>`)

	require.Len(t, toks, 5)
	assert.Equal(t, KindStartTag, toks[1].Kind)
	assert.Equal(t, "b", toks[1].Local)
	assert.Equal(t, KindEndTag, toks[2].Kind)
	assert.Equal(t, "b", toks[2].Local)
}

func TestReader_XMLDeclAndComments(t *testing.T) {
	toks := tokenize(t, "<?xml version=\"1.0\"?>\n<!-- outer --><a><!-- inner --><b/></a>")

	var locals []string
	for _, tok := range toks {
		if tok.Kind == KindStartTag {
			locals = append(locals, tok.Local)
		}
	}
	assert.Equal(t, []string{"a", "b"}, locals)
}

func TestReader_Entities(t *testing.T) {
	toks := tokenize(t, `<a b="&lt;&quot;">x&amp;y&#65;&#x42;</a>`)

	v, _ := toks[0].Attr("b")
	assert.Equal(t, `<"`, v)
	assert.Equal(t, "x&yAB", toks[1].Text)
}

func TestReader_CData(t *testing.T) {
	toks := tokenize(t, `<a><![CDATA[<raw> & markup]]></a>`)

	require.Equal(t, KindCData, toks[1].Kind)
	assert.Equal(t, "<raw> & markup", toks[1].Text)
}

func TestReader_NextSignificant(t *testing.T) {
	r := NewReader(strings.NewReader("<a>\n  <b/>\n</a>"))

	tok, err := r.NextSignificant()
	require.NoError(t, err)
	assert.Equal(t, "a", tok.Local)

	tok, err = r.NextSignificant()
	require.NoError(t, err)
	require.Equal(t, KindStartTag, tok.Kind)
	assert.Equal(t, "b", tok.Local)
}

func TestReader_Namespaces(t *testing.T) {
	r := NewReader(strings.NewReader(`<g:a xmlns:g="urn:geom" xmlns="urn:dft"><b/></g:a>`))

	tok, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "g", tok.Prefix)
	assert.Equal(t, "urn:geom", r.TokenNamespace())

	tok, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", tok.Local)
	assert.Equal(t, "urn:dft", r.TokenNamespace())

	uri, ok := r.Namespace("g")
	require.True(t, ok)
	assert.Equal(t, "urn:geom", uri)
}

func TestReader_NamespaceScopeEnds(t *testing.T) {
	r := NewReader(strings.NewReader(`<a><b xmlns:p="urn:p"/><c/></a>`))

	for i := 0; i < 4; i++ { // <a> <b> </b> <c>
		_, err := r.Next()
		require.NoError(t, err)
	}
	_, ok := r.Namespace("p")
	assert.False(t, ok, "prefix must go out of scope with its element")
}

func TestReader_Position(t *testing.T) {
	r := NewReader(strings.NewReader("<a>\n  <b/>\n</a>"))

	_, err := r.Next()
	require.NoError(t, err)
	line, col := r.Position()
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	_, err = r.NextSignificant()
	require.NoError(t, err)
	line, _ = r.Position()
	assert.Equal(t, 2, line)
}

func TestReader_EndDocumentSticky(t *testing.T) {
	r := NewReader(strings.NewReader("<a/>"))
	for i := 0; i < 2; i++ {
		_, err := r.Next()
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		tok, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, KindEndDocument, tok.Kind)
	}
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unterminated start tag", `<a x="1"`},
		{"mismatched end tag", `<a></b>`},
		{"crossed nesting", `<a><b></a></b>`},
		{"multiple roots", `<a/><b/>`},
		{"text outside root", `<a/>trailing`},
		{"missing root", `   `},
		{"doctype", `<!DOCTYPE a><a/>`},
		{"unbound prefix", `<p:a/>`},
		{"unbound attribute prefix", `<a p:x="1"/>`},
		{"duplicate attribute", `<a x="1" x="2"/>`},
		{"unknown entity", `<a>&nope;</a>`},
		{"bad char ref", `<a>&#x0;</a>`},
		{"unterminated cdata", `<a><![CDATA[x</a>`},
		{"lt in attribute", `<a x="<"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.doc))
			var err error
			for err == nil {
				var tok *Token
				tok, err = r.Next()
				if err == nil && tok.Kind == KindEndDocument {
					t.Fatal("document accepted")
				}
			}
			require.True(t, errors.Is(err, ErrMalformed), "want ErrMalformed, got %v", err)

			var syn *SyntaxError
			require.True(t, errors.As(err, &syn))
			assert.Greater(t, syn.Line, 0)
		})
	}
}

func TestReader_ErrorSticky(t *testing.T) {
	r := NewReader(strings.NewReader(`<a></b>`))
	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.Error(t, err)
	_, again := r.Next()
	assert.Equal(t, err, again)
}

func TestReader_Reset(t *testing.T) {
	r := NewReader(strings.NewReader(`<a></b>`))
	r.Next()
	_, err := r.Next()
	require.Error(t, err)

	r.Reset(strings.NewReader(`<a/>`))
	tok, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", tok.Local)
}

func TestReader_TokenAttr(t *testing.T) {
	r := NewReader(strings.NewReader(`<a xmlns:m="urn:x" m:k="q" k="plain"/>`))
	tok, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, KindStartTag, tok.Kind)

	v, ok := r.TokenAttr("k", "urn:x")
	require.True(t, ok)
	assert.Equal(t, "q", v)

	v, ok = r.TokenAttr("k", "")
	require.True(t, ok)
	assert.Equal(t, "plain", v)

	_, ok = r.TokenAttr("k", "urn:other")
	assert.False(t, ok)
}

// meteredReader counts how many bytes the tokenizer has pulled from
// the source.
type meteredReader struct {
	r io.Reader
	n int
}

func (m *meteredReader) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	m.n += n
	return n, err
}

func TestReader_StreamsWideDocuments(t *testing.T) {
	var b strings.Builder
	b.WriteString("<root>")
	for i := 0; i < 50000; i++ {
		b.WriteString(`<item v="x"/>`)
	}
	b.WriteString("</root>")
	doc := b.String()

	src := &meteredReader{r: strings.NewReader(doc)}
	r := NewReader(src)
	for i := 0; i < 10; i++ {
		tok, err := r.Next()
		require.NoError(t, err)
		require.NotEqual(t, KindEndDocument, tok.Kind)
	}

	// A pull tokenizer holds one buffered chunk, never the document.
	assert.Less(t, src.n, len(doc)/4,
		"consumed %d of %d bytes after 10 tokens", src.n, len(doc))
}

func TestReader_Depth(t *testing.T) {
	r := NewReader(strings.NewReader(`<a><b><c/></b></a>`))
	depths := []int{}
	for {
		tok, err := r.Next()
		require.NoError(t, err)
		if tok.Kind == KindEndDocument {
			break
		}
		depths = append(depths, r.Depth())
	}
	assert.Equal(t, []int{1, 2, 3, 2, 1, 0}, depths)
}
