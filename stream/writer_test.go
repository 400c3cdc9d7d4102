package stream

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_SelfClosingRoot(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("", "a", ""))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	assert.Equal(t, `<a/>`, buf.String())
}

func TestWriter_AttributesAndText(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("", "a", ""))
	require.NoError(t, w.Attribute("x", "1"))
	require.NoError(t, w.Attribute("y", "two"))
	require.NoError(t, w.Characters("hi"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	assert.Equal(t, `<a x="1" y="two">hi</a>`, buf.String())
}

func TestWriter_LazyFlushOnChild(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("", "a", ""))
	require.NoError(t, w.Attribute("x", "1"))
	require.NoError(t, w.StartElement("", "b", ""))
	require.NoError(t, w.Attribute("y", "2"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	assert.Equal(t, `<a x="1"><b y="2"/></a>`, buf.String())
}

func TestWriter_AttributeAfterContent(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("", "a", ""))
	require.NoError(t, w.Characters("text"))
	err := w.Attribute("x", "1")
	assert.ErrorIs(t, err, ErrNoOpenTag)
}

func TestWriter_TagOpen(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	assert.False(t, w.TagOpen())
	require.NoError(t, w.StartElement("", "a", ""))
	assert.True(t, w.TagOpen())
	require.NoError(t, w.Characters("x"))
	assert.False(t, w.TagOpen())
}

func TestWriter_NamespaceRepair(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("g", "P", "urn:geom"))
	require.NoError(t, w.StartElement("g", "Q", "urn:geom"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	// The inner element inherits the binding; no redeclaration.
	assert.Equal(t, `<g:P xmlns:g="urn:geom"><g:Q/></g:P>`, buf.String())
}

func TestWriter_DefaultNamespace(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("", "a", "urn:dft"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	assert.Equal(t, `<a xmlns="urn:dft"/>`, buf.String())
}

func TestWriter_RebindsPrefixForNewURI(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("g", "P", "urn:one"))
	require.NoError(t, w.StartElement("g", "Q", "urn:two"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	assert.Equal(t, `<g:P xmlns:g="urn:one"><g:Q xmlns:g="urn:two"/></g:P>`, buf.String())
}

func TestWriter_AttributeNS(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("", "a", ""))
	require.NoError(t, w.AttributeNS("m", "k", "urn:x", "v"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	assert.Equal(t, `<a xmlns:m="urn:x" m:k="v"/>`, buf.String())
}

func TestWriter_AttributeNSReusesScopePrefix(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("p", "a", "urn:x"))
	require.NoError(t, w.StartElement("", "b", ""))
	require.NoError(t, w.AttributeNS("m", "k", "urn:x", "v"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	assert.Equal(t, `<p:a xmlns:p="urn:x"><b p:k="v"/></p:a>`, buf.String())
}

func TestWriter_AttributeNSAvoidsPrefixClash(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("m", "a", "urn:one"))
	require.NoError(t, w.AttributeNS("m", "k", "urn:two", "v"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	assert.Equal(t, `<m:a xmlns:m="urn:one" xmlns:m1="urn:two" m1:k="v"/>`, buf.String())
}

func TestWriter_AttributeNSEmptyURI(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("", "a", ""))
	require.NoError(t, w.AttributeNS("m", "k", "", "v"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	assert.Equal(t, `<a k="v"/>`, buf.String())
}

func TestWriter_Escaping(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("", "a", ""))
	require.NoError(t, w.Attribute("q", `he said "hi" & left`))
	require.NoError(t, w.Characters("1 < 2 > 0 & done"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	assert.Equal(t,
		`<a q="he said &quot;hi&quot; &amp; left">1 &lt; 2 &gt; 0 &amp; done</a>`,
		buf.String())
}

func TestWriter_CDataSplitsTerminator(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("", "a", ""))
	require.NoError(t, w.CData("x]]>y"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	assert.Equal(t, `<a><![CDATA[x]]]]><![CDATA[>y]]></a>`, buf.String())
}

func TestWriter_Unbalanced(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("", "a", ""))
	assert.ErrorIs(t, w.EndDocument(), ErrUnbalanced)

	w.Reset(&buf)
	assert.ErrorIs(t, w.EndElement(), ErrUnbalanced)
}

func TestWriter_Reset(t *testing.T) {
	var first bytes.Buffer
	w := NewWriter(&first)
	require.NoError(t, w.StartElement("", "a", ""))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	var second bytes.Buffer
	w.Reset(&second)
	require.NoError(t, w.StartElement("", "b", ""))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	assert.Equal(t, `<a/>`, first.String())
	assert.Equal(t, `<b/>`, second.String())
}

func TestWriter_RoundTripsThroughReader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.StartElement("g", "root", "urn:geom"))
	require.NoError(t, w.Attribute("label", `tricky "value" <here>`))
	require.NoError(t, w.Characters("body & soul"))
	require.NoError(t, w.StartElement("", "child", ""))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	r := NewReader(strings.NewReader(buf.String()))
	tok, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "root", tok.Local)
	assert.Equal(t, "urn:geom", r.TokenNamespace())
	v, ok := tok.Attr("label")
	require.True(t, ok)
	assert.Equal(t, `tricky "value" <here>`, v)

	tok, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, KindText, tok.Kind)
	assert.Equal(t, "body & soul", tok.Text)

	tok, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "child", tok.Local)
}
