package stream

// Kind identifies the kind of token the reader is positioned on.
type Kind uint8

const (
	// KindNone is the zero value; the reader has not produced a token yet.
	KindNone Kind = iota

	// KindStartTag is an element start tag (including self-closing tags).
	KindStartTag

	// KindEndTag is an element end tag. Self-closing tags produce a
	// synthetic end tag immediately after their start tag.
	KindEndTag

	// KindText is character data between tags, entity references resolved.
	KindText

	// KindCData is the content of a CDATA section, verbatim.
	KindCData

	// KindEndDocument is produced once after the root element closes.
	KindEndDocument
)

// String returns the token kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindStartTag:
		return "StartTag"
	case KindEndTag:
		return "EndTag"
	case KindText:
		return "Text"
	case KindCData:
		return "CData"
	case KindEndDocument:
		return "EndDocument"
	}
	return "Unknown"
}

// Attr is a single attribute on a start tag. Namespace declarations
// (xmlns, xmlns:prefix) are consumed by the reader and never appear here.
type Attr struct {
	Prefix string
	Local  string
	Value  string
}

// Token is the reader's view of one XML token. The Attrs slice is owned
// by the reader and is valid until the next call to Next.
type Token struct {
	Kind   Kind
	Prefix string // tag prefix, empty when unprefixed
	Local  string // tag local name
	Text   string // character data for Text and CData tokens
	Attrs  []Attr
	Line   int
	Column int
}

// IsWhitespace reports whether the token is text consisting only of
// XML whitespace characters.
func (t *Token) IsWhitespace() bool {
	if t.Kind != KindText {
		return false
	}
	for i := 0; i < len(t.Text); i++ {
		switch t.Text[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

// Attr returns the value of the named un-prefixed attribute on the
// current start tag.
func (t *Token) Attr(local string) (string, bool) {
	for i := range t.Attrs {
		if t.Attrs[i].Prefix == "" && t.Attrs[i].Local == local {
			return t.Attrs[i].Value, true
		}
	}
	return "", false
}
