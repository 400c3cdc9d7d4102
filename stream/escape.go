package stream

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

var standardEntities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"apos": "'",
	"quot": "\"",
}

// unescape resolves entity and character references in data.
func unescape(data string) (string, error) {
	amp := strings.IndexByte(data, '&')
	if amp < 0 {
		return data, nil
	}
	var b strings.Builder
	b.Grow(len(data))
	b.WriteString(data[:amp])
	for i := amp; i < len(data); i++ {
		if data[i] != '&' {
			b.WriteByte(data[i])
			continue
		}
		semi := strings.IndexByte(data[i+1:], ';')
		if semi < 0 {
			return "", errInvalidEntity
		}
		ref := data[i+1 : i+1+semi]
		if ref == "" {
			return "", errInvalidEntity
		}
		if ref[0] == '#' {
			r, err := parseCharRef(ref)
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		} else {
			rep, ok := standardEntities[ref]
			if !ok {
				return "", errInvalidEntity
			}
			b.WriteString(rep)
		}
		i += semi + 1
	}
	return b.String(), nil
}

func parseCharRef(ref string) (rune, error) {
	digits := ref[1:]
	base := 10
	if len(digits) > 0 && (digits[0] == 'x' || digits[0] == 'X') {
		base = 16
		digits = digits[1:]
	}
	if digits == "" {
		return 0, errInvalidCharRef
	}
	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, errInvalidCharRef
	}
	r := rune(n)
	if !isXMLChar(r) {
		return 0, errInvalidCharRef
	}
	return r, nil
}

func isXMLChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// appendEscaped writes s with markup characters replaced by entity
// references. Attribute values additionally escape quote characters.
// Control characters below space become numeric character references.
func appendEscaped(dst []byte, s string, attr bool) []byte {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '<':
			dst = append(dst, "&lt;"...)
		case r == '>':
			dst = append(dst, "&gt;"...)
		case r == '&':
			dst = append(dst, "&amp;"...)
		case attr && r == '\'':
			dst = append(dst, "&apos;"...)
		case attr && r == '"':
			dst = append(dst, "&quot;"...)
		case r < 0x20 && r != '\t' && r != '\n' && r != '\r':
			dst = append(dst, "&#"...)
			dst = strconv.AppendInt(dst, int64(r), 10)
			dst = append(dst, ';')
		case attr && (r == '\t' || r == '\n' || r == '\r'):
			dst = append(dst, "&#"...)
			dst = strconv.AppendInt(dst, int64(r), 10)
			dst = append(dst, ';')
		default:
			dst = append(dst, s[i:i+size]...)
		}
		i += size
	}
	return dst
}

// isNameStart reports whether b can begin an XML name. Multi-byte name
// characters are accepted without further classification.
func isNameStart(b byte) bool {
	return b == '_' || b == ':' ||
		(b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b >= 0x80
}

// isNameByte reports whether b can appear inside an XML name.
func isNameByte(b byte) bool {
	return isNameStart(b) || b == '-' || b == '.' || (b >= '0' && b <= '9')
}
