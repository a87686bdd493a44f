package pattern

import (
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokLiteral tokenKind = iota
	tokPlaceholder
	tokOpenBrace
	tokCloseBrace
)

type token struct {
	kind   tokenKind
	text   string // literal text, unescaped
	offset int
	spec   PlaceholderSpec
}

// lex splits a pattern into literal runs, placeholders and stray braces in a
// single left-to-right scan.
func lex(src string) ([]token, error) {
	var tokens []token
	var lit strings.Builder

	flush := func() {
		if lit.Len() == 0 {
			return
		}
		tokens = append(tokens, token{kind: tokLiteral, text: lit.String()})
		lit.Reset()
	}

	for i := 0; i < len(src); {
		c := src[i]
		switch c {
		case '\\':
			// The next character is literal. A trailing backslash is itself.
			if i+1 == len(src) {
				lit.WriteByte('\\')
				i++
				continue
			}
			_, size := utf8.DecodeRuneInString(src[i+1:])
			lit.WriteString(src[i+1 : i+1+size])
			i += 1 + size
		case '{':
			next := peek(src, i+1)
			if next == '{' {
				lit.WriteByte('{')
				i += 2
				continue
			}
			if isNameStart(next) {
				flush()
				spec, end, err := scanPlaceholder(src, i)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, token{kind: tokPlaceholder, offset: i, spec: spec})
				i = end
				continue
			}
			flush()
			tokens = append(tokens, token{kind: tokOpenBrace, offset: i})
			i++
		case '}':
			if peek(src, i+1) == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			flush()
			tokens = append(tokens, token{kind: tokCloseBrace, offset: i})
			i++
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return tokens, nil
}

// scanPlaceholder parses `{name}` or `{name:hint}` starting at the opening
// brace and returns the index just past the closing brace.
func scanPlaceholder(src string, start int) (PlaceholderSpec, int, error) {
	i := start + 1
	for i < len(src) && isNameChar(src[i]) {
		i++
	}
	name := src[start+1 : i]

	ws := i
	i = skipSpace(src, i)
	sawSpace := i > ws

	switch peek(src, i) {
	case 0:
		return PlaceholderSpec{}, 0, placeholderErr(start, name, "missing closing '}' for placeholder")
	case '}':
		if sawSpace {
			return PlaceholderSpec{}, 0, placeholderErr(start, name, "whitespace is not allowed after a placeholder name")
		}
		return PlaceholderSpec{Name: name, Offset: start}, i + 1, nil
	case ':':
		if sawSpace {
			return PlaceholderSpec{}, 0, placeholderErr(start, name, "whitespace is not allowed between a placeholder name and ':'")
		}
	case '{':
		return PlaceholderSpec{}, 0, placeholderErr(start, name, "nested braces are not allowed in a placeholder")
	default:
		return PlaceholderSpec{}, 0, placeholderErr(start, name, "unexpected character "+quoteRuneAt(src, i)+" in placeholder")
	}

	// Type hint.
	i = skipSpace(src, i+1)
	hintStart := i
	for i < len(src) && !isSpace(src[i]) && src[i] != '{' && src[i] != '}' {
		i++
	}
	hint := src[hintStart:i]
	i = skipSpace(src, i)

	switch peek(src, i) {
	case 0:
		return PlaceholderSpec{}, 0, placeholderErr(start, name, "missing closing '}' for placeholder")
	case '{':
		return PlaceholderSpec{}, 0, placeholderErr(start, name, "nested braces are not allowed in a placeholder")
	case '}':
		if hint == "" {
			return PlaceholderSpec{}, 0, placeholderErr(start, name, "empty type hint")
		}
		return PlaceholderSpec{Name: name, Hint: hint, Offset: start}, i + 1, nil
	default:
		return PlaceholderSpec{}, 0, placeholderErr(start, name, "type hint must not contain whitespace")
	}
}

func peek(src string, i int) byte {
	if i < len(src) {
		return src[i]
	}
	return 0
}

func skipSpace(src string, i int) int {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

func quoteRuneAt(src string, i int) string {
	r, _ := utf8.DecodeRuneInString(src[i:])
	return "'" + string(r) + "'"
}
