package tags

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokTag
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokTag:
		return "tag " + t.text
	case tokLParen, tokRParen:
		return "'" + t.text + "'"
	default:
		return "operator '" + t.text + "'"
	}
}

type parser struct {
	src    string
	tokens []token
	pos    int
}

func (p *parser) errorf(offset int, format string, args ...any) error {
	return &ParseError{Input: p.src, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) lex() error {
	src := p.src
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			p.tokens = append(p.tokens, token{kind: tokLParen, text: "(", offset: i})
			i++
		case c == ')':
			p.tokens = append(p.tokens, token{kind: tokRParen, text: ")", offset: i})
			i++
		case c == '@':
			j := i + 1
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			if j == i+1 {
				return p.errorf(i, "expected tag name after '@'")
			}
			name := src[i+1 : j]
			if isOperator(name) {
				return p.errorf(i, "%q is a reserved word and cannot be used as a tag", name)
			}
			p.tokens = append(p.tokens, token{kind: tokTag, text: src[i:j], offset: i})
			i = j
		case isWordChar(c):
			j := i
			for j < len(src) && isWordChar(src[j]) {
				j++
			}
			word := src[i:j]
			kind, ok := operatorKind(word)
			if !ok {
				return p.errorf(i, "unknown token %q, tags start with '@'", word)
			}
			p.tokens = append(p.tokens, token{kind: kind, text: word, offset: i})
			i = j
		default:
			return p.errorf(i, "unexpected character %q", rune(c))
		}
	}
	p.tokens = append(p.tokens, token{kind: tokEOF, offset: len(src)})
	return nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// or_expr ::= and_expr {"or" and_expr}
func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd("")
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		op := p.next()
		right, err := p.parseAnd(op.text)
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
	return left, nil
}

// and_expr ::= not_expr {"and" not_expr}
func (p *parser) parseAnd(after string) (node, error) {
	left, err := p.parseNot(after)
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		op := p.next()
		right, err := p.parseNot(op.text)
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
	return left, nil
}

// not_expr ::= ["not"] primary
func (p *parser) parseNot(after string) (node, error) {
	if p.peek().kind == tokNot {
		op := p.next()
		x, err := p.parsePrimary(op.text)
		if err != nil {
			return nil, err
		}
		return notNode{x}, nil
	}
	return p.parsePrimary(after)
}

// primary ::= TAG | "(" expr ")"
func (p *parser) parsePrimary(after string) (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokTag:
		return tagNode(tok.text), nil
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.peek(); closing.kind != tokRParen {
			return nil, p.errorf(closing.offset, "missing ')' to close '(' at byte %d", tok.offset)
		}
		p.next()
		return inner, nil
	}
	if after != "" {
		return nil, p.errorf(tok.offset, "expected tag or '(' after '%s', found %s", after, tok.describe())
	}
	return nil, p.errorf(tok.offset, "expected tag or '(', found %s", tok.describe())
}

// Bytes of multi-byte UTF-8 sequences are accepted so tags may use any
// letters.
func isIdentChar(c byte) bool {
	return isWordChar(c) || c == '-' || c == ':' || c >= 0x80
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func operatorKind(word string) (tokenKind, bool) {
	switch {
	case strings.EqualFold(word, "and"):
		return tokAnd, true
	case strings.EqualFold(word, "or"):
		return tokOr, true
	case strings.EqualFold(word, "not"):
		return tokNot, true
	}
	return 0, false
}

func isOperator(word string) bool {
	_, ok := operatorKind(word)
	return ok
}
