// Package tags parses and evaluates boolean tag expressions such as
//
//	@smoke and not (@slow or @flaky)
//
// Operators are "not", "and" and "or", in decreasing order of precedence,
// matched without regard to case. Tags are case-sensitive and carry no
// values.
package tags

import (
	"fmt"
	"sort"
	"strings"
)

// ParseError reports a malformed expression. Offset is a zero-based byte
// offset into the input.
type ParseError struct {
	Input  string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid tag expression at byte %d: %s", e.Offset, e.Reason)
}

// Set is a collection of tags such as a scenario carries.
type Set map[string]struct{}

// NewSet builds a set from tag names. Names should include the leading '@'.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Union combines tag lists, collapsing duplicates.
func Union(lists ...[]string) Set {
	s := make(Set)
	for _, l := range lists {
		for _, n := range l {
			s[n] = struct{}{}
		}
	}
	return s
}

// Has reports whether tag is in the set.
func (s Set) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Sorted returns the tags in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Expression is a parsed tag expression. A nil *Expression admits every tag
// set.
type Expression struct {
	source string
	root   node
}

// Parse parses src. An expression consisting only of whitespace is rejected;
// callers that want "no filter" should pass a nil *Expression instead.
func Parse(src string) (*Expression, error) {
	p := &parser{src: src}
	if err := p.lex(); err != nil {
		return nil, err
	}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok.offset, "unexpected %s", tok.describe())
	}
	return &Expression{source: src, root: root}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Expression {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

// ParseOptional returns a nil expression for blank input and parses
// anything else.
func ParseOptional(src string) (*Expression, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	return Parse(src)
}

// Admits reports whether a scenario carrying tags passes the filter.
func (e *Expression) Admits(tags Set) bool {
	if e == nil {
		return true
	}
	return e.root.eval(tags)
}

// String returns the expression in normalized, fully parenthesized form.
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	return e.root.String()
}

// Source returns the text the expression was parsed from.
func (e *Expression) Source() string {
	if e == nil {
		return ""
	}
	return e.source
}

type node interface {
	eval(Set) bool
	String() string
}

type tagNode string

func (n tagNode) eval(s Set) bool { return s.Has(string(n)) }
func (n tagNode) String() string  { return string(n) }

type notNode struct{ x node }

func (n notNode) eval(s Set) bool { return !n.x.eval(s) }
func (n notNode) String() string  { return "not " + n.x.String() }

type andNode struct{ l, r node }

func (n andNode) eval(s Set) bool { return n.l.eval(s) && n.r.eval(s) }
func (n andNode) String() string  { return "(" + n.l.String() + " and " + n.r.String() + ")" }

type orNode struct{ l, r node }

func (n orNode) eval(s Set) bool { return n.l.eval(s) || n.r.eval(s) }
func (n orNode) String() string  { return "(" + n.l.String() + " or " + n.r.String() + ")" }
