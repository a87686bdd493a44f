// Package pattern compiles step templates such as
// "a user has {count:u32} cucumbers" into anchored matchers and converts the
// text they capture into typed values.
//
// A template mixes literal text with placeholders of the form {name} or
// {name:hint}. Doubled braces ({{ and }}) stand for literal braces, and a
// backslash makes the character after it literal. Matching always consumes
// the whole input.
package pattern

import (
	"regexp"
	"strings"
	"sync"
)

// PlaceholderSpec describes one placeholder in a template.
type PlaceholderSpec struct {
	Name   string
	Hint   string // empty when the placeholder is untyped
	Offset int    // byte offset of the opening brace
}

// Capture is the text matched by one placeholder and its converted value.
type Capture struct {
	Placeholder PlaceholderSpec
	Raw         string
	Value       any
}

// Pattern is an immutable step template. Two patterns are equal when their
// source text is equal. The matcher is compiled at most once.
type Pattern struct {
	text string

	once         sync.Once
	re           *regexp.Regexp
	placeholders []PlaceholderSpec
	err          error
}

// New returns an uncompiled pattern. Compilation happens on first use or on
// an explicit call to Compile.
func New(text string) *Pattern {
	return &Pattern{text: text}
}

// Compile builds a pattern eagerly and reports syntax errors.
func Compile(text string) (*Pattern, error) {
	p := New(text)
	if err := p.Compile(); err != nil {
		return nil, err
	}
	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(text string) *Pattern {
	p, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Compile builds the matcher if it has not been built yet. It is safe for
// concurrent use and always returns the same result for a given pattern.
func (p *Pattern) Compile() error {
	p.once.Do(func() {
		p.re, p.placeholders, p.err = build(p.text)
	})
	return p.err
}

// String returns the template text.
func (p *Pattern) String() string { return p.text }

// Equal reports whether both patterns have the same template text.
func (p *Pattern) Equal(other *Pattern) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.text == other.text
}

// Placeholders returns the placeholders in template order.
func (p *Pattern) Placeholders() ([]PlaceholderSpec, error) {
	if err := p.Compile(); err != nil {
		return nil, err
	}
	out := make([]PlaceholderSpec, len(p.placeholders))
	copy(out, p.placeholders)
	return out, nil
}

// Regexp returns the compiled matcher, or nil if the pattern does not
// compile.
func (p *Pattern) Regexp() *regexp.Regexp {
	if p.Compile() != nil {
		return nil
	}
	return p.re
}

// Matches reports whether text satisfies the pattern.
func (p *Pattern) Matches(text string) bool {
	re := p.Regexp()
	return re != nil && re.MatchString(text)
}

// Captures returns the raw text captured by each placeholder, in order.
// It returns ErrPatternMismatch when text does not satisfy the pattern.
func (p *Pattern) Captures(text string) ([]string, error) {
	if err := p.Compile(); err != nil {
		return nil, err
	}
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return nil, ErrPatternMismatch
	}
	return m[1:], nil
}

// Convert turns raw captures, as returned by Captures, into typed values
// according to each placeholder's hint.
func (p *Pattern) Convert(raw []string) ([]Capture, error) {
	if err := p.Compile(); err != nil {
		return nil, err
	}
	out := make([]Capture, len(raw))
	for i, text := range raw {
		spec := p.placeholders[i]
		v, err := Convert(spec.Hint, text)
		if err != nil {
			return nil, &ConversionError{
				Pattern:     p.text,
				Placeholder: spec.Name,
				Hint:        spec.Hint,
				Raw:         text,
				Err:         err,
			}
		}
		out[i] = Capture{Placeholder: spec, Raw: text, Value: v}
	}
	return out, nil
}

// Extract matches text and converts every capture.
func (p *Pattern) Extract(text string) ([]Capture, error) {
	raw, err := p.Captures(text)
	if err != nil {
		return nil, err
	}
	return p.Convert(raw)
}

func build(text string) (*regexp.Regexp, []PlaceholderSpec, error) {
	tokens, err := lex(text)
	if err != nil {
		return nil, nil, err
	}

	var src strings.Builder
	var placeholders []PlaceholderSpec
	var open []int // offsets of stray '{' not yet closed

	src.Grow(len(text)*2 + 2)
	src.WriteByte('^')
	for _, tok := range tokens {
		switch tok.kind {
		case tokLiteral:
			src.WriteString(regexp.QuoteMeta(tok.text))
		case tokPlaceholder:
			placeholders = append(placeholders, tok.spec)
			src.WriteByte('(')
			src.WriteString(TypePattern(tok.spec.Hint))
			src.WriteByte(')')
		case tokOpenBrace:
			open = append(open, tok.offset)
			src.WriteString(`\{`)
		case tokCloseBrace:
			if len(open) == 0 {
				return nil, nil, placeholderErr(tok.offset, "", "unmatched closing brace '}'")
			}
			open = open[:len(open)-1]
			src.WriteString(`\}`)
		}
	}
	if len(open) > 0 {
		return nil, nil, placeholderErr(open[len(open)-1], "", "unmatched opening brace '{'")
	}
	src.WriteByte('$')

	re, err := regexp.Compile(src.String())
	if err != nil {
		return nil, nil, &InvalidPatternError{Pattern: text, Err: err}
	}
	return re, placeholders, nil
}
