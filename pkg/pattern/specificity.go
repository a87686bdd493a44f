package pattern

import "unicode/utf8"

// Specificity ranks patterns that match the same text. More literal
// characters win, then fewer placeholders, then more typed placeholders.
type Specificity struct {
	LiteralChars      int
	Placeholders      int
	TypedPlaceholders int
}

// Specificity scores the pattern. Stray braces count as literal characters.
func (p *Pattern) Specificity() (Specificity, error) {
	tokens, err := lex(p.text)
	if err != nil {
		return Specificity{}, err
	}
	var s Specificity
	for _, tok := range tokens {
		switch tok.kind {
		case tokLiteral:
			s.LiteralChars += utf8.RuneCountInString(tok.text)
		case tokPlaceholder:
			s.Placeholders++
			if tok.spec.Hint != "" {
				s.TypedPlaceholders++
			}
		default:
			s.LiteralChars++
		}
	}
	return s, nil
}

// Compare returns -1, 0 or +1 as s is less, equally or more specific than o.
func (s Specificity) Compare(o Specificity) int {
	switch {
	case s.LiteralChars != o.LiteralChars:
		return sign(s.LiteralChars - o.LiteralChars)
	case s.Placeholders != o.Placeholders:
		return sign(o.Placeholders - s.Placeholders)
	default:
		return sign(s.TypedPlaceholders - o.TypedPlaceholders)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
