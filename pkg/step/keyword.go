package step

import (
	"fmt"
	"strings"
)

// Keyword is the leading word of a scripted step.
type Keyword int

const (
	Given Keyword = iota + 1
	When
	Then
	And
	But
	Star // "*"
)

var keywordNames = map[Keyword]string{
	Given: "Given",
	When:  "When",
	Then:  "Then",
	And:   "And",
	But:   "But",
	Star:  "*",
}

func (k Keyword) String() string {
	if name, ok := keywordNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Keyword(%d)", int(k))
}

// Primary reports whether k is Given, When or Then.
func (k Keyword) Primary() bool {
	return k == Given || k == When || k == Then
}

// Resolve maps a conjunction (And, But, *) onto the primary keyword that
// precedes it. A conjunction with no primary before it counts as Given.
func (k Keyword) Resolve(prev Keyword) Keyword {
	if k.Primary() {
		return k
	}
	if prev.Primary() {
		return prev
	}
	return Given
}

// ParseKeyword reads a keyword, ignoring case and surrounding whitespace.
func ParseKeyword(s string) (Keyword, error) {
	s = strings.TrimSpace(s)
	for k, name := range keywordNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown step keyword %q", s)
}
