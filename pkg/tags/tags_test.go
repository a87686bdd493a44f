package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmits_NotOverOr(t *testing.T) {
	expr, err := Parse("@a and not (@b or @c)")
	require.NoError(t, err)

	assert.True(t, expr.Admits(NewSet("@a")))
	assert.False(t, expr.Admits(NewSet("@a", "@b")))
	assert.False(t, expr.Admits(NewSet("@a", "@c")))
	assert.False(t, expr.Admits(NewSet()))
}

func TestAdmits_Precedence(t *testing.T) {
	tests := []struct {
		expr string
		tags []string
		want bool
	}{
		{"@a or @b and @c", []string{"@a"}, true},
		{"@a or @b and @c", []string{"@b"}, false},
		{"(@a or @b) and @c", []string{"@a"}, false},
		{"not @a and @b", []string{"@b"}, true},
		{"not @a and @b", []string{"@a", "@b"}, false},
		{"NOT @a OR @b", []string{}, true},
		{"@a And @b", []string{"@a", "@b"}, true},
		{"@wip", []string{"@WIP"}, false},
		{"@issue:12 or @slow-test", []string{"@issue:12"}, true},
		{"@ünïcode", []string{"@ünïcode"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expr, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.Admits(NewSet(tt.tags...)))
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		expr   string
		offset int
		reason string
	}{
		{"", 0, "expected tag or '(', found end of expression"},
		{"   ", 3, "expected tag or '(', found end of expression"},
		{"()", 1, "expected tag or '(', found ')'"},
		{"@a and", 6, "expected tag or '(' after 'and', found end of expression"},
		{"@a && @b", 3, "unexpected character '&'"},
		{"@a or not", 9, "expected tag or '(' after 'not', found end of expression"},
		{"(@a or @b", 9, "missing ')' to close '(' at byte 0"},
		{"@a)", 2, "unexpected ')'"},
		{"@a @b", 3, "unexpected tag @b"},
		{"@and", 0, `"and" is a reserved word and cannot be used as a tag`},
		{"@a and @", 7, "expected tag name after '@'"},
		{"smoke", 0, `unknown token "smoke", tags start with '@'`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Parse(tt.expr)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.offset, perr.Offset)
			assert.Equal(t, tt.reason, perr.Reason)
		})
	}
}

func TestParseError_Message(t *testing.T) {
	_, err := Parse("@a && @b")
	assert.EqualError(t, err, "invalid tag expression at byte 3: unexpected character '&'")
}

func TestNilExpressionAdmitsEverything(t *testing.T) {
	var expr *Expression
	assert.True(t, expr.Admits(NewSet("@anything")))
	assert.True(t, expr.Admits(nil))

	expr, err := ParseOptional("  ")
	require.NoError(t, err)
	assert.Nil(t, expr)
	assert.True(t, expr.Admits(NewSet()))
}

func TestExpression_String(t *testing.T) {
	expr := MustParse("@a and not (@b or @c) or @d")
	assert.Equal(t, "((@a and not (@b or @c)) or @d)", expr.String())
	assert.Equal(t, "@a and not (@b or @c) or @d", expr.Source())
}

func TestUnion_CollapsesDuplicates(t *testing.T) {
	s := Union([]string{"@feature", "@slow"}, []string{"@slow", "@scenario"})
	assert.Equal(t, []string{"@feature", "@scenario", "@slow"}, s.Sorted())
	assert.True(t, s.Has("@scenario"))
}
