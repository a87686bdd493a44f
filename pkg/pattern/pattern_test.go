package pattern

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_LiteralMatchesOnlyItself(t *testing.T) {
	literals := []string{
		"a user logs in",
		"the total is $3.50 (approx.)",
		"match .* and [a-z]+ literally",
		"ünïcode ✓ text",
		"",
	}
	for _, lit := range literals {
		t.Run(lit, func(t *testing.T) {
			p, err := Compile(lit)
			require.NoError(t, err)
			assert.True(t, p.Matches(lit))
			assert.False(t, p.Matches(lit+"x"))
			assert.False(t, p.Matches("x"+lit))

			raw, err := p.Captures(lit)
			require.NoError(t, err)
			assert.Empty(t, raw)
		})
	}
}

func TestCompile_LiteralRejectsRegexInterpretation(t *testing.T) {
	p := MustCompile("a.c")
	assert.True(t, p.Matches("a.c"))
	assert.False(t, p.Matches("abc"))
}

func TestExtract_U32(t *testing.T) {
	p := MustCompile("{n:u32}")

	caps, err := p.Extract("42")
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, uint32(42), caps[0].Value)
	assert.Equal(t, "42", caps[0].Raw)
	assert.Equal(t, "n", caps[0].Placeholder.Name)

	_, err = p.Extract("4x")
	assert.ErrorIs(t, err, ErrPatternMismatch)
}

func TestExtract_CucumberSteps(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		want    any
	}{
		{"a user has {count:u32} cucumbers", "a user has 5 cucumbers", uint32(5)},
		{"{n:u32} are eaten", "2 are eaten", uint32(2)},
		{"{count:u32} remain", "3 remain", uint32(3)},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			caps, err := MustCompile(tt.pattern).Extract(tt.text)
			require.NoError(t, err)
			require.Len(t, caps, 1)
			assert.Equal(t, tt.want, caps[0].Value)
		})
	}
}

func TestExtract_IntegerHints(t *testing.T) {
	tests := []struct {
		hint string
		raw  string
		want any
	}{
		{"u8", "255", uint8(255)},
		{"u16", "65535", uint16(65535)},
		{"u64", "18446744073709551615", uint64(math.MaxUint64)},
		{"usize", "7", uint(7)},
		{"i8", "-128", int8(-128)},
		{"i16", "+12", int16(12)},
		{"i32", "-7", int32(-7)},
		{"i64", "9223372036854775807", int64(math.MaxInt64)},
		{"isize", "-1", -1},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			caps, err := MustCompile("value {v:" + tt.hint + "}").Extract("value " + tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, caps[0].Value)
		})
	}
}

func TestExtract_BigIntegers(t *testing.T) {
	caps, err := MustCompile("{v:u128}").Extract("340282366920938463463374607431768211455")
	require.NoError(t, err)
	assert.Equal(t, 0, caps[0].Value.(*big.Int).Cmp(maxU128))

	caps, err = MustCompile("{v:i128}").Extract("-170141183460469231731687303715884105728")
	require.NoError(t, err)
	assert.Equal(t, 0, caps[0].Value.(*big.Int).Cmp(minI128))

	_, err = MustCompile("{v:u128}").Extract("340282366920938463463374607431768211456")
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "u128", convErr.Hint)
}

func TestExtract_UnsignedRejectsSign(t *testing.T) {
	_, err := MustCompile("{v:u32}").Extract("-1")
	assert.ErrorIs(t, err, ErrPatternMismatch)
}

func TestExtract_OutOfRangeIsConversionError(t *testing.T) {
	_, err := MustCompile("{v:u8} items").Extract("300 items")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPatternMismatch))

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "v", convErr.Placeholder)
	assert.Equal(t, "300", convErr.Raw)
	assert.Equal(t, "{v:u8} items", convErr.Pattern)
}

func TestExtract_Floats(t *testing.T) {
	p := MustCompile("{x:f64}")
	accepted := map[string]float64{
		"1":         1,
		"-1.5":      -1.5,
		"3.":        3,
		".25":       0.25,
		"2e3":       2000,
		"-1.5E-2":   -0.015,
		"inf":       math.Inf(1),
		"-Infinity": math.Inf(-1),
	}
	for raw, want := range accepted {
		caps, err := p.Extract(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, caps[0].Value, raw)
	}

	caps, err := p.Extract("NaN")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(caps[0].Value.(float64)))

	for _, raw := range []string{"abc", "1.2.3", "e5", ""} {
		_, err := p.Extract(raw)
		assert.ErrorIs(t, err, ErrPatternMismatch, raw)
	}

	caps, err = MustCompile("{x:f32}").Extract("0.5")
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), caps[0].Value)
}

func TestExtract_FloatOutOfRangeSaturates(t *testing.T) {
	caps, err := MustCompile("{x:f32}").Extract("1e40")
	require.NoError(t, err)
	assert.Equal(t, float32(math.Inf(1)), caps[0].Value)

	caps, err = MustCompile("{x:f32}").Extract("-1e40")
	require.NoError(t, err)
	assert.Equal(t, float32(math.Inf(-1)), caps[0].Value)

	caps, err = MustCompile("{x:f64}").Extract("1e400")
	require.NoError(t, err)
	assert.Equal(t, math.Inf(1), caps[0].Value)
}

func TestExtract_QuotedString(t *testing.T) {
	p := MustCompile("they say {msg:string}")

	caps, err := p.Extract(`they say "hello \"world\""`)
	require.NoError(t, err)
	assert.Equal(t, `hello "world"`, caps[0].Value)

	caps, err = p.Extract(`they say 'hi there'`)
	require.NoError(t, err)
	assert.Equal(t, "hi there", caps[0].Value)

	_, err = p.Extract("they say hello")
	assert.ErrorIs(t, err, ErrPatternMismatch)
}

func TestExtract_UntypedIsGreedyRawString(t *testing.T) {
	caps, err := MustCompile("{a} and {b}").Extract("x and y and z")
	require.NoError(t, err)
	require.Len(t, caps, 2)
	assert.Equal(t, "x and y", caps[0].Value)
	assert.Equal(t, "z", caps[1].Value)
}

func TestExtract_UnknownHintIsRawString(t *testing.T) {
	caps, err := MustCompile("color {c:colour}").Extract("color dark red")
	require.NoError(t, err)
	assert.Equal(t, "dark red", caps[0].Value)
	assert.False(t, KnownHint("colour"))
}

func TestExtract_UntypedDoesNotCrossNewline(t *testing.T) {
	_, err := MustCompile("{a}").Extract("line one\nline two")
	assert.ErrorIs(t, err, ErrPatternMismatch)
}

func TestCompile_Braces(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
	}{
		{"a {{b}} c", "a {b} c"},
		{"set {{{n:u8}}}", "set {3}"},
		{"json { literal }", "json { literal }"},
		{"{1st} place", "{1st} place"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			require.NoError(t, err)
			assert.True(t, p.Matches(tt.text))
		})
	}
}

func TestCompile_EscapedBraces(t *testing.T) {
	raw, err := MustCompile(`literal \{ brace {v} \}`).Captures("literal { brace data }")
	require.NoError(t, err)
	assert.Equal(t, []string{"data"}, raw)

	p := MustCompile(`start{ \d }end`)
	assert.True(t, p.Matches("start{ d }end"))
	assert.False(t, p.Matches("start{ 5 }end"))
}

func TestCompile_BackslashEscapesNextCharacter(t *testing.T) {
	tests := []struct {
		pattern  string
		matching string
		nonmatch string
	}{
		{`digit \d end`, "digit d end", "digit 5 end"},
		{`hex \x end`, "hex x end", "hex 7 end"},
		{`quote \q end`, "quote q end", `quote " end`},
		{`end \Z here`, "end Z here", "end 0 here"},
		{`back \\ slash`, `back \ slash`, `back \\ slash`},
		{`mark \✓ done`, "mark ✓ done", `mark \✓ done`},
		{"trailing\\", `trailing\`, "trailing"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			require.NoError(t, err)
			assert.True(t, p.Matches(tt.matching))
			assert.False(t, p.Matches(tt.nonmatch))
		})
	}
}

func TestCompile_PlaceholderErrors(t *testing.T) {
	tests := []struct {
		pattern string
		offset  int
		reason  string
	}{
		{"a } b", 2, "unmatched closing brace '}'"},
		{"a { b", 2, "unmatched opening brace '{'"},
		{"x {n", 2, "missing closing '}' for placeholder"},
		{"{n }", 0, "whitespace is not allowed after a placeholder name"},
		{"at {n :u32}", 3, "whitespace is not allowed between a placeholder name and ':'"},
		{"{a{b}}", 0, "nested braces are not allowed in a placeholder"},
		{"{n:{u32}}", 0, "nested braces are not allowed in a placeholder"},
		{"{n:}", 0, "empty type hint"},
		{"{n:u 32}", 0, "type hint must not contain whitespace"},
		{"{n-1}", 0, "unexpected character '-' in placeholder"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			_, err := Compile(tt.pattern)
			var perr *PlaceholderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.offset, perr.Offset)
			assert.Equal(t, tt.reason, perr.Reason)
		})
	}
}

func TestCompile_WhitespaceAroundHint(t *testing.T) {
	p, err := Compile("{n:  u32 }")
	require.NoError(t, err)
	specs, err := p.Placeholders()
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "u32", specs[0].Hint)
}

func TestPlaceholders_Offsets(t *testing.T) {
	specs, err := New("a {x} b {y:i32}").Placeholders()
	require.NoError(t, err)
	assert.Equal(t, []PlaceholderSpec{
		{Name: "x", Offset: 2},
		{Name: "y", Hint: "i32", Offset: 8},
	}, specs)
}

func TestPlaceholderError_Message(t *testing.T) {
	_, err := Compile("at {n :u32}")
	assert.EqualError(t, err, "invalid placeholder: whitespace is not allowed between a placeholder name and ':' for placeholder `n` at byte 3 (zero-based)")

	_, err = Compile("a } b")
	assert.EqualError(t, err, "invalid placeholder: unmatched closing brace '}' at byte 2 (zero-based)")
}

func TestNew_LazyCompileIsStable(t *testing.T) {
	p := New("{n")
	first := p.Compile()
	require.Error(t, first)
	assert.Same(t, first, p.Compile())
	assert.False(t, p.Matches("anything"))
	assert.Nil(t, p.Regexp())

	_, err := p.Captures("x")
	assert.Same(t, first, err)
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("{") })
}

func TestEqual_BySourceText(t *testing.T) {
	a := New("{n:u32} remain")
	b := MustCompile("{n:u32} remain")
	c := New("{count:u32} remain")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, "{n:u32} remain", a.String())
}

func TestSpecificity_Compare(t *testing.T) {
	score := func(text string) Specificity {
		t.Helper()
		s, err := New(text).Specificity()
		require.NoError(t, err)
		return s
	}

	assert.Equal(t, 1, score("a user has {n:u32} cucumbers").Compare(score("a user has {rest}")))
	assert.Equal(t, -1, score("{a} has {b}").Compare(score("{a} has {b} ")))
	assert.Equal(t, 1, score("x {a:u8}").Compare(score("x {a}")))
	assert.Equal(t, 1, score("ab {x}").Compare(score("ab {x}{y}")))
	assert.Equal(t, 0, score("{a} b").Compare(score("{z} b")))
}
