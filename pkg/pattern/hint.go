package pattern

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const (
	unsignedPattern = `\d+`
	signedPattern   = `[+-]?\d+`
	floatPattern    = `(?i:[+-]?(?:(?:\d+\.\d*|\.\d+|\d+)(?:e[+-]?\d+)?|infinity|inf)|nan)`
	quotedPattern   = `"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`
	anyPattern      = `.+`
)

var (
	maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// TypePattern returns the regular-expression fragment a placeholder with the
// given hint captures. Unknown and empty hints capture any non-newline run.
func TypePattern(hint string) string {
	switch hint {
	case "u8", "u16", "u32", "u64", "u128", "usize":
		return unsignedPattern
	case "i8", "i16", "i32", "i64", "i128", "isize":
		return signedPattern
	case "f32", "f64":
		return floatPattern
	case "string":
		return quotedPattern
	default:
		return anyPattern
	}
}

// KnownHint reports whether hint constrains what a placeholder matches.
func KnownHint(hint string) bool {
	return TypePattern(hint) != anyPattern
}

// Convert turns captured text into the Go value named by hint:
//
//	u8..u64 -> uint8..uint64, usize -> uint, u128 -> *big.Int
//	i8..i64 -> int8..int64,   isize -> int,  i128 -> *big.Int
//	f32 -> float32, f64 -> float64 (out of range saturates to ±Inf)
//	string -> the quoted text with its quotes removed
//
// Any other hint yields the raw string.
func Convert(hint, raw string) (any, error) {
	switch hint {
	case "u8":
		v, err := strconv.ParseUint(raw, 10, 8)
		return uint8(v), err
	case "u16":
		v, err := strconv.ParseUint(raw, 10, 16)
		return uint16(v), err
	case "u32":
		v, err := strconv.ParseUint(raw, 10, 32)
		return uint32(v), err
	case "u64":
		return strconv.ParseUint(raw, 10, 64)
	case "usize":
		v, err := strconv.ParseUint(raw, 10, strconv.IntSize)
		return uint(v), err
	case "i8":
		v, err := strconv.ParseInt(raw, 10, 8)
		return int8(v), err
	case "i16":
		v, err := strconv.ParseInt(raw, 10, 16)
		return int16(v), err
	case "i32":
		v, err := strconv.ParseInt(raw, 10, 32)
		return int32(v), err
	case "i64":
		return strconv.ParseInt(raw, 10, 64)
	case "isize":
		v, err := strconv.ParseInt(raw, 10, strconv.IntSize)
		return int(v), err
	case "u128":
		return parseBig(raw, new(big.Int), maxU128)
	case "i128":
		return parseBig(raw, minI128, maxI128)
	case "f32":
		v, err := parseFloat(raw, 32)
		return float32(v), err
	case "f64":
		return parseFloat(raw, 64)
	case "string":
		return unquote(raw)
	default:
		return raw, nil
	}
}

// parseFloat saturates out-of-range values to ±Inf instead of failing.
func parseFloat(raw string, bitSize int) (float64, error) {
	v, err := strconv.ParseFloat(raw, bitSize)
	if errors.Is(err, strconv.ErrRange) {
		return v, nil
	}
	return v, err
}

func parseBig(raw string, lo, hi *big.Int) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimPrefix(raw, "+"), 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", raw)
	}
	if v.Cmp(lo) < 0 || v.Cmp(hi) > 0 {
		return nil, fmt.Errorf("value %s out of range", raw)
	}
	return v, nil
}

func unquote(raw string) (string, error) {
	if len(raw) < 2 || (raw[0] != '"' && raw[0] != '\'') || raw[len(raw)-1] != raw[0] {
		return "", errors.New("expected a quoted string")
	}
	body := raw[1 : len(raw)-1]
	if !strings.Contains(body, `\`) {
		return body, nil
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String(), nil
}
