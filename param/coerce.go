// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/z5labs/localrest/pkg/ptr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coerce converts raw into a value of t. The boolean result is false when
// raw cannot be represented as t.
func Coerce(raw string, t Type) (any, bool) {
	if t.Nullable {
		if raw == "" {
			return t.Zero(), true
		}
		v, ok := coerce(raw, t)
		if !ok {
			return nil, false
		}
		return ref(v), true
	}
	return coerce(raw, t)
}

func coerce(raw string, t Type) (any, bool) {
	switch t.Kind {
	case String:
		return raw, true
	case Bool:
		return parseBool(raw)
	case Int:
		n, ok := parseInt(raw, strconv.IntSize)
		return int(n), ok
	case Int8:
		n, ok := parseInt(raw, 8)
		return int8(n), ok
	case Int16:
		n, ok := parseInt(raw, 16)
		return int16(n), ok
	case Int32:
		n, ok := parseInt(raw, 32)
		return int32(n), ok
	case Int64:
		return parseInt(raw, 64)
	case Uint:
		n, ok := parseUint(raw, strconv.IntSize)
		return uint(n), ok
	case Uint8:
		n, ok := parseUint(raw, 8)
		return uint8(n), ok
	case Uint16:
		n, ok := parseUint(raw, 16)
		return uint16(n), ok
	case Uint32:
		n, ok := parseUint(raw, 32)
		return uint32(n), ok
	case Uint64:
		return parseUint(raw, 64)
	case Float32:
		f, ok := parseFloat(raw, 32)
		return float32(f), ok
	case Float64:
		return parseFloat(raw, 64)
	case Decimal:
		return parseDecimal(raw)
	case Char:
		return parseChar(raw)
	case DateTime:
		return parseDateTime(raw)
	case UUID:
		return parseUUID(raw)
	case Enum:
		return parseEnum(raw, t.Enum)
	default:
		return nil, false
	}
}

func ref(v any) any {
	switch x := v.(type) {
	case string:
		return ptr.Ref(x)
	case bool:
		return ptr.Ref(x)
	case int:
		return ptr.Ref(x)
	case int8:
		return ptr.Ref(x)
	case int16:
		return ptr.Ref(x)
	case int32:
		return ptr.Ref(x)
	case int64:
		return ptr.Ref(x)
	case uint:
		return ptr.Ref(x)
	case uint8:
		return ptr.Ref(x)
	case uint16:
		return ptr.Ref(x)
	case uint32:
		return ptr.Ref(x)
	case uint64:
		return ptr.Ref(x)
	case float32:
		return ptr.Ref(x)
	case float64:
		return ptr.Ref(x)
	case decimal.Decimal:
		return ptr.Ref(x)
	case time.Time:
		return ptr.Ref(x)
	case uuid.UUID:
		return ptr.Ref(x)
	default:
		return v
	}
}

func parseBool(raw string) (bool, bool) {
	s := strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(s, "true"):
		return true, true
	case strings.EqualFold(s, "false"):
		return false, true
	default:
		return false, false
	}
}

// normalizeNumber strips surrounding whitespace and ',' group separators.
// Hex, octal, binary and '_' separated literals are rejected.
func normalizeNumber(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsAny(s, "xXoObB_") {
		return "", false
	}
	return strings.ReplaceAll(s, ",", ""), true
}

func parseInt(raw string, bits int) (int64, bool) {
	s, ok := normalizeNumber(raw)
	if !ok {
		return 0, false
	}

	n, err := strconv.ParseInt(s, 10, bits)
	if err == nil {
		return n, true
	}

	// accept integral values written with a fraction or exponent, e.g. "10.0" or "1e3"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	lo := -math.Ldexp(1, bits-1)
	hi := math.Ldexp(1, bits-1)
	if f < lo || f >= hi {
		return 0, false
	}
	return int64(f), true
}

func parseUint(raw string, bits int) (uint64, bool) {
	s, ok := normalizeNumber(raw)
	if !ok {
		return 0, false
	}

	n, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, bits)
	if err == nil {
		return n, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < 0 || f >= math.Ldexp(1, bits) {
		return 0, false
	}
	return uint64(f), true
}

func parseFloat(raw string, bits int) (float64, bool) {
	s, ok := normalizeNumber(raw)
	if !ok {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseDecimal(raw string) (decimal.Decimal, bool) {
	s, ok := normalizeNumber(raw)
	if !ok {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// parseChar returns the first UTF-16 code unit of raw.
func parseChar(raw string) (rune, bool) {
	if raw == "" {
		return 0, false
	}
	units := utf16.Encode([]rune(raw))
	return rune(units[0]), true
}

// dateTimeLayouts are tried in order after the round-trip format.
// Values without an offset are read as UTC.
var dateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"2006/01/02 15:04:05",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"02 Jan 2006 15:04:05",
	"02 Jan 2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

func parseDateTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, true
	}
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseUUID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// parseEnum accepts the numeric value or a case-insensitive member name.
// Comma separated names are combined with bitwise or.
func parseEnum(raw string, e *EnumType) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, true
	}
	if e == nil {
		return 0, false
	}

	var v int64
	for _, name := range strings.Split(s, ",") {
		m, ok := e.member(strings.TrimSpace(name))
		if !ok {
			return 0, false
		}
		v |= m.Value
	}
	return v, true
}

func (e *EnumType) member(name string) (Member, bool) {
	for _, m := range e.Members {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Member{}, false
}
