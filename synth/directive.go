// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package synth

import (
	"errors"
	"fmt"
	"go/ast"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/z5labs/localrest/param"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DirectivePrefix starts every comment directive understood by the synthesizer.
const DirectivePrefix = "//localrest:"

var verbs = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"HEAD":    true,
	"OPTIONS": true,
}

type binding struct {
	Method string
	Path   string
}

type directives struct {
	Routes   []binding
	Defaults map[string]string
}

// DirectiveError reports a malformed directive.
type DirectiveError struct {
	Pos  string
	Text string
	Err  error
}

// Error implements the [error] interface.
func (e DirectiveError) Error() string {
	return fmt.Sprintf("%s: invalid directive %q: %s", e.Pos, e.Text, e.Err)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e DirectiveError) Unwrap() error {
	return e.Err
}

var (
	errUnknownDirective = errors.New("unknown directive")
	errBadVerb          = errors.New("unsupported http verb")
	errBadPath          = errors.New("path must start with /")
	errBadDefault       = errors.New("default must be written as name=value")
)

// parseDirectives reads the localrest directives of a doc comment.
// pos formats the position of a comment for errors.
func parseDirectives(doc *ast.CommentGroup, pos func(*ast.Comment) string) (directives, error) {
	var d directives
	if doc == nil {
		return d, nil
	}

	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, DirectivePrefix) {
			continue
		}

		name, rest, _ := strings.Cut(strings.TrimPrefix(c.Text, DirectivePrefix), " ")
		rest = strings.TrimSpace(rest)
		fail := func(err error) (directives, error) {
			return directives{}, DirectiveError{Pos: pos(c), Text: c.Text, Err: err}
		}

		switch name {
		case "route":
			verb, path, _ := strings.Cut(rest, " ")
			b, err := newBinding(verb, strings.TrimSpace(path))
			if err != nil {
				return fail(err)
			}
			d.Routes = append(d.Routes, b)
		case "get", "post", "put", "patch", "delete":
			b, err := newBinding(name, rest)
			if err != nil {
				return fail(err)
			}
			d.Routes = append(d.Routes, b)
		case "default":
			key, value, found := strings.Cut(rest, "=")
			key = strings.TrimSpace(key)
			if !found || key == "" {
				return fail(errBadDefault)
			}
			if d.Defaults == nil {
				d.Defaults = make(map[string]string)
			}
			d.Defaults[key] = strings.TrimSpace(value)
		default:
			return fail(errUnknownDirective)
		}
	}
	return d, nil
}

func newBinding(verb, path string) (binding, error) {
	verb = strings.ToUpper(strings.TrimSpace(verb))
	if !verbs[verb] {
		return binding{}, errBadVerb
	}
	if !strings.HasPrefix(path, "/") || strings.ContainsAny(path, " \t?#") {
		return binding{}, errBadPath
	}
	return binding{Method: verb, Path: path}, nil
}

// defaultExpr converts the directive text of a default value into a Go
// expression of the type the resolver produces for p. The literal null
// means no default.
func defaultExpr(p Param, raw string) (string, error) {
	if raw == "null" || raw == "nil" {
		if p.Nullable {
			return "", nil
		}
		return "", errors.New("only pointer parameters may default to null")
	}

	expr, err := literal(p, raw)
	if err != nil {
		return "", err
	}
	if p.Nullable {
		return "ptr.Ref(" + expr + ")", nil
	}
	return expr, nil
}

func literal(p Param, raw string) (string, error) {
	switch p.Kind {
	case param.String:
		if strings.HasPrefix(raw, `"`) {
			s, err := strconv.Unquote(raw)
			if err != nil {
				return "", err
			}
			raw = s
		}
		return strconv.Quote(raw), nil
	case param.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case param.Int, param.Int8, param.Int16, param.Int32, param.Int64:
		n, err := strconv.ParseInt(raw, 10, bitSize(p.Kind))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%d)", goTypes[p.Kind], n), nil
	case param.Uint, param.Uint8, param.Uint16, param.Uint32, param.Uint64:
		n, err := strconv.ParseUint(raw, 10, bitSize(p.Kind))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%d)", goTypes[p.Kind], n), nil
	case param.Float32, param.Float64:
		bits := 64
		if p.Kind == param.Float32 {
			bits = 32
		}
		f, err := strconv.ParseFloat(raw, bits)
		if err != nil {
			return "", err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("float default must be finite: %s", raw)
		}
		return fmt.Sprintf("%s(%s)", goTypes[p.Kind], strconv.FormatFloat(f, 'g', -1, bits)), nil
	case param.Decimal:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("decimal.RequireFromString(%q)", d.String()), nil
	case param.Char:
		raw = strings.Trim(raw, "'")
		r, size := utf8.DecodeRuneInString(raw)
		if size == 0 || r == utf8.RuneError {
			return "", errors.New("char default must be a single character")
		}
		return "rune(" + strconv.QuoteRune(r) + ")", nil
	case param.DateTime:
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return "", err
		}
		t = t.UTC()
		return fmt.Sprintf(
			"time.Date(%d, time.%s, %d, %d, %d, %d, %d, time.UTC)",
			t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
		), nil
	case param.UUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("uuid.MustParse(%q)", id.String()), nil
	case param.Enum:
		for _, m := range p.Enum.Members {
			if strings.EqualFold(m.Name, raw) {
				return fmt.Sprintf("int64(%d)", m.Value), nil
			}
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%q is not a member of %s", raw, p.Enum.TypeName)
		}
		return fmt.Sprintf("int64(%d)", n), nil
	}
	return "", fmt.Errorf("unsupported kind: %s", p.Kind)
}

func bitSize(k param.Kind) int {
	switch k {
	case param.Int8, param.Uint8:
		return 8
	case param.Int16, param.Uint16:
		return 16
	case param.Int32, param.Uint32:
		return 32
	case param.Int64, param.Uint64:
		return 64
	}
	return strconv.IntSize
}
