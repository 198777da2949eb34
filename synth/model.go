// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package synth

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/z5labs/localrest/param"
)

// Package is a Go package with at least one annotated endpoint.
type Package struct {
	Name      string
	PkgPath   string
	Dir       string
	Endpoints []Endpoint
}

// ResultKind describes what an endpoint method returns.
type ResultKind int

const (
	// NoResult methods return nothing.
	NoResult ResultKind = iota

	// ValueResult methods return a single value.
	ValueResult

	// ErrorResult methods return only an error.
	ErrorResult

	// ValueErrorResult methods return a value and an error.
	ValueErrorResult
)

// Endpoint is a single annotated method bound to a verb and path.
type Endpoint struct {
	Method     string
	Path       string
	Owner      string
	MethodName string

	// PointerReceiver is set when the method is declared on *Owner.
	PointerReceiver bool

	// Context is set when the first method parameter is a context.Context.
	Context bool

	Params []Param
	Result ResultKind
}

func pathHash(path string) string {
	h := fnv.New32a()
	h.Write([]byte(path))
	return fmt.Sprintf("%08X", h.Sum32())
}

func pathWords(path string) string {
	var sb strings.Builder
	upper := true
	for _, r := range path {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (e Endpoint) baseName() string {
	return strings.ToLower(e.Method) + pathWords(e.Path)
}

// HandlerName is the generated handler type name.
func (e Endpoint) HandlerName() string {
	return e.baseName() + "Handler_" + pathHash(e.Path)
}

// SignatureName is the generated signature variable name.
func (e Endpoint) SignatureName() string {
	return e.baseName() + "Signature_" + pathHash(e.Path)
}

// Receiver is the expression constructing a fresh owner.
func (e Endpoint) Receiver() string {
	if e.PointerReceiver {
		return "&" + e.Owner + "{}"
	}
	return e.Owner + "{}"
}

// CallArgs is the argument list passed to the endpoint method.
func (e Endpoint) CallArgs() string {
	args := make([]string, 0, len(e.Params)+1)
	if e.Context {
		args = append(args, "ctx")
	}
	for i, p := range e.Params {
		args = append(args, p.Arg(i))
	}
	return strings.Join(args, ", ")
}

// Enum is a named integer type whose package declares constants of it.
type Enum struct {
	TypeName string
	Members  []param.Member
}

// Param is a single endpoint parameter.
type Param struct {
	Name     string
	Kind     param.Kind
	Nullable bool
	Enum     *Enum

	// Default is a Go expression of the resolved type or empty for none.
	Default string
}

var kindIdents = map[param.Kind]string{
	param.String:   "param.String",
	param.Bool:     "param.Bool",
	param.Int:      "param.Int",
	param.Int8:     "param.Int8",
	param.Int16:    "param.Int16",
	param.Int32:    "param.Int32",
	param.Int64:    "param.Int64",
	param.Uint:     "param.Uint",
	param.Uint8:    "param.Uint8",
	param.Uint16:   "param.Uint16",
	param.Uint32:   "param.Uint32",
	param.Uint64:   "param.Uint64",
	param.Float32:  "param.Float32",
	param.Float64:  "param.Float64",
	param.Decimal:  "param.Decimal",
	param.Char:     "param.Char",
	param.DateTime: "param.DateTime",
	param.UUID:     "param.UUID",
	param.Enum:     "param.Enum",
}

var goTypes = map[param.Kind]string{
	param.String:   "string",
	param.Bool:     "bool",
	param.Int:      "int",
	param.Int8:     "int8",
	param.Int16:    "int16",
	param.Int32:    "int32",
	param.Int64:    "int64",
	param.Uint:     "uint",
	param.Uint8:    "uint8",
	param.Uint16:   "uint16",
	param.Uint32:   "uint32",
	param.Uint64:   "uint64",
	param.Float32:  "float32",
	param.Float64:  "float64",
	param.Decimal:  "decimal.Decimal",
	param.Char:     "rune",
	param.DateTime: "time.Time",
	param.UUID:     "uuid.UUID",
	param.Enum:     "int64",
}

// ResolvedType is the Go type the resolver produces for p.
func (p Param) ResolvedType() string {
	t := goTypes[p.Kind]
	if p.Nullable {
		return "*" + t
	}
	return t
}

// Arg is the expression converting args[i] into the method parameter.
func (p Param) Arg(i int) string {
	arg := fmt.Sprintf("args[%d]", i)
	if p.Kind == param.Enum {
		if p.Nullable {
			return fmt.Sprintf("param.EnumPtr[%s](%s)", p.Enum.TypeName, arg)
		}
		return fmt.Sprintf("param.EnumValue[%s](%s)", p.Enum.TypeName, arg)
	}
	return fmt.Sprintf("%s.(%s)", arg, p.ResolvedType())
}

// TypeExpr is the param.Type literal describing p.
func (p Param) TypeExpr() string {
	if p.Kind == param.Enum {
		var sb strings.Builder
		sb.WriteString("param.Type{Kind: param.Enum")
		if p.Nullable {
			sb.WriteString(", Nullable: true")
		}
		fmt.Fprintf(&sb, ", Enum: &param.EnumType{Name: %q, Members: []param.Member{", p.Enum.TypeName)
		for i, m := range p.Enum.Members {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "{Name: %q, Value: %d}", m.Name, m.Value)
		}
		sb.WriteString("}}}")
		return sb.String()
	}
	if p.Nullable {
		return "param.NullableOf(" + kindIdents[p.Kind] + ")"
	}
	return "param.Of(" + kindIdents[p.Kind] + ")"
}
