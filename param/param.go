// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package param resolves HTTP request values into typed call arguments.
//
// A [Signature] describes the ordered parameters of an endpoint. [Resolve]
// walks the signature and, for every parameter, looks for a raw value in the
// query string first and then in a JSON or form encoded body. Raw values are
// coerced into the declared [Kind]; anything missing or unparsable falls back
// to the parameter default and finally to the zero value of the kind.
package param

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the declared type of a parameter.
type Kind int

const (
	String Kind = iota
	Bool
	Int
	Int8
	Int16
	Int32
	Int64
	Uint
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Decimal
	Char
	DateTime
	UUID
	Enum
)

var kindNames = [...]string{
	String:   "String",
	Bool:     "Bool",
	Int:      "Int",
	Int8:     "Int8",
	Int16:    "Int16",
	Int32:    "Int32",
	Int64:    "Int64",
	Uint:     "Uint",
	Uint8:    "Uint8",
	Uint16:   "Uint16",
	Uint32:   "Uint32",
	Uint64:   "Uint64",
	Float32:  "Float32",
	Float64:  "Float64",
	Decimal:  "Decimal",
	Char:     "Char",
	DateTime: "DateTime",
	UUID:     "UUID",
	Enum:     "Enum",
}

// String implements the [fmt.Stringer] interface.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

var kindTypes = [...]reflect.Type{
	String:   reflect.TypeOf(""),
	Bool:     reflect.TypeOf(false),
	Int:      reflect.TypeOf(int(0)),
	Int8:     reflect.TypeOf(int8(0)),
	Int16:    reflect.TypeOf(int16(0)),
	Int32:    reflect.TypeOf(int32(0)),
	Int64:    reflect.TypeOf(int64(0)),
	Uint:     reflect.TypeOf(uint(0)),
	Uint8:    reflect.TypeOf(uint8(0)),
	Uint16:   reflect.TypeOf(uint16(0)),
	Uint32:   reflect.TypeOf(uint32(0)),
	Uint64:   reflect.TypeOf(uint64(0)),
	Float32:  reflect.TypeOf(float32(0)),
	Float64:  reflect.TypeOf(float64(0)),
	Decimal:  reflect.TypeOf(decimal.Decimal{}),
	Char:     reflect.TypeOf(rune(0)),
	DateTime: reflect.TypeOf(time.Time{}),
	UUID:     reflect.TypeOf(uuid.UUID{}),
	Enum:     reflect.TypeOf(int64(0)),
}

// Member is a single named value of an enum.
type Member struct {
	Name  string
	Value int64
}

// EnumType lists the members of a named integer type.
type EnumType struct {
	Name    string
	Members []Member
}

// Type is the full declared type of a parameter.
type Type struct {
	Kind     Kind
	Nullable bool

	// Enum must be set when Kind is [Enum].
	Enum *EnumType
}

// Of returns the non-nullable [Type] of the given kind.
func Of(k Kind) Type {
	return Type{Kind: k}
}

// NullableOf returns the nullable [Type] of the given kind.
func NullableOf(k Kind) Type {
	return Type{Kind: k, Nullable: true}
}

// EnumOf returns the [Type] for values of the given enum.
func EnumOf(e *EnumType) Type {
	return Type{Kind: Enum, Enum: e}
}

// GoType is the type of the values [Resolve] produces for t. Nullable
// types resolve to a pointer of the underlying type.
func (t Type) GoType() reflect.Type {
	var rt reflect.Type
	if t.Kind >= 0 && int(t.Kind) < len(kindTypes) {
		rt = kindTypes[t.Kind]
	}
	if rt == nil {
		rt = kindTypes[String]
	}
	if t.Nullable {
		return reflect.PointerTo(rt)
	}
	return rt
}

// Zero returns the zero value of t. For nullable types this is a typed nil pointer.
func (t Type) Zero() any {
	return reflect.Zero(t.GoType()).Interface()
}

// String implements the [fmt.Stringer] interface.
func (t Type) String() string {
	name := t.Kind.String()
	if t.Kind == Enum && t.Enum != nil {
		name = t.Enum.Name
	}
	if t.Nullable {
		return "*" + name
	}
	return name
}

// Param is a single name, type and default triple of a [Signature].
type Param struct {
	Name string
	Type Type

	// Default is used when no source provides a value or the provided value
	// fails to parse. A nil Default means the zero value of Type.
	Default any
}

// Signature is the ordered parameter list of an endpoint.
type Signature []Param

// InvalidDefaultError is returned by [Signature.Validate] when a default
// value does not have the Go type produced for its parameter.
type InvalidDefaultError struct {
	Param string
	Want  reflect.Type
	Got   reflect.Type
}

// Error implements the [error] interface.
func (e InvalidDefaultError) Error() string {
	return fmt.Sprintf("default for parameter %s must be %s but is %s", e.Param, e.Want, e.Got)
}

// Validate reports the first parameter whose default has the wrong Go type.
func (sig Signature) Validate() error {
	for _, p := range sig {
		if p.Default == nil {
			continue
		}

		want := p.Type.GoType()
		got := reflect.TypeOf(p.Default)
		if got != want {
			return InvalidDefaultError{Param: p.Name, Want: want, Got: got}
		}
	}
	return nil
}

func (p Param) fallback() any {
	if p.Default != nil && reflect.TypeOf(p.Default) == p.Type.GoType() {
		return p.Default
	}
	return p.Type.Zero()
}
