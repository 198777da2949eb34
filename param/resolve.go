// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

// Resolve returns one argument per parameter of sig, in order. Each argument
// has the Go type reported by [Type.GoType] for its parameter. Resolve never
// fails: a missing or unparsable value yields the parameter default and a
// missing default yields the zero value.
func Resolve(req *Request, sig Signature) []any {
	args := make([]any, len(sig))
	for i, p := range sig {
		args[i] = resolveOne(req, p)
	}
	return args
}

func resolveOne(req *Request, p Param) any {
	raw, ok := req.Lookup(p.Name)
	if !ok {
		return p.fallback()
	}

	v, ok := Coerce(raw, p.Type)
	if !ok {
		return p.fallback()
	}
	return v
}

// Integer is the constraint satisfied by enum types.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// EnumValue converts a resolved enum argument into its named type.
func EnumValue[T Integer](arg any) T {
	n, _ := arg.(int64)
	return T(n)
}

// EnumPtr converts a resolved nullable enum argument into a pointer of its named type.
func EnumPtr[T Integer](arg any) *T {
	n, _ := arg.(*int64)
	if n == nil {
		return nil
	}
	v := T(*n)
	return &v
}
