// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseParams turns key=value arguments into Params. Values that decode
// as JSON numbers, booleans, null, objects or arrays keep that type,
// anything else is sent as a string.
func ParseParams(args []string) (Params, error) {
	params := make(Params, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value argument: %q", arg)
		}
		params[k] = literal(v)
	}
	return params, nil
}

func literal(s string) any {
	var v any
	err := json.Unmarshal([]byte(s), &v)
	if err != nil {
		return s
	}
	if _, isString := v.(string); isString {
		return s
	}
	return v
}
