// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strings"
)

type bodySource interface {
	lookup(name string) (string, bool)
}

func detectSource(contentType, body string) bodySource {
	if strings.TrimSpace(body) == "" {
		return nil
	}

	ct := strings.ToLower(contentType)
	isJSON := strings.Contains(ct, "application/json") || looksLikeJSON(body)
	isForm := strings.Contains(ct, "application/x-www-form-urlencoded")

	if isJSON {
		obj, err := parseObject(body)
		if err == nil {
			return obj
		}
	}
	if isForm {
		return formSource(body)
	}
	return nil
}

// looksLikeJSON accepts bodies without a JSON content type as long as they
// are brace delimited once surrounding whitespace is trimmed.
func looksLikeJSON(body string) bool {
	trimmed := strings.TrimSpace(body)
	return strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")
}

type jsonField struct {
	key   string
	value json.RawMessage
}

// jsonObject keeps the top level fields in document order so the case
// insensitive fallback always picks the first matching key.
type jsonObject []jsonField

var errNotObject = errors.New("json body is not an object")

func parseObject(body string) (jsonObject, error) {
	dec := json.NewDecoder(strings.NewReader(body))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		return nil, errNotObject
	}

	var obj jsonObject
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}

		var raw json.RawMessage
		err = dec.Decode(&raw)
		if err != nil {
			return nil, err
		}
		obj = append(obj, jsonField{key: key, value: raw})
	}

	_, err = dec.Token()
	if err != nil {
		return nil, err
	}

	// trailing content after the object makes the body invalid
	_, err = dec.Token()
	if err != io.EOF {
		return nil, errNotObject
	}
	return obj, nil
}

func (obj jsonObject) lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, f := range obj {
		if f.key == name {
			return projectJSON(f.value)
		}
	}
	for _, f := range obj {
		if strings.EqualFold(f.key, name) {
			return projectJSON(f.value)
		}
	}
	return "", false
}

// projectJSON turns a JSON value into the raw text handed to coercion.
// Strings are unquoted, numbers keep their literal text, objects and arrays
// become compact JSON and null is treated as absent.
func projectJSON(raw json.RawMessage) (string, bool) {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return "", false
	}

	switch v[0] {
	case 'n':
		return "", false
	case '"':
		var s string
		err := json.Unmarshal(v, &s)
		if err != nil {
			return "", false
		}
		return s, true
	case 't':
		return "true", true
	case 'f':
		return "false", true
	case '{', '[':
		var buf bytes.Buffer
		err := json.Compact(&buf, v)
		if err != nil {
			return "", false
		}
		return buf.String(), true
	default:
		return string(v), true
	}
}

type formSource string

func (form formSource) lookup(name string) (string, bool) {
	for _, seg := range strings.Split(string(form), "&") {
		if seg == "" {
			continue
		}

		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			continue
		}
		if formDecode(k) != name {
			continue
		}
		return formDecode(v), true
	}
	return "", false
}

// formDecode decodes '+' as space and percent escapes, keeping the
// original text when an escape is malformed.
func formDecode(s string) string {
	d, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return d
}
