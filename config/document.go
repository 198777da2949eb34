// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/z5labs/localrest/internal/try"

	"gopkg.in/yaml.v3"
)

// Document is a [Source] which decodes everything read from an io.Reader
// into nested maps. The reader is closed once read if it is an io.Closer.
type Document struct {
	format string
	r      io.Reader
	decode func([]byte, any) error
}

// FromYaml returns a [Document] holding YAML.
func FromYaml(r io.Reader) Document {
	return Document{format: "yaml", r: r, decode: yaml.Unmarshal}
}

// FromJson returns a [Document] holding JSON.
func FromJson(r io.Reader) Document {
	return Document{format: "json", r: r, decode: json.Unmarshal}
}

// InvalidDocumentError is returned when a [Document] can not be decoded
// into a map.
type InvalidDocumentError struct {
	Format string
	Cause  error
}

// Error implements the [error] interface.
func (e InvalidDocumentError) Error() string {
	return fmt.Sprintf("invalid %s document: %s", e.Format, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidDocumentError) Unwrap() error {
	return e.Cause
}

// Apply implements the [Source] interface. A blank document applies nothing.
func (d Document) Apply(store Store) (err error) {
	defer try.Close(&err, d.r)

	b, err := io.ReadAll(d.r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}

	var m map[string]any
	err = d.decode(b, &m)
	if err != nil {
		return InvalidDocumentError{Format: d.format, Cause: err}
	}
	return Map(m).Apply(store)
}
