// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"encoding/json"
	"net/http"

	"github.com/z5labs/localrest/pkg/ptr"
)

// ResponseBuffer holds what a handler wants written back to the client.
// The server performs the actual write once the handler returns.
// RawBytes takes precedence over Body when both are set.
type ResponseBuffer struct {
	StatusCode  int
	ContentType string
	Body        string
	RawBytes    []byte
}

// SetText stores a text payload.
func (b *ResponseBuffer) SetText(status int, contentType, body string) {
	b.StatusCode = status
	b.ContentType = contentType
	b.Body = body
	b.RawBytes = nil
}

// SetBytes stores a binary payload.
func (b *ResponseBuffer) SetBytes(status int, contentType string, raw []byte) {
	b.StatusCode = status
	b.ContentType = contentType
	b.Body = ""
	b.RawBytes = raw
}

// SetJSON stores v encoded as JSON.
func (b *ResponseBuffer) SetJSON(status int, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.SetText(status, "application/json; charset=utf-8", string(raw))
	return nil
}

// HasPayload reports whether a body was set.
func (b *ResponseBuffer) HasPayload() bool {
	return b.RawBytes != nil || b.Body != ""
}

// Payload returns the authoritative body bytes.
func (b *ResponseBuffer) Payload() []byte {
	if b.RawBytes != nil {
		return b.RawBytes
	}
	return []byte(b.Body)
}

// Status returns the buffered status code, defaulting to 200.
func (b *ResponseBuffer) Status() int {
	if b.StatusCode == 0 {
		return http.StatusOK
	}
	return b.StatusCode
}

type resultKind int

const (
	resultEmpty resultKind = iota
	resultOk
	resultError
)

// Result is the outcome of an endpoint call: a value, nothing,
// or an error message.
type Result struct {
	kind    resultKind
	value   any
	message string
}

// Ok wraps a returned value. A nil value is the same as [Empty].
func Ok(v any) Result {
	if ptr.IsNil(v) {
		return Empty()
	}
	return Result{kind: resultOk, value: v}
}

// Empty is the result of an endpoint without a return value.
func Empty() Result {
	return Result{kind: resultEmpty}
}

// Failure is the result of a failed endpoint call.
func Failure(message string) Result {
	return Result{kind: resultError, message: message}
}

// Failed reports whether r is a [Failure].
func (r Result) Failed() bool {
	return r.kind == resultError
}

type successMarker struct {
	Success bool `json:"success"`
}

type errorBody struct {
	Error string `json:"error"`
}

// MarshalJSON implements the [json.Marshaler] interface.
func (r Result) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case resultOk:
		return json.Marshal(r.value)
	case resultError:
		return json.Marshal(errorBody{Error: r.message})
	default:
		return json.Marshal(successMarker{Success: true})
	}
}

// Write stores r in buf as JSON, 500 for failures and 200 otherwise.
func (r Result) Write(buf *ResponseBuffer) error {
	status := http.StatusOK
	if r.Failed() {
		status = http.StatusInternalServerError
	}
	return buf.SetJSON(status, r)
}
