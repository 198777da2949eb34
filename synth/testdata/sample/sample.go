// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sample

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LogType int

const (
	LogTypeInfo LogType = iota
	LogTypeWarn
	LogTypeError
)

type Greeting struct {
	Message string `json:"message"`
}

type Controller struct{}

// Hello greets someone.
//
//localrest:get /api/hello
//localrest:default name=world
func (c *Controller) Hello(ctx context.Context, name string) (Greeting, error) {
	if name == "" {
		return Greeting{}, errors.New("name is required")
	}
	return Greeting{Message: "hello " + name}, nil
}

//localrest:route POST /api/log
//localrest:default kind=warn
func (Controller) Log(message *string, kind LogType) error {
	return nil
}

//localrest:put /api/values
//localrest:default count=3
//localrest:default ratio=0.5
func (c *Controller) Values(
	count int32,
	ratio *float64,
	price decimal.Decimal,
	when time.Time,
	id uuid.UUID,
	initial rune,
	enabled bool,
) map[string]any {
	return nil
}

//localrest:delete /api/reset
func (c *Controller) Reset() {}

// Helper has no directive and is ignored.
func (c *Controller) Helper() {}
