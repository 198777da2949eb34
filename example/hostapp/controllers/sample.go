// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package controllers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/z5labs/localrest/example/hostapp/scene"
)

// Greeting is the reply of SampleController.Hello.
type Greeting struct {
	Message string `json:"message"`
}

// Echoed is the reply of SampleController.Echo.
type Echoed struct {
	Message  string    `json:"message"`
	Received time.Time `json:"received"`
}

// RandomNumber is the reply of SampleController.Random.
type RandomNumber struct {
	Min   int32 `json:"min"`
	Max   int32 `json:"max"`
	Value int32 `json:"value"`
}

// HostStatus is the reply of SampleController.Status.
type HostStatus struct {
	Status  string `json:"status"`
	Scene   string `json:"scene"`
	Objects int    `json:"objects"`
	Uptime  string `json:"uptime"`
}

// SampleController demonstrates the supported parameter and return shapes.
type SampleController struct{}

// Hello greets someone.
//
//localrest:get /api/hello
//localrest:default name=world
func (SampleController) Hello(ctx context.Context, name string) (Greeting, error) {
	return Greeting{Message: fmt.Sprintf("Hello, %s!", name)}, nil
}

// Echo returns the message it was sent.
//
//localrest:post /api/echo
func (SampleController) Echo(message string) Echoed {
	return Echoed{
		Message:  message,
		Received: time.Now().UTC(),
	}
}

// Random picks a number in the closed interval [min, max].
//
//localrest:get /api/random
//localrest:default min=0
//localrest:default max=100
func (SampleController) Random(min, max int32) (RandomNumber, error) {
	if min > max {
		return RandomNumber{}, fmt.Errorf("min (%d) must not be greater than max (%d)", min, max)
	}
	n := min + int32(rand.Int64N(int64(max)-int64(min)+1))
	return RandomNumber{Min: min, Max: max, Value: n}, nil
}

//localrest:get /api/status
func (SampleController) Status() HostStatus {
	s := scene.Current()
	return HostStatus{
		Status:  "ok",
		Scene:   s.Name(),
		Objects: s.Len(),
		Uptime:  s.Uptime().Truncate(time.Second).String(),
	}
}
