// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package scene holds the state of the sample host. A Scene is not safe
// for concurrent use and must only be touched from the main loop.
package scene

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrFull is returned by [Scene.Spawn] once the scene holds its maximum
// number of objects.
var ErrFull = errors.New("scene is full")

// Vector is a position in the scene.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Object is a named thing placed in the scene.
type Object struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Position  Vector    `json:"position"`
	SpawnedAt time.Time `json:"spawned_at"`
}

// Scene is a flat list of objects.
type Scene struct {
	name       string
	maxObjects int
	started    time.Time
	objects    []Object
}

// New returns an empty scene. A maxObjects of zero or less means no limit.
func New(name string, maxObjects int) *Scene {
	return &Scene{
		name:       name,
		maxObjects: maxObjects,
		started:    time.Now(),
	}
}

var current = New("default", 0)

// Current returns the scene controllers operate on.
func Current() *Scene {
	return current
}

// Load replaces the current scene.
func Load(s *Scene) {
	current = s
}

// Name
func (s *Scene) Name() string {
	return s.name
}

// Uptime is the time since the scene was created.
func (s *Scene) Uptime() time.Duration {
	return time.Since(s.started)
}

// Len returns the number of objects in the scene.
func (s *Scene) Len() int {
	return len(s.objects)
}

// Objects returns a copy of the objects in spawn order.
func (s *Scene) Objects() []Object {
	objs := make([]Object, len(s.objects))
	copy(objs, s.objects)
	return objs
}

// Spawn adds a new object at pos.
func (s *Scene) Spawn(name string, pos Vector) (Object, error) {
	if name == "" {
		return Object{}, errors.New("object name must not be empty")
	}
	if s.maxObjects > 0 && len(s.objects) >= s.maxObjects {
		return Object{}, fmt.Errorf("can not spawn %s: %w", name, ErrFull)
	}

	obj := Object{
		ID:        uuid.New(),
		Name:      name,
		Position:  pos,
		SpawnedAt: time.Now().UTC(),
	}
	s.objects = append(s.objects, obj)
	return obj, nil
}
