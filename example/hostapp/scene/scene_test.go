// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package scene

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScene_Spawn(t *testing.T) {
	t.Run("will add the object", func(t *testing.T) {
		s := New("test", 0)

		obj, err := s.Spawn("cube", Vector{X: 1, Y: 2, Z: 3})
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, Vector{X: 1, Y: 2, Z: 3}, obj.Position) {
			return
		}
		if !assert.Equal(t, []Object{obj}, s.Objects()) {
			return
		}
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the name is empty", func(t *testing.T) {
			s := New("test", 0)

			_, err := s.Spawn("", Vector{})
			if !assert.Error(t, err) {
				return
			}
			if !assert.Equal(t, 0, s.Len()) {
				return
			}
		})

		t.Run("if the scene is full", func(t *testing.T) {
			s := New("test", 1)

			_, err := s.Spawn("a", Vector{})
			if !assert.Nil(t, err) {
				return
			}

			_, err = s.Spawn("b", Vector{})
			if !assert.True(t, errors.Is(err, ErrFull)) {
				return
			}
		})
	})
}

func TestScene_Objects(t *testing.T) {
	t.Run("will return a copy", func(t *testing.T) {
		s := New("test", 0)
		_, err := s.Spawn("a", Vector{})
		if !assert.Nil(t, err) {
			return
		}

		objs := s.Objects()
		objs[0].Name = "changed"
		if !assert.Equal(t, "a", s.Objects()[0].Name) {
			return
		}
	})
}
