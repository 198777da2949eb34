// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package ring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer(t *testing.T) {
	t.Run("will evict the oldest value", func(t *testing.T) {
		t.Run("if more values than the capacity are pushed", func(t *testing.T) {
			b := New[int](3)
			for i := range 5 {
				b.Push(i)
			}

			if !assert.Equal(t, 3, b.Len()) {
				return
			}
			if !assert.Equal(t, []int{2, 3, 4}, b.Snapshot()) {
				return
			}
		})
	})

	t.Run("will return values oldest first", func(t *testing.T) {
		t.Run("if the buffer is not full", func(t *testing.T) {
			b := New[string](3)
			b.Push("a")
			b.Push("b")

			if !assert.Equal(t, []string{"a", "b"}, b.Snapshot()) {
				return
			}
		})
	})

	t.Run("will be empty", func(t *testing.T) {
		t.Run("if it was cleared", func(t *testing.T) {
			b := New[int](2)
			b.Push(1)
			b.Clear()

			if !assert.Empty(t, b.Snapshot()) {
				return
			}
			b.Push(2)
			if !assert.Equal(t, []int{2}, b.Snapshot()) {
				return
			}
		})
	})

	t.Run("will never exceed its capacity", func(t *testing.T) {
		t.Run("if pushed to concurrently", func(t *testing.T) {
			b := New[int](10)

			var wg sync.WaitGroup
			for i := range 100 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					b.Push(i)
				}()
			}
			wg.Wait()

			if !assert.Equal(t, 10, b.Len()) {
				return
			}
		})
	})
}
