// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlag_Healthy(t *testing.T) {
	t.Run("will be unhealthy", func(t *testing.T) {
		t.Run("if it was never set", func(t *testing.T) {
			var f Flag
			if !assert.False(t, f.Healthy(context.Background())) {
				return
			}
		})
	})

	t.Run("will report the last state set", func(t *testing.T) {
		var f Flag
		f.Set(true)
		if !assert.True(t, f.Healthy(context.Background())) {
			return
		}

		f.Set(false)
		if !assert.False(t, f.Healthy(context.Background())) {
			return
		}
	})
}

func TestAnd(t *testing.T) {
	healthy := MetricFunc(func(context.Context) bool { return true })
	unhealthy := MetricFunc(func(context.Context) bool { return false })

	testCases := []struct {
		Name    string
		Metrics []Metric
		Healthy bool
	}{
		{Name: "no metrics", Healthy: true},
		{Name: "all healthy", Metrics: []Metric{healthy, healthy}, Healthy: true},
		{Name: "one unhealthy", Metrics: []Metric{healthy, unhealthy}, Healthy: false},
		{Name: "all unhealthy", Metrics: []Metric{unhealthy, unhealthy}, Healthy: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			m := And(testCase.Metrics...)
			if !assert.Equal(t, testCase.Healthy, m.Healthy(context.Background())) {
				return
			}
		})
	}
}
