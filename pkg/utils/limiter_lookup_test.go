package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestLimiterLookup(t *testing.T) {
	l := NewLimiterLookup[string](rate.Limit(0.001), 2)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst exhausted")
	assert.True(t, l.Allow("b"), "keys are limited independently")

	l.Remove("a")
	assert.True(t, l.Allow("a"), "removed key starts with a fresh limiter")

	l.Clear()
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}

func TestLimiterLookupInf(t *testing.T) {
	l := NewLimiterLookup[int](rate.Inf, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(1))
	}
}
