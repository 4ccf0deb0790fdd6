package app

import (
	"testing"
	"time"

	"github.com/dkeye/huddle/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(3, 10*time.Second)
	rl.now = func() time.Time { return now }

	for range 3 {
		assert.True(t, rl.Allow("u1"))
	}
	assert.False(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u2"), "limits are per user")

	now = now.Add(5 * time.Second)
	assert.False(t, rl.Allow("u1"), "refused attempts do not extend the window")

	now = now.Add(6 * time.Second)
	assert.True(t, rl.Allow("u1"))
}

func TestRateLimiterForgetsIdleUsers(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(3, 10*time.Second)
	rl.now = func() time.Time { return now }

	for _, uid := range []domain.UserID{"u1", "u2", "u3"} {
		assert.True(t, rl.Allow(uid))
	}
	assert.Len(t, rl.history, 3)

	now = now.Add(4 * time.Second)
	assert.True(t, rl.Allow("u4"))
	assert.Len(t, rl.history, 4, "nothing has left the window yet")

	now = now.Add(7 * time.Second)
	assert.True(t, rl.Allow("u5"))
	assert.Len(t, rl.history, 2)
	assert.Contains(t, rl.history, domain.UserID("u4"))
	assert.Contains(t, rl.history, domain.UserID("u5"))
}

func TestRateLimiterDisabled(t *testing.T) {
	var nilLimiter *RateLimiter
	assert.True(t, nilLimiter.Allow("u1"))

	rl := NewRateLimiter(0, time.Second)
	for range 100 {
		assert.True(t, rl.Allow("u1"))
	}
}
