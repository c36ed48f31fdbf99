package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_ExhaustsBurstPerUserAndAction(t *testing.T) {
	rl := NewRateLimiter(map[string]Limit{
		ActionSendMessage: {Burst: 3, Per: time.Minute},
	})

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("alice", ActionSendMessage)
		assert.True(t, ok, "attempt %d", i)
	}

	ok, wait := rl.Allow("alice", ActionSendMessage)
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	// Other users and other actions have their own buckets.
	ok, _ = rl.Allow("bob", ActionSendMessage)
	assert.True(t, ok)
	ok, _ = rl.Allow("alice", ActionCreateListing)
	assert.True(t, ok)
}

func TestGetStatus(t *testing.T) {
	rl := NewRateLimiter(map[string]Limit{
		ActionCreateListing: {Burst: 2, Per: time.Hour},
	})

	tokens, max := rl.GetStatus("alice", ActionCreateListing)
	assert.Equal(t, 2, tokens)
	assert.Equal(t, 2, max)

	rl.Allow("alice", ActionCreateListing)
	tokens, max = rl.GetStatus("alice", ActionCreateListing)
	assert.Equal(t, 1, tokens)
	assert.Equal(t, 2, max)
}

func TestCleanup_RemovesIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(nil)
	rl.Allow("alice", "anything")

	rl.Cleanup(time.Hour)
	assert.Len(t, rl.buckets, 1)

	rl.Cleanup(-time.Second)
	assert.Empty(t, rl.buckets)
}
