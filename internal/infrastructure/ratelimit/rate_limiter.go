package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage   = "send_message"
	ActionCreateListing = "create_listing"
)

// Limit describes one action's budget: Burst events refilled over Per.
type Limit struct {
	Burst int
	Per   time.Duration
}

func (l Limit) rate() rate.Limit {
	if l.Per <= 0 || l.Burst <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(l.Burst) / l.Per.Seconds())
}

type userLimiter struct {
	limiter    *rate.Limiter
	limit      Limit
	lastAccess time.Time
}

// RateLimiter keeps one token bucket per user and action.
type RateLimiter struct {
	limits       map[string]Limit
	defaultLimit Limit

	mutex   sync.RWMutex
	buckets map[string]*userLimiter
}

// NewRateLimiter builds a limiter with per-action limits. Actions missing from
// limits fall back to 20 events per minute.
func NewRateLimiter(limits map[string]Limit) *RateLimiter {
	return &RateLimiter{
		limits:       limits,
		defaultLimit: Limit{Burst: 20, Per: time.Minute},
		buckets:      make(map[string]*userLimiter),
	}
}

// Allow reports whether the user may perform action now. When refused, the
// second value is the wait until a token is available.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	ul := rl.bucket(userID, action)

	now := time.Now()
	reservation := ul.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, ul.limit.Per
	}
	delay := reservation.DelayFrom(now)
	if delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// GetStatus returns the tokens currently available for a user action.
func (rl *RateLimiter) GetStatus(userID, action string) (tokens int, maxTokens int) {
	key := userID + ":" + action

	rl.mutex.RLock()
	ul, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if !exists {
		l := rl.limitFor(action)
		return l.Burst, l.Burst
	}
	return int(ul.limiter.Tokens()), ul.limit.Burst
}

func (rl *RateLimiter) bucket(userID, action string) *userLimiter {
	key := userID + ":" + action
	now := time.Now()

	rl.mutex.RLock()
	ul, exists := rl.buckets[key]
	rl.mutex.RUnlock()
	if exists {
		rl.mutex.Lock()
		ul.lastAccess = now
		rl.mutex.Unlock()
		return ul
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	// Double-check
	if ul, exists = rl.buckets[key]; exists {
		ul.lastAccess = now
		return ul
	}

	l := rl.limitFor(action)
	ul = &userLimiter{
		limiter:    rate.NewLimiter(l.rate(), l.Burst),
		limit:      l,
		lastAccess: now,
	}
	rl.buckets[key] = ul
	return ul
}

func (rl *RateLimiter) limitFor(action string) Limit {
	if l, ok := rl.limits[action]; ok {
		return l
	}
	return rl.defaultLimit
}

// Cleanup removes buckets idle for longer than ttl.
func (rl *RateLimiter) Cleanup(ttl time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for key, ul := range rl.buckets {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine prunes idle buckets every 30 minutes until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}
