package ratelimiter

import (
	"strings"
	"sync"
	"time"
)

// RatePolicy defines the rate limit configuration for a namespace
type RatePolicy struct {
	MaxAttempts int
	Window      time.Duration
}

// RateLimiter is a sliding-window limiter keyed by namespace and caller.
//
//	rl := ratelimiter.NewRateLimiter(time.Minute)
//	rl.SetPolicy("executions.execute", 30, time.Minute)
//
//	if !rl.Allow("executions.execute", userID) {
//	    return http.StatusTooManyRequests
//	}
type RateLimiter struct {
	mu          sync.Mutex
	attempts    map[string][]time.Time // "namespace:key" -> attempt timestamps
	policies    map[string]RatePolicy
	stopCleanup chan struct{}
	stopped     bool
	now         func() time.Time
}

// NewRateLimiter starts a cleanup goroutine that runs every cleanupInterval
func NewRateLimiter(cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		attempts:    make(map[string][]time.Time),
		policies:    make(map[string]RatePolicy),
		stopCleanup: make(chan struct{}),
		now:         time.Now,
	}

	go rl.runCleanup(cleanupInterval)

	return rl
}

func (rl *RateLimiter) SetPolicy(namespace string, maxAttempts int, window time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.policies[namespace] = RatePolicy{
		MaxAttempts: maxAttempts,
		Window:      window,
	}
}

// Allow records an attempt and reports whether it fits the namespace policy.
// Namespaces without a policy are denied.
func (rl *RateLimiter) Allow(namespace, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, exists := rl.policies[namespace]
	if !exists {
		return false
	}

	now := rl.now()
	compositeKey := namespace + ":" + key
	valid := pruneBefore(rl.attempts[compositeKey], now.Add(-policy.Window))

	if len(valid) >= policy.MaxAttempts {
		rl.attempts[compositeKey] = valid
		return false
	}

	rl.attempts[compositeKey] = append(valid, now)
	return true
}

func (rl *RateLimiter) Reset(namespace, key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.attempts, namespace+":"+key)
}

// RetryAfter returns the whole seconds until the oldest attempt in the window expires, for Retry-After headers
func (rl *RateLimiter) RetryAfter(namespace, key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, exists := rl.policies[namespace]
	if !exists {
		return 0
	}

	now := rl.now()
	valid := pruneBefore(rl.attempts[namespace+":"+key], now.Add(-policy.Window))
	if len(valid) == 0 {
		return 0
	}

	remaining := valid[0].Add(policy.Window).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// pruneBefore keeps timestamps after cutoff; attempts are appended in order so the slice stays sorted
func pruneBefore(attempts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(attempts) && !attempts[i].After(cutoff) {
		i++
	}
	return attempts[i:]
}

func (rl *RateLimiter) runCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for compositeKey, attempts := range rl.attempts {
		namespace := compositeKey
		if idx := strings.IndexByte(compositeKey, ':'); idx >= 0 {
			namespace = compositeKey[:idx]
		}

		policy, exists := rl.policies[namespace]
		if !exists || len(pruneBefore(attempts, now.Add(-policy.Window))) == 0 {
			delete(rl.attempts, compositeKey)
		}
	}
}

// Stop is safe to call multiple times
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.stopped {
		close(rl.stopCleanup)
		rl.stopped = true
	}
}
