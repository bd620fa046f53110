package infrastructure

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ChatRateLimiter applies a token bucket per chat.
type ChatRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*chatLimiter
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

type chatLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewChatRateLimiter allows perSecond events per chat with the given burst.
func NewChatRateLimiter(perSecond float64, burst int) *ChatRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ChatRateLimiter{
		limiters: make(map[string]*chatLimiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow consumes one token for chatID if available.
func (rl *ChatRateLimiter) Allow(chatID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cl, ok := rl.limiters[chatID]
	if !ok {
		cl = &chatLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[chatID] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than the idle TTL and returns how many
// it removed. Called periodically from the janitor.
func (rl *ChatRateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for id, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) > rl.idleTTL {
			delete(rl.limiters, id)
			removed++
		}
	}
	return removed
}

// Stats reports the limiter settings and how many chats hold a bucket.
func (rl *ChatRateLimiter) Stats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]any{
		"active_chats": len(rl.limiters),
		"rate":         float64(rl.rate),
		"burst":        rl.burst,
	}
}
