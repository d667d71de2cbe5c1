package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// MultiLimiter manages multiple rate limiters for different services
type MultiLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// AddLimiter adds a new rate limiter for a service
// requestsPerSecond: the rate limit (e.g., 10 means 10 requests per second)
// burst: maximum burst size
func (m *MultiLimiter) AddLimiter(name string, requestsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Wait blocks until the limiter allows an event. Unknown names are not limited.
func (m *MultiLimiter) Wait(ctx context.Context, name string) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return nil
	}

	return limiter.Wait(ctx)
}

// Default rate limiter names
const (
	LimiterAnthropic = "anthropic"
	LimiterOpenAI    = "openai"
	LimiterPexels    = "pexels"
	LimiterUnsplash  = "unsplash"
	LimiterPixabay   = "pixabay"
	LimiterWordPress = "wordpress"
	LimiterGoogle    = "google"
)

// Limits configures the per-service request rates
type Limits struct {
	AnthropicPerMinute int
	StockPhotoPerHour  int
	WordPressPerMinute int
}

// NewDefaultLimiter creates a limiter with default rate limits
func NewDefaultLimiter() *MultiLimiter {
	return NewLimiter(Limits{
		AnthropicPerMinute: 10,
		StockPhotoPerHour:  50,
		WordPressPerMinute: 60,
	})
}

// NewLimiter creates a limiter from configured limits
func NewLimiter(l Limits) *MultiLimiter {
	m := NewMultiLimiter()

	m.AddLimiter(LimiterAnthropic, float64(l.AnthropicPerMinute)/60, 2)
	m.AddLimiter(LimiterOpenAI, 5.0/60, 1)

	// Unsplash demo apps get 50 requests per hour; Pexels and Pixabay are far
	// more generous but share the same budget here.
	perSecond := float64(l.StockPhotoPerHour) / 3600
	m.AddLimiter(LimiterPexels, perSecond, 5)
	m.AddLimiter(LimiterUnsplash, perSecond, 5)
	m.AddLimiter(LimiterPixabay, perSecond, 5)

	m.AddLimiter(LimiterWordPress, float64(l.WordPressPerMinute)/60, 10)

	// Search Console: 1200 queries per minute per site, be polite
	m.AddLimiter(LimiterGoogle, 1, 5)

	return m
}
