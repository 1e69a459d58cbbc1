package gateway

import (
	"sync"
	"time"
)

// RateLimiter 控制请求速率，避免触发交易所限流。
type RateLimiter interface {
	Wait()
}

// TokenBucketLimiter 按固定速率补充令牌；每次请求消耗一枚，不足时阻塞等待。
type TokenBucketLimiter struct {
	rate   float64 // 每秒补充的令牌数
	burst  float64 // 桶容量
	tokens float64
	last   time.Time
	mu     sync.Mutex
}

func NewTokenBucketLimiter(rate float64, burst int) *TokenBucketLimiter {
	if rate <= 0 {
		rate = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &TokenBucketLimiter{
		rate:   rate,
		burst:  float64(burst),
		tokens: float64(burst),
		last:   time.Now(),
	}
}

func (l *TokenBucketLimiter) Wait() {
	l.mu.Lock()
	l.refillLocked(time.Now())
	if l.tokens >= 1 {
		l.tokens--
		l.mu.Unlock()
		return
	}
	shortfall := 1 - l.tokens
	l.tokens = 0
	l.mu.Unlock()
	time.Sleep(time.Duration(shortfall/l.rate*float64(time.Second)) + time.Millisecond)
}

func (l *TokenBucketLimiter) refillLocked(now time.Time) {
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	l.last = now
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
}
