// Package alert 提供周期错误的告警分发与限流。
package alert

import (
	"sync"
	"time"
)

// Alert 告警信息
type Alert struct {
	Level     string                 // "INFO", "WARNING", "ERROR", "CRITICAL"
	Message   string                 // 告警消息
	Timestamp time.Time              // 告警时间
	Fields    map[string]interface{} // 附加字段
}

// Channel 告警通道接口
type Channel interface {
	Send(alert Alert) error
	Name() string
}

// Throttler 按 key 限流，避免同类告警刷屏。
type Throttler struct {
	lastSent map[string]time.Time
	interval time.Duration
	mu       sync.Mutex
}

// NewThrottler 创建限流器
func NewThrottler(interval time.Duration) *Throttler {
	return &Throttler{
		lastSent: make(map[string]time.Time),
		interval: interval,
	}
}

// Allow 检查是否允许发送
func (t *Throttler) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	if last, ok := t.lastSent[key]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.lastSent[key] = now
	return true
}

// Manager 告警管理器：把一条告警广播到所有通道。
type Manager struct {
	mu       sync.RWMutex
	channels []Channel
	throttle *Throttler
}

// NewManager 创建管理器；interval 为同 key 告警的最小间隔。
func NewManager(interval time.Duration, channels ...Channel) *Manager {
	return &Manager{
		channels: channels,
		throttle: NewThrottler(interval),
	}
}

// AddChannel 注册通道
func (m *Manager) AddChannel(c Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, c)
}

// Notify 以 message 为限流 key 发送告警；被限流时静默丢弃。
func (m *Manager) Notify(level, message string, fields map[string]interface{}) {
	if m == nil {
		return
	}
	if m.throttle != nil && !m.throttle.Allow(message) {
		return
	}
	a := Alert{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
		Fields:    fields,
	}
	m.mu.RLock()
	channels := m.channels
	m.mu.RUnlock()
	for _, c := range channels {
		_ = c.Send(a) // 单个通道失败不影响其余通道
	}
}
