package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// BinanceSpotWSEndpoint 现货行情流默认地址。
const BinanceSpotWSEndpoint = "wss://stream.binance.com:9443"

// BookTickerStream 订阅单交易对 bookTicker，维护最新盘口缓存。
// 行情仅作为触发器的低成本数据源；过期时调用方应回退 REST 深度。
type BookTickerStream struct {
	Endpoint string
	Symbol   string
	Dialer   *websocket.Dialer

	mu        sync.RWMutex
	bestBid   float64
	bestAsk   float64
	updatedAt time.Time

	onError func(error)
}

func NewBookTickerStream(symbol string) *BookTickerStream {
	return &BookTickerStream{
		Endpoint: BinanceSpotWSEndpoint,
		Symbol:   symbol,
		Dialer:   websocket.DefaultDialer,
	}
}

// OnError 注册连接错误回调（可选）。
func (s *BookTickerStream) OnError(fn func(error)) { s.onError = fn }

// Top 返回缓存的最优买卖价与更新时间；从未收到数据时 ok 为 false。
func (s *BookTickerStream) Top() (bid, ask float64, updatedAt time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.updatedAt.IsZero() {
		return 0, 0, time.Time{}, false
	}
	return s.bestBid, s.bestAsk, s.updatedAt, true
}

// Run 连接并持续读取，断线后退避重连，ctx 取消时返回。
func (s *BookTickerStream) Run(ctx context.Context) error {
	if s.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	backoff := time.Second
	for {
		err := s.readLoop(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && s.onError != nil {
			s.onError(err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *BookTickerStream) readLoop(ctx context.Context) error {
	u := strings.TrimSuffix(s.Endpoint, "/") + "/ws/" + strings.ToLower(s.Symbol) + "@bookTicker"
	conn, _, err := s.Dialer.DialContext(ctx, u, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		bid, ask, err := parseBookTicker(message)
		if err != nil {
			continue // 跳过无法解析的帧
		}
		s.mu.Lock()
		s.bestBid = bid
		s.bestAsk = ask
		s.updatedAt = time.Now()
		s.mu.Unlock()
	}
}

// parseBookTicker 解析 bookTicker 推送帧，返回最优 bid/ask。
func parseBookTicker(msg []byte) (bid, ask float64, err error) {
	var frame struct {
		Bid string `json:"b"`
		Ask string `json:"a"`
	}
	if err = json.Unmarshal(msg, &frame); err != nil {
		return 0, 0, err
	}
	if frame.Bid == "" || frame.Ask == "" {
		return 0, 0, fmt.Errorf("not a bookTicker frame")
	}
	if bid, err = strconv.ParseFloat(frame.Bid, 64); err != nil {
		return 0, 0, err
	}
	if ask, err = strconv.ParseFloat(frame.Ask, 64); err != nil {
		return 0, 0, err
	}
	return bid, ask, nil
}
