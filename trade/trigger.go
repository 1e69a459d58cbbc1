package trade

import (
	"context"
	"sync"
	"time"

	"spot-cycler-go/metrics"
	"spot-cycler-go/order"
)

// TriggerPolicy decides on each scheduler tick whether to run a cycle.
// The two policies are mutually exclusive operating modes of the same
// acquire/sell pipeline; a deployment selects one.
type TriggerPolicy interface {
	Name() string
	Evaluate() (fire bool, err error)
}

// CadenceTrigger fires unconditionally every EveryX ticks.
type CadenceTrigger struct {
	EveryX int
	count  int
}

func (t *CadenceTrigger) Name() string { return "cadence" }

func (t *CadenceTrigger) Evaluate() (bool, error) {
	t.count++
	if t.EveryX <= 1 || t.count >= t.EveryX {
		t.count = 0
		return true, nil
	}
	return false, nil
}

// TopSource serves a live best bid/ask with its age; the WS book ticker
// stream satisfies it.
type TopSource interface {
	Top() (bid, ask float64, updatedAt time.Time, ok bool)
}

// BookTrigger fires when the resting sell side is empty, or when the own
// lowest sell has drifted too far above the best ask to plausibly fill.
type BookTrigger struct {
	Symbol   string
	Exchange Exchange
	Book     Snapshotter

	// Live is optional; when its data is fresher than StaleAfter it spares
	// the REST depth call on every evaluation.
	Live       TopSource
	StaleAfter time.Duration

	mu           sync.RWMutex
	maxSpreadPct float64

	Sink EventSink
}

func NewBookTrigger(symbol string, ex Exchange, book Snapshotter, maxSpreadPct float64, sink EventSink) *BookTrigger {
	return &BookTrigger{
		Symbol:       symbol,
		Exchange:     ex,
		Book:         book,
		StaleAfter:   30 * time.Second,
		maxSpreadPct: maxSpreadPct,
		Sink:         sink,
	}
}

func (t *BookTrigger) Name() string { return "book" }

// SetMaxSpread updates the drift threshold (config hot reload).
func (t *BookTrigger) SetMaxSpread(pct float64) {
	t.mu.Lock()
	t.maxSpreadPct = pct
	t.mu.Unlock()
}

func (t *BookTrigger) maxSpread() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.maxSpreadPct
}

func (t *BookTrigger) Evaluate() (bool, error) {
	open, err := t.Exchange.OpenOrders(t.Symbol)
	if err != nil {
		return false, err
	}
	minSell := 0.0
	for _, o := range open {
		if o.Side != order.SideSell {
			continue
		}
		if minSell == 0 || o.Price < minSell {
			minSell = o.Price
		}
	}
	if minSell == 0 {
		t.logEvent("sell_side_empty", map[string]interface{}{"symbol": t.Symbol})
		return true, nil
	}

	bestAsk, err := t.bestAsk()
	if err != nil {
		return false, err
	}
	spread := (minSell/bestAsk - 1) * 100
	metrics.SellSpreadPct.Set(spread)

	maxSpread := t.maxSpread()
	if spread > maxSpread {
		t.logEvent("sell_drifted", map[string]interface{}{
			"symbol":     t.Symbol,
			"min_sell":   minSell,
			"best_ask":   bestAsk,
			"spread_pct": spread,
			"max_pct":    maxSpread,
		})
		return true, nil
	}
	return false, nil
}

func (t *BookTrigger) bestAsk() (float64, error) {
	if t.Live != nil {
		if _, ask, updatedAt, ok := t.Live.Top(); ok && ask > 0 && time.Since(updatedAt) <= t.StaleAfter {
			return ask, nil
		}
	}
	snap, err := t.Book.Snapshot()
	if err != nil {
		return 0, err
	}
	return snap.LowestAsk, nil
}

func (t *BookTrigger) logEvent(event string, fields map[string]interface{}) {
	if t.Sink == nil {
		return
	}
	t.Sink(event, fields)
}

// Scheduler drives a trigger policy on a fixed tick and runs cycles serially
// on its own goroutine. Trigger evaluation errors never stop the loop.
type Scheduler struct {
	Interval time.Duration
	Policy   TriggerPolicy
	Cycle    func(ctx context.Context)
	Sink     EventSink

	ticks int
}

// Start blocks until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.ticks++
	if s.Sink != nil {
		s.Sink("cycle_tick", map[string]interface{}{"n": s.ticks, "policy": s.Policy.Name()})
	}
	fire, err := s.Policy.Evaluate()
	if err != nil {
		metrics.TriggerDecisions.WithLabelValues(s.Policy.Name(), "error").Inc()
		if s.Sink != nil {
			s.Sink("trigger_error", map[string]interface{}{"policy": s.Policy.Name(), "error": err.Error()})
		}
		return
	}
	if !fire {
		metrics.TriggerDecisions.WithLabelValues(s.Policy.Name(), "noop").Inc()
		return
	}
	metrics.TriggerDecisions.WithLabelValues(s.Policy.Name(), "fire").Inc()
	s.Cycle(ctx)
}
