package trade

import (
	"context"
	"math"
	"sync"
	"time"

	"spot-cycler-go/gateway"
	"spot-cycler-go/market"
	"spot-cycler-go/metrics"
	"spot-cycler-go/numeric"
	"spot-cycler-go/order"
)

// sellSafetyMargin 卖出数量预留 0.1%，抵消手续费/舍入导致的超卖拒单。
const sellSafetyMargin = 0.999

// Params are the tunable knobs of a cycle. They can be swapped at runtime
// through SetParams (config hot reload); a running cycle keeps the copy it
// started with.
type Params struct {
	ProfitMinPct     float64
	ProfitMaxPct     float64
	SellSpreadMaxPct float64
	MinOrderQuote    float64
	MinOrderPercent  float64
	PriceDecimals    int
	QtyDecimals      int
	LimitWait        time.Duration
}

// Cycler runs the acquire-then-sell cycle: limit buy at mid, poll after a
// fixed wait, fall back to a market buy, then rest a take-profit limit sell.
// Cycles are strictly serialized; a trigger firing mid-cycle is skipped.
type Cycler struct {
	Symbol   string
	Exchange Exchange
	Book     Snapshotter

	// Uniform is the random source for the profit draw; tests substitute a
	// deterministic one. Defaults to math/rand.
	Uniform func() float64

	paramsMu sync.RWMutex
	params   Params

	cycleMu sync.Mutex
	carry   CarryOver

	waitFn func(ctx context.Context, d time.Duration) error
	sink   EventSink
}

// lot is the quantity acquired within one cycle's buy step.
type lot struct {
	qty      float64
	boughtAt float64
}

func NewCycler(symbol string, ex Exchange, book Snapshotter, p Params, sink EventSink) *Cycler {
	return &Cycler{
		Symbol:   symbol,
		Exchange: ex,
		Book:     book,
		params:   p,
		waitFn:   waitFor,
		sink:     sink,
	}
}

// SetParams replaces the tunable knobs; safe to call while a cycle runs.
func (c *Cycler) SetParams(p Params) {
	c.paramsMu.Lock()
	c.params = p
	c.paramsMu.Unlock()
}

// Params returns the current knobs.
func (c *Cycler) Params() Params {
	c.paramsMu.RLock()
	defer c.paramsMu.RUnlock()
	return c.params
}

// CarryState exposes the carried amount and cost basis for observability.
func (c *Cycler) CarryState() (amount, boughtAt float64) {
	return c.carry.State()
}

// Run executes one full cycle. Every error is handled and logged here; the
// scheduler stays alive regardless of a single cycle's outcome. A Run that
// overlaps an in-flight cycle is dropped, not queued.
func (c *Cycler) Run(ctx context.Context) {
	if !c.cycleMu.TryLock() {
		c.logEvent("cycle_skipped_in_flight", map[string]interface{}{"symbol": c.Symbol})
		metrics.CyclesTotal.WithLabelValues("skipped").Inc()
		return
	}
	defer c.cycleMu.Unlock()

	switch err := c.runCycle(ctx); {
	case err == nil:
		metrics.CyclesTotal.WithLabelValues("completed").Inc()
	case ctx.Err() != nil:
		metrics.CyclesTotal.WithLabelValues("aborted").Inc()
	default:
		metrics.CyclesTotal.WithLabelValues("error").Inc()
	}
}

func (c *Cycler) runCycle(ctx context.Context) error {
	p := c.Params()

	snap, err := c.Book.Snapshot()
	if err != nil {
		c.logEvent("snapshot_error", map[string]interface{}{"symbol": c.Symbol, "error": err.Error()})
		return err
	}
	metrics.UpdateSnapshot(snap.Mid, snap.QuoteBalance)

	if snap.QuoteBalance < p.MinOrderQuote {
		c.logEvent("balance_below_min", map[string]interface{}{
			"symbol":    c.Symbol,
			"balance":   snap.QuoteBalance,
			"min_quote": p.MinOrderQuote,
		})
		return nil
	}

	acquired, ok, err := c.acquire(ctx, snap, p)
	if !ok {
		return err
	}
	return c.placeSell(acquired.qty, acquired.boughtAt, p)
}

// acquire walks the limit-then-market state machine and returns the lot to
// sell. ok=false means the cycle ends without a position (already logged).
func (c *Cycler) acquire(ctx context.Context, snap market.Snapshot, p Params) (lot, bool, error) {
	budget := buyBudget(snap.QuoteBalance, p)
	qty := numeric.Round(budget/snap.Mid, p.QtyDecimals, numeric.Up)

	placed, err := c.Exchange.PlaceLimit(c.Symbol, order.SideBuy, snap.Mid, qty)
	if err != nil {
		metrics.OrderErrors.WithLabelValues("limit_buy").Inc()
		c.logEvent("limit_buy_error", map[string]interface{}{
			"symbol": c.Symbol, "price": snap.Mid, "qty": qty, "error": err.Error(),
		})
		return c.marketFallback(p)
	}
	metrics.OrdersSubmitted.WithLabelValues(order.SideBuy, order.TypeLimit).Inc()
	c.logEvent("limit_buy_placed", map[string]interface{}{
		"symbol": c.Symbol, "order_id": placed.ID, "price": snap.Mid, "qty": qty,
	})

	// The exchange does not push fills here; polling immediately would see
	// stale state, so the cycle deliberately sleeps before the single poll.
	if err := c.waitFn(ctx, p.LimitWait); err != nil {
		c.logEvent("cycle_aborted", map[string]interface{}{"symbol": c.Symbol, "order_id": placed.ID})
		return lot{}, false, err
	}

	current, err := c.Exchange.GetOrder(c.Symbol, placed.ID)
	if err != nil {
		metrics.OrderErrors.WithLabelValues("poll").Inc()
		c.logEvent("order_poll_error", map[string]interface{}{
			"symbol": c.Symbol, "order_id": placed.ID, "error": err.Error(),
		})
		c.cancelQuietly(placed.ID)
		return c.marketFallback(p)
	}

	switch current.Status {
	case order.StatusFilled:
		c.logEvent("limit_buy_filled", map[string]interface{}{
			"symbol":   c.Symbol,
			"order_id": current.ID,
			"qty":      current.ExecutedQty,
			"price":    current.Price,
			"notional": current.ExecutedQty * current.Price,
		})
		return lot{qty: current.ExecutedQty, boughtAt: current.Price}, true, nil

	case order.StatusPartiallyFilled:
		// Cancel the remainder, remember the filled part for the next sell,
		// then still chase this cycle's full target with a market buy.
		c.cancelQuietly(current.ID)
		c.carry.Add(current.ExecutedQty, current.Price)
		amount, boughtAt := c.carry.State()
		metrics.CarryOverAmount.Set(amount)
		c.logEvent("carry_over_added", map[string]interface{}{
			"symbol":     c.Symbol,
			"order_id":   current.ID,
			"filled_qty": current.ExecutedQty,
			"fill_price": current.Price,
			"carry_qty":  amount,
			"carry_cost": boughtAt,
		})
		return c.marketFallback(p)

	default:
		c.cancelQuietly(current.ID)
		c.logEvent("limit_buy_unfilled", map[string]interface{}{
			"symbol": c.Symbol, "order_id": current.ID, "status": string(current.Status),
		})
		return c.marketFallback(p)
	}
}

// marketFallback re-snapshots the book (the price may have moved) and buys
// the current cycle's target at market. No retry on failure; the next
// scheduled cycle re-evaluates from scratch.
func (c *Cycler) marketFallback(p Params) (lot, bool, error) {
	snap, err := c.Book.Snapshot()
	if err != nil {
		c.logEvent("snapshot_error", map[string]interface{}{"symbol": c.Symbol, "error": err.Error()})
		return lot{}, false, err
	}
	budget := buyBudget(snap.QuoteBalance, p)
	qty := numeric.Round(budget/snap.LowestAsk, p.QtyDecimals, numeric.Up)

	bought, err := c.Exchange.PlaceMarket(c.Symbol, order.SideBuy, qty)
	if err != nil {
		metrics.OrderErrors.WithLabelValues("market_buy").Inc()
		c.logEvent("market_buy_error", map[string]interface{}{
			"symbol": c.Symbol, "qty": qty, "error": err.Error(),
		})
		return lot{}, false, err
	}
	metrics.OrdersSubmitted.WithLabelValues(order.SideBuy, order.TypeMarket).Inc()

	price := bought.HighestFillPrice()
	c.logEvent("market_bought", map[string]interface{}{
		"symbol":   c.Symbol,
		"order_id": bought.ID,
		"qty":      bought.ExecutedQty,
		"price":    price,
		"notional": bought.ExecutedQty * price,
	})
	return lot{qty: bought.ExecutedQty, boughtAt: price}, true, nil
}

// placeSell rests the take-profit limit sell for the lot plus any carry-over.
func (c *Cycler) placeSell(lotQty, boughtAt float64, p Params) error {
	factor := profitFactor(p.ProfitMinPct, p.ProfitMaxPct, c.Uniform)

	sellQty := numeric.Round(lotQty*sellSafetyMargin, p.QtyDecimals, numeric.Nearest)
	sellPrice := numeric.Round(boughtAt*factor, p.PriceDecimals, numeric.Nearest)

	carryQty, carryCost := c.carry.State()
	if carryQty > 0 {
		sellQty += carryQty
		// The carried lot keeps its own profit floor even though the current
		// lot's price anchors the order.
		sellPrice = math.Max(sellPrice, carryCost)
	}

	placed, err := c.Exchange.PlaceLimit(c.Symbol, order.SideSell, sellPrice, sellQty)
	if err != nil {
		metrics.OrderErrors.WithLabelValues("limit_sell").Inc()
		// Carry-over is deliberately left untouched: the unsold carried
		// quantity rides into the next successful sell placement.
		c.logEvent("sell_error", map[string]interface{}{
			"symbol": c.Symbol, "price": sellPrice, "qty": sellQty, "error": err.Error(),
		})
		return err
	}
	metrics.OrdersSubmitted.WithLabelValues(order.SideSell, order.TypeLimit).Inc()
	metrics.ProfitFactor.Set(factor)

	c.carry.Reset()
	metrics.CarryOverAmount.Set(0)

	c.logEvent("sell_placed", map[string]interface{}{
		"symbol":        c.Symbol,
		"order_id":      placed.ID,
		"price":         sellPrice,
		"qty":           sellQty,
		"notional":      sellPrice * sellQty,
		"profit_factor": factor,
	})
	return nil
}

// cancelQuietly cancels best-effort. An already filled/canceled order is a
// benign race: log and proceed as if the cancel succeeded. Never re-attempted.
func (c *Cycler) cancelQuietly(orderID int64) {
	err := c.Exchange.CancelOrder(c.Symbol, orderID)
	if err == nil {
		c.logEvent("limit_buy_canceled", map[string]interface{}{"symbol": c.Symbol, "order_id": orderID})
		return
	}
	if gateway.IsNotCancelable(err) {
		c.logEvent("cancel_race", map[string]interface{}{"symbol": c.Symbol, "order_id": orderID})
		return
	}
	metrics.OrderErrors.WithLabelValues("cancel").Inc()
	c.logEvent("cancel_error", map[string]interface{}{
		"symbol": c.Symbol, "order_id": orderID, "error": err.Error(),
	})
}

// buyBudget is the quote amount to spend this cycle: at least the configured
// minimum, scaling with the account. The budget, not the balance.
func buyBudget(quoteBalance float64, p Params) float64 {
	return math.Max(p.MinOrderQuote, quoteBalance*p.MinOrderPercent/100)
}

func (c *Cycler) logEvent(event string, fields map[string]interface{}) {
	if c.sink == nil {
		return
	}
	c.sink(event, fields)
}

func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
