package trade

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-cycler-go/market"
	"spot-cycler-go/order"
)

type staticTop struct{ bid, ask float64 }

func (s staticTop) Top() (bid, ask float64, updatedAt time.Time, ok bool) {
	return s.bid, s.ask, time.Now(), true
}

func TestCadenceTrigger(t *testing.T) {
	tr := &CadenceTrigger{EveryX: 3}
	var fired []bool
	for i := 0; i < 7; i++ {
		fire, err := tr.Evaluate()
		require.NoError(t, err)
		fired = append(fired, fire)
	}
	assert.Equal(t, []bool{false, false, true, false, false, true, false}, fired)

	every := &CadenceTrigger{EveryX: 1}
	for i := 0; i < 3; i++ {
		fire, err := every.Evaluate()
		require.NoError(t, err)
		assert.True(t, fire)
	}
}

func openSells(prices ...float64) func() ([]order.Order, error) {
	return func() ([]order.Order, error) {
		out := make([]order.Order, 0, len(prices))
		for _, p := range prices {
			out = append(out, order.Order{Side: order.SideSell, Price: p, Status: order.StatusNew})
		}
		return out, nil
	}
}

func TestBookTriggerEmptySellSideFires(t *testing.T) {
	ex := &mockExchange{openFn: func() ([]order.Order, error) {
		// a resting buy must not count as sell-side coverage
		return []order.Order{{Side: order.SideBuy, Price: 9.90}}, nil
	}}
	book := &stubBook{snaps: []market.Snapshot{{LowestAsk: 10.00}}}
	tr := NewBookTrigger("NANOUSDT", ex, book, 0.3, nil)

	fire, err := tr.Evaluate()
	require.NoError(t, err)
	assert.True(t, fire)
}

func TestBookTriggerSpreadThreshold(t *testing.T) {
	// own sells at 10.05 and 10.10, best ask 10.00:
	// (10.05/10.00-1)*100 = 0.5% > 0.3% -> fire
	ex := &mockExchange{openFn: openSells(10.10, 10.05)}
	book := &stubBook{snaps: []market.Snapshot{{LowestAsk: 10.00}}}
	tr := NewBookTrigger("NANOUSDT", ex, book, 0.3, nil)

	fire, err := tr.Evaluate()
	require.NoError(t, err)
	assert.True(t, fire, "0.5%% spread must trigger at a 0.3%% cap")

	// best ask 10.04: spread ~0.1% -> no-op
	book.snaps = []market.Snapshot{{LowestAsk: 10.04}}
	fire, err = tr.Evaluate()
	require.NoError(t, err)
	assert.False(t, fire, "0.1%% spread must not trigger")
}

func TestBookTriggerUsesFreshLiveTop(t *testing.T) {
	ex := &mockExchange{openFn: openSells(10.05)}
	book := &stubBook{snaps: []market.Snapshot{{LowestAsk: 99.0}}} // must not be consulted
	tr := NewBookTrigger("NANOUSDT", ex, book, 0.3, nil)
	tr.Live = staticTop{bid: 9.99, ask: 10.00}

	fire, err := tr.Evaluate()
	require.NoError(t, err)
	assert.True(t, fire)
	assert.Zero(t, book.calls, "fresh live top should spare the REST depth call")
}

func TestBookTriggerSetMaxSpread(t *testing.T) {
	ex := &mockExchange{openFn: openSells(10.05)}
	book := &stubBook{snaps: []market.Snapshot{{LowestAsk: 10.00}}}
	tr := NewBookTrigger("NANOUSDT", ex, book, 1.0, nil)

	fire, err := tr.Evaluate()
	require.NoError(t, err)
	assert.False(t, fire)

	tr.SetMaxSpread(0.3)
	fire, err = tr.Evaluate()
	require.NoError(t, err)
	assert.True(t, fire)
}

func TestSchedulerTickRunsCycleOnFire(t *testing.T) {
	runs := 0
	s := &Scheduler{
		Policy: &CadenceTrigger{EveryX: 2},
		Cycle:  func(ctx context.Context) { runs++ },
	}
	for i := 0; i < 4; i++ {
		s.tick(context.Background())
	}
	assert.Equal(t, 2, runs)
}
