package market

import (
	"fmt"

	"spot-cycler-go/gateway"
	"spot-cycler-go/numeric"
)

// Snapshot is a normalized view of top-of-book plus the free quote balance.
// Immutable once produced; recomputed on each cycle.
type Snapshot struct {
	LowestAsk    float64
	LowestAskQty float64
	HighestBid   float64
	Mid          float64 // rounded down to the configured price precision
	QuoteBalance float64
}

// DataError reports unavailable or unusable market data. A cycle that hits
// one aborts without mutating any state.
type DataError struct {
	Reason string
	Cause  error
}

func (e *DataError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("market data: %s: %v", e.Reason, e.Cause)
	}
	return "market data: " + e.Reason
}

func (e *DataError) Unwrap() error { return e.Cause }

// Client is the narrow read-only slice of the exchange the provider needs.
type Client interface {
	AccountBalances() (map[string]float64, error)
	Depth(symbol string, limit int) (gateway.BookTop, error)
}

// Provider fetches and normalizes a snapshot. No side effects beyond the read.
type Provider struct {
	Client        Client
	Symbol        string
	QuoteAsset    string
	DepthLimit    int
	PriceDecimals int
}

// Snapshot reads balance and depth and derives the mid price.
func (p *Provider) Snapshot() (Snapshot, error) {
	var snap Snapshot
	balances, err := p.Client.AccountBalances()
	if err != nil {
		return snap, &DataError{Reason: "account balances unavailable", Cause: err}
	}
	quote, ok := balances[p.QuoteAsset]
	if !ok {
		return snap, &DataError{Reason: fmt.Sprintf("no %s balance reported", p.QuoteAsset)}
	}

	limit := p.DepthLimit
	if limit <= 0 {
		limit = 5
	}
	top, err := p.Client.Depth(p.Symbol, limit)
	if err != nil {
		return snap, &DataError{Reason: "order book unavailable", Cause: err}
	}
	if len(top.Asks) == 0 || len(top.Bids) == 0 {
		return snap, &DataError{Reason: "order book side empty"}
	}

	ask := top.Asks[0]
	bid := top.Bids[0]
	return Snapshot{
		LowestAsk:    ask.Price,
		LowestAskQty: ask.Qty,
		HighestBid:   bid.Price,
		Mid:          numeric.Round((ask.Price+bid.Price)/2, p.PriceDecimals, numeric.Down),
		QuoteBalance: quote,
	}, nil
}
