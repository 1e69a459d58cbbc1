package trade

import (
	"spot-cycler-go/market"
	"spot-cycler-go/order"
)

// Exchange is the order-side slice of the exchange client the cycle needs.
// *gateway.BinanceRESTClient satisfies it.
type Exchange interface {
	PlaceLimit(symbol, side string, price, qty float64) (order.Order, error)
	PlaceMarket(symbol, side string, qty float64) (order.Order, error)
	GetOrder(symbol string, orderID int64) (order.Order, error)
	CancelOrder(symbol string, orderID int64) error
	OpenOrders(symbol string) ([]order.Order, error)
}

// Snapshotter produces a fresh market snapshot; *market.Provider satisfies it.
type Snapshotter interface {
	Snapshot() (market.Snapshot, error)
}

// EventSink receives structured progress/error events. The caller wires it to
// the process logger; nil sinks are tolerated.
type EventSink func(event string, fields map[string]interface{})
