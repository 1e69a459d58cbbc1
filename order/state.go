package order

// Status represents the exchange-reported order lifecycle.
// The Binance spot vocabulary is kept verbatim because the cycle
// branches on the reported status string.
type Status string

const (
	StatusNew             Status = "NEW"
	StatusPartiallyFilled Status = "PARTIALLY_FILLED"
	StatusFilled          Status = "FILLED"
	StatusCanceled        Status = "CANCELED"
	StatusRejected        Status = "REJECTED"
	StatusExpired         Status = "EXPIRED"
)

// Side of an order.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Order types.
const (
	TypeLimit  = "LIMIT"
	TypeMarket = "MARKET"
)

// Fill is one execution reported by the exchange, in report order.
type Fill struct {
	Price float64
	Qty   float64
}

// Order holds the exchange view of a submitted order.
type Order struct {
	ID          int64
	Symbol      string
	Side        string
	Type        string
	Price       float64
	Quantity    float64
	ExecutedQty float64
	Status      Status
	Fills       []Fill
}

// IsFinal reports whether the status can no longer change.
func (s Status) IsFinal() bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// CanCancel reports whether a cancel request makes sense for the status.
func (s Status) CanCancel() bool {
	switch s {
	case StatusNew, StatusPartiallyFilled:
		return true
	default:
		return false
	}
}

// HighestFillPrice returns the price of the last fill in the reported
// sequence, falling back to the order price when no fills were reported.
// Market buys walk the ask side upward, so the last fill is the worst one.
func (o Order) HighestFillPrice() float64 {
	if len(o.Fills) == 0 {
		return o.Price
	}
	return o.Fills[len(o.Fills)-1].Price
}
