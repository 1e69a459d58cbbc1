package order

import "testing"

func TestStatusIsFinal(t *testing.T) {
	final := []Status{StatusFilled, StatusCanceled, StatusRejected, StatusExpired}
	for _, s := range final {
		if !s.IsFinal() {
			t.Fatalf("%s should be final", s)
		}
	}
	for _, s := range []Status{StatusNew, StatusPartiallyFilled} {
		if s.IsFinal() {
			t.Fatalf("%s should not be final", s)
		}
		if !s.CanCancel() {
			t.Fatalf("%s should be cancelable", s)
		}
	}
}

func TestHighestFillPrice(t *testing.T) {
	o := Order{
		Price: 1.5,
		Fills: []Fill{{Price: 1.49, Qty: 10}, {Price: 1.50, Qty: 5}, {Price: 1.52, Qty: 1}},
	}
	if got := o.HighestFillPrice(); got != 1.52 {
		t.Fatalf("expected last fill price 1.52, got %v", got)
	}
	empty := Order{Price: 1.5}
	if got := empty.HighestFillPrice(); got != 1.5 {
		t.Fatalf("expected fallback to order price, got %v", got)
	}
}
