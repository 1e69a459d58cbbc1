package trade

import "math"

// CarryOver is the single-slot register for inventory bought by a prior
// cycle's partially-filled limit order that has not been sold yet. It is
// owned by the running cycle: the Cycler's cycle mutex is the only guard,
// so the methods themselves take no lock.
type CarryOver struct {
	amount   float64
	boughtAt float64
}

// Add folds a partial fill in: quantities sum, the tracked cost basis only
// ever rises. A later, cheaper fill must not lower the price floor the
// carried lot needs to clear.
func (c *CarryOver) Add(qty, price float64) {
	c.amount += qty
	c.boughtAt = math.Max(c.boughtAt, price)
}

// State returns the carried amount and its cost basis.
func (c *CarryOver) State() (amount, boughtAt float64) {
	return c.amount, c.boughtAt
}

// Reset clears both fields together, immediately after the carried quantity
// was folded into a successfully submitted sell order.
func (c *CarryOver) Reset() {
	c.amount = 0
	c.boughtAt = 0
}
