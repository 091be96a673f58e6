package pricing

import (
	"fmt"
	"math"
	"time"
)

// Rules holds the price movement parameters.
type Rules struct {
	// PurchaseFactor multiplies the price on every purchase.
	PurchaseFactor float64
	// DecayFactor multiplies the price of an idle item once per evaluation.
	DecayFactor float64
	// IdleThreshold is how long an item must go without a change before it decays.
	IdleThreshold time.Duration
	// MinPrice is an optional floor. Zero disables it; prices then only stay
	// positive as long as floating point multiplication does not underflow.
	MinPrice float64
}

// DefaultRules returns +10% per purchase and -10% after 20s idle, no floor.
func DefaultRules() Rules {
	return Rules{
		PurchaseFactor: 1.10,
		DecayFactor:    0.90,
		IdleThreshold:  20 * time.Second,
	}
}

// Validate checks the rules keep prices moving in the intended directions.
func (r Rules) Validate() error {
	if r.PurchaseFactor <= 1 {
		return fmt.Errorf("purchase factor must be greater than 1, got %v", r.PurchaseFactor)
	}
	if r.DecayFactor <= 0 || r.DecayFactor >= 1 {
		return fmt.Errorf("decay factor must be between 0 and 1, got %v", r.DecayFactor)
	}
	if r.IdleThreshold <= 0 {
		return fmt.Errorf("idle threshold must be positive, got %v", r.IdleThreshold)
	}
	if r.MinPrice < 0 {
		return fmt.Errorf("min price must not be negative, got %v", r.MinPrice)
	}
	return nil
}

// apply multiplies price by factor and clamps the result to the floor. A
// result that underflows to zero or overflows to infinity leaves the price
// where it was.
func (r Rules) apply(price, factor float64) float64 {
	next := price * factor
	if r.MinPrice > 0 && next < r.MinPrice {
		return r.MinPrice
	}
	if !(next > 0) || math.IsInf(next, 0) {
		return price
	}
	return next
}
