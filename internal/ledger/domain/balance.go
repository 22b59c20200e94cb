package domain

import "github.com/shopspring/decimal"

// Balance is a room's two-sided position: what the tenant owes (Pending) and
// what they have paid ahead (Extra). Both sides stay non-negative; there is
// never a negative pending standing in for credit.
type Balance struct {
	Pending decimal.Decimal
	Extra   decimal.Decimal
}

// ApplyCharge satisfies a new charge from the extra balance first and raises
// pending only by the remainder. Returns the portion drawn from extra.
func ApplyCharge(bal Balance, amount decimal.Decimal) (Balance, decimal.Decimal) {
	drawn := decimal.Min(bal.Extra, amount)
	return Balance{
		Pending: bal.Pending.Add(amount.Sub(drawn)),
		Extra:   bal.Extra.Sub(drawn),
	}, drawn
}

// ApplyPayment reduces pending first and overflows the rest into extra.
// Returns the portion that became extra.
func ApplyPayment(bal Balance, amount decimal.Decimal) (Balance, decimal.Decimal) {
	covered := decimal.Min(bal.Pending, amount)
	overflow := amount.Sub(covered)
	return Balance{
		Pending: bal.Pending.Sub(covered),
		Extra:   bal.Extra.Add(overflow),
	}, overflow
}

// ReversePayment is the exact inverse of ApplyPayment: the reversed amount is
// taken out of extra first, and whatever extra cannot cover goes back onto
// pending. Returns the portion removed from extra.
func ReversePayment(bal Balance, amount decimal.Decimal) (Balance, decimal.Decimal) {
	removed := decimal.Min(bal.Extra, amount)
	return Balance{
		Pending: bal.Pending.Add(amount.Sub(removed)),
		Extra:   bal.Extra.Sub(removed),
	}, removed
}

// ReverseCharge undoes a charge by lowering pending, floored at zero. Extra
// drawn when the charge was applied is NOT restored; a charge reversal only
// clears debt, it does not refund prepayments.
func ReverseCharge(bal Balance, amount decimal.Decimal) Balance {
	pending := bal.Pending.Sub(amount)
	if pending.IsNegative() {
		pending = decimal.Zero
	}
	return Balance{Pending: pending, Extra: bal.Extra}
}
