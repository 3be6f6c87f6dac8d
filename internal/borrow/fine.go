package borrow

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccruedFine computes the fine owed for a loan due at dueDate as of now:
// one per-day charge for every full day elapsed past the due date. Loans
// returned on or before the due date owe nothing.
func AccruedFine(dueDate, now time.Time, perDay decimal.Decimal) decimal.Decimal {
	if !now.After(dueDate) {
		return decimal.Zero
	}
	overdueDays := int64(now.Sub(dueDate).Hours() / 24)
	if overdueDays <= 0 {
		return decimal.Zero
	}
	return perDay.Mul(decimal.NewFromInt(overdueDays))
}
