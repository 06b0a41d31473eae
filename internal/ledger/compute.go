// Package ledger holds the daily profit/loss computation for betting account
// entries. All money math lives here as pure functions so it can be tested
// without a database.
package ledger

import (
	"pph-ledger/internal/database"
)

// ComputeProfitLoss derives the daily profit for one entry:
//
//	profit = ending - starting + withdrawals - refills
//
// Refills are money pushed into the account, so they are subtracted back out;
// withdrawals are money taken off the platform, so they count as realized
// gain. A nil field means the operator left it blank and is treated as 0.
func ComputeProfitLoss(starting, ending, refill, withdrawal *float64) float64 {
	return deref(ending) - deref(starting) + deref(withdrawal) - deref(refill)
}

// ComputeEntryProfitLoss recomputes and stores the derived profit on an entry.
// Callers must never set ProfitLoss directly; this is the only writer.
func ComputeEntryProfitLoss(entry *database.Entry) {
	entry.ProfitLoss = ComputeProfitLoss(
		entry.StartingBalance,
		entry.EndingBalance,
		entry.RefillAmount,
		entry.WithdrawalAmount,
	)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
