/*
stock.go - Stock bookkeeping tied to consumption events

PURPOSE:
  Keeps Medicine.Stock consistent with the consumption history and
  detects low-stock conditions. Stock tracking is opt-in per medicine
  (nil Stock disables it).

RULES:
  - Consumption create decrements by 1, floored at 0 (never negative)
  - Consumption delete increments by 1, no upper bound
  - A decrement landing at or below the warning threshold signals low
    stock; the signal re-fires on every such decrement

The ledger is pure arithmetic over a medicine snapshot. The service
persists the result inside the same store transaction as the record
write, so a record without its stock effect can never be observed.

SEE ALSO:
  - service.go: Drives the ledger and emits the low-stock events
*/
package medicine

import "github.com/warp/medtrack-engine/schedule"

// =============================================================================
// STOCK LEDGER
// =============================================================================

type StockLedger struct{}

// Consume computes the stock effect of recording a dose. tracked is false
// when the medicine does not track stock; low is true when the decrement
// lands at or below the warning threshold.
func (StockLedger) Consume(m schedule.Medicine) (newStock int, tracked, low bool) {
	if m.Stock == nil {
		return 0, false, false
	}
	newStock = *m.Stock - 1
	if newStock < 0 {
		newStock = 0
	}
	low = m.StockWarning != nil && newStock <= *m.StockWarning
	return newStock, true, low
}

// Restock computes the stock effect of retracting a recorded dose.
func (StockLedger) Restock(m schedule.Medicine) (newStock int, tracked bool) {
	if m.Stock == nil {
		return 0, false
	}
	return *m.Stock + 1, true
}

// Low reports whether the medicine currently sits at or below its warning
// threshold. Used by the background stock sweep.
func (StockLedger) Low(m schedule.Medicine) bool {
	return m.Stock != nil && m.StockWarning != nil && *m.Stock <= *m.StockWarning
}
