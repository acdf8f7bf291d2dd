/*
reconciler.go - Merge of projected slots and recorded consumptions

PURPOSE:
  Combines (a) the projector's candidate slots and (b) persisted
  consumption records in the same window into one view with no duplicate
  scheduled times per medicine.

ALGORITHM:
  Build a lookup keyed by scheduled minute from the persisted records.
  For every projected candidate, the real record (with its own real
  consumption timestamp) supersedes the synthetic Consumed=false slot.
  Records with no matching slot - ad hoc doses of an as-needed medicine,
  or slots orphaned by a later rule change - are kept as-is. The
  reconciler is additive; it never drops real data.

GUARANTEE:
  Every persisted record in the window appears exactly once, every
  uncovered projected slot appears exactly once with Consumed=false, and
  no scheduled time appears twice. The result is ordered by scheduled
  time for stable calendar rendering.

SEE ALSO:
  - projector.go: Candidate slot expansion
  - store.go: ConsumptionStore read path
*/
package schedule

import (
	"context"
	"sort"
)

// =============================================================================
// RECONCILER - Projected vs recorded view of a medicine's schedule
// =============================================================================

// Reconciler merges projected due slots with recorded consumptions.
// It is a read-only computation over the consumption store.
type Reconciler struct {
	Consumptions ConsumptionStore
}

func NewReconciler(store ConsumptionStore) *Reconciler {
	return &Reconciler{Consumptions: store}
}

// Schedule returns the medicine's unified schedule for the window:
// recorded consumptions plus unconsumed projected slots, chronologically.
func (r *Reconciler) Schedule(ctx context.Context, m Medicine, w Window) ([]Consumption, error) {
	recorded, err := r.Consumptions.LoadConsumptions(ctx, m.ID, w)
	if err != nil {
		return nil, err
	}

	slots, err := Project(m, w)
	if err != nil {
		return nil, err
	}

	return Merge(slots, recorded), nil
}

// Merge combines candidate slots with recorded consumptions, with records
// superseding candidates at the same scheduled minute. Pure function,
// exported for callers that already hold both sides.
func Merge(slots, recorded []Consumption) []Consumption {
	byMinute := make(map[string]Consumption, len(recorded))
	for _, c := range recorded {
		byMinute[c.ScheduledAt.String()] = c
	}

	result := make([]Consumption, 0, len(slots)+len(recorded))
	covered := make(map[string]bool, len(slots))

	for _, slot := range slots {
		key := slot.ScheduledAt.String()
		if covered[key] {
			continue
		}
		covered[key] = true
		if real, ok := byMinute[key]; ok {
			result = append(result, real)
			continue
		}
		result = append(result, slot)
	}

	// Ad hoc or orphaned records: recorded but never projected.
	for _, c := range recorded {
		if !covered[c.ScheduledAt.String()] {
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledAt.Before(result[j].ScheduledAt)
	})
	return result
}
