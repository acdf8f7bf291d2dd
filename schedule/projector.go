/*
projector.go - Due-slot expansion across a query window

PURPOSE:
  Expands a medicine's due dates into concrete (date, hour) dose slots.
  Each slot is a candidate Consumption with Consumed=false; the
  reconciler decides which candidates are superseded by real records.

CLIPPING:
  The effective range is the query window intersected with the
  medicine's own active range:
    [max(window.start, med.start), min(window.end, med.end or window.end)]
  No intersection means zero slots. The medicine may still appear in a
  "medicines active in this period" listing (Medicine.ActiveIn), which is
  independent of whether it has due slots.

SEE ALSO:
  - rule.go: Due-date generation
  - reconciler.go: Merges slots with recorded consumptions
*/
package schedule

import "sort"

// =============================================================================
// PROJECTION - Rule dates x dosing hours -> candidate slots
// =============================================================================

// Project expands the medicine's schedule in the window into candidate
// slots sorted by slot time. A medicine with no hours produces zero slots
// even if a recurrence exists.
func Project(m Medicine, w Window) ([]Consumption, error) {
	hours, err := m.DoseTimes()
	if err != nil {
		return nil, err
	}
	if len(hours) == 0 {
		return nil, nil
	}

	clipped, ok := w.Clip(m.StartDate, m.EndDate)
	if !ok {
		return nil, nil
	}

	dates := DatesBetween(m.Recurrence(), clipped)
	if len(dates) == 0 {
		return nil, nil
	}

	// Configured hours are not guaranteed ascending; sort a copy so the
	// expansion comes out ordered by slot time.
	hours = append([]ClockTime(nil), hours...)
	sort.Slice(hours, func(i, j int) bool {
		if hours[i].Hour != hours[j].Hour {
			return hours[i].Hour < hours[j].Hour
		}
		return hours[i].Minute < hours[j].Minute
	})

	slots := make([]Consumption, 0, len(dates)*len(hours))
	for _, d := range dates {
		for _, h := range hours {
			slots = append(slots, Consumption{
				MedicineID:  m.ID,
				ScheduledAt: h.OnDate(d),
				Consumed:    false,
			})
		}
	}
	return slots, nil
}
