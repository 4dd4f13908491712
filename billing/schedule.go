/*
schedule.go - Due-date schedule generation

PURPOSE:
  Produces the ordered (number, due date, amount) schedule for a contract.
  This is the single implementation of the arithmetic the dashboard needs
  in several places (new-client signup, ad-hoc revenue entry, transaction
  editing); callers depend on this instead of re-deriving it.

AMOUNT SPLITTING:
  Every installment gets total/count rounded down to cents, except the
  last, which receives whatever remains. The schedule therefore sums to
  the contracted total EXACTLY, regardless of division remainder:

    1000.00 / 3 -> 333.33, 333.33, 333.34

  Splitting evenly everywhere and hoping the cents work out is exactly the
  drift this function exists to prevent.

SEE ALSO:
  - cadence.go: due-date spacing
  - classify.go: which generated installments are already settled
*/
package billing

import "fmt"

// =============================================================================
// SCHEDULE GENERATOR
// =============================================================================

// ScheduleEntry is one generated slot: 1-based number, due date, amount.
type ScheduleEntry struct {
	Number  int
	DueDate Date
	Amount  Money
}

// GenerateSchedule produces the ordered installment schedule for a
// contract.
//
// Due dates: entry i (0-based) falls at firstDue advanced by the cadence;
// day-count cadences step by an exact number of days, monthly advances by
// calendar months anchored at firstDue (end-of-month clamped).
//
// Amounts: see the package comment above - remainder goes to the last
// installment so the schedule sums to total exactly.
//
// A count of 1 (lump sum) yields a single entry at firstDue for the full
// total; the cadence is irrelevant and not validated beyond its own kind.
//
// Fails with *InvalidScheduleError when total <= 0, count < 1, or the
// cadence is invalid. No partial schedule is ever returned.
func GenerateSchedule(total Money, count int, cadence Cadence, firstDue Date) ([]ScheduleEntry, error) {
	if !total.IsPositive() {
		return nil, &InvalidScheduleError{
			Reason: fmt.Sprintf("total amount must be positive, got %s", total.StringFixed()),
		}
	}
	if count < 1 {
		return nil, &InvalidScheduleError{
			Reason: fmt.Sprintf("installment count must be at least 1, got %d", count),
		}
	}
	if firstDue.IsZero() {
		return nil, &InvalidScheduleError{Reason: "first due date is required"}
	}
	if count > 1 {
		if err := cadence.Validate(); err != nil {
			return nil, err
		}
	}

	if count == 1 {
		return []ScheduleEntry{{Number: 1, DueDate: firstDue, Amount: total}}, nil
	}

	base := total.DivCents(count)
	entries := make([]ScheduleEntry, count)
	assigned := Zero()
	for i := 0; i < count; i++ {
		amount := base
		if i == count-1 {
			// Last installment absorbs the division remainder.
			amount = total.Sub(assigned)
		}
		assigned = assigned.Add(amount)

		entries[i] = ScheduleEntry{
			Number:  i + 1,
			DueDate: cadence.DueDateAt(firstDue, i),
			Amount:  amount,
		}
	}
	return entries, nil
}

// ScheduleTotal sums the amounts of a schedule. Mostly a test helper, but
// also used by the service to assert the generation invariant.
func ScheduleTotal(entries []ScheduleEntry) Money {
	sum := Zero()
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}
