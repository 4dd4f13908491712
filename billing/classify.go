/*
classify.go - Settlement classification at schedule-creation time

PURPOSE:
  Decides which freshly generated installments are already settled. The
  business records contracts after the fact: a due date that has already
  passed is assumed received. The UI presents this as an editable
  assumption, not a hidden guess.

RULES:
  1. due date < today        -> fully paid (pago, paid_at = now)
  2. manualFirstPaid is set  -> the FIRST installment is paid even if its
                                due date is today or in the future (the
                                "entry already received" override the
                                operator can set at contract creation)
  3. everything else         -> pendente, nothing paid

"today" and "now" are parameters, never read from a global clock, so the
same schedule classifies identically no matter when the code runs.
*/
package billing

import "time"

// =============================================================================
// SETTLEMENT CLASSIFIER
// =============================================================================

// ClassifiedInstallment is a schedule entry with its settlement decision.
type ClassifiedInstallment struct {
	Number     int
	DueDate    Date
	Amount     Money
	AmountPaid Money
	Status     InstallmentStatus
	PaidAt     *time.Time
}

// Classify applies the settlement rules to a generated schedule.
// Pure and idempotent: the same inputs always yield the same output.
func Classify(schedule []ScheduleEntry, today Date, now time.Time, manualFirstPaid bool) []ClassifiedInstallment {
	out := make([]ClassifiedInstallment, len(schedule))
	for i, entry := range schedule {
		c := ClassifiedInstallment{
			Number:     entry.Number,
			DueDate:    entry.DueDate,
			Amount:     entry.Amount,
			AmountPaid: Zero(),
			Status:     StatusPending,
		}

		pastDue := entry.DueDate.Before(today)
		firstOverride := i == 0 && manualFirstPaid
		if pastDue || firstOverride {
			paidAt := now
			c.AmountPaid = entry.Amount
			c.Status = StatusPaid
			c.PaidAt = &paidAt
		}

		out[i] = c
	}
	return out
}
