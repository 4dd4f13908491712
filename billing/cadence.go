package billing

import "fmt"

// =============================================================================
// CADENCE - Spacing rule between installment due dates
// =============================================================================

type CadenceKind string

const (
	CadenceWeekly   CadenceKind = "weekly"
	CadenceBiweekly CadenceKind = "biweekly"
	CadenceMonthly  CadenceKind = "monthly"
	CadenceCustom   CadenceKind = "custom"
)

// Cadence is the recurrence rule governing spacing between due dates.
// Days is meaningful only for CadenceCustom.
//
// Weekly and biweekly step by an exact day count (7 and 15 days - the
// business counts a fortnight as 15 days, "quinzenal"). Monthly is NOT a
// fixed day count: it advances by calendar months from the first due date,
// so consecutive due dates can land on different weekdays and be 28-31
// days apart. Custom steps by a caller-chosen positive day count.
type Cadence struct {
	Kind CadenceKind
	Days int
}

func Weekly() Cadence   { return Cadence{Kind: CadenceWeekly} }
func Biweekly() Cadence { return Cadence{Kind: CadenceBiweekly} }
func Monthly() Cadence  { return Cadence{Kind: CadenceMonthly} }

func CustomDays(days int) Cadence { return Cadence{Kind: CadenceCustom, Days: days} }

// Validate rejects unknown kinds and non-positive custom steps.
func (c Cadence) Validate() error {
	switch c.Kind {
	case CadenceWeekly, CadenceBiweekly, CadenceMonthly:
		return nil
	case CadenceCustom:
		if c.Days <= 0 {
			return &InvalidScheduleError{
				Reason: fmt.Sprintf("custom cadence requires a positive day step, got %d", c.Days),
			}
		}
		return nil
	default:
		return &InvalidScheduleError{
			Reason: fmt.Sprintf("unknown cadence kind %q", c.Kind),
		}
	}
}

// stepDays returns the fixed day step for day-count cadences.
// Monthly has no fixed step; callers must use DueDateAt.
func (c Cadence) stepDays() int {
	switch c.Kind {
	case CadenceWeekly:
		return 7
	case CadenceBiweekly:
		return 15
	case CadenceCustom:
		return c.Days
	default:
		return 0
	}
}

// OffsetDays returns the day offset from the first due date for the
// installment at the given 0-based index (installment number - 1).
// Only defined for day-count cadences; monthly cadence offsets depend on
// the anchor date and are resolved by DueDateAt.
func (c Cadence) OffsetDays(index int) int {
	return c.stepDays() * index
}

// DueDateAt resolves the due date for the 0-based index, anchored at the
// first due date. Monthly advances by calendar months (end-of-month
// clamped); everything else steps by an exact day count.
func (c Cadence) DueDateAt(first Date, index int) Date {
	if c.Kind == CadenceMonthly {
		return first.AddCalendarMonths(index)
	}
	return first.AddDays(c.OffsetDays(index))
}

func (c Cadence) String() string {
	if c.Kind == CadenceCustom {
		return fmt.Sprintf("custom(%dd)", c.Days)
	}
	return string(c.Kind)
}
