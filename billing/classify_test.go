package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebill/billing-engine/billing"
)

func monthlySchedule(t *testing.T, total string, count int, first billing.Date) []billing.ScheduleEntry {
	t.Helper()
	entries, err := billing.GenerateSchedule(billing.MustMoney(total), count, billing.Monthly(), first)
	require.NoError(t, err)
	return entries
}

// =============================================================================
// PAST-DUE RULE
// =============================================================================

func TestClassify_PastDueInstallmentsAssumedPaid(t *testing.T) {
	// GIVEN: A 4-month schedule starting two months ago
	// WHEN: Classifying with today's date injected
	// THEN: Installments with due dates strictly before today are paid in
	//       full; the rest stay pendente with nothing paid

	first := billing.NewDate(2024, time.April, 10)
	schedule := monthlySchedule(t, "400.00", 4, first)

	today := billing.NewDate(2024, time.June, 10)
	now := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

	classified := billing.Classify(schedule, today, now, false)
	require.Len(t, classified, 4)

	// April 10 and May 10 are in the past.
	for _, c := range classified[:2] {
		assert.Equal(t, billing.StatusPaid, c.Status)
		assert.True(t, c.AmountPaid.Equal(c.Amount))
		require.NotNil(t, c.PaidAt)
		assert.Equal(t, now, *c.PaidAt)
	}

	// June 10 is due TODAY - not past, so not assumed paid.
	assert.Equal(t, billing.StatusPending, classified[2].Status)
	assert.True(t, classified[2].AmountPaid.IsZero())
	assert.Nil(t, classified[2].PaidAt)

	// July 10 is in the future.
	assert.Equal(t, billing.StatusPending, classified[3].Status)
}

// =============================================================================
// MANUAL FIRST-PAID OVERRIDE
// =============================================================================

func TestClassify_ManualFirstPaid_OverridesFutureDueDate(t *testing.T) {
	// GIVEN: A schedule entirely in the future
	// WHEN: The operator flags the entry as already received
	// THEN: Only the first installment is marked paid

	first := billing.NewDate(2024, time.September, 1)
	schedule := monthlySchedule(t, "300.00", 3, first)

	today := billing.NewDate(2024, time.June, 1)
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	classified := billing.Classify(schedule, today, now, true)

	assert.Equal(t, billing.StatusPaid, classified[0].Status)
	assert.True(t, classified[0].AmountPaid.Equal(classified[0].Amount))
	assert.Equal(t, billing.StatusPending, classified[1].Status)
	assert.Equal(t, billing.StatusPending, classified[2].Status)
}

func TestClassify_NoOverride_FutureScheduleAllPending(t *testing.T) {
	first := billing.NewDate(2024, time.September, 1)
	schedule := monthlySchedule(t, "300.00", 3, first)

	today := billing.NewDate(2024, time.June, 1)
	classified := billing.Classify(schedule, today, time.Now(), false)

	for _, c := range classified {
		assert.Equal(t, billing.StatusPending, c.Status)
		assert.True(t, c.AmountPaid.IsZero())
		assert.Nil(t, c.PaidAt)
	}
}

// =============================================================================
// DETERMINISM
// =============================================================================

func TestClassify_IdempotentForSameInputs(t *testing.T) {
	// Re-running classification with the same today/now yields identical
	// results - the clock is a parameter, not ambient state.

	first := billing.NewDate(2024, time.January, 15)
	schedule := monthlySchedule(t, "500.00", 5, first)

	today := billing.NewDate(2024, time.March, 20)
	now := time.Date(2024, time.March, 20, 8, 30, 0, 0, time.UTC)

	a := billing.Classify(schedule, today, now, true)
	b := billing.Classify(schedule, today, now, true)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Status, b[i].Status)
		assert.True(t, a[i].AmountPaid.Equal(b[i].AmountPaid))
		assert.Equal(t, a[i].DueDate, b[i].DueDate)
		if a[i].PaidAt != nil {
			require.NotNil(t, b[i].PaidAt)
			assert.Equal(t, *a[i].PaidAt, *b[i].PaidAt)
		}
	}
}
