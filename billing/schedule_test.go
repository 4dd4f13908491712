package billing_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebill/billing-engine/billing"
)

// =============================================================================
// SUM INVARIANT - schedule always totals the contracted amount exactly
// =============================================================================

func TestGenerateSchedule_SumInvariant(t *testing.T) {
	// GIVEN: Totals that do not divide evenly, counts 1..24
	// THEN: The schedule sums to the total EXACTLY, cent for cent

	totals := []string{"100.00", "1000.00", "999.99", "123.45", "0.03", "7331.07"}
	first := billing.NewDate(2024, time.June, 1)

	for _, total := range totals {
		for count := 1; count <= 24; count++ {
			t.Run(fmt.Sprintf("%s_in_%d", total, count), func(t *testing.T) {
				amount := billing.MustMoney(total)
				entries, err := billing.GenerateSchedule(amount, count, billing.Monthly(), first)
				require.NoError(t, err)
				require.Len(t, entries, count)

				assert.True(t, billing.ScheduleTotal(entries).Equal(amount),
					"schedule sums to %s, want %s", billing.ScheduleTotal(entries), amount)
			})
		}
	}
}

func TestGenerateSchedule_RemainderGoesToLastInstallment(t *testing.T) {
	// GIVEN: 1000.00 split in 3
	// THEN: 333.33, 333.33, 333.34 - not three equal shares that drift a cent

	entries, err := billing.GenerateSchedule(
		billing.MustMoney("1000.00"), 3, billing.Monthly(),
		billing.NewDate(2024, time.January, 31))
	require.NoError(t, err)

	assert.Equal(t, "333.33", entries[0].Amount.StringFixed())
	assert.Equal(t, "333.33", entries[1].Amount.StringFixed())
	assert.Equal(t, "333.34", entries[2].Amount.StringFixed())
}

// =============================================================================
// DUE DATES
// =============================================================================

func TestGenerateSchedule_MonthlyLeapYear(t *testing.T) {
	// Example: 1000.00 in 3 monthly installments from 2024-01-31.
	entries, err := billing.GenerateSchedule(
		billing.MustMoney("1000.00"), 3, billing.Monthly(),
		billing.NewDate(2024, time.January, 31))
	require.NoError(t, err)

	assert.Equal(t, "2024-01-31", entries[0].DueDate.String())
	assert.Equal(t, "2024-02-29", entries[1].DueDate.String())
	assert.Equal(t, "2024-03-31", entries[2].DueDate.String())
}

func TestGenerateSchedule_CustomCadence(t *testing.T) {
	// Example: 4 installments every 10 days from 2024-03-01.
	entries, err := billing.GenerateSchedule(
		billing.MustMoney("400.00"), 4, billing.CustomDays(10),
		billing.NewDate(2024, time.March, 1))
	require.NoError(t, err)

	want := []string{"2024-03-01", "2024-03-11", "2024-03-21", "2024-03-31"}
	for i, entry := range entries {
		assert.Equal(t, want[i], entry.DueDate.String())
		assert.Equal(t, i+1, entry.Number)
	}
}

func TestGenerateSchedule_MonotonicDueDates(t *testing.T) {
	// GIVEN: Every supported cadence, including monthly anchored at month-end
	// THEN: due_date[i] < due_date[i+1] for all i

	cadences := map[string]billing.Cadence{
		"weekly":   billing.Weekly(),
		"biweekly": billing.Biweekly(),
		"monthly":  billing.Monthly(),
		"custom-3": billing.CustomDays(3),
	}
	firsts := []billing.Date{
		billing.NewDate(2024, time.January, 31),
		billing.NewDate(2024, time.February, 29),
		billing.NewDate(2023, time.December, 15),
	}

	for name, cadence := range cadences {
		for _, first := range firsts {
			t.Run(fmt.Sprintf("%s_from_%s", name, first), func(t *testing.T) {
				entries, err := billing.GenerateSchedule(
					billing.MustMoney("1200.00"), 12, cadence, first)
				require.NoError(t, err)

				for i := 1; i < len(entries); i++ {
					assert.True(t, entries[i-1].DueDate.Before(entries[i].DueDate),
						"due date %d (%s) not before %d (%s)",
						i-1, entries[i-1].DueDate, i, entries[i].DueDate)
				}
			})
		}
	}
}

// =============================================================================
// LUMP SUM & REJECTION
// =============================================================================

func TestGenerateSchedule_LumpSum(t *testing.T) {
	first := billing.NewDate(2024, time.January, 1)
	entries, err := billing.GenerateSchedule(billing.MustMoney("600.00"), 1, billing.Cadence{}, first)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Number)
	assert.Equal(t, first, entries[0].DueDate)
	assert.Equal(t, "600.00", entries[0].Amount.StringFixed())
}

func TestGenerateSchedule_RejectsInvalidInput(t *testing.T) {
	first := billing.NewDate(2024, time.January, 1)

	tests := []struct {
		name    string
		total   string
		count   int
		cadence billing.Cadence
	}{
		{"zero total", "0", 3, billing.Monthly()},
		{"negative total", "-10.00", 3, billing.Monthly()},
		{"zero count", "100.00", 0, billing.Monthly()},
		{"negative count", "100.00", -1, billing.Monthly()},
		{"non-positive custom step", "100.00", 3, billing.CustomDays(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := billing.GenerateSchedule(billing.MustMoney(tt.total), tt.count, tt.cadence, first)
			assert.Nil(t, entries, "no partial schedule on rejection")
			assert.ErrorIs(t, err, billing.ErrInvalidSchedule)

			var inv *billing.InvalidScheduleError
			assert.ErrorAs(t, err, &inv)
		})
	}
}

func TestGenerateSchedule_RequiresFirstDueDate(t *testing.T) {
	_, err := billing.GenerateSchedule(billing.MustMoney("100.00"), 2, billing.Weekly(), billing.Date{})
	assert.ErrorIs(t, err, billing.ErrInvalidSchedule)
}
