package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subwatch/subwatch/pkg/types"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDate_AllCycles(t *testing.T) {
	tests := []struct {
		name   string
		anchor time.Time
		cycle  types.BillingCycle
		want   time.Time
	}{
		{name: "monthly mid-month", anchor: date(2024, time.March, 15), cycle: types.BillingCycleMonthly, want: date(2024, time.April, 15)},
		{name: "quarterly mid-month", anchor: date(2024, time.January, 10), cycle: types.BillingCycleQuarterly, want: date(2024, time.April, 10)},
		{name: "yearly plain", anchor: date(2023, time.June, 1), cycle: types.BillingCycleYearly, want: date(2024, time.June, 1)},
		{name: "monthly Jan 31 rolls into March", anchor: date(2024, time.January, 31), cycle: types.BillingCycleMonthly, want: date(2024, time.March, 2)},
		{name: "monthly Jan 31 non-leap year", anchor: date(2023, time.January, 31), cycle: types.BillingCycleMonthly, want: date(2023, time.March, 3)},
		{name: "monthly May 31 rolls into July", anchor: date(2024, time.May, 31), cycle: types.BillingCycleMonthly, want: date(2024, time.July, 1)},
		{name: "quarterly Nov 30 into February", anchor: date(2023, time.November, 30), cycle: types.BillingCycleQuarterly, want: date(2024, time.March, 1)},
		{name: "yearly leap day rolls to Mar 1", anchor: date(2024, time.February, 29), cycle: types.BillingCycleYearly, want: date(2025, time.March, 1)},
		{name: "monthly across year boundary", anchor: date(2024, time.December, 15), cycle: types.BillingCycleMonthly, want: date(2025, time.January, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDate(tt.anchor, tt.cycle)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestNextDate_Deterministic(t *testing.T) {
	anchor := date(2024, time.January, 31)
	first := NextDate(anchor, types.BillingCycleMonthly)
	for i := 0; i < 10; i++ {
		require.True(t, first.Equal(NextDate(anchor, types.BillingCycleMonthly)))
	}
}

func TestNextDate_InvalidCyclePanics(t *testing.T) {
	require.Panics(t, func() {
		NextDate(date(2024, time.January, 1), types.BillingCycle("weekly"))
	})
}

func TestMidnight(t *testing.T) {
	in := time.Date(2024, time.March, 15, 18, 42, 7, 123, time.FixedZone("ICT", 7*3600))
	got := Midnight(in)
	// 18:42 ICT is 11:42 UTC, still March 15.
	assert.True(t, date(2024, time.March, 15).Equal(got))
	assert.Equal(t, time.UTC, got.Location())
}

func TestDaysUntil(t *testing.T) {
	today := date(2024, time.March, 10)
	tests := []struct {
		name string
		next time.Time
		want int
	}{
		{name: "same day", next: today, want: 0},
		{name: "tomorrow", next: date(2024, time.March, 11), want: 1},
		{name: "a week out", next: date(2024, time.March, 17), want: 7},
		{name: "overdue", next: date(2024, time.March, 8), want: -2},
		{name: "fractional day rounds up", next: today.Add(36 * time.Hour), want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntil(tt.next, today))
		})
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, time.March, 15, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, time.March, 15, 0, 1, 0, 0, time.UTC)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, b.AddDate(0, 0, 1)))
}
