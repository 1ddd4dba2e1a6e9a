package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subwatch/subwatch/pkg/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSubscription_TableName(t *testing.T) {
	var s Subscription
	require.Equal(t, "subscription", s.TableName())
}

func TestSubscription_NeedsReminder(t *testing.T) {
	today := day(2024, time.March, 10)
	sent := day(2024, time.March, 10)
	sentYesterday := day(2024, time.March, 9)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{
			name: "inside window, never reminded",
			sub:  Subscription{IsActive: true, ReminderDays: 7, NextPaymentDate: day(2024, time.March, 15)},
			want: true,
		},
		{
			name: "payment exactly reminderDays out is due",
			sub:  Subscription{IsActive: true, ReminderDays: 7, NextPaymentDate: day(2024, time.March, 17)},
			want: true,
		},
		{
			name: "one day outside window",
			sub:  Subscription{IsActive: true, ReminderDays: 7, NextPaymentDate: day(2024, time.March, 18)},
			want: false,
		},
		{
			name: "due today",
			sub:  Subscription{IsActive: true, ReminderDays: 7, NextPaymentDate: today},
			want: true,
		},
		{
			name: "overdue stays due",
			sub:  Subscription{IsActive: true, ReminderDays: 7, NextPaymentDate: day(2024, time.March, 1)},
			want: true,
		},
		{
			name: "already reminded today",
			sub:  Subscription{IsActive: true, ReminderDays: 7, NextPaymentDate: day(2024, time.March, 15), LastReminderSent: &sent},
			want: false,
		},
		{
			name: "reminded yesterday, due again",
			sub:  Subscription{IsActive: true, ReminderDays: 7, NextPaymentDate: day(2024, time.March, 15), LastReminderSent: &sentYesterday},
			want: true,
		},
		{
			name: "inactive never due",
			sub:  Subscription{IsActive: false, ReminderDays: 7, NextPaymentDate: today},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.NeedsReminder(today))
		})
	}
}

func TestSubscription_MarkReminderSent_DedupSameDay(t *testing.T) {
	sub := Subscription{IsActive: true, ReminderDays: 7, NextPaymentDate: day(2024, time.March, 12)}
	today := day(2024, time.March, 10)

	require.True(t, sub.NeedsReminder(today))
	sub.MarkReminderSent(today.Add(9 * time.Hour))
	assert.False(t, sub.NeedsReminder(today), "second run the same day must not remind again")

	// Next day the window still holds, so it fires again.
	assert.True(t, sub.NeedsReminder(today.AddDate(0, 0, 1)))
}

func TestSubscription_ApplyRenewal(t *testing.T) {
	sub := Subscription{
		IsActive:        true,
		Cost:            9.99,
		Cycle:           types.BillingCycleMonthly,
		NextPaymentDate: day(2024, time.March, 12),
	}
	now := time.Date(2024, time.March, 11, 14, 0, 0, 0, time.UTC)

	require.NoError(t, sub.ApplyRenewal(now))

	assert.True(t, day(2024, time.April, 12).Equal(sub.NextPaymentDate))
	require.Len(t, sub.PaymentHistory, 1)
	entry := sub.PaymentHistory[0]
	assert.Equal(t, types.PaymentStatusPaid, entry.Status)
	assert.Equal(t, 9.99, entry.Amount)
	assert.Equal(t, "manual renewal", entry.Notes)
}

func TestSubscription_ApplyRenewal_ChainsCycles(t *testing.T) {
	sub := Subscription{
		IsActive:        true,
		Cycle:           types.BillingCycleQuarterly,
		NextPaymentDate: day(2024, time.January, 31),
	}
	require.NoError(t, sub.ApplyRenewal(time.Now()))
	require.NoError(t, sub.ApplyRenewal(time.Now()))

	// Jan 31 -> Apr 31 = May 1 -> Jul 31 is anchored on the rolled date.
	assert.True(t, day(2024, time.August, 1).Equal(sub.NextPaymentDate))
	assert.Len(t, sub.PaymentHistory, 2)
}

func TestSubscription_ApplyRenewal_InactiveRejected(t *testing.T) {
	sub := Subscription{IsActive: false, Cycle: types.BillingCycleMonthly, NextPaymentDate: day(2024, time.March, 12)}
	err := sub.ApplyRenewal(time.Now())
	require.ErrorIs(t, err, ErrSubscriptionInactive)
	assert.True(t, day(2024, time.March, 12).Equal(sub.NextPaymentDate), "a rejected renewal must not move the payment date")
	assert.Empty(t, sub.PaymentHistory)
}

func TestSubscription_RecomputeNextPayment(t *testing.T) {
	sub := Subscription{
		Cycle:     types.BillingCycleYearly,
		StartDate: time.Date(2024, time.February, 29, 16, 30, 0, 0, time.UTC),
	}
	sub.RecomputeNextPayment()

	assert.True(t, day(2024, time.February, 29).Equal(sub.StartDate), "start date is normalized to midnight")
	assert.True(t, day(2025, time.March, 1).Equal(sub.NextPaymentDate))
}

func TestSubscription_DaysUntilPayment(t *testing.T) {
	sub := Subscription{NextPaymentDate: day(2024, time.March, 17)}
	// Time of day on the query side must not change the answer.
	assert.Equal(t, 7, sub.DaysUntilPayment(day(2024, time.March, 10)))
	assert.Equal(t, 7, sub.DaysUntilPayment(time.Date(2024, time.March, 10, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, -2, sub.DaysUntilPayment(day(2024, time.March, 19)))
}
