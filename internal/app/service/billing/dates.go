// Package billing holds the pure calendar arithmetic behind payment dates.
// Nothing here touches I/O; callers persist results themselves.
package billing

import (
	"fmt"
	"time"

	"github.com/subwatch/subwatch/pkg/types"
)

const day = 24 * time.Hour

// NextDate advances anchor by exactly one billing cycle.
//
// Month additions use native calendar normalization: a day-of-month that
// does not exist in the target month rolls into the following month
// (Jan 31 + 1 month = Mar 2 or Mar 3; Feb 29 + 1 year = Mar 1). This
// matches the behavior subscriptions were created with historically, so
// stored nextPaymentDate values stay reproducible.
//
// An unknown cycle is a programmer error: cycles are validated at the
// boundary (types.ParseBillingCycle) and must never reach this point.
func NextDate(anchor time.Time, cycle types.BillingCycle) time.Time {
	switch cycle {
	case types.BillingCycleMonthly:
		return anchor.AddDate(0, 1, 0)
	case types.BillingCycleQuarterly:
		return anchor.AddDate(0, 3, 0)
	case types.BillingCycleYearly:
		return anchor.AddDate(1, 0, 0)
	default:
		panic(fmt.Sprintf("billing: invalid cycle %q", cycle))
	}
}

// Midnight truncates t to 00:00 UTC. All calendar-significant dates are
// normalized through here at write time so day arithmetic stays exact.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the number of days from today until next, as a
// ceiling of the real-valued difference. With midnight-normalized inputs
// this is an exact integer; negative values mean next is overdue.
func DaysUntil(next, today time.Time) int {
	diff := next.Sub(today)
	days := diff / day
	if diff%day > 0 {
		days++
	}
	return int(days)
}

// SameDay reports whether a and b fall on the same calendar date,
// ignoring time of day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
