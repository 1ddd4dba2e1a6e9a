package types

import (
	"fmt"
	"time"
)

type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleYearly    BillingCycle = "yearly"
)

// ParseBillingCycle validates a cycle value at the API/persistence boundary.
// Anything else, including the "weekly" option some legacy forms offered,
// is rejected here so the date engine never sees it.
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch BillingCycle(s) {
	case BillingCycleMonthly, BillingCycleQuarterly, BillingCycleYearly:
		return BillingCycle(s), nil
	default:
		return "", fmt.Errorf("invalid billing cycle: %q", s)
	}
}

type Currency string

const (
	CurrencyVND Currency = "VND"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case CurrencyVND, CurrencyUSD, CurrencyEUR:
		return Currency(s), nil
	default:
		return "", fmt.Errorf("invalid currency: %q", s)
	}
}

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentEntry is one row of a subscription's append-only payment history.
type PaymentEntry struct {
	Date   time.Time     `json:"date"`
	Amount float64       `json:"amount"`
	Status PaymentStatus `json:"status"`
	Notes  string        `json:"notes,omitempty"`
}

type ReminderOutcome string

const (
	ReminderOutcomeSent   ReminderOutcome = "sent"
	ReminderOutcomeFailed ReminderOutcome = "failed"
)
