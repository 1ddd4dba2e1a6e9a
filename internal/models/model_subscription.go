package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"

	"github.com/subwatch/subwatch/internal/app/service/billing"
	"github.com/subwatch/subwatch/pkg/types"
)

var ErrSubscriptionInactive = errors.New("subscription is inactive")

// Subscription is one recurring service a user pays for. NextPaymentDate
// is the single source of truth for when payment is due; it only ever
// moves by whole billing cycles (see ApplyRenewal / RecomputeNextPayment).
type Subscription struct {
	ID          string             `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID      string             `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ServiceName string             `gorm:"column:service_name;type:varchar(100);not null" json:"service_name"`
	Description string             `gorm:"column:description;type:varchar(500)" json:"description"`
	Cost        float64            `gorm:"column:cost;type:numeric(14,2);not null" json:"cost"`
	Currency    types.Currency     `gorm:"column:currency;type:varchar(8);not null;default:'VND'" json:"currency"`
	Cycle       types.BillingCycle `gorm:"column:billing_cycle;type:varchar(16);not null" json:"billing_cycle"`
	// StartDate and NextPaymentDate are stored normalized to 00:00 UTC.
	StartDate       time.Time `gorm:"column:start_date;not null" json:"start_date"`
	NextPaymentDate time.Time `gorm:"column:next_payment_date;not null;index" json:"next_payment_date"`
	ReminderDays    int       `gorm:"column:reminder_days;not null;default:7" json:"reminder_days"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	// AutoRenew is advisory only; renewal is always an explicit user action.
	AutoRenew        bool                                    `gorm:"column:auto_renew;not null;default:true" json:"auto_renew"`
	LastReminderSent *time.Time                              `gorm:"column:last_reminder_sent;default:null" json:"last_reminder_sent"`
	PaymentHistory   datatypes.JSONSlice[types.PaymentEntry] `gorm:"column:payment_history;type:jsonb;default:'[]'" json:"payment_history"`
	Tags             datatypes.JSONSlice[string]             `gorm:"column:tags;type:jsonb;default:'[]'" json:"tags"`
	// Version is the optimistic concurrency token: every persisted mutation
	// increments it and saves are compared-and-swapped against it.
	Version   int64     `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

// SubscriptionWithOwner pairs a subscription with its owning user for
// batch processing. Owner is nil when the user row is gone.
type SubscriptionWithOwner struct {
	Subscription *Subscription
	Owner        *User
}

// DaysUntilPayment returns the whole days from today until the next
// payment; negative means overdue.
func (s *Subscription) DaysUntilPayment(today time.Time) int {
	return billing.DaysUntil(s.NextPaymentDate, billing.Midnight(today))
}

// NeedsReminder reports whether a reminder is due on the given day.
// Pure: the batch processor owns all side effects.
//
// A subscription is due once today is within ReminderDays of the payment
// date (which keeps overdue subscriptions alerting daily), unless a
// reminder already went out on this calendar day.
func (s *Subscription) NeedsReminder(today time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.DaysUntilPayment(today) > s.ReminderDays {
		return false
	}
	if s.LastReminderSent == nil {
		return true
	}
	return !billing.SameDay(*s.LastReminderSent, today)
}

// ApplyRenewal advances NextPaymentDate by one cycle from itself and
// appends a paid entry to the payment history. Renewing an inactive
// subscription is rejected rather than silently reactivating it.
func (s *Subscription) ApplyRenewal(now time.Time) error {
	if !s.IsActive {
		return ErrSubscriptionInactive
	}
	s.NextPaymentDate = billing.NextDate(s.NextPaymentDate, s.Cycle)
	s.PaymentHistory = append(s.PaymentHistory, types.PaymentEntry{
		Date:   now,
		Amount: s.Cost,
		Status: types.PaymentStatusPaid,
		Notes:  "manual renewal",
	})
	return nil
}

// MarkReminderSent records that a reminder went out; nothing else moves.
func (s *Subscription) MarkReminderSent(now time.Time) {
	t := billing.Midnight(now)
	s.LastReminderSent = &t
}

// RecomputeNextPayment derives NextPaymentDate one cycle ahead of
// StartDate. Used at creation and whenever an edit changes StartDate or
// the billing cycle.
func (s *Subscription) RecomputeNextPayment() {
	s.StartDate = billing.Midnight(s.StartDate)
	s.NextPaymentDate = billing.NextDate(s.StartDate, s.Cycle)
}
