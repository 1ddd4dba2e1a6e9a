package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/subwatch/subwatch/internal/app/service/billing"
	"github.com/subwatch/subwatch/internal/models"
)

type UpcomingItem struct {
	ID               string    `json:"id"`
	ServiceName      string    `json:"service_name"`
	Cost             float64   `json:"cost"`
	Currency         string    `json:"currency"`
	BillingCycle     string    `json:"billing_cycle"`
	NextPaymentDate  time.Time `json:"next_payment_date"`
	DaysUntilPayment int       `json:"days_until_payment"`
}

type DashboardStats struct {
	TotalActive      int64          `json:"total_active"`
	TotalInactive    int64          `json:"total_inactive"`
	UpcomingPayments int64          `json:"upcoming_payments"`
	MonthlyTotal     float64        `json:"monthly_total"`
	Upcoming         []UpcomingItem `json:"upcoming_subscriptions"`
}

// DashboardStats aggregates the numbers the dashboard shows: active and
// inactive counts, payments falling due within a week, total cost of
// active subscriptions, and the five soonest-due records.
func (s *Service) DashboardStats(ctx context.Context, userID string, today time.Time) (*DashboardStats, error) {
	today = billing.Midnight(today)
	nextWeek := today.AddDate(0, 0, 7)

	out := &DashboardStats{}
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&out.TotalActive).Error; err != nil {
		return nil, fmt.Errorf("failed to count active subscriptions: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND is_active = ?", userID, false).
		Count(&out.TotalInactive).Error; err != nil {
		return nil, fmt.Errorf("failed to count inactive subscriptions: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND is_active = ? AND next_payment_date <= ?", userID, true, nextWeek).
		Count(&out.UpcomingPayments).Error; err != nil {
		return nil, fmt.Errorf("failed to count upcoming payments: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Select("COALESCE(SUM(cost), 0)").
		Scan(&out.MonthlyTotal).Error; err != nil {
		return nil, fmt.Errorf("failed to sum subscription cost: %w", err)
	}

	var soonest []*models.Subscription
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND next_payment_date <= ?", userID, true, nextWeek).
		Order("next_payment_date asc").
		Limit(5).
		Find(&soonest).Error; err != nil {
		return nil, fmt.Errorf("failed to load upcoming subscriptions: %w", err)
	}
	for _, m := range soonest {
		out.Upcoming = append(out.Upcoming, UpcomingItem{
			ID:               m.ID,
			ServiceName:      m.ServiceName,
			Cost:             m.Cost,
			Currency:         string(m.Currency),
			BillingCycle:     string(m.Cycle),
			NextPaymentDate:  m.NextPaymentDate,
			DaysUntilPayment: m.DaysUntilPayment(today),
		})
	}
	return out, nil
}

type UserCounts struct {
	Total        int64   `json:"total_subscriptions"`
	Active       int64   `json:"active_subscriptions"`
	MonthlySpend float64 `json:"total_monthly_spend"`
}

// CountsForUser backs the profile page summary.
func (s *Service) CountsForUser(ctx context.Context, userID string) (*UserCounts, error) {
	out := &UserCounts{}
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Count(&out.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&out.Active).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Select("COALESCE(SUM(cost), 0)").
		Scan(&out.MonthlySpend).Error; err != nil {
		return nil, err
	}
	return out, nil
}
