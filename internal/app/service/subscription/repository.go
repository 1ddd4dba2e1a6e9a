package subscription

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/subwatch/subwatch/internal/models"
)

// FindActiveWithOwners returns every active subscription joined with its
// owning user. The reminder batch consumes this; owners are fetched in a
// single IN query and stitched in memory.
func (s *Service) FindActiveWithOwners(ctx context.Context) ([]*models.SubscriptionWithOwner, error) {
	var subs []*models.Subscription
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("next_payment_date asc").
		Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to load active subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil, nil
	}

	userIDs := lo.Uniq(lo.Map(subs, func(m *models.Subscription, _ int) string { return m.UserID }))
	var users []*models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscription owners: %w", err)
	}
	byID := lo.KeyBy(users, func(u *models.User) string { return u.ID })

	return lo.Map(subs, func(m *models.Subscription, _ int) *models.SubscriptionWithOwner {
		return &models.SubscriptionWithOwner{Subscription: m, Owner: byID[m.UserID]}
	}), nil
}
