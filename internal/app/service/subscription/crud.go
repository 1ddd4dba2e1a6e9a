package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/subwatch/subwatch/internal/models"
	"github.com/subwatch/subwatch/pkg/logctx"
	"github.com/subwatch/subwatch/pkg/tool"
	"github.com/subwatch/subwatch/pkg/types"
)

type CreateInput struct {
	UserID       string
	ServiceName  string
	Description  string
	Cost         float64
	Currency     types.Currency
	Cycle        types.BillingCycle
	StartDate    time.Time
	ReminderDays int
	AutoRenew    bool
	Tags         []string
}

// Create builds a new active subscription with the next payment date one
// cycle ahead of the start date.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Subscription, error) {
	if in.ReminderDays == 0 {
		in.ReminderDays = 7
	}
	if in.Currency == "" {
		in.Currency = types.CurrencyVND
	}
	sub := &models.Subscription{
		ID:             tool.GenerateUUIDV7(),
		UserID:         in.UserID,
		ServiceName:    in.ServiceName,
		Description:    in.Description,
		Cost:           in.Cost,
		Currency:       in.Currency,
		Cycle:          in.Cycle,
		StartDate:      in.StartDate,
		ReminderDays:   in.ReminderDays,
		IsActive:       true,
		AutoRenew:      in.AutoRenew,
		PaymentHistory: datatypes.JSONSlice[types.PaymentEntry]{},
		Tags:           datatypes.NewJSONSlice(in.Tags),
	}
	sub.RecomputeNextPayment()
	normalizeDates(sub)

	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("subscription created",
		"subscription_id", sub.ID, "service", sub.ServiceName, "cycle", sub.Cycle)
	return sub, nil
}

// Get loads one subscription scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

type ListRequest struct {
	UserID   string
	Page     int
	Limit    int
	IsActive *bool
	Search   string
}

type ListResponse struct {
	Items []*models.Subscription `json:"items"`
	Total int64                  `json:"total"`
}

// List returns the user's subscriptions ordered by next payment date.
func (s *Service) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 10
	}

	q := s.db.WithContext(ctx).Model(&models.Subscription{}).Where("user_id = ?", req.UserID)
	if req.IsActive != nil {
		q = q.Where("is_active = ?", *req.IsActive)
	}
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		q = q.Where("service_name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var items []*models.Subscription
	err := q.Order("next_payment_date asc").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return &ListResponse{Items: items, Total: total}, nil
}

// UpdateInput carries optional edits; nil pointers leave fields alone.
type UpdateInput struct {
	ServiceName  *string
	Description  *string
	Cost         *float64
	Currency     *types.Currency
	Cycle        *types.BillingCycle
	StartDate    *time.Time
	ReminderDays *int
	AutoRenew    *bool
	IsActive     *bool
	Tags         []string
}

// Update overwrites provided fields. If the start date or billing cycle
// changes, the next payment date is recomputed from the effective start
// date; all other edits leave it untouched.
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (*models.Subscription, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.ServiceName != nil {
		sub.ServiceName = *in.ServiceName
	}
	if in.Description != nil {
		sub.Description = *in.Description
	}
	if in.Cost != nil {
		sub.Cost = *in.Cost
	}
	if in.Currency != nil {
		sub.Currency = *in.Currency
	}
	if in.ReminderDays != nil {
		sub.ReminderDays = *in.ReminderDays
	}
	if in.AutoRenew != nil {
		sub.AutoRenew = *in.AutoRenew
	}
	if in.IsActive != nil {
		sub.IsActive = *in.IsActive
	}
	if in.Tags != nil {
		sub.Tags = datatypes.NewJSONSlice(in.Tags)
	}

	if in.StartDate != nil || in.Cycle != nil {
		if in.StartDate != nil {
			sub.StartDate = *in.StartDate
		}
		if in.Cycle != nil {
			sub.Cycle = *in.Cycle
		}
		sub.RecomputeNextPayment()
	}
	normalizeDates(sub)

	if err := s.saveVersioned(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	return sub, nil
}

// Delete removes the record permanently.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Subscription{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateAllForUser soft-deactivates every subscription a user owns;
// used when the owning account is deactivated.
func (s *Service) DeactivateAllForUser(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		UpdateColumn("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate subscriptions: %w", err)
	}
	return nil
}

// ExportForUser returns every subscription a user owns, for data export.
func (s *Service) ExportForUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	var items []*models.Subscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
