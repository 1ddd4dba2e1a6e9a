package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/subwatch/subwatch/internal/app/service/billing"
	"github.com/subwatch/subwatch/internal/models"
	"github.com/subwatch/subwatch/pkg/config"
	"github.com/subwatch/subwatch/pkg/logctx"
)

var (
	ErrNotFound        = errors.New("subscription not found")
	ErrVersionConflict = errors.New("subscription was modified concurrently")
)

// Service owns subscription persistence and state transitions. Mutations
// of a single record are serialized through a per-id lock, and every save
// is additionally guarded by an optimistic version check, so a manual
// renew and a reminder-mark can never silently overwrite each other.
type Service struct {
	cfg   *config.Config
	log   *zap.SugaredLogger
	db    *gorm.DB
	locks *idLocks
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, db *gorm.DB) *Service {
	return &Service{cfg: cfg, log: log, db: db, locks: newIDLocks()}
}

// Renew advances the next payment date by one cycle and appends a paid
// history entry. Renewing an inactive subscription is rejected.
func (s *Service) Renew(ctx context.Context, userID, id string) (*models.Subscription, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := sub.ApplyRenewal(time.Now()); err != nil {
		return nil, err
	}
	if err := s.saveVersioned(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to persist renewal: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("subscription renewed",
		"subscription_id", sub.ID, "next_payment_date", sub.NextPaymentDate)
	return sub, nil
}

// MarkReminderSent records that a reminder went out today. Called by the
// reminder batch after a successful send; it reloads the record under the
// per-id lock so it never clobbers a concurrent renew.
func (s *Service) MarkReminderSent(ctx context.Context, id string, now time.Time) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	var sub models.Subscription
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	sub.MarkReminderSent(now)
	return s.saveVersioned(ctx, &sub)
}

// saveVersioned persists m only if its version still matches the loaded
// row, bumping the version on success. A zero-row update means somebody
// else won the race.
func (s *Service) saveVersioned(ctx context.Context, m *models.Subscription) error {
	prev := m.Version
	m.Version = prev + 1

	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ? AND version = ?", m.ID, prev).
		Select("*").Omit("id", "created_at").
		Updates(m)
	if res.Error != nil {
		m.Version = prev
		return res.Error
	}
	if res.RowsAffected == 0 {
		m.Version = prev
		return ErrVersionConflict
	}
	return nil
}

// normalizeDates keeps calendar-significant fields at 00:00 UTC so day
// arithmetic stays exact.
func normalizeDates(m *models.Subscription) {
	m.StartDate = billing.Midnight(m.StartDate)
	m.NextPaymentDate = billing.Midnight(m.NextPaymentDate)
	if m.LastReminderSent != nil {
		t := billing.Midnight(*m.LastReminderSent)
		m.LastReminderSent = &t
	}
}
