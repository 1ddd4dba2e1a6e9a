// Package reminder implements the daily reminder batch: walk every
// active subscription, decide whether a payment reminder is due, send it,
// and record the outcome. A single failing item never aborts the run.
package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/subwatch/subwatch/internal/app/service/billing"
	"github.com/subwatch/subwatch/internal/models"
	"github.com/subwatch/subwatch/pkg/config"
	"github.com/subwatch/subwatch/pkg/metrics"
	"github.com/subwatch/subwatch/pkg/tool"
	"github.com/subwatch/subwatch/pkg/types"
)

var ErrRunInProgress = errors.New("reminder run already in progress")

// Notifier delivers one reminder mail. Implementations must be free of
// side effects beyond the actual send so a retry next cycle is safe.
type Notifier interface {
	Send(ctx context.Context, user *models.User, sub *models.Subscription) (messageID string, err error)
}

// Repository is the persistence surface the batch needs.
type Repository interface {
	FindActiveWithOwners(ctx context.Context) ([]*models.SubscriptionWithOwner, error)
	MarkReminderSent(ctx context.Context, id string, now time.Time) error
}

// LogStore records send attempts.
type LogStore interface {
	Append(ctx context.Context, entry *models.ReminderLog) error
}

// Report aggregates one run. Processed counts every active subscription
// examined, including ones skipped for a missing/inactive owner or for
// not being due; Sent and Failed count actual send attempts.
type Report struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

type Batch struct {
	log       *zap.SugaredLogger
	repo      Repository
	logs      LogStore
	notifier  Notifier
	met       *metrics.Metrics
	sendDelay time.Duration

	// runMu guarantees at most one run at a time; overlapping triggers
	// get ErrRunInProgress instead of racing lastReminderSent.
	runMu sync.Mutex
}

func NewBatch(cfg *config.Config, log *zap.SugaredLogger, repo Repository, logs LogStore, notifier Notifier, met *metrics.Metrics) *Batch {
	return &Batch{
		log:       log,
		repo:      repo,
		logs:      logs,
		notifier:  notifier,
		met:       met,
		sendDelay: cfg.Reminder.SendDelay,
	}
}

// Run processes all active subscriptions for the given day. A failure to
// fetch the candidate set is fatal; everything after that is tolerated
// per item so the periodic trigger always completes.
func (b *Batch) Run(ctx context.Context, today time.Time) (Report, error) {
	if !b.runMu.TryLock() {
		return Report{}, ErrRunInProgress
	}
	defer b.runMu.Unlock()

	today = billing.Midnight(today)
	report := Report{}

	candidates, err := b.repo.FindActiveWithOwners(ctx)
	if err != nil {
		return report, err
	}
	if len(candidates) == 0 {
		b.log.Infow("reminder run: no active subscriptions")
		return report, nil
	}

	for _, c := range candidates {
		sub := c.Subscription
		report.Processed++

		if c.Owner == nil || !c.Owner.IsActive {
			b.log.Infow("reminder run: skipping subscription with missing or inactive owner",
				"subscription_id", sub.ID, "user_id", sub.UserID)
			continue
		}
		if !sub.NeedsReminder(today) {
			continue
		}

		b.log.Infow("sending payment reminder",
			"subscription_id", sub.ID, "service", sub.ServiceName, "to", c.Owner.Email,
			"days_until_payment", sub.DaysUntilPayment(today))

		msgID, sendErr := b.notifier.Send(ctx, c.Owner, sub)
		if sendErr == nil {
			// Mark before counting: a failed mark means the reminder will
			// fire again tomorrow, so the item counts as failed.
			if markErr := b.repo.MarkReminderSent(ctx, sub.ID, today); markErr != nil {
				report.Failed++
				b.log.Errorw("reminder sent but not recorded",
					"subscription_id", sub.ID, "err", markErr)
				b.appendLog(ctx, sub, today, types.ReminderOutcomeFailed, &models.ReminderLogDetail{MessageID: msgID, Error: markErr.Error()})
			} else {
				report.Sent++
				b.appendLog(ctx, sub, today, types.ReminderOutcomeSent, &models.ReminderLogDetail{MessageID: msgID})
			}
		} else {
			report.Failed++
			b.log.Errorw("failed to send reminder",
				"subscription_id", sub.ID, "service", sub.ServiceName, "err", sendErr)
			b.appendLog(ctx, sub, today, types.ReminderOutcomeFailed, &models.ReminderLogDetail{Error: sendErr.Error()})
		}

		b.pause(ctx)
	}

	b.met.ReminderRuns.Inc()
	b.met.RemindersSent.Add(float64(report.Sent))
	b.met.RemindersFailed.Add(float64(report.Failed))
	b.met.SubsProcessedLast.Set(float64(report.Processed))

	b.log.Infow("reminder run finished",
		"processed", report.Processed, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

func (b *Batch) appendLog(ctx context.Context, sub *models.Subscription, today time.Time, outcome types.ReminderOutcome, detail *models.ReminderLogDetail) {
	entry := &models.ReminderLog{
		ID:               tool.GenerateUUIDV7(),
		SubscriptionID:   sub.ID,
		UserID:           sub.UserID,
		SentAt:           time.Now(),
		DaysUntilPayment: sub.DaysUntilPayment(today),
		Outcome:          outcome,
		Detail:           datatypes.NewJSONType(detail),
	}
	if err := b.logs.Append(ctx, entry); err != nil {
		b.log.Warnw("failed to append reminder log", "subscription_id", sub.ID, "err", err)
	}
}

// pause throttles between send attempts without outliving the context.
func (b *Batch) pause(ctx context.Context) {
	if b.sendDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(b.sendDelay):
	}
}
