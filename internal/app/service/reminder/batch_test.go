package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/subwatch/subwatch/internal/models"
	"github.com/subwatch/subwatch/pkg/config"
	"github.com/subwatch/subwatch/pkg/metrics"
	"github.com/subwatch/subwatch/pkg/types"
)

type fakeRepo struct {
	items    []*models.SubscriptionWithOwner
	fetchErr error
	markErr  map[string]error
	marked   []string
}

func (f *fakeRepo) FindActiveWithOwners(ctx context.Context) ([]*models.SubscriptionWithOwner, error) {
	return f.items, f.fetchErr
}

func (f *fakeRepo) MarkReminderSent(ctx context.Context, id string, now time.Time) error {
	if err := f.markErr[id]; err != nil {
		return err
	}
	f.marked = append(f.marked, id)
	return nil
}

type fakeNotifier struct {
	failFor map[string]error
	sent    []string
}

func (f *fakeNotifier) Send(ctx context.Context, user *models.User, sub *models.Subscription) (string, error) {
	if err := f.failFor[sub.ID]; err != nil {
		return "", err
	}
	f.sent = append(f.sent, sub.ID)
	return "<test@subwatch>", nil
}

type fakeLogs struct {
	entries []*models.ReminderLog
}

func (f *fakeLogs) Append(ctx context.Context, entry *models.ReminderLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dueSub(id string, next time.Time) *models.Subscription {
	return &models.Subscription{
		ID:              id,
		UserID:          "u-" + id,
		ServiceName:     "svc-" + id,
		IsActive:        true,
		ReminderDays:    7,
		NextPaymentDate: next,
	}
}

func owner(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", IsActive: true}
}

func newTestBatch(repo Repository, logs LogStore, n Notifier) *Batch {
	cfg := &config.Config{}
	cfg.Reminder.SendDelay = 0
	return NewBatch(cfg, zap.NewNop().Sugar(), repo, logs, n, metrics.New())
}

func TestBatch_Run_PartialFailure(t *testing.T) {
	today := day(2024, time.March, 10)
	repo := &fakeRepo{items: []*models.SubscriptionWithOwner{
		{Subscription: dueSub("a", day(2024, time.March, 12)), Owner: owner("u-a")},
		{Subscription: dueSub("b", day(2024, time.March, 13)), Owner: owner("u-b")},
		{Subscription: dueSub("c", day(2024, time.March, 14)), Owner: owner("u-c")},
	}}
	notifier := &fakeNotifier{failFor: map[string]error{"b": errors.New("smtp: connection refused")}}
	logs := &fakeLogs{}

	report, err := newTestBatch(repo, logs, notifier).Run(context.Background(), today)
	require.NoError(t, err, "one failing item must not abort the run")

	assert.Equal(t, Report{Processed: 3, Sent: 2, Failed: 1}, report)
	assert.Equal(t, []string{"a", "c"}, repo.marked, "only successful sends get lastReminderSent")

	require.Len(t, logs.entries, 3)
	outcomes := map[string]types.ReminderOutcome{}
	for _, e := range logs.entries {
		outcomes[e.SubscriptionID] = e.Outcome
	}
	assert.Equal(t, types.ReminderOutcomeSent, outcomes["a"])
	assert.Equal(t, types.ReminderOutcomeFailed, outcomes["b"])
	assert.Equal(t, types.ReminderOutcomeSent, outcomes["c"])
}

func TestBatch_Run_SkipsNotDueButCountsProcessed(t *testing.T) {
	today := day(2024, time.March, 10)
	sent := day(2024, time.March, 10)
	already := dueSub("dedup", day(2024, time.March, 12))
	already.LastReminderSent = &sent

	repo := &fakeRepo{items: []*models.SubscriptionWithOwner{
		{Subscription: dueSub("due", day(2024, time.March, 12)), Owner: owner("u-due")},
		{Subscription: dueSub("far", day(2024, time.June, 1)), Owner: owner("u-far")},
		{Subscription: already, Owner: owner("u-dedup")},
	}}
	notifier := &fakeNotifier{}
	logs := &fakeLogs{}

	report, err := newTestBatch(repo, logs, notifier).Run(context.Background(), today)
	require.NoError(t, err)

	assert.Equal(t, Report{Processed: 3, Sent: 1, Failed: 0}, report)
	assert.Equal(t, []string{"due"}, notifier.sent)
	assert.Len(t, logs.entries, 1, "skipped items produce no log rows")
}

func TestBatch_Run_SkipsMissingOrInactiveOwner(t *testing.T) {
	today := day(2024, time.March, 10)
	gone := owner("u-gone")
	gone.IsActive = false

	repo := &fakeRepo{items: []*models.SubscriptionWithOwner{
		{Subscription: dueSub("orphan", day(2024, time.March, 12)), Owner: nil},
		{Subscription: dueSub("deactivated", day(2024, time.March, 12)), Owner: gone},
	}}
	notifier := &fakeNotifier{}

	report, err := newTestBatch(repo, &fakeLogs{}, notifier).Run(context.Background(), today)
	require.NoError(t, err)

	assert.Equal(t, Report{Processed: 2, Sent: 0, Failed: 0}, report)
	assert.Empty(t, notifier.sent)
	assert.Empty(t, repo.marked)
}

func TestBatch_Run_MarkFailureCountsFailed(t *testing.T) {
	today := day(2024, time.March, 10)
	repo := &fakeRepo{
		items: []*models.SubscriptionWithOwner{
			{Subscription: dueSub("a", day(2024, time.March, 12)), Owner: owner("u-a")},
		},
		markErr: map[string]error{"a": errors.New("version conflict")},
	}
	notifier := &fakeNotifier{}
	logs := &fakeLogs{}

	report, err := newTestBatch(repo, logs, notifier).Run(context.Background(), today)
	require.NoError(t, err)

	// The mail went out, but without the mark it would fire again
	// tomorrow, so the item counts as failed.
	assert.Equal(t, Report{Processed: 1, Sent: 0, Failed: 1}, report)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, types.ReminderOutcomeFailed, logs.entries[0].Outcome)
	detail := logs.entries[0].Detail.Data()
	require.NotNil(t, detail)
	assert.Equal(t, "<test@subwatch>", detail.MessageID)
	assert.Contains(t, detail.Error, "version conflict")
}

func TestBatch_Run_FetchErrorIsFatal(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("db down")}
	_, err := newTestBatch(repo, &fakeLogs{}, &fakeNotifier{}).Run(context.Background(), day(2024, time.March, 10))
	require.Error(t, err)
}

func TestBatch_Run_RejectsOverlappingRuns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	repo := &blockingRepo{started: started, release: release}
	b := newTestBatch(repo, &fakeLogs{}, &fakeNotifier{})

	done := make(chan error, 1)
	go func() {
		_, err := b.Run(context.Background(), day(2024, time.March, 10))
		done <- err
	}()

	<-started
	_, err := b.Run(context.Background(), day(2024, time.March, 10))
	require.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	require.NoError(t, <-done)
}

type blockingRepo struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRepo) FindActiveWithOwners(ctx context.Context) ([]*models.SubscriptionWithOwner, error) {
	close(b.started)
	<-b.release
	return nil, nil
}

func (b *blockingRepo) MarkReminderSent(ctx context.Context, id string, now time.Time) error {
	return nil
}
