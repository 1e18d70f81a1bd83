package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fitdesk/gymportal-backend/internal/memberships"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
)

type fakeExpirySweeper struct {
	result memberships.SweepResult
	err    error
	calls  int
	lastAt time.Time
}

func (f *fakeExpirySweeper) SweepExpiry(ctx context.Context, now time.Time) (memberships.SweepResult, error) {
	f.calls++
	f.lastAt = now
	return f.result, f.err
}

func TestMembershipExpiryJobRunsSweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	sweeper := &fakeExpirySweeper{result: memberships.SweepResult{EnteredGrace: 2, Expired: 1}}
	jobIface, err := NewMembershipExpiryJob(MembershipExpiryJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Sweeper: sweeper,
	})
	if err != nil {
		t.Fatalf("NewMembershipExpiryJob: %v", err)
	}
	job := jobIface.(*membershipExpiryJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("sweep called %d times, want 1", sweeper.calls)
	}
	if !sweeper.lastAt.Equal(now) {
		t.Fatalf("sweep ran at %s, want %s", sweeper.lastAt, now)
	}
}

func TestMembershipExpiryJobPropagatesErrors(t *testing.T) {
	sweeper := &fakeExpirySweeper{err: errors.New("boom")}
	jobIface, err := NewMembershipExpiryJob(MembershipExpiryJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Sweeper: sweeper,
	})
	if err != nil {
		t.Fatalf("NewMembershipExpiryJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakeTrainerSweeper struct {
	revoked int
	err     error
	calls   int
}

func (f *fakeTrainerSweeper) SweepTrainerExpiry(ctx context.Context, now time.Time) (int, error) {
	f.calls++
	return f.revoked, f.err
}

func TestTrainerExpiryJobRunsSweep(t *testing.T) {
	sweeper := &fakeTrainerSweeper{revoked: 3}
	jobIface, err := NewTrainerExpiryJob(TrainerExpiryJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Sweeper: sweeper,
	})
	if err != nil {
		t.Fatalf("NewTrainerExpiryJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("sweep called %d times, want 1", sweeper.calls)
	}
}

type fakeNotificationRepo struct {
	lastCutoff  time.Time
	deletedRows int64
	err         error
	called      int
}

func (f *fakeNotificationRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deletedRows, nil
}

func TestNotificationCleanupJobUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	repo := &fakeNotificationRepo{deletedRows: 42}
	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	job := jobIface.(*notificationCleanupJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-notificationRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expected) {
		t.Fatalf("cutoff = %s, want %s", repo.lastCutoff, expected)
	}
	if repo.called != 1 {
		t.Fatalf("repo called %d times, want 1", repo.called)
	}
}

func TestNotificationCleanupJobPropagatesErrors(t *testing.T) {
	repo := &fakeNotificationRepo{err: errors.New("boom")}
	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
