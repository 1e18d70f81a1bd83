package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/fitdesk/gymportal-backend/pkg/logger"
)

type trainerSweeper interface {
	SweepTrainerExpiry(ctx context.Context, now time.Time) (int, error)
}

// TrainerExpiryJobParams configure the trainer expiry job.
type TrainerExpiryJobParams struct {
	Logger  *logger.Logger
	Sweeper trainerSweeper
}

// NewTrainerExpiryJob builds the job that deactivates trainer
// assignments whose period plus grace has elapsed.
func NewTrainerExpiryJob(params TrainerExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("sweeper required")
	}
	return &trainerExpiryJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
		now:     time.Now,
	}, nil
}

type trainerExpiryJob struct {
	logg    *logger.Logger
	sweeper trainerSweeper
	now     func() time.Time
}

func (j *trainerExpiryJob) Name() string { return "trainer-expiry" }

func (j *trainerExpiryJob) Run(ctx context.Context) error {
	revoked, err := j.sweeper.SweepTrainerExpiry(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("trainer expiry sweep: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "revoked", revoked)
	j.logg.Info(logCtx, "trainer expiry sweep complete")
	return nil
}
