package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/fitdesk/gymportal-backend/internal/memberships"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
)

type expirySweeper interface {
	SweepExpiry(ctx context.Context, now time.Time) (memberships.SweepResult, error)
}

// MembershipExpiryJobParams configure the membership expiry job.
type MembershipExpiryJobParams struct {
	Logger  *logger.Logger
	Sweeper expirySweeper
}

// NewMembershipExpiryJob builds the job that walks lapsed memberships
// into grace_period and grace memberships past the window into expired.
func NewMembershipExpiryJob(params MembershipExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("sweeper required")
	}
	return &membershipExpiryJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
		now:     time.Now,
	}, nil
}

type membershipExpiryJob struct {
	logg    *logger.Logger
	sweeper expirySweeper
	now     func() time.Time
}

func (j *membershipExpiryJob) Name() string { return "membership-expiry" }

func (j *membershipExpiryJob) Run(ctx context.Context) error {
	result, err := j.sweeper.SweepExpiry(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("membership expiry sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"entered_grace": result.EnteredGrace,
		"expired":       result.Expired,
	})
	j.logg.Info(logCtx, "membership expiry sweep complete")
	return nil
}
