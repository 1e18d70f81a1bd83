package fees

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fitdesk/gymportal-backend/pkg/config"
	pkgerrors "github.com/fitdesk/gymportal-backend/pkg/errors"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the fees service.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Config config.FeesConfig
	Logger *logger.Logger
}

// Service resolves current fee amounts. A missing or unreadable setting
// is absorbed by the configured fallback and logged at warn; callers
// never see an error for an unset fee.
type Service struct {
	repo Repository
	tx   txRunner
	cfg  config.FeesConfig
	logg *logger.Logger
}

// NewService builds a fees service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{repo: params.Repo, tx: params.Tx, cfg: params.Config, logg: params.Logger}, nil
}

// CurrentFees is the resolved fee pair for in-gym pricing.
type CurrentFees struct {
	AdmissionFee decimal.Decimal `json:"admission_fee"`
	MonthlyFee   decimal.Decimal `json:"monthly_fee"`
}

// AdmissionFee returns the one-time admission fee for in-gym plans.
func (s *Service) AdmissionFee(ctx context.Context) decimal.Decimal {
	return s.resolve(ctx, SettingAdmissionFee, s.cfg.AdmissionFallbackAmount())
}

// MonthlyFee returns the recurring monthly fee for in-gym plans.
func (s *Service) MonthlyFee(ctx context.Context) decimal.Decimal {
	return s.resolve(ctx, SettingMonthlyFee, s.cfg.MonthlyFallbackAmount())
}

// Fees returns both fees in one call.
func (s *Service) Fees(ctx context.Context) CurrentFees {
	return CurrentFees{
		AdmissionFee: s.AdmissionFee(ctx),
		MonthlyFee:   s.MonthlyFee(ctx),
	}
}

func (s *Service) resolve(ctx context.Context, key string, fallback decimal.Decimal) decimal.Decimal {
	setting, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(s.logg.WithField(ctx, "setting_key", key), "fee setting unreadable, using fallback")
		}
		return fallback
	}

	amount, err := decimal.NewFromString(setting.Value)
	if err != nil || amount.IsNegative() {
		s.logg.Warn(s.logg.WithField(ctx, "setting_key", key), "fee setting malformed, using fallback")
		return fallback
	}
	return amount
}

// TrainerRate resolves a trainer's current monthly rate.
func (s *Service) TrainerRate(ctx context.Context, trainerID int64) (decimal.Decimal, error) {
	trainer, err := s.repo.FindTrainer(ctx, trainerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("trainer %d not found", trainerID))
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trainer")
	}
	if !trainer.Active {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("trainer %d is not active", trainerID))
	}
	return trainer.MonthlyRate, nil
}

// UpdateFeesInput carries the admin fee mutation. Nil fields are left
// untouched.
type UpdateFeesInput struct {
	AdmissionFee *decimal.Decimal
	MonthlyFee   *decimal.Decimal
}

// UpdateFees persists new operational fee values. Both settings are
// written in one transaction so a partial update never leaves the fee
// pair inconsistent.
func (s *Service) UpdateFees(ctx context.Context, input UpdateFeesInput) error {
	if input.AdmissionFee == nil && input.MonthlyFee == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one fee value is required")
	}
	if input.AdmissionFee != nil && input.AdmissionFee.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "admission fee must not be negative")
	}
	if input.MonthlyFee != nil && input.MonthlyFee.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "monthly fee must not be negative")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.AdmissionFee != nil {
			if err := repo.UpsertSetting(ctx, SettingAdmissionFee, input.AdmissionFee.String()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist admission fee")
			}
		}
		if input.MonthlyFee != nil {
			if err := repo.UpsertSetting(ctx, SettingMonthlyFee, input.MonthlyFee.String()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist monthly fee")
			}
		}
		return nil
	})
}
