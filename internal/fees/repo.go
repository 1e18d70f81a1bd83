package fees

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fitdesk/gymportal-backend/pkg/db/models"
)

// Setting keys understood by the provider.
const (
	SettingAdmissionFee = "admission_fee"
	SettingMonthlyFee   = "monthly_fee"
)

// Repository exposes persistence helpers for operational settings and
// trainer rates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetSetting(ctx context.Context, key string) (*models.OperationalSetting, error)
	UpsertSetting(ctx context.Context, key, value string) error
	FindTrainer(ctx context.Context, id int64) (*models.Trainer, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a fees repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) GetSetting(ctx context.Context, key string) (*models.OperationalSetting, error) {
	var setting models.OperationalSetting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *repositoryImpl) UpsertSetting(ctx context.Context, key, value string) error {
	setting := models.OperationalSetting{Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
}

func (r *repositoryImpl) FindTrainer(ctx context.Context, id int64) (*models.Trainer, error) {
	var trainer models.Trainer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&trainer).Error; err != nil {
		return nil, err
	}
	return &trainer, nil
}
