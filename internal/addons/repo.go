package addons

import (
	"context"

	"gorm.io/gorm"

	"github.com/fitdesk/gymportal-backend/pkg/db/models"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
)

// Repository exposes persistence helpers for membership addons.
type Repository interface {
	Create(ctx context.Context, addon *models.MembershipAddon) error
	Delete(ctx context.Context, id int64) error
	ListPendingByPayment(ctx context.Context, paymentID int64) ([]models.MembershipAddon, error)
	SetStatusByPayment(ctx context.Context, paymentID int64, status enums.AddonStatus) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an addon repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, addon *models.MembershipAddon) error {
	return r.db.WithContext(ctx).Create(addon).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.MembershipAddon{}, id).Error
}

func (r *repositoryImpl) ListPendingByPayment(ctx context.Context, paymentID int64) ([]models.MembershipAddon, error) {
	var addons []models.MembershipAddon
	if err := r.db.WithContext(ctx).
		Where("payment_id = ? AND status = ?", paymentID, enums.AddonStatusPending).
		Order("id ASC").
		Find(&addons).Error; err != nil {
		return nil, err
	}
	return addons, nil
}

// SetStatusByPayment moves every pending addon tied to the payment to
// the given status and reports how many rows changed.
func (r *repositoryImpl) SetStatusByPayment(ctx context.Context, paymentID int64, status enums.AddonStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MembershipAddon{}).
		Where("payment_id = ? AND status = ?", paymentID, enums.AddonStatusPending).
		Update("status", status)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
