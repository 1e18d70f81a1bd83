package payments

import (
	"context"

	"gorm.io/gorm"

	"github.com/fitdesk/gymportal-backend/pkg/db/models"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
	"github.com/fitdesk/gymportal-backend/pkg/pagination"
)

// ListPaymentsQuery configures payment history queries.
type ListPaymentsQuery struct {
	MembershipID int64
	Limit        int
	Cursor       *pagination.Cursor
}

// Repository exposes persistence helpers for payments.
type Repository interface {
	Create(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id int64) error
	HasPending(ctx context.Context, membershipID int64) (bool, error)
	FindMostRecentPending(ctx context.Context, membershipID int64) (*models.Payment, error)
	ListPending(ctx context.Context, membershipID int64) ([]models.Payment, error)
	SetStatus(ctx context.Context, paymentID int64, status enums.PaymentStatus) error
	ListByMembership(ctx context.Context, query ListPaymentsQuery) ([]models.Payment, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a payments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Payment{}, id).Error
}

func (r *repositoryImpl) HasPending(ctx context.Context, membershipID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("membership_id = ? AND status = ?", membershipID, enums.PaymentStatusPending).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repositoryImpl) FindMostRecentPending(ctx context.Context, membershipID int64) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("membership_id = ? AND status = ?", membershipID, enums.PaymentStatusPending).
		Order("created_at DESC, id DESC").
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repositoryImpl) ListPending(ctx context.Context, membershipID int64) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("membership_id = ? AND status = ?", membershipID, enums.PaymentStatusPending).
		Order("created_at DESC, id DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repositoryImpl) SetStatus(ctx context.Context, paymentID int64, status enums.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Update("status", status).Error
}

func (r *repositoryImpl) ListByMembership(ctx context.Context, query ListPaymentsQuery) ([]models.Payment, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(query.Limit)
	normalized := pagination.NormalizeLimit(query.Limit)

	q := r.db.WithContext(ctx).Model(&models.Payment{}).Where("membership_id = ?", query.MembershipID)
	if query.Cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var payments []models.Payment
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&payments).Error; err != nil {
		return nil, nil, err
	}

	if len(payments) > normalized {
		next := payments[normalized-1]
		payments = payments[:normalized]
		return payments, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return payments, nil, nil
}
