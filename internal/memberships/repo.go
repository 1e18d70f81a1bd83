package memberships

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitdesk/gymportal-backend/pkg/db/models"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
	"github.com/fitdesk/gymportal-backend/pkg/pagination"
)

// ListQuery configures membership list queries for the admin review
// surface.
type ListQuery struct {
	Status *enums.MembershipStatus
	Limit  int
	Cursor *pagination.Cursor
}

// Repository exposes persistence helpers for memberships.
type Repository interface {
	Create(ctx context.Context, membership *models.Membership) error
	FindByID(ctx context.Context, id int64) (*models.Membership, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Membership, error)
	List(ctx context.Context, query ListQuery) ([]models.Membership, *pagination.Cursor, error)
	Update(ctx context.Context, membership *models.Membership) error
	CompareAndSwapStatus(ctx context.Context, id int64, expected, next enums.MembershipStatus) (bool, error)
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]models.Membership, error)
	ListGraceLapsed(ctx context.Context, cutoff time.Time, limit int) ([]models.Membership, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a membership repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id int64) (*models.Membership, error) {
	var membership models.Membership
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *repositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *repositoryImpl) List(ctx context.Context, query ListQuery) ([]models.Membership, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(query.Limit)
	normalized := pagination.NormalizeLimit(query.Limit)

	q := r.db.WithContext(ctx).Model(&models.Membership{})
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.Cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var memberships []models.Membership
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&memberships).Error; err != nil {
		return nil, nil, err
	}

	if len(memberships) > normalized {
		next := memberships[normalized-1]
		memberships = memberships[:normalized]
		return memberships, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return memberships, nil, nil
}

func (r *repositoryImpl) Update(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Save(membership).Error
}

// CompareAndSwapStatus performs the conditional status write that guards
// every transition: the update only lands when the row still carries the
// status the caller observed. A false return means a concurrent actor
// moved the row first.
func (r *repositoryImpl) CompareAndSwapStatus(ctx context.Context, id int64, expected, next enums.MembershipStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.WithContext(ctx).
		Where("status = ? AND membership_end_date IS NOT NULL AND membership_end_date < ?", enums.MembershipStatusActive, now).
		Order("membership_end_date ASC").
		Limit(limit).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *repositoryImpl) ListGraceLapsed(ctx context.Context, cutoff time.Time, limit int) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.WithContext(ctx).
		Where("status = ? AND membership_end_date IS NOT NULL AND membership_end_date < ?", enums.MembershipStatusGracePeriod, cutoff).
		Order("membership_end_date ASC").
		Limit(limit).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}
