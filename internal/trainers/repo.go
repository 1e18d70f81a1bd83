package trainers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fitdesk/gymportal-backend/pkg/db/models"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
)

// Repository exposes persistence helpers for trainers and their
// assignment rows.
type Repository interface {
	ListActiveTrainers(ctx context.Context) ([]models.Trainer, error)
	FindTrainer(ctx context.Context, id int64) (*models.Trainer, error)
	CreateAssignment(ctx context.Context, assignment *models.TrainerAssignment) error
	DeleteAssignment(ctx context.Context, id int64) error
	FindPendingAssignmentByPayment(ctx context.Context, paymentID int64) (*models.TrainerAssignment, error)
	UpdateAssignment(ctx context.Context, assignment *models.TrainerAssignment) error
	DeactivateAssignments(ctx context.Context, membershipID int64) (int64, error)
	ListStaleActiveAssignments(ctx context.Context, cutoff time.Time, limit int) ([]models.TrainerAssignment, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a trainers repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) ListActiveTrainers(ctx context.Context) ([]models.Trainer, error) {
	var trainers []models.Trainer
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&trainers).Error; err != nil {
		return nil, err
	}
	return trainers, nil
}

func (r *repositoryImpl) FindTrainer(ctx context.Context, id int64) (*models.Trainer, error) {
	var trainer models.Trainer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&trainer).Error; err != nil {
		return nil, err
	}
	return &trainer, nil
}

func (r *repositoryImpl) CreateAssignment(ctx context.Context, assignment *models.TrainerAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repositoryImpl) DeleteAssignment(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.TrainerAssignment{}, id).Error
}

func (r *repositoryImpl) FindPendingAssignmentByPayment(ctx context.Context, paymentID int64) (*models.TrainerAssignment, error) {
	var assignment models.TrainerAssignment
	if err := r.db.WithContext(ctx).
		Where("payment_id = ? AND status = ?", paymentID, enums.AssignmentStatusPending).
		Order("id DESC").
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repositoryImpl) UpdateAssignment(ctx context.Context, assignment *models.TrainerAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// DeactivateAssignments marks every non-inactive assignment of the
// membership inactive and reports how many rows changed.
func (r *repositoryImpl) DeactivateAssignments(ctx context.Context, membershipID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TrainerAssignment{}).
		Where("membership_id = ? AND status <> ?", membershipID, enums.AssignmentStatusInactive).
		Update("status", enums.AssignmentStatusInactive)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) ListStaleActiveAssignments(ctx context.Context, cutoff time.Time, limit int) ([]models.TrainerAssignment, error) {
	var assignments []models.TrainerAssignment
	if err := r.db.WithContext(ctx).
		Where("status = ? AND period_end < ?", enums.AssignmentStatusActive, cutoff).
		Order("period_end ASC").
		Limit(limit).
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}
