package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTaskRepository implements TaskRepository using GORM
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// Save upserts a task
func (r *GormTaskRepository) Save(ctx context.Context, task *integration.SyncTask) error {
	model := models.SyncTaskModelFromDomain(task)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID returns a task by its ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncTask, error) {
	var model models.SyncTaskModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrTaskNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByVendor returns the pending or running task for a vendor
func (r *GormTaskRepository) FindActiveByVendor(ctx context.Context, vendorID string) (*integration.SyncTask, error) {
	var model models.SyncTaskModel
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND status IN ?", vendorID,
			[]integration.TaskStatus{integration.TaskStatusPending, integration.TaskStatusRunning}).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrTaskNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecentByVendor returns the most recent tasks for a vendor, newest first
func (r *GormTaskRepository) FindRecentByVendor(ctx context.Context, vendorID string, limit int) ([]*integration.SyncTask, error) {
	var taskModels []models.SyncTaskModel
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&taskModels).Error; err != nil {
		return nil, err
	}

	tasks := make([]*integration.SyncTask, len(taskModels))
	for i := range taskModels {
		tasks[i] = taskModels[i].ToDomain()
	}
	return tasks, nil
}

// FailStaleRunning marks every non-terminal task as failed with the given
// reason. Called once on process start.
func (r *GormTaskRepository) FailStaleRunning(ctx context.Context, reason string) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.SyncTaskModel{}).
		Where("status IN ?",
			[]integration.TaskStatus{integration.TaskStatusPending, integration.TaskStatusRunning}).
		Updates(map[string]any{
			"status":      integration.TaskStatusFailed,
			"error":       reason,
			"finished_at": now,
		})
	return result.RowsAffected, result.Error
}

// Ensure GormTaskRepository implements TaskRepository
var _ integration.TaskRepository = (*GormTaskRepository)(nil)
