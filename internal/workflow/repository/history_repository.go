package repository

import (
	"context"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
	"gorm.io/gorm"
)

// HistoryRepository reads the append-only audit trail. Entries are written
// exclusively inside the workflow engine's transactions; there is no update
// or delete path on purpose.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// FindByProject lists a project's audit trail. newestFirst=true is the
// display order; newestFirst=false is the replay order.
func (r *HistoryRepository) FindByProject(ctx context.Context, projectID string, newestFirst bool, page, pageSize int) ([]entity.HistoryEntry, int64, error) {
	var items []entity.HistoryEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.HistoryEntry{}).
		Where("project_id = ?", projectID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at ASC, id ASC"
	if newestFirst {
		order = "created_at DESC, id DESC"
	}

	offset := (page - 1) * pageSize
	err := query.
		Order(order).
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByActor lists the entries written by one actor, newest first.
func (r *HistoryRepository) FindByActor(ctx context.Context, actorID string, page, pageSize int) ([]entity.HistoryEntry, int64, error) {
	var items []entity.HistoryEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.HistoryEntry{}).
		Where("actor_id = ?", actorID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// CountByProjectAndAction counts entries for one project carrying a given
// action tag.
func (r *HistoryRepository) CountByProjectAndAction(ctx context.Context, projectID, action string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.HistoryEntry{}).
		Where("project_id = ? AND action = ?", projectID, action).
		Count(&count).Error
	return count, err
}
