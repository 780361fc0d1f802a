package repository

import (
	"context"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
	"gorm.io/gorm"
)

// ProjectRepository serves the read paths. Writes go through the workflow
// engine's transactions, never through here.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindByID loads a project by its opaque id.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*entity.Project, error) {
	var p entity.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &p, nil
}

// FindByNumber loads a project by its human-facing number.
func (r *ProjectRepository) FindByNumber(ctx context.Context, number int64) (*entity.Project, error) {
	var p entity.Project
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&p).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &p, nil
}

// ProjectFilters narrows project listings.
type ProjectFilters struct {
	Statuses  []int
	Archived  bool
	Search    string
	CreatedBy string
}

// FindAll lists projects with pagination. The archived flag partitions the
// result set; archived and active projects never mix.
func (r *ProjectRepository) FindAll(ctx context.Context, f ProjectFilters, page, pageSize int) ([]entity.Project, int64, error) {
	var items []entity.Project
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Project{}).
		Where("archived = ?", f.Archived)

	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", f.Statuses)
	}
	if f.CreatedBy != "" {
		query = query.Where("created_by = ?", f.CreatedBy)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("customer ILIKE ? OR article ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("number DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// LocationApprovals lists the per-site sign-offs recorded for a project.
func (r *ProjectRepository) LocationApprovals(ctx context.Context, projectID string) ([]entity.LocationApproval, error) {
	var items []entity.LocationApproval
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}
