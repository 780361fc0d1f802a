package service

import (
	"context"
	"fmt"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/repository"
)

// ProjectService serves the read paths: visibility-scoped listings, project
// detail and the archive partition.
type ProjectService struct {
	projects *repository.ProjectRepository
}

func NewProjectService(projects *repository.ProjectRepository) *ProjectService {
	return &ProjectService{projects: projects}
}

// GetProject loads a single project with derived display fields.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*entity.Project, error) {
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("project %s: %w", id, ErrProjectNotFound)
		}
		return nil, err
	}
	p.DecorateStatus()
	return p, nil
}

// GetProjectByNumber loads a project by its human-facing sequential number.
func (s *ProjectService) GetProjectByNumber(ctx context.Context, number int64) (*entity.Project, error) {
	p, err := s.projects.FindByNumber(ctx, number)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("project #%d: %w", number, ErrProjectNotFound)
		}
		return nil, err
	}
	p.DecorateStatus()
	return p, nil
}

// ListProjects returns the actor's working list. The status partition is
// narrowed in SQL; the per-location predicate runs on the page client-side of
// the database because distribution keys are free-form spellings.
func (s *ProjectService) ListProjects(ctx context.Context, actor Actor, search string, page, pageSize int) ([]entity.Project, int64, error) {
	filters := repository.ProjectFilters{
		Statuses: workingStatuses(actor.Role),
		Search:   search,
	}

	if _, scoped := actor.Role.LocationCode(); !scoped {
		items, total, err := s.projects.FindAll(ctx, filters, page, pageSize)
		if err != nil {
			return nil, 0, err
		}
		for i := range items {
			items[i].DecorateStatus()
		}
		return items, total, nil
	}

	// Location-scoped planners: fetch the partition unpaginated, apply the
	// alias-aware predicate, then paginate in memory. The working set per
	// site is small.
	all, _, err := s.projects.FindAll(ctx, filters, 1, 10000)
	if err != nil {
		return nil, 0, err
	}

	var visible []entity.Project
	for i := range all {
		if Visible(actor.Role, &all[i]) {
			all[i].DecorateStatus()
			visible = append(visible, all[i])
		}
	}

	total := int64(len(visible))
	start := (page - 1) * pageSize
	if start >= len(visible) {
		return []entity.Project{}, total, nil
	}
	end := start + pageSize
	if end > len(visible) {
		end = len(visible)
	}
	return visible[start:end], total, nil
}

// ListArchive returns the archived partition, optionally filtered by the
// terminal status that preceded archiving.
func (s *ProjectService) ListArchive(ctx context.Context, precededBy int, page, pageSize int) ([]entity.Project, int64, error) {
	filters := repository.ProjectFilters{Archived: true}
	if precededBy != 0 {
		filters.Statuses = []int{precededBy}
	}
	items, total, err := s.projects.FindAll(ctx, filters, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].DecorateStatus()
	}
	return items, total, nil
}

// LocationApprovals lists the per-site sign-offs recorded for a project.
func (s *ProjectService) LocationApprovals(ctx context.Context, projectID string) ([]entity.LocationApproval, error) {
	return s.projects.LocationApprovals(ctx, projectID)
}
