package service

import (
	"context"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/repository"
)

// HistoryService serves the audit-trail read paths. Writes happen only
// inside the workflow engine's transactions.
type HistoryService struct {
	history *repository.HistoryRepository
}

func NewHistoryService(history *repository.HistoryRepository) *HistoryService {
	return &HistoryService{history: history}
}

// ListByProject returns a project's trail. newestFirst=true for display,
// false for audit replay.
func (s *HistoryService) ListByProject(ctx context.Context, projectID string, newestFirst bool, page, pageSize int) ([]entity.HistoryEntry, int64, error) {
	items, total, err := s.history.FindByProject(ctx, projectID, newestFirst, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].DecorateStatus()
	}
	return items, total, nil
}

// ListByActor returns the entries written by targetActorID. Admins may query
// any actor; everyone else only their own entries.
func (s *HistoryService) ListByActor(ctx context.Context, actor Actor, targetActorID string, page, pageSize int) ([]entity.HistoryEntry, int64, error) {
	if actor.Role != entity.RoleAdmin && actor.ID != targetActorID {
		return nil, 0, permissionErr("actor %s may not read another actor's history", actor.ID)
	}
	items, total, err := s.history.FindByActor(ctx, targetActorID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].DecorateStatus()
	}
	return items, total, nil
}
