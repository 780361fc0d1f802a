package service

import (
	"github.com/Lennart897/ProPlan-sub001/internal/shared/notify"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services bundles the workflow service layer.
type Services struct {
	Workflow *WorkflowService
	Project  *ProjectService
	History  *HistoryService
	Export   *ExportService
	User     *UserService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, notifier *notify.Client, logger *zap.Logger) *Services {
	return &Services{
		Workflow: NewWorkflowService(db, rdb, notifier, logger),
		Project:  NewProjectService(repos.Project),
		History:  NewHistoryService(repos.History),
		Export:   NewExportService(repos.Project),
		User:     NewUserService(repos.User),
	}
}
