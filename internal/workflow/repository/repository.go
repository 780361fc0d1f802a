package repository

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Repositories bundles the data access layer.
type Repositories struct {
	Project *ProjectRepository
	History *HistoryRepository
	User    *UserRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Project: NewProjectRepository(db),
		History: NewHistoryRepository(db),
		User:    NewUserRepository(db),
	}
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
