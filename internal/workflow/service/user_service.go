package service

import (
	"context"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/repository"
)

// UserService mirrors the identity provider's assertions into the local
// users table so history entries and the Creator association have rows to
// point at.
type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// EnsureUser provisions the caller's row on first contact and keeps the
// profile fields in sync with the token afterwards. The id is the stable
// reference; everything else may drift.
func (s *UserService) EnsureUser(ctx context.Context, actor Actor, email string) (*entity.User, error) {
	u, err := s.users.FindByID(ctx, actor.ID)
	if err == repository.ErrNotFound {
		u = &entity.User{
			ID:       actor.ID,
			Username: actor.ID,
			Name:     actor.Name,
			Email:    email,
			Role:     actor.Role,
			Status:   "active",
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	}
	if err != nil {
		return nil, err
	}

	if u.Name != actor.Name || u.Email != email || u.Role != actor.Role {
		u.Name = actor.Name
		u.Email = email
		u.Role = actor.Role
		if err := s.users.Save(ctx, u); err != nil {
			return nil, err
		}
	}
	return u, nil
}
