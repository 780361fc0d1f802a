package repository

import (
	"context"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
	"gorm.io/gorm"
)

// UserRepository mirrors identities asserted by the external identity
// provider. Rows are provisioned on first contact, never edited by hand.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &u, nil
}

// Save persists changed profile fields (name, email, role drift from the
// identity provider).
func (r *UserRepository) Save(ctx context.Context, u *entity.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}
