package entity

import "time"

// User mirrors the identity provider's account record. Role is the single
// workflow role assigned to the account.
type User struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	Username  string     `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Name      string     `json:"name" gorm:"size:100;not null"`
	Email     string     `json:"email" gorm:"size:128;uniqueIndex"`
	Role      Role       `json:"role" gorm:"size:32;not null"`
	Status    string     `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
