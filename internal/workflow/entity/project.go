package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Verteilung is the per-location quantity distribution (Standortverteilung),
// keyed by the location spelling as entered by the user.
type Verteilung map[string]float64

func (v Verteilung) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (v *Verteilung) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan Verteilung: %v", value)
	}
	return json.Unmarshal(bytes, v)
}

// Project is a production request (Produktionsprojekt). Status is one of the
// Status* constants; projects are never deleted, terminal ones are archived
// via the Archived flag.
type Project struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	Number int64  `json:"number" gorm:"not null;uniqueIndex"`

	Customer string `json:"customer" gorm:"size:128;not null"`
	Article  string `json:"article" gorm:"size:128;not null"`

	TotalQuantity float64 `json:"total_quantity" gorm:"not null"`
	QuantityFixed bool    `json:"quantity_fixed" gorm:"default:false"`

	FirstDeliveryDate *time.Time `json:"first_delivery_date" gorm:"type:date"`
	LastDeliveryDate  *time.Time `json:"last_delivery_date" gorm:"type:date"`

	Distribution Verteilung `json:"distribution" gorm:"type:jsonb"`

	Status int `json:"status" gorm:"not null;default:1;index"`

	// CreatedBy is the immutable identity reference used for authorization.
	// CreatorName is display-only and must never gate anything.
	CreatedBy   string `json:"created_by" gorm:"size:32;not null;index"`
	CreatorName string `json:"creator_name" gorm:"size:100"`

	Archived        bool       `json:"archived" gorm:"default:false;index"`
	ArchivedAt      *time.Time `json:"archived_at"`
	RejectionReason string     `json:"rejection_reason" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Creator *User `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`

	// Derived, not persisted
	StatusLabel string `json:"status_label,omitempty" gorm:"-"`
	StatusColor string `json:"status_color,omitempty" gorm:"-"`
}

func (Project) TableName() string {
	return "projects"
}

// DecorateStatus fills the derived display fields from the status registry.
func (p *Project) DecorateStatus() {
	info := StatusOf(p.Status)
	p.StatusLabel = info.Label
	p.StatusColor = info.ColorClass
}

// LocationApproval records one site's sign-off during Prüfung Planung.
// The project is approved once every site with a positive share has one.
type LocationApproval struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID    string    `json:"project_id" gorm:"size:32;not null;uniqueIndex:idx_location_approval_once"`
	Location     string    `json:"location" gorm:"size:64;not null;uniqueIndex:idx_location_approval_once"`
	ApprovedBy   string    `json:"approved_by" gorm:"size:32;not null"`
	ApproverName string    `json:"approver_name" gorm:"size:100"`
	CreatedAt    time.Time `json:"created_at"`
}

func (LocationApproval) TableName() string {
	return "location_approvals"
}
