package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan JSONB: %v", value)
	}
	return json.Unmarshal(bytes, j)
}

// History action vocabulary. Closed set; new tags require a migration of
// every consumer that switches on them.
const (
	ActionCreate            = "create"
	ActionApprove           = "approve"
	ActionApprovedForwarded = "approved_forwarded"
	ActionLocationApproved  = "location_approved"
	ActionReject            = "reject"
	ActionRejected          = "rejected"
	ActionCorrect           = "correct"
	ActionCorrection        = "correction"
	ActionCorrected         = "corrected"
	ActionArchive           = "archive"
	ActionSendToProgress    = "send_to_progress"
)

// SystemActorID is the synthetic actor recorded for scheduled transitions.
const SystemActorID = "system"

// HistoryEntry is one row of the append-only audit trail. Entries are written
// in the same transaction as the status mutation they describe and are never
// updated afterwards.
type HistoryEntry struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	ProjectID string `json:"project_id" gorm:"size:32;not null;index"`

	ActorID   string `json:"actor_id" gorm:"size:32;not null;index"`
	ActorName string `json:"actor_name" gorm:"size:100"`

	Action     string `json:"action" gorm:"size:32;not null"`
	FromStatus int    `json:"from_status"`
	ToStatus   int    `json:"to_status"`

	Reason string `json:"reason" gorm:"type:text"`
	Diff   JSONB  `json:"diff" gorm:"type:jsonb"` // {"before":{...},"after":{...}} for corrections

	CreatedAt time.Time `json:"created_at"`

	// Derived labels for display
	FromStatusLabel string `json:"from_status_label,omitempty" gorm:"-"`
	ToStatusLabel   string `json:"to_status_label,omitempty" gorm:"-"`
}

func (HistoryEntry) TableName() string {
	return "project_history"
}

// DecorateStatus fills the derived status labels.
func (h *HistoryEntry) DecorateStatus() {
	h.FromStatusLabel = StatusLabel(h.FromStatus)
	h.ToStatusLabel = StatusLabel(h.ToStatus)
}
