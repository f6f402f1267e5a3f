package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLog is an append-only audit trail: who did what to which record.
type ActivityLog struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID   string    `gorm:"type:uuid;index" json:"actor_id"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	SubjectID string    `json:"subject_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
