package controllers

import (
	"log"

	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/models"
	"github.com/clgportal/backend_v1/internal/ws"
)

// recordActivity appends one audit entry and pushes it to connected admin
// feeds. Audit failures are logged, never surfaced to the caller.
func recordActivity(db *gorm.DB, hub *ws.ActivityHub, actorID, action, subject, subjectID string) {
	entry := models.ActivityLog{
		ActorID:   actorID,
		Action:    action,
		Subject:   subject,
		SubjectID: subjectID,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("activity log write failed: %v", err)
		return
	}
	if hub != nil {
		hub.Broadcast(entry)
	}
}
