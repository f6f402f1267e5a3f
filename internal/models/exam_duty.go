package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DutyScheduled  = "Scheduled"
	DutyInProgress = "InProgress"
	DutyCompleted  = "Completed"
	DutyCancelled  = "Cancelled"
)

// ExamDuty assigns a teacher to invigilate an exam.
type ExamDuty struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	TeacherID    string    `gorm:"type:uuid;index" json:"teacher_id"`
	ExamName     string    `json:"exam_name"`
	Date         time.Time `gorm:"index" json:"date"`
	TimeSlot     string    `json:"time_slot"`
	RoomNumber   string    `json:"room_number"`
	Subject      string    `json:"subject"`
	DepartmentID string    `gorm:"type:uuid;index" json:"department_id"`
	Semester     int       `json:"semester"`
	Duration     int       `json:"duration"`
	Status       string    `gorm:"index" json:"status"`
	AssignedByID *string   `gorm:"type:uuid" json:"assigned_by_id"`
	Remarks      string    `json:"remarks,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (e *ExamDuty) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// CanTransitionDuty reports whether a duty status change is allowed.
// Scheduled -> InProgress -> Completed; Cancelled is reachable from any
// non-terminal state.
func CanTransitionDuty(from, to string) bool {
	switch from {
	case DutyScheduled:
		return to == DutyInProgress || to == DutyCancelled
	case DutyInProgress:
		return to == DutyCompleted || to == DutyCancelled
	}
	return false
}
