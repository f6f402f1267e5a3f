package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceLate    = "Late"
)

// Attendance records one student's presence in one course on one date.
// The composite index prevents double-marking.
type Attendance struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID    string    `gorm:"type:uuid;uniqueIndex:idx_attendance_record;index" json:"student_id"`
	CourseID     string    `gorm:"type:uuid;uniqueIndex:idx_attendance_record;index" json:"course_id"`
	Date         time.Time `gorm:"uniqueIndex:idx_attendance_record;index" json:"date"`
	Status       string    `gorm:"index" json:"status"`
	TeacherID    string    `gorm:"type:uuid;index" json:"teacher_id"`
	DepartmentID string    `gorm:"type:uuid;index" json:"department_id"`
	Semester     int       `json:"semester"`
	Remarks      string    `json:"remarks,omitempty"`
	MarkedAt     time.Time `json:"marked_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *Attendance) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func IsValidAttendanceStatus(status string) bool {
	switch status {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}
