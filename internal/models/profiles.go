package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HOD, Teacher and Student are the role-specific profile records. Each owns
// exactly one User (unique index on user_id) and belongs to one department.

type HOD struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string    `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	DepartmentID   string    `gorm:"type:uuid;index" json:"department_id"`
	EmployeeID     string    `gorm:"uniqueIndex" json:"employee_id"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	OfficeLocation string    `json:"office_location,omitempty"`
	Qualification  string    `json:"qualification,omitempty"`
	Experience     int       `json:"experience"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (h *HOD) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

type Teacher struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string    `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	DepartmentID   string    `gorm:"type:uuid;index" json:"department_id"`
	EmployeeID     string    `gorm:"uniqueIndex" json:"employee_id"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	Qualification  string    `json:"qualification,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Experience     int       `json:"experience"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (t *Teacher) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type Student struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string    `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	DepartmentID  string    `gorm:"type:uuid;index" json:"department_id"`
	RollNumber    string    `gorm:"uniqueIndex" json:"roll_number"`
	StudentID     string    `gorm:"uniqueIndex" json:"student_id"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	Semester      int       `json:"semester"`
	GuardianName  string    `json:"guardian_name,omitempty"`
	GuardianPhone string    `json:"guardian_phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
