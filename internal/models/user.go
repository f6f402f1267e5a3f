package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles understood by the authorization layer.
const (
	RoleAdmin   = "Admin"
	RoleHOD     = "HOD"
	RoleTeacher = "Teacher"
	RoleStudent = "Student"
)

type User struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex" json:"email"`
	Password     string     `json:"-"`
	Role         string     `gorm:"index" json:"role"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	DepartmentID *string    `gorm:"type:uuid;index" json:"department_id"`
	ProfileID    *string    `gorm:"type:uuid" json:"profile_id"`
	Active       bool       `json:"active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
