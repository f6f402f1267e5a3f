package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `json:"name"`
	Code      string    `gorm:"uniqueIndex" json:"code"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// TeacherCourse assigns a teacher to a course for one academic year + term.
// The composite index blocks duplicate assignments.
type TeacherCourse struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	TeacherID    string    `gorm:"type:uuid;uniqueIndex:idx_teacher_course;index" json:"teacher_id"`
	CourseID     string    `gorm:"type:uuid;uniqueIndex:idx_teacher_course;index" json:"course_id"`
	AcademicYear int       `gorm:"uniqueIndex:idx_teacher_course" json:"academic_year"`
	Term         string    `gorm:"uniqueIndex:idx_teacher_course" json:"term"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (tc *TeacherCourse) BeforeCreate(tx *gorm.DB) (err error) {
	if tc.ID == "" {
		tc.ID = uuid.NewString()
	}
	return nil
}

// StudentCourse enrolls a student in a course for one academic year + term.
type StudentCourse struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID    string    `gorm:"type:uuid;uniqueIndex:idx_student_course;index" json:"student_id"`
	CourseID     string    `gorm:"type:uuid;uniqueIndex:idx_student_course;index" json:"course_id"`
	AcademicYear int       `gorm:"uniqueIndex:idx_student_course" json:"academic_year"`
	Term         string    `gorm:"uniqueIndex:idx_student_course" json:"term"`
	Grade        string    `json:"grade,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (sc *StudentCourse) BeforeCreate(tx *gorm.DB) (err error) {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	return nil
}

// Terms accepted on enrollment/assignment records.
var allowedTerms = map[string]struct{}{
	"Fall":   {},
	"Spring": {},
	"Summer": {},
}

func IsValidTerm(term string) bool {
	_, ok := allowedTerms[term]
	return ok
}
