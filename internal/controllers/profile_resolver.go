package controllers

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/models"
)

// ProfileKind tags the role-specific half of a resolved profile.
type ProfileKind string

const (
	ProfileNone    ProfileKind = "none"
	ProfileHOD     ProfileKind = "hod"
	ProfileTeacher ProfileKind = "teacher"
	ProfileStudent ProfileKind = "student"
)

// profileKindByRole is the explicit role -> profile-kind table; the User's
// polymorphic profile reference is only ever followed through it.
var profileKindByRole = map[string]ProfileKind{
	models.RoleAdmin:   ProfileNone,
	models.RoleHOD:     ProfileHOD,
	models.RoleTeacher: ProfileTeacher,
	models.RoleStudent: ProfileStudent,
}

var ErrProfileMissing = errors.New("profile record missing")

// ResolvedProfile is the tagged union returned to clients: exactly one of
// the role pointers is set, matching Kind.
type ResolvedProfile struct {
	User       models.User        `json:"user"`
	Kind       ProfileKind        `json:"kind"`
	HOD        *models.HOD        `json:"hod,omitempty"`
	Teacher    *models.Teacher    `json:"teacher,omitempty"`
	Student    *models.Student    `json:"student,omitempty"`
	Department *models.Department `json:"department,omitempty"`
	Courses    []enrolledCourse   `json:"courses,omitempty"`
}

// enrolledCourse is one row of a person's course list, built from the join
// entities.
type enrolledCourse struct {
	CourseID     string `json:"course_id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	Credits      int    `json:"credits"`
	AcademicYear int    `json:"academic_year"`
	Term         string `json:"term"`
	Grade        string `json:"grade,omitempty"`
	Instructor   string `json:"instructor,omitempty"`
}

// resolveProfile maps a user to its role profile, department and courses.
// The profile reference on the user row is preferred; the owning-user
// back-reference is the fallback for rows created before back-patching.
func resolveProfile(db *gorm.DB, user models.User) (ResolvedProfile, error) {
	out := ResolvedProfile{User: user, Kind: profileKindByRole[user.Role]}

	if user.DepartmentID != nil {
		var dept models.Department
		if err := db.Where("id = ?", *user.DepartmentID).First(&dept).Error; err == nil {
			out.Department = &dept
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return out, err
		}
	}

	switch out.Kind {
	case ProfileNone:
		return out, nil
	case ProfileHOD:
		var profile models.HOD
		if err := findProfile(db, user, &profile); err != nil {
			return out, err
		}
		out.HOD = &profile
	case ProfileTeacher:
		var profile models.Teacher
		if err := findProfile(db, user, &profile); err != nil {
			return out, err
		}
		out.Teacher = &profile
		courses, err := teacherCourses(db, profile.ID)
		if err != nil {
			return out, err
		}
		out.Courses = courses
	case ProfileStudent:
		var profile models.Student
		if err := findProfile(db, user, &profile); err != nil {
			return out, err
		}
		out.Student = &profile
		courses, err := studentCourses(db, profile.ID)
		if err != nil {
			return out, err
		}
		out.Courses = courses
	}
	return out, nil
}

func findProfile(db *gorm.DB, user models.User, dest interface{}) error {
	if user.ProfileID != nil {
		err := db.Where("id = ?", *user.ProfileID).First(dest).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	err := db.Where("user_id = ?", user.ID).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProfileMissing
	}
	return err
}

func teacherCourses(db *gorm.DB, teacherID string) ([]enrolledCourse, error) {
	var rows []enrolledCourse
	err := db.Table("teacher_courses AS tc").
		Select("c.id AS course_id, c.name, c.code, c.credits, tc.academic_year, tc.term").
		Joins("JOIN courses c ON c.id = tc.course_id").
		Where("tc.teacher_id = ?", teacherID).
		Order("tc.created_at ASC").
		Scan(&rows).Error
	return rows, err
}

func studentCourses(db *gorm.DB, studentID string) ([]enrolledCourse, error) {
	var rows []enrolledCourse
	err := db.Table("student_courses AS sc").
		Select("c.id AS course_id, c.name, c.code, c.credits, sc.academic_year, sc.term, sc.grade").
		Joins("JOIN courses c ON c.id = sc.course_id").
		Where("sc.student_id = ?", studentID).
		Order("sc.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Grade == "" {
			rows[i].Grade = "N/A"
		}
		rows[i].Instructor = instructorName(db, rows[i].CourseID)
	}
	return rows, nil
}

// instructorName resolves the display name of whoever teaches a course.
// Missing assignments degrade to a placeholder so dashboards still render
// with incomplete faculty data.
func instructorName(db *gorm.DB, courseID string) string {
	var row struct {
		FirstName string
		LastName  string
	}
	res := db.Table("teacher_courses AS tc").
		Select("u.first_name, u.last_name").
		Joins("JOIN teachers t ON t.id = tc.teacher_id").
		Joins("JOIN users u ON u.id = t.user_id").
		Where("tc.course_id = ?", courseID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		log.Printf("instructor lookup failed for course %s: %v", courseID, res.Error)
		return "Not assigned"
	}
	if res.RowsAffected == 0 {
		return "Not assigned"
	}
	return row.FirstName + " " + row.LastName
}
