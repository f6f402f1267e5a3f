package registry

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/models"
	"github.com/clgportal/backend_v1/internal/utils"
)

// Sentinel errors the controllers map onto HTTP statuses.
var (
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrEmployeeIDTaken    = errors.New("a profile with this employee id already exists")
	ErrRollNumberTaken    = errors.New("a student with this roll number already exists")
	ErrStudentIDTaken     = errors.New("a student with this student id already exists")
	ErrDepartmentRequired = errors.New("department is required for this role")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrDepartmentHasHOD   = errors.New("department already has a head")
	ErrDepartmentInUse    = errors.New("cannot delete department with existing users")
	ErrNotFound           = gorm.ErrRecordNotFound
)

// Service owns the multi-row directory operations: user+profile creation and
// cascading deletes. Both halves of each operation run in one transaction so
// a failure after the user insert rolls the user back instead of leaving an
// orphan.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// NewUser carries the identity half of a create request. Password is plain
// text here and hashed exactly once, inside the create.
type NewUser struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	DepartmentID string
}

func (s *Service) emailTaken(tx *gorm.DB, email string) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}
	return nil
}

func (s *Service) departmentExists(tx *gorm.DB, id string) (*models.Department, error) {
	var dept models.Department
	if err := tx.Where("id = ?", id).First(&dept).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	return &dept, nil
}

func (s *Service) insertUser(tx *gorm.DB, in NewUser, role string) (*models.User, error) {
	if err := s.emailTaken(tx, in.Email); err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && in.DepartmentID == "" {
		return nil, ErrDepartmentRequired
	}
	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:     strings.ToLower(in.Email),
		Password:  hashed,
		Role:      role,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Active:    true,
	}
	if in.DepartmentID != "" {
		if _, err := s.departmentExists(tx, in.DepartmentID); err != nil {
			return nil, err
		}
		user.DepartmentID = &in.DepartmentID
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateAdmin creates a plain admin user; admins carry no profile record.
func (s *Service) CreateAdmin(in NewUser) (*models.User, error) {
	var user *models.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = s.insertUser(tx, in, models.RoleAdmin)
		return err
	})
	return user, err
}

// CreateHOD creates a User plus HOD profile and claims the department's head
// slot. A department may have at most one HOD.
func (s *Service) CreateHOD(in NewUser, profile models.HOD) (*models.User, *models.HOD, error) {
	var user *models.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		dept, err := s.departmentExists(tx, in.DepartmentID)
		if err != nil {
			return err
		}
		if dept.HODID != nil {
			return ErrDepartmentHasHOD
		}
		var count int64
		if err := tx.Model(&models.HOD{}).Where("employee_id = ?", profile.EmployeeID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmployeeIDTaken
		}
		user, err = s.insertUser(tx, in, models.RoleHOD)
		if err != nil {
			return err
		}
		profile.UserID = user.ID
		profile.DepartmentID = in.DepartmentID
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Department{}).Where("id = ?", dept.ID).Update("hod_id", profile.ID).Error; err != nil {
			return err
		}
		user.ProfileID = &profile.ID
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Update("profile_id", profile.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return user, &profile, nil
}

// CreateTeacher creates a User plus Teacher profile and back-patches the
// user's profile reference.
func (s *Service) CreateTeacher(in NewUser, profile models.Teacher) (*models.User, *models.Teacher, error) {
	var user *models.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Teacher{}).Where("employee_id = ?", profile.EmployeeID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmployeeIDTaken
		}
		var err error
		user, err = s.insertUser(tx, in, models.RoleTeacher)
		if err != nil {
			return err
		}
		profile.UserID = user.ID
		profile.DepartmentID = in.DepartmentID
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		user.ProfileID = &profile.ID
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Update("profile_id", profile.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return user, &profile, nil
}

// CreateStudent creates a User plus Student profile.
func (s *Service) CreateStudent(in NewUser, profile models.Student) (*models.User, *models.Student, error) {
	var user *models.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Student{}).Where("roll_number = ?", profile.RollNumber).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrRollNumberTaken
		}
		if err := tx.Model(&models.Student{}).Where("student_id = ?", profile.StudentID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrStudentIDTaken
		}
		var err error
		user, err = s.insertUser(tx, in, models.RoleStudent)
		if err != nil {
			return err
		}
		profile.UserID = user.ID
		profile.DepartmentID = in.DepartmentID
		if profile.Semester == 0 {
			profile.Semester = 1
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		user.ProfileID = &profile.ID
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Update("profile_id", profile.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return user, &profile, nil
}

// DeleteUser removes a user together with its profile and the records that
// reference the profile. The profile table is picked by role.
func (s *Service) DeleteUser(userID string) error {
	var user models.User
	if err := s.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		switch user.Role {
		case models.RoleHOD:
			var profile models.HOD
			if err := tx.Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
				if err := tx.Model(&models.Department{}).Where("hod_id = ?", profile.ID).Update("hod_id", nil).Error; err != nil {
					return err
				}
				if err := tx.Delete(&profile).Error; err != nil {
					return err
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		case models.RoleTeacher:
			var profile models.Teacher
			if err := tx.Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
				if err := deleteTeacherRecords(tx, profile.ID); err != nil {
					return err
				}
				if err := tx.Delete(&profile).Error; err != nil {
					return err
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		case models.RoleStudent:
			var profile models.Student
			if err := tx.Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
				if err := deleteStudentRecords(tx, profile.ID); err != nil {
					return err
				}
				if err := tx.Delete(&profile).Error; err != nil {
					return err
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		return tx.Delete(&user).Error
	})
}

// DeleteTeacherProfile deletes a teacher profile plus its owning user.
func (s *Service) DeleteTeacherProfile(profileID string) error {
	var profile models.Teacher
	if err := s.DB.Where("id = ?", profileID).First(&profile).Error; err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteTeacherRecords(tx, profile.ID); err != nil {
			return err
		}
		if err := tx.Delete(&profile).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", profile.UserID).Delete(&models.User{}).Error
	})
}

// DeleteStudentProfile deletes a student profile plus its owning user.
func (s *Service) DeleteStudentProfile(profileID string) error {
	var profile models.Student
	if err := s.DB.Where("id = ?", profileID).First(&profile).Error; err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteStudentRecords(tx, profile.ID); err != nil {
			return err
		}
		if err := tx.Delete(&profile).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", profile.UserID).Delete(&models.User{}).Error
	})
}

// DeleteDepartment refuses to remove a department while any user still
// references it.
func (s *Service) DeleteDepartment(id string) error {
	var dept models.Department
	if err := s.DB.Where("id = ?", id).First(&dept).Error; err != nil {
		return err
	}
	var count int64
	if err := s.DB.Model(&models.User{}).Where("department_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDepartmentInUse
	}
	return s.DB.Delete(&dept).Error
}

func deleteTeacherRecords(tx *gorm.DB, teacherID string) error {
	if err := tx.Where("teacher_id = ?", teacherID).Delete(&models.TeacherCourse{}).Error; err != nil {
		return err
	}
	if err := tx.Where("teacher_id = ?", teacherID).Delete(&models.ExamDuty{}).Error; err != nil {
		return err
	}
	return tx.Where("teacher_id = ?", teacherID).Delete(&models.Attendance{}).Error
}

func deleteStudentRecords(tx *gorm.DB, studentID string) error {
	if err := tx.Where("student_id = ?", studentID).Delete(&models.StudentCourse{}).Error; err != nil {
		return err
	}
	return tx.Where("student_id = ?", studentID).Delete(&models.Attendance{}).Error
}
