package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/middleware"
	"github.com/clgportal/backend_v1/internal/models"
	"github.com/clgportal/backend_v1/internal/registry"
	"github.com/clgportal/backend_v1/internal/ws"
)

type TeacherController struct {
	DB       *gorm.DB
	Registry *registry.Service
	Hub      *ws.ActivityHub
}

type teacherRow struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Active         bool   `json:"active"`
	Qualification  string `json:"qualification,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	DepartmentName string `json:"department_name,omitempty"`
	DepartmentCode string `json:"department_code,omitempty"`
}

func (tc *TeacherController) ListTeachers(c *gin.Context) {
	var rows []teacherRow
	if err := tc.DB.Table("teachers AS t").
		Select("t.id, t.employee_id, t.qualification, t.specialization, u.first_name, u.last_name, u.email, u.active, d.name AS department_name, d.code AS department_code").
		Joins("JOIN users u ON u.id = t.user_id").
		Joins("LEFT JOIN departments d ON d.id = t.department_id").
		Order("t.created_at DESC").
		Scan(&rows).Error; err != nil {
		serverError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

func (tc *TeacherController) GetTeacher(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var row teacherRow
	res := tc.DB.Table("teachers AS t").
		Select("t.id, t.employee_id, t.qualification, t.specialization, u.first_name, u.last_name, u.email, u.active, d.name AS department_name, d.code AS department_code").
		Joins("JOIN users u ON u.id = t.user_id").
		Joins("LEFT JOIN departments d ON d.id = t.department_id").
		Where("t.id = ?", id).
		Scan(&row)
	if res.Error != nil {
		serverError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "Teacher not found")
		return
	}
	respondData(c, http.StatusOK, row)
}

type createTeacherRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
	FirstName      string `json:"first_name" binding:"required,min=2"`
	LastName       string `json:"last_name" binding:"required,min=2"`
	DepartmentID   string `json:"department_id" binding:"required"`
	EmployeeID     string `json:"employee_id" binding:"required"`
	PhoneNumber    string `json:"phone_number"`
	Qualification  string `json:"qualification"`
	Specialization string `json:"specialization"`
	Experience     int    `json:"experience"`
}

func (tc *TeacherController) CreateTeacher(c *gin.Context) {
	var req createTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, profile, err := tc.Registry.CreateTeacher(registry.NewUser{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DepartmentID: req.DepartmentID,
	}, models.Teacher{
		EmployeeID:     req.EmployeeID,
		PhoneNumber:    req.PhoneNumber,
		Qualification:  req.Qualification,
		Specialization: req.Specialization,
		Experience:     req.Experience,
	})
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(tc.DB, tc.Hub, caller.ID, "create", "teacher", profile.ID)
	}
	respondCreated(c, "Teacher created successfully", gin.H{"user": user, "teacher": profile})
}

type updateTeacherRequest struct {
	Email          *string `json:"email"`
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	PhoneNumber    *string `json:"phone_number"`
	Qualification  *string `json:"qualification"`
	Specialization *string `json:"specialization"`
	Experience     *int    `json:"experience"`
}

// UpdateTeacher patches the profile and propagates identity fields to the
// linked user row.
func (tc *TeacherController) UpdateTeacher(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var profile models.Teacher
	if err := tc.DB.Where("id = ?", id).First(&profile).Error; err != nil {
		respondError(c, http.StatusNotFound, "Teacher not found")
		return
	}

	var req updateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.PhoneNumber != nil {
		profile.PhoneNumber = *req.PhoneNumber
	}
	if req.Qualification != nil {
		profile.Qualification = *req.Qualification
	}
	if req.Specialization != nil {
		profile.Specialization = *req.Specialization
	}
	if req.Experience != nil {
		profile.Experience = *req.Experience
	}

	err := tc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&profile).Error; err != nil {
			return err
		}
		userUpdates := map[string]interface{}{}
		if req.Email != nil {
			userUpdates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
		}
		if req.FirstName != nil {
			userUpdates["first_name"] = *req.FirstName
		}
		if req.LastName != nil {
			userUpdates["last_name"] = *req.LastName
		}
		if len(userUpdates) > 0 {
			return tx.Model(&models.User{}).Where("id = ?", profile.UserID).Updates(userUpdates).Error
		}
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			respondError(c, http.StatusConflict, "A user with this email already exists")
			return
		}
		serverError(c, err)
		return
	}

	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(tc.DB, tc.Hub, caller.ID, "update", "teacher", profile.ID)
	}
	respondData(c, http.StatusOK, profile)
}

// DeleteTeacher removes the profile and its owning user together.
func (tc *TeacherController) DeleteTeacher(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := tc.Registry.DeleteTeacherProfile(id); err != nil {
		respondRegistryError(c, err)
		return
	}
	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(tc.DB, tc.Hub, caller.ID, "delete", "teacher", id)
	}
	respondMessage(c, "Teacher deleted successfully")
}

// TeacherStats counts teachers in one department.
func (tc *TeacherController) TeacherStats(c *gin.Context) {
	deptID := strings.TrimSpace(c.Param("departmentId"))
	var count int64
	if err := tc.DB.Model(&models.Teacher{}).Where("department_id = ?", deptID).Count(&count).Error; err != nil {
		serverError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"total_teachers_in_department": count})
}
