package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/middleware"
	"github.com/clgportal/backend_v1/internal/models"
	"github.com/clgportal/backend_v1/internal/registry"
	"github.com/clgportal/backend_v1/internal/ws"
)

type StudentController struct {
	DB       *gorm.DB
	Registry *registry.Service
	Hub      *ws.ActivityHub
}

type studentRow struct {
	ID             string `json:"id"`
	RollNumber     string `json:"roll_number"`
	StudentID      string `json:"student_id"`
	Semester       int    `json:"semester"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Active         bool   `json:"active"`
	DepartmentName string `json:"department_name,omitempty"`
	DepartmentCode string `json:"department_code,omitempty"`
}

func (sc *StudentController) ListStudents(c *gin.Context) {
	query := sc.DB.Table("students AS s").
		Select("s.id, s.roll_number, s.student_id, s.semester, u.first_name, u.last_name, u.email, u.active, d.name AS department_name, d.code AS department_code").
		Joins("JOIN users u ON u.id = s.user_id").
		Joins("LEFT JOIN departments d ON d.id = s.department_id").
		Order("s.created_at DESC")
	if deptID := strings.TrimSpace(c.Query("department_id")); deptID != "" {
		query = query.Where("s.department_id = ?", deptID)
	}

	var rows []studentRow
	if err := query.Scan(&rows).Error; err != nil {
		serverError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

func (sc *StudentController) GetStudent(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var row studentRow
	res := sc.DB.Table("students AS s").
		Select("s.id, s.roll_number, s.student_id, s.semester, u.first_name, u.last_name, u.email, u.active, d.name AS department_name, d.code AS department_code").
		Joins("JOIN users u ON u.id = s.user_id").
		Joins("LEFT JOIN departments d ON d.id = s.department_id").
		Where("s.id = ?", id).
		Scan(&row)
	if res.Error != nil {
		serverError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "Student not found")
		return
	}
	respondData(c, http.StatusOK, row)
}

type createStudentRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	FirstName     string `json:"first_name" binding:"required,min=2"`
	LastName      string `json:"last_name" binding:"required,min=2"`
	DepartmentID  string `json:"department_id" binding:"required"`
	RollNumber    string `json:"roll_number" binding:"required"`
	StudentID     string `json:"student_id" binding:"required"`
	PhoneNumber   string `json:"phone_number"`
	Semester      int    `json:"semester"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
}

func (sc *StudentController) CreateStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Semester < 0 || req.Semester > 8 {
		respondError(c, http.StatusBadRequest, "Semester must be between 1 and 8")
		return
	}

	user, profile, err := sc.Registry.CreateStudent(registry.NewUser{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DepartmentID: req.DepartmentID,
	}, models.Student{
		RollNumber:    req.RollNumber,
		StudentID:     req.StudentID,
		PhoneNumber:   req.PhoneNumber,
		Semester:      req.Semester,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
	})
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(sc.DB, sc.Hub, caller.ID, "create", "student", profile.ID)
	}
	respondCreated(c, "Student created successfully", gin.H{"user": user, "student": profile})
}

type updateStudentRequest struct {
	Email         *string `json:"email"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	PhoneNumber   *string `json:"phone_number"`
	Semester      *int    `json:"semester"`
	GuardianName  *string `json:"guardian_name"`
	GuardianPhone *string `json:"guardian_phone"`
}

// UpdateStudent patches the profile and propagates identity fields to the
// linked user row.
func (sc *StudentController) UpdateStudent(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var profile models.Student
	if err := sc.DB.Where("id = ?", id).First(&profile).Error; err != nil {
		respondError(c, http.StatusNotFound, "Student not found")
		return
	}

	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.Semester != nil {
		if *req.Semester < 1 || *req.Semester > 8 {
			respondError(c, http.StatusBadRequest, "Semester must be between 1 and 8")
			return
		}
		profile.Semester = *req.Semester
	}
	if req.PhoneNumber != nil {
		profile.PhoneNumber = *req.PhoneNumber
	}
	if req.GuardianName != nil {
		profile.GuardianName = *req.GuardianName
	}
	if req.GuardianPhone != nil {
		profile.GuardianPhone = *req.GuardianPhone
	}

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
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
		recordActivity(sc.DB, sc.Hub, caller.ID, "update", "student", profile.ID)
	}
	respondData(c, http.StatusOK, profile)
}

// DeleteStudent removes the profile and its owning user together.
func (sc *StudentController) DeleteStudent(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := sc.Registry.DeleteStudentProfile(id); err != nil {
		respondRegistryError(c, err)
		return
	}
	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(sc.DB, sc.Hub, caller.ID, "delete", "student", id)
	}
	respondMessage(c, "Student deleted successfully")
}

// StudentStats counts students in one department, broken down by semester.
func (sc *StudentController) StudentStats(c *gin.Context) {
	deptID := strings.TrimSpace(c.Param("departmentId"))
	var total int64
	if err := sc.DB.Model(&models.Student{}).Where("department_id = ?", deptID).Count(&total).Error; err != nil {
		serverError(c, err)
		return
	}

	type semesterCount struct {
		Semester int
		Count    int64
	}
	var bySemester []semesterCount
	if err := sc.DB.Model(&models.Student{}).
		Select("semester, COUNT(*) AS count").
		Where("department_id = ?", deptID).
		Group("semester").
		Order("semester").
		Scan(&bySemester).Error; err != nil {
		serverError(c, err)
		return
	}

	semesters := gin.H{}
	for _, s := range bySemester {
		semesters[strconv.Itoa(s.Semester)] = s.Count
	}
	respondData(c, http.StatusOK, gin.H{
		"total_students_in_department": total,
		"by_semester":                  semesters,
	})
}
