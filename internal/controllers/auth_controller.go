package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/middleware"
	"github.com/clgportal/backend_v1/internal/models"
	"github.com/clgportal/backend_v1/internal/registry"
	"github.com/clgportal/backend_v1/internal/utils"
	"github.com/clgportal/backend_v1/internal/ws"
)

type AuthController struct {
	DB        *gorm.DB
	Registry  *registry.Service
	Hub       *ws.ActivityHub
	JWTSecret string
	ExpiresIn time.Duration
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (a *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var user models.User
	if err := a.DB.Where("LOWER(email) = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.Active || !utils.CheckPassword(user.Password, req.Password) {
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := middleware.IssueToken(&user, a.JWTSecret, a.ExpiresIn)
	if err != nil {
		serverError(c, err)
		return
	}

	now := time.Now().UTC()
	if err := a.DB.Model(&user).Update("last_login", &now).Error; err != nil {
		serverError(c, err)
		return
	}
	user.LastLogin = &now

	respondData(c, http.StatusOK, gin.H{
		"user":       user,
		"token":      token,
		"expires_in": int(a.ExpiresIn.Seconds()),
	})
}

type registerRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	FirstName    string `json:"first_name" binding:"required,min=2"`
	LastName     string `json:"last_name" binding:"required,min=2"`
	Role         string `json:"role" binding:"required"`
	DepartmentID string `json:"department_id"`

	// Profile fields; which ones apply depends on role.
	EmployeeID     string `json:"employee_id"`
	RollNumber     string `json:"roll_number"`
	StudentID      string `json:"student_id"`
	PhoneNumber    string `json:"phone_number"`
	OfficeLocation string `json:"office_location"`
	Qualification  string `json:"qualification"`
	Specialization string `json:"specialization"`
	Experience     int    `json:"experience"`
	Semester       int    `json:"semester"`
	GuardianName   string `json:"guardian_name"`
	GuardianPhone  string `json:"guardian_phone"`
}

// Register is the admin-only user+profile creation entry point. The two-row
// create runs through the registry so a profile failure never leaves an
// orphaned user.
func (a *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !IsValidRole(req.Role) {
		respondError(c, http.StatusBadRequest, "Invalid role")
		return
	}

	in := registry.NewUser{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DepartmentID: strings.TrimSpace(req.DepartmentID),
	}

	var (
		user *models.User
		err  error
	)
	switch req.Role {
	case models.RoleAdmin:
		user, err = a.Registry.CreateAdmin(in)
	case models.RoleHOD:
		if req.EmployeeID == "" {
			respondError(c, http.StatusBadRequest, "employee_id is required for HOD")
			return
		}
		user, _, err = a.Registry.CreateHOD(in, models.HOD{
			EmployeeID:     req.EmployeeID,
			PhoneNumber:    req.PhoneNumber,
			OfficeLocation: req.OfficeLocation,
			Qualification:  req.Qualification,
			Experience:     req.Experience,
		})
	case models.RoleTeacher:
		if req.EmployeeID == "" {
			respondError(c, http.StatusBadRequest, "employee_id is required for Teacher")
			return
		}
		user, _, err = a.Registry.CreateTeacher(in, models.Teacher{
			EmployeeID:     req.EmployeeID,
			PhoneNumber:    req.PhoneNumber,
			Qualification:  req.Qualification,
			Specialization: req.Specialization,
			Experience:     req.Experience,
		})
	case models.RoleStudent:
		if req.RollNumber == "" || req.StudentID == "" {
			respondError(c, http.StatusBadRequest, "roll_number and student_id are required for Student")
			return
		}
		if req.Semester < 0 || req.Semester > 8 {
			respondError(c, http.StatusBadRequest, "semester must be between 1 and 8")
			return
		}
		user, _, err = a.Registry.CreateStudent(in, models.Student{
			RollNumber:    req.RollNumber,
			StudentID:     req.StudentID,
			PhoneNumber:   req.PhoneNumber,
			Semester:      req.Semester,
			GuardianName:  req.GuardianName,
			GuardianPhone: req.GuardianPhone,
		})
	}
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(a.DB, a.Hub, caller.ID, "create", "user", user.ID)
	}
	respondCreated(c, "User created successfully", user)
}

// GetProfile returns the caller's identity plus resolved role profile.
func (a *AuthController) GetProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	resolved, err := resolveProfile(a.DB, user)
	if err != nil {
		serverError(c, err)
		return
	}
	respondData(c, http.StatusOK, resolved)
}

type updateProfileRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	PhoneNumber     *string `json:"phone_number"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
}

// UpdateProfile lets an authenticated user change their own name, phone and
// password. Password changes require the current password and are re-hashed.
func (a *AuthController) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.NewPassword != "" {
		if len(req.NewPassword) < 6 {
			respondError(c, http.StatusBadRequest, "Password must be at least 6 characters long")
			return
		}
		if !utils.CheckPassword(user.Password, req.CurrentPassword) {
			respondError(c, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		hashed, err := utils.HashPassword(req.NewPassword)
		if err != nil {
			serverError(c, err)
			return
		}
		user.Password = hashed
	}
	if err := a.DB.Save(&user).Error; err != nil {
		serverError(c, err)
		return
	}

	if req.PhoneNumber != nil {
		if err := a.updateProfilePhone(user, *req.PhoneNumber); err != nil {
			serverError(c, err)
			return
		}
	}

	respondData(c, http.StatusOK, user)
}

func (a *AuthController) updateProfilePhone(user models.User, phone string) error {
	switch user.Role {
	case models.RoleHOD:
		return a.DB.Model(&models.HOD{}).Where("user_id = ?", user.ID).Update("phone_number", phone).Error
	case models.RoleTeacher:
		return a.DB.Model(&models.Teacher{}).Where("user_id = ?", user.ID).Update("phone_number", phone).Error
	case models.RoleStudent:
		return a.DB.Model(&models.Student{}).Where("user_id = ?", user.ID).Update("phone_number", phone).Error
	}
	return nil
}
