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

type DepartmentController struct {
	DB       *gorm.DB
	Registry *registry.Service
	Hub      *ws.ActivityHub
}

type createDepartmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
}

type updateDepartmentRequest struct {
	Name        *string `json:"name"`
	Code        *string `json:"code"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

func (dc *DepartmentController) ListDepartments(c *gin.Context) {
	var rows []recentDepartmentRow
	if err := dc.DB.Table("departments AS d").
		Select("d.id, d.name, d.code, u.first_name AS hod_first_name, u.last_name AS hod_last_name").
		Joins("LEFT JOIN hods h ON h.id = d.hod_id").
		Joins("LEFT JOIN users u ON u.id = h.user_id").
		Order("d.created_at DESC").
		Scan(&rows).Error; err != nil {
		serverError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

func (dc *DepartmentController) GetDepartment(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var dept models.Department
	if err := dc.DB.Where("id = ?", id).First(&dept).Error; err != nil {
		respondError(c, http.StatusNotFound, "Department not found")
		return
	}
	respondData(c, http.StatusOK, dept)
}

func (dc *DepartmentController) CreateDepartment(c *gin.Context) {
	var req createDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	// Name and code are independently unique.
	var count int64
	if err := dc.DB.Model(&models.Department{}).Where("code = ?", code).Count(&count).Error; err != nil {
		serverError(c, err)
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "Department with this code already exists")
		return
	}
	if err := dc.DB.Model(&models.Department{}).Where("name = ?", strings.TrimSpace(req.Name)).Count(&count).Error; err != nil {
		serverError(c, err)
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "Department with this name already exists")
		return
	}

	dept := models.Department{
		Name:        strings.TrimSpace(req.Name),
		Code:        code,
		Description: req.Description,
		Active:      true,
	}
	if err := dc.DB.Create(&dept).Error; err != nil {
		if isDuplicateKey(err) {
			respondError(c, http.StatusConflict, "Department with this name or code already exists")
			return
		}
		serverError(c, err)
		return
	}

	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(dc.DB, dc.Hub, caller.ID, "create", "department", dept.ID)
	}
	respondCreated(c, "Department created successfully", dept)
}

func (dc *DepartmentController) UpdateDepartment(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var dept models.Department
	if err := dc.DB.Where("id = ?", id).First(&dept).Error; err != nil {
		respondError(c, http.StatusNotFound, "Department not found")
		return
	}

	var req updateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Code))
		var count int64
		if err := dc.DB.Model(&models.Department{}).Where("code = ? AND id <> ?", code, dept.ID).Count(&count).Error; err != nil {
			serverError(c, err)
			return
		}
		if count > 0 {
			respondError(c, http.StatusConflict, "Department with this code already exists")
			return
		}
		dept.Code = code
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		var count int64
		if err := dc.DB.Model(&models.Department{}).Where("name = ? AND id <> ?", name, dept.ID).Count(&count).Error; err != nil {
			serverError(c, err)
			return
		}
		if count > 0 {
			respondError(c, http.StatusConflict, "Department with this name already exists")
			return
		}
		dept.Name = name
	}
	if req.Description != nil {
		dept.Description = *req.Description
	}
	if req.Active != nil {
		dept.Active = *req.Active
	}

	if err := dc.DB.Save(&dept).Error; err != nil {
		if isDuplicateKey(err) {
			respondError(c, http.StatusConflict, "Department with this name or code already exists")
			return
		}
		serverError(c, err)
		return
	}

	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(dc.DB, dc.Hub, caller.ID, "update", "department", dept.ID)
	}
	respondData(c, http.StatusOK, dept)
}

// DeleteDepartment refuses while users still reference the department.
func (dc *DepartmentController) DeleteDepartment(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := dc.Registry.DeleteDepartment(id); err != nil {
		respondRegistryError(c, err)
		return
	}
	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(dc.DB, dc.Hub, caller.ID, "delete", "department", id)
	}
	respondMessage(c, "Department deleted successfully")
}

// DepartmentStats breaks down a department's users by role.
func (dc *DepartmentController) DepartmentStats(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := dc.departmentByID(id); err != nil {
		respondError(c, http.StatusNotFound, "Department not found")
		return
	}

	type roleCount struct {
		Role  string
		Count int64
	}
	var counts []roleCount
	if err := dc.DB.Model(&models.User{}).
		Select("role, COUNT(*) AS count").
		Where("department_id = ?", id).
		Group("role").
		Scan(&counts).Error; err != nil {
		serverError(c, err)
		return
	}

	stats := gin.H{}
	for _, rc := range counts {
		stats[rc.Role] = rc.Count
	}
	respondData(c, http.StatusOK, stats)
}

func (dc *DepartmentController) departmentByID(id string) (*models.Department, error) {
	var dept models.Department
	if err := dc.DB.Where("id = ?", id).First(&dept).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}
