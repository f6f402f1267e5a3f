package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/middleware"
	"github.com/clgportal/backend_v1/internal/models"
	"github.com/clgportal/backend_v1/internal/registry"
	"github.com/clgportal/backend_v1/internal/utils"
	"github.com/clgportal/backend_v1/internal/ws"
)

type UserController struct {
	DB       *gorm.DB
	Registry *registry.Service
	Hub      *ws.ActivityHub
}

func (u *UserController) ListUsers(c *gin.Context) {
	// Query params: limit, page, sort_by, sort_dir, q, role, active
	limit := 50
	page := 1
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	sortBy := strings.ToLower(c.DefaultQuery("sort_by", "created_at"))
	sortDir := strings.ToUpper(c.DefaultQuery("sort_dir", "DESC"))
	if sortDir != "ASC" && sortDir != "DESC" {
		sortDir = "DESC"
	}
	allowedSorts := map[string]string{
		"created_at": "created_at",
		"email":      "email",
		"first_name": "first_name",
		"last_name":  "last_name",
		"role":       "role",
		"active":     "active",
	}
	sortCol, ok := allowedSorts[sortBy]
	if !ok {
		sortCol = "created_at"
	}
	order := fmt.Sprintf("%s %s", sortCol, sortDir)

	base := u.DB.Model(&models.User{})
	if qText := strings.TrimSpace(c.Query("q")); qText != "" {
		like := "%" + strings.ToLower(qText) + "%"
		base = base.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	if role := strings.TrimSpace(c.Query("role")); role != "" {
		if !IsValidRole(role) {
			respondError(c, http.StatusBadRequest, "Invalid role")
			return
		}
		base = base.Where("role = ?", role)
	}
	if activeStr := strings.TrimSpace(strings.ToLower(c.Query("active"))); activeStr != "" {
		switch activeStr {
		case "true", "1":
			base = base.Where("active = ?", true)
		case "false", "0":
			base = base.Where("active = ?", false)
		default:
			respondError(c, http.StatusBadRequest, "Invalid active value")
			return
		}
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		serverError(c, err)
		return
	}

	var users []models.User
	if err := base.Order(order).Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		serverError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"users": users,
		"meta":  gin.H{"total": total, "limit": limit, "page": page, "sort_by": sortCol, "sort_dir": sortDir},
	})
}

func (u *UserController) GetUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var user models.User
	if err := u.DB.Where("id = ?", id).First(&user).Error; err != nil {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}
	resolved, err := resolveProfile(u.DB, user)
	if err != nil && !errors.Is(err, ErrProfileMissing) {
		serverError(c, err)
		return
	}
	respondData(c, http.StatusOK, resolved)
}

type updateUserRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password"`
	Active    *bool   `json:"active"`
}

// UpdateUser is a partial identity update. Role changes are rejected because
// the profile record's type is bound to the role.
func (u *UserController) UpdateUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var user models.User
	if err := u.DB.Where("id = ?", id).First(&user).Error; err != nil {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		var count int64
		if err := u.DB.Model(&models.User{}).Where("LOWER(email) = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
			serverError(c, err)
			return
		}
		if count > 0 {
			respondError(c, http.StatusConflict, "A user with this email already exists")
			return
		}
		user.Email = email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.Password != nil && strings.TrimSpace(*req.Password) != "" {
		hashed, err := utils.HashPassword(strings.TrimSpace(*req.Password))
		if err != nil {
			serverError(c, err)
			return
		}
		user.Password = hashed
	}

	if err := u.DB.Save(&user).Error; err != nil {
		if isDuplicateKey(err) {
			respondError(c, http.StatusConflict, "A user with this email already exists")
			return
		}
		serverError(c, err)
		return
	}

	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(u.DB, u.Hub, caller.ID, "update", "user", user.ID)
	}
	respondData(c, http.StatusOK, user)
}

// DeleteUser cascades to the role profile so no orphan remains.
func (u *UserController) DeleteUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := u.Registry.DeleteUser(id); err != nil {
		respondRegistryError(c, err)
		return
	}
	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(u.DB, u.Hub, caller.ID, "delete", "user", id)
	}
	respondMessage(c, "User deleted successfully")
}
