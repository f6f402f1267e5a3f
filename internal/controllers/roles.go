package controllers

import "github.com/clgportal/backend_v1/internal/models"

var allowedRoles = map[string]struct{}{
	models.RoleAdmin:   {},
	models.RoleHOD:     {},
	models.RoleTeacher: {},
	models.RoleStudent: {},
}

func IsValidRole(role string) bool {
	_, ok := allowedRoles[role]
	return ok
}
