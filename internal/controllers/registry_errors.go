package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/registry"
)

// respondRegistryError maps registry sentinel errors onto the error taxonomy:
// natural-key and referential conflicts are 409, missing references 404,
// shape problems 400, everything else a generic 500.
func respondRegistryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrEmailTaken),
		errors.Is(err, registry.ErrEmployeeIDTaken),
		errors.Is(err, registry.ErrRollNumberTaken),
		errors.Is(err, registry.ErrStudentIDTaken),
		errors.Is(err, registry.ErrDepartmentHasHOD),
		errors.Is(err, registry.ErrDepartmentInUse):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, registry.ErrDepartmentNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, registry.ErrDepartmentRequired):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondError(c, http.StatusNotFound, "Record not found")
	default:
		serverError(c, err)
	}
}
