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

type CourseController struct {
	DB       *gorm.DB
	Registry *registry.Service
	Hub      *ws.ActivityHub
}

func (cc *CourseController) ListCourses(c *gin.Context) {
	var courses []models.Course
	if err := cc.DB.Order("code").Find(&courses).Error; err != nil {
		serverError(c, err)
		return
	}
	respondData(c, http.StatusOK, courses)
}

func (cc *CourseController) GetCourse(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var course models.Course
	if err := cc.DB.Where("id = ?", id).First(&course).Error; err != nil {
		respondError(c, http.StatusNotFound, "Course not found")
		return
	}
	respondData(c, http.StatusOK, course)
}

type createCourseRequest struct {
	Name    string `json:"name" binding:"required"`
	Code    string `json:"code" binding:"required"`
	Credits int    `json:"credits" binding:"required,min=1,max=10"`
}

func (cc *CourseController) CreateCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	var count int64
	if err := cc.DB.Model(&models.Course{}).Where("code = ?", code).Count(&count).Error; err != nil {
		serverError(c, err)
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "Course with this code already exists")
		return
	}

	course := models.Course{
		Name:    strings.TrimSpace(req.Name),
		Code:    code,
		Credits: req.Credits,
	}
	if err := cc.DB.Create(&course).Error; err != nil {
		if isDuplicateKey(err) {
			respondError(c, http.StatusConflict, "Course with this code already exists")
			return
		}
		serverError(c, err)
		return
	}

	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(cc.DB, cc.Hub, caller.ID, "create", "course", course.ID)
	}
	respondCreated(c, "Course created successfully", course)
}

type updateCourseRequest struct {
	Name    *string `json:"name"`
	Code    *string `json:"code"`
	Credits *int    `json:"credits"`
}

func (cc *CourseController) UpdateCourse(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var course models.Course
	if err := cc.DB.Where("id = ?", id).First(&course).Error; err != nil {
		respondError(c, http.StatusNotFound, "Course not found")
		return
	}

	var req updateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Code))
		var count int64
		if err := cc.DB.Model(&models.Course{}).Where("code = ? AND id <> ?", code, course.ID).Count(&count).Error; err != nil {
			serverError(c, err)
			return
		}
		if count > 0 {
			respondError(c, http.StatusConflict, "Course with this code already exists")
			return
		}
		course.Code = code
	}
	if req.Name != nil {
		course.Name = strings.TrimSpace(*req.Name)
	}
	if req.Credits != nil {
		if *req.Credits < 1 || *req.Credits > 10 {
			respondError(c, http.StatusBadRequest, "Credits must be between 1 and 10")
			return
		}
		course.Credits = *req.Credits
	}

	if err := cc.DB.Save(&course).Error; err != nil {
		if isDuplicateKey(err) {
			respondError(c, http.StatusConflict, "Course with this code already exists")
			return
		}
		serverError(c, err)
		return
	}

	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(cc.DB, cc.Hub, caller.ID, "update", "course", course.ID)
	}
	respondData(c, http.StatusOK, course)
}

// DeleteCourse removes the course along with its assignments, enrollments
// and attendance history.
func (cc *CourseController) DeleteCourse(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var course models.Course
	if err := cc.DB.Where("id = ?", id).First(&course).Error; err != nil {
		respondError(c, http.StatusNotFound, "Course not found")
		return
	}

	err := cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.TeacherCourse{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.StudentCourse{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}
		return tx.Delete(&course).Error
	})
	if err != nil {
		serverError(c, err)
		return
	}

	if caller, ok := middleware.CurrentUser(c); ok {
		recordActivity(cc.DB, cc.Hub, caller.ID, "delete", "course", course.ID)
	}
	respondMessage(c, "Course deleted successfully")
}

type assignTeacherRequest struct {
	TeacherID    string `json:"teacher_id" binding:"required"`
	AcademicYear int    `json:"academic_year" binding:"required"`
	Term         string `json:"term" binding:"required"`
}

// AssignTeacher puts a teacher on a course for one academic year + term.
// HODs may only assign teachers from their own department.
func (cc *CourseController) AssignTeacher(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)
	courseID := strings.TrimSpace(c.Param("id"))

	var course models.Course
	if err := cc.DB.Where("id = ?", courseID).First(&course).Error; err != nil {
		respondError(c, http.StatusNotFound, "Course not found")
		return
	}

	var req assignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !models.IsValidTerm(req.Term) {
		respondError(c, http.StatusBadRequest, "Term must be Fall, Spring or Summer")
		return
	}

	var teacher models.Teacher
	if err := cc.DB.Where("id = ?", req.TeacherID).First(&teacher).Error; err != nil {
		respondError(c, http.StatusNotFound, "Teacher not found")
		return
	}
	if !middleware.SameDepartment(caller, teacher.DepartmentID) {
		respondError(c, http.StatusForbidden, "Access denied. Department mismatch.")
		return
	}

	var count int64
	if err := cc.DB.Model(&models.TeacherCourse{}).
		Where("teacher_id = ? AND course_id = ? AND academic_year = ? AND term = ?", teacher.ID, course.ID, req.AcademicYear, req.Term).
		Count(&count).Error; err != nil {
		serverError(c, err)
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "Teacher is already assigned to this course for this term")
		return
	}

	assignment := models.TeacherCourse{
		TeacherID:    teacher.ID,
		CourseID:     course.ID,
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
	}
	if err := cc.DB.Create(&assignment).Error; err != nil {
		if isDuplicateKey(err) {
			respondError(c, http.StatusConflict, "Teacher is already assigned to this course for this term")
			return
		}
		serverError(c, err)
		return
	}

	recordActivity(cc.DB, cc.Hub, caller.ID, "assign", "teacher_course", assignment.ID)
	respondCreated(c, "Teacher assigned successfully", assignment)
}

type enrollStudentRequest struct {
	StudentID    string `json:"student_id" binding:"required"`
	AcademicYear int    `json:"academic_year" binding:"required"`
	Term         string `json:"term" binding:"required"`
}

// EnrollStudent adds a student to a course for one academic year + term.
// Non-admin callers are limited to students of their own department.
func (cc *CourseController) EnrollStudent(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)
	courseID := strings.TrimSpace(c.Param("id"))

	var course models.Course
	if err := cc.DB.Where("id = ?", courseID).First(&course).Error; err != nil {
		respondError(c, http.StatusNotFound, "Course not found")
		return
	}

	var req enrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !models.IsValidTerm(req.Term) {
		respondError(c, http.StatusBadRequest, "Term must be Fall, Spring or Summer")
		return
	}

	var student models.Student
	if err := cc.DB.Where("id = ?", req.StudentID).First(&student).Error; err != nil {
		respondError(c, http.StatusNotFound, "Student not found")
		return
	}
	if !middleware.SameDepartment(caller, student.DepartmentID) {
		respondError(c, http.StatusForbidden, "Access denied. Department mismatch.")
		return
	}

	var count int64
	if err := cc.DB.Model(&models.StudentCourse{}).
		Where("student_id = ? AND course_id = ? AND academic_year = ? AND term = ?", student.ID, course.ID, req.AcademicYear, req.Term).
		Count(&count).Error; err != nil {
		serverError(c, err)
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "Student is already enrolled in this course for this term")
		return
	}

	enrollment := models.StudentCourse{
		StudentID:    student.ID,
		CourseID:     course.ID,
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
	}
	if err := cc.DB.Create(&enrollment).Error; err != nil {
		if isDuplicateKey(err) {
			respondError(c, http.StatusConflict, "Student is already enrolled in this course for this term")
			return
		}
		serverError(c, err)
		return
	}

	recordActivity(cc.DB, cc.Hub, caller.ID, "enroll", "student_course", enrollment.ID)
	respondCreated(c, "Student enrolled successfully", enrollment)
}
