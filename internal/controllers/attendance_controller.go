package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/middleware"
	"github.com/clgportal/backend_v1/internal/models"
	"github.com/clgportal/backend_v1/internal/ws"
)

type AttendanceController struct {
	DB  *gorm.DB
	Hub *ws.ActivityHub
}

type createAttendanceRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	CourseID  string `json:"course_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Status    string `json:"status" binding:"required"`
	TeacherID string `json:"teacher_id"`
	Semester  int    `json:"semester" binding:"required"`
	Remarks   string `json:"remarks"`
}

// CreateAttendance marks one student for one course on one date. Teachers
// mark under their own profile; HODs and Admins name the teacher explicitly.
// A second mark for the same (student, course, date) is a conflict.
func (ac *AttendanceController) CreateAttendance(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	var req createAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !models.IsValidAttendanceStatus(req.Status) {
		respondError(c, http.StatusBadRequest, "Status must be Present, Absent or Late")
		return
	}
	if req.Semester < 1 || req.Semester > 8 {
		respondError(c, http.StatusBadRequest, "Semester must be between 1 and 8")
		return
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Date must be in YYYY-MM-DD format")
		return
	}

	teacherID := strings.TrimSpace(req.TeacherID)
	if caller.Role == models.RoleTeacher {
		var profile models.Teacher
		if err := findProfile(ac.DB, caller, &profile); err != nil {
			respondError(c, http.StatusNotFound, "Teacher profile not found")
			return
		}
		teacherID = profile.ID
	} else if teacherID == "" {
		respondError(c, http.StatusBadRequest, "teacher_id is required")
		return
	}

	var teacher models.Teacher
	if err := ac.DB.Where("id = ?", teacherID).First(&teacher).Error; err != nil {
		respondError(c, http.StatusNotFound, "Teacher not found")
		return
	}

	var student models.Student
	if err := ac.DB.Where("id = ?", req.StudentID).First(&student).Error; err != nil {
		respondError(c, http.StatusNotFound, "Student not found")
		return
	}
	if !middleware.SameDepartment(caller, student.DepartmentID) {
		respondError(c, http.StatusForbidden, "Access denied. Department mismatch.")
		return
	}

	var course models.Course
	if err := ac.DB.Where("id = ?", req.CourseID).First(&course).Error; err != nil {
		respondError(c, http.StatusNotFound, "Course not found")
		return
	}

	var count int64
	if err := ac.DB.Model(&models.Attendance{}).
		Where("student_id = ? AND course_id = ? AND date = ?", student.ID, course.ID, date).
		Count(&count).Error; err != nil {
		serverError(c, err)
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "Attendance already marked for this student on this date")
		return
	}

	record := models.Attendance{
		StudentID:    student.ID,
		CourseID:     course.ID,
		Date:         date,
		Status:       req.Status,
		TeacherID:    teacher.ID,
		DepartmentID: student.DepartmentID,
		Semester:     req.Semester,
		Remarks:      req.Remarks,
		MarkedAt:     time.Now().UTC(),
	}
	if err := ac.DB.Create(&record).Error; err != nil {
		if isDuplicateKey(err) {
			respondError(c, http.StatusConflict, "Attendance already marked for this student on this date")
			return
		}
		serverError(c, err)
		return
	}

	recordActivity(ac.DB, ac.Hub, caller.ID, "mark", "attendance", record.ID)
	respondCreated(c, "Attendance marked successfully", record)
}

type updateAttendanceRequest struct {
	Status  *string `json:"status"`
	Remarks *string `json:"remarks"`
}

// UpdateAttendance corrects an existing mark. Only status and remarks may
// change; the (student, course, date) identity is immutable.
func (ac *AttendanceController) UpdateAttendance(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)
	id := strings.TrimSpace(c.Param("id"))

	var record models.Attendance
	if err := ac.DB.Where("id = ?", id).First(&record).Error; err != nil {
		respondError(c, http.StatusNotFound, "Attendance record not found")
		return
	}
	if !middleware.SameDepartment(caller, record.DepartmentID) {
		respondError(c, http.StatusForbidden, "Access denied. Department mismatch.")
		return
	}

	var req updateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Status != nil {
		if !models.IsValidAttendanceStatus(*req.Status) {
			respondError(c, http.StatusBadRequest, "Status must be Present, Absent or Late")
			return
		}
		record.Status = *req.Status
	}
	if req.Remarks != nil {
		record.Remarks = *req.Remarks
	}

	if err := ac.DB.Save(&record).Error; err != nil {
		serverError(c, err)
		return
	}

	recordActivity(ac.DB, ac.Hub, caller.ID, "update", "attendance", record.ID)
	respondData(c, http.StatusOK, record)
}

// ListAttendance scopes results by role: students see their own marks,
// teachers see marks they made, HODs see their department, Admin sees all.
// Optional filters: course_id, date.
func (ac *AttendanceController) ListAttendance(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	query := ac.DB.Model(&models.Attendance{}).Order("date DESC, created_at DESC")

	switch caller.Role {
	case models.RoleStudent:
		var profile models.Student
		if err := findProfile(ac.DB, caller, &profile); err != nil {
			respondError(c, http.StatusNotFound, "Student profile not found")
			return
		}
		query = query.Where("student_id = ?", profile.ID)
	case models.RoleTeacher:
		var profile models.Teacher
		if err := findProfile(ac.DB, caller, &profile); err != nil {
			respondError(c, http.StatusNotFound, "Teacher profile not found")
			return
		}
		query = query.Where("teacher_id = ?", profile.ID)
	case models.RoleHOD:
		if caller.DepartmentID == nil {
			respondError(c, http.StatusForbidden, "No department associated with this account")
			return
		}
		query = query.Where("department_id = ?", *caller.DepartmentID)
	}

	if courseID := strings.TrimSpace(c.Query("course_id")); courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}
	if dateStr := strings.TrimSpace(c.Query("date")); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Date must be in YYYY-MM-DD format")
			return
		}
		query = query.Where("date = ?", date)
	}

	var records []models.Attendance
	if err := query.Limit(200).Find(&records).Error; err != nil {
		serverError(c, err)
		return
	}
	respondData(c, http.StatusOK, records)
}
