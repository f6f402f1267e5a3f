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

type ExamDutyController struct {
	DB  *gorm.DB
	Hub *ws.ActivityHub
}

type createExamDutyRequest struct {
	TeacherID  string `json:"teacher_id" binding:"required"`
	ExamName   string `json:"exam_name" binding:"required"`
	Date       string `json:"date" binding:"required"`
	TimeSlot   string `json:"time_slot" binding:"required"`
	RoomNumber string `json:"room_number" binding:"required"`
	Subject    string `json:"subject" binding:"required"`
	Semester   int    `json:"semester" binding:"required"`
	Duration   int    `json:"duration" binding:"required"`
	Remarks    string `json:"remarks"`
}

// CreateExamDuty assigns an invigilation duty. The teacher must belong to
// the caller's department unless the caller is Admin.
func (ec *ExamDutyController) CreateExamDuty(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	var req createExamDutyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Duration < 30 || req.Duration > 180 {
		respondError(c, http.StatusBadRequest, "Duration must be between 30 and 180 minutes")
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

	var teacher models.Teacher
	if err := ec.DB.Where("id = ?", req.TeacherID).First(&teacher).Error; err != nil {
		respondError(c, http.StatusNotFound, "Teacher not found")
		return
	}
	if !middleware.SameDepartment(caller, teacher.DepartmentID) {
		respondError(c, http.StatusForbidden, "Access denied. Department mismatch.")
		return
	}

	assignedBy := caller.ID
	duty := models.ExamDuty{
		TeacherID:    teacher.ID,
		ExamName:     strings.TrimSpace(req.ExamName),
		Date:         date,
		TimeSlot:     req.TimeSlot,
		RoomNumber:   req.RoomNumber,
		Subject:      req.Subject,
		DepartmentID: teacher.DepartmentID,
		Semester:     req.Semester,
		Duration:     req.Duration,
		Status:       models.DutyScheduled,
		AssignedByID: &assignedBy,
		Remarks:      req.Remarks,
	}
	if err := ec.DB.Create(&duty).Error; err != nil {
		serverError(c, err)
		return
	}

	recordActivity(ec.DB, ec.Hub, caller.ID, "assign", "exam_duty", duty.ID)
	respondCreated(c, "Exam duty assigned successfully", duty)
}

type updateDutyStatusRequest struct {
	Status  string  `json:"status" binding:"required"`
	Remarks *string `json:"remarks"`
}

// UpdateDutyStatus advances a duty through its lifecycle. Illegal
// transitions are conflicts, not validation errors; the record exists but
// refuses the change.
func (ec *ExamDutyController) UpdateDutyStatus(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)
	id := strings.TrimSpace(c.Param("id"))

	var duty models.ExamDuty
	if err := ec.DB.Where("id = ?", id).First(&duty).Error; err != nil {
		respondError(c, http.StatusNotFound, "Exam duty not found")
		return
	}
	if !middleware.SameDepartment(caller, duty.DepartmentID) {
		respondError(c, http.StatusForbidden, "Access denied. Department mismatch.")
		return
	}

	var req updateDutyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !models.CanTransitionDuty(duty.Status, req.Status) {
		respondError(c, http.StatusConflict, "Cannot change duty status from "+duty.Status+" to "+req.Status)
		return
	}

	duty.Status = req.Status
	if req.Remarks != nil {
		duty.Remarks = *req.Remarks
	}
	if err := ec.DB.Save(&duty).Error; err != nil {
		serverError(c, err)
		return
	}

	recordActivity(ec.DB, ec.Hub, caller.ID, "update", "exam_duty", duty.ID)
	respondData(c, http.StatusOK, duty)
}

// ListExamDuties scopes results by role: teachers see their own duties,
// HODs see their department, Admin sees all.
func (ec *ExamDutyController) ListExamDuties(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	query := ec.DB.Model(&models.ExamDuty{}).Order("date, time_slot")

	switch caller.Role {
	case models.RoleTeacher:
		var profile models.Teacher
		if err := findProfile(ec.DB, caller, &profile); err != nil {
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

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}

	var duties []models.ExamDuty
	if err := query.Find(&duties).Error; err != nil {
		serverError(c, err)
		return
	}
	respondData(c, http.StatusOK, duties)
}

// GetExamDuty returns one duty, department scoped.
func (ec *ExamDutyController) GetExamDuty(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)
	id := strings.TrimSpace(c.Param("id"))

	var duty models.ExamDuty
	if err := ec.DB.Where("id = ?", id).First(&duty).Error; err != nil {
		respondError(c, http.StatusNotFound, "Exam duty not found")
		return
	}
	if !middleware.SameDepartment(caller, duty.DepartmentID) {
		respondError(c, http.StatusForbidden, "Access denied. Department mismatch.")
		return
	}
	respondData(c, http.StatusOK, duty)
}
