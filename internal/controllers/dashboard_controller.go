package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/cache"
	"github.com/clgportal/backend_v1/internal/middleware"
	"github.com/clgportal/backend_v1/internal/models"
)

type DashboardController struct {
	DB    *gorm.DB
	Cache *cache.Dashboard
}

// respondCached serves a dashboard payload through the redis cache when one
// is configured. Build failures abort the whole payload; partial dashboards
// are never returned.
func (d *DashboardController) respondCached(c *gin.Context, key string, build func() (gin.H, error)) {
	ctx := c.Request.Context()
	if data, ok := d.Cache.Get(ctx, key); ok {
		respondData(c, http.StatusOK, json.RawMessage(data))
		return
	}
	payload, err := build()
	if err != nil {
		serverError(c, err)
		return
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		serverError(c, err)
		return
	}
	d.Cache.Set(ctx, key, buf)
	respondData(c, http.StatusOK, json.RawMessage(buf))
}

type recentUserRow struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Active         bool   `json:"active"`
	DepartmentName string `json:"department_name,omitempty"`
	DepartmentCode string `json:"department_code,omitempty"`
}

type recentDepartmentRow struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	HODFirstName string `json:"hod_first_name,omitempty"`
	HODLastName  string `json:"hod_last_name,omitempty"`
}

func (d *DashboardController) Admin(c *gin.Context) {
	d.respondCached(c, "dashboard:admin", func() (gin.H, error) {
		var totalUsers, totalDepartments, totalTeachers, totalStudents int64
		if err := d.DB.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
			return nil, err
		}
		if err := d.DB.Model(&models.Department{}).Count(&totalDepartments).Error; err != nil {
			return nil, err
		}
		if err := d.DB.Model(&models.Teacher{}).Count(&totalTeachers).Error; err != nil {
			return nil, err
		}
		if err := d.DB.Model(&models.Student{}).Count(&totalStudents).Error; err != nil {
			return nil, err
		}

		var recentUsers []recentUserRow
		if err := d.DB.Table("users AS u").
			Select("u.id, u.email, u.role, u.first_name, u.last_name, u.active, d.name AS department_name, d.code AS department_code").
			Joins("LEFT JOIN departments d ON d.id = u.department_id").
			Order("u.created_at DESC").
			Limit(10).
			Scan(&recentUsers).Error; err != nil {
			return nil, err
		}

		var recentDepartments []recentDepartmentRow
		if err := d.DB.Table("departments AS d").
			Select("d.id, d.name, d.code, u.first_name AS hod_first_name, u.last_name AS hod_last_name").
			Joins("LEFT JOIN hods h ON h.id = d.hod_id").
			Joins("LEFT JOIN users u ON u.id = h.user_id").
			Order("d.created_at DESC").
			Limit(10).
			Scan(&recentDepartments).Error; err != nil {
			return nil, err
		}

		var recentActivity []models.ActivityLog
		if err := d.DB.Order("created_at DESC").Limit(10).Find(&recentActivity).Error; err != nil {
			return nil, err
		}

		return gin.H{
			"stats": gin.H{
				"total_users":       totalUsers,
				"total_departments": totalDepartments,
				"total_teachers":    totalTeachers,
				"total_students":    totalStudents,
			},
			"recent_users":       recentUsers,
			"recent_departments": recentDepartments,
			"recent_activity":    recentActivity,
		}, nil
	})
}

type personRow struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	RollNumber string `json:"roll_number,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
	Semester   int    `json:"semester,omitempty"`
}

func (d *DashboardController) HOD(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if user.DepartmentID == nil {
		respondError(c, http.StatusForbidden, "No department associated with this account")
		return
	}
	deptID := *user.DepartmentID

	d.respondCached(c, "dashboard:hod:"+deptID, func() (gin.H, error) {
		var totalStudents, totalTeachers int64
		if err := d.DB.Model(&models.Student{}).Where("department_id = ?", deptID).Count(&totalStudents).Error; err != nil {
			return nil, err
		}
		if err := d.DB.Model(&models.Teacher{}).Where("department_id = ?", deptID).Count(&totalTeachers).Error; err != nil {
			return nil, err
		}

		students, err := d.departmentStudents(deptID, 10)
		if err != nil {
			return nil, err
		}

		var teachers []personRow
		if err := d.DB.Table("teachers AS t").
			Select("t.id, t.employee_id, u.first_name, u.last_name, u.email").
			Joins("JOIN users u ON u.id = t.user_id").
			Where("t.department_id = ?", deptID).
			Limit(10).
			Scan(&teachers).Error; err != nil {
			return nil, err
		}

		return gin.H{
			"stats": gin.H{
				"total_students": totalStudents,
				"total_teachers": totalTeachers,
			},
			"department_students": students,
			"department_teachers": teachers,
		}, nil
	})
}

func (d *DashboardController) Teacher(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var profile models.Teacher
	if err := findProfile(d.DB, user, &profile); err != nil {
		if err == ErrProfileMissing {
			respondError(c, http.StatusNotFound, "Teacher profile not found")
			return
		}
		serverError(c, err)
		return
	}

	d.respondCached(c, "dashboard:teacher:"+profile.ID, func() (gin.H, error) {
		courses, err := teacherCourses(d.DB, profile.ID)
		if err != nil {
			return nil, err
		}

		// Two student figures are reported: the department roster and the
		// distinct enrollment across this teacher's courses. They answer
		// different questions and dashboards may show either.
		var totalStudents int64
		if err := d.DB.Model(&models.Student{}).Where("department_id = ?", profile.DepartmentID).Count(&totalStudents).Error; err != nil {
			return nil, err
		}
		var courseStudentCount int64
		if len(courses) > 0 {
			courseIDs := make([]string, 0, len(courses))
			for _, course := range courses {
				courseIDs = append(courseIDs, course.CourseID)
			}
			if err := d.DB.Model(&models.StudentCourse{}).
				Where("course_id IN ?", courseIDs).
				Distinct("student_id").
				Count(&courseStudentCount).Error; err != nil {
				return nil, err
			}
		}

		students, err := d.departmentStudents(profile.DepartmentID, 10)
		if err != nil {
			return nil, err
		}

		return gin.H{
			"stats": gin.H{
				"total_courses":        len(courses),
				"total_students":       totalStudents,
				"course_student_count": courseStudentCount,
			},
			"courses":  courses,
			"students": students,
		}, nil
	})
}

func (d *DashboardController) Student(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var profile models.Student
	if err := findProfile(d.DB, user, &profile); err != nil {
		if err == ErrProfileMissing {
			respondError(c, http.StatusNotFound, "Student profile not found")
			return
		}
		serverError(c, err)
		return
	}

	d.respondCached(c, "dashboard:student:"+profile.ID, func() (gin.H, error) {
		courses, err := studentCourses(d.DB, profile.ID)
		if err != nil {
			return nil, err
		}

		type statusCount struct {
			Status string
			Count  int64
		}
		var counts []statusCount
		if err := d.DB.Model(&models.Attendance{}).
			Select("status, COUNT(*) AS count").
			Where("student_id = ?", profile.ID).
			Group("status").
			Scan(&counts).Error; err != nil {
			return nil, err
		}
		attendance := gin.H{"present": int64(0), "absent": int64(0), "late": int64(0)}
		for _, sc := range counts {
			switch sc.Status {
			case models.AttendancePresent:
				attendance["present"] = sc.Count
			case models.AttendanceAbsent:
				attendance["absent"] = sc.Count
			case models.AttendanceLate:
				attendance["late"] = sc.Count
			}
		}

		return gin.H{
			"stats": gin.H{
				"total_courses": len(courses),
				"semester":      profile.Semester,
			},
			"courses":    courses,
			"attendance": attendance,
		}, nil
	})
}

func (d *DashboardController) departmentStudents(deptID string, limit int) ([]personRow, error) {
	var students []personRow
	err := d.DB.Table("students AS s").
		Select("s.id, s.roll_number, s.semester, u.first_name, u.last_name, u.email").
		Joins("JOIN users u ON u.id = s.user_id").
		Where("s.department_id = ?", deptID).
		Limit(limit).
		Scan(&students).Error
	return students, err
}
