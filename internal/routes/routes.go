package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/cache"
	"github.com/clgportal/backend_v1/internal/config"
	"github.com/clgportal/backend_v1/internal/controllers"
	"github.com/clgportal/backend_v1/internal/httpmiddleware"
	"github.com/clgportal/backend_v1/internal/middleware"
	"github.com/clgportal/backend_v1/internal/models"
	"github.com/clgportal/backend_v1/internal/registry"
	"github.com/clgportal/backend_v1/internal/ws"
)

func Register(r *gin.Engine, db *gorm.DB, cfg *config.Config, hub *ws.ActivityHub, dash *cache.Dashboard) {
	// Controllers
	reg := registry.NewService(db)
	authCtrl := &controllers.AuthController{DB: db, Registry: reg, Hub: hub, JWTSecret: cfg.JWTSecret, ExpiresIn: cfg.JWTExpiry}
	userCtrl := &controllers.UserController{DB: db, Registry: reg, Hub: hub}
	deptCtrl := &controllers.DepartmentController{DB: db, Registry: reg, Hub: hub}
	teacherCtrl := &controllers.TeacherController{DB: db, Registry: reg, Hub: hub}
	studentCtrl := &controllers.StudentController{DB: db, Registry: reg, Hub: hub}
	courseCtrl := &controllers.CourseController{DB: db, Registry: reg, Hub: hub}
	attendanceCtrl := &controllers.AttendanceController{DB: db, Hub: hub}
	dutyCtrl := &controllers.ExamDutyController{DB: db, Hub: hub}
	dashCtrl := &controllers.DashboardController{DB: db, Cache: dash}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	loginLimiter := httpmiddleware.NewSimpleTokenBucket(cfg.LoginRatePerMin, cfg.LoginRatePerMin)
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", loginLimiter.GinMiddleware(), authCtrl.Login)
	}

	// Protected
	authMW := middleware.AuthMiddleware(db, middleware.AuthConfig{
		JWTSecret: cfg.JWTSecret,
		JWTExpiry: cfg.JWTExpiry,
	})
	api := r.Group("/api", authMW)
	{
		api.POST("/auth/register", middleware.RequireRoles(models.RoleAdmin), authCtrl.Register)
		api.GET("/auth/profile", authCtrl.GetProfile)
		api.PUT("/auth/profile", authCtrl.UpdateProfile)

		// Dashboards, one per role
		dashboard := api.Group("/dashboard")
		{
			dashboard.GET("/admin", middleware.RequireRoles(models.RoleAdmin), dashCtrl.Admin)
			dashboard.GET("/hod", middleware.RequireRoles(models.RoleHOD), dashCtrl.HOD)
			dashboard.GET("/teacher", middleware.RequireRoles(models.RoleTeacher), dashCtrl.Teacher)
			dashboard.GET("/student", middleware.RequireRoles(models.RoleStudent), dashCtrl.Student)
			dashboard.GET("/activity/ws", ws.ActivityHandler(hub))
		}

		// Admin-only directory management
		admin := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("/users", userCtrl.ListUsers)
			admin.POST("/users", authCtrl.Register)
			admin.GET("/users/:id", userCtrl.GetUser)
			admin.PUT("/users/:id", userCtrl.UpdateUser)
			admin.DELETE("/users/:id", userCtrl.DeleteUser)

			admin.GET("/departments", deptCtrl.ListDepartments)
			admin.POST("/departments", deptCtrl.CreateDepartment)
			admin.GET("/departments/:id", deptCtrl.GetDepartment)
			admin.PUT("/departments/:id", deptCtrl.UpdateDepartment)
			admin.DELETE("/departments/:id", deptCtrl.DeleteDepartment)
			admin.GET("/departments/:id/stats", deptCtrl.DepartmentStats)

			admin.GET("/teachers", teacherCtrl.ListTeachers)
			admin.POST("/teachers", teacherCtrl.CreateTeacher)
			admin.GET("/teachers/:id", teacherCtrl.GetTeacher)
			admin.PUT("/teachers/:id", teacherCtrl.UpdateTeacher)
			admin.DELETE("/teachers/:id", teacherCtrl.DeleteTeacher)

			admin.GET("/students", studentCtrl.ListStudents)
			admin.POST("/students", studentCtrl.CreateStudent)
			admin.GET("/students/:id", studentCtrl.GetStudent)
			admin.PUT("/students/:id", studentCtrl.UpdateStudent)
			admin.DELETE("/students/:id", studentCtrl.DeleteStudent)

			admin.GET("/courses", courseCtrl.ListCourses)
			admin.POST("/courses", courseCtrl.CreateCourse)
			admin.GET("/courses/:id", courseCtrl.GetCourse)
			admin.PUT("/courses/:id", courseCtrl.UpdateCourse)
			admin.DELETE("/courses/:id", courseCtrl.DeleteCourse)
		}

		// Per-department stats, readable by the department's own HOD as well
		api.GET("/admin/teachers/stats/:departmentId",
			middleware.RequireRoles(models.RoleAdmin, models.RoleHOD),
			middleware.RequireSameDepartment("departmentId"),
			teacherCtrl.TeacherStats)
		api.GET("/admin/students/stats/:departmentId",
			middleware.RequireRoles(models.RoleAdmin, models.RoleHOD),
			middleware.RequireSameDepartment("departmentId"),
			studentCtrl.StudentStats)

		// Course assignment and enrollment
		courses := api.Group("/courses")
		{
			courses.GET("", courseCtrl.ListCourses)
			courses.GET("/:id", courseCtrl.GetCourse)
			courses.POST("/:id/teachers", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD), courseCtrl.AssignTeacher)
			courses.POST("/:id/students", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RoleTeacher), courseCtrl.EnrollStudent)
		}

		// Attendance
		attendance := api.Group("/attendance")
		{
			attendance.GET("", attendanceCtrl.ListAttendance)
			attendance.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RoleTeacher), attendanceCtrl.CreateAttendance)
			attendance.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RoleTeacher), attendanceCtrl.UpdateAttendance)
		}

		// Exam duties
		duties := api.Group("/exam-duties")
		{
			duties.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RoleTeacher), dutyCtrl.ListExamDuties)
			duties.GET("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RoleTeacher), dutyCtrl.GetExamDuty)
			duties.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD), dutyCtrl.CreateExamDuty)
			duties.PUT("/:id/status", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD), dutyCtrl.UpdateDutyStatus)
		}
	}
}
