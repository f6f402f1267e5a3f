package controllers_test

import (
	"net/http"
	"testing"

	"github.com/clgportal/backend_v1/internal/models"
)

func TestCreateCourseDuplicateCode(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAdmin(t, "admin@test.local", "admin123")
	token := env.token(t, admin)

	w := env.do(t, http.MethodPost, "/api/admin/courses", token, map[string]interface{}{
		"name": "Data Structures", "code": "cs201", "credits": 4,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d: %s", w.Code, w.Body.String())
	}
	if decodeBody(t, w)["data"].(map[string]interface{})["code"] != "CS201" {
		t.Fatal("course code not normalized to upper case")
	}

	w = env.do(t, http.MethodPost, "/api/admin/courses", token, map[string]interface{}{
		"name": "Algorithms", "code": "CS201", "credits": 4,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate code must 409, got %d", w.Code)
	}
}

func TestAssignTeacherDuplicateAssignment(t *testing.T) {
	env := newTestEnv(t)
	fx := seedDutyFixture(t, env)
	token := env.token(t, fx.hodUser)

	course := models.Course{Name: "Databases", Code: "CS301", Credits: 3}
	if err := env.db.Create(&course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}

	payload := map[string]interface{}{
		"teacher_id": fx.teacher.ID, "academic_year": 2026, "term": "Fall",
	}
	if w := env.do(t, http.MethodPost, "/api/courses/"+course.ID+"/teachers", token, payload); w.Code != http.StatusCreated {
		t.Fatalf("assign failed: %d: %s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodPost, "/api/courses/"+course.ID+"/teachers", token, payload); w.Code != http.StatusConflict {
		t.Fatalf("duplicate assignment must 409, got %d", w.Code)
	}

	// A different term for the same pair is fine.
	payload["term"] = "Spring"
	if w := env.do(t, http.MethodPost, "/api/courses/"+course.ID+"/teachers", token, payload); w.Code != http.StatusCreated {
		t.Fatalf("different term rejected: %d", w.Code)
	}

	payload["term"] = "Monsoon"
	if w := env.do(t, http.MethodPost, "/api/courses/"+course.ID+"/teachers", token, payload); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown term accepted: %d", w.Code)
	}
}

func TestEnrollStudentDepartmentScope(t *testing.T) {
	env := newTestEnv(t)
	fx := seedDutyFixture(t, env)
	other := env.createDepartment(t, "Physics", "PHY")

	_, foreign, err := env.reg.CreateStudent(registryNewUser("other@test.local", other.ID), models.Student{RollNumber: "R900", StudentID: "S900"})
	if err != nil {
		t.Fatalf("seed foreign student: %v", err)
	}
	course := models.Course{Name: "Databases", Code: "CS301", Credits: 3}
	if err := env.db.Create(&course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}

	w := env.do(t, http.MethodPost, "/api/courses/"+course.ID+"/students", env.token(t, fx.hodUser), map[string]interface{}{
		"student_id": foreign.ID, "academic_year": 2026, "term": "Fall",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("cross-department enrollment must 403, got %d: %s", w.Code, w.Body.String())
	}

	// Admin can enroll across departments.
	admin := env.createAdmin(t, "admin@test.local", "admin123")
	w = env.do(t, http.MethodPost, "/api/courses/"+course.ID+"/students", env.token(t, admin), map[string]interface{}{
		"student_id": foreign.ID, "academic_year": 2026, "term": "Fall",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("admin enrollment failed: %d: %s", w.Code, w.Body.String())
	}
}

func TestStudentDashboard(t *testing.T) {
	env := newTestEnv(t)
	fx := seedAttendanceFixture(t, env)
	teacherToken := env.token(t, fx.teacherUser)

	enrollment := models.StudentCourse{
		StudentID: fx.student.ID, CourseID: fx.course.ID,
		AcademicYear: 2026, Term: "Fall",
	}
	if err := env.db.Create(&enrollment).Error; err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}

	for date, status := range map[string]string{
		"2026-08-25": models.AttendancePresent,
		"2026-08-26": models.AttendancePresent,
		"2026-08-27": models.AttendanceAbsent,
	} {
		w := env.do(t, http.MethodPost, "/api/attendance", teacherToken, map[string]interface{}{
			"student_id": fx.student.ID, "course_id": fx.course.ID,
			"date": date, "status": status, "semester": 3,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("mark failed: %d: %s", w.Code, w.Body.String())
		}
	}

	var studentUser models.User
	if err := env.db.Where("id = ?", fx.student.UserID).First(&studentUser).Error; err != nil {
		t.Fatalf("load student user: %v", err)
	}
	w := env.do(t, http.MethodGet, "/api/dashboard/student", env.token(t, studentUser), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard failed: %d: %s", w.Code, w.Body.String())
	}
	data := decodeBody(t, w)["data"].(map[string]interface{})

	courses := data["courses"].([]interface{})
	if len(courses) != 1 {
		t.Fatalf("expected 1 course, got %d", len(courses))
	}
	course := courses[0].(map[string]interface{})
	if course["grade"] != "N/A" {
		t.Fatalf("ungraded course must read N/A, got %v", course["grade"])
	}
	// No teacher was assigned to the course, so the name degrades.
	if course["instructor"] != "Not assigned" {
		t.Fatalf("missing instructor must degrade, got %v", course["instructor"])
	}

	attendance := data["attendance"].(map[string]interface{})
	if attendance["present"].(float64) != 2 || attendance["absent"].(float64) != 1 || attendance["late"].(float64) != 0 {
		t.Fatalf("attendance counts wrong: %v", attendance)
	}
}

func TestDashboardRoleGates(t *testing.T) {
	env := newTestEnv(t)
	fx := seedAttendanceFixture(t, env)
	teacherToken := env.token(t, fx.teacherUser)

	if w := env.do(t, http.MethodGet, "/api/dashboard/admin", teacherToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("teacher on admin dashboard must 403, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/dashboard/student", teacherToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("teacher on student dashboard must 403, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/dashboard/teacher", teacherToken, nil); w.Code != http.StatusOK {
		t.Fatalf("teacher dashboard failed: %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminDashboardCounts(t *testing.T) {
	env := newTestEnv(t)
	seedAttendanceFixture(t, env)
	admin := env.createAdmin(t, "admin@test.local", "admin123")

	w := env.do(t, http.MethodGet, "/api/dashboard/admin", env.token(t, admin), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin dashboard failed: %d: %s", w.Code, w.Body.String())
	}
	stats := decodeBody(t, w)["data"].(map[string]interface{})["stats"].(map[string]interface{})
	// Fixture: teacher user + student user + this admin.
	if stats["total_users"].(float64) != 3 {
		t.Fatalf("total_users wrong: %v", stats["total_users"])
	}
	if stats["total_departments"].(float64) != 2 {
		t.Fatalf("total_departments wrong: %v", stats["total_departments"])
	}
	if stats["total_teachers"].(float64) != 1 || stats["total_students"].(float64) != 1 {
		t.Fatalf("role counts wrong: %v", stats)
	}
}
