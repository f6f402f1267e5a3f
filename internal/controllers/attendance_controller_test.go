package controllers_test

import (
	"net/http"
	"testing"

	"github.com/clgportal/backend_v1/internal/models"
)

type attendanceFixture struct {
	dept        models.Department
	otherDept   models.Department
	teacherUser models.User
	teacher     models.Teacher
	student     models.Student
	course      models.Course
}

func seedAttendanceFixture(t *testing.T, env *testEnv) attendanceFixture {
	t.Helper()
	dept := env.createDepartment(t, "Computer Science", "CS")
	other := env.createDepartment(t, "Physics", "PHY")

	_, teacherProfile, err := env.reg.CreateTeacher(registryNewUser("teach@test.local", dept.ID), models.Teacher{EmployeeID: "EMP001"})
	if err != nil {
		t.Fatalf("seed teacher: %v", err)
	}
	var teacherUser models.User
	if err := env.db.Where("id = ?", teacherProfile.UserID).First(&teacherUser).Error; err != nil {
		t.Fatalf("load teacher user: %v", err)
	}

	_, studentProfile, err := env.reg.CreateStudent(registryNewUser("stud@test.local", dept.ID), models.Student{RollNumber: "R001", StudentID: "S001", Semester: 3})
	if err != nil {
		t.Fatalf("seed student: %v", err)
	}

	course := models.Course{Name: "Data Structures", Code: "CS201", Credits: 4}
	if err := env.db.Create(&course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}

	return attendanceFixture{
		dept: dept, otherDept: other,
		teacherUser: teacherUser, teacher: *teacherProfile,
		student: *studentProfile, course: course,
	}
}

func TestMarkAttendanceAndDoubleMark(t *testing.T) {
	env := newTestEnv(t)
	fx := seedAttendanceFixture(t, env)
	token := env.token(t, fx.teacherUser)

	payload := map[string]interface{}{
		"student_id": fx.student.ID,
		"course_id":  fx.course.ID,
		"date":       "2026-08-28",
		"status":     models.AttendancePresent,
		"semester":   3,
	}
	w := env.do(t, http.MethodPost, "/api/attendance", token, payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("mark failed: %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	data := body["data"].(map[string]interface{})
	if data["teacher_id"] != fx.teacher.ID {
		t.Fatalf("teacher must be the caller's own profile, got %v", data["teacher_id"])
	}

	// Same student, course and date again.
	w = env.do(t, http.MethodPost, "/api/attendance", token, payload)
	if w.Code != http.StatusConflict {
		t.Fatalf("double mark must 409, got %d: %s", w.Code, w.Body.String())
	}

	// A different date is a new record.
	payload["date"] = "2026-08-29"
	if w := env.do(t, http.MethodPost, "/api/attendance", token, payload); w.Code != http.StatusCreated {
		t.Fatalf("second date rejected: %d", w.Code)
	}
}

func TestMarkAttendanceValidation(t *testing.T) {
	env := newTestEnv(t)
	fx := seedAttendanceFixture(t, env)
	token := env.token(t, fx.teacherUser)

	base := func() map[string]interface{} {
		return map[string]interface{}{
			"student_id": fx.student.ID,
			"course_id":  fx.course.ID,
			"date":       "2026-08-28",
			"status":     models.AttendancePresent,
			"semester":   3,
		}
	}

	p := base()
	p["status"] = "Sleeping"
	if w := env.do(t, http.MethodPost, "/api/attendance", token, p); w.Code != http.StatusBadRequest {
		t.Fatalf("bad status accepted: %d", w.Code)
	}

	p = base()
	p["date"] = "28-08-2026"
	if w := env.do(t, http.MethodPost, "/api/attendance", token, p); w.Code != http.StatusBadRequest {
		t.Fatalf("bad date accepted: %d", w.Code)
	}

	p = base()
	p["semester"] = 9
	if w := env.do(t, http.MethodPost, "/api/attendance", token, p); w.Code != http.StatusBadRequest {
		t.Fatalf("semester out of range accepted: %d", w.Code)
	}
}

func TestMarkAttendanceDepartmentScope(t *testing.T) {
	env := newTestEnv(t)
	fx := seedAttendanceFixture(t, env)

	// A student from another department is out of the teacher's scope.
	_, foreign, err := env.reg.CreateStudent(registryNewUser("other@test.local", fx.otherDept.ID), models.Student{RollNumber: "R900", StudentID: "S900"})
	if err != nil {
		t.Fatalf("seed foreign student: %v", err)
	}

	w := env.do(t, http.MethodPost, "/api/attendance", env.token(t, fx.teacherUser), map[string]interface{}{
		"student_id": foreign.ID,
		"course_id":  fx.course.ID,
		"date":       "2026-08-28",
		"status":     models.AttendanceAbsent,
		"semester":   1,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("cross-department mark must 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStudentCannotMarkAttendance(t *testing.T) {
	env := newTestEnv(t)
	fx := seedAttendanceFixture(t, env)

	var studentUser models.User
	if err := env.db.Where("id = ?", fx.student.UserID).First(&studentUser).Error; err != nil {
		t.Fatalf("load student user: %v", err)
	}

	w := env.do(t, http.MethodPost, "/api/attendance", env.token(t, studentUser), map[string]interface{}{
		"student_id": fx.student.ID,
		"course_id":  fx.course.ID,
		"date":       "2026-08-28",
		"status":     models.AttendancePresent,
		"semester":   3,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("student marking attendance must 403, got %d", w.Code)
	}
}

func TestUpdateAttendanceCorrectionOnly(t *testing.T) {
	env := newTestEnv(t)
	fx := seedAttendanceFixture(t, env)
	token := env.token(t, fx.teacherUser)

	w := env.do(t, http.MethodPost, "/api/attendance", token, map[string]interface{}{
		"student_id": fx.student.ID,
		"course_id":  fx.course.ID,
		"date":       "2026-08-28",
		"status":     models.AttendanceAbsent,
		"semester":   3,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("mark failed: %d", w.Code)
	}
	id := decodeBody(t, w)["data"].(map[string]interface{})["id"].(string)

	w = env.do(t, http.MethodPut, "/api/attendance/"+id, token, map[string]string{
		"status": models.AttendanceLate, "remarks": "arrived 20 minutes in",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("correction failed: %d: %s", w.Code, w.Body.String())
	}

	var record models.Attendance
	if err := env.db.Where("id = ?", id).First(&record).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if record.Status != models.AttendanceLate || record.Remarks == "" {
		t.Fatalf("correction not applied: %+v", record)
	}
	if record.StudentID != fx.student.ID || record.CourseID != fx.course.ID {
		t.Fatal("record identity changed during correction")
	}
}

func TestListAttendanceScopedToStudent(t *testing.T) {
	env := newTestEnv(t)
	fx := seedAttendanceFixture(t, env)
	token := env.token(t, fx.teacherUser)

	for _, date := range []string{"2026-08-27", "2026-08-28"} {
		w := env.do(t, http.MethodPost, "/api/attendance", token, map[string]interface{}{
			"student_id": fx.student.ID,
			"course_id":  fx.course.ID,
			"date":       date,
			"status":     models.AttendancePresent,
			"semester":   3,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("mark failed: %d", w.Code)
		}
	}

	var studentUser models.User
	if err := env.db.Where("id = ?", fx.student.UserID).First(&studentUser).Error; err != nil {
		t.Fatalf("load student user: %v", err)
	}
	w := env.do(t, http.MethodGet, "/api/attendance", env.token(t, studentUser), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list failed: %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	records := body["data"].([]interface{})
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, raw := range records {
		rec := raw.(map[string]interface{})
		if rec["student_id"] != fx.student.ID {
			t.Fatal("student sees records that are not their own")
		}
	}
}
