package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/config"
	"github.com/clgportal/backend_v1/internal/middleware"
	"github.com/clgportal/backend_v1/internal/models"
	"github.com/clgportal/backend_v1/internal/registry"
	"github.com/clgportal/backend_v1/internal/routes"
	"github.com/clgportal/backend_v1/internal/utils"
	"github.com/clgportal/backend_v1/internal/ws"
)

const testSecret = "controller-test-secret"

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	reg    *registry.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Department{}, &models.HOD{}, &models.Teacher{},
		&models.Student{}, &models.Course{}, &models.TeacherCourse{},
		&models.StudentCourse{}, &models.Attendance{}, &models.ExamDuty{},
		&models.ActivityLog{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:       testSecret,
		JWTExpiry:       time.Hour,
		LoginRatePerMin: 1000,
	}
	hub := ws.NewActivityHub()
	go hub.Run()

	r := gin.New()
	routes.Register(r, db, cfg, hub, nil)

	return &testEnv{router: r, db: db, reg: registry.NewService(db)}
}

func (e *testEnv) createAdmin(t *testing.T, email, password string) models.User {
	t.Helper()
	hashed, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	admin := models.User{
		Email: email, Password: hashed, Role: models.RoleAdmin,
		FirstName: "Root", LastName: "Admin", Active: true,
	}
	if err := e.db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return admin
}

func (e *testEnv) createDepartment(t *testing.T, name, code string) models.Department {
	t.Helper()
	dept := models.Department{Name: name, Code: code, Active: true}
	if err := e.db.Create(&dept).Error; err != nil {
		t.Fatalf("create department: %v", err)
	}
	return dept
}

func (e *testEnv) token(t *testing.T, user models.User) string {
	t.Helper()
	token, err := middleware.IssueToken(&user, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func registryNewUser(email, deptID string) registry.NewUser {
	return registry.NewUser{
		Email:        email,
		Password:     "secret123",
		FirstName:    "Test",
		LastName:     "Person",
		DepartmentID: deptID,
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return body
}
