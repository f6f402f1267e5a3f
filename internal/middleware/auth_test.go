package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glebarez/sqlite"

	"github.com/clgportal/backend_v1/internal/models"
)

const testSecret = "test-secret"

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authMW := AuthMiddleware(db, AuthConfig{JWTSecret: testSecret, JWTExpiry: time.Hour})
	r.GET("/me", authMW, func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})
	r.GET("/admin-only", authMW, RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/dept/:departmentId", authMW, RequireSameDepartment("departmentId"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func createUser(t *testing.T, db *gorm.DB, role string, active bool, deptID *string) models.User {
	t.Helper()
	user := models.User{
		Email:        role + "-" + uuid.NewString() + "@test.local",
		Password:     "irrelevant",
		Role:         role,
		FirstName:    "Test",
		LastName:     "User",
		Active:       active,
		DepartmentID: deptID,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	db := testDB(t)
	r := testRouter(db)

	w := doGet(r, "/me", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["message"] != "Access token required" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestAuthMiddlewareGarbageToken(t *testing.T) {
	db := testDB(t)
	r := testRouter(db)

	w := doGet(r, "/me", "not-a-jwt")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["message"] != "Invalid or expired token" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	db := testDB(t)
	r := testRouter(db)
	user := createUser(t, db, models.RoleAdmin, true, nil)

	token, err := IssueToken(&user, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	w := doGet(r, "/me", token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", w.Code)
	}
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["message"] != "Invalid or expired token" {
		t.Fatalf("expired token must map to the generic message, got %v", body["message"])
	}
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	db := testDB(t)
	r := testRouter(db)
	user := createUser(t, db, models.RoleAdmin, true, nil)

	token, err := IssueToken(&user, "other-secret", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	w := doGet(r, "/me", token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", w.Code)
	}
}

func TestAuthMiddlewareInactiveUser(t *testing.T) {
	db := testDB(t)
	r := testRouter(db)
	user := createUser(t, db, models.RoleTeacher, false, nil)

	token, err := IssueToken(&user, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	w := doGet(r, "/me", token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("deactivated account must be rejected, got %d", w.Code)
	}
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	db := testDB(t)
	r := testRouter(db)
	user := createUser(t, db, models.RoleStudent, true, nil)

	token, err := IssueToken(&user, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	w := doGet(r, "/me", token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["id"] != user.ID {
		t.Fatalf("wrong user loaded: %v", body["id"])
	}
}

func TestRequireRolesNoAdminBypass(t *testing.T) {
	db := testDB(t)
	r := testRouter(db)
	teacher := createUser(t, db, models.RoleTeacher, true, nil)

	token, _ := IssueToken(&teacher, testSecret, time.Hour)
	w := doGet(r, "/admin-only", token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}

	admin := createUser(t, db, models.RoleAdmin, true, nil)
	token, _ = IssueToken(&admin, testSecret, time.Hour)
	w = doGet(r, "/admin-only", token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", w.Code)
	}
}

func TestRequireSameDepartment(t *testing.T) {
	db := testDB(t)
	r := testRouter(db)
	deptA := "dept-a"
	deptB := "dept-b"
	hod := createUser(t, db, models.RoleHOD, true, &deptA)

	token, _ := IssueToken(&hod, testSecret, time.Hour)
	if w := doGet(r, "/dept/"+deptA, token); w.Code != http.StatusOK {
		t.Fatalf("own department rejected: %d", w.Code)
	}
	if w := doGet(r, "/dept/"+deptB, token); w.Code != http.StatusForbidden {
		t.Fatalf("foreign department allowed: %d", w.Code)
	}

	admin := createUser(t, db, models.RoleAdmin, true, nil)
	token, _ = IssueToken(&admin, testSecret, time.Hour)
	if w := doGet(r, "/dept/"+deptB, token); w.Code != http.StatusOK {
		t.Fatalf("admin bypass failed: %d", w.Code)
	}
}

func TestSameDepartmentPredicate(t *testing.T) {
	deptA := "dept-a"
	admin := models.User{Role: models.RoleAdmin}
	if !SameDepartment(admin, "anything") {
		t.Fatal("admin must pass any department")
	}
	hod := models.User{Role: models.RoleHOD, DepartmentID: &deptA}
	if !SameDepartment(hod, deptA) {
		t.Fatal("own department must pass")
	}
	if SameDepartment(hod, "dept-b") {
		t.Fatal("foreign department must fail")
	}
	none := models.User{Role: models.RoleTeacher}
	if SameDepartment(none, deptA) {
		t.Fatal("user without department must fail")
	}
}
