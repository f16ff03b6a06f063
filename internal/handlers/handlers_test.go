package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"clinicdesk-server/internal/config"
	"clinicdesk-server/internal/models"
	"clinicdesk-server/internal/routes"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:                      "0",
		Environment:               "development",
		JWTSecret:                 "test-secret",
		JWTRefreshSecret:          "test-refresh-secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 1,
		PasswordResetTokenExpiry:  60,
		RateLimit:                 config.RateLimitConfig{RPS: 1000, Burst: 1000},
		Mailer:                    config.MailerConfig{DefaultFrom: "test@clinicdesk.local"},
	}
}

// setupServer builds a router backed by an in-memory database.
func setupServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// A single connection keeps the in-memory database alive and shared.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	router := gin.New()
	routes.SetupRoutes(router, db, testConfig(), zerolog.Nop())
	return router, db
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// decodeData unmarshals the "data" field of the response envelope into out.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, rr.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v (body: %s)", err, rr.Body.String())
	}
}

// registerUser registers an account and returns its access token and user id.
func registerUser(t *testing.T, router *gin.Engine, role string) (token, userID string) {
	t.Helper()
	email := fmt.Sprintf("%s-%s@test.local", role, uuid.New().String()[:8])

	rr := doRequest(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"firstName": "Test",
		"lastName":  "User",
		"email":     email,
		"password":  "password123",
		"role":      role,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: got %d, body %s", role, rr.Code, rr.Body.String())
	}

	rr = doRequest(t, router, http.MethodPost, "/api/v1/auth/login-email", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: got %d, body %s", role, rr.Code, rr.Body.String())
	}

	var login struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decodeData(t, rr, &login)
	return login.AccessToken, login.User.ID
}

// registerAdmin inserts an admin directly; registration only offers doctor
// and patient roles.
func registerAdmin(t *testing.T, router *gin.Engine, db *gorm.DB) (token, userID string) {
	t.Helper()
	email := fmt.Sprintf("admin-%s@test.local", uuid.New().String()[:8])
	admin := models.User{
		Email:     email,
		FirstName: "Admin",
		LastName:  "User",
		Role:      models.RoleAdmin,
		IsActive:  true,
	}
	if err := admin.SetPassword("password123"); err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}

	rr := doRequest(t, router, http.MethodPost, "/api/v1/auth/login-email", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login admin: got %d, body %s", rr.Code, rr.Body.String())
	}
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	decodeData(t, rr, &login)
	return login.AccessToken, admin.ID
}

// openDoctor makes the doctor bookable every day of the week and returns the
// doctor profile id.
func openDoctor(t *testing.T, db *gorm.DB, doctorUserID string) string {
	t.Helper()
	var doctor models.Doctor
	if err := db.First(&doctor, "user_id = ?", doctorUserID).Error; err != nil {
		t.Fatalf("load doctor profile: %v", err)
	}
	sched := models.WeeklySchedule{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		sched[day] = models.DayWindow{Start: "08:00", End: "18:00", IsAvailable: true}
	}
	doctor.WeeklyAvailability = sched
	doctor.IsAvailable = true
	if err := db.Save(&doctor).Error; err != nil {
		t.Fatalf("save doctor schedule: %v", err)
	}
	return doctor.ID
}

// futureDate returns a date string a few days out.
func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}
