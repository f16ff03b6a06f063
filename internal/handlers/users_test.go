package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"clinicdesk-server/internal/models"
)

func TestAdminCreateUser(t *testing.T) {
	router, db := setupServer(t)
	adminToken, _ := registerAdmin(t, router, db)

	rr := doRequest(t, router, http.MethodPost, "/api/v1/users", adminToken, gin.H{
		"firstName": "Greta",
		"lastName":  "Nowak",
		"email":     "greta.nowak@clinic.test",
		"password":  "s3cret-enough",
		"role":      "doctor",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create user: got %d, body %s", rr.Code, rr.Body.String())
	}

	var created models.UserSanitized
	decodeData(t, rr, &created)
	if created.Role != models.RoleDoctor {
		t.Errorf("role = %s, want doctor", created.Role)
	}

	// The doctor profile row comes with the account.
	var count int64
	db.Model(&models.Doctor{}).Where("user_id = ?", created.ID).Count(&count)
	if count != 1 {
		t.Errorf("doctor profiles = %d, want 1", count)
	}

	// Admins, unlike self-registration, may create other admins.
	rr = doRequest(t, router, http.MethodPost, "/api/v1/users", adminToken, gin.H{
		"firstName": "Stefan",
		"lastName":  "Kowalski",
		"email":     "stefan.kowalski@clinic.test",
		"password":  "s3cret-enough",
		"role":      "admin",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create admin: got %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestUserAdministrationAdminOnly(t *testing.T) {
	router, _ := setupServer(t)
	patientToken, patientUserID := registerUser(t, router, "patient")

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/users"},
		{http.MethodGet, "/api/v1/users/" + patientUserID},
		{http.MethodDelete, "/api/v1/users/" + patientUserID},
	} {
		rr := doRequest(t, router, tc.method, tc.path, patientToken, nil)
		if rr.Code != http.StatusForbidden {
			t.Errorf("%s %s: got %d, want 403", tc.method, tc.path, rr.Code)
		}
	}
}

func TestGetUsersRoleFilter(t *testing.T) {
	router, db := setupServer(t)
	registerUser(t, router, "patient")
	registerUser(t, router, "patient")
	registerUser(t, router, "doctor")
	adminToken, _ := registerAdmin(t, router, db)

	rr := doRequest(t, router, http.MethodGet, "/api/v1/users?role=patient", adminToken, nil)
	var patients []models.UserSanitized
	decodeData(t, rr, &patients)
	if len(patients) != 2 {
		t.Fatalf("patients = %d, want 2", len(patients))
	}

	rr = doRequest(t, router, http.MethodGet, "/api/v1/users", adminToken, nil)
	var all []models.UserSanitized
	decodeData(t, rr, &all)
	if len(all) != 4 {
		t.Fatalf("all users = %d, want 4", len(all))
	}
}

func TestDeactivateUser(t *testing.T) {
	router, db := setupServer(t)
	_, patientUserID := registerUser(t, router, "patient")
	adminToken, _ := registerAdmin(t, router, db)

	rr := doRequest(t, router, http.MethodDelete, "/api/v1/users/"+patientUserID, adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("deactivate: got %d, body %s", rr.Code, rr.Body.String())
	}

	// Row survives, account is inactive.
	var user models.User
	if err := db.First(&user, "id = ?", patientUserID).Error; err != nil {
		t.Fatalf("user hard-deleted: %v", err)
	}
	if user.IsActive {
		t.Error("user still active")
	}
}

func TestAdminUpdateUserReactivates(t *testing.T) {
	router, db := setupServer(t)
	_, patientUserID := registerUser(t, router, "patient")
	adminToken, _ := registerAdmin(t, router, db)

	doRequest(t, router, http.MethodDelete, "/api/v1/users/"+patientUserID, adminToken, nil)

	rr := doRequest(t, router, http.MethodPut, "/api/v1/users/"+patientUserID, adminToken, gin.H{
		"isActive":  true,
		"firstName": "Renamed",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: got %d, body %s", rr.Code, rr.Body.String())
	}

	var user models.User
	if err := db.First(&user, "id = ?", patientUserID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if !user.IsActive || user.FirstName != "Renamed" {
		t.Errorf("user = active:%v firstName:%s", user.IsActive, user.FirstName)
	}
}
