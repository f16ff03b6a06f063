package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"clinicdesk-server/internal/models"
)

func TestRateDoctorRunningAverage(t *testing.T) {
	router, db := setupServer(t)
	_, doctorUserID := registerUser(t, router, "doctor")
	doctorID := openDoctor(t, db, doctorUserID)
	path := "/api/v1/doctors/" + doctorID + "/rating"

	first, _ := registerUser(t, router, "patient")
	rr := doRequest(t, router, http.MethodPost, path, first, gin.H{"rating": 5})
	if rr.Code != http.StatusOK {
		t.Fatalf("first rating: got %d, body %s", rr.Code, rr.Body.String())
	}

	second, _ := registerUser(t, router, "patient")
	rr = doRequest(t, router, http.MethodPost, path, second, gin.H{"rating": 4})
	if rr.Code != http.StatusOK {
		t.Fatalf("second rating: got %d", rr.Code)
	}

	var result struct {
		Rating       float64 `json:"rating"`
		TotalReviews int     `json:"totalReviews"`
	}
	decodeData(t, rr, &result)
	if result.Rating != 4.5 {
		t.Errorf("rating = %v, want 4.5", result.Rating)
	}
	if result.TotalReviews != 2 {
		t.Errorf("totalReviews = %d, want 2", result.TotalReviews)
	}
}

func TestRateDoctorValidation(t *testing.T) {
	router, db := setupServer(t)
	_, doctorUserID := registerUser(t, router, "doctor")
	doctorID := openDoctor(t, db, doctorUserID)
	patientToken, _ := registerUser(t, router, "patient")
	path := "/api/v1/doctors/" + doctorID + "/rating"

	for _, rating := range []int{0, 6, -1} {
		rr := doRequest(t, router, http.MethodPost, path, patientToken, gin.H{"rating": rating})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("rating %d: got %d, want 400", rating, rr.Code)
		}
	}

	// Doctors cannot submit ratings.
	doctorToken, _ := registerUser(t, router, "doctor")
	rr := doRequest(t, router, http.MethodPost, path, doctorToken, gin.H{"rating": 3})
	if rr.Code != http.StatusForbidden {
		t.Errorf("doctor rating: got %d, want 403", rr.Code)
	}

	rr = doRequest(t, router, http.MethodPost, "/api/v1/doctors/ffffffff-0000-0000-0000-000000000000/rating", patientToken, gin.H{"rating": 3})
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing doctor: got %d, want 404", rr.Code)
	}
}

func TestUpdateAvailability(t *testing.T) {
	router, db := setupServer(t)
	doctorToken, doctorUserID := registerUser(t, router, "doctor")
	doctorID := openDoctor(t, db, doctorUserID)
	path := "/api/v1/doctors/" + doctorID + "/availability"

	rr := doRequest(t, router, http.MethodPut, path, doctorToken, gin.H{
		"weeklyAvailability": gin.H{
			"monday":  gin.H{"start": "10:00", "end": "14:00", "isAvailable": true},
			"tuesday": gin.H{"isAvailable": false},
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: got %d, body %s", rr.Code, rr.Body.String())
	}

	var doctor models.Doctor
	if err := db.First(&doctor, "id = ?", doctorID).Error; err != nil {
		t.Fatalf("load doctor: %v", err)
	}
	if w := doctor.WeeklyAvailability["monday"]; w.Start != "10:00" || w.End != "14:00" {
		t.Errorf("monday window = %+v", w)
	}

	tests := []struct {
		name   string
		window gin.H
	}{
		{"bad start format", gin.H{"start": "10am", "end": "14:00", "isAvailable": true}},
		{"end before start", gin.H{"start": "14:00", "end": "10:00", "isAvailable": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, http.MethodPut, path, doctorToken, gin.H{
				"weeklyAvailability": gin.H{"monday": tt.window},
			})
			if rr.Code != http.StatusBadRequest {
				t.Errorf("got %d, want 400", rr.Code)
			}
		})
	}
}

func TestUpdateAvailabilityOwnershipEnforced(t *testing.T) {
	router, db := setupServer(t)
	_, doctorUserID := registerUser(t, router, "doctor")
	doctorID := openDoctor(t, db, doctorUserID)

	otherDoctor, _ := registerUser(t, router, "doctor")
	rr := doRequest(t, router, http.MethodPut, "/api/v1/doctors/"+doctorID+"/availability", otherDoctor, gin.H{
		"isAvailable": false,
	})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("other doctor: got %d, want 403", rr.Code)
	}

	adminToken, _ := registerAdmin(t, router, db)
	rr = doRequest(t, router, http.MethodPut, "/api/v1/doctors/"+doctorID+"/availability", adminToken, gin.H{
		"isAvailable": false,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("admin: got %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestGetDoctorsFilters(t *testing.T) {
	router, db := setupServer(t)
	_, userA := registerUser(t, router, "doctor")
	_, userB := registerUser(t, router, "doctor")
	openDoctor(t, db, userA)
	idB := openDoctor(t, db, userB)

	if err := db.Model(&models.Doctor{}).Where("id = ?", idB).
		Updates(map[string]interface{}{"specialty": "Cardiology", "is_available": false}).Error; err != nil {
		t.Fatalf("update doctor: %v", err)
	}

	patientToken, _ := registerUser(t, router, "patient")

	rr := doRequest(t, router, http.MethodGet, "/api/v1/doctors", patientToken, nil)
	var all []models.Doctor
	decodeData(t, rr, &all)
	if len(all) != 2 {
		t.Fatalf("all doctors = %d, want 2", len(all))
	}

	rr = doRequest(t, router, http.MethodGet, "/api/v1/doctors?specialty=Cardiology", patientToken, nil)
	var bySpecialty []models.Doctor
	decodeData(t, rr, &bySpecialty)
	if len(bySpecialty) != 1 {
		t.Fatalf("cardiology doctors = %d, want 1", len(bySpecialty))
	}

	rr = doRequest(t, router, http.MethodGet, "/api/v1/doctors?available=true", patientToken, nil)
	var available []models.Doctor
	decodeData(t, rr, &available)
	if len(available) != 1 {
		t.Fatalf("available doctors = %d, want 1", len(available))
	}
}
