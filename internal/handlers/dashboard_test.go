package handlers_test

import (
	"net/http"
	"testing"
)

func TestAdminDashboard(t *testing.T) {
	env := bookingFixture(t)
	bookAppointment(t, env.router, env.patientToken, env.doctorID, futureDate(2), "09:00", "10:00")
	adminToken, _ := registerAdmin(t, env.router, env.db)

	rr := doRequest(t, env.router, http.MethodGet, "/api/v1/dashboard", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard: got %d, body %s", rr.Code, rr.Body.String())
	}

	var data struct {
		Totals struct {
			Users        int64 `json:"users"`
			Doctors      int64 `json:"doctors"`
			Patients     int64 `json:"patients"`
			Appointments int64 `json:"appointments"`
		} `json:"totals"`
		AppointmentsByStatus []struct {
			Status string `json:"status"`
			Count  int64  `json:"count"`
		} `json:"appointmentsByStatus"`
	}
	decodeData(t, rr, &data)

	// One doctor, one patient, one admin.
	if data.Totals.Users != 3 {
		t.Errorf("users = %d, want 3", data.Totals.Users)
	}
	if data.Totals.Doctors != 1 || data.Totals.Patients != 1 {
		t.Errorf("doctors/patients = %d/%d, want 1/1", data.Totals.Doctors, data.Totals.Patients)
	}
	if data.Totals.Appointments != 1 {
		t.Errorf("appointments = %d, want 1", data.Totals.Appointments)
	}
	if len(data.AppointmentsByStatus) != 1 || data.AppointmentsByStatus[0].Status != "pending" {
		t.Errorf("byStatus = %+v", data.AppointmentsByStatus)
	}
}

func TestDoctorDashboard(t *testing.T) {
	env := bookingFixture(t)
	bookAppointment(t, env.router, env.patientToken, env.doctorID, futureDate(2), "09:00", "10:00")

	rr := doRequest(t, env.router, http.MethodGet, "/api/v1/dashboard", env.doctorToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard: got %d, body %s", rr.Code, rr.Body.String())
	}

	var data struct {
		UpcomingAppointments int64 `json:"upcomingAppointments"`
		TotalPatients        int64 `json:"totalPatients"`
	}
	decodeData(t, rr, &data)
	if data.UpcomingAppointments != 1 {
		t.Errorf("upcoming = %d, want 1", data.UpcomingAppointments)
	}
	if data.TotalPatients != 1 {
		t.Errorf("totalPatients = %d, want 1", data.TotalPatients)
	}
}

func TestPatientDashboard(t *testing.T) {
	env := bookingFixture(t)
	bookAppointment(t, env.router, env.patientToken, env.doctorID, futureDate(2), "09:00", "10:00")

	rr := doRequest(t, env.router, http.MethodGet, "/api/v1/dashboard", env.patientToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard: got %d, body %s", rr.Code, rr.Body.String())
	}

	var data struct {
		UpcomingAppointments int64 `json:"upcomingAppointments"`
		NextAppointment      *struct {
			ID string `json:"id"`
		} `json:"nextAppointment"`
	}
	decodeData(t, rr, &data)
	if data.UpcomingAppointments != 1 {
		t.Errorf("upcoming = %d, want 1", data.UpcomingAppointments)
	}
	if data.NextAppointment == nil {
		t.Error("nextAppointment missing")
	}
}
