package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinicdesk-server/internal/middleware"
	"clinicdesk-server/internal/models"
	"clinicdesk-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	DB *gorm.DB
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB) *AppointmentHandler {
	return &AppointmentHandler{DB: db}
}

// Booking transactions report failures through these so the HTTP layer can
// pick the right status code.
var (
	errDoctorNotFound    = errors.New("doctor not found")
	errDoctorUnavailable = errors.New("doctor unavailable")
	errOutsideWindow     = errors.New("outside availability window")
	errSlotTaken         = errors.New("slot taken")
)

// lockForUpdate takes a write lock on the selected rows. The slot-conflict
// count runs against a snapshot under InnoDB's repeatable read, so without
// the lock two concurrent bookings can both see zero conflicts and both
// insert. SQLite rejects the FOR UPDATE syntax; its single-writer model
// already serializes the claim, so the clause is skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// AppointmentResponse is an appointment with the related user fields attached.
type AppointmentResponse struct {
	models.Appointment
	PatientUser *models.UserSanitized `json:"patientUser,omitempty"`
	DoctorUser  *models.UserSanitized `json:"doctorUser,omitempty"`
}

func appointmentResponse(a models.Appointment) AppointmentResponse {
	resp := AppointmentResponse{Appointment: a}
	if a.Patient.User.ID != "" {
		u := a.Patient.User.Sanitize()
		resp.PatientUser = &u
	}
	if a.Doctor.User.ID != "" {
		u := a.Doctor.User.Sanitize()
		resp.DoctorUser = &u
	}
	return resp
}

// parseClockTime validates an "HH:MM" string.
func parseClockTime(s string) (time.Time, error) {
	return time.Parse("15:04", s)
}

// parseDate validates a "YYYY-MM-DD" string.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// withinWindow reports whether [start,end] falls inside the doctor's window
// for the date's weekday. Zero-padded HH:MM strings compare correctly as
// strings.
func withinWindow(sched models.WeeklySchedule, date time.Time, start, end string) bool {
	day := strings.ToLower(date.Weekday().String())
	window, ok := sched[day]
	if !ok || !window.IsAvailable {
		return false
	}
	return start >= window.Start && end <= window.End
}

// CreateAppointmentRequest represents the request body for booking.
type CreateAppointmentRequest struct {
	DoctorID  string `json:"doctorId" binding:"required,uuid"`
	PatientID string `json:"patientId"` // Only honored for admin callers
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=in-person online"`
	Reason    string `json:"reason"`
}

// CreateAppointment books a slot for a patient. The availability check and
// the slot claim run inside one transaction so two requests for the same
// (doctor, date, startTime) cannot both succeed.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	date, err := parseDate(req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}
	start, err := parseClockTime(req.StartTime)
	if err != nil {
		utils.BadRequest(c, "Invalid startTime, expected HH:MM")
		return
	}
	end, err := parseClockTime(req.EndTime)
	if err != nil {
		utils.BadRequest(c, "Invalid endTime, expected HH:MM")
		return
	}
	if !end.After(start) {
		utils.BadRequest(c, "endTime must be after startTime")
		return
	}
	today, _ := parseDate(time.Now().Format("2006-01-02"))
	if date.Before(today) {
		utils.BadRequest(c, "Appointment date must not be in the past")
		return
	}

	// Resolve the patient profile: patients book for themselves, admins may
	// book on a patient's behalf.
	var patient models.Patient
	if userRole == models.RoleAdmin && req.PatientID != "" {
		if err := h.DB.First(&patient, "id = ?", req.PatientID).Error; err != nil {
			utils.NotFound(c, "Patient not found")
			return
		}
	} else {
		if err := h.DB.First(&patient, "user_id = ?", userID).Error; err != nil {
			utils.NotFound(c, "Patient profile not found for current user")
			return
		}
	}

	var appointment models.Appointment
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var doctor models.Doctor
		if err := lockForUpdate(tx).First(&doctor, "id = ?", req.DoctorID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errDoctorNotFound
			}
			return err
		}
		if !doctor.IsAvailable {
			return errDoctorUnavailable
		}
		if !withinWindow(doctor.WeeklyAvailability, date, req.StartTime, req.EndTime) {
			return errOutsideWindow
		}

		var conflicts int64
		if err := tx.Model(&models.Appointment{}).
			Where("doctor_id = ? AND date = ? AND start_time = ? AND status IN ?",
				doctor.ID, date, req.StartTime,
				[]models.AppointmentStatus{models.StatusPending, models.StatusConfirmed}).
			Count(&conflicts).Error; err != nil {
			return err
		}
		if conflicts > 0 {
			return errSlotTaken
		}

		appointment = models.Appointment{
			PatientID: patient.ID,
			DoctorID:  doctor.ID,
			Date:      date,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Type:      models.AppointmentType(req.Type),
			Status:    models.StatusPending,
			Reason:    req.Reason,
		}
		if err := tx.Create(&appointment).Error; err != nil {
			return err
		}

		return notify(tx, doctor.UserID, models.NotificationAppointment,
			"New appointment request",
			fmt.Sprintf("A patient requested %s at %s on %s", req.Type, req.StartTime, req.Date),
			appointment.ID)
	})

	switch txErr {
	case nil:
	case errDoctorNotFound:
		utils.NotFound(c, "Doctor not found")
		return
	case errDoctorUnavailable:
		utils.BadRequest(c, "Doctor is not accepting appointments")
		return
	case errOutsideWindow:
		utils.BadRequest(c, "Requested time is outside the doctor's availability")
		return
	case errSlotTaken:
		utils.BadRequest(c, "This time slot is already booked")
		return
	default:
		utils.InternalServerError(c, "Failed to create appointment: "+txErr.Error())
		return
	}

	utils.Created(c, "Appointment created successfully", appointment)
}

// GetAppointments returns the appointments visible to the current user:
// patients and doctors see their own, admins see all.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.Preload("Patient.User").Preload("Doctor.User").
		Order("date asc, start_time asc")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if dateStr := c.Query("date"); dateStr != "" {
		date, err := parseDate(dateStr)
		if err != nil {
			utils.BadRequest(c, "Invalid date filter, expected YYYY-MM-DD")
			return
		}
		query = query.Where("date = ?", date)
	}

	switch userRole {
	case models.RolePatient:
		var patient models.Patient
		if err := h.DB.First(&patient, "user_id = ?", userID).Error; err != nil {
			utils.NotFound(c, "Patient profile not found")
			return
		}
		query = query.Where("patient_id = ?", patient.ID)
	case models.RoleDoctor:
		var doctor models.Doctor
		if err := h.DB.First(&doctor, "user_id = ?", userID).Error; err != nil {
			utils.NotFound(c, "Doctor profile not found")
			return
		}
		query = query.Where("doctor_id = ?", doctor.ID)
	case models.RoleAdmin:
		// no scoping
	default:
		utils.Forbidden(c, "User role not permitted to view appointments")
		return
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	responses := make([]AppointmentResponse, len(appointments))
	for i, a := range appointments {
		responses[i] = appointmentResponse(a)
	}

	utils.Success(c, "Appointments fetched successfully", responses)
}

// loadAppointmentForUser fetches an appointment and checks the caller is the
// involved patient, the involved doctor, or an admin.
func (h *AppointmentHandler) loadAppointmentForUser(c *gin.Context) (*models.Appointment, bool) {
	appointmentID := c.Param("id")

	var appointment models.Appointment
	if err := h.DB.Preload("Patient.User").Preload("Doctor.User").
		First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	if userRole != models.RoleAdmin &&
		appointment.Patient.UserID != userID &&
		appointment.Doctor.UserID != userID {
		utils.Forbidden(c, "You are not authorized to access this appointment")
		return nil, false
	}

	return &appointment, true
}

// GetAppointmentByID returns a single appointment.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointment, ok := h.loadAppointmentForUser(c)
	if !ok {
		return
	}
	utils.Success(c, "Appointment fetched successfully", appointmentResponse(*appointment))
}

// UpdateAppointmentStatusRequest represents the request body for a status change.
type UpdateAppointmentStatusRequest struct {
	Status       models.AppointmentStatus `json:"status" binding:"required,oneof=pending confirmed completed cancelled"`
	Notes        string                   `json:"notes"`
	Diagnosis    string                   `json:"diagnosis"`
	Treatment    string                   `json:"treatment"`
	FollowUpDate *time.Time               `json:"followUpDate"`
	MeetingLink  string                   `json:"meetingLink"`
	CancelReason string                   `json:"cancelReason"`
}

// UpdateAppointmentStatus moves an appointment through the status machine:
// pending -> confirmed -> completed, with cancellation allowed from pending
// and confirmed. Completed and cancelled are terminal.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, ok := h.loadAppointmentForUser(c)
	if !ok {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	// Patients may only cancel; doctors and admins may perform any legal
	// transition.
	if userRole == models.RolePatient && req.Status != models.StatusCancelled {
		utils.Forbidden(c, "Patients can only cancel appointments")
		return
	}

	if !models.CanTransition(appointment.Status, req.Status) {
		utils.BadRequest(c, fmt.Sprintf("Cannot change status from %s to %s", appointment.Status, req.Status))
		return
	}

	appointment.Status = req.Status
	if req.Notes != "" {
		appointment.Notes = req.Notes
	}
	if req.Diagnosis != "" {
		appointment.Diagnosis = req.Diagnosis
	}
	if req.Treatment != "" {
		appointment.Treatment = req.Treatment
	}
	if req.FollowUpDate != nil {
		appointment.FollowUpDate = req.FollowUpDate
	}
	if req.MeetingLink != "" {
		appointment.MeetingLink = req.MeetingLink
	}
	if req.Status == models.StatusCancelled {
		now := time.Now()
		appointment.CancelledBy = userID
		appointment.CancelReason = req.CancelReason
		appointment.CancelledAt = &now
	}

	if err := h.DB.Save(appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to update appointment status: "+err.Error())
		return
	}

	if err := notify(h.DB, appointment.Patient.UserID, models.NotificationAppointment,
		"Appointment status changed",
		fmt.Sprintf("Your appointment on %s at %s is now %s",
			appointment.Date.Format("2006-01-02"), appointment.StartTime, appointment.Status),
		appointment.ID); err != nil {
		utils.InternalServerError(c, "Failed to create notification: "+err.Error())
		return
	}

	utils.Success(c, "Appointment status updated successfully", appointmentResponse(*appointment))
}

// CancelAppointmentRequest represents the request body for cancellation.
type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

// CancelAppointment cancels an appointment, stamping who cancelled, why and
// when. Cancelling an already-cancelled appointment is rejected.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	var req CancelAppointmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequest(c, "Invalid request payload: "+err.Error())
			return
		}
	}

	appointment, ok := h.loadAppointmentForUser(c)
	if !ok {
		return
	}

	if appointment.Status == models.StatusCancelled {
		utils.BadRequest(c, "Appointment is already cancelled")
		return
	}
	if !models.CanTransition(appointment.Status, models.StatusCancelled) {
		utils.BadRequest(c, fmt.Sprintf("Cannot cancel a %s appointment", appointment.Status))
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	now := time.Now()
	appointment.Status = models.StatusCancelled
	appointment.CancelledBy = userID
	appointment.CancelReason = req.Reason
	appointment.CancelledAt = &now

	if err := h.DB.Save(appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to cancel appointment: "+err.Error())
		return
	}

	// Tell the other party.
	recipient := appointment.Patient.UserID
	if userID == appointment.Patient.UserID {
		recipient = appointment.Doctor.UserID
	}
	if err := notify(h.DB, recipient, models.NotificationAppointment,
		"Appointment cancelled",
		fmt.Sprintf("The appointment on %s at %s was cancelled",
			appointment.Date.Format("2006-01-02"), appointment.StartTime),
		appointment.ID); err != nil {
		utils.InternalServerError(c, "Failed to create notification: "+err.Error())
		return
	}

	utils.Success(c, "Appointment cancelled successfully", appointmentResponse(*appointment))
}

// RescheduleAppointmentRequest represents the request body for rescheduling.
type RescheduleAppointmentRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
	Notes     string `json:"notes"`
}

// RescheduleAppointment moves an active appointment to a new slot. The new
// slot goes through the same availability and conflict checks as booking and
// the status resets to pending.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, ok := h.loadAppointmentForUser(c)
	if !ok {
		return
	}

	if !models.IsActiveStatus(appointment.Status) {
		utils.BadRequest(c, fmt.Sprintf("Cannot reschedule a %s appointment", appointment.Status))
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}
	start, err := parseClockTime(req.StartTime)
	if err != nil {
		utils.BadRequest(c, "Invalid startTime, expected HH:MM")
		return
	}
	end, err := parseClockTime(req.EndTime)
	if err != nil {
		utils.BadRequest(c, "Invalid endTime, expected HH:MM")
		return
	}
	if !end.After(start) {
		utils.BadRequest(c, "endTime must be after startTime")
		return
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var doctor models.Doctor
		if err := lockForUpdate(tx).First(&doctor, "id = ?", appointment.DoctorID).Error; err != nil {
			return err
		}
		if !withinWindow(doctor.WeeklyAvailability, date, req.StartTime, req.EndTime) {
			return errOutsideWindow
		}

		var conflicts int64
		if err := tx.Model(&models.Appointment{}).
			Where("doctor_id = ? AND date = ? AND start_time = ? AND id != ? AND status IN ?",
				doctor.ID, date, req.StartTime, appointment.ID,
				[]models.AppointmentStatus{models.StatusPending, models.StatusConfirmed}).
			Count(&conflicts).Error; err != nil {
			return err
		}
		if conflicts > 0 {
			return errSlotTaken
		}

		appointment.Date = date
		appointment.StartTime = req.StartTime
		appointment.EndTime = req.EndTime
		appointment.Status = models.StatusPending
		if req.Notes != "" {
			appointment.Notes = req.Notes
		}
		return tx.Save(appointment).Error
	})

	switch txErr {
	case nil:
	case errOutsideWindow:
		utils.BadRequest(c, "Requested time is outside the doctor's availability")
		return
	case errSlotTaken:
		utils.BadRequest(c, "This time slot is already booked")
		return
	default:
		utils.InternalServerError(c, "Failed to reschedule appointment: "+txErr.Error())
		return
	}

	if err := notify(h.DB, appointment.Patient.UserID, models.NotificationAppointment,
		"Appointment rescheduled",
		fmt.Sprintf("Your appointment was moved to %s at %s", req.Date, req.StartTime),
		appointment.ID); err != nil {
		utils.InternalServerError(c, "Failed to create notification: "+err.Error())
		return
	}

	utils.Success(c, "Appointment rescheduled successfully", appointmentResponse(*appointment))
}

// DeleteAppointment hard-deletes an appointment. Admin only (enforced at the
// route).
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	appointmentID := c.Param("id")

	result := h.DB.Delete(&models.Appointment{}, "id = ?", appointmentID)
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to delete appointment: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Appointment not found")
		return
	}

	utils.Success(c, "Appointment deleted successfully", nil)
}
