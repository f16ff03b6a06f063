package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinicdesk-server/internal/middleware"
	"clinicdesk-server/internal/models"
	"clinicdesk-server/internal/utils"
)

// PrescriptionHandler handles prescription related requests.
type PrescriptionHandler struct {
	DB *gorm.DB
}

// NewPrescriptionHandler creates a new PrescriptionHandler.
func NewPrescriptionHandler(db *gorm.DB) *PrescriptionHandler {
	return &PrescriptionHandler{DB: db}
}

// PrescriptionResponse is a prescription with the related user fields attached.
type PrescriptionResponse struct {
	models.Prescription
	PatientUser *models.UserSanitized `json:"patientUser,omitempty"`
	DoctorUser  *models.UserSanitized `json:"doctorUser,omitempty"`
}

func prescriptionResponse(p models.Prescription) PrescriptionResponse {
	resp := PrescriptionResponse{Prescription: p}
	if p.Patient.User.ID != "" {
		u := p.Patient.User.Sanitize()
		resp.PatientUser = &u
	}
	if p.Doctor.User.ID != "" {
		u := p.Doctor.User.Sanitize()
		resp.DoctorUser = &u
	}
	return resp
}

// CreatePrescriptionRequest represents the request body for issuing a
// prescription.
type CreatePrescriptionRequest struct {
	PatientID     string              `json:"patientId" binding:"required,uuid"`
	AppointmentID string              `json:"appointmentId"`
	Medications   []models.Medication `json:"medications" binding:"required,min=1"`
	Notes         string              `json:"notes"`
	IsRefillable  bool                `json:"isRefillable"`
	ExpiryDate    *time.Time          `json:"expiryDate"`
}

// CreatePrescription issues a prescription. Doctors only (enforced at the
// route); the issuing doctor is resolved from the token.
func (h *PrescriptionHandler) CreatePrescription(c *gin.Context) {
	var req CreatePrescriptionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)

	var doctor models.Doctor
	if err := h.DB.First(&doctor, "user_id = ?", userID).Error; err != nil {
		utils.NotFound(c, "Doctor profile not found for current user")
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", req.PatientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.AppointmentID != "" {
		var appointment models.Appointment
		if err := h.DB.First(&appointment, "id = ?", req.AppointmentID).Error; err != nil {
			utils.BadRequest(c, "Referenced appointment does not exist")
			return
		}
		if appointment.PatientID != patient.ID || appointment.DoctorID != doctor.ID {
			utils.BadRequest(c, "Appointment does not belong to this doctor and patient")
			return
		}
	}

	for _, m := range req.Medications {
		if m.Name == "" {
			utils.BadRequest(c, "Every medication entry needs a name")
			return
		}
	}

	prescription := models.Prescription{
		PatientID:     patient.ID,
		DoctorID:      doctor.ID,
		AppointmentID: req.AppointmentID,
		Medications:   models.MedicationList(req.Medications),
		Notes:         req.Notes,
		IsRefillable:  req.IsRefillable,
		ExpiryDate:    req.ExpiryDate,
	}

	if err := h.DB.Create(&prescription).Error; err != nil {
		utils.InternalServerError(c, "Failed to create prescription: "+err.Error())
		return
	}

	if err := notify(h.DB, patient.UserID, models.NotificationPrescription,
		"New prescription",
		fmt.Sprintf("You have a new prescription with %d medication(s)", len(req.Medications)),
		prescription.ID); err != nil {
		utils.InternalServerError(c, "Failed to create notification: "+err.Error())
		return
	}

	utils.Created(c, "Prescription created successfully", prescription)
}

// GetPrescriptions returns the prescriptions visible to the current user.
func (h *PrescriptionHandler) GetPrescriptions(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.Preload("Patient.User").Preload("Doctor.User").Order("created_at desc")

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
		utils.Forbidden(c, "User role not permitted to view prescriptions")
		return
	}

	var prescriptions []models.Prescription
	if err := query.Find(&prescriptions).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch prescriptions: "+err.Error())
		return
	}

	responses := make([]PrescriptionResponse, len(prescriptions))
	for i, p := range prescriptions {
		responses[i] = prescriptionResponse(p)
	}

	utils.Success(c, "Prescriptions fetched successfully", responses)
}

// GetPrescriptionByID returns a single prescription for an involved party or
// an admin.
func (h *PrescriptionHandler) GetPrescriptionByID(c *gin.Context) {
	prescriptionID := c.Param("id")

	var prescription models.Prescription
	if err := h.DB.Preload("Patient.User").Preload("Doctor.User").
		First(&prescription, "id = ?", prescriptionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Prescription not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole != models.RoleAdmin &&
		prescription.Patient.UserID != userID &&
		prescription.Doctor.UserID != userID {
		utils.Forbidden(c, "You are not authorized to view this prescription")
		return
	}

	utils.Success(c, "Prescription fetched successfully", prescriptionResponse(prescription))
}

// DispensePrescription flips the dispensed flag. The guard lives in the WHERE
// clause so dispensing twice loses the race cleanly.
func (h *PrescriptionHandler) DispensePrescription(c *gin.Context) {
	prescriptionID := c.Param("id")
	userID, _ := middleware.GetUserIDFromContext(c)

	var prescription models.Prescription
	if err := h.DB.First(&prescription, "id = ?", prescriptionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Prescription not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	now := time.Now()
	result := h.DB.Model(&models.Prescription{}).
		Where("id = ? AND is_dispensed = ?", prescriptionID, false).
		Updates(map[string]interface{}{
			"is_dispensed": true,
			"dispensed_by": userID,
			"dispensed_at": now,
		})
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to dispense prescription: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.BadRequest(c, "Prescription is already dispensed")
		return
	}

	utils.Success(c, "Prescription dispensed successfully", nil)
}

// RefillPrescription increments the refill counter and resets the dispensed
// state. Guarded by the refillable flag and the refill cap in the WHERE
// clause, so the cap holds under concurrent requests.
func (h *PrescriptionHandler) RefillPrescription(c *gin.Context) {
	prescriptionID := c.Param("id")

	var prescription models.Prescription
	if err := h.DB.Preload("Patient").Preload("Doctor").
		First(&prescription, "id = ?", prescriptionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Prescription not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole != models.RoleAdmin &&
		prescription.Patient.UserID != userID &&
		prescription.Doctor.UserID != userID {
		utils.Forbidden(c, "You are not authorized to refill this prescription")
		return
	}

	result := h.DB.Model(&models.Prescription{}).
		Where("id = ? AND is_refillable = ? AND refill_count < ?", prescriptionID, true, models.MaxRefills).
		Updates(map[string]interface{}{
			"refill_count": gorm.Expr("refill_count + 1"),
			"is_dispensed": false,
			"dispensed_by": "",
			"dispensed_at": nil,
		})
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to refill prescription: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		if !prescription.IsRefillable {
			utils.BadRequest(c, "Prescription is not refillable")
		} else {
			utils.BadRequest(c, fmt.Sprintf("Refill limit of %d reached", models.MaxRefills))
		}
		return
	}

	if err := notify(h.DB, prescription.Patient.UserID, models.NotificationPrescription,
		"Prescription refilled",
		fmt.Sprintf("Your prescription was refilled (%d of %d refills used)",
			prescription.RefillCount+1, models.MaxRefills),
		prescription.ID); err != nil {
		utils.InternalServerError(c, "Failed to create notification: "+err.Error())
		return
	}

	utils.Success(c, "Prescription refilled successfully", nil)
}
