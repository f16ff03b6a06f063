package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinicdesk-server/internal/middleware"
	"clinicdesk-server/internal/models"
	"clinicdesk-server/internal/utils"
)

// PatientHandler handles patient profile requests.
type PatientHandler struct {
	DB *gorm.DB
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB) *PatientHandler {
	return &PatientHandler{DB: db}
}

// PatientResponse is a patient profile with the account fields attached.
type PatientResponse struct {
	models.Patient
	User *models.UserSanitized `json:"user,omitempty"`
}

func patientResponse(p models.Patient) PatientResponse {
	resp := PatientResponse{Patient: p}
	if p.User.ID != "" {
		u := p.User.Sanitize()
		resp.User = &u
	}
	return resp
}

// GetPatients lists all patients. Doctors and admins only (enforced at the
// route).
func (h *PatientHandler) GetPatients(c *gin.Context) {
	var patients []models.Patient
	if err := h.DB.Preload("User").Find(&patients).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch patients: "+err.Error())
		return
	}

	responses := make([]PatientResponse, len(patients))
	for i, p := range patients {
		responses[i] = patientResponse(p)
	}

	utils.Success(c, "Patients fetched successfully", responses)
}

// GetPatientByID returns one patient profile. Patients may only read their
// own.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patientID := c.Param("id")

	var patient models.Patient
	if err := h.DB.Preload("User").First(&patient, "id = ?", patientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole == models.RolePatient && patient.UserID != userID {
		utils.Forbidden(c, "You can only view your own medical profile")
		return
	}

	utils.Success(c, "Patient fetched successfully", patientResponse(patient))
}

// UpdatePatientRequest represents the request body for a medical profile update.
type UpdatePatientRequest struct {
	EmergencyContact   *models.EmergencyContact `json:"emergencyContact"`
	MedicalHistory     models.StringList        `json:"medicalHistory"`
	Allergies          models.StringList        `json:"allergies"`
	CurrentMedications models.StringList        `json:"currentMedications"`
	Insurance          *models.InsuranceInfo    `json:"insurance"`
	PreferredLanguage  string                   `json:"preferredLanguage"`
}

// UpdatePatient updates a patient's medical profile. Patients may only update
// their own; doctors and admins may update any.
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	patientID := c.Param("id")

	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", patientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole == models.RolePatient && patient.UserID != userID {
		utils.Forbidden(c, "You can only update your own medical profile")
		return
	}

	if req.EmergencyContact != nil {
		patient.EmergencyContact = *req.EmergencyContact
	}
	if req.MedicalHistory != nil {
		patient.MedicalHistory = req.MedicalHistory
	}
	if req.Allergies != nil {
		patient.Allergies = req.Allergies
	}
	if req.CurrentMedications != nil {
		patient.CurrentMedications = req.CurrentMedications
	}
	if req.Insurance != nil {
		patient.Insurance = *req.Insurance
	}
	if req.PreferredLanguage != "" {
		patient.PreferredLanguage = req.PreferredLanguage
	}

	if err := h.DB.Save(&patient).Error; err != nil {
		utils.InternalServerError(c, "Failed to update patient: "+err.Error())
		return
	}

	utils.Success(c, "Patient updated successfully", patient)
}
