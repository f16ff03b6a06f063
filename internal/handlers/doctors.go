package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinicdesk-server/internal/middleware"
	"clinicdesk-server/internal/models"
	"clinicdesk-server/internal/utils"
)

// DoctorHandler handles doctor profile requests.
type DoctorHandler struct {
	DB *gorm.DB
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(db *gorm.DB) *DoctorHandler {
	return &DoctorHandler{DB: db}
}

// DoctorResponse is a doctor profile with the account fields attached.
type DoctorResponse struct {
	models.Doctor
	User *models.UserSanitized `json:"user,omitempty"`
}

func doctorResponse(d models.Doctor) DoctorResponse {
	resp := DoctorResponse{Doctor: d}
	if d.User.ID != "" {
		u := d.User.Sanitize()
		resp.User = &u
	}
	return resp
}

// GetDoctors lists doctors attached to active accounts. Supports ?specialty=
// and ?available=true filters.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	query := h.DB.Preload("User").
		Joins("JOIN users ON users.id = doctors.user_id").
		Where("users.is_active = ?", true)

	if specialty := c.Query("specialty"); specialty != "" {
		query = query.Where("doctors.specialty = ?", specialty)
	}
	if c.Query("available") == "true" {
		query = query.Where("doctors.is_available = ?", true)
	}

	var doctors []models.Doctor
	if err := query.Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	responses := make([]DoctorResponse, len(doctors))
	for i, d := range doctors {
		responses[i] = doctorResponse(d)
	}

	utils.Success(c, "Doctors fetched successfully", responses)
}

// GetDoctorByID returns one doctor profile.
func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	doctorID := c.Param("id")

	var doctor models.Doctor
	if err := h.DB.Preload("User").First(&doctor, "id = ?", doctorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Doctor fetched successfully", doctorResponse(doctor))
}

// UpdateDoctorRequest represents the request body for a profile update.
type UpdateDoctorRequest struct {
	Specialty         string   `json:"specialty"`
	LicenseNumber     string   `json:"licenseNumber"`
	YearsOfExperience *int     `json:"yearsOfExperience"`
	Biography         string   `json:"biography"`
	ConsultationFee   *float64 `json:"consultationFee"`
}

// UpdateDoctor updates a doctor profile. Doctors may only update their own;
// admins may update any.
func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	doctorID := c.Param("id")

	var req UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", doctorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole != models.RoleAdmin && doctor.UserID != userID {
		utils.Forbidden(c, "You can only update your own profile")
		return
	}

	if req.Specialty != "" {
		doctor.Specialty = req.Specialty
	}
	if req.LicenseNumber != "" {
		doctor.LicenseNumber = req.LicenseNumber
	}
	if req.YearsOfExperience != nil {
		doctor.YearsOfExperience = *req.YearsOfExperience
	}
	if req.Biography != "" {
		doctor.Biography = req.Biography
	}
	if req.ConsultationFee != nil {
		doctor.ConsultationFee = *req.ConsultationFee
	}

	if err := h.DB.Save(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to update doctor: "+err.Error())
		return
	}

	utils.Success(c, "Doctor updated successfully", doctor)
}

// UpdateAvailabilityRequest represents the request body for schedule changes.
type UpdateAvailabilityRequest struct {
	IsAvailable        *bool                 `json:"isAvailable"`
	WeeklyAvailability models.WeeklySchedule `json:"weeklyAvailability"`
}

// UpdateAvailability updates a doctor's weekly schedule and availability flag.
func (h *DoctorHandler) UpdateAvailability(c *gin.Context) {
	doctorID := c.Param("id")

	var req UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", doctorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole != models.RoleAdmin && doctor.UserID != userID {
		utils.Forbidden(c, "You can only update your own availability")
		return
	}

	for day, window := range req.WeeklyAvailability {
		if !window.IsAvailable {
			continue
		}
		if _, err := parseClockTime(window.Start); err != nil {
			utils.BadRequest(c, "Invalid start time for "+day+", expected HH:MM")
			return
		}
		if _, err := parseClockTime(window.End); err != nil {
			utils.BadRequest(c, "Invalid end time for "+day+", expected HH:MM")
			return
		}
		if window.End <= window.Start {
			utils.BadRequest(c, "End time must be after start time for "+day)
			return
		}
	}

	if req.IsAvailable != nil {
		doctor.IsAvailable = *req.IsAvailable
	}
	if req.WeeklyAvailability != nil {
		doctor.WeeklyAvailability = req.WeeklyAvailability
	}

	if err := h.DB.Save(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to update availability: "+err.Error())
		return
	}

	utils.Success(c, "Availability updated successfully", doctor)
}

// RateDoctorRequest represents the request body for a rating submission.
type RateDoctorRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

// RateDoctor folds a 1-5 rating into the doctor's running average in a single
// conditional UPDATE, so concurrent submissions cannot lose each other.
func (h *DoctorHandler) RateDoctor(c *gin.Context) {
	doctorID := c.Param("id")

	var req RateDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result := h.DB.Model(&models.Doctor{}).
		Where("id = ?", doctorID).
		Updates(map[string]interface{}{
			"rating":        gorm.Expr("round((rating * total_reviews + ?) / (total_reviews + 1), 1)", req.Rating),
			"total_reviews": gorm.Expr("total_reviews + 1"),
		})
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to update rating: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Doctor not found")
		return
	}

	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", doctorID).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	utils.Success(c, "Rating submitted successfully", gin.H{
		"rating":       doctor.Rating,
		"totalReviews": doctor.TotalReviews,
	})
}
