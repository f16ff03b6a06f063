package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinicdesk-server/internal/middleware"
	"clinicdesk-server/internal/models"
	"clinicdesk-server/internal/utils"
)

// SettingsHandler handles per-user preferences.
type SettingsHandler struct {
	DB *gorm.DB
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{DB: db}
}

// GetSettings returns the user's settings, creating the row with defaults on
// first read.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	settings := models.UserSettings{
		UserID:               userID,
		EmailNotifications:   true,
		AppointmentReminders: true,
		MessageAlerts:        true,
		Language:             "en",
		Timezone:             "UTC",
	}
	if err := h.DB.Where(models.UserSettings{UserID: userID}).
		FirstOrCreate(&settings).Error; err != nil {
		utils.InternalServerError(c, "Failed to load settings: "+err.Error())
		return
	}

	utils.Success(c, "Settings fetched successfully", settings)
}

// UpdateSettingsRequest represents the request body for a settings change.
type UpdateSettingsRequest struct {
	EmailNotifications   *bool  `json:"emailNotifications"`
	AppointmentReminders *bool  `json:"appointmentReminders"`
	MessageAlerts        *bool  `json:"messageAlerts"`
	Language             string `json:"language"`
	Timezone             string `json:"timezone"`
}

// UpdateSettings partially updates the user's settings.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	settings := models.UserSettings{
		UserID:               userID,
		EmailNotifications:   true,
		AppointmentReminders: true,
		MessageAlerts:        true,
		Language:             "en",
		Timezone:             "UTC",
	}
	if err := h.DB.Where(models.UserSettings{UserID: userID}).
		FirstOrCreate(&settings).Error; err != nil {
		utils.InternalServerError(c, "Failed to load settings: "+err.Error())
		return
	}

	if req.EmailNotifications != nil {
		settings.EmailNotifications = *req.EmailNotifications
	}
	if req.AppointmentReminders != nil {
		settings.AppointmentReminders = *req.AppointmentReminders
	}
	if req.MessageAlerts != nil {
		settings.MessageAlerts = *req.MessageAlerts
	}
	if req.Language != "" {
		settings.Language = req.Language
	}
	if req.Timezone != "" {
		settings.Timezone = req.Timezone
	}

	if err := h.DB.Save(&settings).Error; err != nil {
		utils.InternalServerError(c, "Failed to update settings: "+err.Error())
		return
	}

	utils.Success(c, "Settings updated successfully", settings)
}
