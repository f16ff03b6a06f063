package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinicdesk-server/internal/middleware"
	"clinicdesk-server/internal/models"
	"clinicdesk-server/internal/utils"
)

// DashboardHandler serves per-role aggregations computed at request time.
type DashboardHandler struct {
	DB *gorm.DB
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

type statusCount struct {
	Status models.AppointmentStatus `json:"status"`
	Count  int64                    `json:"count"`
}

type bucketCount struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// GetDashboard dispatches on the caller's role.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	switch userRole {
	case models.RoleAdmin:
		h.adminDashboard(c)
	case models.RoleDoctor:
		h.doctorDashboard(c, userID)
	case models.RolePatient:
		h.patientDashboard(c, userID)
	default:
		utils.Forbidden(c, "Unknown role")
	}
}

func (h *DashboardHandler) adminDashboard(c *gin.Context) {
	var userCount, doctorCount, patientCount, appointmentCount int64
	if err := h.DB.Model(&models.User{}).Count(&userCount).Error; err != nil {
		utils.InternalServerError(c, "Failed to aggregate users: "+err.Error())
		return
	}
	if err := h.DB.Model(&models.Doctor{}).Count(&doctorCount).Error; err != nil {
		utils.InternalServerError(c, "Failed to aggregate doctors: "+err.Error())
		return
	}
	if err := h.DB.Model(&models.Patient{}).Count(&patientCount).Error; err != nil {
		utils.InternalServerError(c, "Failed to aggregate patients: "+err.Error())
		return
	}
	if err := h.DB.Model(&models.Appointment{}).Count(&appointmentCount).Error; err != nil {
		utils.InternalServerError(c, "Failed to aggregate appointments: "+err.Error())
		return
	}

	var byStatus []statusCount
	if err := h.DB.Model(&models.Appointment{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		utils.InternalServerError(c, "Failed to aggregate appointment statuses: "+err.Error())
		return
	}

	// Bookings per day over the last 7 days, keyed by appointment date.
	weekAgo, _ := parseDate(time.Now().AddDate(0, 0, -6).Format("2006-01-02"))
	var perDay []bucketCount
	if err := h.DB.Model(&models.Appointment{}).
		Select("substr(date, 1, 10) as bucket, count(*) as count").
		Where("date >= ?", weekAgo).
		Group("substr(date, 1, 10)").
		Order("bucket asc").
		Scan(&perDay).Error; err != nil {
		utils.InternalServerError(c, "Failed to aggregate bookings: "+err.Error())
		return
	}

	// Registrations per month over the last 12 months.
	yearAgo := time.Now().AddDate(-1, 0, 0)
	var perMonth []bucketCount
	if err := h.DB.Model(&models.User{}).
		Select("substr(created_at, 1, 7) as bucket, count(*) as count").
		Where("created_at >= ?", yearAgo).
		Group("substr(created_at, 1, 7)").
		Order("bucket asc").
		Scan(&perMonth).Error; err != nil {
		utils.InternalServerError(c, "Failed to aggregate registrations: "+err.Error())
		return
	}

	var recent []models.Appointment
	if err := h.DB.Preload("Patient.User").Preload("Doctor.User").
		Order("created_at desc").Limit(5).Find(&recent).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch recent appointments: "+err.Error())
		return
	}
	recentResponses := make([]AppointmentResponse, len(recent))
	for i, a := range recent {
		recentResponses[i] = appointmentResponse(a)
	}

	utils.Success(c, "Dashboard fetched successfully", gin.H{
		"totals": gin.H{
			"users":        userCount,
			"doctors":      doctorCount,
			"patients":     patientCount,
			"appointments": appointmentCount,
		},
		"appointmentsByStatus":  byStatus,
		"bookingsLast7Days":     perDay,
		"registrationsByMonth":  perMonth,
		"recentAppointments":    recentResponses,
	})
}

func (h *DashboardHandler) doctorDashboard(c *gin.Context, userID string) {
	var doctor models.Doctor
	if err := h.DB.First(&doctor, "user_id = ?", userID).Error; err != nil {
		utils.NotFound(c, "Doctor profile not found")
		return
	}

	today, _ := parseDate(time.Now().Format("2006-01-02"))
	active := []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed}

	var todayCount, upcomingCount int64
	if err := h.DB.Model(&models.Appointment{}).
		Where("doctor_id = ? AND date = ? AND status IN ?", doctor.ID, today, active).
		Count(&todayCount).Error; err != nil {
		utils.InternalServerError(c, "Failed to count today's appointments: "+err.Error())
		return
	}
	if err := h.DB.Model(&models.Appointment{}).
		Where("doctor_id = ? AND date > ? AND status IN ?", doctor.ID, today, active).
		Count(&upcomingCount).Error; err != nil {
		utils.InternalServerError(c, "Failed to count upcoming appointments: "+err.Error())
		return
	}

	var byStatus []statusCount
	if err := h.DB.Model(&models.Appointment{}).
		Select("status, count(*) as count").
		Where("doctor_id = ?", doctor.ID).
		Group("status").
		Scan(&byStatus).Error; err != nil {
		utils.InternalServerError(c, "Failed to aggregate appointment statuses: "+err.Error())
		return
	}

	var patientCount int64
	if err := h.DB.Model(&models.Appointment{}).
		Where("doctor_id = ?", doctor.ID).
		Distinct("patient_id").
		Count(&patientCount).Error; err != nil {
		utils.InternalServerError(c, "Failed to count patients: "+err.Error())
		return
	}

	var recent []models.Appointment
	if err := h.DB.Preload("Patient.User").
		Where("doctor_id = ?", doctor.ID).
		Order("created_at desc").Limit(5).Find(&recent).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch recent appointments: "+err.Error())
		return
	}
	recentResponses := make([]AppointmentResponse, len(recent))
	for i, a := range recent {
		recentResponses[i] = appointmentResponse(a)
	}

	utils.Success(c, "Dashboard fetched successfully", gin.H{
		"todayAppointments":    todayCount,
		"upcomingAppointments": upcomingCount,
		"appointmentsByStatus": byStatus,
		"totalPatients":        patientCount,
		"rating":               doctor.Rating,
		"totalReviews":         doctor.TotalReviews,
		"recentAppointments":   recentResponses,
	})
}

func (h *DashboardHandler) patientDashboard(c *gin.Context, userID string) {
	var patient models.Patient
	if err := h.DB.First(&patient, "user_id = ?", userID).Error; err != nil {
		utils.NotFound(c, "Patient profile not found")
		return
	}

	today, _ := parseDate(time.Now().Format("2006-01-02"))
	active := []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed}

	var upcomingCount, completedCount, prescriptionCount int64
	if err := h.DB.Model(&models.Appointment{}).
		Where("patient_id = ? AND date >= ? AND status IN ?", patient.ID, today, active).
		Count(&upcomingCount).Error; err != nil {
		utils.InternalServerError(c, "Failed to count upcoming appointments: "+err.Error())
		return
	}
	if err := h.DB.Model(&models.Appointment{}).
		Where("patient_id = ? AND status = ?", patient.ID, models.StatusCompleted).
		Count(&completedCount).Error; err != nil {
		utils.InternalServerError(c, "Failed to count completed appointments: "+err.Error())
		return
	}
	if err := h.DB.Model(&models.Prescription{}).
		Where("patient_id = ? AND (expiry_date IS NULL OR expiry_date > ?)", patient.ID, time.Now()).
		Count(&prescriptionCount).Error; err != nil {
		utils.InternalServerError(c, "Failed to count active prescriptions: "+err.Error())
		return
	}

	var next models.Appointment
	var nextResponse *AppointmentResponse
	err := h.DB.Preload("Doctor.User").
		Where("patient_id = ? AND date >= ? AND status IN ?", patient.ID, today, active).
		Order("date asc, start_time asc").
		First(&next).Error
	if err == nil {
		r := appointmentResponse(next)
		nextResponse = &r
	} else if err != gorm.ErrRecordNotFound {
		utils.InternalServerError(c, "Failed to fetch next appointment: "+err.Error())
		return
	}

	var notifications []models.Notification
	if err := h.DB.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at desc").Limit(5).Find(&notifications).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch notifications: "+err.Error())
		return
	}

	utils.Success(c, "Dashboard fetched successfully", gin.H{
		"upcomingAppointments":  upcomingCount,
		"completedAppointments": completedCount,
		"activePrescriptions":   prescriptionCount,
		"nextAppointment":       nextResponse,
		"recentNotifications":   notifications,
	})
}
