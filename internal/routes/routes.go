package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"clinicdesk-server/internal/config"
	"clinicdesk-server/internal/handlers"
	"clinicdesk-server/internal/middleware"
	"clinicdesk-server/internal/models"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, logger zerolog.Logger) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg, logger)
	userHandler := handlers.NewUserHandler(db)
	doctorHandler := handlers.NewDoctorHandler(db)
	patientHandler := handlers.NewPatientHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(db)
	prescriptionHandler := handlers.NewPrescriptionHandler(db)
	messageHandler := handlers.NewMessageHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db)
	settingsHandler := handlers.NewSettingsHandler(db)
	uploadHandler := handlers.NewUploadHandler(db)

	// Brute-force protection on the credential endpoints; a pass-through in
	// development mode.
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	authLimit := middleware.RateLimit(limiter, !cfg.IsDevelopment())

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authLimit, authHandler.Register)
			authRoutes.POST("/login-email", authLimit, authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
			authRoutes.POST("/forgot-password", authLimit, authHandler.ForgotPassword)
			authRoutes.POST("/reset-password", authHandler.ResetPassword)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
			authRoutesPrivate.POST("/change-password", authHandler.ChangePassword)
		}

		// User administration
		userRoutes := private.Group("/users")
		userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			userRoutes.POST("", userHandler.CreateUser)
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/:id", userHandler.GetUserByID)
			userRoutes.PUT("/:id", userHandler.UpdateUser)
			userRoutes.DELETE("/:id", userHandler.DeactivateUser)
		}

		// Doctor profiles
		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("", doctorHandler.GetDoctors)
			doctorRoutes.GET("/:id", doctorHandler.GetDoctorByID)
			doctorRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), doctorHandler.UpdateDoctor)
			doctorRoutes.PUT("/:id/availability", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), doctorHandler.UpdateAvailability)
			doctorRoutes.POST("/:id/rating", middleware.RoleAuthMiddleware(models.RolePatient), doctorHandler.RateDoctor)
		}

		// Patient profiles
		patientRoutes := private.Group("/patients")
		{
			patientRoutes.GET("", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), patientHandler.GetPatients)
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)   // Ownership checked in handler
			patientRoutes.PUT("/:id", patientHandler.UpdatePatient)    // Ownership checked in handler
		}

		// Appointments
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient, models.RoleAdmin), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.POST("/:id/cancel", appointmentHandler.CancelAppointment)
			appointmentRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), appointmentHandler.DeleteAppointment)
		}

		// Prescriptions
		prescriptionRoutes := private.Group("/prescriptions")
		{
			prescriptionRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor), prescriptionHandler.CreatePrescription)
			prescriptionRoutes.GET("", prescriptionHandler.GetPrescriptions)
			prescriptionRoutes.GET("/:id", prescriptionHandler.GetPrescriptionByID)
			prescriptionRoutes.POST("/:id/dispense", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), prescriptionHandler.DispensePrescription)
			prescriptionRoutes.POST("/:id/refill", prescriptionHandler.RefillPrescription)
		}

		// Messaging
		messageRoutes := private.Group("/messages")
		{
			messageRoutes.POST("", messageHandler.SendMessage)
			messageRoutes.GET("", messageHandler.GetMessages)
			messageRoutes.GET("/unread-count", messageHandler.GetUnreadCount)
			messageRoutes.PATCH("/:id/read", messageHandler.MarkMessageAsRead)
			messageRoutes.DELETE("/:id", messageHandler.DeleteMessage)
		}

		// Notifications
		notificationRoutes := private.Group("/notifications")
		{
			notificationRoutes.GET("", notificationHandler.GetNotifications)
			notificationRoutes.GET("/unread-count", notificationHandler.GetUnreadCount)
			notificationRoutes.PATCH("/read-all", notificationHandler.MarkAllAsRead)
			notificationRoutes.PATCH("/:id/read", notificationHandler.MarkAsRead)
			notificationRoutes.DELETE("/:id", notificationHandler.DeleteNotification)
		}

		// Dashboard
		private.GET("/dashboard", dashboardHandler.GetDashboard)

		// Settings
		settingsRoutes := private.Group("/settings")
		{
			settingsRoutes.GET("", settingsHandler.GetSettings)
			settingsRoutes.PATCH("", settingsHandler.UpdateSettings)
		}

		// Uploads
		uploadRoutes := private.Group("/uploads")
		{
			uploadRoutes.POST("/profile-image", uploadHandler.UploadProfileImage)
			uploadRoutes.GET("/profile-image/:id", uploadHandler.GetProfileImage)
			uploadRoutes.DELETE("/profile-image", uploadHandler.DeleteProfileImage)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
