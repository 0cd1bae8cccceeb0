package routes

import (
	"net/http"

	"cliently-backend/config"
	"cliently-backend/controllers"
	"cliently-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	if config.AppConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(config.PerformanceLogger())
	r.Use(utils.RateLimitMiddleware(20, 40))

	allowedOrigins := config.AppConfig.CORSOrigins
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := config.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "unreachable"})
			return
		}

		resp := gin.H{"status": "ok"}
		// Redis is optional; losing it degrades features, not the service.
		if config.Redis != nil {
			if err := config.Redis.Ping(c.Request.Context()).Err(); err != nil {
				resp["redis"] = "unreachable"
			}
		}
		c.JSON(http.StatusOK, resp)
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Customer routes
		customers := api.Group("/customers")
		{
			customers.POST("", controllers.CreateCustomer)
			customers.GET("", controllers.GetCustomers)
			customers.GET("/pipeline", controllers.GetPipeline)
			customers.GET("/locations", controllers.GetCustomerLocations)
			customers.POST("/geocode", controllers.GeocodeCustomerAddresses)
			customers.GET("/:id", controllers.GetCustomer)
			customers.PUT("/:id", controllers.UpdateCustomer)
			customers.PUT("/:id/stage", controllers.UpdateCustomerStage)
			customers.DELETE("/:id", controllers.DeleteCustomer)
		}

		// Appointment routes
		appointments := api.Group("/appointments")
		{
			appointments.POST("", controllers.CreateAppointment)
			appointments.GET("", controllers.GetAppointments)
			appointments.GET("/availability", controllers.CheckAvailability)
			appointments.GET("/:id", controllers.GetAppointment)
			appointments.PUT("/:id", controllers.UpdateAppointment)
			appointments.DELETE("/:id", controllers.DeleteAppointment)
		}

		// Reminder routes
		reminders := api.Group("/reminders")
		{
			reminders.GET("/logs", controllers.GetReminderLogs)
			reminders.POST("/run", controllers.RunReminderSweep)
		}

		// Ad hoc SMS relay
		api.POST("/send-sms", controllers.SendSMS)

		// Reports routes
		reportController := controllers.ReportController{}
		api.GET("/reports", reportController.GetReportAnalytics)

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)

		// Settings routes
		profile := api.Group("/profile")
		{
			profile.GET("", controllers.GetProfile)
			profile.PUT("", controllers.UpdateProfile)
			profile.PUT("/notifications", controllers.UpdateNotificationSettings)
		}
	}

	return r
}
