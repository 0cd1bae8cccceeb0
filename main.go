package main

import (
	"fmt"

	"cliently-backend/config"
	"cliently-backend/controllers"
	"cliently-backend/models"
	"cliently-backend/routes"
	"cliently-backend/services"
	"cliently-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found")
	}

	utils.InitializeLogger()

	if err := config.Load(); err != nil {
		zap.L().Fatal("Invalid configuration", zap.Error(err))
	}

	config.ConnectDB()

	if err := config.DB.AutoMigrate(
		&models.Business{},
		&models.User{},
		&models.Customer{},
		&models.Appointment{},
		&models.ReminderLog{},
	); err != nil {
		zap.L().Fatal("Failed to run migrations", zap.Error(err))
	}

	config.ConnectRedis()
}

func main() {
	defer func() {
		_ = zap.L().Sync()
	}()

	sender := services.NewTwilioSender()
	if !sender.Configured() {
		zap.L().Warn("Twilio credentials missing, SMS sending is disabled")
	}

	reminderService := services.NewReminderService(config.DB, sender, config.Redis)
	geocodeService := services.NewGeocodeService(config.Redis)
	controllers.InitServices(geocodeService, reminderService, sender)

	reminderService.StartScheduler()
	defer reminderService.StopScheduler()

	r := routes.SetupRouter()
	printRoutes(r)

	zap.L().Info("Server listening", zap.String("port", config.AppConfig.Port))
	if err := r.Run(":" + config.AppConfig.Port); err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
