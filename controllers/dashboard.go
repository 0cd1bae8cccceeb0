package controllers

import (
	"fmt"
	"net/http"
	"time"

	"cliently-backend/config"
	"cliently-backend/models"
	"cliently-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UpcomingAppointment struct {
	ID           uuid.UUID `json:"id"`
	CustomerName string    `json:"customerName"`
	Title        string    `json:"title"`
	StartTime    time.Time `json:"startTime"`
	When         string    `json:"when"` // e.g. "Today", "Tomorrow", "3 days"
}

type RecentReminder struct {
	CustomerName string    `json:"customerName"`
	Recipient    string    `json:"recipient"`
	Status       string    `json:"status"`
	SentAt       time.Time `json:"sentAt"`
}

func GetDashboardOverview(c *gin.Context) {
	businessID, exists := c.Get("businessId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Business ID not found in context")
		return
	}
	businessUUID, err := uuid.Parse(businessID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid business ID format")
		return
	}

	var business models.Business
	if err := config.DB.First(&business, "id = ?", businessUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Business not found")
		return
	}

	loc := utils.LocationOrUTC(business.Timezone)
	now := time.Now().In(loc)
	todayStart := utils.BeginningOfDay(now)
	todayEnd := todayStart.AddDate(0, 0, 1)
	weekEnd := todayStart.AddDate(0, 0, 7)

	// Total customers
	var totalCustomers int64
	config.DB.Model(&models.Customer{}).
		Where("business_id = ? AND deleted_at IS NULL", businessUUID).Count(&totalCustomers)

	// Customers per pipeline stage, in board order
	type stageRow struct {
		PipelineStage string
		Count         int64
	}
	var stageRows []stageRow
	config.DB.Model(&models.Customer{}).
		Select("pipeline_stage, COUNT(*) as count").
		Where("business_id = ? AND deleted_at IS NULL", businessUUID).
		Group("pipeline_stage").Scan(&stageRows)

	stageCounts := make(map[string]int64, len(stageRows))
	for _, row := range stageRows {
		stageCounts[row.PipelineStage] = row.Count
	}
	pipeline := make([]gin.H, 0, len(models.PipelineStages))
	for _, stage := range models.PipelineStages {
		pipeline = append(pipeline, gin.H{"stage": stage, "count": stageCounts[stage]})
	}

	// Today's appointments
	var todaysAppointments []models.Appointment
	config.DB.Preload("Customer").
		Where("business_id = ? AND start_time >= ? AND start_time < ?", businessUUID, todayStart, todayEnd).
		Order("start_time").Find(&todaysAppointments)

	today := make([]UpcomingAppointment, 0, len(todaysAppointments))
	for _, a := range todaysAppointments {
		today = append(today, UpcomingAppointment{
			ID:           a.ID,
			CustomerName: a.Customer.FullName,
			Title:        a.Title,
			StartTime:    a.StartTime,
			When:         "Today",
		})
	}

	// Next 7 days
	var weekAppointments []models.Appointment
	config.DB.Preload("Customer").
		Where("business_id = ? AND start_time >= ? AND start_time < ?", businessUUID, todayEnd, weekEnd).
		Order("start_time").Limit(10).Find(&weekAppointments)

	upcoming := make([]UpcomingAppointment, 0, len(weekAppointments))
	for _, a := range weekAppointments {
		daysUntil := int(a.StartTime.In(loc).Sub(todayStart).Hours() / 24)
		var when string
		switch daysUntil {
		case 0:
			when = "Today"
		case 1:
			when = "Tomorrow"
		default:
			when = fmt.Sprintf("%d days", daysUntil)
		}
		upcoming = append(upcoming, UpcomingAppointment{
			ID:           a.ID,
			CustomerName: a.Customer.FullName,
			Title:        a.Title,
			StartTime:    a.StartTime,
			When:         when,
		})
	}

	// Reminder activity over the last 7 days
	weekAgo := now.AddDate(0, 0, -7)
	var remindersSent, remindersFailed int64
	config.DB.Model(&models.ReminderLog{}).
		Where("business_id = ? AND status = ? AND sent_at >= ?", businessUUID, models.ReminderSent, weekAgo).
		Count(&remindersSent)
	config.DB.Model(&models.ReminderLog{}).
		Where("business_id = ? AND status = ? AND sent_at >= ?", businessUUID, models.ReminderFailed, weekAgo).
		Count(&remindersFailed)

	var recentReminders []RecentReminder
	config.DB.Raw(`
        SELECT c.full_name AS customer_name, r.recipient, r.status, r.sent_at
        FROM reminder_logs r
        JOIN customers c ON c.id = r.customer_id
        WHERE r.business_id = ?
        ORDER BY r.sent_at DESC
        LIMIT 5
    `, businessUUID).Scan(&recentReminders)

	c.JSON(http.StatusOK, gin.H{
		"totalCustomers": totalCustomers,
		"pipeline":       pipeline,
		"todaysAppointments": gin.H{
			"count": len(today),
			"list":  today,
		},
		"upcomingAppointments": gin.H{
			"count": len(upcoming),
			"list":  upcoming,
		},
		"reminders": gin.H{
			"sentLast7Days":   remindersSent,
			"failedLast7Days": remindersFailed,
			"recent":          recentReminders,
		},
	})
}
