// controllers/reminder.go
package controllers

import (
	"net/http"
	"strconv"

	"cliently-backend/config"
	"cliently-backend/models"
	"cliently-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetReminderLogs retrieves the business's reminder history, newest first.
// Supports status, recipient and appointmentId filters plus limit/offset
// paging.
func GetReminderLogs(c *gin.Context) {
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

	query := config.DB.Model(&models.ReminderLog{}).Where("business_id = ?", businessUUID)

	if status := c.Query("status"); status != "" {
		if status != models.ReminderSent && status != models.ReminderFailed {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid status filter")
			return
		}
		query = query.Where("status = ?", status)
	}

	if recipient := c.Query("recipient"); recipient != "" {
		if recipient != models.RecipientOwner && recipient != models.RecipientCustomer {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid recipient filter")
			return
		}
		query = query.Where("recipient = ?", recipient)
	}

	if appointmentParam := c.Query("appointmentId"); appointmentParam != "" {
		appointmentUUID, err := uuid.Parse(appointmentParam)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
			return
		}
		query = query.Where("appointment_id = ?", appointmentUUID)
	}

	limit := 50
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		if parsed > 200 {
			parsed = 200
		}
		limit = parsed
	}

	offset := 0
	if offsetParam := c.Query("offset"); offsetParam != "" {
		parsed, err := strconv.Atoi(offsetParam)
		if err != nil || parsed < 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid offset")
			return
		}
		offset = parsed
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to count reminder logs")
		return
	}

	var logs []models.ReminderLog
	if err := query.Order("sent_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reminder logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// RunReminderSweep kicks off a reminder sweep in the background. The sweep
// itself dedupes, so triggering twice cannot double-text anyone.
func RunReminderSweep(c *gin.Context) {
	if reminders == nil {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Reminder service is not available")
		return
	}

	if reminders.Running() {
		c.JSON(http.StatusConflict, gin.H{"error": "A reminder sweep is already running"})
		return
	}

	go reminders.RunSweep()

	c.JSON(http.StatusAccepted, gin.H{"message": "Reminder sweep started"})
}
