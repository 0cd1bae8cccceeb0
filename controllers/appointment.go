package controllers

import (
	"errors"
	"net/http"
	"time"

	"cliently-backend/config"
	"cliently-backend/models"
	"cliently-backend/services"
	"cliently-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateAppointmentInput struct {
	CustomerID uuid.UUID `json:"customerId" binding:"required"`
	Title      string    `json:"title"`
	Notes      string    `json:"notes"`
	StartTime  time.Time `json:"startTime" binding:"required"`
}

type UpdateAppointmentInput struct {
	CustomerID *uuid.UUID `json:"customerId"`
	Title      *string    `json:"title"`
	Notes      *string    `json:"notes"`
	StartTime  *time.Time `json:"startTime"`
}

func conflictPayload(conflicts []models.Appointment) []gin.H {
	out := make([]gin.H, 0, len(conflicts))
	for _, a := range conflicts {
		out = append(out, gin.H{
			"id":        a.ID,
			"startTime": a.StartTime,
			"endTime":   a.EndTime,
			"title":     a.Title,
		})
	}
	return out
}

// CreateAppointment books a fixed-length appointment after checking the
// slot is free
func CreateAppointment(c *gin.Context) {
	businessID, exists := c.Get("businessId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Business ID not found in context")
		return
	}
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	businessUUID, err := uuid.Parse(businessID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid business ID format")
		return
	}

	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.StartTime.Before(time.Now()) {
		utils.RespondWithError(c, http.StatusBadRequest, "Appointment start time must be in the future")
		return
	}

	var customer models.Customer
	if err := config.DB.Where("business_id = ? AND id = ?", businessUUID, input.CustomerID).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	// End time is always derived server-side, never taken from the client.
	startTime := input.StartTime
	endTime := startTime.Add(models.AppointmentDuration)

	conflicts, err := services.ConflictingAppointments(config.DB, businessUUID, startTime, endTime, uuid.Nil)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to check availability")
		return
	}
	if len(conflicts) > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Time slot is already booked",
			"conflicts": conflictPayload(conflicts),
		})
		return
	}

	appointment := models.Appointment{
		ID:              uuid.New(),
		BusinessID:      businessUUID,
		CustomerID:      customer.ID,
		CreatedByUserID: uuid.Must(uuid.Parse(userID.(string))),
		Title:           input.Title,
		Notes:           input.Notes,
		StartTime:       startTime,
		EndTime:         endTime,
	}

	if err := config.DB.Create(&appointment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create appointment")
		return
	}

	appointment.Customer = customer
	c.JSON(http.StatusCreated, appointment)
}

// GetAppointments lists the business's appointments, optionally bounded by
// from/to (RFC3339) or filtered to one customer
func GetAppointments(c *gin.Context) {
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

	query := config.DB.Preload("Customer").Where("business_id = ?", businessUUID)

	if fromParam := c.Query("from"); fromParam != "" {
		from, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid 'from' timestamp, expected RFC3339")
			return
		}
		query = query.Where("start_time >= ?", from)
	}

	if toParam := c.Query("to"); toParam != "" {
		to, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid 'to' timestamp, expected RFC3339")
			return
		}
		query = query.Where("start_time < ?", to)
	}

	if customerParam := c.Query("customerId"); customerParam != "" {
		customerUUID, err := uuid.Parse(customerParam)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
			return
		}
		query = query.Where("customer_id = ?", customerUUID)
	}

	var appointments []models.Appointment
	if err := query.Order("start_time").Find(&appointments).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve appointments")
		return
	}

	c.JSON(http.StatusOK, appointments)
}

// CheckAvailability reports whether a one-hour slot starting at startTime
// is free, along with whatever it collides with
func CheckAvailability(c *gin.Context) {
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

	startParam := c.Query("startTime")
	if startParam == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Missing 'startTime' query parameter")
		return
	}
	startTime, err := time.Parse(time.RFC3339, startParam)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid 'startTime' timestamp, expected RFC3339")
		return
	}

	excludeID := uuid.Nil
	if excludeParam := c.Query("excludeId"); excludeParam != "" {
		excludeID, err = uuid.Parse(excludeParam)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid exclude ID format")
			return
		}
	}

	endTime := startTime.Add(models.AppointmentDuration)
	conflicts, err := services.ConflictingAppointments(config.DB, businessUUID, startTime, endTime, excludeID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to check availability")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"available": len(conflicts) == 0,
		"startTime": startTime,
		"endTime":   endTime,
		"conflicts": conflictPayload(conflicts),
	})
}

// GetAppointment retrieves a specific appointment by ID
func GetAppointment(c *gin.Context) {
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

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	var appointment models.Appointment
	if err := config.DB.Preload("Customer").
		Where("business_id = ? AND id = ?", businessUUID, appointmentUUID).
		First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// UpdateAppointment edits an appointment. Moving it re-runs the
// availability check against everything except the appointment itself
func UpdateAppointment(c *gin.Context) {
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

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	var input UpdateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var appointment models.Appointment
	if err := config.DB.Where("business_id = ? AND id = ?", businessUUID, appointmentUUID).
		First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.CustomerID != nil {
		var customer models.Customer
		if err := config.DB.Where("business_id = ? AND id = ?", businessUUID, *input.CustomerID).
			First(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
		appointment.CustomerID = customer.ID
	}
	if input.Title != nil {
		appointment.Title = *input.Title
	}
	if input.Notes != nil {
		appointment.Notes = *input.Notes
	}
	if input.StartTime != nil && !input.StartTime.Equal(appointment.StartTime) {
		startTime := *input.StartTime
		if startTime.Before(time.Now()) {
			utils.RespondWithError(c, http.StatusBadRequest, "Appointment start time must be in the future")
			return
		}
		endTime := startTime.Add(models.AppointmentDuration)

		conflicts, err := services.ConflictingAppointments(config.DB, businessUUID, startTime, endTime, appointment.ID)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to check availability")
			return
		}
		if len(conflicts) > 0 {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "Time slot is already booked",
				"conflicts": conflictPayload(conflicts),
			})
			return
		}

		appointment.StartTime = startTime
		appointment.EndTime = endTime
	}

	if err := config.DB.Save(&appointment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update appointment")
		return
	}

	config.DB.Preload("Customer").First(&appointment, "id = ?", appointment.ID)
	c.JSON(http.StatusOK, appointment)
}

// DeleteAppointment cancels an appointment. Cancelled rows are removed
// outright, freeing the slot immediately
func DeleteAppointment(c *gin.Context) {
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

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	result := config.DB.Where("business_id = ? AND id = ?", businessUUID, appointmentUUID).
		Delete(&models.Appointment{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete appointment")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}
