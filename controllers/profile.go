package controllers

import (
	"net/http"
	"time"

	"cliently-backend/config"
	"cliently-backend/models"
	"cliently-backend/utils"

	"github.com/gin-gonic/gin"
)

type UpdateProfileInput struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	BusinessName    string `json:"businessName"`
	BusinessAddress string `json:"businessAddress"`
}

func GetProfile(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var user models.User
	if err := config.DB.Preload("Business").First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":                user.Name,
		"phone":               user.Phone,
		"email":               user.Email,
		"role":                user.Role,
		"businessName":        user.Business.Name,
		"businessAddress":     user.Business.Address,
		"notificationPhone":   user.Business.NotificationPhone,
		"smsRemindersEnabled": user.Business.SMSRemindersEnabled,
		"timezone":            user.Business.Timezone,
	})
}

func UpdateProfile(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var user models.User
	if err := config.DB.Preload("Business").First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Phone != "" {
		if !utils.ValidatePhone(input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		user.Phone = utils.NormalizePhone(input.Phone)
	}
	if input.Email != "" {
		user.Email = input.Email
	}

	if err := config.DB.Save(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	if input.BusinessName != "" || input.BusinessAddress != "" {
		updates := map[string]interface{}{}
		if input.BusinessName != "" {
			updates["name"] = input.BusinessName
		}
		if input.BusinessAddress != "" {
			updates["address"] = input.BusinessAddress
		}
		if err := config.DB.Model(&models.Business{}).Where("id = ?", user.BusinessID).
			Updates(updates).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update business")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

func UpdateNotificationSettings(c *gin.Context) {
	businessID, exists := c.Get("businessId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Business ID not found")
		return
	}

	var input struct {
		NotificationPhone   *string `json:"notificationPhone"`
		SMSRemindersEnabled *bool   `json:"smsRemindersEnabled"`
		Timezone            *string `json:"timezone"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	updates := map[string]interface{}{}

	if input.NotificationPhone != nil {
		if *input.NotificationPhone == "" {
			updates["notification_phone"] = ""
		} else {
			if !utils.ValidatePhone(*input.NotificationPhone) {
				utils.RespondWithError(c, http.StatusBadRequest, "Invalid notification phone format")
				return
			}
			updates["notification_phone"] = utils.NormalizePhone(*input.NotificationPhone)
		}
	}
	if input.SMSRemindersEnabled != nil {
		updates["sms_reminders_enabled"] = *input.SMSRemindersEnabled
	}
	if input.Timezone != nil {
		if _, err := time.LoadLocation(*input.Timezone); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Unknown timezone")
			return
		}
		updates["timezone"] = *input.Timezone
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Nothing to update"})
		return
	}

	if err := config.DB.Model(&models.Business{}).Where("id = ?", businessID).
		Updates(updates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update notification settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification settings updated"})
}
