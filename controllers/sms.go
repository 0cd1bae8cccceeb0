// controllers/sms.go
package controllers

import (
	"net/http"

	"cliently-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SendSMSInput struct {
	To      string `json:"to" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// SendSMS relays a one-off text message through the SMS provider, for ad
// hoc customer outreach from the app
func SendSMS(c *gin.Context) {
	var input SendSMSInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if !utils.ValidatePhone(input.To) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	if smsSender == nil || !smsSender.Configured() {
		utils.RespondWithError(c, http.StatusInternalServerError, "SMS provider is not configured")
		return
	}

	result, err := smsSender.SendSMS(input.To, input.Message)
	if err != nil {
		zap.L().Error("Failed to relay SMS", zap.String("to", input.To), zap.Error(err))
		// Provider detail goes back to the caller so delivery problems
		// are debuggable from the app.
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"messageId": result.MessageSID,
		"status":    result.Status,
	})
}
