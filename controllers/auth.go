package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cliently-backend/config"
	"cliently-backend/models"
	"cliently-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email           string `json:"email" binding:"required,email"`
	Phone           string `json:"phone" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	BusinessName    string `json:"businessName" binding:"required"`
	BusinessAddress string `json:"businessAddress"`
	Timezone        string `json:"timezone"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // Can be email or phone
	Password   string `json:"password" binding:"required"`
}

// controllers/auth.go
func Register(c *gin.Context) {
	var input RegisterInput

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	phone := utils.NormalizePhone(input.Phone)

	// Check if email or phone already exists. Phones are stored normalized,
	// so compare the normalized form.
	var existingUser models.User
	result := config.DB.Where("email = ? OR phone = ?", input.Email, phone).First(&existingUser)

	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	business := models.Business{
		Name:              input.BusinessName,
		Address:           input.BusinessAddress,
		NotificationPhone: phone,
	}
	if input.Timezone != "" {
		business.Timezone = input.Timezone
	}

	newUser := models.User{
		Email:    input.Email,
		Phone:    phone,
		Name:     input.Name,
		Password: input.Password, // Hashed in BeforeCreate hook
		Role:     "owner",
	}

	// Business and owner account land together or not at all.
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&business).Error; err != nil {
			return err
		}
		newUser.BusinessID = business.ID
		return tx.Create(&newUser).Error
	})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, err := utils.GenerateToken(newUser.ID.String(), business.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	maxAge := config.AppConfig.JWTExpiryHours * 3600
	c.SetCookie(
		"token",
		token,
		maxAge,
		"/",
		"",
		true,
		true,
	)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user": gin.H{
			"id":           newUser.ID,
			"email":        newUser.Email,
			"phone":        newUser.Phone,
			"name":         newUser.Name,
			"businessId":   business.ID,
			"businessName": business.Name,
		},
	})
}

func Login(c *gin.Context) {
	var input LoginInput

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	identifier := strings.TrimSpace(input.Identifier)

	// The identifier may be an email or a phone in any format the user
	// typed; phones are stored normalized.
	var user models.User
	result := config.DB.Where("email = ? OR phone = ?", identifier, utils.NormalizePhone(identifier)).First(&user)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !user.IsActive {
		utils.RespondWithError(c, http.StatusUnauthorized, "Account is disabled")
		return
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), user.BusinessID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	now := time.Now()
	config.DB.Model(&user).Update("last_login", &now)

	maxAge := config.AppConfig.JWTExpiryHours * 3600
	c.SetCookie(
		"token",
		token,
		maxAge,
		"/",
		"",
		true,
		true,
	)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"phone":      user.Phone,
			"name":       user.Name,
			"businessId": user.BusinessID,
		},
	})
}

func Me(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusInternalServerError, "User ID not found in context")
		return
	}

	var user models.User
	if err := config.DB.Preload("Business").First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":           user.ID,
			"email":        user.Email,
			"name":         user.Name,
			"phone":        user.Phone,
			"role":         user.Role,
			"businessId":   user.BusinessID,
			"businessName": user.Business.Name,
		},
	})
}
