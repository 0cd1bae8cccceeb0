package controllers

import (
	"errors"
	"io"
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

// CreateCustomerInput defines the expected JSON structure for creating a customer
type CreateCustomerInput struct {
	FullName      string  `json:"fullName" binding:"required"`
	Phone         string  `json:"phone"`
	Email         *string `json:"email"`
	Address       string  `json:"address"`
	PipelineStage string  `json:"pipelineStage"`
	Notes         string  `json:"notes"`
}

// UpdateCustomerInput defines the expected JSON structure for updating a customer
type UpdateCustomerInput struct {
	FullName        *string    `json:"fullName"`
	Phone           *string    `json:"phone"`
	Email           *string    `json:"email"`
	Address         *string    `json:"address"`
	PipelineStage   *string    `json:"pipelineStage"`
	Notes           *string    `json:"notes"`
	LastContactedAt *time.Time `json:"lastContactedAt"`
}

type UpdateStageInput struct {
	Stage string `json:"stage" binding:"required"`
}

// GeocodeCustomersInput selects which customers to geocode. Empty means
// every customer with an address and no stored coordinates.
type GeocodeCustomersInput struct {
	CustomerIDs []uuid.UUID `json:"customerIds"`
}

// CreateCustomer creates a new customer for the business
func CreateCustomer(c *gin.Context) {
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

	var input CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	stage := models.StageNew
	if input.PipelineStage != "" {
		if !models.ValidPipelineStage(input.PipelineStage) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid pipeline stage")
			return
		}
		stage = input.PipelineStage
	}

	phone := ""
	if input.Phone != "" {
		if !utils.ValidatePhone(input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		phone = utils.NormalizePhone(input.Phone)

		// Check if phone already exists for this business
		var existingCustomer models.Customer
		if err := config.DB.Where("business_id = ? AND phone = ?", businessUUID, phone).
			First(&existingCustomer).Error; err == nil {
			utils.RespondWithError(c, http.StatusConflict, "Customer with this phone number already exists")
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
	}

	customer := models.Customer{
		ID:              uuid.New(),
		BusinessID:      businessUUID,
		CreatedByUserID: uuid.Must(uuid.Parse(userID.(string))),
		FullName:        input.FullName,
		Phone:           phone,
		Address:         input.Address,
		PipelineStage:   stage,
		Notes:           input.Notes,
	}

	if input.Email != nil {
		customer.Email = *input.Email
	}

	if err := config.DB.Create(&customer).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create customer")
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// GetCustomers retrieves the business's customers, optionally filtered by
// pipeline stage or a name/phone/email search term
func GetCustomers(c *gin.Context) {
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

	query := config.DB.Where("business_id = ?", businessUUID)

	if stage := c.Query("stage"); stage != "" {
		if !models.ValidPipelineStage(stage) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid pipeline stage")
			return
		}
		query = query.Where("pipeline_stage = ?", stage)
	}

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("full_name ILIKE ? OR phone ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
	}

	var customers []models.Customer
	if err := query.Order("created_at DESC").Find(&customers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}

	c.JSON(http.StatusOK, customers)
}

// GetCustomer retrieves a specific customer by ID
func GetCustomer(c *gin.Context) {
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

	customerUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	var customer models.Customer
	if err := config.DB.Preload("Appointments").
		Where("business_id = ? AND id = ?", businessUUID, customerUUID).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer updates an existing customer
func UpdateCustomer(c *gin.Context) {
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

	customerUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	var input UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var customer models.Customer
	if err := config.DB.Where("business_id = ? AND id = ?", businessUUID, customerUUID).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.FullName != nil {
		customer.FullName = *input.FullName
	}
	if input.Phone != nil {
		if *input.Phone == "" {
			customer.Phone = ""
		} else {
			if !utils.ValidatePhone(*input.Phone) {
				utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
				return
			}
			normalized := utils.NormalizePhone(*input.Phone)

			// Check if phone is being changed to another existing customer
			if customer.Phone != normalized {
				var existingCustomer models.Customer
				if err := config.DB.Where("business_id = ? AND phone = ? AND id != ?", businessUUID, normalized, customerUUID).
					First(&existingCustomer).Error; err == nil {
					utils.RespondWithError(c, http.StatusConflict, "Another customer with this phone number already exists")
					return
				} else if !errors.Is(err, gorm.ErrRecordNotFound) {
					utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
					return
				}
			}
			customer.Phone = normalized
		}
	}
	if input.Email != nil {
		customer.Email = *input.Email
	}
	if input.Address != nil && *input.Address != customer.Address {
		customer.Address = *input.Address
		// Stored coordinates belong to the old address.
		customer.Latitude = nil
		customer.Longitude = nil
	}
	if input.PipelineStage != nil {
		if !models.ValidPipelineStage(*input.PipelineStage) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid pipeline stage")
			return
		}
		customer.PipelineStage = *input.PipelineStage
	}
	if input.Notes != nil {
		customer.Notes = *input.Notes
	}
	if input.LastContactedAt != nil {
		customer.LastContactedAt = input.LastContactedAt
	}

	if err := config.DB.Save(&customer).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update customer")
		return
	}

	c.JSON(http.StatusOK, customer)
}

// UpdateCustomerStage moves a customer to another pipeline stage
func UpdateCustomerStage(c *gin.Context) {
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

	customerUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	var input UpdateStageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if !models.ValidPipelineStage(input.Stage) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid pipeline stage")
		return
	}

	var customer models.Customer
	if err := config.DB.Where("business_id = ? AND id = ?", businessUUID, customerUUID).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	customer.PipelineStage = input.Stage
	if err := config.DB.Save(&customer).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update customer stage")
		return
	}

	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer removes a customer and cancels their appointments
func DeleteCustomer(c *gin.Context) {
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

	customerUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	var customer models.Customer
	if err := config.DB.Where("business_id = ? AND id = ?", businessUUID, customerUUID).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		// Their appointments go too, so the reminder sweep and the calendar
		// never see orphaned slots.
		if err := tx.Where("business_id = ? AND customer_id = ?", businessUUID, customerUUID).
			Delete(&models.Appointment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&customer).Error
	})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted"})
}

// GetPipeline returns the business's customers grouped by pipeline stage,
// in board order
func GetPipeline(c *gin.Context) {
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

	var customers []models.Customer
	if err := config.DB.Where("business_id = ?", businessUUID).
		Order("created_at DESC").Find(&customers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}

	grouped := make(map[string][]models.Customer, len(models.PipelineStages))
	for _, customer := range customers {
		grouped[customer.PipelineStage] = append(grouped[customer.PipelineStage], customer)
	}

	stages := make([]gin.H, 0, len(models.PipelineStages))
	for _, stage := range models.PipelineStages {
		members := grouped[stage]
		if members == nil {
			members = []models.Customer{}
		}
		stages = append(stages, gin.H{
			"stage":     stage,
			"count":     len(members),
			"customers": members,
		})
	}

	c.JSON(http.StatusOK, gin.H{"stages": stages, "total": len(customers)})
}

// GetCustomerLocations returns every customer with stored coordinates, for
// the map view
func GetCustomerLocations(c *gin.Context) {
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

	var customers []models.Customer
	if err := config.DB.Where("business_id = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", businessUUID).
		Find(&customers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customer locations")
		return
	}

	locations := make([]gin.H, 0, len(customers))
	for _, customer := range customers {
		locations = append(locations, gin.H{
			"id":            customer.ID,
			"fullName":      customer.FullName,
			"address":       customer.Address,
			"latitude":      customer.Latitude,
			"longitude":     customer.Longitude,
			"pipelineStage": customer.PipelineStage,
		})
	}

	c.JSON(http.StatusOK, locations)
}

// GeocodeCustomerAddresses resolves coordinates for customers with a street
// address. Failures are reported per customer, never aborting the batch.
func GeocodeCustomerAddresses(c *gin.Context) {
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

	if geocoder == nil {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Geocoding service is not available")
		return
	}

	var input GeocodeCustomersInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	query := config.DB.Where("business_id = ? AND address != ''", businessUUID)
	if len(input.CustomerIDs) > 0 {
		query = query.Where("id IN ?", input.CustomerIDs)
	} else {
		query = query.Where("latitude IS NULL")
	}

	var customers []models.Customer
	if err := query.Find(&customers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}

	geocoded := 0
	notFound := []uuid.UUID{}
	failed := []uuid.UUID{}

	for i := range customers {
		customer := &customers[i]
		result, err := geocoder.Geocode(c.Request.Context(), customer.Address)
		if err != nil {
			if errors.Is(err, services.ErrAddressNotFound) {
				notFound = append(notFound, customer.ID)
			} else {
				failed = append(failed, customer.ID)
			}
			continue
		}

		customer.Latitude = &result.Latitude
		customer.Longitude = &result.Longitude
		if err := config.DB.Model(customer).
			Updates(map[string]interface{}{"latitude": result.Latitude, "longitude": result.Longitude}).Error; err != nil {
			failed = append(failed, customer.ID)
			continue
		}
		geocoded++
	}

	c.JSON(http.StatusOK, gin.H{
		"requested": len(customers),
		"geocoded":  geocoded,
		"notFound":  notFound,
		"failed":    failed,
	})
}
