package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/priya-raman/vitacheck-labs-api/config"
	"github.com/priya-raman/vitacheck-labs-api/middleware"
	"github.com/priya-raman/vitacheck-labs-api/models"
)

// CreateAppointmentRequest represents the request body for booking an
// appointment
type CreateAppointmentRequest struct {
	OrderID         *uint   `json:"orderId"`
	AppointmentType *string `json:"appointmentType"`
	AppointmentDate *string `json:"appointmentDate"`
	AppointmentTime *string `json:"appointmentTime"`
	LabLocation     *string `json:"labLocation"`
	CustomerNotes   *string `json:"customerNotes"`
	Status          *string `json:"status"`
}

// UpdateAppointmentRequest represents the patch body for PUT /api/appointments?id=
type UpdateAppointmentRequest struct {
	AppointmentType    *string `json:"appointmentType"`
	AppointmentDate    *string `json:"appointmentDate"`
	AppointmentTime    *string `json:"appointmentTime"`
	LabLocation        *string `json:"labLocation"`
	TechnicianAssigned *string `json:"technicianAssigned"`
	Status             *string `json:"status"`
	CustomerNotes      *string `json:"customerNotes"`
	TechnicianNotes    *string `json:"technicianNotes"`
}

// GetAppointments handles GET /api/appointments - single appointment with its
// order via ?id=, otherwise a filtered list
func GetAppointments(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	db := config.GetDB()

	if c.Query("id") != "" {
		id, ok := queryID(c)
		if !ok {
			return
		}

		var appointment models.Appointment
		if err := db.Preload("Order").Preload("Order.Items").Preload("Order.Items.Product").
			Where("id = ? AND user_id = ?", id, user.ID).First(&appointment).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				respondError(c, http.StatusNotFound, "Appointment not found", "")
				return
			}
			respondInternalError(c, err)
			return
		}

		c.JSON(http.StatusOK, appointment)
		return
	}

	limit, offset := listParams(c)

	query := db.Model(&models.Appointment{}).Where("user_id = ?", user.ID)

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("technician_assigned LIKE ? OR lab_location LIKE ? OR customer_notes LIKE ?", pattern, pattern, pattern)
	}
	if appointmentType := c.Query("type"); appointmentType != "" && models.IsValidAppointmentType(appointmentType) {
		query = query.Where("appointment_type = ?", appointmentType)
	}
	if status := c.Query("status"); status != "" && models.IsValidAppointmentStatus(status) {
		query = query.Where("status = ?", status)
	}
	if startDate := c.Query("start_date"); startDate != "" {
		query = query.Where("appointment_date >= ?", startDate)
	}
	if endDate := c.Query("end_date"); endDate != "" {
		query = query.Where("appointment_date <= ?", endDate)
	}

	sortField := "appointment_date"
	if c.Query("sort") == "createdAt" {
		sortField = "created_at"
	}

	var results []models.Appointment
	if err := query.Preload("Order").Order(sortField + " " + sortDirection(c)).
		Limit(limit).Offset(offset).Find(&results).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// CreateAppointment handles POST /api/appointments
func CreateAppointment(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	var req CreateAppointmentRequest
	if !bindJSONBody(c, &req) {
		return
	}

	if req.AppointmentType == nil {
		respondError(c, http.StatusBadRequest, "Appointment type is required", "MISSING_APPOINTMENT_TYPE")
		return
	}
	if !models.IsValidAppointmentType(*req.AppointmentType) {
		respondError(c, http.StatusBadRequest, "Invalid appointment type. Must be 'home_collection' or 'lab_visit'", "INVALID_APPOINTMENT_TYPE")
		return
	}
	if req.AppointmentDate == nil {
		respondError(c, http.StatusBadRequest, "Appointment date is required", "MISSING_APPOINTMENT_DATE")
		return
	}
	if !models.IsFutureDate(*req.AppointmentDate) {
		respondError(c, http.StatusBadRequest, "Appointment date must be in the future", "INVALID_APPOINTMENT_DATE")
		return
	}
	if req.AppointmentTime == nil {
		respondError(c, http.StatusBadRequest, "Appointment time is required", "MISSING_APPOINTMENT_TIME")
		return
	}
	if !models.IsValidTimeSlot(*req.AppointmentTime, *req.AppointmentType) {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Invalid time slot for %s. Available slots: %s",
				*req.AppointmentType, strings.Join(models.SlotsForType(*req.AppointmentType), ", ")),
			"INVALID_TIME_SLOT")
		return
	}
	if *req.AppointmentType == "lab_visit" && trimToNil(req.LabLocation) == nil {
		respondError(c, http.StatusBadRequest, "Lab location is required for lab visit appointments", "MISSING_LAB_LOCATION")
		return
	}

	db := config.GetDB()

	// An associated order must belong to the caller
	if req.OrderID != nil {
		var count int64
		if err := db.Model(&models.Order{}).
			Where("id = ? AND user_id = ?", *req.OrderID, user.ID).Count(&count).Error; err != nil {
			respondInternalError(c, err)
			return
		}
		if count == 0 {
			respondError(c, http.StatusBadRequest, "Order not found or does not belong to user", "INVALID_ORDER_ID")
			return
		}
	}

	status := "scheduled"
	if req.Status != nil {
		if !models.IsValidAppointmentStatus(*req.Status) {
			respondError(c, http.StatusBadRequest, "Invalid status", "INVALID_STATUS")
			return
		}
		status = *req.Status
	}

	// Friendly pre-check for double bookings; the partial unique index on
	// active slots is the authoritative guard underneath it
	var conflicts int64
	if err := db.Model(&models.Appointment{}).
		Where("user_id = ? AND appointment_date = ? AND appointment_time = ? AND status IN ?",
			user.ID, strings.TrimSpace(*req.AppointmentDate), strings.TrimSpace(*req.AppointmentTime),
			models.ActiveAppointmentStatuses).
		Count(&conflicts).Error; err != nil {
		respondInternalError(c, err)
		return
	}
	if conflicts > 0 {
		respondError(c, http.StatusConflict, "You already have an appointment scheduled at this time", "TIME_SLOT_CONFLICT")
		return
	}

	appointment := models.Appointment{
		UserID:          user.ID,
		OrderID:         req.OrderID,
		AppointmentType: strings.TrimSpace(*req.AppointmentType),
		AppointmentDate: strings.TrimSpace(*req.AppointmentDate),
		AppointmentTime: strings.TrimSpace(*req.AppointmentTime),
		LabLocation:     trimToNil(req.LabLocation),
		Status:          status,
		CustomerNotes:   trimToNil(req.CustomerNotes),
	}

	if err := db.Create(&appointment).Error; err != nil {
		if isUniqueViolation(err) {
			// The concurrent booking that lost the race lands here
			respondError(c, http.StatusConflict, "You already have an appointment scheduled at this time", "TIME_SLOT_CONFLICT")
			return
		}
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// UpdateAppointment handles PUT /api/appointments?id= - per-field patch;
// status changes are checked against the transition table
func UpdateAppointment(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	id, ok := queryID(c)
	if !ok {
		return
	}

	var req UpdateAppointmentRequest
	if !bindJSONBody(c, &req) {
		return
	}

	db := config.GetDB()

	var existing models.Appointment
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&existing).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(c, http.StatusNotFound, "Appointment not found", "")
			return
		}
		respondInternalError(c, err)
		return
	}

	updates := map[string]interface{}{}

	if req.AppointmentType != nil {
		if !models.IsValidAppointmentType(*req.AppointmentType) {
			respondError(c, http.StatusBadRequest, "Invalid appointment type", "INVALID_APPOINTMENT_TYPE")
			return
		}
		updates["appointment_type"] = strings.TrimSpace(*req.AppointmentType)
	}

	if req.AppointmentDate != nil {
		if !models.IsFutureDate(*req.AppointmentDate) {
			respondError(c, http.StatusBadRequest, "Appointment date must be in the future", "INVALID_APPOINTMENT_DATE")
			return
		}
		updates["appointment_date"] = strings.TrimSpace(*req.AppointmentDate)
	}

	if req.AppointmentTime != nil {
		// Slot validity depends on the effective type: the patched one
		// when present, the stored one otherwise
		typeToCheck := existing.AppointmentType
		if req.AppointmentType != nil {
			typeToCheck = *req.AppointmentType
		}
		if !models.IsValidTimeSlot(*req.AppointmentTime, typeToCheck) {
			respondError(c, http.StatusBadRequest,
				fmt.Sprintf("Invalid time slot for %s. Available slots: %s",
					typeToCheck, strings.Join(models.SlotsForType(typeToCheck), ", ")),
				"INVALID_TIME_SLOT")
			return
		}
		updates["appointment_time"] = strings.TrimSpace(*req.AppointmentTime)
	}

	if req.Status != nil {
		if !models.IsValidAppointmentStatus(*req.Status) {
			respondError(c, http.StatusBadRequest, "Invalid status", "INVALID_STATUS")
			return
		}
		if !models.CanTransitionAppointmentStatus(existing.Status, *req.Status) {
			respondError(c, http.StatusBadRequest,
				fmt.Sprintf("Invalid status transition from '%s' to '%s'", existing.Status, *req.Status),
				"INVALID_STATUS_TRANSITION")
			return
		}
		updates["status"] = *req.Status
	}

	if req.LabLocation != nil {
		updates["lab_location"] = trimToNil(req.LabLocation)
	}
	if req.TechnicianAssigned != nil {
		updates["technician_assigned"] = trimToNil(req.TechnicianAssigned)
	}
	if req.CustomerNotes != nil {
		updates["customer_notes"] = trimToNil(req.CustomerNotes)
	}
	if req.TechnicianNotes != nil {
		updates["technician_notes"] = trimToNil(req.TechnicianNotes)
	}

	if len(updates) > 0 {
		if err := db.Model(&existing).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				respondError(c, http.StatusConflict, "You already have an appointment scheduled at this time", "TIME_SLOT_CONFLICT")
				return
			}
			respondInternalError(c, err)
			return
		}
	}

	var updated models.Appointment
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&updated).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// CancelAppointment handles DELETE /api/appointments?id= - a soft cancel.
// The row persists and the status is set to cancelled unconditionally, even
// from terminal states.
func CancelAppointment(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	id, ok := queryID(c)
	if !ok {
		return
	}

	db := config.GetDB()

	var existing models.Appointment
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&existing).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(c, http.StatusNotFound, "Appointment not found", "")
			return
		}
		respondInternalError(c, err)
		return
	}

	if err := db.Model(&existing).Update("status", "cancelled").Error; err != nil {
		respondInternalError(c, err)
		return
	}

	var cancelled models.Appointment
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&cancelled).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Appointment cancelled successfully",
		"appointment": cancelled,
	})
}
