package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/priya-raman/vitacheck-labs-api/config"
	"github.com/priya-raman/vitacheck-labs-api/middleware"
	"github.com/priya-raman/vitacheck-labs-api/models"
)

// CreateOrderRequest represents the request body for placing an order from
// the caller's cart
type CreateOrderRequest struct {
	CollectionType     *string `json:"collectionType"`
	CollectionDate     *string `json:"collectionDate"`
	CollectionTimeSlot *string `json:"collectionTimeSlot"`
	CustomerName       *string `json:"customerName"`
	CustomerPhone      *string `json:"customerPhone"`
	CustomerAddress    *string `json:"customerAddress"`
	CustomerCity       *string `json:"customerCity"`
	CustomerPincode    *string `json:"customerPincode"`
	PaymentMethod      *string `json:"paymentMethod"`
	Notes              *string `json:"notes"`
}

// UpdateOrderRequest represents the patch body for PUT /api/orders?id=
type UpdateOrderRequest struct {
	Status             *string `json:"status"`
	PaymentStatus      *string `json:"paymentStatus"`
	PaymentMethod      *string `json:"paymentMethod"`
	CollectionDate     *string `json:"collectionDate"`
	CollectionTimeSlot *string `json:"collectionTimeSlot"`
	CustomerName       *string `json:"customerName"`
	CustomerPhone      *string `json:"customerPhone"`
	CustomerAddress    *string `json:"customerAddress"`
	CustomerCity       *string `json:"customerCity"`
	CustomerPincode    *string `json:"customerPincode"`
	Notes              *string `json:"notes"`
}

var errEmptyCart = errors.New("cart is empty")

// nextOrderSequence returns the next 1-based sequence number for the given
// day by inspecting the highest existing order number with that day's prefix.
// Counting rows instead would repeat a suffix after a same-day order is
// deleted.
func nextOrderSequence(tx *gorm.DB, now time.Time) (int64, error) {
	prefix := models.OrderNumberPrefix(now)

	var latest models.Order
	err := tx.Select("order_number").
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}

	seq, err := strconv.ParseInt(strings.TrimPrefix(latest.OrderNumber, prefix), 10, 64)
	if err != nil {
		return 0, err
	}
	return seq + 1, nil
}

// orderCreateAttempts bounds the retry loop for same-day order-number
// collisions under concurrent creation
const orderCreateAttempts = 3

// GetOrders handles GET /api/orders - single order with line items via ?id=,
// otherwise a filtered list
func GetOrders(c *gin.Context) {
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

		var order models.Order
		if err := db.Preload("Items").Preload("Items.Product").
			Where("id = ? AND user_id = ?", id, user.ID).First(&order).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				respondError(c, http.StatusNotFound, "Order not found", "")
				return
			}
			respondInternalError(c, err)
			return
		}

		c.JSON(http.StatusOK, order)
		return
	}

	limit, offset := listParams(c)

	query := db.Model(&models.Order{}).Where("user_id = ?", user.ID)

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("order_number LIKE ? OR customer_name LIKE ? OR customer_phone LIKE ?", pattern, pattern, pattern)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if paymentStatus := c.Query("payment_status"); paymentStatus != "" {
		query = query.Where("payment_status = ?", paymentStatus)
	}

	sortField := "created_at"
	switch c.Query("sort") {
	case "totalAmount":
		sortField = "total_amount"
	case "status":
		sortField = "status"
	case "paymentStatus":
		sortField = "payment_status"
	}

	var results []models.Order
	if err := query.Order(sortField + " " + sortDirection(c)).Limit(limit).Offset(offset).Find(&results).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// CreateOrder handles POST /api/orders - snapshots the caller's cart into an
// order plus line items and empties the cart, all in one transaction
func CreateOrder(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	var req CreateOrderRequest
	if !bindJSONBody(c, &req) {
		return
	}

	if req.CustomerName == nil || len(strings.TrimSpace(*req.CustomerName)) < 2 {
		respondError(c, http.StatusBadRequest, "Customer name is required and must be at least 2 characters", "INVALID_CUSTOMER_NAME")
		return
	}
	if req.CustomerPhone == nil || !models.IsValidPhone(*req.CustomerPhone) {
		respondError(c, http.StatusBadRequest, "Valid customer phone number is required", "INVALID_PHONE")
		return
	}
	if req.CollectionType == nil || !models.IsValidCollectionType(*req.CollectionType) {
		respondError(c, http.StatusBadRequest, "Collection type must be 'home_collection' or 'lab_visit'", "INVALID_COLLECTION_TYPE")
		return
	}
	if *req.CollectionType == "home_collection" && req.CollectionDate == nil {
		respondError(c, http.StatusBadRequest, "Collection date is required for home collection", "MISSING_COLLECTION_DATE")
		return
	}
	if req.CollectionDate != nil && !models.IsFutureDate(*req.CollectionDate) {
		respondError(c, http.StatusBadRequest, "Collection date must be in the future", "INVALID_COLLECTION_DATE")
		return
	}

	db := config.GetDB()

	var order models.Order

	// Two concurrent creations on the same day can race to the same
	// sequence number; the unique index on order_number turns the loser
	// into a retry of the whole transaction.
	var txErr error
	for attempt := 0; attempt < orderCreateAttempts; attempt++ {
		order = models.Order{}
		txErr = db.Transaction(func(tx *gorm.DB) error {
			var cartLines []models.CartItem
			if err := tx.Preload("Product").Where("user_id = ?", user.ID).Find(&cartLines).Error; err != nil {
				return err
			}
			if len(cartLines) == 0 {
				return errEmptyCart
			}

			totalAmount := 0.0
			for _, line := range cartLines {
				totalAmount += line.Product.Price * float64(line.Quantity)
			}

			now := time.Now()
			nextSeq, err := nextOrderSequence(tx, now)
			if err != nil {
				return err
			}

			order = models.Order{
				UserID:             user.ID,
				OrderNumber:        models.FormatOrderNumber(now, nextSeq),
				TotalAmount:        totalAmount,
				Status:             "pending",
				PaymentStatus:      "pending",
				PaymentMethod:      trimToNil(req.PaymentMethod),
				CollectionType:     *req.CollectionType,
				CollectionDate:     trimToNil(req.CollectionDate),
				CollectionTimeSlot: trimToNil(req.CollectionTimeSlot),
				CustomerName:       strings.TrimSpace(*req.CustomerName),
				CustomerPhone:      strings.TrimSpace(*req.CustomerPhone),
				CustomerAddress:    trimToNil(req.CustomerAddress),
				CustomerCity:       trimToNil(req.CustomerCity),
				CustomerPincode:    trimToNil(req.CustomerPincode),
				Notes:              trimToNil(req.Notes),
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}

			// Snapshot the cart at today's prices
			for _, line := range cartLines {
				item := models.OrderItem{
					OrderID:    order.ID,
					ProductID:  line.ProductID,
					Quantity:   line.Quantity,
					UnitPrice:  line.Product.Price,
					TotalPrice: line.Product.Price * float64(line.Quantity),
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
			}

			return tx.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error
		})

		if txErr == nil || !isUniqueViolation(txErr) {
			break
		}
	}

	if txErr != nil {
		if txErr == errEmptyCart {
			respondError(c, http.StatusBadRequest, "Cart is empty. Cannot create order.", "EMPTY_CART")
			return
		}
		respondInternalError(c, txErr)
		return
	}

	var created models.Order
	if err := db.Preload("Items").Preload("Items.Product").First(&created, order.ID).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateOrder handles PUT /api/orders?id= - per-field patch validation, no
// transition table on status (orders get administratively corrected)
func UpdateOrder(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	id, ok := queryID(c)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if !bindJSONBody(c, &req) {
		return
	}

	db := config.GetDB()

	var existing models.Order
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&existing).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(c, http.StatusNotFound, "Order not found", "")
			return
		}
		respondInternalError(c, err)
		return
	}

	updates := map[string]interface{}{}

	if req.Status != nil {
		if !models.IsValidOrderStatus(*req.Status) {
			respondError(c, http.StatusBadRequest, "Invalid status value", "INVALID_STATUS")
			return
		}
		updates["status"] = *req.Status
	}
	if req.PaymentStatus != nil {
		if !models.IsValidPaymentStatus(*req.PaymentStatus) {
			respondError(c, http.StatusBadRequest, "Invalid payment status value", "INVALID_PAYMENT_STATUS")
			return
		}
		updates["payment_status"] = *req.PaymentStatus
	}
	if req.CustomerName != nil {
		if len(strings.TrimSpace(*req.CustomerName)) < 2 {
			respondError(c, http.StatusBadRequest, "Customer name must be at least 2 characters", "INVALID_CUSTOMER_NAME")
			return
		}
		updates["customer_name"] = strings.TrimSpace(*req.CustomerName)
	}
	if req.CustomerPhone != nil {
		if !models.IsValidPhone(*req.CustomerPhone) {
			respondError(c, http.StatusBadRequest, "Valid customer phone number is required", "INVALID_PHONE")
			return
		}
		updates["customer_phone"] = strings.TrimSpace(*req.CustomerPhone)
	}
	if req.PaymentMethod != nil {
		updates["payment_method"] = trimToNil(req.PaymentMethod)
	}
	if req.CollectionDate != nil {
		updates["collection_date"] = trimToNil(req.CollectionDate)
	}
	if req.CollectionTimeSlot != nil {
		updates["collection_time_slot"] = trimToNil(req.CollectionTimeSlot)
	}
	if req.CustomerAddress != nil {
		updates["customer_address"] = trimToNil(req.CustomerAddress)
	}
	if req.CustomerCity != nil {
		updates["customer_city"] = trimToNil(req.CustomerCity)
	}
	if req.CustomerPincode != nil {
		updates["customer_pincode"] = trimToNil(req.CustomerPincode)
	}
	if req.Notes != nil {
		updates["notes"] = trimToNil(req.Notes)
	}

	if len(updates) > 0 {
		if err := db.Model(&existing).Updates(updates).Error; err != nil {
			respondInternalError(c, err)
			return
		}
	}

	var updated models.Order
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&updated).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteOrder handles DELETE /api/orders?id= - hard delete, line items first
func DeleteOrder(c *gin.Context) {
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

	var existing models.Order
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&existing).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(c, http.StatusNotFound, "Order not found", "")
			return
		}
		respondInternalError(c, err)
		return
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Order{}).Error
	})
	if txErr != nil {
		respondInternalError(c, txErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order deleted successfully",
		"order":   existing,
	})
}
