package controllers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/priya-raman/vitacheck-labs-api/config"
	"github.com/priya-raman/vitacheck-labs-api/middleware"
	"github.com/priya-raman/vitacheck-labs-api/models"
)

// AddToCartRequest represents the request body for adding a product to the
// cart. Quantity is bound as a float so a fractional value can be rejected
// instead of silently truncated.
type AddToCartRequest struct {
	ProductID *uint    `json:"productId"`
	Quantity  *float64 `json:"quantity"`
}

// GetCart handles GET /api/cart - all lines for the caller with product data
// and a summary
func GetCart(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	db := config.GetDB()

	var items []models.CartItem
	if err := db.Preload("Product").Where("user_id = ?", user.ID).Find(&items).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	totalItems := 0
	totalAmount := 0.0
	for _, item := range items {
		totalItems += item.Quantity
		totalAmount += item.Product.Price * float64(item.Quantity)
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"summary": gin.H{
			"totalItems":  totalItems,
			"totalAmount": math.Round(totalAmount*100) / 100,
		},
	})
}

// AddToCart handles POST /api/cart - creates a line or increments an existing
// one, capping the quantity at 10
func AddToCart(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	var req AddToCartRequest
	if !bindJSONBody(c, &req) {
		return
	}

	if req.ProductID == nil || *req.ProductID == 0 {
		respondError(c, http.StatusBadRequest, "Product ID is required", "MISSING_PRODUCT_ID")
		return
	}

	qty := 1
	if req.Quantity != nil {
		if *req.Quantity != math.Trunc(*req.Quantity) {
			respondError(c, http.StatusBadRequest, "Quantity must be a positive integer between 1 and 10", "INVALID_QUANTITY")
			return
		}
		qty = int(*req.Quantity)
	}
	if !models.IsValidCartQuantity(qty) {
		respondError(c, http.StatusBadRequest, "Quantity must be a positive integer between 1 and 10", "INVALID_QUANTITY")
		return
	}

	db := config.GetDB()

	var product models.Product
	if err := db.First(&product, *req.ProductID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(c, http.StatusNotFound, "Product not found", "PRODUCT_NOT_FOUND")
			return
		}
		respondInternalError(c, err)
		return
	}

	var line models.CartItem
	err = db.Where("user_id = ? AND product_id = ?", user.ID, product.ID).First(&line).Error
	switch {
	case err == nil:
		// Existing line: increment but never past the cap
		newQuantity := line.Quantity + qty
		if newQuantity > models.MaxCartQuantity {
			newQuantity = models.MaxCartQuantity
		}
		if err := db.Model(&line).Update("quantity", newQuantity).Error; err != nil {
			respondInternalError(c, err)
			return
		}
	case err == gorm.ErrRecordNotFound:
		line = models.CartItem{
			UserID:    user.ID,
			ProductID: product.ID,
			Quantity:  qty,
		}
		if err := db.Create(&line).Error; err != nil {
			respondInternalError(c, err)
			return
		}
	default:
		respondInternalError(c, err)
		return
	}

	// Return the resulting line joined with product data
	var result models.CartItem
	if err := db.Preload("Product").First(&result, line.ID).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ClearCart handles DELETE /api/cart - removes every line for the caller and
// returns a snapshot of what was deleted
func ClearCart(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	db := config.GetDB()

	var items []models.CartItem
	if err := db.Where("user_id = ?", user.ID).Find(&items).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	if err := db.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "Cart cleared successfully",
		"clearedItemsCount": len(items),
		"deletedItems":      items,
	})
}
