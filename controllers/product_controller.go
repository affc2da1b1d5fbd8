package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/priya-raman/vitacheck-labs-api/config"
	"github.com/priya-raman/vitacheck-labs-api/models"
	"github.com/priya-raman/vitacheck-labs-api/services"
)

// ProductRequest represents the request body for creating or updating a
// product. Every field is optional at the JSON level; create enforces its
// own required set so the same shape serves both handlers.
type ProductRequest struct {
	Name                    *string  `json:"name"`
	Description             *string  `json:"description"`
	Category                *string  `json:"category"`
	Subcategory             *string  `json:"subcategory"`
	Price                   *float64 `json:"price"`
	OriginalPrice           *float64 `json:"originalPrice"`
	DiscountPercentage      *int     `json:"discountPercentage"`
	HomeCollectionAvailable *bool    `json:"homeCollectionAvailable"`
	ReportDeliveryHours     *int     `json:"reportDeliveryHours"`
	TestsIncluded           *int     `json:"testsIncluded"`
	IsPopular               *bool    `json:"isPopular"`
	IsSafe                  *bool    `json:"isSafe"`
	ImageURL                *string  `json:"imageUrl"`
}

// validateProductFields checks the rules shared by create and update for
// whichever fields are present. Writes its own error response and returns
// false on the first failing field.
func validateProductFields(c *gin.Context, req *ProductRequest) bool {
	if req.Name != nil && len(strings.TrimSpace(*req.Name)) < 3 {
		respondError(c, http.StatusBadRequest, "Name is required and must be at least 3 characters", "INVALID_NAME")
		return false
	}
	if req.Category != nil && !models.IsValidCategory(*req.Category) {
		respondError(c, http.StatusBadRequest, "Category is required and must be one of: "+strings.Join(models.ValidCategories, ", "), "INVALID_CATEGORY")
		return false
	}
	if req.Price != nil && *req.Price <= 0 {
		respondError(c, http.StatusBadRequest, "Price is required and must be a positive number", "INVALID_PRICE")
		return false
	}
	if req.OriginalPrice != nil && *req.OriginalPrice <= 0 {
		respondError(c, http.StatusBadRequest, "Original price is required and must be a positive number", "INVALID_ORIGINAL_PRICE")
		return false
	}
	if req.DiscountPercentage != nil && (*req.DiscountPercentage < 0 || *req.DiscountPercentage > 100) {
		respondError(c, http.StatusBadRequest, "Discount percentage must be between 0 and 100", "INVALID_DISCOUNT_PERCENTAGE")
		return false
	}
	if req.ReportDeliveryHours != nil && *req.ReportDeliveryHours <= 0 {
		respondError(c, http.StatusBadRequest, "Report delivery hours must be a positive integer", "INVALID_REPORT_DELIVERY_HOURS")
		return false
	}
	if req.TestsIncluded != nil && *req.TestsIncluded <= 0 {
		respondError(c, http.StatusBadRequest, "Tests included must be a positive integer", "INVALID_TESTS_INCLUDED")
		return false
	}
	return true
}

// GetProducts handles GET /api/products - single product via ?id=, otherwise
// a filtered, sorted, paginated list
func GetProducts(c *gin.Context) {
	db := config.GetDB()

	if c.Query("id") != "" {
		id, ok := queryID(c)
		if !ok {
			return
		}

		var product models.Product
		if err := db.First(&product, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				respondError(c, http.StatusNotFound, "Product not found", "")
				return
			}
			respondInternalError(c, err)
			return
		}

		// Uploaded images are private S3 objects; hand out a presigned URL
		if product.ImageS3Key != nil {
			if imageService := services.GetImageService(); imageService != nil {
				if url, err := imageService.GetImageURL(*product.ImageS3Key); err == nil && url != "" {
					product.ImageURL = &url
				}
			}
		}

		c.JSON(http.StatusOK, product)
		return
	}

	limit, offset := listParams(c)

	query := db.Model(&models.Product{})

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if subcategory := c.Query("subcategory"); subcategory != "" {
		query = query.Where("subcategory = ?", subcategory)
	}
	if c.Query("is_popular") == "true" {
		query = query.Where("is_popular = ?", true)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	sortField := "created_at"
	switch c.Query("sort") {
	case "price":
		sortField = "price"
	case "name":
		sortField = "name"
	}

	var results []models.Product
	if err := query.Order(sortField + " " + sortDirection(c)).Limit(limit).Offset(offset).Find(&results).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// CreateProduct handles POST /api/products
func CreateProduct(c *gin.Context) {
	var req ProductRequest
	if !bindJSONBody(c, &req) {
		return
	}

	// Required fields; the shared validator covers their value rules
	if req.Name == nil {
		respondError(c, http.StatusBadRequest, "Name is required and must be at least 3 characters", "INVALID_NAME")
		return
	}
	if req.Category == nil {
		respondError(c, http.StatusBadRequest, "Category is required and must be one of: "+strings.Join(models.ValidCategories, ", "), "INVALID_CATEGORY")
		return
	}
	if req.Price == nil {
		respondError(c, http.StatusBadRequest, "Price is required and must be a positive number", "INVALID_PRICE")
		return
	}
	if req.OriginalPrice == nil {
		respondError(c, http.StatusBadRequest, "Original price is required and must be a positive number", "INVALID_ORIGINAL_PRICE")
		return
	}

	if !validateProductFields(c, &req) {
		return
	}

	// Derive discount when not explicitly supplied
	discount := models.CalculateDiscountPercentage(*req.Price, *req.OriginalPrice)
	if req.DiscountPercentage != nil {
		discount = *req.DiscountPercentage
	}

	product := models.Product{
		Name:                    strings.TrimSpace(*req.Name),
		Description:             trimToNil(req.Description),
		Category:                *req.Category,
		Subcategory:             trimToNil(req.Subcategory),
		Price:                   *req.Price,
		OriginalPrice:           *req.OriginalPrice,
		DiscountPercentage:      discount,
		HomeCollectionAvailable: true,
		ReportDeliveryHours:     24,
		TestsIncluded:           1,
		IsPopular:               false,
		IsSafe:                  true,
		ImageURL:                trimToNil(req.ImageURL),
	}
	if req.HomeCollectionAvailable != nil {
		product.HomeCollectionAvailable = *req.HomeCollectionAvailable
	}
	if req.ReportDeliveryHours != nil {
		product.ReportDeliveryHours = *req.ReportDeliveryHours
	}
	if req.TestsIncluded != nil {
		product.TestsIncluded = *req.TestsIncluded
	}
	if req.IsPopular != nil {
		product.IsPopular = *req.IsPopular
	}
	if req.IsSafe != nil {
		product.IsSafe = *req.IsSafe
	}

	db := config.GetDB()
	if err := db.Create(&product).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products?id= - per-field patch semantics
func UpdateProduct(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}

	var req ProductRequest
	if !bindJSONBody(c, &req) {
		return
	}

	db := config.GetDB()

	var existing models.Product
	if err := db.First(&existing, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(c, http.StatusNotFound, "Product not found", "")
			return
		}
		respondInternalError(c, err)
		return
	}

	if !validateProductFields(c, &req) {
		return
	}

	updates := map[string]interface{}{}

	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = trimToNil(req.Description)
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Subcategory != nil {
		updates["subcategory"] = trimToNil(req.Subcategory)
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.OriginalPrice != nil {
		updates["original_price"] = *req.OriginalPrice
	}
	if req.DiscountPercentage != nil {
		updates["discount_percentage"] = *req.DiscountPercentage
	}
	if req.HomeCollectionAvailable != nil {
		updates["home_collection_available"] = *req.HomeCollectionAvailable
	}
	if req.ReportDeliveryHours != nil {
		updates["report_delivery_hours"] = *req.ReportDeliveryHours
	}
	if req.TestsIncluded != nil {
		updates["tests_included"] = *req.TestsIncluded
	}
	if req.IsPopular != nil {
		updates["is_popular"] = *req.IsPopular
	}
	if req.IsSafe != nil {
		updates["is_safe"] = *req.IsSafe
	}
	if req.ImageURL != nil {
		updates["image_url"] = trimToNil(req.ImageURL)
	}

	// Price changes without an explicit discount recompute it from the
	// effective pair of values
	if (req.Price != nil || req.OriginalPrice != nil) && req.DiscountPercentage == nil {
		price := existing.Price
		if req.Price != nil {
			price = *req.Price
		}
		originalPrice := existing.OriginalPrice
		if req.OriginalPrice != nil {
			originalPrice = *req.OriginalPrice
		}
		updates["discount_percentage"] = models.CalculateDiscountPercentage(price, originalPrice)
	}

	if err := db.Model(&existing).Updates(updates).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	var updated models.Product
	if err := db.First(&updated, id).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteProduct handles DELETE /api/products?id= - hard delete, returns the
// deleted record for confirmation
func DeleteProduct(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}

	db := config.GetDB()

	var existing models.Product
	if err := db.First(&existing, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(c, http.StatusNotFound, "Product not found", "")
			return
		}
		respondInternalError(c, err)
		return
	}

	if err := db.Delete(&models.Product{}, id).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
		"product": existing,
	})
}
