package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/priya-raman/vitacheck-labs-api/config"
	"github.com/priya-raman/vitacheck-labs-api/models"
	"github.com/priya-raman/vitacheck-labs-api/services"
	"github.com/priya-raman/vitacheck-labs-api/utils"
)

// UploadProductImage handles POST /api/products/image?id= - accepts a
// multipart PNG under the "image" field, stores it in S3, and records the
// storage key on the product. Replacing an image removes the previous object.
func UploadProductImage(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}

	imageService := services.GetImageService()
	if imageService == nil {
		respondError(c, http.StatusServiceUnavailable, "Image storage is not configured", "STORAGE_UNAVAILABLE")
		return
	}

	db := config.GetDB()

	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(c, http.StatusNotFound, "Product not found", "")
			return
		}
		respondInternalError(c, err)
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Image file is required", "MISSING_IMAGE")
		return
	}

	if err := utils.ValidateImageFile(fileHeader); err != nil {
		if uploadErr, isUploadErr := err.(*utils.FileUploadError); isUploadErr {
			respondError(c, http.StatusBadRequest, uploadErr.Message, uploadErr.Code)
			return
		}
		respondError(c, http.StatusBadRequest, err.Error(), "INVALID_FILE")
		return
	}

	s3Key, err := imageService.UploadImage(fileHeader)
	if err != nil {
		respondInternalError(c, err)
		return
	}

	// Copy the old key before the update; gorm rewrites the field on product
	var previousKey string
	if product.ImageS3Key != nil {
		previousKey = *product.ImageS3Key
	}

	if err := db.Model(&product).Update("image_s3_key", s3Key).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	// Best effort; an orphaned object is better than a failed replacement
	if previousKey != "" && previousKey != s3Key {
		if err := imageService.DeleteImage(previousKey); err != nil {
			log.Printf("Failed to delete replaced product image %s: %v", previousKey, err)
		}
	}

	imageURL, err := imageService.GetImageURL(s3Key)
	if err != nil {
		respondInternalError(c, err)
		return
	}

	product.ImageS3Key = &s3Key
	product.ImageURL = &imageURL

	c.JSON(http.StatusOK, gin.H{
		"message":  "Product image uploaded successfully",
		"imageUrl": imageURL,
		"product":  product,
	})
}
