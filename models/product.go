package models

import (
	"math"
	"time"
)

// Valid product categories
var ValidCategories = []string{"test", "package", "lifestyle", "organ_test"}

// Product represents a sellable diagnostic test or package in the catalog
type Product struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	Name                    string    `gorm:"not null" json:"name"`
	Description             *string   `json:"description"`
	Category                string    `gorm:"not null;index" json:"category"` // test, package, lifestyle, organ_test
	Subcategory             *string   `gorm:"index" json:"subcategory"`       // diabetes, heart, liver, etc.
	Price                   float64   `gorm:"not null;check:price > 0" json:"price"`
	OriginalPrice           float64   `gorm:"not null" json:"original_price"`
	DiscountPercentage      int       `gorm:"default:0" json:"discount_percentage"`
	HomeCollectionAvailable bool      `gorm:"default:true" json:"home_collection_available"`
	ReportDeliveryHours     int       `gorm:"default:24" json:"report_delivery_hours"`
	TestsIncluded           int       `gorm:"default:1" json:"tests_included"`
	IsPopular               bool      `gorm:"default:false;index" json:"is_popular"`
	IsSafe                  bool      `gorm:"default:true" json:"is_safe"`
	ImageURL                *string   `json:"image_url"`
	ImageS3Key              *string   `json:"image_s3_key,omitempty"` // set when an image was uploaded to S3
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// IsValidCategory reports whether category is one of the known product categories
func IsValidCategory(category string) bool {
	for _, c := range ValidCategories {
		if c == category {
			return true
		}
	}
	return false
}

// CalculateDiscountPercentage derives the discount from the original and
// current price: round((originalPrice - price) / originalPrice * 100).
// Equal prices yield 0.
func CalculateDiscountPercentage(price, originalPrice float64) int {
	return int(math.Round((originalPrice - price) / originalPrice * 100))
}
