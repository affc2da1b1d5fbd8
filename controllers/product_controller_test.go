package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/priya-raman/vitacheck-labs-api/config"
	"github.com/priya-raman/vitacheck-labs-api/models"
)

func createTestProduct(t *testing.T, db *gorm.DB, name, category string, price, originalPrice float64) models.Product {
	t.Helper()

	product := models.Product{
		Name:                    name,
		Category:                category,
		Price:                   price,
		OriginalPrice:           originalPrice,
		DiscountPercentage:      models.CalculateDiscountPercentage(price, originalPrice),
		HomeCollectionAvailable: true,
		ReportDeliveryHours:     24,
		TestsIncluded:           1,
		IsSafe:                  true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}
	return product
}

func TestCreateProduct(t *testing.T) {
	setupTestConfig()

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedCode   string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name: "Successfully create product with derived discount",
			requestBody: map[string]interface{}{
				"name":          "Complete Blood Count",
				"category":      "test",
				"price":         1200.0,
				"originalPrice": 1500.0,
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.Equal(t, "Complete Blood Count", response["name"])
				// (1500-1200)/1500 * 100 = 20
				assert.Equal(t, float64(20), response["discount_percentage"])
				// Defaults
				assert.Equal(t, true, response["home_collection_available"])
				assert.Equal(t, float64(24), response["report_delivery_hours"])
				assert.Equal(t, float64(1), response["tests_included"])
				assert.Equal(t, false, response["is_popular"])
				assert.Equal(t, true, response["is_safe"])
			},
		},
		{
			name: "Explicit discount overrides derivation",
			requestBody: map[string]interface{}{
				"name":               "Thyroid Profile",
				"category":           "test",
				"price":              500.0,
				"originalPrice":      1000.0,
				"discountPercentage": 35,
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.Equal(t, float64(35), response["discount_percentage"])
			},
		},
		{
			name: "Equal price and original price yields zero discount",
			requestBody: map[string]interface{}{
				"name":          "Vitamin D Test",
				"category":      "test",
				"price":         800.0,
				"originalPrice": 800.0,
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.Equal(t, float64(0), response["discount_percentage"])
			},
		},
		{
			name: "Fail with missing name",
			requestBody: map[string]interface{}{
				"category":      "test",
				"price":         500.0,
				"originalPrice": 600.0,
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_NAME",
		},
		{
			name: "Fail with short name",
			requestBody: map[string]interface{}{
				"name":          "AB",
				"category":      "test",
				"price":         500.0,
				"originalPrice": 600.0,
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_NAME",
		},
		{
			name: "Fail with unknown category",
			requestBody: map[string]interface{}{
				"name":          "Mystery Panel",
				"category":      "mystery",
				"price":         500.0,
				"originalPrice": 600.0,
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_CATEGORY",
		},
		{
			name: "Fail with non-positive price",
			requestBody: map[string]interface{}{
				"name":          "Free Panel",
				"category":      "test",
				"price":         0.0,
				"originalPrice": 600.0,
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_PRICE",
		},
		{
			name: "Fail with missing original price",
			requestBody: map[string]interface{}{
				"name":     "Half Panel",
				"category": "test",
				"price":    500.0,
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_ORIGINAL_PRICE",
		},
		{
			name: "Fail with discount out of range",
			requestBody: map[string]interface{}{
				"name":               "Discount Panel",
				"category":           "test",
				"price":              500.0,
				"originalPrice":      600.0,
				"discountPercentage": 150,
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_DISCOUNT_PERCENTAGE",
		},
		{
			name: "Fail when body smuggles a user ID",
			requestBody: map[string]interface{}{
				"name":          "Sneaky Panel",
				"category":      "test",
				"price":         500.0,
				"originalPrice": 600.0,
				"userId":        42,
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "USER_ID_NOT_ALLOWED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			config.SetDB(db)

			router := setupTestRouter()
			router.POST("/products", CreateProduct)

			w := performJSONRequest(router, http.MethodPost, "/products", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			assert.NoError(t, err)

			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, response["code"])
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestGetProducts(t *testing.T) {
	setupTestConfig()
	db := setupTestDB(t)
	config.SetDB(db)

	cbc := createTestProduct(t, db, "Complete Blood Count", "test", 300, 400)
	createTestProduct(t, db, "Full Body Checkup", "package", 2500, 4000)
	popular := createTestProduct(t, db, "Diabetes Screening", "test", 450, 500)
	db.Model(&popular).Update("is_popular", true)

	router := setupTestRouter()
	router.GET("/products", GetProducts)

	t.Run("Get single product by id", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodGet, fmt.Sprintf("/products?id=%d", cbc.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "Complete Blood Count", response["name"])
	})

	t.Run("Unknown id returns 404 without a code", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodGet, "/products?id=9999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "Product not found", response["error"])
		_, hasCode := response["code"]
		assert.False(t, hasCode)
	})

	t.Run("Non-numeric id returns 400", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodGet, "/products?id=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "INVALID_ID", response["code"])
	})

	t.Run("List all products", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodGet, "/products", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var results []map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &results)
		assert.Len(t, results, 3)
	})

	t.Run("Filter by category", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodGet, "/products?category=package", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var results []map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &results)
		assert.Len(t, results, 1)
		assert.Equal(t, "Full Body Checkup", results[0]["name"])
	})

	t.Run("Filter by popularity", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodGet, "/products?is_popular=true", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var results []map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &results)
		assert.Len(t, results, 1)
		assert.Equal(t, "Diabetes Screening", results[0]["name"])
	})

	t.Run("Search by name", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodGet, "/products?search=Blood", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var results []map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &results)
		assert.Len(t, results, 1)
		assert.Equal(t, "Complete Blood Count", results[0]["name"])
	})

	t.Run("Sort by price ascending", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodGet, "/products?sort=price&order=asc", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var results []map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &results)
		assert.Len(t, results, 3)
		assert.Equal(t, "Complete Blood Count", results[0]["name"])
		assert.Equal(t, "Full Body Checkup", results[2]["name"])
	})

	t.Run("Pagination with limit and offset", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodGet, "/products?sort=price&order=asc&limit=1&offset=1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var results []map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &results)
		assert.Len(t, results, 1)
		assert.Equal(t, "Diabetes Screening", results[0]["name"])
	})
}

func TestUpdateProduct(t *testing.T) {
	setupTestConfig()
	db := setupTestDB(t)
	config.SetDB(db)

	product := createTestProduct(t, db, "Liver Function Test", "organ_test", 900, 1000)

	router := setupTestRouter()
	router.PUT("/products", UpdateProduct)

	t.Run("Price change recomputes discount", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodPut, fmt.Sprintf("/products?id=%d", product.ID),
			map[string]interface{}{"price": 750.0})
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, float64(750), response["price"])
		// (1000-750)/1000 * 100 = 25
		assert.Equal(t, float64(25), response["discount_percentage"])
	})

	t.Run("Explicit discount is kept as given", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodPut, fmt.Sprintf("/products?id=%d", product.ID),
			map[string]interface{}{"price": 500.0, "discountPercentage": 10})
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, float64(10), response["discount_percentage"])
	})

	t.Run("Fail with invalid category", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodPut, fmt.Sprintf("/products?id=%d", product.ID),
			map[string]interface{}{"category": "nonsense"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "INVALID_CATEGORY", response["code"])
	})

	t.Run("Unknown product returns 404", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodPut, "/products?id=9999",
			map[string]interface{}{"price": 100.0})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteProduct(t *testing.T) {
	setupTestConfig()
	db := setupTestDB(t)
	config.SetDB(db)

	product := createTestProduct(t, db, "Kidney Function Test", "organ_test", 850, 1100)

	router := setupTestRouter()
	router.DELETE("/products", DeleteProduct)

	t.Run("Successfully delete returns the removed record", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodDelete, fmt.Sprintf("/products?id=%d", product.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "Product deleted successfully", response["message"])
		deleted := response["product"].(map[string]interface{})
		assert.Equal(t, "Kidney Function Test", deleted["name"])

		var count int64
		db.Model(&models.Product{}).Where("id = ?", product.ID).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Deleting again returns 404", func(t *testing.T) {
		w := performJSONRequest(router, http.MethodDelete, fmt.Sprintf("/products?id=%d", product.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
