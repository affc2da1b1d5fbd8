package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/priya-raman/vitacheck-labs-api/config"
	"github.com/priya-raman/vitacheck-labs-api/controllers"
	"github.com/priya-raman/vitacheck-labs-api/middleware"
	"github.com/priya-raman/vitacheck-labs-api/models"
)

// CheckoutIntegrationTestSuite exercises the cart-to-order pipeline through
// real HTTP routes with the real auth middleware.
type CheckoutIntegrationTestSuite struct {
	suite.Suite
	router *gin.Engine
	db     *gorm.DB
	token  string
	user   models.User
}

func (suite *CheckoutIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("GO_ENV", "test")

	config.SetConfig(&config.Config{
		DatabaseURL:     "sqlite://:memory:",
		Port:            "8080",
		GoEnv:           "test",
		JWTSecret:       "integration-test-secret",
		SessionTTLHours: 168,
	})
}

func (suite *CheckoutIntegrationTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.NoError(err)
	suite.db = db

	suite.NoError(config.MigrateDatabase(db))
	config.SetDB(db)

	suite.router = gin.New()
	api := suite.router.Group("/api")
	{
		api.POST("/auth/register", controllers.Register)
		api.POST("/auth/login", controllers.Login)

		authed := api.Group("", middleware.RequireAuth())
		{
			authed.POST("/products", controllers.CreateProduct)
			authed.GET("/cart", controllers.GetCart)
			authed.POST("/cart", controllers.AddToCart)
			authed.DELETE("/cart", controllers.ClearCart)
			authed.GET("/orders", controllers.GetOrders)
			authed.POST("/orders", controllers.CreateOrder)
			authed.DELETE("/orders", controllers.DeleteOrder)
		}
	}

	// Register a patient and keep the real session token
	w := suite.post("/api/auth/register", "", map[string]interface{}{
		"name":     "Checkout Patient",
		"email":    "checkout@example.com",
		"password": "securepass123",
	})
	suite.Equal(http.StatusCreated, w.Code)

	var response map[string]interface{}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.token = response["token"].(string)

	suite.NoError(db.Where("email = ?", "checkout@example.com").First(&suite.user).Error)
}

func (suite *CheckoutIntegrationTestSuite) TearDownTest() {
	if sqlDB, err := suite.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (suite *CheckoutIntegrationTestSuite) post(url, token string, body interface{}) *httptest.ResponseRecorder {
	return suite.request(http.MethodPost, url, token, body)
}

func (suite *CheckoutIntegrationTestSuite) request(method, url, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *CheckoutIntegrationTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (suite *CheckoutIntegrationTestSuite) seedProduct(name string, price, originalPrice float64) uint {
	w := suite.post("/api/products", suite.token, map[string]interface{}{
		"name":          name,
		"category":      "test",
		"price":         price,
		"originalPrice": originalPrice,
	})
	suite.Equal(http.StatusCreated, w.Code)
	return uint(suite.decode(w)["id"].(float64))
}

func (suite *CheckoutIntegrationTestSuite) TestCheckoutSnapshotsCartAndEmptiesIt() {
	cbc := suite.seedProduct("Complete Blood Count", 300, 400)
	thyroid := suite.seedProduct("Thyroid Profile", 450, 500)

	suite.post("/api/cart", suite.token, map[string]interface{}{"productId": cbc, "quantity": 2})
	suite.post("/api/cart", suite.token, map[string]interface{}{"productId": thyroid})

	w := suite.post("/api/orders", suite.token, map[string]interface{}{
		"customerName":   "Checkout Patient",
		"customerPhone":  "9876543210",
		"collectionType": "home_collection",
		"collectionDate": time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
	})
	suite.Equal(http.StatusCreated, w.Code)

	order := suite.decode(w)
	suite.Equal(float64(1050), order["total_amount"])

	items := order["items"].([]interface{})
	suite.Len(items, 2)

	var remaining int64
	suite.db.Model(&models.CartItem{}).Where("user_id = ?", suite.user.ID).Count(&remaining)
	suite.Equal(int64(0), remaining)

	var itemRows []models.OrderItem
	suite.db.Where("order_id = ?", uint(order["id"].(float64))).Order("product_id").Find(&itemRows)
	suite.Len(itemRows, 2)
	suite.Equal(float64(300), itemRows[0].UnitPrice)
	suite.Equal(float64(600), itemRows[0].TotalPrice)
	suite.Equal(float64(450), itemRows[1].UnitPrice)
}

func (suite *CheckoutIntegrationTestSuite) TestOrderNumbersAreSequentialPerDay() {
	product := suite.seedProduct("Lipid Profile", 600, 800)

	numbers := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		suite.post("/api/cart", suite.token, map[string]interface{}{"productId": product})

		w := suite.post("/api/orders", suite.token, map[string]interface{}{
			"customerName":   "Checkout Patient",
			"customerPhone":  "9876543210",
			"collectionType": "lab_visit",
		})
		suite.Equal(http.StatusCreated, w.Code)
		numbers = append(numbers, suite.decode(w)["order_number"].(string))
	}

	prefix := models.OrderNumberPrefix(time.Now())
	for i, number := range numbers {
		suite.Equal(fmt.Sprintf("%s%04d", prefix, i+1), number)
	}
}

func (suite *CheckoutIntegrationTestSuite) TestCheckoutFailsOnEmptyCart() {
	w := suite.post("/api/orders", suite.token, map[string]interface{}{
		"customerName":   "Checkout Patient",
		"customerPhone":  "9876543210",
		"collectionType": "lab_visit",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("EMPTY_CART", suite.decode(w)["code"])
}

func (suite *CheckoutIntegrationTestSuite) TestDeleteOrderRemovesLineItems() {
	product := suite.seedProduct("Vitamin Panel", 400, 500)

	suite.post("/api/cart", suite.token, map[string]interface{}{"productId": product})
	w := suite.post("/api/orders", suite.token, map[string]interface{}{
		"customerName":   "Checkout Patient",
		"customerPhone":  "9876543210",
		"collectionType": "lab_visit",
	})
	suite.Equal(http.StatusCreated, w.Code)
	orderID := uint(suite.decode(w)["id"].(float64))

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/orders?id=%d", orderID), suite.token, nil)
	suite.Equal(http.StatusOK, w.Code)

	// Line items went with it
	var itemCount int64
	suite.db.Model(&models.OrderItem{}).Where("order_id = ?", orderID).Count(&itemCount)
	suite.Equal(int64(0), itemCount)
}

func (suite *CheckoutIntegrationTestSuite) TestUnauthenticatedCheckoutIsRejected() {
	w := suite.post("/api/orders", "", map[string]interface{}{
		"customerName":   "Nobody",
		"customerPhone":  "9876543210",
		"collectionType": "lab_visit",
	})
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func TestCheckoutIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(CheckoutIntegrationTestSuite))
}
