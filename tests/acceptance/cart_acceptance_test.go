package acceptance

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/priya-raman/vitacheck-labs-api/config"
	"github.com/priya-raman/vitacheck-labs-api/controllers"
	"github.com/priya-raman/vitacheck-labs-api/middleware"
	"github.com/priya-raman/vitacheck-labs-api/models"
)

// CartAcceptanceTestSuite verifies the cart behaves as the storefront expects:
// quantities merge, the cap holds, summaries add up, and clearing reports what
// it removed.
type CartAcceptanceTestSuite struct {
	suite.Suite
	router *gin.Engine
	db     *gorm.DB
	token  string
	cbc    models.Product
	lipid  models.Product
}

func (suite *CartAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("GO_ENV", "test")

	config.SetConfig(&config.Config{
		DatabaseURL:     "sqlite://:memory:",
		Port:            "8080",
		GoEnv:           "test",
		JWTSecret:       "acceptance-test-secret",
		SessionTTLHours: 168,
	})
}

func (suite *CartAcceptanceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.NoError(err)
	suite.db = db

	suite.NoError(config.MigrateDatabase(db))
	config.SetDB(db)

	suite.router = gin.New()
	api := suite.router.Group("/api")
	{
		api.POST("/auth/register", controllers.Register)

		authed := api.Group("", middleware.RequireAuth())
		{
			authed.GET("/cart", controllers.GetCart)
			authed.POST("/cart", controllers.AddToCart)
			authed.DELETE("/cart", controllers.ClearCart)
		}
	}

	w := suite.request(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"name":     "Cart Patient",
		"email":    "cartpatient@example.com",
		"password": "securepass123",
	})
	suite.Equal(http.StatusCreated, w.Code)

	var response map[string]interface{}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.token = response["token"].(string)

	suite.cbc = models.Product{
		Name: "Complete Blood Count", Category: "test",
		Price: 300, OriginalPrice: 400, DiscountPercentage: 25,
		HomeCollectionAvailable: true, ReportDeliveryHours: 24, TestsIncluded: 1, IsSafe: true,
	}
	suite.NoError(db.Create(&suite.cbc).Error)

	suite.lipid = models.Product{
		Name: "Lipid Profile", Category: "test",
		Price: 450, OriginalPrice: 500, DiscountPercentage: 10,
		HomeCollectionAvailable: true, ReportDeliveryHours: 24, TestsIncluded: 1, IsSafe: true,
	}
	suite.NoError(db.Create(&suite.lipid).Error)
}

func (suite *CartAcceptanceTestSuite) TearDownTest() {
	if sqlDB, err := suite.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (suite *CartAcceptanceTestSuite) request(method, url, token string, body interface{}) *httptest.ResponseRecorder {
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

func (suite *CartAcceptanceTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (suite *CartAcceptanceTestSuite) addToCart(productID uint, quantity interface{}) *httptest.ResponseRecorder {
	body := map[string]interface{}{"productId": productID}
	if quantity != nil {
		body["quantity"] = quantity
	}
	return suite.request(http.MethodPost, "/api/cart", suite.token, body)
}

func (suite *CartAcceptanceTestSuite) TestRepeatedAddsMergeIntoOneLine() {
	suite.Equal(http.StatusCreated, suite.addToCart(suite.cbc.ID, 2).Code)
	suite.Equal(http.StatusCreated, suite.addToCart(suite.cbc.ID, 3).Code)

	w := suite.request(http.MethodGet, "/api/cart", suite.token, nil)
	suite.Equal(http.StatusOK, w.Code)

	response := suite.decode(w)
	items := response["items"].([]interface{})
	suite.Len(items, 1)

	line := items[0].(map[string]interface{})
	suite.Equal(float64(5), line["quantity"])
}

func (suite *CartAcceptanceTestSuite) TestQuantityCapHolds() {
	suite.Equal(http.StatusCreated, suite.addToCart(suite.cbc.ID, 8).Code)

	w := suite.addToCart(suite.cbc.ID, 8)
	suite.Equal(http.StatusCreated, w.Code)
	suite.Equal(float64(models.MaxCartQuantity), suite.decode(w)["quantity"])
}

func (suite *CartAcceptanceTestSuite) TestSummaryAddsUpAcrossLines() {
	suite.addToCart(suite.cbc.ID, 2)
	suite.addToCart(suite.lipid.ID, nil)

	w := suite.request(http.MethodGet, "/api/cart", suite.token, nil)
	suite.Equal(http.StatusOK, w.Code)

	summary := suite.decode(w)["summary"].(map[string]interface{})
	suite.Equal(float64(3), summary["totalItems"])
	// 300*2 + 450*1
	suite.Equal(float64(1050), summary["totalAmount"])
}

func (suite *CartAcceptanceTestSuite) TestClearReportsWhatItRemoved() {
	suite.addToCart(suite.cbc.ID, 1)
	suite.addToCart(suite.lipid.ID, 4)

	w := suite.request(http.MethodDelete, "/api/cart", suite.token, nil)
	suite.Equal(http.StatusOK, w.Code)

	response := suite.decode(w)
	suite.Equal(float64(2), response["clearedItemsCount"])
	suite.Len(response["deletedItems"], 2)

	w = suite.request(http.MethodGet, "/api/cart", suite.token, nil)
	suite.Len(suite.decode(w)["items"], 0)
}

func TestCartAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(CartAcceptanceTestSuite))
}
