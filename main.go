package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/priya-raman/vitacheck-labs-api/config"
	"github.com/priya-raman/vitacheck-labs-api/controllers"
	"github.com/priya-raman/vitacheck-labs-api/middleware"
	"github.com/priya-raman/vitacheck-labs-api/services"
)

// setupRouter creates and configures the Gin router with all API routes
func setupRouter() *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		// Public endpoints
		api.GET("/health", healthCheck)
		api.GET("/database/status", databaseStatus)
		api.POST("/auth/register", controllers.Register)
		api.POST("/auth/login", controllers.Login)

		// Everything else requires a valid session token
		authed := api.Group("", middleware.RequireAuth())
		{
			authed.POST("/auth/logout", controllers.Logout)
			authed.GET("/auth/me", controllers.Me)

			authed.GET("/products", controllers.GetProducts)
			authed.POST("/products", controllers.CreateProduct)
			authed.PUT("/products", controllers.UpdateProduct)
			authed.DELETE("/products", controllers.DeleteProduct)
			authed.POST("/products/image", controllers.UploadProductImage)

			authed.GET("/cart", controllers.GetCart)
			authed.POST("/cart", controllers.AddToCart)
			authed.DELETE("/cart", controllers.ClearCart)

			authed.GET("/orders", controllers.GetOrders)
			authed.POST("/orders", controllers.CreateOrder)
			authed.PUT("/orders", controllers.UpdateOrder)
			authed.DELETE("/orders", controllers.DeleteOrder)

			authed.GET("/appointments", controllers.GetAppointments)
			authed.POST("/appointments", controllers.CreateAppointment)
			authed.PUT("/appointments", controllers.UpdateAppointment)
			authed.DELETE("/appointments", controllers.CancelAppointment)
		}
	}

	return router
}

func main() {
	log.Println("Starting VitaCheck Labs API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := config.MigrateDatabase(config.GetDB()); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Image storage is optional; endpoints that need it report unavailability
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Printf("Failed to initialize S3 service, product image uploads disabled: %v", err)
		} else {
			services.InitImageService(s3Service)
			log.Println("S3 image storage initialized")
		}
	} else {
		log.Println("AWS_S3_BUCKET not set, product image uploads disabled")
	}

	router := setupRouter()

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "VitaCheck Labs API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get database instance",
			"code":  "DATABASE_ERROR",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database connection failed",
			"code":  "DATABASE_CONNECTION_ERROR",
		})
		return
	}

	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to query tables",
			"code":  "DATABASE_QUERY_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "connected",
		"tables": tables,
	})
}
