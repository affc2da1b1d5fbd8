package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/priya-raman/vitacheck-labs-api/config"
	"github.com/priya-raman/vitacheck-labs-api/middleware"
	"github.com/priya-raman/vitacheck-labs-api/models"
	"github.com/priya-raman/vitacheck-labs-api/services"
)

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	PhoneNumber *string `json:"phoneNumber"`
	Role        *string `json:"role"`
	EmployeeID  *string `json:"employeeId"`
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register - creates an account and issues a session
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Request body must be valid JSON", "INVALID_BODY")
		return
	}

	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		respondError(c, http.StatusBadRequest, "Name is required and must be at least 2 characters", "INVALID_NAME")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		respondError(c, http.StatusBadRequest, "Valid email is required", "INVALID_EMAIL")
		return
	}

	if len(req.Password) < 8 {
		respondError(c, http.StatusBadRequest, "Password must be at least 8 characters", "INVALID_PASSWORD")
		return
	}

	role := models.RolePatient
	if req.Role != nil {
		if !models.IsValidRole(*req.Role) {
			respondError(c, http.StatusBadRequest, "Invalid role", "INVALID_ROLE")
			return
		}
		role = *req.Role
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondInternalError(c, err)
		return
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		PhoneNumber:  trimToNil(req.PhoneNumber),
		EmployeeID:   trimToNil(req.EmployeeID),
	}

	db := config.GetDB()
	if err := db.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			respondError(c, http.StatusConflict, "An account with this email already exists", "EMAIL_EXISTS")
			return
		}
		respondInternalError(c, err)
		return
	}

	token, _, err := services.IssueSession(db, &user, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login - verifies credentials and issues a session
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Request body must be valid JSON", "INVALID_BODY")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "Email and password are required", "MISSING_CREDENTIALS")
		return
	}

	db := config.GetDB()

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// Same response as a wrong password so the endpoint does not
			// reveal which accounts exist
			respondError(c, http.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS")
			return
		}
		respondInternalError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS")
		return
	}

	token, _, err := services.IssueSession(db, &user, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/auth/logout - revokes the current session
func Logout(c *gin.Context) {
	sessionID, err := middleware.GetSessionID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	db := config.GetDB()
	if err := db.Delete(&models.Session{}, sessionID).Error; err != nil {
		respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me handles GET /api/auth/me - returns the authenticated user
func Me(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Authentication required", "")
		return
	}

	c.JSON(http.StatusOK, user)
}
