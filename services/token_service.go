package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/priya-raman/vitacheck-labs-api/config"
	"github.com/priya-raman/vitacheck-labs-api/models"
)

// IssueSession signs a bearer token for the user and persists the matching
// session row. The token is an HS256 JWT; the session row is what makes
// logout an actual revocation.
func IssueSession(db *gorm.DB, user *models.User, ipAddress, userAgent string) (string, *models.Session, error) {
	cfg := config.GetConfig()

	ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
	expiresAt := time.Now().Add(ttl)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"jti":  uuid.NewString(),
		"role": user.Role,
		"iat":  time.Now().Unix(),
		"exp":  expiresAt.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	session := models.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if ipAddress != "" {
		session.IPAddress = &ipAddress
	}
	if userAgent != "" {
		session.UserAgent = &userAgent
	}

	if err := db.Create(&session).Error; err != nil {
		return "", nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return token, &session, nil
}

// ParseSessionToken verifies the token signature and expiry and returns the
// embedded user ID. It does not consult the session table; callers combine it
// with a session lookup so revoked tokens are rejected.
func ParseSessionToken(tokenString string) (uint, error) {
	cfg := config.GetConfig()

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("token has no subject: %w", err)
	}

	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q: %w", sub, err)
	}

	return uint(userID), nil
}
