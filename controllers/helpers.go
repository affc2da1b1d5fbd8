package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// respondError writes the {"error": ..., "code": ...} shape shared by every
// endpoint. An empty code omits the field (NotFound responses carry none).
func respondError(c *gin.Context, status int, message, code string) {
	if code == "" {
		c.JSON(status, gin.H{"error": message})
		return
	}
	c.JSON(status, gin.H{"error": message, "code": code})
}

// respondInternalError surfaces the storage error message in the body, the
// diagnosability choice this API makes for unexpected failures.
func respondInternalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error: " + err.Error()})
}

// bindJSONBody decodes the request body into out after rejecting any body
// that tries to smuggle a user identity. Writes its own error response and
// returns false on failure.
func bindJSONBody(c *gin.Context, out interface{}) bool {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to read request body", "INVALID_BODY")
		return false
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		respondError(c, http.StatusBadRequest, "Request body must be valid JSON", "INVALID_BODY")
		return false
	}

	// Identity always comes from the bearer token, never the payload
	if _, found := keys["userId"]; !found {
		_, found = keys["user_id"]
		if !found {
			if err := json.Unmarshal(raw, out); err != nil {
				respondError(c, http.StatusBadRequest, "Request body must be valid JSON", "INVALID_BODY")
				return false
			}
			return true
		}
	}

	respondError(c, http.StatusBadRequest, "User ID cannot be provided in request body", "USER_ID_NOT_ALLOWED")
	return false
}

// queryID parses the ?id= query parameter shared by single-row operations.
// Writes its own 400 and returns false when missing or not a number.
func queryID(c *gin.Context) (uint, bool) {
	raw := c.Query("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if raw == "" || err != nil {
		respondError(c, http.StatusBadRequest, "Valid ID is required", "INVALID_ID")
		return 0, false
	}
	return uint(id), true
}

// listParams parses limit (default 10, capped at 100) and offset (default 0)
func listParams(c *gin.Context) (limit, offset int) {
	limit = defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			offset = parsed
		}
	}
	return limit, offset
}

// sortDirection normalizes the ?order= parameter to ASC/DESC, defaulting to DESC
func sortDirection(c *gin.Context) string {
	if c.Query("order") == "asc" {
		return "ASC"
	}
	return "DESC"
}

// isUniqueViolation sniffs constraint-violation errors in a way that works
// with both PostgreSQL and SQLite
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}

// trimToNil trims a value and returns nil for empty results, the storage
// convention for optional text columns
func trimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
