package models

import (
	"time"
)

// Valid user roles
const (
	RolePatient              = "patient"
	RoleLabTechnician        = "lab_technician"
	RoleCollectionTechnician = "collection_technician"
	RoleAdmin                = "admin"
)

// User represents an account in the system (patient, technician or admin)
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"not null;default:'patient'" json:"role"`
	PhoneNumber  *string   `json:"phone_number,omitempty"`
	EmployeeID   *string   `json:"employee_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsValidRole reports whether role is one of the known user roles
func IsValidRole(role string) bool {
	switch role {
	case RolePatient, RoleLabTechnician, RoleCollectionTechnician, RoleAdmin:
		return true
	}
	return false
}

// Session represents a bearer session issued at login. The token column
// stores the signed JWT; deleting the row revokes the token before expiry.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	IPAddress *string   `json:"ip_address,omitempty"`
	UserAgent *string   `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Session model
func (Session) TableName() string {
	return "sessions"
}
