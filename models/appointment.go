package models

import (
	"time"
)

// Valid appointment types, same vocabulary as order collection types
var ValidAppointmentTypes = []string{"home_collection", "lab_visit"}

// Valid appointment statuses
var ValidAppointmentStatuses = []string{"scheduled", "confirmed", "in_progress", "completed", "cancelled"}

// AvailableTimeSlots is the full slot vocabulary, offered for home collection
var AvailableTimeSlots = []string{"06:00-09:00", "09:00-12:00", "12:00-15:00", "15:00-18:00", "18:00-21:00"}

// BusinessHoursSlots restricts lab visits to lab opening hours
var BusinessHoursSlots = []string{"09:00-12:00", "12:00-15:00", "15:00-18:00"}

// ActiveAppointmentStatuses are the statuses that occupy a time slot for
// conflict detection
var ActiveAppointmentStatuses = []string{"scheduled", "confirmed", "in_progress"}

// appointmentTransitions is the allowed from -> to status table.
// completed and cancelled are terminal.
var appointmentTransitions = map[string][]string{
	"scheduled":   {"confirmed", "cancelled"},
	"confirmed":   {"in_progress", "cancelled"},
	"in_progress": {"completed", "cancelled"},
	"completed":   {},
	"cancelled":   {},
}

// Appointment represents a sample-collection or lab-visit booking, optionally
// tied to an order
type Appointment struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;index" json:"user_id"`
	User               User      `gorm:"foreignKey:UserID" json:"-"`
	OrderID            *uint     `gorm:"index" json:"order_id"`
	Order              *Order    `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	AppointmentType    string    `gorm:"not null" json:"appointment_type"` // home_collection, lab_visit
	AppointmentDate    string    `gorm:"not null;index" json:"appointment_date"` // ISO date
	AppointmentTime    string    `gorm:"not null" json:"appointment_time"`
	LabLocation        *string   `json:"lab_location"`
	TechnicianAssigned *string   `json:"technician_assigned"`
	Status             string    `gorm:"not null;default:'scheduled'" json:"status"`
	CustomerNotes      *string   `json:"customer_notes"`
	TechnicianNotes    *string   `json:"technician_notes"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Appointment model
func (Appointment) TableName() string {
	return "appointments"
}

// IsValidAppointmentType reports whether t is home_collection or lab_visit
func IsValidAppointmentType(t string) bool {
	for _, v := range ValidAppointmentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsValidAppointmentStatus reports whether status is a known appointment status
func IsValidAppointmentStatus(status string) bool {
	for _, s := range ValidAppointmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// SlotsForType returns the slot set an appointment type may book
func SlotsForType(appointmentType string) []string {
	if appointmentType == "lab_visit" {
		return BusinessHoursSlots
	}
	return AvailableTimeSlots
}

// IsValidTimeSlot reports whether timeSlot belongs to the slot set valid for
// the given appointment type
func IsValidTimeSlot(timeSlot, appointmentType string) bool {
	for _, s := range SlotsForType(appointmentType) {
		if s == timeSlot {
			return true
		}
	}
	return false
}

// CanTransitionAppointmentStatus reports whether the from -> to status change
// is allowed by the transition table
func CanTransitionAppointmentStatus(from, to string) bool {
	for _, allowed := range appointmentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsFutureDate reports whether dateStr parses to a moment strictly after
// today's midnight. Accepts plain ISO dates and RFC3339 timestamps.
func IsFutureDate(dateStr string) bool {
	parsed, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return false
		}
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	return parsed.After(today)
}
