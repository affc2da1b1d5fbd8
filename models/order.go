package models

import (
	"fmt"
	"regexp"
	"time"
)

// Valid order statuses. Unlike appointments, order status changes are not
// guarded by a transition table: orders get administratively corrected, so
// only enum membership is validated.
var ValidOrderStatuses = []string{"pending", "confirmed", "sample_collected", "processing", "completed", "cancelled"}

// Valid payment statuses, updated independently of the order status
var ValidPaymentStatuses = []string{"pending", "paid", "failed", "refunded"}

// Valid collection types, shared with appointments
var ValidCollectionTypes = []string{"home_collection", "lab_visit"}

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]{10,15}$`)

// Order represents a placed order derived from the user's cart
type Order struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	UserID             uint        `gorm:"not null;index" json:"user_id"`
	User               User        `gorm:"foreignKey:UserID" json:"-"`
	OrderNumber        string      `gorm:"uniqueIndex;not null" json:"order_number"` // ORD-YYYYMMDD-NNNN
	TotalAmount        float64     `gorm:"not null" json:"total_amount"`
	Status             string      `gorm:"not null;default:'pending'" json:"status"`
	PaymentStatus      string      `gorm:"not null;default:'pending'" json:"payment_status"`
	PaymentMethod      *string     `json:"payment_method"`
	CollectionType     string      `gorm:"not null" json:"collection_type"` // home_collection, lab_visit
	CollectionDate     *string     `json:"collection_date"`                 // ISO date
	CollectionTimeSlot *string     `json:"collection_time_slot"`
	CustomerName       string      `gorm:"not null" json:"customer_name"`
	CustomerPhone      string      `gorm:"not null" json:"customer_phone"`
	CustomerAddress    *string     `json:"customer_address"`
	CustomerCity       *string     `json:"customer_city"`
	CustomerPincode    *string     `json:"customer_pincode"`
	Notes              *string     `json:"notes"`
	Items              []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a price snapshot of one cart line at order time. UnitPrice is
// immune to later catalog price changes.
type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ProductID  uint      `gorm:"not null" json:"product_id"`
	Product    Product   `gorm:"foreignKey:ProductID" json:"product"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	UnitPrice  float64   `gorm:"not null" json:"unit_price"`
	TotalPrice float64   `gorm:"not null" json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// IsValidOrderStatus reports whether status is a known order status
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidPaymentStatus reports whether status is a known payment status
func IsValidPaymentStatus(status string) bool {
	for _, s := range ValidPaymentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidCollectionType reports whether t is home_collection or lab_visit
func IsValidCollectionType(t string) bool {
	for _, c := range ValidCollectionTypes {
		if c == t {
			return true
		}
	}
	return false
}

// IsValidPhone reports whether phone matches the accepted phone format:
// an optional leading +, then 10-15 digits, spaces, dashes or parentheses.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// OrderNumberPrefix returns the ORD-YYYYMMDD- prefix for the given UTC date
func OrderNumberPrefix(t time.Time) string {
	return fmt.Sprintf("ORD-%s-", t.UTC().Format("20060102"))
}

// FormatOrderNumber builds an order number from a UTC date and a 1-based
// daily sequence, zero-padded to 4 digits.
func FormatOrderNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("%s%04d", OrderNumberPrefix(t), seq)
}
