package models

import (
	"time"
)

const (
	// MinCartQuantity is the smallest quantity a cart line may hold
	MinCartQuantity = 1
	// MaxCartQuantity caps the quantity per cart line, no matter how many
	// increments are applied
	MaxCartQuantity = 10
)

// CartItem represents one (user, product) line in a cart. The pair is
// unique per user; repeated adds increment the quantity up to MaxCartQuantity.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the CartItem model
func (CartItem) TableName() string {
	return "cart_items"
}

// IsValidCartQuantity reports whether qty is within the allowed [1,10] range
func IsValidCartQuantity(qty int) bool {
	return qty >= MinCartQuantity && qty <= MaxCartQuantity
}
