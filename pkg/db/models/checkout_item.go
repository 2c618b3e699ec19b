package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutItem is a frozen cart line inside a checkout session.
type CheckoutItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID  uuid.UUID `gorm:"column:session_id;type:uuid;not null;index"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name       string    `gorm:"column:name;not null"`
	PricePaise int64     `gorm:"column:price_paise;not null"`
	Image      string    `gorm:"column:image"`
	Size       string    `gorm:"column:size;not null;default:''"`
	Color      string    `gorm:"column:color;not null;default:''"`
	Quantity   int       `gorm:"column:quantity;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
