package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem snapshots a product line at the moment it was added. Name,
// price and image are copied so later catalog edits do not rewrite carts.
type CartItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID     uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product_variant"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product_variant"`
	Name       string    `gorm:"column:name;not null"`
	PricePaise int64     `gorm:"column:price_paise;not null"`
	Image      string    `gorm:"column:image"`
	Size       string    `gorm:"column:size;not null;default:'';uniqueIndex:idx_cart_items_cart_product_variant"`
	Color      string    `gorm:"column:color;not null;default:'';uniqueIndex:idx_cart_items_cart_product_variant"`
	Quantity   int       `gorm:"column:quantity;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
