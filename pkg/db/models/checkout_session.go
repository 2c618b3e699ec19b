package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/niyastp88/zayancart/pkg/enums"
	"github.com/niyastp88/zayancart/pkg/types"
)

// CheckoutSession captures the cart contents, address and totals at the
// moment the customer enters checkout. Status moves strictly
// created -> paid -> finalized.
type CheckoutSession struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.CheckoutStatus  `gorm:"column:status;type:text;not null;default:'created'"`
	PaymentMethod    string                `gorm:"column:payment_method;not null;default:'razorpay'"`
	ShippingAddress  types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	ItemsPaise       int64                 `gorm:"column:items_paise;not null"`
	ShippingPaise    int64                 `gorm:"column:shipping_paise;not null;default:0"`
	TaxPaise         int64                 `gorm:"column:tax_paise;not null;default:0"`
	TotalPaise       int64                 `gorm:"column:total_paise;not null"`
	GatewayOrderID   *string               `gorm:"column:gateway_order_id"`
	GatewayPaymentID *string               `gorm:"column:gateway_payment_id"`
	PaidAt           *time.Time            `gorm:"column:paid_at"`
	FinalizedAt      *time.Time            `gorm:"column:finalized_at"`
	Items            []CheckoutItem        `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
