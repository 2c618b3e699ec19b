package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/niyastp88/zayancart/pkg/enums"
	"github.com/niyastp88/zayancart/pkg/types"
)

// Order is the finalized record of a paid checkout. The unique index on
// SessionID guarantees at most one order per checkout session.
type Order struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	SessionID        uuid.UUID             `gorm:"column:session_id;type:uuid;not null;uniqueIndex"`
	Status           enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'Processing'"`
	PaymentMethod    string                `gorm:"column:payment_method;not null;default:'razorpay'"`
	ShippingAddress  types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	ItemsPaise       int64                 `gorm:"column:items_paise;not null"`
	ShippingPaise    int64                 `gorm:"column:shipping_paise;not null;default:0"`
	TaxPaise         int64                 `gorm:"column:tax_paise;not null;default:0"`
	TotalPaise       int64                 `gorm:"column:total_paise;not null"`
	GatewayOrderID   string                `gorm:"column:gateway_order_id;not null"`
	GatewayPaymentID string                `gorm:"column:gateway_payment_id;not null"`
	PaidAt           time.Time             `gorm:"column:paid_at;not null"`
	DeliveredAt      *time.Time            `gorm:"column:delivered_at"`
	Items            []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
