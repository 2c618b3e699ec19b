package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/niyastp88/zayancart/pkg/enums"
)

// OrderItem is a purchased line. The return fields are nil until the
// customer opens a return request for this line.
type OrderItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name       string    `gorm:"column:name;not null"`
	PricePaise int64     `gorm:"column:price_paise;not null"`
	Image      string    `gorm:"column:image"`
	Size       string    `gorm:"column:size;not null;default:''"`
	Color      string    `gorm:"column:color;not null;default:''"`
	Quantity   int       `gorm:"column:quantity;not null"`

	ReturnStatus      *enums.ReturnStatus `gorm:"column:return_status;type:text"`
	ReturnReason      *enums.ReturnReason `gorm:"column:return_reason;type:text"`
	ReturnComment     *string             `gorm:"column:return_comment"`
	ReturnRequestedAt *time.Time          `gorm:"column:return_requested_at"`
	ReturnResolvedAt  *time.Time          `gorm:"column:return_resolved_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
