package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/niyastp88/zayancart/pkg/db/models"
	"github.com/niyastp88/zayancart/pkg/enums"
	"github.com/niyastp88/zayancart/pkg/types"
)

// AdminFilters describe the inputs supported by the admin order list.
type AdminFilters struct {
	Status *enums.OrderStatus
}

// ReturnRequestInput is the customer payload for opening a return.
type ReturnRequestInput struct {
	Reason  enums.ReturnReason
	Comment string
}

// ReturnDTO is the return sub-record on an order item.
type ReturnDTO struct {
	Status      enums.ReturnStatus `json:"status"`
	Reason      enums.ReturnReason `json:"reason"`
	Comment     string             `json:"comment,omitempty"`
	RequestedAt time.Time          `json:"requested_at"`
	ResolvedAt  *time.Time         `json:"resolved_at,omitempty"`
}

// ItemDTO is one purchased line in API shape.
type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
	Return    *ReturnDTO      `json:"return,omitempty"`
}

// DTO is an order in API shape. The is_* booleans are derived from the
// status machine rather than stored.
type DTO struct {
	ID               uuid.UUID             `json:"id"`
	UserID           uuid.UUID             `json:"user_id"`
	SessionID        uuid.UUID             `json:"session_id"`
	Status           enums.OrderStatus     `json:"status"`
	PaymentStatus    enums.PaymentStatus   `json:"payment_status"`
	IsPaid           bool                  `json:"is_paid"`
	IsDelivered      bool                  `json:"is_delivered"`
	PaymentMethod    string                `json:"payment_method"`
	ShippingAddress  types.ShippingAddress `json:"shipping_address"`
	ItemsPrice       decimal.Decimal       `json:"items_price"`
	ShippingPrice    decimal.Decimal       `json:"shipping_price"`
	TaxPrice         decimal.Decimal       `json:"tax_price"`
	TotalPrice       decimal.Decimal       `json:"total_price"`
	GatewayOrderID   string                `json:"gateway_order_id"`
	GatewayPaymentID string                `json:"gateway_payment_id"`
	PaidAt           time.Time             `json:"paid_at"`
	DeliveredAt      *time.Time            `json:"delivered_at,omitempty"`
	Items            []ItemDTO             `json:"items"`
	CreatedAt        time.Time             `json:"created_at"`
}

// ToDTO converts an order record to API shape.
func ToDTO(order *models.Order) *DTO {
	dto := &DTO{
		ID:               order.ID,
		UserID:           order.UserID,
		SessionID:        order.SessionID,
		Status:           order.Status,
		PaymentStatus:    enums.PaymentStatusPaid,
		IsPaid:           true,
		IsDelivered:      order.Status == enums.OrderStatusDelivered,
		PaymentMethod:    order.PaymentMethod,
		ShippingAddress:  order.ShippingAddress,
		ItemsPrice:       types.PaiseToRupees(order.ItemsPaise),
		ShippingPrice:    types.PaiseToRupees(order.ShippingPaise),
		TaxPrice:         types.PaiseToRupees(order.TaxPaise),
		TotalPrice:       types.PaiseToRupees(order.TotalPaise),
		GatewayOrderID:   order.GatewayOrderID,
		GatewayPaymentID: order.GatewayPaymentID,
		PaidAt:           order.PaidAt,
		DeliveredAt:      order.DeliveredAt,
		Items:            make([]ItemDTO, 0, len(order.Items)),
		CreatedAt:        order.CreatedAt,
	}
	for _, item := range order.Items {
		line := ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     types.PaiseToRupees(item.PricePaise),
			Image:     item.Image,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
		}
		if item.ReturnStatus != nil {
			ret := &ReturnDTO{Status: *item.ReturnStatus}
			if item.ReturnReason != nil {
				ret.Reason = *item.ReturnReason
			}
			if item.ReturnComment != nil {
				ret.Comment = *item.ReturnComment
			}
			if item.ReturnRequestedAt != nil {
				ret.RequestedAt = *item.ReturnRequestedAt
			}
			ret.ResolvedAt = item.ReturnResolvedAt
			line.Return = ret
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
