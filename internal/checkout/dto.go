package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/niyastp88/zayancart/pkg/db/models"
	"github.com/niyastp88/zayancart/pkg/enums"
	"github.com/niyastp88/zayancart/pkg/types"
)

// ItemInput is one frozen cart line submitted at checkout. Prices are
// decimal rupees and must convert to whole paise.
type ItemInput struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
}

// CreateSessionInput is the customer payload for opening a checkout session.
type CreateSessionInput struct {
	Items           []ItemInput           `json:"items"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                `json:"payment_method"`
	ItemsPrice      decimal.Decimal       `json:"items_price"`
	ShippingPrice   decimal.Decimal       `json:"shipping_price"`
	TaxPrice        decimal.Decimal       `json:"tax_price"`
	TotalPrice      decimal.Decimal       `json:"total_price"`
}

// VerifyPaymentInput carries the gateway references returned to the client
// after a successful payment, plus the gateway's signature over them.
type VerifyPaymentInput struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// ItemDTO is one frozen checkout line in API shape.
type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
}

// SessionDTO is a checkout session in API shape. The is_* booleans are
// derived from the status machine rather than stored.
type SessionDTO struct {
	ID               uuid.UUID             `json:"id"`
	UserID           uuid.UUID             `json:"user_id"`
	Status           enums.CheckoutStatus  `json:"status"`
	PaymentStatus    enums.PaymentStatus   `json:"payment_status"`
	IsPaid           bool                  `json:"is_paid"`
	IsFinalized      bool                  `json:"is_finalized"`
	PaymentMethod    string                `json:"payment_method"`
	ShippingAddress  types.ShippingAddress `json:"shipping_address"`
	ItemsPrice       decimal.Decimal       `json:"items_price"`
	ShippingPrice    decimal.Decimal       `json:"shipping_price"`
	TaxPrice         decimal.Decimal       `json:"tax_price"`
	TotalPrice       decimal.Decimal       `json:"total_price"`
	GatewayOrderID   *string               `json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string               `json:"gateway_payment_id,omitempty"`
	PaidAt           *time.Time            `json:"paid_at,omitempty"`
	FinalizedAt      *time.Time            `json:"finalized_at,omitempty"`
	Items            []ItemDTO             `json:"items"`
	CreatedAt        time.Time             `json:"created_at"`
}

func toSessionDTO(session *models.CheckoutSession) *SessionDTO {
	paid := session.Status == enums.CheckoutStatusPaid || session.Status == enums.CheckoutStatusFinalized
	paymentStatus := enums.PaymentStatusPending
	if paid {
		paymentStatus = enums.PaymentStatusPaid
	}
	dto := &SessionDTO{
		ID:               session.ID,
		UserID:           session.UserID,
		Status:           session.Status,
		PaymentStatus:    paymentStatus,
		IsPaid:           paid,
		IsFinalized:      session.Status == enums.CheckoutStatusFinalized,
		PaymentMethod:    session.PaymentMethod,
		ShippingAddress:  session.ShippingAddress,
		ItemsPrice:       types.PaiseToRupees(session.ItemsPaise),
		ShippingPrice:    types.PaiseToRupees(session.ShippingPaise),
		TaxPrice:         types.PaiseToRupees(session.TaxPaise),
		TotalPrice:       types.PaiseToRupees(session.TotalPaise),
		GatewayOrderID:   session.GatewayOrderID,
		GatewayPaymentID: session.GatewayPaymentID,
		PaidAt:           session.PaidAt,
		FinalizedAt:      session.FinalizedAt,
		Items:            make([]ItemDTO, 0, len(session.Items)),
		CreatedAt:        session.CreatedAt,
	}
	for _, item := range session.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     types.PaiseToRupees(item.PricePaise),
			Image:     item.Image,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
		})
	}
	return dto
}
