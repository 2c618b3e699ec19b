package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/niyastp88/zayancart/api/responses"
	"github.com/niyastp88/zayancart/api/validators"
	checkoutsvc "github.com/niyastp88/zayancart/internal/checkout"
	"github.com/niyastp88/zayancart/pkg/logger"
	"github.com/niyastp88/zayancart/pkg/types"
)

type checkoutItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	Image     string          `json:"image"`
	Size      string          `json:"size" validate:"max=20"`
	Color     string          `json:"color" validate:"max=50"`
	Quantity  int             `json:"quantity" validate:"required,min=1,max=50"`
}

type shippingAddressRequest struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"max=100"`
	Street     string `json:"street" validate:"required,max=300"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,pincode"`
	Phone      string `json:"phone" validate:"required,phone10"`
}

type createCheckoutRequest struct {
	Items           []checkoutItemRequest  `json:"items" validate:"required,min=1,dive"`
	ShippingAddress shippingAddressRequest `json:"shipping_address" validate:"required"`
	PaymentMethod   string                 `json:"payment_method" validate:"omitempty,oneof=razorpay"`
	ItemsPrice      decimal.Decimal        `json:"items_price" validate:"required"`
	ShippingPrice   decimal.Decimal        `json:"shipping_price"`
	TaxPrice        decimal.Decimal        `json:"tax_price"`
	TotalPrice      decimal.Decimal        `json:"total_price" validate:"required"`
}

type verifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

func (p createCheckoutRequest) toInput() checkoutsvc.CreateSessionInput {
	input := checkoutsvc.CreateSessionInput{
		Items: make([]checkoutsvc.ItemInput, 0, len(p.Items)),
		ShippingAddress: types.ShippingAddress{
			FirstName:  p.ShippingAddress.FirstName,
			LastName:   p.ShippingAddress.LastName,
			Street:     p.ShippingAddress.Street,
			City:       p.ShippingAddress.City,
			State:      p.ShippingAddress.State,
			PostalCode: p.ShippingAddress.PostalCode,
			Phone:      p.ShippingAddress.Phone,
		},
		PaymentMethod: p.PaymentMethod,
		ItemsPrice:    p.ItemsPrice,
		ShippingPrice: p.ShippingPrice,
		TaxPrice:      p.TaxPrice,
		TotalPrice:    p.TotalPrice,
	}
	for _, item := range p.Items {
		input.Items = append(input.Items, checkoutsvc.ItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Image:     item.Image,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
		})
	}
	return input
}

// CreateCheckout opens a checkout session from a frozen cart snapshot.
func CreateCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CreateSession(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

func GetCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.GetSession(r.Context(), userID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// PayCheckout creates (or idempotently returns) the gateway order backing
// this checkout session.
func PayCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CreateGatewayOrder(r.Context(), userID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// VerifyCheckoutPayment checks the gateway signature and marks the session paid.
func VerifyCheckoutPayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.VerifyPayment(r.Context(), userID, sessionID, checkoutsvc.VerifyPaymentInput{
			GatewayOrderID:   payload.GatewayOrderID,
			GatewayPaymentID: payload.GatewayPaymentID,
			Signature:        payload.Signature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// FinalizeCheckout converts a paid session into an order exactly once.
func FinalizeCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Finalize(r.Context(), userID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
