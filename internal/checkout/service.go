package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/niyastp88/zayancart/internal/cart"
	"github.com/niyastp88/zayancart/internal/checkout/stock"
	"github.com/niyastp88/zayancart/internal/orders"
	"github.com/niyastp88/zayancart/pkg/db/models"
	"github.com/niyastp88/zayancart/pkg/enums"
	pkgerrors "github.com/niyastp88/zayancart/pkg/errors"
	"github.com/niyastp88/zayancart/pkg/metrics"
	"github.com/niyastp88/zayancart/pkg/razorpay"
	"github.com/niyastp88/zayancart/pkg/types"
)

const defaultPaymentMethod = "razorpay"

var (
	postalCodeRE = regexp.MustCompile(`^\d{6}$`)
	phoneRE      = regexp.MustCompile(`^\d{10}$`)
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the checkout session lifecycle, from snapshot to the
// finalized order.
type Service interface {
	CreateSession(ctx context.Context, userID uuid.UUID, input CreateSessionInput) (*SessionDTO, error)
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionDTO, error)
	CreateGatewayOrder(ctx context.Context, userID, sessionID uuid.UUID) (*SessionDTO, error)
	VerifyPayment(ctx context.Context, userID, sessionID uuid.UUID, input VerifyPaymentInput) (*SessionDTO, error)
	Finalize(ctx context.Context, userID, sessionID uuid.UUID) (*orders.DTO, error)
}

type service struct {
	tx        txRunner
	repo      Repository
	orders    orders.Repository
	carts     cart.Repository
	gateway   razorpay.OrderCreator
	keySecret string
	metrics   *metrics.CheckoutMetrics
	now       func() time.Time
}

// NewService builds the checkout service. The metrics argument may be nil.
func NewService(
	tx txRunner,
	repo Repository,
	ordersRepo orders.Repository,
	cartRepo cart.Repository,
	gateway razorpay.OrderCreator,
	keySecret string,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if strings.TrimSpace(keySecret) == "" {
		return nil, fmt.Errorf("gateway key secret required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		orders:    ordersRepo,
		carts:     cartRepo,
		gateway:   gateway,
		keySecret: keySecret,
		metrics:   checkoutMetrics,
		now:       time.Now,
	}, nil
}

func (s *service) CreateSession(ctx context.Context, userID uuid.UUID, input CreateSessionInput) (*SessionDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout requires at least one item")
	}
	if err := validateShippingAddress(input.ShippingAddress); err != nil {
		return nil, err
	}

	method := strings.TrimSpace(input.PaymentMethod)
	if method == "" {
		method = defaultPaymentMethod
	}

	itemsPaise, err := toPaise(input.ItemsPrice, "items_price")
	if err != nil {
		return nil, err
	}
	shippingPaise, err := toPaise(input.ShippingPrice, "shipping_price")
	if err != nil {
		return nil, err
	}
	taxPaise, err := toPaise(input.TaxPrice, "tax_price")
	if err != nil {
		return nil, err
	}
	totalPaise, err := toPaise(input.TotalPrice, "total_price")
	if err != nil {
		return nil, err
	}

	items := make([]models.CheckoutItem, 0, len(input.Items))
	var linesPaise int64
	for _, line := range input.Items {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		pricePaise, err := toPaise(line.Price, "item price")
		if err != nil {
			return nil, err
		}
		linesPaise += pricePaise * int64(line.Quantity)
		items = append(items, models.CheckoutItem{
			ProductID:  line.ProductID,
			Name:       strings.TrimSpace(line.Name),
			PricePaise: pricePaise,
			Image:      line.Image,
			Size:       line.Size,
			Color:      line.Color,
			Quantity:   line.Quantity,
		})
	}
	if linesPaise != itemsPaise {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items price does not match line prices").
			WithDetails(map[string]any{
				"items_price": types.PaiseToRupees(itemsPaise),
				"line_total":  types.PaiseToRupees(linesPaise),
			})
	}
	if itemsPaise+shippingPaise+taxPaise != totalPaise {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total price does not match its components")
	}

	session := &models.CheckoutSession{
		UserID:          userID,
		Status:          enums.CheckoutStatusCreated,
		PaymentMethod:   method,
		ShippingAddress: input.ShippingAddress,
		ItemsPaise:      itemsPaise,
		ShippingPaise:   shippingPaise,
		TaxPaise:        taxPaise,
		TotalPaise:      totalPaise,
		Items:           items,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return toSessionDTO(session), nil
}

func (s *service) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.mustFindForUser(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return toSessionDTO(session), nil
}

// CreateGatewayOrder registers the session's total with the payment gateway
// and stores the gateway order id. Calling it again before payment returns
// the existing gateway order instead of opening a second one.
func (s *service) CreateGatewayOrder(ctx context.Context, userID, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.mustFindForUser(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case enums.CheckoutStatusFinalized:
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyFinalized, "checkout already finalized")
	case enums.CheckoutStatusPaid:
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "checkout already paid")
	}
	if session.GatewayOrderID != nil {
		return toSessionDTO(session), nil
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, session.TotalPaise, "checkout_"+session.ID.String())
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSession(ctx, session.ID, map[string]any{
		"gateway_order_id": gatewayOrder.ID,
	}); err != nil {
		return nil, err
	}
	session.GatewayOrderID = &gatewayOrder.ID
	return toSessionDTO(session), nil
}

// VerifyPayment checks the gateway signature over the order/payment id pair
// and, on a match, moves the session created -> paid. A session that is
// already paid verifies idempotently; a bad signature touches no state.
func (s *service) VerifyPayment(ctx context.Context, userID, sessionID uuid.UUID, input VerifyPaymentInput) (*SessionDTO, error) {
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id, payment id and signature are required")
	}

	session, err := s.mustFindForUser(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == enums.CheckoutStatusFinalized {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyFinalized, "checkout already finalized")
	}
	if session.GatewayOrderID == nil || *session.GatewayOrderID != input.GatewayOrderID {
		return nil, pkgerrors.New(pkgerrors.CodePaymentVerification, "payment does not belong to this checkout")
	}
	if !razorpay.VerifySignature(s.keySecret, input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		return nil, pkgerrors.New(pkgerrors.CodePaymentVerification, "payment signature mismatch")
	}
	if session.Status == enums.CheckoutStatusPaid {
		return toSessionDTO(session), nil
	}

	claimed, err := s.repo.Transition(ctx, session.ID,
		enums.CheckoutStatusCreated, enums.CheckoutStatusPaid,
		map[string]any{
			"gateway_payment_id": input.GatewayPaymentID,
			"paid_at":            s.now(),
		})
	if err != nil {
		return nil, err
	}
	session, err = s.mustFindForUser(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !claimed && session.Status != enums.CheckoutStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "checkout cannot be marked paid").
			WithDetails(map[string]any{"status": session.Status})
	}
	return toSessionDTO(session), nil
}

// Finalize converts a paid session into a permanent order. The claim, the
// stock decrements, the order insert and the cart delete share one
// transaction; if any step fails, none of them are visible.
func (s *service) Finalize(ctx context.Context, userID, sessionID uuid.UUID) (*orders.DTO, error) {
	start := s.now()
	dto, err := s.finalize(ctx, userID, sessionID)
	s.metrics.ObserveFinalize(finalizeOutcome(err), time.Since(start))
	return dto, err
}

func (s *service) finalize(ctx context.Context, userID, sessionID uuid.UUID) (*orders.DTO, error) {
	session, err := s.mustFindForUser(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case enums.CheckoutStatusFinalized:
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyFinalized, "checkout already finalized")
	case enums.CheckoutStatusCreated:
		return nil, pkgerrors.New(pkgerrors.CodePaymentRequired, "checkout is not paid")
	}
	if session.GatewayOrderID == nil || session.GatewayPaymentID == nil || session.PaidAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "paid session is missing its payment record")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// The conditional claim is the idempotency point: of two
		// concurrent finalize calls, exactly one flips paid -> finalized.
		claimed, err := repo.Transition(ctx, session.ID,
			enums.CheckoutStatusPaid, enums.CheckoutStatusFinalized,
			map[string]any{"finalized_at": s.now()})
		if err != nil {
			return err
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeAlreadyFinalized, "checkout already finalized")
		}

		requests := make([]stock.DecrementRequest, 0, len(session.Items))
		for _, item := range session.Items {
			requests = append(requests, stock.DecrementRequest{
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Qty:       item.Quantity,
			})
		}
		results, err := stock.Decrement(ctx, tx, requests)
		if err != nil {
			return err
		}
		for _, res := range results {
			if res.Decremented {
				continue
			}
			if res.Missing {
				return pkgerrors.New(pkgerrors.CodeNotFound, "a checkout item is no longer available").
					WithDetails(map[string]any{"product_id": res.ProductID})
			}
			return pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("not enough stock for %s", res.ProductName)).
				WithDetails(map[string]any{
					"product_id":   res.ProductID,
					"product_name": res.ProductName,
					"available":    res.Available,
				})
		}

		order = orderFromSession(session)
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.carts.WithTx(tx).DeleteByUser(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return orders.ToDTO(order), nil
}

func (s *service) mustFindForUser(ctx context.Context, userID, sessionID uuid.UUID) (*models.CheckoutSession, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	return session, nil
}

func orderFromSession(session *models.CheckoutSession) *models.Order {
	items := make([]models.OrderItem, 0, len(session.Items))
	for _, item := range session.Items {
		items = append(items, models.OrderItem{
			ProductID:  item.ProductID,
			Name:       item.Name,
			PricePaise: item.PricePaise,
			Image:      item.Image,
			Size:       item.Size,
			Color:      item.Color,
			Quantity:   item.Quantity,
		})
	}
	return &models.Order{
		UserID:           session.UserID,
		SessionID:        session.ID,
		Status:           enums.OrderStatusProcessing,
		PaymentMethod:    session.PaymentMethod,
		ShippingAddress:  session.ShippingAddress,
		ItemsPaise:       session.ItemsPaise,
		ShippingPaise:    session.ShippingPaise,
		TaxPaise:         session.TaxPaise,
		TotalPaise:       session.TotalPaise,
		GatewayOrderID:   *session.GatewayOrderID,
		GatewayPaymentID: *session.GatewayPaymentID,
		PaidAt:           *session.PaidAt,
		Items:            items,
	}
}

func validateShippingAddress(addr types.ShippingAddress) error {
	missing := func(field, value string) *pkgerrors.Error {
		if strings.TrimSpace(value) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
		}
		return nil
	}
	for _, check := range []struct {
		field string
		value string
	}{
		{"first_name", addr.FirstName},
		{"street", addr.Street},
		{"city", addr.City},
		{"state", addr.State},
		{"postal_code", addr.PostalCode},
		{"phone", addr.Phone},
	} {
		if err := missing(check.field, check.value); err != nil {
			return err
		}
	}
	if !postalCodeRE.MatchString(addr.PostalCode) {
		return pkgerrors.New(pkgerrors.CodeValidation, "postal_code must be 6 digits")
	}
	if !phoneRE.MatchString(addr.Phone) {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone must be 10 digits")
	}
	return nil
}

func toPaise(amount decimal.Decimal, field string) (int64, error) {
	paise, err := types.RupeesToPaise(amount)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return paise, nil
}

func finalizeOutcome(err error) string {
	if err == nil {
		return "success"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "error"
}
