package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/niyastp88/zayancart/pkg/config"
	pkgerrors "github.com/niyastp88/zayancart/pkg/errors"
	"github.com/niyastp88/zayancart/pkg/logger"
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
)

// GatewayOrder is the subset of the gateway order we persist.
type GatewayOrder struct {
	ID          string
	AmountPaise int64
	Currency    string
	Receipt     string
}

// OrderCreator is the surface the checkout service depends on.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amountPaise int64, receipt string) (*GatewayOrder, error)
}

// Client wraps the Razorpay SDK plus the configured currency and timeout.
type Client struct {
	api       *razorpay.Client
	keySecret string
	currency  string
	timeout   time.Duration
}

// NewClient initializes the Razorpay client once with the configured keys.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "INR"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("razorpay client initialized (%s)", currency))
	}

	return &Client{
		api:       razorpay.NewClient(keyID, keySecret),
		keySecret: keySecret,
		currency:  currency,
		timeout:   timeout,
	}, nil
}

// KeySecret returns the configured secret for signature verification.
func (c *Client) KeySecret() string {
	if c == nil {
		return ""
	}
	return c.keySecret
}

// CreateOrder registers a gateway order for the given amount. The call is
// bounded by the configured timeout; exceeding it maps to a gateway timeout.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (*GatewayOrder, error) {
	if amountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)

	go func() {
		body, err := c.api.Order.Create(map[string]interface{}{
			"amount":   amountPaise,
			"currency": c.currency,
			"receipt":  receipt,
		}, nil)
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayTimeout, ctx.Err(), "payment gateway timed out")
	case res := <-done:
		if res.err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayError, res.err, "payment gateway rejected order")
		}
		return parseOrder(res.body)
	}
}

func parseOrder(body map[string]interface{}) (*GatewayOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayError, "payment gateway returned no order id")
	}

	order := &GatewayOrder{ID: id}
	if currency, ok := body["currency"].(string); ok {
		order.Currency = currency
	}
	if receipt, ok := body["receipt"].(string); ok {
		order.Receipt = receipt
	}
	switch amount := body["amount"].(type) {
	case float64:
		order.AmountPaise = int64(amount)
	case int64:
		order.AmountPaise = amount
	}
	return order, nil
}
