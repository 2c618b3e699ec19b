package checkout

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/niyastp88/zayancart/internal/cart"
	"github.com/niyastp88/zayancart/internal/orders"
	"github.com/niyastp88/zayancart/pkg/db/models"
	"github.com/niyastp88/zayancart/pkg/enums"
	pkgerrors "github.com/niyastp88/zayancart/pkg/errors"
	"github.com/niyastp88/zayancart/pkg/razorpay"
	"github.com/niyastp88/zayancart/pkg/types"
)

const testKeySecret = "test_key_secret"

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  brand TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  price_paise INTEGER NOT NULL DEFAULT 0,
  sizes TEXT,
  colors TEXT,
  images TEXT,
  stock INTEGER NOT NULL DEFAULT 0,
  rating REAL NOT NULL DEFAULT 0,
  num_reviews INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price_paise INTEGER NOT NULL,
  image TEXT,
  size TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS checkout_sessions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'created',
  payment_method TEXT NOT NULL DEFAULT 'razorpay',
  shipping_address TEXT,
  items_paise INTEGER NOT NULL,
  shipping_paise INTEGER NOT NULL DEFAULT 0,
  tax_paise INTEGER NOT NULL DEFAULT 0,
  total_paise INTEGER NOT NULL,
  gateway_order_id TEXT,
  gateway_payment_id TEXT,
  paid_at DATETIME,
  finalized_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS checkout_items (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price_paise INTEGER NOT NULL,
  image TEXT,
  size TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  session_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'Processing',
  payment_method TEXT NOT NULL DEFAULT 'razorpay',
  shipping_address TEXT,
  items_paise INTEGER NOT NULL,
  shipping_paise INTEGER NOT NULL DEFAULT 0,
  tax_paise INTEGER NOT NULL DEFAULT 0,
  total_paise INTEGER NOT NULL,
  gateway_order_id TEXT NOT NULL,
  gateway_payment_id TEXT NOT NULL,
  paid_at DATETIME NOT NULL,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price_paise INTEGER NOT NULL,
  image TEXT,
  size TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL,
  return_status TEXT,
  return_reason TEXT,
  return_comment TEXT,
  return_requested_at DATETIME,
  return_resolved_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormRunner struct {
	db *gorm.DB
}

func (r gormRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fakeGateway struct {
	err   error
	calls int
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, receipt string) (*razorpay.GatewayOrder, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &razorpay.GatewayOrder{
		ID:          "order_" + receipt,
		AmountPaise: amountPaise,
		Currency:    "INR",
		Receipt:     receipt,
	}, nil
}

func newCheckoutService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		gormRunner{db: db},
		NewRepository(db),
		orders.NewRepository(db),
		cart.NewRepository(db),
		&fakeGateway{},
		testKeySecret,
		nil,
	)
	require.NoError(t, err)
	return svc
}

func signFor(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int, pricePaise int64) uuid.UUID {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		Name:       name,
		Stock:      stock,
		PricePaise: pricePaise,
	}
	require.NoError(t, db.Create(product).Error)
	return product.ID
}

func seedCart(t *testing.T, db *gorm.DB, userID, productID uuid.UUID) {
	t.Helper()
	cartRecord := &models.Cart{ID: uuid.New(), UserID: userID}
	require.NoError(t, db.Create(cartRecord).Error)
	item := &models.CartItem{
		ID:         uuid.New(),
		CartID:     cartRecord.ID,
		ProductID:  productID,
		Name:       "Linen Shirt",
		PricePaise: 50000,
		Quantity:   2,
	}
	require.NoError(t, db.Create(item).Error)
}

func testAddress() types.ShippingAddress {
	return types.ShippingAddress{
		FirstName:  "Niyas",
		LastName:   "TP",
		Street:     "12 Beach Road",
		City:       "Kozhikode",
		State:      "Kerala",
		PostalCode: "673001",
		Phone:      "9876543210",
	}
}

func sessionInput(productID uuid.UUID, qty int) CreateSessionInput {
	price := decimal.NewFromInt(500)
	items := price.Mul(decimal.NewFromInt(int64(qty)))
	return CreateSessionInput{
		Items: []ItemInput{{
			ProductID: productID,
			Name:      "Linen Shirt",
			Price:     price,
			Quantity:  qty,
		}},
		ShippingAddress: testAddress(),
		ItemsPrice:      items,
		ShippingPrice:   decimal.Zero,
		TaxPrice:        decimal.Zero,
		TotalPrice:      items,
	}
}

func createPaidSession(t *testing.T, svc Service, userID, productID uuid.UUID, qty int) *SessionDTO {
	t.Helper()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, userID, sessionInput(productID, qty))
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStatusCreated, session.Status)
	require.False(t, session.IsPaid)

	session, err = svc.CreateGatewayOrder(ctx, userID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, session.GatewayOrderID)

	paymentID := "pay_" + uuid.NewString()
	session, err = svc.VerifyPayment(ctx, userID, session.ID, VerifyPaymentInput{
		GatewayOrderID:   *session.GatewayOrderID,
		GatewayPaymentID: paymentID,
		Signature:        signFor(testKeySecret, *session.GatewayOrderID, paymentID),
	})
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStatusPaid, session.Status)
	require.True(t, session.IsPaid)
	require.NotNil(t, session.PaidAt)
	return session
}

func TestFinalizeHappyPath(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	productID := seedProduct(t, db, "Linen Shirt", 5, 50000)
	seedCart(t, db, userID, productID)
	session := createPaidSession(t, svc, userID, productID, 2)

	order, err := svc.Finalize(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, order.Status)
	assert.True(t, order.IsPaid)
	assert.False(t, order.IsDelivered)
	assert.Equal(t, session.ID, order.SessionID)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(1000)))
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	assert.Equal(t, 3, product.Stock)

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Where("session_id = ?", session.ID).Count(&orderCount).Error)
	assert.Equal(t, int64(1), orderCount)

	var cartCount int64
	require.NoError(t, db.Model(&models.Cart{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.Equal(t, int64(0), cartCount)

	refreshed, err := svc.GetSession(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatusFinalized, refreshed.Status)
	assert.True(t, refreshed.IsFinalized)
	assert.NotNil(t, refreshed.FinalizedAt)
}

func TestFinalizeTwiceCreatesOneOrder(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	productID := seedProduct(t, db, "Denim Jacket", 5, 50000)
	session := createPaidSession(t, svc, userID, productID, 2)

	_, err := svc.Finalize(ctx, userID, session.ID)
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, userID, session.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeAlreadyFinalized, typed.Code())

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	assert.Equal(t, 3, product.Stock, "second finalize must not decrement stock again")

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Where("session_id = ?", session.ID).Count(&orderCount).Error)
	assert.Equal(t, int64(1), orderCount)
}

// rendezvousTxRunner holds every caller at the transaction boundary until
// all expected callers have arrived, then runs the transactions one at a
// time. Callers race through the plain-read guards together, so the
// conditional status claim alone has to pick the winner; the serialization
// only keeps in-memory sqlite from rejecting concurrent writers.
type rendezvousTxRunner struct {
	db   *gorm.DB
	gate *sync.WaitGroup
	mu   sync.Mutex
}

func (r *rendezvousTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.gate.Done()
	r.gate.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.WithContext(ctx).Transaction(fn)
}

func TestFinalizeConcurrentCallsCreateOneOrder(t *testing.T) {
	db := setupCheckoutTestDB(t)
	ctx := context.Background()
	userID := uuid.New()

	const callers = 2
	gate := &sync.WaitGroup{}
	gate.Add(callers)
	svc, err := NewService(
		&rendezvousTxRunner{db: db, gate: gate},
		NewRepository(db),
		orders.NewRepository(db),
		cart.NewRepository(db),
		&fakeGateway{},
		testKeySecret,
		nil,
	)
	require.NoError(t, err)

	productID := seedProduct(t, db, "Cotton Kurta", 5, 50000)
	seedCart(t, db, userID, productID)

	// Pay the session with a plain runner so only the Finalize calls
	// consume the rendezvous gate.
	setup := newCheckoutService(t, db)
	session := createPaidSession(t, setup, userID, productID, 2)

	start := make(chan struct{})
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			<-start
			_, err := svc.Finalize(ctx, userID, session.ID)
			results <- err
		}()
	}
	close(start)

	var finalized, alreadyFinalized int
	for i := 0; i < callers; i++ {
		err := <-results
		if err == nil {
			finalized++
			continue
		}
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		require.Equal(t, pkgerrors.CodeAlreadyFinalized, typed.Code())
		alreadyFinalized++
	}
	assert.Equal(t, 1, finalized, "exactly one caller may win the claim")
	assert.Equal(t, 1, alreadyFinalized)

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	assert.Equal(t, 3, product.Stock, "stock must be decremented exactly once")

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Where("session_id = ?", session.ID).Count(&orderCount).Error)
	assert.Equal(t, int64(1), orderCount)
}

func TestFinalizeUnpaidSession(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	productID := seedProduct(t, db, "Silk Saree", 5, 50000)
	session, err := svc.CreateSession(ctx, userID, sessionInput(productID, 2))
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, userID, session.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePaymentRequired, typed.Code())

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	assert.Equal(t, 5, product.Stock)

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(0), orderCount)
}

func TestFinalizeInsufficientStockRollsBack(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	productID := seedProduct(t, db, "Wool Coat", 1, 50000)
	seedCart(t, db, userID, productID)
	session := createPaidSession(t, svc, userID, productID, 2)

	_, err := svc.Finalize(ctx, userID, session.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Wool Coat", details["product_name"])
	assert.Equal(t, 1, details["available"])

	// Everything rolls back: the claim, the decrement, the cart delete.
	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	assert.Equal(t, 1, product.Stock)

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(0), orderCount)

	var cartCount int64
	require.NoError(t, db.Model(&models.Cart{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.Equal(t, int64(1), cartCount)

	refreshed, err := svc.GetSession(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatusPaid, refreshed.Status)
}

func TestFinalizeMissingProductRollsBack(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	session := createPaidSession(t, svc, userID, uuid.New(), 2)

	_, err := svc.Finalize(ctx, userID, session.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	refreshed, err := svc.GetSession(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatusPaid, refreshed.Status)
}

func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	productID := seedProduct(t, db, "Cotton Kurta", 5, 50000)
	session, err := svc.CreateSession(ctx, userID, sessionInput(productID, 1))
	require.NoError(t, err)
	session, err = svc.CreateGatewayOrder(ctx, userID, session.ID)
	require.NoError(t, err)

	_, err = svc.VerifyPayment(ctx, userID, session.ID, VerifyPaymentInput{
		GatewayOrderID:   *session.GatewayOrderID,
		GatewayPaymentID: "pay_123",
		Signature:        "deadbeef",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePaymentVerification, typed.Code())

	refreshed, err := svc.GetSession(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatusCreated, refreshed.Status)
	assert.False(t, refreshed.IsPaid)
}

func TestVerifyPaymentRejectsForeignGatewayOrder(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	productID := seedProduct(t, db, "Leather Belt", 5, 50000)
	session, err := svc.CreateSession(ctx, userID, sessionInput(productID, 1))
	require.NoError(t, err)
	session, err = svc.CreateGatewayOrder(ctx, userID, session.ID)
	require.NoError(t, err)

	_, err = svc.VerifyPayment(ctx, userID, session.ID, VerifyPaymentInput{
		GatewayOrderID:   "order_someone_elses",
		GatewayPaymentID: "pay_123",
		Signature:        signFor(testKeySecret, "order_someone_elses", "pay_123"),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePaymentVerification, typed.Code())
}

func TestVerifyPaymentIdempotentWhenPaid(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	productID := seedProduct(t, db, "Canvas Shoes", 5, 50000)
	session := createPaidSession(t, svc, userID, productID, 1)

	paymentID := *session.GatewayPaymentID
	again, err := svc.VerifyPayment(ctx, userID, session.ID, VerifyPaymentInput{
		GatewayOrderID:   *session.GatewayOrderID,
		GatewayPaymentID: paymentID,
		Signature:        signFor(testKeySecret, *session.GatewayOrderID, paymentID),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatusPaid, again.Status)
}

func TestCreateGatewayOrderReusesExisting(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gateway := &fakeGateway{}
	svc, err := NewService(
		gormRunner{db: db},
		NewRepository(db),
		orders.NewRepository(db),
		cart.NewRepository(db),
		gateway,
		testKeySecret,
		nil,
	)
	require.NoError(t, err)
	ctx := context.Background()
	userID := uuid.New()

	productID := seedProduct(t, db, "Khadi Shirt", 5, 50000)
	session, err := svc.CreateSession(ctx, userID, sessionInput(productID, 1))
	require.NoError(t, err)

	first, err := svc.CreateGatewayOrder(ctx, userID, session.ID)
	require.NoError(t, err)
	second, err := svc.CreateGatewayOrder(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.GatewayOrderID, *second.GatewayOrderID)
	assert.Equal(t, 1, gateway.calls)
}

func TestCreateSessionValidation(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(t, db, "Linen Shirt", 5, 50000)

	cases := []struct {
		name    string
		mutate  func(*CreateSessionInput)
		message string
	}{
		{
			name:   "empty items",
			mutate: func(in *CreateSessionInput) { in.Items = nil },
		},
		{
			name:   "bad postal code",
			mutate: func(in *CreateSessionInput) { in.ShippingAddress.PostalCode = "12345" },
		},
		{
			name:   "bad phone",
			mutate: func(in *CreateSessionInput) { in.ShippingAddress.Phone = "98765" },
		},
		{
			name:   "blank city",
			mutate: func(in *CreateSessionInput) { in.ShippingAddress.City = "  " },
		},
		{
			name:   "total mismatch",
			mutate: func(in *CreateSessionInput) { in.TotalPrice = decimal.NewFromInt(999) },
		},
		{
			name:   "items price mismatch",
			mutate: func(in *CreateSessionInput) { in.ItemsPrice = decimal.NewFromInt(1) },
		},
		{
			name:   "fractional paise",
			mutate: func(in *CreateSessionInput) { in.TaxPrice = decimal.RequireFromString("0.005") },
		},
		{
			name:   "zero quantity",
			mutate: func(in *CreateSessionInput) { in.Items[0].Quantity = 0 },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := sessionInput(productID, 2)
			tc.mutate(&input)
			_, err := svc.CreateSession(ctx, userID, input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestSessionHiddenFromOtherUsers(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	productID := seedProduct(t, db, "Linen Shirt", 5, 50000)
	session, err := svc.CreateSession(ctx, owner, sessionInput(productID, 1))
	require.NoError(t, err)

	_, err = svc.GetSession(ctx, stranger, session.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
