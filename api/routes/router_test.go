package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	cartsvc "github.com/niyastp88/zayancart/internal/cart"
	checkoutsvc "github.com/niyastp88/zayancart/internal/checkout"
	ordersvc "github.com/niyastp88/zayancart/internal/orders"
	productsvc "github.com/niyastp88/zayancart/internal/products"
	usersvc "github.com/niyastp88/zayancart/internal/users"
	"github.com/niyastp88/zayancart/pkg/config"
	"github.com/niyastp88/zayancart/pkg/logger"
	"github.com/niyastp88/zayancart/pkg/razorpay"
)

var routerTestDDL = []string{`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'customer',
  created_at DATETIME,
  updated_at DATETIME
);`, `
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
CREATE TABLE IF NOT EXISTS product_reviews (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  rating INTEGER NOT NULL,
  comment TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT idx_product_reviews_product_user UNIQUE (product_id, user_id)
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
  updated_at DATETIME,
  CONSTRAINT idx_cart_items_cart_product_variant UNIQUE (cart_id, product_id, size, color)
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

type routerTxRunner struct {
	db *gorm.DB
}

func (r routerTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type routerFakeGateway struct{}

func (routerFakeGateway) CreateOrder(_ context.Context, amountPaise int64, receipt string) (*razorpay.GatewayOrder, error) {
	return &razorpay.GatewayOrder{ID: "order_" + receipt, AmountPaise: amountPaise, Currency: "INR"}, nil
}

func routerTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "zayancart-test",
			ExpirationMinutes: 15,
		},
		Frontend: config.FrontendConfig{BaseURL: "http://localhost:3000"},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	dsn := "file:router_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range routerTestDDL {
		require.NoError(t, db.Exec(stmt).Error)
	}

	cfg := routerTestConfig()
	tx := routerTxRunner{db: db}

	usersService, err := usersvc.NewService(usersvc.NewRepository(db), cfg.JWT, config.PasswordConfig{})
	require.NoError(t, err)

	productsRepo := productsvc.NewRepository(db)
	productsService, err := productsvc.NewService(tx, productsRepo, usersService)
	require.NoError(t, err)

	cartRepo := cartsvc.NewRepository(db)
	cartService, err := cartsvc.NewService(cartRepo, productsRepo)
	require.NoError(t, err)

	ordersRepo := ordersvc.NewRepository(db)
	ordersService, err := ordersvc.NewService(tx, ordersRepo)
	require.NoError(t, err)

	checkoutService, err := checkoutsvc.NewService(
		tx,
		checkoutsvc.NewRepository(db),
		ordersRepo,
		cartRepo,
		routerFakeGateway{},
		"router_test_secret",
		nil,
	)
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "router-test"})
	handler := NewRouter(cfg, logg, nil, nil, nil,
		usersService, productsService, cartService, checkoutService, ordersService)
	return handler, db
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func registerUser(t *testing.T, handler http.Handler, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":"Niyas","email":%q,"password":"s3cret-pass"}`, email)
	w := doJSON(t, handler, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	require.NotEmpty(t, envelope.Data.Token)
	return envelope.Data.Token
}

func TestHealthLive(t *testing.T) {
	handler, _ := newTestRouter(t)

	w := doJSON(t, handler, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", w.Header().Get("X-Zayancart-Env"))
}

func TestRegisterLoginAndMe(t *testing.T) {
	handler, _ := newTestRouter(t)

	token := registerUser(t, handler, "niyas@example.com")

	w := doJSON(t, handler, http.MethodGet, "/api/v1/auth/me", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var envelope struct {
		Data struct {
			Email string `json:"email"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Equal(t, "niyas@example.com", envelope.Data.Email)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	handler, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/cart", "/api/v1/orders", "/api/v1/auth/me"} {
		w := doJSON(t, handler, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestPublicCatalogNeedsNoAuth(t *testing.T) {
	handler, _ := newTestRouter(t)

	w := doJSON(t, handler, http.MethodGet, "/api/v1/products", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	handler, _ := newTestRouter(t)

	token := registerUser(t, handler, "customer@example.com")

	w := doJSON(t, handler, http.MethodPost, "/api/v1/admin/products", token,
		`{"name":"Linen Shirt","price":500,"stock":3}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminCanManageCatalog(t *testing.T) {
	handler, db := newTestRouter(t)

	registerUser(t, handler, "admin@example.com")
	require.NoError(t, db.Exec(`UPDATE users SET role = 'admin' WHERE email = 'admin@example.com'`).Error)

	// Re-login to mint a token carrying the admin role.
	w := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"admin@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&login))

	w = doJSON(t, handler, http.MethodPost, "/api/v1/admin/products", login.Data.Token,
		`{"name":"Linen Shirt","brand":"Zayan","category":"shirts","price":500,"sizes":["M"],"colors":["White"],"stock":3}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, handler, http.MethodGet, "/api/v1/products?keyword=linen", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data struct {
			Products []struct {
				Name string `json:"name"`
			} `json:"products"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Data.Products, 1)
	assert.Equal(t, "Linen Shirt", list.Data.Products[0].Name)
}
