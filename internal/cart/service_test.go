package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/niyastp88/zayancart/internal/products"
	"github.com/niyastp88/zayancart/pkg/db/models"
	pkgerrors "github.com/niyastp88/zayancart/pkg/errors"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
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
  updated_at DATETIME,
  CONSTRAINT idx_cart_items_cart_product_variant UNIQUE (cart_id, product_id, size, color)
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newCartService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), products.NewRepository(db))
	require.NoError(t, err)
	return svc
}

func seedShirt(t *testing.T, db *gorm.DB, stock int) uuid.UUID {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		Name:       "Linen Shirt",
		PricePaise: 50000,
		Sizes:      pq.StringArray{"M", "L"},
		Colors:     pq.StringArray{"White", "Blue"},
		Stock:      stock,
	}
	require.NoError(t, db.Create(product).Error)
	return product.ID
}

func TestAddItemSnapshotsProduct(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedShirt(t, db, 5)

	dto, err := svc.AddItem(ctx, userID, AddItemInput{
		ProductID: productID,
		Size:      "M",
		Color:     "White",
		Quantity:  2,
	})
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	line := dto.Items[0]
	assert.Equal(t, "Linen Shirt", line.Name)
	assert.True(t, line.Price.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.Subtotal.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 2, dto.TotalItems)
	assert.True(t, dto.Total.Equal(decimal.NewFromInt(1000)))
}

func TestAddItemMergesSameVariant(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedShirt(t, db, 5)

	input := AddItemInput{ProductID: productID, Size: "M", Color: "White", Quantity: 2}
	_, err := svc.AddItem(ctx, userID, input)
	require.NoError(t, err)
	dto, err := svc.AddItem(ctx, userID, input)
	require.NoError(t, err)

	require.Len(t, dto.Items, 1, "same variant merges into one line")
	assert.Equal(t, 4, dto.Items[0].Quantity)

	// A different size is its own line.
	dto, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Size: "L", Color: "White", Quantity: 1})
	require.NoError(t, err)
	assert.Len(t, dto.Items, 2)
}

func TestAddItemValidation(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedShirt(t, db, 2)

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: uuid.New(), Quantity: 1})
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	})

	t.Run("size not offered", func(t *testing.T) {
		_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Size: "XXL", Quantity: 1})
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("over stock", func(t *testing.T) {
		_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Size: "M", Quantity: 3})
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
		details, ok := typed.Details().(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Linen Shirt", details["product_name"])
		assert.Equal(t, 2, details["available"])
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Quantity: 0})
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})
}

func TestUpdateItemQuantity(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedShirt(t, db, 5)

	dto, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Size: "M", Quantity: 1})
	require.NoError(t, err)
	itemID := dto.Items[0].ID

	dto, err = svc.UpdateItemQuantity(ctx, userID, itemID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, dto.Items[0].Quantity)

	_, err = svc.UpdateItemQuantity(ctx, userID, itemID, 9)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	_, err = svc.UpdateItemQuantity(ctx, userID, itemID, 0)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRemoveItemAndOwnership(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()
	productID := seedShirt(t, db, 5)

	dto, err := svc.AddItem(ctx, owner, AddItemInput{ProductID: productID, Size: "M", Quantity: 1})
	require.NoError(t, err)
	itemID := dto.Items[0].ID

	_, err = svc.RemoveItem(ctx, stranger, itemID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	dto, err = svc.RemoveItem(ctx, owner, itemID)
	require.NoError(t, err)
	assert.Empty(t, dto.Items)
}

func TestClearDeletesCart(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedShirt(t, db, 5)

	_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Size: "M", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, userID))

	var cartCount int64
	require.NoError(t, db.Model(&models.Cart{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.Equal(t, int64(0), cartCount)

	// Clearing again is a no-op.
	require.NoError(t, svc.Clear(ctx, userID))
}
