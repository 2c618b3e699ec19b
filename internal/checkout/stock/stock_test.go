package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/niyastp88/zayancart/pkg/db/models"
	pkgerrors "github.com/niyastp88/zayancart/pkg/errors"
)

func TestDecrement(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productA := uuid.New()
	productB := uuid.New()

	for _, p := range []models.Product{
		{ID: productA, Name: "Linen Shirt", Stock: 5},
		{ID: productB, Name: "Denim Jacket", Stock: 1},
	} {
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed products: %v", err)
		}
	}

	requests := []DecrementRequest{
		{ItemID: uuid.New(), ProductID: productA, Qty: 3},
		{ItemID: uuid.New(), ProductID: productA, Qty: 4},
		{ItemID: uuid.New(), ProductID: productB, Qty: 1},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		results, terr := Decrement(ctx, tx, requests)
		if terr != nil {
			return terr
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		if !results[0].Decremented || results[0].Reason != "" {
			t.Fatalf("expected first decrement to succeed: %+v", results[0])
		}
		if results[1].Decremented {
			t.Fatalf("expected second decrement to fail")
		}
		if results[1].ProductName != "Linen Shirt" || results[1].Available != 2 {
			t.Fatalf("expected failure details with name and remaining stock: %+v", results[1])
		}
		if !results[2].Decremented {
			t.Fatalf("expected third decrement to succeed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("decrement transaction: %v", err)
	}

	var a, b models.Product
	if err := db.First(&a, "id = ?", productA).Error; err != nil {
		t.Fatalf("load product a: %v", err)
	}
	if err := db.First(&b, "id = ?", productB).Error; err != nil {
		t.Fatalf("load product b: %v", err)
	}
	if a.Stock != 2 {
		t.Fatalf("unexpected stock for product a: %d", a.Stock)
	}
	if b.Stock != 0 {
		t.Fatalf("unexpected stock for product b: %d", b.Stock)
	}
}

func TestDecrementMissingProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	results, err := Decrement(ctx, db, []DecrementRequest{
		{ItemID: uuid.New(), ProductID: uuid.New(), Qty: 1},
	})
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if len(results) != 1 || results[0].Decremented {
		t.Fatalf("expected failed result: %+v", results)
	}
	if !results[0].Missing {
		t.Fatalf("expected missing flag for unknown product: %+v", results[0])
	}
}

func TestDecrementInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	if err := db.Create(&models.Product{ID: product, Name: "Scarf", Stock: 5}).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	_, err := Decrement(ctx, db, []DecrementRequest{{ProductID: product, Qty: 0}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRestore(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	if err := db.Create(&models.Product{ID: product, Name: "Kurta", Stock: 2}).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	if err := Restore(ctx, db, product, 3); err != nil {
		t.Fatalf("restore: %v", err)
	}

	var p models.Product
	if err := db.First(&p, "id = ?", product).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if p.Stock != 5 {
		t.Fatalf("expected stock 5, got %d", p.Stock)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	products := `
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
);`
	if err := db.Exec(products).Error; err != nil {
		t.Fatalf("create products table: %v", err)
	}
	return db
}
