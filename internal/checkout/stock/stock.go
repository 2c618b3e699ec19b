package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/niyastp88/zayancart/pkg/db/models"
	pkgerrors "github.com/niyastp88/zayancart/pkg/errors"
)

// DecrementRequest asks for qty units of a product.
type DecrementRequest struct {
	ItemID    uuid.UUID
	ProductID uuid.UUID
	Qty       int
}

// DecrementResult reports the outcome for one request. When Decremented is
// false, Reason holds a human-readable explanation and Available the stock
// level observed at failure time.
type DecrementResult struct {
	ItemID      uuid.UUID
	ProductID   uuid.UUID
	Decremented bool
	Reason      string
	ProductName string
	Available   int
	Missing     bool
}

// Decrement takes stock for each request using a conditional update, so two
// concurrent transactions can never both claim the last unit. A failed
// request does not stop the remaining ones; the caller decides whether the
// batch as a whole succeeds.
func Decrement(ctx context.Context, tx *gorm.DB, requests []DecrementRequest) ([]DecrementResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction handle required")
	}

	results := make([]DecrementResult, 0, len(requests))
	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}

		res := DecrementResult{ItemID: req.ItemID, ProductID: req.ProductID}

		update := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND stock >= ?", req.ProductID, req.Qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", req.Qty))
		if update.Error != nil {
			return nil, update.Error
		}

		if update.RowsAffected == 0 {
			var product models.Product
			err := tx.WithContext(ctx).
				Select("id", "name", "stock").
				Where("id = ?", req.ProductID).
				First(&product).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				res.Missing = true
				res.Reason = "product no longer exists"
			case err != nil:
				return nil, err
			default:
				res.ProductName = product.Name
				res.Available = product.Stock
				res.Reason = "insufficient stock"
			}
		} else {
			res.Decremented = true
		}

		results = append(results, res)
	}
	return results, nil
}

// Restore returns previously taken stock, used when an admin approves a
// return or cancels an order.
func Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}
