package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/niyastp88/zayancart/pkg/db/models"
	"github.com/niyastp88/zayancart/pkg/types"
)

// AddItemInput captures the payload for adding a product to the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Size      string
	Color     string
	Quantity  int
}

// ItemDTO is one cart line in API shape. Prices are decimal rupees.
type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// DTO is the cart in API shape.
type DTO struct {
	ID         uuid.UUID       `json:"id"`
	Items      []ItemDTO       `json:"items"`
	TotalItems int             `json:"total_items"`
	Total      decimal.Decimal `json:"total"`
}

func toDTO(cart *models.Cart) *DTO {
	dto := &DTO{
		ID:    cart.ID,
		Items: make([]ItemDTO, 0, len(cart.Items)),
		Total: decimal.Zero,
	}
	for _, item := range cart.Items {
		subtotalPaise := item.PricePaise * int64(item.Quantity)
		dto.Items = append(dto.Items, ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     types.PaiseToRupees(item.PricePaise),
			Image:     item.Image,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
			Subtotal:  types.PaiseToRupees(subtotalPaise),
		})
		dto.TotalItems += item.Quantity
		dto.Total = dto.Total.Add(types.PaiseToRupees(subtotalPaise))
	}
	return dto
}
