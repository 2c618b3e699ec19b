package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/niyastp88/zayancart/pkg/db/models"
	"github.com/niyastp88/zayancart/pkg/types"
)

// ListFilters describe the inputs supported by the product list.
type ListFilters struct {
	Keyword  string
	Category string
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
	Page     int
	PerPage  int
}

// CreateInput carries the admin payload for a new listing.
type CreateInput struct {
	Name        string
	Description string
	Brand       string
	Category    string
	Price       decimal.Decimal
	Sizes       []string
	Colors      []string
	Images      []models.ProductImage
	Stock       int
}

// UpdateInput carries partial updates; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	Brand       *string
	Category    *string
	Price       *decimal.Decimal
	Sizes       []string
	Colors      []string
	Images      []models.ProductImage
	Stock       *int
}

// ReviewInput is the customer payload for a product review.
type ReviewInput struct {
	Rating  int
	Comment string
}

// ReviewDTO is one review in API shape.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// DTO is a product in API shape. Price is decimal rupees.
type DTO struct {
	ID          uuid.UUID             `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Brand       string                `json:"brand"`
	Category    string                `json:"category"`
	Price       decimal.Decimal       `json:"price"`
	Sizes       []string              `json:"sizes"`
	Colors      []string              `json:"colors"`
	Images      []models.ProductImage `json:"images"`
	Stock       int                   `json:"stock"`
	InStock     bool                  `json:"in_stock"`
	Rating      float64               `json:"rating"`
	NumReviews  int                   `json:"num_reviews"`
	Reviews     []ReviewDTO           `json:"reviews,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// List wraps a page of products plus paging metadata.
type List struct {
	Products   []DTO `json:"products"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

func toDTO(product *models.Product, includeReviews bool) *DTO {
	dto := &DTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Brand:       product.Brand,
		Category:    product.Category,
		Price:       types.PaiseToRupees(product.PricePaise),
		Sizes:       product.Sizes,
		Colors:      product.Colors,
		Images:      product.Images,
		Stock:       product.Stock,
		InStock:     product.Stock > 0,
		Rating:      product.Rating,
		NumReviews:  product.NumReviews,
		CreatedAt:   product.CreatedAt,
	}
	if includeReviews {
		dto.Reviews = make([]ReviewDTO, 0, len(product.Reviews))
		for _, review := range product.Reviews {
			dto.Reviews = append(dto.Reviews, ReviewDTO{
				ID:        review.ID,
				UserID:    review.UserID,
				Name:      review.Name,
				Rating:    review.Rating,
				Comment:   review.Comment,
				CreatedAt: review.CreatedAt,
			})
		}
	}
	return dto
}
