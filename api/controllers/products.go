package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/niyastp88/zayancart/api/responses"
	"github.com/niyastp88/zayancart/api/validators"
	productsvc "github.com/niyastp88/zayancart/internal/products"
	"github.com/niyastp88/zayancart/pkg/db/models"
	"github.com/niyastp88/zayancart/pkg/logger"
)

type createProductRequest struct {
	Name        string                `json:"name" validate:"required,min=2,max=200"`
	Description string                `json:"description"`
	Brand       string                `json:"brand" validate:"max=100"`
	Category    string                `json:"category" validate:"max=100"`
	Price       decimal.Decimal       `json:"price" validate:"required"`
	Sizes       []string              `json:"sizes"`
	Colors      []string              `json:"colors"`
	Images      []models.ProductImage `json:"images"`
	Stock       int                   `json:"stock" validate:"min=0"`
}

type updateProductRequest struct {
	Name        *string               `json:"name,omitempty"`
	Description *string               `json:"description,omitempty"`
	Brand       *string               `json:"brand,omitempty"`
	Category    *string               `json:"category,omitempty"`
	Price       *decimal.Decimal      `json:"price,omitempty"`
	Sizes       []string              `json:"sizes,omitempty"`
	Colors      []string              `json:"colors,omitempty"`
	Images      []models.ProductImage `json:"images,omitempty"`
	Stock       *int                  `json:"stock,omitempty"`
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

// ListProducts serves the public catalog with keyword/category/price filters.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		perPage, err := validators.ParseQueryInt(r, "per_page", 0, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priceMin, err := validators.ParseQueryDecimal(r, "price_min")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priceMax, err := validators.ParseQueryDecimal(r, "price_max")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), productsvc.ListFilters{
			Keyword:  validators.SanitizeString(r.URL.Query().Get("keyword"), 200),
			Category: validators.SanitizeString(r.URL.Query().Get("category"), 100),
			PriceMin: priceMin,
			PriceMax: priceMax,
			Page:     page,
			PerPage:  perPage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// CreateProduct handles admin catalog creation.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), productsvc.CreateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Brand:       payload.Brand,
			Category:    payload.Category,
			Price:       payload.Price,
			Sizes:       payload.Sizes,
			Colors:      payload.Colors,
			Images:      payload.Images,
			Stock:       payload.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, productsvc.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Brand:       payload.Brand,
			Category:    payload.Category,
			Price:       payload.Price,
			Sizes:       payload.Sizes,
			Colors:      payload.Colors,
			Images:      payload.Images,
			Stock:       payload.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AddProductReview records one review per customer per product.
func AddProductReview(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AddReview(r.Context(), productID, userID, productsvc.ReviewInput{
			Rating:  payload.Rating,
			Comment: payload.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}
