package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/niyastp88/zayancart/pkg/db/models"
	pkgerrors "github.com/niyastp88/zayancart/pkg/errors"
	"github.com/niyastp88/zayancart/pkg/types"
)

const (
	defaultPerPage = 12
	maxPerPage     = 50
	minRating      = 1
	maxRating      = 5
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reviewerLoader interface {
	DisplayName(ctx context.Context, userID uuid.UUID) (string, error)
}

// Service exposes catalog operations.
type Service interface {
	List(ctx context.Context, filters ListFilters) (*List, error)
	GetByID(ctx context.Context, id uuid.UUID) (*DTO, error)
	Create(ctx context.Context, input CreateInput) (*DTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*DTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddReview(ctx context.Context, productID, userID uuid.UUID, input ReviewInput) (*DTO, error)
}

type service struct {
	tx        txRunner
	repo      Repository
	reviewers reviewerLoader
}

// NewService builds the catalog service.
func NewService(tx txRunner, repo Repository, reviewers reviewerLoader) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if reviewers == nil {
		return nil, fmt.Errorf("reviewer loader required")
	}
	return &service{tx: tx, repo: repo, reviewers: reviewers}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) (*List, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PerPage <= 0 {
		filters.PerPage = defaultPerPage
	}
	if filters.PerPage > maxPerPage {
		filters.PerPage = maxPerPage
	}
	if filters.PriceMin != nil && filters.PriceMax != nil && filters.PriceMin.GreaterThan(*filters.PriceMax) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_min cannot exceed price_max")
	}

	records, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	list := &List{
		Products:   make([]DTO, 0, len(records)),
		Page:       filters.Page,
		PerPage:    filters.PerPage,
		TotalCount: total,
	}
	for i := range records {
		list.Products = append(list.Products, *toDTO(&records[i], false))
	}
	list.TotalPages = int((total + int64(filters.PerPage) - 1) / int64(filters.PerPage))
	return list, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*DTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByIDWithReviews(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return toDTO(product, true), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*DTO, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	pricePaise, err := types.RupeesToPaise(input.Price)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}

	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Brand:       input.Brand,
		Category:    input.Category,
		PricePaise:  pricePaise,
		Sizes:       pq.StringArray(input.Sizes),
		Colors:      pq.StringArray(input.Colors),
		Images:      input.Images,
		Stock:       input.Stock,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toDTO(product, false), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*DTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Brand != nil {
		updates["brand"] = *input.Brand
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.Price != nil {
		pricePaise, err := types.RupeesToPaise(*input.Price)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		updates["price_paise"] = pricePaise
	}
	if input.Sizes != nil {
		updates["sizes"] = pq.StringArray(input.Sizes)
	}
	if input.Colors != nil {
		updates["colors"] = pq.StringArray(input.Colors)
	}
	if input.Images != nil {
		updates["images"] = input.Images
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		updates["stock"] = *input.Stock
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if _, err := s.mustFind(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Updates(ctx, id, updates); err != nil {
		return nil, err
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDTO(product, false), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if _, err := s.mustFind(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) AddReview(ctx context.Context, productID, userID uuid.UUID, input ReviewInput) (*DTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Rating < minRating || input.Rating > maxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if strings.TrimSpace(input.Comment) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment required")
	}

	name, err := s.reviewers.DisplayName(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByID(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return err
		}

		_, err := repo.FindReview(ctx, productID, userID)
		switch {
		case err == nil:
			return pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed")
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		review := &models.ProductReview{
			ProductID: productID,
			UserID:    userID,
			Name:      name,
			Rating:    input.Rating,
			Comment:   strings.TrimSpace(input.Comment),
		}
		if err := repo.CreateReview(ctx, review); err != nil {
			return err
		}

		count, average, err := repo.ReviewAggregate(ctx, productID)
		if err != nil {
			return err
		}
		return repo.Updates(ctx, productID, map[string]any{
			"num_reviews": count,
			"rating":      average,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, productID)
}

func (s *service) mustFind(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return product, nil
}
