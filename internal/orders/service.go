package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/niyastp88/zayancart/internal/checkout/stock"
	"github.com/niyastp88/zayancart/pkg/db/models"
	"github.com/niyastp88/zayancart/pkg/enums"
	pkgerrors "github.com/niyastp88/zayancart/pkg/errors"
)

// ReturnWindow is how long after delivery a return may be opened.
const ReturnWindow = 7 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order operations for customers and admins.
type Service interface {
	ListMine(ctx context.Context, userID uuid.UUID) ([]DTO, error)
	GetByID(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*DTO, error)
	ListAll(ctx context.Context, filters AdminFilters) ([]DTO, error)
	ListReturnRequests(ctx context.Context) ([]DTO, error)
	SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*DTO, error)
	RequestReturn(ctx context.Context, userID, orderID, itemID uuid.UUID, input ReturnRequestInput) (*DTO, error)
	UpdateReturnStatus(ctx context.Context, orderID, itemID uuid.UUID, status enums.ReturnStatus) (*DTO, error)
}

type service struct {
	tx   txRunner
	repo Repository
	now  func() time.Time
}

// NewService builds the orders service.
func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{tx: tx, repo: repo, now: time.Now}, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]DTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toDTOs(records), nil
}

func (s *service) GetByID(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*DTO, error) {
	order, err := s.mustFind(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return ToDTO(order), nil
}

func (s *service) ListAll(ctx context.Context, filters AdminFilters) ([]DTO, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	records, err := s.repo.ListAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	return toDTOs(records), nil
}

func (s *service) ListReturnRequests(ctx context.Context) ([]DTO, error) {
	records, err := s.repo.ListWithReturnRequests(ctx)
	if err != nil {
		return nil, err
	}
	return toDTOs(records), nil
}

func (s *service) SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*DTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := mustFindWith(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.Status == status {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "order already in requested status").
				WithDetails(map[string]any{"status": order.Status})
		}
		if !order.Status.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeInvalidState,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, status)).
				WithDetails(map[string]any{"from": order.Status, "to": status})
		}

		updates := map[string]any{"status": status}
		if status == enums.OrderStatusDelivered {
			updates["delivered_at"] = s.now()
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return err
		}

		if status == enums.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := stock.Restore(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.mustFind(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToDTO(order), nil
}

func (s *service) RequestReturn(ctx context.Context, userID, orderID, itemID uuid.UUID, input ReturnRequestInput) (*DTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown return reason")
	}
	comment := strings.TrimSpace(input.Comment)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := mustFindWith(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the order's owner may request a return")
		}
		if order.Status != enums.OrderStatusDelivered || order.DeliveredAt == nil {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "returns are only accepted for delivered orders")
		}
		if s.now().Sub(*order.DeliveredAt) > ReturnWindow {
			return pkgerrors.New(pkgerrors.CodeReturnWindowExpired, "return window of 7 days has expired")
		}

		item, err := repo.FindItem(ctx, order.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return err
		}
		if item.ReturnStatus != nil {
			return pkgerrors.New(pkgerrors.CodeAlreadyRequested, "return already requested for this item")
		}

		return repo.UpdateItem(ctx, item.ID, map[string]any{
			"return_status":       enums.ReturnStatusPending,
			"return_reason":       input.Reason,
			"return_comment":      comment,
			"return_requested_at": s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	order, err := s.mustFind(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToDTO(order), nil
}

func (s *service) UpdateReturnStatus(ctx context.Context, orderID, itemID uuid.UUID, status enums.ReturnStatus) (*DTO, error) {
	if status != enums.ReturnStatusApproved && status != enums.ReturnStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return status must be approved or rejected")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := mustFindWith(ctx, repo, orderID)
		if err != nil {
			return err
		}

		item, err := repo.FindItem(ctx, order.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return err
		}
		if item.ReturnStatus == nil || *item.ReturnStatus != enums.ReturnStatusPending {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "no pending return request for this item")
		}

		if err := repo.UpdateItem(ctx, item.ID, map[string]any{
			"return_status":      status,
			"return_resolved_at": s.now(),
		}); err != nil {
			return err
		}

		if status == enums.ReturnStatusApproved {
			return stock.Restore(ctx, tx, item.ProductID, item.Quantity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.mustFind(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToDTO(order), nil
}

func (s *service) mustFind(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return mustFindWith(ctx, s.repo, orderID)
}

func mustFindWith(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func toDTOs(records []models.Order) []DTO {
	dtos := make([]DTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, *ToDTO(&records[i]))
	}
	return dtos
}
