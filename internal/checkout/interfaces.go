package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/niyastp88/zayancart/pkg/db/models"
	"github.com/niyastp88/zayancart/pkg/enums"
)

// Repository defines persistence operations for checkout sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSession(ctx context.Context, session *models.CheckoutSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CheckoutSession, error)
	UpdateSession(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// Transition flips the session status only when it still holds the
	// expected value, and reports whether this caller won the flip.
	Transition(ctx context.Context, id uuid.UUID, from, to enums.CheckoutStatus, extra map[string]any) (bool, error)
}
