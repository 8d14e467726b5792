package orders

import (
	"context"

	"github.com/ecoquad/greenbond/internal/server/models"
)

type Repository interface {
	// Create stores order. A reused idempotency key or gateway order id
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, order *models.PaymentOrder) error
	GetByIdempotencyKey(ctx context.Context, key string) (*models.PaymentOrder, error)
	// GetByGatewayOrderIDForUpdate loads an order and locks its row until the
	// surrounding transaction ends.
	GetByGatewayOrderIDForUpdate(ctx context.Context, gatewayOrderID string) (*models.PaymentOrder, error)
	MarkPaid(ctx context.Context, gatewayOrderID string, paymentID string) error
}
