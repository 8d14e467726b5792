// Package investments persists investor holdings in green bonds.
package investments

import (
	"context"

	"github.com/ecoquad/greenbond/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, inv *models.Investment) error
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Investment, error)
	// Confirm moves a pending investment to confirmed and records the
	// gateway payment id.
	Confirm(ctx context.Context, id string, transactionID string) error
	// Fail marks a pending investment failed, keeping the payment id for
	// reconciliation.
	Fail(ctx context.Context, id string, transactionID string) error
	ListByInvestor(ctx context.Context, investorID string) ([]*models.Investment, error)
}
