// Package bonds persists green bonds.
package bonds

import (
	"context"

	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// List returns bonds, newest first. A nil status means every status.
	List(ctx context.Context, status *models.BondStatus) ([]*models.GreenBond, error)
	GetByID(ctx context.Context, id string) (*models.GreenBond, error)
	// AddRaised increases amount_raised by amount unless that would exceed
	// total_amount, in which case it returns common.ErrFundingExceeded.
	AddRaised(ctx context.Context, id string, amount decimal.Decimal) error
}
