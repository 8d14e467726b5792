// Package projects persists the environmental projects funded by bonds.
package projects

import (
	"context"

	"github.com/ecoquad/greenbond/internal/server/models"
)

type Repository interface {
	ListByBond(ctx context.Context, bondID string) ([]*models.Project, error)
}
