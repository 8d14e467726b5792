// Package kycdocuments persists metadata of uploaded KYC documents.
package kycdocuments

import (
	"context"

	"github.com/ecoquad/greenbond/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, doc *models.KYCDocument) error
	ListByUser(ctx context.Context, userID string) ([]*models.KYCDocument, error)
}
