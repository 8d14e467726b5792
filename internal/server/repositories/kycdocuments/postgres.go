package kycdocuments

import (
	"context"
	"fmt"

	"github.com/ecoquad/greenbond/internal/dbx"
	"github.com/ecoquad/greenbond/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, doc *models.KYCDocument) error {
	query :=
		`INSERT INTO kyc_documents (user_id, storage_key, document_type)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`

	if err := r.db.QueryRowContext(ctx, query, doc.UserID, doc.StorageKey, doc.DocumentType).
		Scan(&doc.ID, &doc.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.KYCDocument, error) {
	query :=
		`SELECT id, user_id, storage_key, document_type, created_at
		 FROM kyc_documents
		 WHERE user_id = $1
		 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.KYCDocument
	for rows.Next() {
		d := &models.KYCDocument{}
		if err := rows.Scan(&d.ID, &d.UserID, &d.StorageKey, &d.DocumentType, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
