package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/dbx"
	"github.com/ecoquad/greenbond/internal/server/models"
)

const selectColumns = `id, gateway_order_id, amount_minor, currency, receipt, idempotency_key,
		user_id, bond_id, status, payment_id, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o *models.PaymentOrder) error {
	query :=
		`INSERT INTO payment_orders (gateway_order_id, amount_minor, currency, receipt, idempotency_key, user_id, bond_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		o.GatewayOrderID, o.AmountMinor, o.Currency, o.Receipt, o.IdempotencyKey, o.UserID, o.BondID, string(o.Status),
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.PaymentOrder, error) {
	query := `SELECT ` + selectColumns + ` FROM payment_orders
		 WHERE idempotency_key = $1`

	return r.getOne(ctx, query, key)
}

func (r *PostgresRepository) GetByGatewayOrderIDForUpdate(ctx context.Context, gatewayOrderID string) (*models.PaymentOrder, error) {
	query := `SELECT ` + selectColumns + ` FROM payment_orders
		 WHERE gateway_order_id = $1
		 FOR UPDATE`

	return r.getOne(ctx, query, gatewayOrderID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.PaymentOrder, error) {
	o := &models.PaymentOrder{}
	var status string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&o.ID, &o.GatewayOrderID, &o.AmountMinor, &o.Currency, &o.Receipt,
		&o.IdempotencyKey, &o.UserID, &o.BondID, &status, &o.PaymentID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	o.Status = models.OrderStatus(status)
	return o, nil
}

func (r *PostgresRepository) MarkPaid(ctx context.Context, gatewayOrderID string, paymentID string) error {
	query :=
		`UPDATE payment_orders SET status = 'paid', payment_id = $2, updated_at = now()
		 WHERE gateway_order_id = $1`

	res, err := r.db.ExecContext(ctx, query, gatewayOrderID, paymentID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
