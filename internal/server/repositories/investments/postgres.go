package investments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/dbx"
	"github.com/ecoquad/greenbond/internal/server/models"
)

const selectColumns = `id, investor_id, bond_id, amount, purchase_price, purchase_date, status,
		expected_return, maturity_value, fees, gateway_order_id, transaction_id, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvestment(row scanner) (*models.Investment, error) {
	inv := &models.Investment{}
	var status string
	if err := row.Scan(&inv.ID, &inv.InvestorID, &inv.BondID, &inv.Amount, &inv.PurchasePrice, &inv.PurchaseDate, &status,
		&inv.ExpectedReturn, &inv.MaturityValue, &inv.Fees, &inv.GatewayOrderID, &inv.TransactionID,
		&inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	inv.Status = models.InvestmentStatus(status)
	return inv, nil
}

func (r *PostgresRepository) Create(ctx context.Context, inv *models.Investment) error {
	query :=
		`INSERT INTO investments (investor_id, bond_id, amount, purchase_price, status,
		                          expected_return, maturity_value, fees, gateway_order_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, purchase_date, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		inv.InvestorID, inv.BondID, inv.Amount, inv.PurchasePrice, string(inv.Status),
		inv.ExpectedReturn, inv.MaturityValue, inv.Fees, inv.GatewayOrderID,
	).Scan(&inv.ID, &inv.PurchaseDate, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Investment, error) {
	query := `SELECT ` + selectColumns + ` FROM investments
		 WHERE gateway_order_id = $1`

	inv, err := scanInvestment(r.db.QueryRowContext(ctx, query, gatewayOrderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return inv, nil
}

func (r *PostgresRepository) Confirm(ctx context.Context, id string, transactionID string) error {
	return r.settle(ctx, id, models.InvestmentConfirmed, transactionID)
}

func (r *PostgresRepository) Fail(ctx context.Context, id string, transactionID string) error {
	return r.settle(ctx, id, models.InvestmentFailed, transactionID)
}

func (r *PostgresRepository) settle(ctx context.Context, id string, status models.InvestmentStatus, transactionID string) error {
	query :=
		`UPDATE investments SET status = $2, transaction_id = $3, updated_at = now()
		 WHERE id = $1 AND status = 'pending'`

	res, err := r.db.ExecContext(ctx, query, id, string(status), transactionID)
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

func (r *PostgresRepository) ListByInvestor(ctx context.Context, investorID string) ([]*models.Investment, error) {
	query := `SELECT ` + selectColumns + ` FROM investments
		 WHERE investor_id = $1
		 ORDER BY purchase_date DESC`

	rows, err := r.db.QueryContext(ctx, query, investorID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
