package bonds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/dbx"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/shopspring/decimal"
)

const selectColumns = `id, issuer_id, name, isin, bond_type, face_value, coupon_rate, currency,
		minimum_investment, total_amount, amount_raised, risk_rating, status,
		issue_date, maturity_date, description, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBond(row scanner) (*models.GreenBond, error) {
	b := &models.GreenBond{}
	var status string
	err := row.Scan(&b.ID, &b.IssuerID, &b.Name, &b.ISIN, &b.BondType, &b.FaceValue, &b.CouponRate, &b.Currency,
		&b.MinimumInvestment, &b.TotalAmount, &b.AmountRaised, &b.RiskRating, &status,
		&b.IssueDate, &b.MaturityDate, &b.Description, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = models.BondStatus(status)
	return b, nil
}

func (r *PostgresRepository) List(ctx context.Context, status *models.BondStatus) ([]*models.GreenBond, error) {
	query := `SELECT ` + selectColumns + ` FROM green_bonds
		 WHERE ($1::text IS NULL OR status = $1)
		 ORDER BY created_at DESC`

	var arg any
	if status != nil {
		arg = string(*status)
	}

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.GreenBond
	for rows.Next() {
		b, err := scanBond(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.GreenBond, error) {
	query := `SELECT ` + selectColumns + ` FROM green_bonds
		 WHERE id = $1`

	b, err := scanBond(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) AddRaised(ctx context.Context, id string, amount decimal.Decimal) error {
	query :=
		`UPDATE green_bonds SET amount_raised = amount_raised + $2, updated_at = now()
		 WHERE id = $1 AND amount_raised + $2 <= total_amount`

	res, err := r.db.ExecContext(ctx, query, id, amount)
	if err != nil {
		if dbx.IsCheckViolation(err) {
			return common.ErrFundingExceeded
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrFundingExceeded
	}
	return nil
}
