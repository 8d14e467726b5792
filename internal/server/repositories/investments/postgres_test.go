package investments

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

var investmentColumns = []string{
	"id", "investor_id", "bond_id", "amount", "purchase_price", "purchase_date", "status",
	"expected_return", "maturity_value", "fees", "gateway_order_id", "transaction_id", "created_at", "updated_at",
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	amount := decimal.RequireFromString("100.00")

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+investments.*RETURNING\s+id,\s*purchase_date,\s*created_at,\s*updated_at$`).
		WithArgs("u-1", "b-1", amount, amount, "pending", decimal.Zero, decimal.Zero, decimal.Zero, "order_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "purchase_date", "created_at", "updated_at"}).AddRow("i-1", now, now, now))

	inv := &models.Investment{
		InvestorID: "u-1", BondID: "b-1", Amount: amount, PurchasePrice: amount,
		Status: models.InvestmentPending, GatewayOrderID: "order_1",
	}
	require.NoError(t, repo.Create(context.Background(), inv))
	assert.Equal(t, "i-1", inv.ID)
	assert.Equal(t, now, inv.PurchaseDate)
}

func TestGetByGatewayOrderID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	q := `(?s)^SELECT\s+id,.*FROM\s+investments\s+WHERE\s+gateway_order_id\s*=\s*\$1$`

	mock.ExpectQuery(q).WithArgs("order_1").WillReturnRows(sqlmock.NewRows(investmentColumns).
		AddRow("i-1", "u-1", "b-1", "100.00", "100.00", now, "pending", "0", "0", "0", "order_1", nil, now, now))

	got, err := repo.GetByGatewayOrderID(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentPending, got.Status)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(100)))
	assert.Nil(t, got.TransactionID)

	mock.ExpectQuery(q).WithArgs("none").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByGatewayOrderID(context.Background(), "none")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSettle_OnlyPending(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^UPDATE\s+investments\s+SET\s+status\s*=\s*\$2.*WHERE\s+id\s*=\s*\$1\s+AND\s+status\s*=\s*'pending'$`

	mock.ExpectExec(q).WithArgs("i-1", "confirmed", "pay_1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Confirm(context.Background(), "i-1", "pay_1"))

	mock.ExpectExec(q).WithArgs("i-1", "confirmed", "pay_1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Confirm(context.Background(), "i-1", "pay_1"), common.ErrorNotFound)

	mock.ExpectExec(q).WithArgs("i-2", "failed", "pay_2").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Fail(context.Background(), "i-2", "pay_2"))

	mock.ExpectExec(q).WithArgs("i-3", "failed", "pay_3").WillReturnError(sql.ErrConnDone)
	assert.ErrorIs(t, repo.Fail(context.Background(), "i-3", "pay_3"), sql.ErrConnDone)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByInvestor(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)FROM\s+investments\s+WHERE\s+investor_id\s*=\s*\$1\s+ORDER\s+BY\s+purchase_date\s+DESC$`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(investmentColumns).
			AddRow("i-2", "u-1", "b-1", "50.00", "50.00", now, "confirmed", "3.5", "53.5", "0", "order_2", "pay_2", now, now).
			AddRow("i-1", "u-1", "b-1", "100.00", "100.00", now, "pending", "0", "0", "0", "order_1", nil, now, now))

	got, err := repo.ListByInvestor(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].TransactionID)
	assert.Equal(t, "pay_2", *got[0].TransactionID)
}
