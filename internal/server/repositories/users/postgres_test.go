package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
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

var userColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name", "user_type",
	"company_name", "kyc_status", "is_active", "created_at", "updated_at",
}

const insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(email,.*\)\s*VALUES\s*\(\$1,.*\$8\)\s*RETURNING\s+id,\s*created_at,\s*updated_at$`

func newUser() *models.User {
	return &models.User{
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Alice",
		LastName:     "Green",
		UserType:     models.UserTypeRetailInvestor,
		KYCStatus:    models.KYCPending,
		IsActive:     true,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(insertQuery).
		WithArgs("alice@example.com", "$2a$10$hash", "Alice", "Green", "retail_investor", nil, "pending", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("u-1", now, now))

	got, err := repo.Create(context.Background(), newUser())
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, now, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), newUser())
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), newUser())
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestGetUserByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	company := "Acme Solar"

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			"u-1", "alice@example.com", "hash", "Alice", "Green", "bond_issuer",
			company, "verified", true, now, now,
		))

	got, err := repo.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, models.UserTypeBondIssuer, got.UserType)
	assert.Equal(t, models.KYCVerified, got.KYCStatus)
	require.NotNil(t, got.CompanyName)
	assert.Equal(t, company, *got.CompanyName)
}

func TestGetUserByID_NullCompany(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			"u-1", "alice@example.com", "hash", "Alice", "Green", "retail_investor",
			nil, "pending", true, now, now,
		))

	got, err := repo.GetUserByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Nil(t, got.CompanyName)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^UPDATE\s+users\s+SET\s+first_name\s*=\s*\$2,\s*last_name\s*=\s*\$3,\s*company_name\s*=\s*\$4.*RETURNING\s+updated_at$`

	t.Run("success", func(t *testing.T) {
		stamp := time.Now()
		mock.ExpectQuery(q).
			WithArgs("u-1", "Alicia", "Green", nil).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(stamp))

		u := &models.User{ID: "u-1", FirstName: "Alicia", LastName: "Green"}
		require.NoError(t, repo.Update(context.Background(), u))
		assert.Equal(t, stamp, u.UpdatedAt)
	})

	t.Run("missing user", func(t *testing.T) {
		mock.ExpectQuery(q).WillReturnError(sql.ErrNoRows)
		err := repo.Update(context.Background(), &models.User{ID: "nope"})
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestUpdatePassword(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1$`

	mock.ExpectExec(q).WithArgs("u-1", "new-hash").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePassword(context.Background(), "u-1", "new-hash"))

	mock.ExpectExec(q).WithArgs("u-2", "new-hash").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), "u-2", "new-hash"), common.ErrorNotFound)

	mock.ExpectExec(q).WillReturnError(errors.New("db err"))
	err := repo.UpdatePassword(context.Background(), "u-3", "h")
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db err`, err.Error())
}

func TestUpdateKYCStatus(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+kyc_status\s*=\s*\$2`).
		WithArgs("u-1", "verified").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateKYCStatus(context.Background(), "u-1", models.KYCVerified))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActive(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+is_active\s*=\s*\$2`).
		WithArgs("u-1", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetActive(context.Background(), "u-1", false))
	require.NoError(t, mock.ExpectationsWereMet())
}
