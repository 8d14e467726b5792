package projects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListByBond(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	q := `(?s)^SELECT\s+id,\s*bond_id,.*FROM\s+projects\s+WHERE\s+bond_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at$`
	cols := []string{
		"id", "bond_id", "name", "project_type", "description", "country", "region", "manager_id",
		"start_date", "expected_completion_date", "actual_completion_date",
		"total_budget", "allocated_funds", "spent_funds", "status", "created_at", "updated_at",
	}
	now := time.Now()

	mock.ExpectQuery(q).WithArgs("b1").WillReturnRows(sqlmock.NewRows(cols).
		AddRow("p1", "b1", "Solar farm", "solar", "50MW", "IN", "Rajasthan", "m1",
			now, now.AddDate(1, 0, 0), nil, "1000000.00", "600000.00", "250000.00", "in_progress", now, now).
		AddRow("p2", "b1", "Wind park", "wind", "", "IN", "", nil,
			nil, nil, nil, "500000.00", "0", "0", "planning", now, now))

	got, err := repo.ListByBond(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.ProjectInProgress, got[0].Status)
	require.NotNil(t, got[0].ManagerID)
	assert.Equal(t, "m1", *got[0].ManagerID)
	assert.Nil(t, got[0].ActualCompletionDate)
	assert.NoError(t, got[0].Validate())

	assert.Nil(t, got[1].ManagerID)
	assert.Nil(t, got[1].StartDate)

	mock.ExpectQuery(q).WillReturnError(errors.New("db down"))
	_, err = repo.ListByBond(context.Background(), "b1")
	assert.Error(t, err)
}
