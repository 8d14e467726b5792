package projects

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

func (r *PostgresRepository) ListByBond(ctx context.Context, bondID string) ([]*models.Project, error) {
	query :=
		`SELECT id, bond_id, name, project_type, description, country, region, manager_id,
		        start_date, expected_completion_date, actual_completion_date,
		        total_budget, allocated_funds, spent_funds, status, created_at, updated_at
		 FROM projects
		 WHERE bond_id = $1
		 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, bondID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Project
	for rows.Next() {
		p := &models.Project{}
		var status string
		if err := rows.Scan(&p.ID, &p.BondID, &p.Name, &p.ProjectType, &p.Description, &p.Country, &p.Region, &p.ManagerID,
			&p.StartDate, &p.ExpectedCompletionDate, &p.ActualCompletionDate,
			&p.TotalBudget, &p.AllocatedFunds, &p.SpentFunds, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		p.Status = models.ProjectStatus(status)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
