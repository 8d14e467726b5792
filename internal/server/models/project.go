package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus is the execution state of a funded project.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

// Project is an environmental project funded by a green bond.
type Project struct {
	ID                     string
	BondID                 string
	Name                   string
	ProjectType            string
	Description            string
	Country                string
	Region                 string
	ManagerID              *string
	StartDate              *time.Time
	ExpectedCompletionDate *time.Time
	ActualCompletionDate   *time.Time
	TotalBudget            decimal.Decimal
	AllocatedFunds         decimal.Decimal
	SpentFunds             decimal.Decimal
	Status                 ProjectStatus
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Validate checks the funding invariant spent <= allocated <= budget.
func (p *Project) Validate() error {
	if p.TotalBudget.IsNegative() || p.AllocatedFunds.IsNegative() || p.SpentFunds.IsNegative() {
		return errors.New("project amounts must not be negative")
	}
	if p.AllocatedFunds.GreaterThan(p.TotalBudget) {
		return errors.New("allocated funds exceed total budget")
	}
	if p.SpentFunds.GreaterThan(p.AllocatedFunds) {
		return errors.New("spent funds exceed allocated funds")
	}
	return nil
}
