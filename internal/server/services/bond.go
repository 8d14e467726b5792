package services

import (
	"context"
	"database/sql"

	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/ecoquad/greenbond/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// BondService serves the read-only marketplace catalog.
type BondService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewBondService(db *sql.DB, m repomanager.RepositoryManager) *BondService {
	return &BondService{db: db, repomanager: m}
}

// isUUID guards id columns from malformed input, which PostgreSQL would
// otherwise reject with a cast error.
func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// List returns bonds, newest first, optionally filtered by status.
func (s *BondService) List(ctx context.Context, status string) ([]*models.GreenBond, error) {
	if status == "" {
		return s.repomanager.Bonds(s.db).List(ctx, nil)
	}
	st := models.BondStatus(status)
	if !st.Valid() {
		return nil, common.NewValidationError("Invalid bond status")
	}
	return s.repomanager.Bonds(s.db).List(ctx, &st)
}

func (s *BondService) Get(ctx context.Context, id string) (*models.GreenBond, error) {
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Bonds(s.db).GetByID(ctx, id)
}

// Projects lists the projects funded by the bond. An unknown bond is
// reported as common.ErrorNotFound rather than an empty list.
func (s *BondService) Projects(ctx context.Context, bondID string) ([]*models.Project, error) {
	if _, err := s.Get(ctx, bondID); err != nil {
		return nil, err
	}
	return s.repomanager.Projects(s.db).ListByBond(ctx, bondID)
}

// Investments lists the investor's holdings, newest first.
func (s *BondService) Investments(ctx context.Context, investorID string) ([]*models.Investment, error) {
	return s.repomanager.Investments(s.db).ListByInvestor(ctx, investorID)
}
