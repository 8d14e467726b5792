package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/dbx"
	"github.com/ecoquad/greenbond/internal/logging"
	"github.com/ecoquad/greenbond/internal/server/auth"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/ecoquad/greenbond/internal/server/repositories/repomanager"
)

// AdminService implements operator actions addressed by email.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	logger      logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher, logger logging.Logger) *AdminService {
	return &AdminService{db: db, repomanager: m, hasher: hasher, logger: logger.With("module", "admin_service")}
}

// Lookup finds a user by email.
func (s *AdminService) Lookup(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", email, err)
	}
	return user, nil
}

// SetPassword resets a user's password and signs out every session.
func (s *AdminService) SetPassword(ctx context.Context, email, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	user, err := s.Lookup(ctx, email)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, user.ID)
	})
	if err != nil {
		return fmt.Errorf("error setting password: %w", err)
	}
	s.logger.Info(ctx, "password reset by operator", "user_id", user.ID)
	return nil
}

func (s *AdminService) SetKYCStatus(ctx context.Context, email, status string) error {
	st := models.KYCStatus(status)
	if !st.Valid() {
		return common.NewValidationError("Invalid KYC status")
	}
	user, err := s.Lookup(ctx, email)
	if err != nil {
		return err
	}
	if err := s.repomanager.Users(s.db).UpdateKYCStatus(ctx, user.ID, st); err != nil {
		return err
	}
	s.logger.Info(ctx, "kyc status set", "user_id", user.ID, "kyc_status", status)
	return nil
}

// Deactivate disables login and refresh for the user.
func (s *AdminService) Deactivate(ctx context.Context, email string) error {
	user, err := s.Lookup(ctx, email)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetActive(ctx, user.ID, false); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, user.ID)
	})
	if err != nil {
		return fmt.Errorf("error deactivating user: %w", err)
	}
	s.logger.Info(ctx, "user deactivated", "user_id", user.ID)
	return nil
}
