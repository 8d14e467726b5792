// Package users declares the credential store: persistence of user accounts.
package users

import (
	"context"

	"github.com/ecoquad/greenbond/internal/server/models"
)

// Repository persists users. Email uniqueness is enforced by the store
// itself, so Create is the only place a duplicate is detected.
type Repository interface {
	// Create inserts user and fills in ID and timestamps. It returns
	// common.ErrorAlreadyExists when the email is taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// Update writes the profile fields (names, company) and stamps UpdatedAt.
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateKYCStatus(ctx context.Context, id string, status models.KYCStatus) error
	SetActive(ctx context.Context, id string, active bool) error
}
