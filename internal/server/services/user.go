package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/dbx"
	"github.com/ecoquad/greenbond/internal/logging"
	"github.com/ecoquad/greenbond/internal/server/auth"
	"github.com/ecoquad/greenbond/internal/server/events"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/ecoquad/greenbond/internal/server/repositories/repomanager"
)

const minPasswordLen = 6

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterInput is the data a new user supplies.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	UserType    string
	CompanyName *string
}

// ProfileUpdate holds optional profile changes; nil fields stay unchanged.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	CompanyName *string
}

// UserDeps are the collaborators of UserService.
type UserDeps struct {
	Hasher          *auth.PasswordHasher
	Tokens          *auth.TokenIssuer
	Revoked         *auth.RevocationList
	Events          events.Publisher
	Logger          logging.Logger
	RefreshTokenTTL time.Duration
}

// UserService provides authentication and profile operations.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenIssuer
	revoked     *auth.RevocationList
	events      events.Publisher
	logger      logging.Logger
	refreshTTL  time.Duration
	dummyHash   string
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, deps UserDeps) *UserService {
	// Compared against when the email is unknown so that login timing does
	// not reveal which emails are registered.
	dummy, _ := deps.Hasher.Hash("greenbond-timing-equaliser")

	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      deps.Hasher,
		tokens:      deps.Tokens,
		revoked:     deps.Revoked,
		events:      deps.Events,
		logger:      deps.Logger.With("module", "user_service"),
		refreshTTL:  deps.RefreshTokenTTL,
		dummyHash:   dummy,
	}
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return common.NewValidationError(fmt.Sprintf("Password must be at least %d characters long", minPasswordLen))
	}
	if len(password) > auth.MaxPasswordBytes {
		return common.NewValidationError(fmt.Sprintf("Password must be at most %d bytes long", auth.MaxPasswordBytes))
	}
	return nil
}

func (in *RegisterInput) validate() (models.UserType, error) {
	required := []struct{ name, value string }{
		{"email", in.Email},
		{"password", in.Password},
		{"firstName", in.FirstName},
		{"lastName", in.LastName},
		{"userType", in.UserType},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return "", common.NewValidationError(f.name + " is required")
		}
	}
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		return "", common.NewValidationError("Invalid email format")
	}
	if err := validatePassword(in.Password); err != nil {
		return "", err
	}
	userType, ok := models.ParseUserType(in.UserType)
	if !ok {
		return "", common.NewValidationError("Invalid user type")
	}
	return userType, nil
}

// Register creates a user and issues its first token pair. The user row and
// the refresh token are written in one transaction. A taken email yields
// common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, *TokenPair, error) {
	userType, err := in.validate()
	if err != nil {
		return nil, nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		Email:        models.NormalizeEmail(in.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		UserType:     userType,
		CompanyName:  in.CompanyName,
		KYCStatus:    models.KYCPending,
		IsActive:     true,
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user.ID, tx)
		return genErr
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "user_type", string(user.UserType))
	s.publish(ctx, events.SubjectUserRegistered, events.UserRegistered{
		UserID: user.ID, Email: user.Email, UserType: string(user.UserType), OccurredAt: time.Now().UTC(),
	})

	return user, pair, nil
}

// Login verifies the credentials and returns a new TokenPair.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, nil, common.NewValidationError("Email and password are required")
	}

	invalid := common.NewAuthError("Invalid email or password")

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, nil, invalid
		}
		return nil, nil, fmt.Errorf("error loading user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil, invalid
	}
	if !user.IsActive {
		return nil, nil, common.ErrorInactive
	}

	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout revokes the access token described by claims and, when given, the
// caller's refresh token.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims, refreshToken string) error {
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("error revoking access token: %w", err)
	}

	if refreshToken == "" {
		return nil
	}
	if err := s.repomanager.RefreshTokens(s.db).Revoke(ctx, claims.UserID(), refreshToken); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

// Profile returns the user with the given id.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetUserByID(ctx, userID)
}

// UpdateProfile applies upd to the user's names and company.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.FirstName != nil {
		user.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		user.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.CompanyName != nil {
		user.CompanyName = upd.CompanyName
	}

	if err := repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one. All
// refresh tokens of the user are revoked in the same transaction. A wrong
// current password leaves the stored hash untouched.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return common.NewValidationError("Current password and new password are required")
	}

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return common.NewAuthError("Current password is incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, userID, hash); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("error changing password: %w", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// RefreshToken exchanges a refresh token for a new pair. The presented token
// is consumed in the same transaction that stores its successor, so it can
// be used once. Expired tokens are removed and yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.NewValidationError("refresh_token is required")
	}

	var (
		pair    *TokenPair
		expired bool
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewAuthError("Invalid refresh token")
			}
			return err
		}
		if token.Expired(time.Now()) {
			expired = true
			return nil
		}

		user, err := s.repomanager.Users(tx).GetUserByID(ctx, token.UserID)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return common.ErrorInactive
		}

		pair, err = s.generateTokenPair(ctx, user.ID, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, common.ErrRefreshTokenExpired
	}
	return pair, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, _, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, refresh, s.refreshTTL); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *UserService) publish(ctx context.Context, subject string, event any) {
	if err := s.events.Publish(ctx, subject, event); err != nil {
		s.logger.Warn(ctx, "event not published", "subject", subject, "error", err)
	}
}
