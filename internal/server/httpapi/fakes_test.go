package httpapi

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ecoquad/greenbond/internal/cache"
	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/logging"
	"github.com/ecoquad/greenbond/internal/server/auth"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/ecoquad/greenbond/internal/server/services"
	"github.com/google/uuid"
)

// fakeUsers keeps accounts in memory and issues real tokens.
type fakeUsers struct {
	mu        sync.Mutex
	tokens    *auth.TokenIssuer
	revoked   *auth.RevocationList
	byEmail   map[string]*models.User
	passwords map[string]string
}

func newFakeUsers(tokens *auth.TokenIssuer, revoked *auth.RevocationList) *fakeUsers {
	return &fakeUsers{tokens: tokens, revoked: revoked, byEmail: map[string]*models.User{}, passwords: map[string]string{}}
}

func (f *fakeUsers) pair(userID string) (*services.TokenPair, error) {
	access, _, err := f.tokens.Issue(userID)
	if err != nil {
		return nil, err
	}
	return &services.TokenPair{AccessToken: access, RefreshToken: "refresh-" + userID}, nil
}

func (f *fakeUsers) Register(_ context.Context, in services.RegisterInput) (*models.User, *services.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.Email == "" {
		return nil, nil, common.NewValidationError("email is required")
	}
	email := models.NormalizeEmail(in.Email)
	if _, ok := f.byEmail[email]; ok {
		return nil, nil, common.ErrorAlreadyExists
	}
	now := time.Now()
	u := &models.User{
		ID: uuid.NewString(), Email: email, FirstName: in.FirstName, LastName: in.LastName,
		UserType: models.UserType(in.UserType), KYCStatus: models.KYCPending, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}
	f.byEmail[email] = u
	f.passwords[email] = in.Password
	pair, err := f.pair(u.ID)
	return u, pair, err
}

func (f *fakeUsers) Login(_ context.Context, email, password string) (*models.User, *services.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = models.NormalizeEmail(email)
	u, ok := f.byEmail[email]
	if !ok || f.passwords[email] != password {
		return nil, nil, common.NewAuthError("Invalid email or password")
	}
	pair, err := f.pair(u.ID)
	return u, pair, err
}

func (f *fakeUsers) Logout(ctx context.Context, claims *auth.Claims, _ string) error {
	return f.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (f *fakeUsers) Profile(_ context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == userID {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, userID string, upd services.ProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == userID {
			if upd.FirstName != nil {
				u.FirstName = *upd.FirstName
			}
			if upd.LastName != nil {
				u.LastName = *upd.LastName
			}
			if upd.CompanyName != nil {
				u.CompanyName = upd.CompanyName
			}
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) ChangePassword(_ context.Context, userID, current, next string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, u := range f.byEmail {
		if u.ID == userID {
			if f.passwords[email] != current {
				return common.NewAuthError("Current password is incorrect")
			}
			f.passwords[email] = next
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeUsers) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	if token == "" {
		return nil, common.NewValidationError("refresh_token is required")
	}
	return nil, common.NewAuthError("Invalid refresh token")
}

type fakePayments struct {
	lastInput services.CreateOrderInput
	result    *services.OrderResult
	err       error
	verify    *services.VerifyResult
	verifyErr error
}

func (f *fakePayments) CreateOrder(_ context.Context, in services.CreateOrderInput) (*services.OrderResult, error) {
	f.lastInput = in
	return f.result, f.err
}

func (f *fakePayments) VerifyPayment(_ context.Context, orderID, _, _ string) (*services.VerifyResult, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &services.VerifyResult{Status: services.VerificationVerified, OrderID: orderID}, nil
}

func (f *fakePayments) KeyID() string { return "rzp_live_key" }

type fakeCatalog struct {
	bonds        []*models.GreenBond
	projects     []*models.Project
	investments  []*models.Investment
	listErr      error
	lastStatus   string
	lastInvestor string
}

func (f *fakeCatalog) List(_ context.Context, status string) ([]*models.GreenBond, error) {
	f.lastStatus = status
	return f.bonds, f.listErr
}

func (f *fakeCatalog) Get(_ context.Context, id string) (*models.GreenBond, error) {
	for _, b := range f.bonds {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCatalog) Projects(ctx context.Context, bondID string) ([]*models.Project, error) {
	if _, err := f.Get(ctx, bondID); err != nil {
		return nil, err
	}
	return f.projects, nil
}

func (f *fakeCatalog) Investments(_ context.Context, investorID string) ([]*models.Investment, error) {
	f.lastInvestor = investorID
	return f.investments, nil
}

type fakeKYC struct {
	lastType string
	err      error
}

func (f *fakeKYC) RequestUpload(_ context.Context, userID, documentType string) (*models.KYCUploadTask, error) {
	f.lastType = documentType
	if f.err != nil {
		return nil, f.err
	}
	return &models.KYCUploadTask{Key: "kyc/" + userID + "/doc", URL: "https://s3.local/put"}, nil
}

func (f *fakeKYC) Status(_ context.Context, userID string) (*services.KYCStatus, error) {
	return &services.KYCStatus{
		Status:    models.KYCPending,
		Documents: []*models.KYCDocument{{ID: "d-1", UserID: userID, StorageKey: "kyc/" + userID + "/doc", DocumentType: "passport"}},
	}, nil
}

func (f *fakeKYC) Documents(_ context.Context, userID string) ([]services.KYCDocumentView, error) {
	return []services.KYCDocumentView{{
		Document:    &models.KYCDocument{ID: "d-1", UserID: userID, StorageKey: "kyc/" + userID + "/doc", DocumentType: "passport"},
		DownloadURL: "https://s3.local/get",
	}}, nil
}

type testEnv struct {
	server   *Server
	users    *fakeUsers
	payments *fakePayments
	catalog  *fakeCatalog
	kyc      *fakeKYC
	tokens   *auth.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	revoked := auth.NewRevocationList(cache.NewMemoryStore())
	env := &testEnv{
		users:    newFakeUsers(tokens, revoked),
		payments: &fakePayments{},
		catalog:  &fakeCatalog{},
		kyc:      &fakeKYC{},
		tokens:   tokens,
	}
	env.server = NewServer(":0", Deps{
		Users:    env.users,
		Payments: env.payments,
		Catalog:  env.catalog,
		KYC:      env.kyc,
		Verifier: auth.NewVerifier(tokens, revoked),
		Logger:   logging.Nop{},
		Port:     5000,
	})
	return env
}
