package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ecoquad/greenbond/internal/cache"
	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/dbx"
	"github.com/ecoquad/greenbond/internal/logging"
	"github.com/ecoquad/greenbond/internal/server/auth"
	"github.com/ecoquad/greenbond/internal/server/events"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/ecoquad/greenbond/internal/server/repositories/bonds"
	"github.com/ecoquad/greenbond/internal/server/repositories/investments"
	"github.com/ecoquad/greenbond/internal/server/repositories/kycdocuments"
	"github.com/ecoquad/greenbond/internal/server/repositories/orders"
	"github.com/ecoquad/greenbond/internal/server/repositories/projects"
	"github.com/ecoquad/greenbond/internal/server/repositories/refreshtokens"
	"github.com/ecoquad/greenbond/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var txDBSeq atomic.Int64

// newTxDB returns a real database so dbx.WithTx can begin and commit; the
// fake repositories ignore the handle they are bound to.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	name := fmt.Sprintf("file:%s-%d?mode=memory&cache=shared", t.Name(), txDBSeq.Add(1))
	db, err := sql.Open("sqlite", name)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeStore keeps every table in memory behind one mutex, so uniqueness
// checks are atomic like a database index.
type fakeStore struct {
	mu sync.Mutex

	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	bonds         map[string]*models.GreenBond
	projects      []*models.Project
	investments   map[string]*models.Investment
	orders        map[string]*models.PaymentOrder
	kycDocs       []*models.KYCDocument

	errUserUpdate error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
		bonds:         map[string]*models.GreenBond{},
		investments:   map[string]*models.Investment{},
		orders:        map[string]*models.PaymentOrder{},
	}
}

func (s *fakeStore) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *fakeStore) Users(dbx.DBTX) users.Repository                 { return fakeUsers{s} }
func (s *fakeStore) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return fakeRefreshTokens{s} }
func (s *fakeStore) Bonds(dbx.DBTX) bonds.Repository                 { return fakeBonds{s} }
func (s *fakeStore) Projects(dbx.DBTX) projects.Repository           { return fakeProjects{s} }
func (s *fakeStore) Investments(dbx.DBTX) investments.Repository     { return fakeInvestments{s} }
func (s *fakeStore) Orders(dbx.DBTX) orders.Repository               { return fakeOrders{s} }
func (s *fakeStore) KYCDocuments(dbx.DBTX) kycdocuments.Repository   { return fakeKYCDocuments{s} }

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

type fakeUsers struct{ s *fakeStore }

func (r fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = cloneUser(u)
	return u, nil
}

func (r fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r fakeUsers) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.errUserUpdate != nil {
		return r.s.errUserUpdate
	}
	stored, ok := r.s.users[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	stored.FirstName, stored.LastName, stored.CompanyName = u.FirstName, u.LastName, u.CompanyName
	stored.UpdatedAt = time.Now()
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r fakeUsers) mutate(id string, fn func(*models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (r fakeUsers) UpdatePassword(_ context.Context, id string, hash string) error {
	return r.mutate(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r fakeUsers) UpdateKYCStatus(_ context.Context, id string, status models.KYCStatus) error {
	return r.mutate(id, func(u *models.User) { u.KYCStatus = status })
}

func (r fakeUsers) SetActive(_ context.Context, id string, active bool) error {
	return r.mutate(id, func(u *models.User) { u.IsActive = active })
}

type fakeRefreshTokens struct{ s *fakeStore }

func (r fakeRefreshTokens) Create(_ context.Context, userID, token string, validity time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	r.s.refreshTokens[token] = &models.RefreshToken{UserID: userID, TokenHash: refreshtokens.Digest(token), ExpiresAt: now.Add(validity), CreatedAt: now}
	return nil
}

func (r fakeRefreshTokens) Consume(_ context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.refreshTokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.s.refreshTokens, token)
	return t, nil
}

func (r fakeRefreshTokens) Revoke(_ context.Context, userID, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.refreshTokens[token]; ok && t.UserID == userID {
		delete(r.s.refreshTokens, token)
	}
	return nil
}

func (r fakeRefreshTokens) DeleteByUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, t := range r.s.refreshTokens {
		if t.UserID == userID {
			delete(r.s.refreshTokens, k)
		}
	}
	return nil
}

func (s *fakeStore) tokenCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.refreshTokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

type fakeBonds struct{ s *fakeStore }

func (r fakeBonds) List(_ context.Context, status *models.BondStatus) ([]*models.GreenBond, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.GreenBond
	for _, b := range r.s.bonds {
		if status == nil || b.Status == *status {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakeBonds) GetByID(_ context.Context, id string) (*models.GreenBond, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bonds[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *b
	return &c, nil
}

func (r fakeBonds) AddRaised(_ context.Context, id string, amount decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bonds[id]
	if !ok || b.AmountRaised.Add(amount).GreaterThan(b.TotalAmount) {
		return common.ErrFundingExceeded
	}
	b.AmountRaised = b.AmountRaised.Add(amount)
	return nil
}

type fakeProjects struct{ s *fakeStore }

func (r fakeProjects) ListByBond(_ context.Context, bondID string) ([]*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Project
	for _, p := range r.s.projects {
		if p.BondID == bondID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeInvestments struct{ s *fakeStore }

func (r fakeInvestments) Create(_ context.Context, inv *models.Investment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.investments {
		if existing.GatewayOrderID == inv.GatewayOrderID {
			return common.ErrorAlreadyExists
		}
	}
	inv.ID = uuid.NewString()
	inv.PurchaseDate = time.Now()
	c := *inv
	r.s.investments[inv.ID] = &c
	return nil
}

func (r fakeInvestments) GetByGatewayOrderID(_ context.Context, orderID string) (*models.Investment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.investments {
		if inv.GatewayOrderID == orderID {
			c := *inv
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r fakeInvestments) settle(id string, status models.InvestmentStatus, txID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.investments[id]
	if !ok || inv.Status != models.InvestmentPending {
		return common.ErrorNotFound
	}
	inv.Status = status
	inv.TransactionID = &txID
	return nil
}

func (r fakeInvestments) Confirm(_ context.Context, id, txID string) error {
	return r.settle(id, models.InvestmentConfirmed, txID)
}

func (r fakeInvestments) Fail(_ context.Context, id, txID string) error {
	return r.settle(id, models.InvestmentFailed, txID)
}

func (r fakeInvestments) ListByInvestor(_ context.Context, investorID string) ([]*models.Investment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Investment
	for _, inv := range r.s.investments {
		if inv.InvestorID == investorID {
			c := *inv
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakeOrders struct{ s *fakeStore }

func (r fakeOrders) Create(_ context.Context, o *models.PaymentOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.orders {
		if existing.GatewayOrderID == o.GatewayOrderID ||
			(o.IdempotencyKey != nil && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *o.IdempotencyKey) {
			return common.ErrorAlreadyExists
		}
	}
	o.ID = uuid.NewString()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	c := *o
	r.s.orders[o.GatewayOrderID] = &c
	return nil
}

func (r fakeOrders) GetByIdempotencyKey(_ context.Context, key string) (*models.PaymentOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			c := *o
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r fakeOrders) GetByGatewayOrderIDForUpdate(_ context.Context, id string) (*models.PaymentOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *o
	return &c, nil
}

func (r fakeOrders) MarkPaid(_ context.Context, id, paymentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return common.ErrorNotFound
	}
	o.Status = models.OrderPaid
	o.PaymentID = &paymentID
	return nil
}

type fakeKYCDocuments struct{ s *fakeStore }

func (r fakeKYCDocuments) Create(_ context.Context, d *models.KYCDocument) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now()
	c := *d
	r.s.kycDocs = append(r.s.kycDocs, &c)
	return nil
}

func (r fakeKYCDocuments) ListByUser(_ context.Context, userID string) ([]*models.KYCDocument, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.KYCDocument
	for _, d := range r.s.kycDocs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

// recordingPublisher remembers published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]any
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[string][]any{}
	}
	p.events[subject] = append(p.events[subject], event)
	return nil
}

func (p *recordingPublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events[subject])
}

var testSecret = []byte("test-secret")

func newTestUserService(t *testing.T, store *fakeStore, pub events.Publisher) (*UserService, *auth.Verifier) {
	t.Helper()
	tokens := auth.NewTokenIssuer(testSecret, time.Hour)
	revoked := auth.NewRevocationList(cache.NewMemoryStore())
	if pub == nil {
		pub = events.Nop{}
	}
	svc := NewUserService(newTxDB(t), store, UserDeps{
		Hasher:          auth.NewPasswordHasher(bcrypt.MinCost),
		Tokens:          tokens,
		Revoked:         revoked,
		Events:          pub,
		Logger:          logging.Nop{},
		RefreshTokenTTL: 24 * time.Hour,
	})
	return svc, auth.NewVerifier(tokens, revoked)
}
