package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ecoquad/greenbond/internal/logging"
	"github.com/ecoquad/greenbond/internal/server/auth"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/ecoquad/greenbond/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, *services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.User, *services.TokenPair, error)
	Logout(ctx context.Context, claims *auth.Claims, refreshToken string) error
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd services.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type PaymentService interface {
	CreateOrder(ctx context.Context, in services.CreateOrderInput) (*services.OrderResult, error)
	VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*services.VerifyResult, error)
	KeyID() string
}

type CatalogService interface {
	List(ctx context.Context, status string) ([]*models.GreenBond, error)
	Get(ctx context.Context, id string) (*models.GreenBond, error)
	Projects(ctx context.Context, bondID string) ([]*models.Project, error)
	Investments(ctx context.Context, investorID string) ([]*models.Investment, error)
}

type KYCService interface {
	RequestUpload(ctx context.Context, userID, documentType string) (*models.KYCUploadTask, error)
	Status(ctx context.Context, userID string) (*services.KYCStatus, error)
	Documents(ctx context.Context, userID string) ([]services.KYCDocumentView, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// Deps are the collaborators of Server.
type Deps struct {
	Users          UserService
	Payments       PaymentService
	Catalog        CatalogService
	KYC            KYCService
	Verifier       TokenVerifier
	Logger         logging.Logger
	Port           int
	RequestTimeout time.Duration
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	address        string
	users          UserService
	payments       PaymentService
	catalog        CatalogService
	kyc            KYCService
	verifier       TokenVerifier
	logger         logging.Logger
	port           int
	requestTimeout time.Duration
}

func NewServer(address string, deps Deps) *Server {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Server{
		address:        address,
		users:          deps.Users,
		payments:       deps.Payments,
		catalog:        deps.Catalog,
		kyc:            deps.KYC,
		verifier:       deps.Verifier,
		logger:         deps.Logger.With("module", "http_server"),
		port:           deps.Port,
		requestTimeout: timeout,
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
