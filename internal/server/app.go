// Package server wires the greenbond services together and runs the HTTP
// API and the gRPC health endpoint until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/ecoquad/greenbond/internal/cache"
	"github.com/ecoquad/greenbond/internal/logging"
	"github.com/ecoquad/greenbond/internal/server/auth"
	"github.com/ecoquad/greenbond/internal/server/config"
	"github.com/ecoquad/greenbond/internal/server/events"
	"github.com/ecoquad/greenbond/internal/server/gateway/razorpay"
	"github.com/ecoquad/greenbond/internal/server/httpapi"
	"github.com/ecoquad/greenbond/internal/server/repositories/repomanager"
	"github.com/ecoquad/greenbond/internal/server/services"

	gs "github.com/ecoquad/greenbond/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
	grpcServer *gs.GRPCServer
	closers    []io.Closer
}

// Stores are the key-value stores for token revocation and idempotency.
type Stores struct {
	Revocations cache.Store
	Idempotency cache.Store
}

// NewLogger builds the logger selected by the configuration.
func NewLogger(c *config.Config) (logging.Logger, error) {
	return logging.New(c.LogBackend, os.Stdout)
}

// OpenStores connects to Redis when configured and falls back to memory.
func OpenStores(c *config.Config) (Stores, io.Closer) {
	if c.RedisAddr == "" {
		return Stores{Revocations: cache.NewMemoryStore(), Idempotency: cache.NewMemoryStore()}, nil
	}
	client := cache.NewRedisClient(c.RedisAddr, c.RedisPassword)
	return Stores{
		Revocations: cache.NewRedisStore(client, "revoked"),
		Idempotency: cache.NewRedisStore(client, "idempotency"),
	}, client
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := NewLogger(c)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app := &App{config: c, logger: logger, db: db, closers: []io.Closer{db}}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	stores, storeCloser := OpenStores(c)
	if storeCloser != nil {
		app.closers = append(app.closers, storeCloser)
	}

	var publisher events.Publisher = events.Nop{}
	if c.NATSURL != "" {
		nc, err := events.Connect(c.NATSURL)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("nats: %w", err)
		}
		app.closers = append(app.closers, closerFunc(func() error { return nc.Drain() }))
		publisher = events.NewNATSPublisher(nc)
	}

	hasher := auth.NewPasswordHasher(c.BcryptCost)
	tokens := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenTTL)
	revoked := auth.NewRevocationList(stores.Revocations)
	gateway := razorpay.NewClient(c.RazorpayBaseURL, c.RazorpayKeyID, c.RazorpayKeySecret, c.GatewayTimeout, c.GatewayMaxRetries)

	users := services.NewUserService(db, rm, services.UserDeps{
		Hasher:          hasher,
		Tokens:          tokens,
		Revoked:         revoked,
		Events:          publisher,
		Logger:          logger,
		RefreshTokenTTL: c.RefreshTokenTTL,
	})
	payments := services.NewPaymentService(db, rm, services.PaymentDeps{
		Gateway:        gateway,
		Idempotency:    stores.Idempotency,
		IdempotencyTTL: c.IdempotencyTTL,
		InFlightTTL:    c.InFlightTTL(),
		Events:         publisher,
		Logger:         logger,
	})

	app.httpServer = httpapi.NewServer(c.EndpointAddr, httpapi.Deps{
		Users:    users,
		Payments: payments,
		Catalog:  services.NewBondService(db, rm),
		KYC:      services.NewKYCService(db, rm, c, logger),
		Verifier: auth.NewVerifier(tokens, revoked),
		Logger:   logger,
		Port:     portOf(c.EndpointAddr),
	})
	app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db)

	return app, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func portOf(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(p)
	return port
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts both servers and blocks until a signal arrives or either
// server fails. Resources are released before it returns.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "HTTP server failed", "error", err)
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.grpcServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "gRPC server failed", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()
	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}
