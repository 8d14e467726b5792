package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecoquad/greenbond/internal/admin"
	"github.com/ecoquad/greenbond/internal/server"
	"github.com/ecoquad/greenbond/internal/server/auth"
	"github.com/ecoquad/greenbond/internal/server/config"
	"github.com/ecoquad/greenbond/internal/server/repositories/repomanager"
	"github.com/ecoquad/greenbond/internal/server/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		log.Printf("admin: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := server.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	db, err := repomanager.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	accounts := services.NewAdminService(db, rm, auth.NewPasswordHasher(cfg.BcryptCost), logger)

	var uploads admin.Uploads
	if cfg.S3Bucket != "" {
		uploads = services.NewKYCService(db, rm, cfg, logger)
	}

	cmds := admin.NewCommands(accounts, uploads, os.Stdout)
	err = cmds.Run(ctx, os.Args[1:])
	if errors.Is(err, admin.ErrUsage) {
		cmds.Usage()
	}
	return err
}
