package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civisense/pkg/config"
	"civisense/pkg/database"
	"civisense/pkg/middleware"
	"civisense/pkg/session"
	"civisense/services/auth-service/models"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("[ERROR] Invalid configuration: %v", err)
	}

	logger, err := middleware.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("[ERROR] Failed to build logger: %v", err)
	}
	defer logger.Sync()
	middleware.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	middleware.RegisterMetrics()

	db, err := database.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to database: %v", err)
	}
	log.Println("[OK] Connected to PostgreSQL")

	log.Println("[INFO] Running Auto Migration...")
	if err := db.AutoMigrate(&models.Officer{}); err != nil {
		log.Fatalf("[ERROR] Migration failed: %v", err)
	}
	log.Println("[OK] Migration success!")

	srv := &authServer{
		officers: newGormOfficers(db),
		sessions: session.NewManager(cfg.JWTSecret, cfg.SessionTTL),
	}

	if cfg.SeedAdminEmail != "" {
		created, err := srv.seedAdmin(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPass, cfg.SeedAdminName)
		switch {
		case err != nil:
			log.Fatalf("[ERROR] Failed to seed admin: %v", err)
		case created:
			log.Printf("[OK] Seeded admin account %s", cfg.SeedAdminEmail)
		}
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.AuthPort,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("[INFO] Auth Service running on port :%s", cfg.AuthPort)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[ERROR] Server failed: %v", err)
	}
}
