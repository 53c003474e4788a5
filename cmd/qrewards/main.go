package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mglynn/qrewards/internal/auth"
	"github.com/mglynn/qrewards/internal/database"
	"github.com/mglynn/qrewards/internal/logging"
	"github.com/mglynn/qrewards/internal/model"
	"github.com/mglynn/qrewards/internal/server"
	"github.com/mglynn/qrewards/internal/store"
)

const cleanupInterval = time.Hour

func main() {
	logger := logging.Setup(os.Getenv("QREWARDS_LOG_LEVEL"))

	port := os.Getenv("QREWARDS_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("QREWARDS_DB_PATH")
	if dbPath == "" {
		dbPath = "qrewards.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := bootstrapAdmin(store.NewUserStore(db)); err != nil {
		logger.Error("bootstrap admin", "error", err)
		os.Exit(1)
	}

	srv := server.New(db, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopCleanup := make(chan struct{})
	go runCleanup(srv, logger, stopCleanup)

	go func() {
		logger.Info("qrewards listening", "addr", "http://localhost:"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(stopCleanup)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// bootstrapAdmin creates the admin account named by QREWARDS_ADMIN_EMAIL and
// QREWARDS_ADMIN_PASSWORD when it does not exist yet. Signup only ever
// produces the user role, so this is the sole path to an admin.
func bootstrapAdmin(users *store.UserStore) error {
	email := os.Getenv("QREWARDS_ADMIN_EMAIL")
	password := os.Getenv("QREWARDS_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	existing, err := users.GetByEmail(email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = users.Create(email, hash, model.RoleAdmin)
	return err
}

// runCleanup periodically drops expired sessions and stale rate-limit
// entries until the stop channel closes.
func runCleanup(srv *server.Server, logger *slog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("session cleanup", "error", err)
			} else if n > 0 {
				logger.Info("session cleanup", "deleted", n)
			}
			srv.RateLimiter().Cleanup()
		case <-stop:
			return
		}
	}
}
