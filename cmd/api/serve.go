package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pawfect-match/internal/adapters/auth/jwtsession"
	"pawfect-match/internal/config"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/platform/metrics"
	"pawfect-match/internal/platform/ratelimit"
	"pawfect-match/internal/router"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.AppName,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, log)
}

func serve(ctx context.Context, cfg config.Config, log logger.Logger) error {
	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.close(); err != nil {
			log.Warn("storage close failed", map[string]any{"error": err})
		}
	}()

	bl, err := openBlobs(ctx, cfg, log)
	if err != nil {
		return err
	}

	revs, closeRevs, err := openRevocations(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRevs(); err != nil {
			log.Warn("revocations close failed", map[string]any{"error": err})
		}
	}()

	secret, err := jwtSecret(cfg, log)
	if err != nil {
		return err
	}
	sessions := jwtsession.NewIssuer(secret, cfg.Auth.SessionTTL, revs)

	limiter := ratelimit.New(cfg.Auth.LoginRate, cfg.Auth.LoginBurst)
	go limiter.Run(ctx, time.Minute)

	h, err := router.NewRouter(router.Deps{
		Logger:        log,
		Users:         be.users,
		Pets:          be.pets,
		Adoptions:     be.adoptions,
		Tx:            be.tx,
		Health:        be.health,
		Blobs:         bl.store,
		Uploads:       bl.handler,
		UploadsPrefix: bl.prefix,
		Sessions:      sessions,
		CookieSecure:  cfg.Auth.CookieSecure,
		AdminEmail:    cfg.Auth.AdminEmail,
		Metrics:       metrics.New("pawfect"),
		LoginLimiter:  limiter,
		CORSOrigins:   cfg.CORS.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":    cfg.Addr,
			"storage": cfg.Storage.Driver,
			"blob":    cfg.Blob.Driver,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
