package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/config"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, logger *zap.Logger, onShutdown ShutdownFunc) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	logger.Info("Shutting down server", zap.Duration("timeout", cfg.Global.ShutdownTimeout))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Global.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests before flushing state they could still change.
	shutdownErr := srv.Shutdown(ctx)

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if shutdownErr != nil {
		return fmt.Errorf("server shutdown: %w", shutdownErr)
	}
	logger.Info("Server exiting")
	return nil
}

// Run builds the app and serves it until interrupted.
func Run(cfg *config.Config, logger *zap.Logger, version string) error {
	logger.Info("Starting library service", zap.String("version", version))

	ctx := context.Background()
	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		_ = app.Close(ctx)
		return err
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET is not set, access tokens are accepted without signature verification")
	}

	onShutdown := func(ctx context.Context) {
		if err := app.Close(ctx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	}
	return Serve(app.Router(version), cfg, logger, onShutdown)
}
