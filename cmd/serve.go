package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/api"
	"github.com/designsnack/leadharvest/internal/app"
	"github.com/designsnack/leadharvest/internal/leads"
	"github.com/designsnack/leadharvest/internal/outreach"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// serveRunner creates a fresh browser per search, mirroring how interactive
// searches arrive one at a time.
type serveRunner struct {
	app *app.App
}

func (r *serveRunner) Run(ctx context.Context, term string) (leads.SearchSession, error) {
	p, rend, err := r.app.NewPipeline()
	if err != nil {
		return leads.SearchSession{}, err
	}
	defer func() {
		if closeErr := rend.Close(ctx); closeErr != nil {
			r.app.Logger.Warn("renderer close failed", zap.Error(closeErr))
		}
	}()
	return p.Run(ctx, term)
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.Logger

	var drafter api.EmailDrafter
	if a.Drafter != nil {
		drafter = a.Drafter
	}
	server := api.NewServer(
		&serveRunner{app: a},
		a.NewEnricher(),
		drafter,
		a.Sessions,
		a.Clock,
		time.Duration(a.Cfg.Server.TimeoutSeconds)*time.Second,
		logger.Named("api"),
	)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(a.Cfg.Cache.SweepSchedule, func() {
		removed, err := a.Cache.Sweep(context.Background())
		if err != nil {
			logger.Error("cache sweep failed", zap.Error(err))
			return
		}
		logger.Info("cache sweep finished", zap.Int("removed", removed))
	}); err != nil {
		return fmt.Errorf("schedule cache sweep: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("http server started", zap.Int("port", a.Cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

var _ api.EmailDrafter = (*outreach.Drafter)(nil)
