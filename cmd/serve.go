package main

import (
	"context"
	"database/sql"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"mini_thermostat/internal/config"
	"mini_thermostat/internal/handlers"
	"mini_thermostat/internal/hostapi"
	"mini_thermostat/internal/logger"
	"mini_thermostat/internal/repository"
	"mini_thermostat/internal/repository/db"
	"mini_thermostat/internal/server"
	"mini_thermostat/internal/service"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the card loop, the host poller and the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	log := logger.Get(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	conn, err := openDB(cfg, log)
	if err != nil {
		log.Errorw("failed to init sqlite", "err", err)
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services := wire(cfg, conn, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		services.Runner.Run(ctx)
	}()

	if err := activateFileCard(ctx, services.Card, cfg, log); err != nil {
		stop()
		wg.Wait()
		return err
	}

	if services.Poller != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			services.Poller.Run(ctx, cfg.Host.PollInterval)
		}()
	}

	srv := server.New()
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Run(cfg.Port, handlers.NewHandler(services, log).InitRoutes())
	}()
	log.Infow("server_started", "port", cfg.Port, "host", cfg.Host.BaseURL)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
		log.Errorw("error starting server", "err", runErr)
	}

	log.Infow("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	wg.Wait()
	return runErr
}

func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	path := cfg.DB.Path
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", config.DefaultDBPath)
		path = config.DefaultDBPath
	}
	return db.InitDB(path)
}

func wire(cfg *config.Config, conn *sql.DB, log *logger.Logger) *service.Service {
	deps := service.Deps{
		Repos: repository.NewRepository(conn),
		Auth: service.AuthOptions{
			SigningKey: cfg.Auth.SigningKey,
			TokenTTL:   cfg.Auth.TokenTTL,
		},
		Log: log,
	}
	if cfg.Host.BaseURL != "" {
		deps.Host = hostapi.NewClient(cfg.Host.BaseURL, cfg.Host.Token, cfg.Host.Timeout)
	} else {
		log.Infow("host.base_url not set; commands are recorded only")
	}
	return service.NewService(deps)
}

// activateFileCard activates the card block of the config file. The card is
// not persisted, so every start begins from the file.
func activateFileCard(ctx context.Context, card service.Card, cfg *config.Config, log *logger.Logger) error {
	if cfg.Card == nil {
		log.Infow("no card configured yet; waiting for PUT /api/v1/card/config")
		return nil
	}
	if err := card.SetConfig(ctx, *cfg.Card); err != nil {
		log.Errorw("card config from file rejected", "err", err)
		return err
	}
	log.Infow("card_config_loaded", "entity", cfg.Card.Entity)
	return nil
}
