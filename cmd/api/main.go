package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/budgetnest/internal/auth"
	authStore "github.com/MrJamesThe3rd/budgetnest/internal/auth/store"
	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
	budgetStore "github.com/MrJamesThe3rd/budgetnest/internal/budget/store"
	"github.com/MrJamesThe3rd/budgetnest/internal/config"
	"github.com/MrJamesThe3rd/budgetnest/internal/database"
	"github.com/MrJamesThe3rd/budgetnest/internal/events/kafka"
	"github.com/MrJamesThe3rd/budgetnest/internal/export"
	budgetnestHttp "github.com/MrJamesThe3rd/budgetnest/internal/http"
	authHandler "github.com/MrJamesThe3rd/budgetnest/internal/http/auth"
	budgetHandler "github.com/MrJamesThe3rd/budgetnest/internal/http/budget"
	exportHandler "github.com/MrJamesThe3rd/budgetnest/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/budgetnest/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/budgetnest/internal/http/matching"
	"github.com/MrJamesThe3rd/budgetnest/internal/importer"
	"github.com/MrJamesThe3rd/budgetnest/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/budgetnest/internal/matching/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	budgetOpts := []budget.Option{}
	matchingRepo := matching.Repository(matching.NewMemoryRepository())

	if cfg.Storage.Driver == config.StoragePostgres {
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		budgetOpts = append(budgetOpts, budget.WithRepository(budgetStore.New(db)))
		matchingRepo = matchingStore.New(db)
	}

	if cfg.EventsEnabled() {
		publisher := kafka.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		defer publisher.Close()

		budgetOpts = append(budgetOpts, budget.WithPublisher(publisher))
		slog.Info("publishing budget events", "brokers", cfg.Events.Brokers, "topic", cfg.Events.Topic)
	}

	var (
		budgetService   = budget.NewService(budget.NewStore(budget.PeriodOf(time.Now())), budgetOpts...)
		matchingService = matching.NewService(matchingRepo)
		importService   = importer.NewService(budgetService, matchingService)
		exportService   = export.NewService(budgetService)
		authService     = auth.NewService(authStore.NewFileStore(cfg.Auth.UserFile), auth.Config{
			Secret: []byte(cfg.Auth.Secret),
			TTL:    cfg.Auth.TokenTTL,
			Delay:  cfg.Auth.MockDelay,
		})
	)

	if err := budgetService.Load(ctx); err != nil {
		return fmt.Errorf("loading budgets: %w", err)
	}

	router := budgetnestHttp.New(cfg.CORS.AllowedOrigins, budgetnestHttp.Handlers{
		Auth:     authHandler.NewHandler(authService),
		Budgets:  budgetHandler.NewHandler(budgetService),
		Import:   importHandler.NewHandler(importService),
		Export:   exportHandler.NewHandler(exportService),
		Matching: matchingHandler.NewHandler(matchingService),
		Verifier: authService,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr, "storage", cfg.Storage.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}
