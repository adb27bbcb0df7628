package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sumisonnn/MEDICO/internal/auth"
	"github.com/sumisonnn/MEDICO/internal/cart"
	"github.com/sumisonnn/MEDICO/internal/catalog"
	"github.com/sumisonnn/MEDICO/internal/config"
	"github.com/sumisonnn/MEDICO/internal/db"
	"github.com/sumisonnn/MEDICO/internal/feed"
	handler "github.com/sumisonnn/MEDICO/internal/handler/http"
	"github.com/sumisonnn/MEDICO/internal/logger"
	"github.com/sumisonnn/MEDICO/internal/memstore"
	"github.com/sumisonnn/MEDICO/internal/order"
	"github.com/sumisonnn/MEDICO/internal/user"
)

type storage struct {
	medicines catalog.Repository
	carts     cart.Repository
	orders    order.Repository
	users     user.Repository
	tx        order.Transactor
	close     func()
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if err := logger.Setup(cfg.App.LogLevel, cfg.App.LogFormat, "medico"); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logger")
	}
	log.Info().Str("storage", cfg.StorageDriver).Msg("Starting medico...")

	ctx := context.Background()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.close()

	hub := feed.NewHub()

	catalogSvc := catalog.NewService(store.medicines)
	cartSvc := cart.NewService(store.carts, store.medicines)
	orderSvc := order.NewService(store.tx, store.orders, order.WithPublisher(hub))
	userSvc := user.NewService(store.users)

	if _, err := orderSvc.RepairInvalidStatuses(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to repair order statuses")
	}
	if cfg.Admin.Email != "" {
		if err := userSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatal().Err(err).Msg("Failed to provision admin account")
		}
	}
	if cfg.SeedCatalogPath != "" {
		if _, err := catalogSvc.SeedFromCSV(ctx, cfg.SeedCatalogPath); err != nil {
			log.Fatal().Err(err).Str("path", cfg.SeedCatalogPath).Msg("Failed to seed catalog")
		}
	}

	router := handler.NewRouter(handler.Deps{
		Catalog: catalogSvc,
		Carts:   cartSvc,
		Orders:  orderSvc,
		Users:   userSvc,
		Tokens:  auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		Feed:    hub,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("port", cfg.App.Port).Msg("Could not listen")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Medico stopped gracefully.")
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		mem := memstore.New()
		log.Warn().Msg("Using in-memory storage; data is lost on restart")
		return &storage{
			medicines: mem.Medicines(),
			carts:     mem.Carts(),
			orders:    mem.Orders(),
			users:     mem.Users(),
			tx:        mem,
			close:     func() {},
		}, nil
	}

	if err := db.ApplyMigrations(cfg.Postgres); err != nil {
		return nil, err
	}

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	return &storage{
		medicines: catalog.NewPostgresRepository(pg.Pool),
		carts:     cart.NewPostgresRepository(pg.Pool),
		orders:    order.NewPostgresRepository(pg.Pool),
		users:     user.NewPostgresRepository(pg.Pool),
		tx:        db.NewTransactor(pg),
		close:     pg.Close,
	}, nil
}
