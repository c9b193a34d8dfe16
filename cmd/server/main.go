package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stock-ledger/internal/config"
	apphttp "stock-ledger/internal/http"
	"stock-ledger/internal/kvstore"
	"stock-ledger/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Fatalf("parse log level: %v", err)
	}
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup store: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	inventory := service.Open(ctx, kvstore.NewAdapter(store, logger), service.Config{Logger: logger})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(inventory, cfg.Ledger.PageSize)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildStore returns the configured backend. db is nil for the memory driver.
func buildStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (kvstore.Store, *sql.DB, error) {
	switch cfg.Store.Driver {
	case "memory":
		logger.Warn("using in-memory store, state is lost on exit")
		return kvstore.NewMemoryStore(), nil, nil
	case "sqlite":
		db, err := kvstore.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		store := kvstore.NewSQLiteStore(db)
		if err := store.Init(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("init kv table: %w", err)
		}
		logger.Infof("using sqlite store at %s", cfg.Store.Path)
		return store, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
