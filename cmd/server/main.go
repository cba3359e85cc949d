package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"readsync/internal/auth"
	"readsync/internal/book"
	"readsync/internal/config"
	"readsync/internal/logging"
	"readsync/internal/lookup"
	"readsync/internal/ratelimit"
	"readsync/internal/server"
	"readsync/internal/user"
	"readsync/pkg/database"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to $READSYNC_CONFIG or ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabasePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
			return err
		}
	}
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return err
	}

	tokens, err := auth.NewTokens([]byte(cfg.JWTSecret))
	if err != nil {
		return err
	}
	authSvc := auth.NewService(user.NewRepo(db), auth.NewBcryptHasher(cfg.BcryptCost), tokens)
	bookSvc := book.NewService(book.NewRepo(db))

	srvCfg := server.Config{
		Auth:        authSvc,
		Books:       bookSvc,
		Lookup:      lookup.NewOpenLibrary(cfg.LookupBaseURL, nil),
		Logger:      logger,
		StaticDir:   cfg.StaticDir,
		CORSOrigins: cfg.CORSOrigins,
	}
	if cfg.RedisAddr != "" {
		limiter, err := ratelimit.NewRedis(cfg.RedisAddr, cfg.RedisPassword, "", cfg.AuthRateLimit, cfg.AuthRateWin)
		if err != nil {
			return err
		}
		defer limiter.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = limiter.Ping(pingCtx)
		cancel()
		if err != nil {
			return err
		}
		srvCfg.Limiter = limiter
		logger.Info("auth rate limiting enabled", "redis_addr", cfg.RedisAddr, "limit", cfg.AuthRateLimit, "window", cfg.AuthRateWin.String())
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(srvCfg).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("ReadSync API listening", "addr", httpSrv.Addr, "db", cfg.DatabasePath)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutCtx)
	})
	return g.Wait()
}
