// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorilla "github.com/gorilla/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/quickmatch-gg/lobby-service/internal/auth"
	"github.com/quickmatch-gg/lobby-service/internal/config"
	"github.com/quickmatch-gg/lobby-service/internal/database"
	"github.com/quickmatch-gg/lobby-service/internal/dispatch"
	"github.com/quickmatch-gg/lobby-service/internal/handlers"
	"github.com/quickmatch-gg/lobby-service/internal/match"
	"github.com/quickmatch-gg/lobby-service/internal/notify"
	"github.com/quickmatch-gg/lobby-service/internal/registry"
	"github.com/quickmatch-gg/lobby-service/internal/session"
	"github.com/quickmatch-gg/lobby-service/internal/stream"
)

func main() {
	cfg := config.MustLoad()

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if privPath, pubPath := os.Getenv("JWT_PRIVATE_KEY_PATH"), os.Getenv("JWT_PUBLIC_KEY_PATH"); privPath != "" && pubPath != "" {
		if err := auth.InitFromPath(privPath, pubPath); err != nil {
			logger.Fatalf("failed to load jwt keys: %v", err)
		}
	} else {
		logger.Warn("jwt key paths not set, using an ephemeral keypair; sessions will not survive restarts")
		auth.Init()
	}

	ctx := context.Background()

	store, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatalf("failed to ensure schema: %v", err)
	}

	// The journal is best effort: without Redis the service still runs,
	// it just stops feeding the tournament and stats consumers.
	journal, err := stream.Connect(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.LobbyEventQueue)
	if err != nil {
		logger.Warnf("redis unavailable, lobby events will not be journaled: %v", err)
	}
	defer journal.Close()

	reg := registry.New()
	disp := dispatch.New(reg)
	notifier := notify.NewService(store, disp)
	provisioner := match.NewProvisioner(store, cfg.MatchHost, cfg.MatchPortMin, cfg.MatchPortMax, cfg.MatchDefaultMap)
	manager := session.NewManager(store, disp, provisioner, notifier, journal)

	api := handlers.NewServer(manager, notifier, reg, disp, cfg.AllowedOrigins, logger)

	cors := gorilla.CORS(
		gorilla.AllowedOrigins(cfg.AllowedOrigins),
		gorilla.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		gorilla.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilla.AllowCredentials(),
	)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      cors(api.Routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server exited: %v", err)
		}
	case sig := <-sigs:
		logger.Infof("received %v, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("graceful shutdown failed: %v", err)
		}
	}
}
