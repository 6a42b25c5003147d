package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telemed-platform/internal/auth"
	"telemed-platform/internal/calls"
	"telemed-platform/internal/config"
	"telemed-platform/internal/consultations"
	"telemed-platform/internal/httpapi"
	"telemed-platform/internal/messaging"
	"telemed-platform/internal/rooms"
	"telemed-platform/internal/signaling"
	"telemed-platform/pkg/logger"
	"telemed-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New("telemed-api", cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Signaling: one process-wide hub shared by calls and messaging.
	hub := signaling.NewHub(log, cfg.Signaling.WriteTimeout)
	bridge := signaling.NewBridge(hub, log)

	provider := rooms.NewHTTPProvider(cfg.Rooms)

	historyRepo := consultations.NewPostgresRepo(db)
	recorder := consultations.NewRecorder(historyRepo, log)

	controller, err := calls.NewController(calls.Config{
		Provider: provider,
		Channel:  hub,
		Audit:    recorder,
		Slots:    calls.NewRedisSlots(rdb, 0),
		Log:      log,
	})
	if err != nil {
		log.Error("calls init failed", "err", err)
		os.Exit(1)
	}
	notifier := messaging.NewNotifier(hub, log)

	unsubCalls := bridge.RouteCalls(controller)
	defer unsubCalls()
	unsubMessages := bridge.RouteMessages(notifier)
	defer unsubMessages()

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		auth: authManager,
		db:   db,
		handlers: httpapi.Handlers{
			Auth:          authManager,
			Calls:         controller,
			Consultations: historyRepo,
			Messages:      notifier,
		},
		ws: httpapi.WS{
			Hub:      hub,
			Upgrader: signaling.NewUpgrader(cfg.Signaling.AllowedOrigins),
		},
		provider: provider,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
