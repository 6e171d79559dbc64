package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/resto_admin/internal/config"
	"github.com/Skotchmaster/resto_admin/internal/db"
	"github.com/Skotchmaster/resto_admin/internal/es"
	"github.com/Skotchmaster/resto_admin/internal/events"
	"github.com/Skotchmaster/resto_admin/internal/httpserver"
	"github.com/Skotchmaster/resto_admin/internal/logging"
	authmw "github.com/Skotchmaster/resto_admin/internal/middleware/auth"
	"github.com/Skotchmaster/resto_admin/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/resto_admin/internal/middleware/logging"
	"github.com/Skotchmaster/resto_admin/internal/mykafka"
	"github.com/Skotchmaster/resto_admin/internal/notify"
	"github.com/Skotchmaster/resto_admin/internal/rabbitmq"
	"github.com/Skotchmaster/resto_admin/internal/repo"
	"github.com/Skotchmaster/resto_admin/internal/service"
	"github.com/Skotchmaster/resto_admin/internal/tokens"
	"github.com/Skotchmaster/resto_admin/pkg/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	config.MustServer(cfg)

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(ctx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		log.Fatalf("events: %v", err)
	}

	r := &repo.GormRepo{DB: gdb}
	privileges := &session.Privileges{Store: r}
	signer := &tokens.Signer{AccessSecret: cfg.JWTAccessSecret, RefreshSecret: cfg.JWTRefreshSecret}

	catalog := &service.CatalogService{Repo: r, Events: publisher}
	if cfg.ESURL != "" {
		client, err := es.NewClient(cfg, logger)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		idx := &es.MenuIndex{ES: client, Index: cfg.ESIndex}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := idx.EnsureIndex(ctx); err != nil {
			logger.Warn("es_ensure_index_failed", "index", cfg.ESIndex, "error", err)
		}
		cancel()
		catalog.Index = idx
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatalf("telegram: %v", err)
		}
		notifier = tg
	}

	authSvc := &service.AuthService{
		Repo:       r,
		Signer:     signer,
		Privileges: privileges,
		Events:     publisher,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		ResetTTL:   cfg.ResetTTL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-CSRF-Token"},
		}))
	}
	e.Use(csrf.Middleware(csrf.Config{
		Secure:            cfg.CookieSecure,
		EnforceSameOrigin: len(cfg.CORSOrigins) == 0,
		SkipPaths:         httpserver.PublicAuthPaths,
	}))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:      &httpserver.AuthHTTP{Svc: authSvc, SecureCookie: cfg.CookieSecure},
		MenuHandler:      &httpserver.MenuHTTP{Svc: catalog},
		OrderHandler:     &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Events: publisher, Notifier: notifier}},
		DashboardHandler: &httpserver.DashboardHTTP{Svc: &service.DashboardService{Repo: r}},
		Auth:             &authmw.Middleware{AccessSecret: cfg.JWTAccessSecret, Privileges: privileges, SecureCookie: cfg.CookieSecure},
		Ready:            ping(gdb),
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http_listening", "addr", srv.Addr, "events", cfg.EventsDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("events_close_failed", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_failed", "error", err)
	}

	logger.Info("server_stopped")
}

func newPublisher(cfg config.Config, l *slog.Logger) (events.Publisher, error) {
	switch cfg.EventsDriver {
	case "kafka":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mykafka.EnsureTopics(ctx, cfg.KafkaBrokers[0], events.Topics...); err != nil {
			l.Warn("kafka_ensure_topics_failed", "error", err)
		}
		return mykafka.NewProducer(cfg.KafkaBrokers)
	case "rabbitmq":
		return rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
	case "", "none":
		return events.Nop{}, nil
	}
	return nil, fmt.Errorf("unknown events driver %q", cfg.EventsDriver)
}

func ping(gdb *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
