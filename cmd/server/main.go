package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/festiva/festiva/internal/apperr"
	"github.com/festiva/festiva/internal/config"
	"github.com/festiva/festiva/internal/es"
	"github.com/festiva/festiva/internal/eventbus"
	"github.com/festiva/festiva/internal/handlers"
	"github.com/festiva/festiva/internal/logging"
	"github.com/festiva/festiva/internal/mail"
	authmw "github.com/festiva/festiva/internal/middleware/auth"
	loggingmw "github.com/festiva/festiva/internal/middleware/logging"
	"github.com/festiva/festiva/internal/repo"
	"github.com/festiva/festiva/internal/search"
	"github.com/festiva/festiva/internal/service"
	httpserver "github.com/festiva/festiva/internal/transport/http"
	"github.com/festiva/festiva/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var producer *eventbus.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = eventbus.NewProducer(cfg.KafkaBrokers)
	} else {
		logger.Warn("kafka disabled", "reason", "KAFKA_BROKERS not set")
	}

	var index *search.Index
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		index = &search.Index{ES: esClient, Name: cfg.ESIndex}
	} else {
		logger.Warn("search disabled", "reason", "ES_URL not set")
	}

	var notifier mail.Notifier
	if cfg.SMTPAddr != "" {
		notifier = &mail.SMTPNotifier{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom}
	} else {
		logger.Warn("mail disabled", "reason", "SMTP_ADDR not set")
	}

	users := &repo.UserRepo{DB: database}
	refresh := &repo.RefreshRepo{DB: database}
	events := &repo.EventRepo{DB: database}
	orders := &repo.OrderRepo{DB: database}

	var pub service.Publisher
	if producer != nil {
		pub = producer
	}
	var indexer service.Indexer
	var searcher handlers.Searcher
	if index != nil {
		indexer = index
		searcher = index
	}

	authSvc := &service.AuthService{
		Users:         users,
		Refresh:       refresh,
		Producer:      pub,
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}
	eventSvc := &service.EventService{Events: events, Index: indexer}
	orderSvc := &service.OrderService{
		DB:       database,
		Events:   events,
		Orders:   orders,
		Users:    users,
		Notifier: notifier,
		Producer: pub,
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:            database,
		Auth:          authmw.NewBearerAuth(cfg.JWTAccessSecret),
		AuthHandler:   &handlers.AuthHandler{Svc: authSvc, SecureCookies: cfg.Production()},
		EventHandler:  &handlers.EventHandler{Svc: eventSvc},
		OrderHandler:  &handlers.OrderHandler{Svc: orderSvc},
		SearchHandler: &handlers.SearchHandler{Index: searcher},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server listening", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	logger.Info("shutdown complete")
}
