// Package solvem8 собирает зависимости сервиса и управляет его жизненным циклом.
package solvem8

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/solvem8/backend/internal/ai"
	"github.com/solvem8/backend/internal/cache"
	"github.com/solvem8/backend/internal/config"
	"github.com/solvem8/backend/internal/extractor"
	"github.com/solvem8/backend/internal/files"
	"github.com/solvem8/backend/internal/lib/rabbitmq"
	"github.com/solvem8/backend/internal/lib/sl"
	"github.com/solvem8/backend/internal/metrics"
	"github.com/solvem8/backend/internal/migrations"
	"github.com/solvem8/backend/internal/payments/razorpay"
	"github.com/solvem8/backend/internal/pdfgen"
	"github.com/solvem8/backend/internal/services/auth"
	paymentservice "github.com/solvem8/backend/internal/services/payment"
	"github.com/solvem8/backend/internal/services/solve"
	"github.com/solvem8/backend/internal/session"
	"github.com/solvem8/backend/internal/storage/repository"
)

// App — собранное приложение с HTTP-сервером и его зависимостями.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	publisher *rabbitmq.Publisher
}

// New собирает приложение: хранилище, миграции, кеш, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}
	sessions := session.NewStore(cacheRedis, cfg.Session.TTL)

	fileStore, err := files.NewStore(cfg.Files)
	if err != nil {
		return nil, err
	}

	promMetrics := metrics.New()

	var publisher *rabbitmq.Publisher
	if cfg.RabbitMQ.URL != "" {
		publisher, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.PaymentQueue)
		if err != nil {
			logger.Warn("rabbitmq unavailable, payment events will not be published", sl.Err(err))
			publisher = nil
		}
	}

	extractService := extractor.New(cfg.Extractor, logger, promMetrics)
	aiClient := ai.New(cfg.AI)
	renderer := pdfgen.New()
	gateway := razorpay.NewClient(cfg.Razorpay, logger, promMetrics)

	authService := auth.New(db)
	solveService := solve.New(db, db, aiClient, extractService, renderer, fileStore, promMetrics, logger)

	var eventPublisher paymentservice.EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}
	paymentService := paymentservice.New(db, db, gateway, eventPublisher, cfg.RabbitMQ.PaymentQueue, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, db, sessions, authService, solveService, paymentService, fileStore)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		publisher: publisher,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.publisher != nil {
			a.publisher.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}
