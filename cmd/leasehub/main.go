package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leasehub/internal/app/handlers/cascade"
	"leasehub/internal/app/middleware"
	authsvc "leasehub/internal/app/services/auth"
	"leasehub/internal/app/uow"
	"leasehub/internal/app/wiring"
	domainauth "leasehub/internal/domain/auth"
	"leasehub/internal/infra/broker/kafka"
	"leasehub/internal/infra/broker/rabbitmq"
	"leasehub/internal/infra/config"
	mongostore "leasehub/internal/infra/db/mongo"
	ginserver "leasehub/internal/infra/http/gin"
	"leasehub/internal/infra/obs"
	infraoutbox "leasehub/internal/infra/outbox"
	"leasehub/internal/infra/security"
	"leasehub/internal/infra/storage/memory"
	"leasehub/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	go func() {
		if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: app.ready}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.Store, "broker", cfg.Broker)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	worker   *infraoutbox.Worker
	ready    func(ctx context.Context) error
	closers  []func(ctx context.Context) error
}

func (a application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

type storage struct {
	factory     uow.UoWFactory
	source      infraoutbox.Source
	sessions    domainauth.SessionStore
	idempotency middleware.IdempotencyStore
	ready       func(ctx context.Context) error
	close       func(ctx context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var app application

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return app, err
	}
	app.ready = store.ready
	if store.close != nil {
		app.closers = append(app.closers, store.close)
	}

	producer, closeProducer, err := openProducer(cfg, logger)
	if err != nil {
		app.close(logger)
		return application{}, err
	}
	if closeProducer != nil {
		app.closers = append(app.closers, closeProducer)
	}
	app.worker = &infraoutbox.Worker{
		Source:      store.source,
		Producer:    producer,
		Interval:    cfg.OutboxInterval,
		TopicPrefix: cfg.TopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger.With("component", "outbox"),
	}

	var archiver cascade.Archiver
	if cfg.ArchiveEnabled() {
		archive, err := s3.NewArchive(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, logger)
		if err != nil {
			app.close(logger)
			return application{}, err
		}
		archiver = archive
	}

	auth := &authsvc.Service{
		UoWFactory: store.factory,
		Sessions:   store.sessions,
		Passwords:  security.BcryptHasher{Cost: cfg.BcryptCost},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminName, cfg.AdminPassword); err != nil {
			app.close(logger)
			return application{}, fmt.Errorf("seed admin: %w", err)
		}
	}

	buses := wiring.Build(wiring.Deps{
		UoWFactory:  store.factory,
		Idempotency: store.idempotency,
		Relay:       app.worker,
		Sessions:    store.sessions,
		Archiver:    archiver,
		Logger:      logger,
	})

	listing := ginserver.ListingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger}
	cascadeHTTP := ginserver.CascadeHandler{Commands: buses.Commands, Logger: logger}
	booking := ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger}
	app.handlers = ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: auth, Logger: logger},
		Listing:        listing,
		OwnerListing:   ginserver.OwnerListingHandler{ListingHandler: listing, Cascade: cascadeHTTP},
		Booking:        booking,
		OwnerBooking:   booking,
		Admin:          ginserver.AdminHandler{Commands: buses.Commands, Queries: buses.Queries, Cascade: cascadeHTTP, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: auth, Logger: logger}.Handle,
	}
	return app, nil
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	if cfg.Store != config.StoreMongo {
		box := memory.NewOutbox()
		logger.Warn("using in-memory store; data is lost on restart")
		return storage{
			factory:     memory.Factory{Store: memory.NewStore(), Outbox: box},
			source:      box,
			sessions:    memory.NewSessionStore(),
			idempotency: memory.NewIdempotencyStore(),
		}, nil
	}

	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storage{}, fmt.Errorf("mongo connect: %w", err)
	}
	fail := func(err error) (storage, error) {
		_ = client.Close(context.Background())
		return storage{}, err
	}
	if err := client.EnsureIndexes(ctx); err != nil {
		return fail(fmt.Errorf("mongo indexes: %w", err))
	}
	box, err := infraoutbox.NewStore(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo outbox: %w", err))
	}
	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo idempotency: %w", err))
	}
	logger.Info("mongo store ready", "database", cfg.MongoDB)
	return storage{
		factory:     mongostore.Factory{DB: client.DB, Outbox: box},
		source:      box,
		sessions:    mongostore.NewSessionStore(client.DB),
		idempotency: idem,
		ready:       client.Ping,
		close:       client.Close,
	}, nil
}

func openProducer(cfg config.Config, logger *slog.Logger) (infraoutbox.Producer, func(context.Context) error, error) {
	switch cfg.Broker {
	case config.BrokerKafka:
		p, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, nil, err
		}
		return p, func(context.Context) error { return p.Close() }, nil
	case config.BrokerRabbitMQ:
		p, err := rabbitmq.NewProducer(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			return nil, nil, err
		}
		return p, func(context.Context) error { return p.Close() }, nil
	default:
		return infraoutbox.LogProducer{Logger: logger}, nil, nil
	}
}
