package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bistro/internal/config"
	"bistro/internal/database"
	"bistro/internal/logger"
	"bistro/internal/messaging"
	"bistro/internal/messaging/kafka"
	"bistro/internal/notification"
	"bistro/internal/order"
	"bistro/internal/outcome"
	"bistro/internal/payment"
	"bistro/internal/sequence"
	notifysvc "bistro/internal/services/notification"
	ordersvc "bistro/internal/services/order"
	"bistro/internal/services/tracking"
	"bistro/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		mode       = flag.String("mode", "", "Service mode (order-service, tracking-service, notification-subscriber)")
		configPath = flag.String("config", "config.yaml", "Path to the YAML config file")
		port       = flag.Int("port", 0, "HTTP port, overrides the config file")
		prefetch   = flag.Int("prefetch", 10, "RabbitMQ prefetch count")
		seed       = flag.Uint64("seed", 0, "Seed for simulated payment and delivery outcomes (0 = random)")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("service_starting", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode":     *mode,
		"database": cfg.DatabaseEnabled(),
		"rabbitmq": cfg.RabbitMQEnabled(),
		"redis":    cfg.Redis.Addr != "",
		"kafka":    len(cfg.Kafka.Brokers) > 0,
	})

	switch *mode {
	case "order-service":
		if *port != 0 {
			cfg.Server.Port = *port
		}
		err = runOrderService(ctx, cfg, log, *seed)
	case "tracking-service":
		if *port != 0 {
			cfg.Server.TrackingPort = *port
		}
		err = runTrackingService(ctx, cfg, log)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, log, *prefetch)
	default:
		err = fmt.Errorf("unknown mode: %s", *mode)
	}
	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

func runOrderService(ctx context.Context, cfg *config.Config, log *logger.Logger, seed uint64) error {
	requestID := logger.GenerateRequestID()
	checks := map[string]func(context.Context) error{}

	svcCfg := ordersvc.Config{
		Source: outcome.NewRandom(seed),
		PaymentRates: payment.Rates{
			Card:         cfg.Payments.CardSuccessRate,
			PeerTransfer: cfg.Payments.PeerTransferSuccessRate,
			Wallet:       cfg.Payments.WalletSuccessRate,
		},
		NotificationRates: notification.Rates{
			notification.SMS:     cfg.Notifications.SMS,
			notification.Email:   cfg.Notifications.Email,
			notification.Push:    cfg.Notifications.Push,
			notification.InApp:   cfg.Notifications.InApp,
			notification.Slack:   cfg.Notifications.Slack,
			notification.Webhook: cfg.Notifications.Webhook,
		},
		Checks: checks,
		Logger: log,
	}

	var lastID int64
	if cfg.DatabaseEnabled() {
		db, err := database.Connect(ctx, cfg.DatabaseURL(), log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx, migrations.FS); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		store := database.NewOrderStore(db)
		if lastID, err = store.MaxOrderID(ctx); err != nil {
			return fmt.Errorf("failed to read last order id: %w", err)
		}
		svcCfg.Store = store
		checks["database"] = db.Ping
	} else {
		log.Info("db_disabled", "No database configured, orders are kept in memory only", requestID, nil)
	}

	if cfg.Redis.Addr != "" {
		client, err := sequence.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			return err
		}
		defer client.Close()

		seq := sequence.NewRedis(client, cfg.Redis.Key)
		if err := seq.Floor(ctx, lastID); err != nil {
			return fmt.Errorf("failed to restore order sequence: %w", err)
		}
		svcCfg.IDs = seq
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	} else {
		svcCfg.IDs = order.NewCounter(lastID)
	}

	if cfg.RabbitMQEnabled() {
		conn, err := messaging.Dial(ctx, cfg.RabbitMQURL(), log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()

		svcCfg.Sender = messaging.NewPublisher(conn, log)
		checks["rabbitmq"] = func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		events := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer events.Close()
		svcCfg.Events = events
	}

	service := ordersvc.NewService(svcCfg)
	handler := ordersvc.NewHandler(service, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("service_started", fmt.Sprintf("Order Service started on port %d", cfg.Server.Port), requestID, map[string]interface{}{
		"port":       cfg.Server.Port,
		"menu_items": service.Catalog().Len(),
	})
	return serve(ctx, server)
}

func runTrackingService(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if !cfg.DatabaseEnabled() {
		return errors.New("tracking service requires a database")
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	service := tracking.NewService(database.NewOrderStore(db), db, log)
	handler := tracking.NewHandler(service, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.TrackingPort),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("service_started", fmt.Sprintf("Tracking Service started on port %d", cfg.Server.TrackingPort), "", map[string]interface{}{
		"port": cfg.Server.TrackingPort,
	})
	return serve(ctx, server)
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	if !cfg.RabbitMQEnabled() {
		return errors.New("notification subscriber requires RabbitMQ")
	}

	conn, err := messaging.Dial(ctx, cfg.RabbitMQURL(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", prefetch)
	return notifysvc.NewSubscriber(consumer, os.Stdout, log).Start(ctx)
}

// serve runs server until ctx is cancelled, then shuts it down gracefully
func serve(ctx context.Context, server *http.Server) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
