// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server and message router.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jessevdk/go-flags"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/config"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/database"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/handler"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/lock"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/log"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/payment"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/pubsub"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/ticket"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Println(ferr.Message)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log.Init(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		logrus.WithError(err).Fatal("service stopped")
	}
	logrus.Info("service stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logrus.Info("connected to PostgreSQL")

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}

	codec, err := ticket.NewCodec(cfg.Ticket.Secret, cfg.Ticket.Algorithm, cfg.Ticket.ValidityAfterEvent)
	if err != nil {
		return fmt.Errorf("ticket codec: %w", err)
	}

	// ── 2. Locks and messaging ────────────────────────────────────────────
	watermillLogger := log.NewWatermill(logrus.NewEntry(logrus.StandardLogger()))

	var (
		pub    message.Publisher
		sub    message.Subscriber
		locker service.Locker
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		pub, sub, err = pubsub.NewRedis(rdb, watermillLogger)
		if err != nil {
			return err
		}
		locker = lock.NewRedis(rdb, cfg.LockTTL)
	} else {
		logrus.Warn("REDIS_ADDR not set, using in-process locks and messaging")
		ch := pubsub.NewInMemory(watermillLogger)
		pub, sub = ch, ch
		locker = lock.NewLocal()
	}
	bus := pubsub.NewBus(pub)

	// ── 3. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	pendingRepo := repository.NewPendingRepository(pool)
	gateway := payment.NewStripeClient(cfg.Payment.StripeSecretKey, cfg.Payment.SuccessURL, cfg.Payment.CancelURL)

	eventSvc := service.NewEventService(eventRepo, userRepo)
	registrationSvc := service.NewRegistrationService(eventRepo, userRepo, userRepo, pendingRepo, gateway, codec, locker, bus)
	reconciliationSvc := service.NewReconciliationService(gateway, pendingRepo, userRepo, userRepo, registrationSvc)
	repairSvc := service.NewRepairService(eventRepo, userRepo, userRepo, codec, locker)

	router, err := pubsub.NewRouter(sub, pub, repairSvc, watermillLogger)
	if err != nil {
		return err
	}

	eventHandler := handler.NewEventHandler(eventSvc, registrationSvc, reconciliationSvc, ticket.NewVerifier(codec))
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler.NewRouter(eventHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ── 4. Run until SIGINT or SIGTERM ────────────────────────────────────
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return router.Run(ctx)
	})

	g.Go(func() error {
		// the service is not healthy before its message handlers are
		select {
		case <-router.Running():
		case <-ctx.Done():
			return nil
		}

		logrus.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logrus.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if cfg.RepairInterval > 0 {
		g.Go(func() error {
			repairLoop(ctx, repairSvc, cfg.RepairInterval, cfg.RepairBatch)
			return nil
		})
	}

	return g.Wait()
}

// repairLoop sweeps attendees without a ledger entry every interval.
func repairLoop(ctx context.Context, repairer *service.RepairService, interval time.Duration, batch int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		repaired, err := repairer.Sweep(ctx, batch)
		logger := logrus.WithField("repaired", repaired)
		if err != nil {
			logger.WithError(err).Error("ledger repair sweep failed")
			continue
		}
		if repaired > 0 {
			logger.Info("ledger repair sweep")
		}
	}
}
