package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"storefront-backend/services/notification-worker/internal/mail"
	"storefront-backend/services/notification-worker/internal/repo"
	"storefront-backend/services/notification-worker/internal/worker"
	"storefront-backend/shared/pkg/config"
	"storefront-backend/shared/pkg/logger"
	"storefront-backend/shared/pkg/metrics"
	"storefront-backend/shared/pkg/rabbit"
)

const (
	service = "notification"
	queue   = "notification.q"
	dlqKey  = "notification.dlq"
)

var bindKeys = []string{"users.#"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("notification-worker", cfg.Common.LogLevel)

	ctxDB, cancelDB := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDB()
	db, err := pgxpool.New(ctxDB, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer db.Close()

	mailer, err := mail.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("smtp config invalid")
	}

	rc, err := rabbit.Connect(cfg.Rabbit.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit connect failed")
	}
	defer func() { _ = rc.Close() }()

	if err := rabbit.DeclareBase(rc.Ch); err != nil {
		log.Fatal().Err(err).Msg("declare base failed")
	}
	spec := rabbit.QueueSpec{
		Name:     queue,
		BindKeys: bindKeys,
		DLQ:      dlqKey,
		Prefetch: cfg.Notify.Prefetch,
	}
	if err := rabbit.DeclareQueueWithDLQ(rc.Ch, spec); err != nil {
		log.Fatal().Err(err).Msg("declare notification topology failed")
	}
	if err := rabbit.DeclareRetryQueue(rc.Ch, service, queue, bindKeys, int(cfg.Notify.RetryDelay.Milliseconds())); err != nil {
		log.Fatal().Err(err).Msg("declare retry queue failed")
	}

	go rabbit.WatchReturns(rc.Ch.NotifyReturn(make(chan amqp.Return, 16)), log)

	sub := rabbit.NewConsumer(rc.Ch, service)
	deliveries, err := sub.Consume(spec)
	if err != nil {
		log.Fatal().Err(err).Msg("consume failed")
	}

	c := &worker.Consumer{
		Log:         log,
		Processed:   &repo.ProcessedPG{DB: db},
		Mailer:      mailer,
		RetryPub:    rabbit.NewPublisher(rc.Ch, rabbit.ExchangeRetry, rabbit.Mandatory()),
		DLQPub:      rabbit.NewPublisher(rc.Ch, rabbit.ExchangeDLX, rabbit.Mandatory()),
		Service:     service,
		MaxAttempts: cfg.Notify.MaxAttempts,
		DLQKey:      dlqKey,
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(appCtx, deliveries)

	httpSrv := &http.Server{
		Addr: cfg.Notify.HTTPAddr,
		Handler: metrics.OpsRouter(map[string]metrics.Check{
			"postgres": db.Ping,
			"rabbitmq": rc.Healthy,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", httpSrv.Addr).Msg("http started")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	log.Info().Str("consumer_tag", sub.Tag()).Msg("notification-worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutdown...")

	if err := sub.Cancel(); err != nil {
		log.Warn().Err(err).Msg("consumer cancel failed")
	}
	cancel()
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = httpSrv.Shutdown(shCtx)
}
