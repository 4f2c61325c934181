package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/worker"
)

// The notifier drains the email queue filled by the server's amqp driver
// and delivers each message over SMTP.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.RabbitURL == "" || cfg.SMTP.Host == "" {
		log.Fatal("RABBIT_URL and SMTP_HOST are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("amqp dial failed", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("amqp channel failed", zap.Error(err))
	}
	defer ch.Close()

	if err := services.DeclareQueue(ch, cfg.Notify.Queue); err != nil {
		log.Fatal("declare queue failed", zap.Error(err))
	}
	if err := ch.Qos(10, 0, false); err != nil {
		log.Fatal("set qos failed", zap.Error(err))
	}

	deliveries, err := ch.Consume(cfg.Notify.Queue, "storefront-notifier", false, false, false, false, nil)
	if err != nil {
		log.Fatal("consume failed", zap.Error(err))
	}

	sender := services.NewSMTPNotifier(cfg.SMTP, cfg.Notify.From)
	worker.NewMailer(sender, log.Named("mailer")).Run(ctx, deliveries)
}
