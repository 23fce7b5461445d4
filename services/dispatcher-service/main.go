package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"civisense/pkg/config"
	"civisense/pkg/middleware"
	"civisense/pkg/queue"
)

const dispatchQueue = "complaint_dispatch"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("[ERROR] Invalid configuration: %v", err)
	}

	logger, err := middleware.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("[ERROR] Failed to build logger: %v", err)
	}
	defer logger.Sync()
	middleware.SetLogger(logger)

	if cfg.RabbitMQURL == "" {
		log.Fatal("[ERROR] RABBITMQ_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, ch, err := queue.ConnectRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()
	defer ch.Close()
	log.Println("[OK] Dispatcher Service connected to RabbitMQ")

	name, err := queue.DeclareQueue(ch, cfg.Exchange, dispatchQueue, queue.RoutingComplaintSubmitted)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	msgs, err := queue.ConsumeMessages(ch, name)
	if err != nil {
		log.Fatalf("[ERROR] Failed to consume queue: %v", err)
	}

	log.Printf("[INFO] Waiting for complaints in queue '%s'", name)
	err = queue.Handle(ctx, msgs, dispatchHandler(logForwarder{log: logger.Named("dispatch")}))
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("[ERROR] Consumer stopped: %v", err)
	}
	log.Println("[INFO] Dispatcher Service stopped")
}
