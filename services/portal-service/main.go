package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civisense/pkg/backend"
	"civisense/pkg/config"
	"civisense/pkg/dashboard"
	"civisense/pkg/database"
	"civisense/pkg/drafts"
	"civisense/pkg/middleware"
	"civisense/pkg/queue"
	"civisense/pkg/security"
	"civisense/pkg/session"
	"civisense/pkg/storage"

	amqp "github.com/rabbitmq/amqp091-go"
)

const sweepInterval = time.Minute

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	middleware.RegisterMetrics()
	log.Println("[INFO] Prometheus metrics initialized")

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	log.Printf("[INFO] Categorization backend at %s", cfg.BackendURL)

	srv := &server{
		locks:     drafts.NewLocker(),
		submitter: client,
		views: dashboard.NewRegistry(client,
			dashboard.WithPollInterval(cfg.PollInterval),
			dashboard.WithLogger(logger.Named("dashboard")),
		),
		sessions: session.NewManager(cfg.JWTSecret, cfg.SessionTTL),
		events:   queue.NopPublisher{},
	}
	defer srv.views.CloseAll()

	// Drafts
	if cfg.MongoURI != "" {
		db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		defer db.Client().Disconnect(context.Background())

		key, err := security.DeriveKey(cfg.AnonEncKey, cfg.JWTSecret)
		if err != nil {
			log.Fatalf("[ERROR] Invalid encryption key: %v", err)
		}
		cipher, err := security.NewCipher(key)
		if err != nil {
			log.Fatalf("[ERROR] Failed to init cipher: %v", err)
		}

		store := drafts.NewMongoStore(db, cipher, cfg.DraftTTL)
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Printf("[WARN] %v", err)
		}
		srv.drafts, srv.draftsBy = store, "mongo"
		log.Println("[OK] Connected to MongoDB, drafts persisted")
	} else {
		srv.drafts, srv.draftsBy = drafts.NewMemoryStore(cfg.DraftTTL), "memory"
		log.Println("[WARN] MONGO_URI not set, drafts kept in memory")
	}

	// Events
	if cfg.RabbitMQURL != "" {
		conn, ch, err := queue.ConnectRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		defer conn.Close()
		defer ch.Close()

		publisher, err := queue.NewPublisher(ch, cfg.Exchange)
		if err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		srv.events = publisher
		log.Println("[OK] Connected to RabbitMQ")

		if err := startStatusConsumer(ctx, conn, cfg.Exchange, srv.views); err != nil {
			log.Printf("[WARN] Status change consumer disabled: %v", err)
		}
	} else {
		log.Println("[WARN] RABBITMQ_URL not set, events disabled")
	}

	// Exports
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewObjectStore(storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			URLTTL:    cfg.ExportURLTTL,
		})
		if err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Printf("[WARN] %v", err)
		}
		srv.exports = store
		log.Printf("[OK] Exports stored in bucket %s", cfg.MinioBucket)
	} else {
		log.Println("[WARN] MINIO_ENDPOINT not set, export disabled")
	}

	go sweepSessions(ctx, srv.views)

	httpServer := &http.Server{
		Addr:              ":" + cfg.PortalPort,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.views.CloseAll()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("[INFO] Portal Service running on port :%s", cfg.PortalPort)
	log.Println("[INFO] Distributed tracing enabled (X-Trace-Id)")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[ERROR] Server failed: %v", err)
	}
	log.Println("[INFO] Portal Service stopped")
}

// startStatusConsumer listens on a private queue so every portal instance
// sees every status change.
func startStatusConsumer(ctx context.Context, conn *amqp.Connection, exchange string, views *dashboard.Registry) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	name, err := queue.DeclareQueue(ch, exchange, "", queue.RoutingStatusChanged)
	if err != nil {
		ch.Close()
		return err
	}
	msgs, err := queue.ConsumeMessages(ch, name)
	if err != nil {
		ch.Close()
		return err
	}

	go func() {
		defer ch.Close()
		if err := queue.Handle(ctx, msgs, statusChangeHandler(views)); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[WARN] Status change consumer stopped: %v", err)
		}
	}()
	log.Println("[INFO] Listening for complaint status changes")
	return nil
}

func sweepSessions(ctx context.Context, views *dashboard.Registry) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := views.Sweep(now); n > 0 {
				log.Printf("[INFO] Closed %d expired dashboard views", n)
			}
		}
	}
}
