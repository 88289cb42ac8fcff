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

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jayzilla/service-booking/internal/application"
	"github.com/jayzilla/service-booking/internal/config"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
	"github.com/jayzilla/service-booking/internal/domain/servicerequest"
	"github.com/jayzilla/service-booking/internal/domain/wizard"
	bookingEvents "github.com/jayzilla/service-booking/internal/events"
	"github.com/jayzilla/service-booking/internal/handler"
	"github.com/jayzilla/service-booking/internal/notification"
	"github.com/jayzilla/service-booking/internal/payment"
	"github.com/jayzilla/service-booking/internal/platform/auth"
	"github.com/jayzilla/service-booking/internal/platform/database"
	"github.com/jayzilla/service-booking/internal/platform/health"
	"github.com/jayzilla/service-booking/internal/platform/kafka"
	"github.com/jayzilla/service-booking/internal/platform/logger"
	"github.com/jayzilla/service-booking/internal/platform/middleware"
	"github.com/jayzilla/service-booking/internal/repository"
	"github.com/jayzilla/service-booking/internal/session"
	"github.com/jayzilla/service-booking/internal/storage"
	"go.uber.org/zap"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("store_driver", cfg.StoreDriver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var checks []health.Check

	// Initialize repositories
	var (
		requestRepo    servicerequest.Repository
		attachmentRepo attachment.Repository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, mongoDB, err := database.ConnectMongo(ctx, cfg.MongoConfig.URI, cfg.MongoConfig.Database, log)
		if err != nil {
			log.Fatal("failed to connect to mongo", zap.Error(err))
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		mongoRepo, err := repository.NewMongoServiceRequestRepository(ctx, mongoDB)
		if err != nil {
			log.Fatal("failed to prepare mongo collections", zap.Error(err))
		}
		requestRepo = mongoRepo
		attachmentRepo = repository.NewMongoAttachmentRepository(mongoDB)
		checks = append(checks, health.Check{Name: "mongo", Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}})

	default:
		db, err := database.Connect(database.PostgresConfig{
			Host:     cfg.DBConfig.Host,
			Port:     cfg.DBConfig.Port,
			User:     cfg.DBConfig.User,
			Password: cfg.DBConfig.Password,
			DBName:   cfg.DBConfig.DBName,
			SSLMode:  cfg.DBConfig.SSLMode,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(&repository.ServiceRequestModel{}, &repository.AttachmentModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed")

		requestRepo = repository.NewGormServiceRequestRepository(db)
		attachmentRepo = repository.NewGormAttachmentRepository(db)
		checks = append(checks, health.Check{Name: "postgres", Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}})
	}

	// Initialize attachment store
	var store storage.Store
	if cfg.Storage.CloudName != "" {
		store, err = storage.NewCloudinaryStore(cfg.Storage.CloudName, cfg.Storage.APIKey, cfg.Storage.APISecret, cfg.Storage.Folder, log)
	} else {
		store, err = storage.NewDiskStore(cfg.Storage.LocalDir, cfg.Storage.LocalBaseURL)
	}
	if err != nil {
		log.Fatal("failed to initialize attachment store", zap.Error(err))
	}

	// Initialize wizard session store
	var sessions session.Store
	if cfg.RedisConfig.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer func() { _ = rdb.Close() }()
		sessions = session.NewRedisStore(rdb, cfg.RedisConfig.SessionTTL)
		checks = append(checks, health.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		log.Warn("redis not configured, wizard sessions are kept in memory")
		sessions = session.NewMemoryStore(cfg.RedisConfig.SessionTTL)
	}

	// Initialize payments
	manual := payment.ManualConfig{
		CashAppTag: cfg.ManualPayment.CashAppTag,
		ZelleEmail: cfg.ManualPayment.ZelleEmail,
		PayPalMe:   cfg.ManualPayment.PayPalMe,
	}
	var (
		gateway       payment.Gateway
		stripeGateway *payment.StripeGateway
	)
	if cfg.Stripe.SecretKey != "" {
		stripeGateway = payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, log)
		gateway = stripeGateway
	} else {
		log.Warn("stripe not configured, card payments are unavailable")
	}

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize application services
	calc := pricing.NewStandardCalculator()
	requestService := application.NewServiceRequestService(
		requestRepo,
		attachmentRepo,
		store,
		gateway,
		manual,
		calc,
		kafkaProducer,
		log,
	)
	wizardService := application.NewWizardService(wizard.New(calc), sessions, requestService, log)

	// Initialize and start event consumers
	paymentConsumer := bookingEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		cfg.KafkaConfig.GroupPrefix+"booking-payments",
		requestService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	if cfg.SendGrid.APIKey != "" {
		var texter notification.Texter
		if cfg.Twilio.AccountSID != "" {
			texter = notification.NewTwilioTexter(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, log)
		}
		mailer := notification.NewSendGridMailer(cfg.SendGrid.APIKey, cfg.SendGrid.FromName, cfg.SendGrid.FromEmail, cfg.SendGrid.Sandbox, log)
		notifier := notification.NewNotifier(mailer, texter, manual, log)

		notificationConsumer := bookingEvents.NewNotificationConsumer(
			cfg.KafkaConfig.Brokers,
			cfg.KafkaConfig.GroupPrefix+"booking-notifications",
			notifier,
			log,
		)
		defer func() { _ = notificationConsumer.Close() }()

		go func() {
			log.Info("starting notification consumer")
			if err := notificationConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notification consumer error", zap.Error(err))
			}
		}()
	} else {
		log.Warn("sendgrid not configured, confirmation emails are disabled")
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = int64(attachment.MaxFiles*attachment.MaxFileSize) + 1<<20

	// Apply global middleware
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(limiter.Middleware(log))

	// Register health check routes
	health.NewHandler(serviceName, checks...).RegisterRoutes(router)

	if _, ok := store.(*storage.DiskStore); ok {
		router.Static(cfg.Storage.LocalBaseURL, cfg.Storage.LocalDir)
	}

	// Register routes
	handler.NewWizardHandler(wizardService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewServiceRequestHandler(wizardService, requestService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminServiceRequestHandler(requestService).RegisterRoutes(&router.RouterGroup, jwtManager)
	if stripeGateway != nil {
		handler.NewStripeWebhookHandler(stripeGateway, requestService, log).RegisterRoutes(&router.RouterGroup)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
