package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/common/auth"
	apperrors "storefront-service/common/errors"
	"storefront-service/common/logger"
	"storefront-service/controllers"
	"storefront-service/database"
	"storefront-service/media"
	"storefront-service/middleware"
	"storefront-service/notifier"
	"storefront-service/payments"
	awspkg "storefront-service/pkg/aws"
	"storefront-service/repository"
	"storefront-service/routes"
	"storefront-service/services"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "storefront-service"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- 1. AWS, logging ---

	var awsCfg sdkaws.Config
	if cfg.UsesAWS() {
		awsCfg, err = awspkg.LoadAWSConfig(rootCtx)
		if err != nil {
			panic("failed to load AWS config: " + err.Error())
		}
	}

	var cwWriter *awspkg.CloudWatchLogsWriter
	var cwErr error
	if cfg.CloudWatchEnabled {
		cwWriter, cwErr = awspkg.NewCloudWatchLogsWriter(rootCtx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
	}
	var log *zap.Logger
	if cwWriter != nil {
		log, err = logger.InitializeWithWriter(cfg.AppEnv, cwWriter)
	} else {
		log, err = logger.Initialize(cfg.AppEnv)
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	if cwErr != nil {
		log.Warn("CloudWatch Logs unavailable, logging to stdout only", zap.Error(cwErr))
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- 2. Stores ---

	if err := database.ConnectWithConfig(cfg.MongoURL, cfg.MongoDB); err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := database.EnsureIndexes(rootCtx, database.DB); err != nil {
		log.Warn("Failed to ensure indexes", zap.Error(err))
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("Failed to parse REDIS_URL, falling back to default", zap.Error(err))
		redisOpts = &redis.Options{Addr: "localhost:6379", DB: 0}
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(rootCtx).Err(); err != nil {
		log.Warn("Redis unreachable, product cache disabled until it recovers", zap.Error(err))
	}

	var store media.Store
	switch cfg.MediaProvider {
	case "s3":
		store = media.NewS3Store(awspkg.NewS3Client(awsCfg), cfg.S3Bucket, cfg.S3Prefix, cfg.CloudFrontDomain)
	default:
		cld, err := media.NewCloudinaryStore(cfg.CloudinaryURL)
		if err != nil {
			log.Fatal("Failed to initialize Cloudinary", zap.Error(err))
		}
		store = cld
	}
	log.Info("Media store configured", zap.String("provider", cfg.MediaProvider))

	// --- 3. Repositories ---

	db := database.DB
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	userRepo := repository.NewUserRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	testimonialRepo := repository.NewTestimonialRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	contactRepo := repository.NewContactRepository(db)
	inventoryLogRepo := repository.NewInventoryLogRepository(db)
	galleryImageRepo := repository.NewGalleryImageRepository(db)
	galleryOfferRepo := repository.NewGalleryOfferRepository(db)

	var webhookRepo repository.WebhookEventRepo
	if cfg.WebhookEventsTable != "" {
		webhookRepo = repository.NewDynamoWebhookEventRepository(awspkg.NewDynamoDBClient(awsCfg), cfg.WebhookEventsTable)
	} else {
		webhookRepo = repository.NewMongoWebhookEventRepository(db)
	}

	// --- 4. Side effects ---

	cwMetrics := awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)

	var publishers notifier.MultiPublisher
	if cfg.OrderEventsTopicArn != "" {
		publishers = append(publishers, notifier.NewSNSEventPublisher(awspkg.NewSNSClient(awsCfg), cfg.OrderEventsTopicArn))
	}
	var kafkaPublisher *notifier.KafkaEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher = notifier.NewKafkaEventPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		publishers = append(publishers, kafkaPublisher)
	}
	if cwMetrics.IsEnabled() {
		publishers = append(publishers, notifier.NewMetricsPublisher(cwMetrics))
	}
	var events services.EventPublisher = notifier.NoopPublisher{}
	if len(publishers) > 0 {
		events = publishers
	}

	var emailQueue services.EmailQueue
	var mailer *notifier.Mailer
	if sender, err := notifier.NewSMTPSender(notifier.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
	}); err != nil {
		log.Warn("Order confirmation email disabled", zap.Error(err))
	} else {
		mailer = notifier.NewMailer(sender, cfg.EmailAdmin, log)
		if cfg.EmailQueueURL != "" {
			queue := awspkg.NewSQSQueue(awsCfg, cfg.EmailQueueURL, log)
			emailQueue = notifier.NewSQSEmailQueue(queue)
			go func() {
				if err := queue.StartPolling(rootCtx, notifier.EmailJobHandler(mailer)); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("Email queue consumer stopped", zap.Error(err))
				}
			}()
		} else {
			emailQueue = notifier.NewDirectEmailQueue(mailer)
		}
	}

	stripeClient := payments.NewStripeClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	// --- 5. Services & controllers ---

	ledger := services.NewInventoryLedger(productRepo, inventoryLogRepo, log)
	orderService := services.NewOrderService(orderRepo, saleRepo, ledger, events, log)
	checkoutService := services.NewCheckoutService(services.CheckoutDeps{
		Products: productRepo,
		Orders:   orderService,
		Ledger:   ledger,
		Users:    userRepo,
		Webhooks: webhookRepo,
		Email:    emailQueue,
		Events:   events,
		Gateway:  stripeClient,
	}, log)
	productService := services.NewProductService(productRepo, ledger, store, log)
	categoryService := services.NewCategoryService(categoryRepo, galleryImageRepo)
	galleryService := services.NewGalleryService(galleryImageRepo, galleryOfferRepo, categoryRepo, productRepo, store, log)
	reviewService := services.NewReviewService(reviewRepo, orderRepo, productRepo, log)
	testimonialService := services.NewTestimonialService(testimonialRepo, store, log)
	offerService := services.NewOfferService(offerRepo, store, log)
	contactService := services.NewContactService(contactRepo)
	tokens := auth.NewTokenManager(cfg.JWTSecret)
	resetCfg := services.PasswordResetConfig{
		BaseURL:  cfg.ResetURLBase,
		TTL:      cfg.ResetTokenTTL,
		LogLinks: cfg.AppEnv != "production",
	}
	if mailer != nil {
		resetCfg.Mailer = mailer
	}
	authService := services.NewAuthService(userRepo, tokens, log).WithPasswordReset(resetCfg)
	adminService := services.NewAdminService(orderRepo, saleRepo, productRepo, userRepo, inventoryLogRepo, log)

	cache := controllers.NewCacheManager(redisClient)
	ctl := routes.Controllers{
		Checkout:     controllers.NewCheckoutController(checkoutService, orderService, stripeClient, cache),
		Products:     controllers.NewProductController(productService, cache),
		Categories:   controllers.NewCategoryController(categoryService, cache),
		Reviews:      controllers.NewReviewController(reviewService),
		Testimonials: controllers.NewTestimonialController(testimonialService),
		Offers:       controllers.NewOfferController(offerService),
		Gallery:      controllers.NewGalleryController(galleryService),
		Contact:      controllers.NewContactController(contactService),
		Auth:         controllers.NewAuthController(authService),
		Admin:        controllers.NewAdminController(orderService, adminService, cache),
	}
	authenticator := middleware.NewAuthenticator(tokens, userRepo)

	// --- 6. HTTP server & middleware ---

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics(cwMetrics, serviceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.APILimiter(rootCtx))
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterRoutes(r, ctl, routes.Guards{
		Authenticate:  authenticator.Authenticate(),
		ReviewLimiter: middleware.ReviewLimiter(rootCtx),
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// --- 7. Graceful shutdown ---

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Storefront service starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down storefront service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Error("Failed to close Kafka writer", zap.Error(err))
		}
	}
	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}
	if err := database.Close(); err != nil {
		log.Error("Failed to close MongoDB", zap.Error(err))
	}
	if cwWriter != nil {
		_ = cwWriter.Close()
	}

	log.Info("Storefront service stopped gracefully")
}
