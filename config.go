package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	awspkg "storefront-service/pkg/aws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds all environment variables for the storefront service.
type Config struct {
	Port   string
	AppEnv string

	MongoURL string
	MongoDB  string
	RedisURL string

	JWTSecret           string
	StripeSecretKey     string
	StripeWebhookSecret string

	MediaProvider    string // cloudinary or s3
	CloudinaryURL    string
	S3Bucket         string
	S3Prefix         string
	CloudFrontDomain string

	OrderEventsTopicArn string
	KafkaBrokers        []string
	KafkaOrderTopic     string

	EmailQueueURL string
	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPassword  string
	EmailFrom     string
	EmailAdmin    string

	ResetURLBase  string
	ResetTokenTTL time.Duration

	WebhookEventsTable string

	CloudWatchEnabled   bool
	CloudWatchNamespace string
	CloudWatchLogGroup  string

	AllowedOrigins string
	UseSecrets     bool
}

// UsesAWS reports whether any component needs the shared AWS config.
func (c *Config) UsesAWS() bool {
	return c.UseSecrets || c.CloudWatchEnabled || c.MediaProvider == "s3" ||
		c.OrderEventsTopicArn != "" || c.EmailQueueURL != "" || c.WebhookEventsTable != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig reads .env (when present) and the process environment. With
// AWS_USE_SECRETS=true the JWT and Stripe secrets come from Secrets Manager,
// falling back to the environment when a lookup fails.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		MongoURL: getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "storefront"),
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		MediaProvider:    strings.ToLower(getEnv("MEDIA_PROVIDER", "cloudinary")),
		CloudinaryURL:    os.Getenv("CLOUDINARY_URL"),
		S3Bucket:         getEnv("AWS_S3_BUCKET", "storefront-media"),
		S3Prefix:         getEnv("AWS_S3_PREFIX", "media/"),
		CloudFrontDomain: os.Getenv("AWS_CLOUDFRONT_DOMAIN"),

		OrderEventsTopicArn: os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:     getEnv("KAFKA_ORDER_TOPIC", "storefront.orders"),

		EmailQueueURL: os.Getenv("EMAIL_QUEUE_URL"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		EmailAdmin:    os.Getenv("EMAIL_ADMIN"),

		ResetURLBase:  getEnv("ADMIN_RESET_URL", getEnv("FRONTEND_ORIGIN", "http://localhost:5173")),
		ResetTokenTTL: time.Duration(getEnvInt("RESET_TOKEN_TTL_MINUTES", 15)) * time.Minute,

		WebhookEventsTable: os.Getenv("DDB_TABLE_WEBHOOK_EVENTS"),

		CloudWatchEnabled:   getEnv("CLOUDWATCH_ENABLED", "false") == "true",
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "Storefront"),
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/storefront/api"),

		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		UseSecrets:     os.Getenv("AWS_USE_SECRETS") == "true",
	}

	if cfg.UseSecrets {
		loadSecrets(cfg)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.MediaProvider != "cloudinary" && cfg.MediaProvider != "s3" {
		return nil, fmt.Errorf("MEDIA_PROVIDER must be cloudinary or s3, got %q", cfg.MediaProvider)
	}
	return cfg, nil
}

func loadSecrets(cfg *Config) {
	ctx := context.Background()
	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		zap.L().Warn("Secrets Manager unavailable, using environment", zap.Error(err))
		return
	}
	sm := awspkg.NewSecretsClient(awsCfg, "storefront")

	for name, dst := range map[string]*string{
		"JWT_SECRET":           &cfg.JWTSecret,
		"stripe#secretKey":     &cfg.StripeSecretKey,
		"stripe#webhookSecret": &cfg.StripeWebhookSecret,
	} {
		if err := sm.Override(ctx, name, dst); err != nil {
			zap.L().Warn("Secret lookup failed, using environment", zap.String("secret", name), zap.Error(err))
		}
	}
}
