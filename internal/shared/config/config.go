package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"recruit-backend/internal/shared/storage/db"
	"recruit-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string
	ShutdownTimeout time.Duration

	DatabaseURL string
	DBOverrides db.Options
	DevTenant   string

	JWTSecret string

	ObjectStoreType      string
	LocalStoreDir        string
	AWSRegion            string
	S3Bucket             string
	S3Prefix             string
	SSEKMSKeyID          string
	MinIOEndpoint        string
	MinIOAccessKeyID     string
	MinIOSecretAccessKey string
	MinIOUseSSL          bool
	MinIOBucket          string

	QueueBackend      string
	SQSQueueURL       string
	RedisAddr         string
	NotifyTimeout     time.Duration
	NotifyWebhookURL  string
	WorkerConcurrency int

	MeetingProvider     string
	MeetingAPIURL       string
	MeetingTokenURL     string
	MeetingClientID     string
	MeetingClientSecret string
	MeetingBaseURL      string

	ChromeBin string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables, falling back to an
// optional .env file and then to defaults.
func Load() Config {
	v := viper.New()
	setDefaults(v)
	readEnvFiles(v, ".env", "cmd/.env")
	v.AutomaticEnv()

	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if env == "production" && dbURL == "" {
		telemetry.Error("config.database_url_missing", nil)
	}

	return Config{
		Port:            v.GetString("PORT"),
		Env:             env,
		LogLevel:        v.GetString("LOG_LEVEL"),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),

		DatabaseURL: dbURL,
		DBOverrides: db.Options{
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			PingTimeout:     v.GetDuration("DB_PING_TIMEOUT"),
		},
		DevTenant: strings.TrimSpace(v.GetString("DEV_TENANT")),

		JWTSecret: strings.TrimSpace(v.GetString("JWT_SECRET")),

		ObjectStoreType:      normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:        v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:            v.GetString("AWS_REGION"),
		S3Bucket:             v.GetString("S3_BUCKET"),
		S3Prefix:             v.GetString("S3_PREFIX"),
		SSEKMSKeyID:          v.GetString("SSE_KMS_KEY_ID"),
		MinIOEndpoint:        v.GetString("MINIO_ENDPOINT"),
		MinIOAccessKeyID:     v.GetString("MINIO_ACCESS_KEY_ID"),
		MinIOSecretAccessKey: v.GetString("MINIO_SECRET_ACCESS_KEY"),
		MinIOUseSSL:          v.GetBool("MINIO_USE_SSL"),
		MinIOBucket:          v.GetString("MINIO_BUCKET"),

		QueueBackend:      normalizeQueueBackend(v.GetString("QUEUE_BACKEND")),
		SQSQueueURL:       v.GetString("SQS_QUEUE_URL"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		NotifyTimeout:     v.GetDuration("NOTIFY_TIMEOUT"),
		NotifyWebhookURL:  v.GetString("NOTIFY_WEBHOOK_URL"),
		WorkerConcurrency: v.GetInt("WORKER_CONCURRENCY"),

		MeetingProvider:     normalizeMeetingProvider(v.GetString("MEETING_PROVIDER")),
		MeetingAPIURL:       v.GetString("MEETING_API_URL"),
		MeetingTokenURL:     v.GetString("MEETING_TOKEN_URL"),
		MeetingClientID:     v.GetString("MEETING_CLIENT_ID"),
		MeetingClientSecret: v.GetString("MEETING_CLIENT_SECRET"),
		MeetingBaseURL:      v.GetString("MEETING_BASE_URL"),

		ChromeBin: v.GetString("CHROME_BIN"),

		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("MINIO_BUCKET", "offer-letters")
	v.SetDefault("QUEUE_BACKEND", "none")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("NOTIFY_TIMEOUT", "5s")
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("MEETING_PROVIDER", "static")
	v.SetDefault("MEETING_BASE_URL", "https://meet.example.com")
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
}

// readEnvFiles merges KEY=VALUE files into v if they exist. Real environment
// variables still win because AutomaticEnv is consulted first.
func readEnvFiles(v *viper.Viper, paths ...string) {
	for _, path := range paths {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.MergeInConfig(); err != nil {
			continue
		}
	}
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

func normalizeQueueBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqs":
		return "sqs"
	case "asynq", "redis":
		return "asynq"
	default:
		return "none"
	}
}

func normalizeMeetingProvider(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "http") {
		return "http"
	}
	return "static"
}
