package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"recruit-backend/internal/applications"
	"recruit-backend/internal/audit"
	"recruit-backend/internal/interviews"
	"recruit-backend/internal/jobs"
	"recruit-backend/internal/meeting"
	"recruit-backend/internal/members"
	"recruit-backend/internal/notify"
	"recruit-backend/internal/offerletter"
	"recruit-backend/internal/offers"
	"recruit-backend/internal/queue"
	"recruit-backend/internal/services/health"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/server"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/storage/db"
	"recruit-backend/internal/shared/storage/memdb"
	"recruit-backend/internal/shared/storage/object"
	localstore "recruit-backend/internal/shared/storage/object/local"
	miniostore "recruit-backend/internal/shared/storage/object/minio"
	s3store "recruit-backend/internal/shared/storage/object/s3"
	"recruit-backend/internal/shared/telemetry"
)

// App holds shared dependencies for every entrypoint.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Memory    *memdb.Store
	Redis     *redis.Client
	Store     object.ObjectStore
	Queue     queue.Client
	Deliverer notify.Deliverer
	Outbox    *notify.Outbox
	Tokens    *auth.Tokens
	Letters   offerletter.Generator
	Meetings  meeting.Provider
	Audit     audit.Recorder
	Health    *health.Service

	Jobs         *jobs.Service
	Applications *applications.Service
	Interviews   *interviews.Service
	Offers       *offers.Service
}

// Overrides replaces collaborators that talk to the outside world. Tests use
// it to run the full router without Chrome, a meeting API or a queue.
type Overrides struct {
	Memory    *memdb.Store
	Letters   offerletter.Generator
	Meetings  meeting.Provider
	Notifier  notify.Notifier
	Deliverer notify.Deliverer
	Audit     audit.Recorder
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	return BuildWith(context.Background(), cfg, Overrides{})
}

// BuildWith is Build with some collaborators supplied by the caller.
func BuildWith(ctx context.Context, cfg config.Config, ov Overrides) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.IsProduction())
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Tokens: tokens}

	if ov.Memory == nil {
		app.DB, err = buildDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}
	if app.DB == nil {
		app.Memory = ov.Memory
		if app.Memory == nil {
			app.Memory = memdb.New()
		}
		if cfg.DevTenant != "" && isDevLike(cfg.Env) {
			if err := seedDevTenant(ctx, app.Memory, cfg.DevTenant); err != nil {
				return nil, err
			}
		}
	}

	if cfg.QueueBackend == "asynq" {
		app.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	app.Queue, err = buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app.Deliverer = ov.Deliverer
	if app.Deliverer == nil {
		app.Deliverer = buildDeliverer(cfg)
	}
	notifier := ov.Notifier
	if notifier == nil {
		notifier = buildNotifier(app.Queue, app.Deliverer)
	}
	app.Outbox = notify.NewOutbox(notifier, cfg.NotifyTimeout)

	app.Meetings = ov.Meetings
	if app.Meetings == nil {
		app.Meetings, err = buildMeetings(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	app.Letters = ov.Letters
	if app.Letters == nil {
		app.Store, err = buildStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.Letters = offerletter.NewPDFGenerator(offerletter.NewChromeRenderer(cfg.ChromeBin), app.Store)
	}

	app.Audit = ov.Audit
	if app.Audit == nil {
		app.Audit = buildAudit(app.DB)
	}

	if app.DB != nil {
		app.Health = health.NewService(app.DB, redisOrNil(app.Redis))
	} else {
		app.Health = health.NewService(nil, redisOrNil(app.Redis))
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             cfg,
		Tokens:             app.Tokens,
		Audit:              app.Audit,
		Health:             app.Health,
		Limiter:            middleware.NewRateLimiter(nil),
		JobHandler:         jobs.NewHandler(app.Jobs),
		ApplicationHandler: applications.NewHandler(app.Applications),
		InterviewHandler:   interviews.NewHandler(app.Interviews),
		OfferHandler:       offers.NewHandler(app.Offers),
	})

	return app, nil
}

// Close drains pending notifications and releases connections.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	a.Outbox.Wait()

	var errs []error
	if closer, ok := a.Queue.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_url_empty", map[string]any{"fallback": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.Override(db.DefaultOptions(db.ProfileLambda), cfg.DBOverrides)
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.Override(db.DefaultOptions(db.ProfileServer), cfg.DBOverrides)
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_connect_failed", map[string]any{"fallback": "memory", "error": err})
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, s3store.Config{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
		})
	case "minio":
		return miniostore.New(ctx, miniostore.Config{
			Endpoint:         cfg.MinIOEndpoint,
			AccessKeyID:      cfg.MinIOAccessKeyID,
			SecretAccessKey:  cfg.MinIOSecretAccessKey,
			Bucket:           cfg.MinIOBucket,
			Region:           cfg.AWSRegion,
			UseSSL:           cfg.MinIOUseSSL,
			AutoCreateBucket: !cfg.IsProduction(),
		})
	default:
		return localstore.New(cfg.LocalStoreDir, ""), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	switch cfg.QueueBackend {
	case "sqs":
		if strings.TrimSpace(cfg.SQSQueueURL) == "" {
			return nil, fmt.Errorf("QUEUE_BACKEND=sqs requires SQS_QUEUE_URL")
		}
		return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.SQSQueueURL)
	case "asynq":
		return queue.NewAsynqClient(cfg.RedisAddr, 0), nil
	default:
		return nil, nil
	}
}

func buildDeliverer(cfg config.Config) notify.Deliverer {
	if strings.TrimSpace(cfg.NotifyWebhookURL) != "" {
		return notify.WebhookDeliverer{URL: cfg.NotifyWebhookURL}
	}
	return notify.LogDeliverer{}
}

// buildNotifier enqueues when a queue exists and otherwise delivers in-process.
func buildNotifier(q queue.Client, d notify.Deliverer) notify.Notifier {
	if q != nil {
		return notify.QueueNotifier{Queue: q}
	}
	return notify.DirectNotifier{Deliverer: d}
}

func buildMeetings(ctx context.Context, cfg config.Config) (meeting.Provider, error) {
	if cfg.MeetingProvider != "http" {
		return meeting.NewStaticProvider(cfg.MeetingBaseURL), nil
	}
	return meeting.NewHTTPProvider(ctx, meeting.HTTPConfig{
		APIURL:       cfg.MeetingAPIURL,
		TokenURL:     cfg.MeetingTokenURL,
		ClientID:     cfg.MeetingClientID,
		ClientSecret: cfg.MeetingClientSecret,
	})
}

func buildAudit(sqlDB *sql.DB) audit.Recorder {
	if sqlDB == nil {
		return audit.LogRecorder{}
	}
	return audit.Multi{audit.LogRecorder{}, audit.PGRecorder{DB: sqlDB}}
}

func buildServices(app *App) {
	var (
		memberRepo    members.Repo
		jobRepo       jobs.Repo
		appRepo       applications.Repo
		interviewRepo interviews.Repo
		offerRepo     offers.Repo
	)
	if app.DB != nil {
		memberRepo = &members.PGRepo{DB: app.DB}
		jobRepo = &jobs.PGRepo{DB: app.DB}
		appRepo = &applications.PGRepo{DB: app.DB}
		interviewRepo = &interviews.PGRepo{DB: app.DB}
		offerRepo = &offers.PGRepo{DB: app.DB}
	} else {
		memberRepo = members.NewMemoryRepo(app.Memory)
		jobRepo = jobs.NewMemoryRepo(app.Memory)
		appRepo = applications.NewMemoryRepo(app.Memory)
		interviewRepo = interviews.NewMemoryRepo(app.Memory)
		offerRepo = offers.NewMemoryRepo(app.Memory)
	}

	memberSvc := members.NewService(memberRepo)
	app.Jobs = jobs.NewService(jobRepo, memberSvc, app.Outbox)
	app.Applications = applications.NewService(appRepo, app.Outbox)
	app.Interviews = interviews.NewService(interviewRepo, memberSvc, app.Meetings, app.Outbox)
	app.Offers = offers.NewService(offerRepo, app.Letters, app.Outbox)
}

// redisOrNil keeps a nil *redis.Client from becoming a non-nil interface.
func redisOrNil(c *redis.Client) redis.UniversalClient {
	if c == nil {
		return nil
	}
	return c
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
