package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/solsticehq/core/internal/config"
	"github.com/solsticehq/core/internal/database"
	"github.com/solsticehq/core/internal/middleware"
	authmod "github.com/solsticehq/core/internal/modules/auth/auth"
	"github.com/solsticehq/core/internal/pkg/cluster"
	pkgcron "github.com/solsticehq/core/internal/pkg/cron"
	jwtpkg "github.com/solsticehq/core/internal/pkg/jwt"
	"github.com/solsticehq/core/internal/pkg/mail"
	"github.com/solsticehq/core/internal/pkg/onetime"
	pkgredis "github.com/solsticehq/core/internal/pkg/redis"
	"github.com/solsticehq/core/internal/pkg/session"
	"github.com/solsticehq/core/internal/pkg/storage"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	client   *mongo.Client
	db       *mongo.Database
	rc       *pkgredis.Client
	sessions *session.Manager
	sched    *pkgcron.Scheduler
	logger   *zap.Logger
	cancel   context.CancelFunc
}

// New initializes the application: config → mongo → redis → session
// subsystem → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())

	client, db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDB, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.EnsureIndexes(ctx, db); err != nil {
		cancel()
		return nil, fmt.Errorf("indexes: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))

	mailer := mail.New(mail.Config{
		Enable:    cfg.Mail.Enable,
		Host:      cfg.Mail.SMTPHost,
		Port:      cfg.Mail.SMTPPort,
		User:      cfg.Mail.SMTPUser,
		Pass:      cfg.Mail.SMTPPass,
		From:      cfg.Mail.From,
		UseResend: cfg.Mail.UseResend,
		ResendKey: cfg.Mail.ResendKey,
	})
	tokens := onetime.NewStore(rc)
	pfpStore := storage.NewS3(storage.S3Config{
		Endpoint:        cfg.S3.Endpoint,
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		PublicBaseURL:   cfg.S3.PublicBaseURL,
		PathStyle:       cfg.S3.PathStyle,
	})

	codec := jwtpkg.NewCodec(cfg.JWTSecret)
	store := session.NewMongoStore(db)
	authSvc := authmod.NewService(db, mailer, tokens, cfg.FrontendURL, cfg.Product, logger)
	sessions := session.NewManager(codec, store, authSvc, logger)

	sched := pkgcron.New()
	if cluster.ShouldRunCron() {
		registerCronJobs(sched, sessions, logger)
		go sched.Start(ctx)
	}

	app := &App{
		cfg:      cfg,
		router:   router,
		client:   client,
		db:       db,
		rc:       rc,
		sessions: sessions,
		sched:    sched,
		logger:   logger,
		cancel:   cancel,
	}
	app.registerRoutes(authSvc, mailer, tokens, pfpStore)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines and disconnects storage.
func (a *App) Shutdown() {
	a.cancel()
	if err := a.client.Disconnect(context.Background()); err != nil {
		a.logger.Warn("mongo disconnect failed", zap.Error(err))
	}
}
