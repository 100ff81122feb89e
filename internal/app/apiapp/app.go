package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/config"
	s3infra "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/infra/s3"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/jobs/cleanup"
	pgrepo "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/repo/postgres"
	redrepo "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/repo/redis"
	bookmarksvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/bookmarks"
	contentsvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/content"
	practicesvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/practice"
	progresssvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/progress"
	sessionsvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/session"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
	cleanupJob *cleanup.Job
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, cfg.HTTP.AllowedOrigins)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}
	if pool != nil {
		if err := pgrepo.Migrate(ctx, pool); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	statsCache := redrepo.NewStatsCacheRepo(redisClient, cfg.Practice.WeaknessCacheTTL)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	userRepo := pgrepo.NewUserRepo(pool)
	sessionRepo := pgrepo.NewSessionRepo(pool)
	certificationRepo := pgrepo.NewCertificationRepo(pool)
	topicRepo := pgrepo.NewTopicRepo(pool)
	questionRepo := pgrepo.NewQuestionRepo(pool)
	attemptRepo := pgrepo.NewAttemptRepo(pool)
	bookmarkRepo := pgrepo.NewBookmarkRepo(pool, questionRepo)

	jwtManager := sessionsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	sessionService := sessionsvc.NewService(sessionRepo, userRepo, cfg.Auth.RefreshTTL)
	progressService := progresssvc.NewService(attemptRepo, questionRepo, statsCache)
	practiceService := practicesvc.NewService(questionRepo, topicRepo, userRepo, progressService, cfg.Practice.RecentWindow)
	bookmarkService := bookmarksvc.NewService(bookmarkRepo, questionRepo)

	imageStorage := contentsvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	contentService := contentsvc.NewService(certificationRepo, topicRepo, questionRepo, userRepo, imageStorage)

	cleanupJob := cleanup.New(sessionService, cfg.Cleanup.Retention, cfg.Cleanup.Interval, log)

	RegisterRoutes(r, Dependencies{
		SessionService:  sessionService,
		JWTManager:      jwtManager,
		ProgressService: progressService,
		PracticeService: practiceService,
		BookmarkService: bookmarkService,
		ContentService:  contentService,
		Logger:          log,
		Config:          cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
		cleanupJob: cleanupJob,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// RunCleanupLoop blocks until ctx is cancelled, purging expired sessions on
// the configured interval. Skipped entirely when postgres is unavailable.
func (a *App) RunCleanupLoop(ctx context.Context) error {
	if a.postgres == nil {
		a.logger.Warn("cleanup loop disabled, postgres unavailable")
		return nil
	}
	return a.cleanupJob.Loop(ctx)
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
