package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CybraneX-team/IEDUP-LMS/config"
	"github.com/CybraneX-team/IEDUP-LMS/internal/auth"
	"github.com/CybraneX-team/IEDUP-LMS/internal/catalog"
	"github.com/CybraneX-team/IEDUP-LMS/internal/egress"
	"github.com/CybraneX-team/IEDUP-LMS/internal/janitor"
	"github.com/CybraneX-team/IEDUP-LMS/internal/middleware"
	"github.com/CybraneX-team/IEDUP-LMS/internal/multipart"
	"github.com/CybraneX-team/IEDUP-LMS/internal/notify"
	"github.com/CybraneX-team/IEDUP-LMS/internal/proxy"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/queue"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/redis"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is optional. Without it, recording-status events stay local to
	// this instance and failed aborts are not retried.
	var redisClient *redis.Client
	var jobs *queue.Queue
	if cfg.Redis.Addr != "" {
		redisClient, err = redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		jobs = queue.NewQueue(redisClient.Client, logger)
	} else {
		logger.Warn("REDIS_ADDR not set, running without cross-instance events and abort retries")
	}

	var hub *notify.Hub
	if redisClient != nil {
		pubsub := notify.NewRedisPubSub(redisClient.Client, logger)
		hub = notify.NewHub(logger, pubsub, pubsub)
	} else {
		hub = notify.NewHub(logger, nil, nil)
	}

	// Storage is optional at startup; handlers answer 503 until configured.
	var store *storage.S3
	if cfg.AWS.Configured() {
		store, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			SessionToken:         cfg.AWS.SessionToken,
			Bucket:               cfg.AWS.Bucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Fatal("failed to init S3 client", zap.Error(err))
		}
	} else {
		logger.Warn("AWS_REGION/AWS_S3_BUCKET not set, storage endpoints disabled")
	}

	var egressClient egress.Client
	if cfg.LiveKit.Configured() {
		egressClient = egress.NewClient(cfg.LiveKit)
	} else {
		logger.Warn("LIVEKIT_URL/LIVEKIT_API_KEY/LIVEKIT_API_SECRET not set, egress endpoints disabled")
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret)

	egressHandler := egress.NewHandler(egressClient, cfg.LiveKit, cfg.AWS, hub, logger)

	var catalogHandler *catalog.Handler
	if egressClient != nil {
		var objects catalog.ObjectLister
		if store != nil {
			objects = catalog.StoreLister{Store: store}
		}
		resolver := catalog.NewResolver(egressClient, objects, logger)
		catalogHandler = catalog.NewHandler(resolver, true, logger)
	} else {
		catalogHandler = catalog.NewHandler(nil, false, logger)
	}

	var multipartStore multipart.Store
	var proxyStore proxy.ObjectStore
	if store != nil {
		multipartStore = store
		proxyStore = store
	}
	var abortQueue multipart.AbortQueue
	if jobs != nil {
		abortQueue = jobs
	}
	multipartHandler := multipart.NewHandler(multipartStore, cfg.Upload, abortQueue, logger)
	proxyHandler := proxy.NewHandler(proxyStore, logger)

	if store != nil {
		var janitorJobs janitor.Jobs
		if jobs != nil {
			janitorJobs = jobs
		}
		worker := janitor.NewWorker(store, janitorJobs, 10*time.Minute, logger)
		go worker.Run(ctx)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ws", notify.ServeWs(hub, logger, func(token string) (string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.Identity, nil
	}))

	recordings := router.Group("/recordings")
	recordings.Use(middleware.JWT(jwtService))
	{
		hostOnly := recordings.Group("")
		hostOnly.Use(middleware.RequireRole(auth.RoleHost, auth.RoleCoHost))
		{
			hostOnly.GET("/list", catalogHandler.List)
			hostOnly.GET("/egress/start", egressHandler.Start)
			hostOnly.POST("/egress/start", egressHandler.Start)
			hostOnly.GET("/egress/stop", egressHandler.Stop)
			hostOnly.POST("/egress/stop", egressHandler.Stop)
		}

		recordings.POST("/multipart/initiate", multipartHandler.Initiate)
		recordings.POST("/multipart/complete", multipartHandler.Complete)
		recordings.POST("/multipart/abort", multipartHandler.Abort)
		recordings.POST("/upload", multipartHandler.UploadLegacy)
	}

	// Playback endpoints are unauthenticated: media elements cannot attach
	// Authorization headers, and keys are unguessable.
	router.GET("/recordings/stream", proxyHandler.Stream)
	router.GET("/recordings/download", proxyHandler.Download)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
