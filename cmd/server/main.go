package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gastbook/config"
	_ "gastbook/docs"
	"gastbook/internal/event"
	"gastbook/internal/handler"
	"gastbook/internal/model"
	"gastbook/internal/repository"
	"gastbook/internal/service"
	"gastbook/pkg/captcha"
	dbPkg "gastbook/pkg/db"
	"gastbook/pkg/jwt"
	"gastbook/pkg/logger"
	"gastbook/pkg/mailer"
	"gastbook/pkg/metrics"
	"gastbook/pkg/push"
	"gastbook/pkg/ratelimit"
	"gastbook/pkg/redis"
	"gastbook/pkg/response"
	"gastbook/pkg/storage"
	"gastbook/pkg/websocket"

	"github.com/gin-gonic/gin"
	gorillaHandlers "github.com/gorilla/handlers"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title						Gastbook API
// @version					1.0
// @description				Friends, feeds, groups, messages and notifications.
// @BasePath					/api/v1
// @securityDefinitions.apiKey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	cfg := config.LoadConfig()

	log := logger.InitLogger(cfg.Log)
	defer log.Sync()

	log.Info("gastbook starting",
		zap.String("port", cfg.Server.Port),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("database_host", cfg.Database.Host),
		zap.String("database_name", cfg.Database.Database),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("push_enabled", cfg.Push.Enabled),
		zap.String("log_level", cfg.Log.Level),
	)

	db, err := dbPkg.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer func() {
		if err := dbPkg.CloseDB(); err != nil {
			log.Error("close database", zap.Error(err))
		}
	}()
	if err := dbPkg.AutoMigrate(model.All()...); err != nil {
		log.Fatal("auto migrate failed", zap.Error(err))
	}
	log.Info("database ready")

	// redis is optional: counters, presence and caches fall back to the database
	if cfg.Redis.Enabled {
		if err := redis.InitRedis(context.Background(), cfg.Redis); err != nil {
			log.Warn("redis unavailable, continuing without it", zap.Error(err))
		} else {
			defer redis.Close()
			log.Info("redis ready")
		}
	}

	if cfg.Metrics.Enabled {
		metrics.InitPrometheus()
	}

	// repositories
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendshipRepository(db)
	postRepo := repository.NewPostRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	albumRepo := repository.NewAlbumRepository(db)

	store, err := storage.NewLocalStore(cfg.Storage)
	if err != nil {
		log.Fatal("storage init failed", zap.Error(err))
	}

	// delivery workers
	var pushProvider push.Provider = push.LogProvider{}
	if cfg.Push.Enabled {
		fcm, err := push.NewFCMProvider(context.Background(), cfg.Push.CredentialsFile)
		if err != nil {
			log.Warn("firebase unavailable, push goes to the log", zap.Error(err))
		} else {
			pushProvider = fcm
		}
	}
	var mail mailer.Mailer
	if cfg.Email.Enabled {
		mail = mailer.LogMailer{From: cfg.Email.From}
	}
	dispatcher := service.NewDispatcher(mail, pushProvider, cfg.Push.Workers, cfg.Push.QueueSize)
	dispatcher.Start()

	// services
	bus := event.NewBus()
	manager := websocket.GetManager()
	jwtSvc := jwt.NewJWTService(cfg.JWT)
	jwtSvc.SetAccountCheck(func(ctx context.Context, userID uint) error {
		_, err := userRepo.GetByID(ctx, userID)
		return err
	})
	verifier := captcha.NewVerifier(cfg.Captcha)

	friendSvc := service.NewFriendshipService(friendRepo, userRepo, bus, cfg.Feed.FriendCacheTTL)
	filter := service.NewVisibilityFilter(friendSvc)
	feedSvc := service.NewFeedService(postRepo, userRepo, groupRepo, friendSvc, cfg.Feed)
	postSvc := service.NewPostService(postRepo, engagementRepo, groupRepo, userRepo, filter, feedSvc, bus)
	groupSvc := service.NewGroupService(groupRepo, userRepo, bus)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, cfg.Feed.DefaultPageSize, cfg.Feed.MaxPageSize)
	messageSvc := service.NewMessageService(messageRepo, userRepo, friendSvc, manager, bus)
	userSvc := service.NewUserService(userRepo, friendSvc, jwtSvc, verifier)
	settingsSvc := service.NewSettingsService(userRepo, notificationRepo)
	searchSvc := service.NewSearchService(userRepo, groupRepo, groupSvc, postRepo, friendSvc, feedSvc)
	sidebarSvc := service.NewSidebarService(notificationSvc, messageSvc, friendRepo)
	albumSvc := service.NewAlbumService(albumRepo, userRepo, store)
	uploadSvc := service.NewUploadService(store, storage.ImageTypes)

	bus.Subscribe("notifications", service.NewFanout(notificationRepo, userRepo, manager, dispatcher), service.FanoutKinds()...)
	bus.Subscribe("realtime", service.NewRealtimeRelay(manager))
	if cfg.Metrics.Enabled {
		bus.Subscribe("metrics", event.SubscriberFunc(service.CountEvents))
	}

	handlers := &handler.Handlers{
		Users:         handler.NewUserHandler(userSvc, verifier),
		Friends:       handler.NewFriendHandler(friendSvc),
		Feed:          handler.NewFeedHandler(feedSvc),
		Posts:         handler.NewPostHandler(postSvc),
		Groups:        handler.NewGroupHandler(groupSvc),
		Messages:      handler.NewMessageHandler(messageSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc, sidebarSvc),
		Settings:      handler.NewSettingsHandler(settingsSvc),
		Search:        handler.NewSearchHandler(searchSvc),
		Albums:        handler.NewAlbumHandler(albumSvc, uploadSvc),
	}
	wsHandler := websocket.NewHandler(jwtSvc, cfg.WebSocket, manager, userSvc, messageSvc, cfg.CORS.AllowedOrigins)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(logger.RequestIDMiddleware())
	router.Use(logger.LoggerMiddleware())
	router.Use(logger.ErrorLoggerMiddleware())
	router.Use(gin.Recovery())
	if cfg.Metrics.Enabled {
		router.Use(metrics.Middleware())
		router.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	limiter := ratelimit.New(cfg.RateLimit)
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go limiter.RunCleanup(bgCtx)
	go cleanPresence(bgCtx)

	setupBasicRoutes(router)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/ws", wsHandler.ServeWS)
	router.Static(cfg.Storage.BaseURL, store.Dir())
	handler.RegisterRoutes(router, handlers, jwtSvc, limiter.Middleware())

	cors := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", logger.RequestIDHeader}),
		gorillaHandlers.AllowCredentials(),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      cors(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("http server listening", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}
	stopBackground()
	dispatcher.Stop()

	log.Info("server stopped")
}

func setupBasicRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		if err := dbPkg.HealthCheck(ctx); err != nil {
			status["status"] = "degraded"
			status["database"] = "down"
		}
		if redis.Enabled() {
			status["redis"] = "ok"
			if err := redis.HealthCheck(ctx); err != nil {
				status["status"] = "degraded"
				status["redis"] = "down"
			}
		}
		status["time"] = time.Now().UTC().Format(time.RFC3339)
		response.Success(c, status)
	})
}

// cleanPresence drops users whose presence key expired without a clean disconnect.
func cleanPresence(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := redis.CleanExpiredPresence(ctx); err != nil && !errors.Is(err, redis.ErrNotInitialized) {
				logger.Warn("clean presence", zap.Error(err))
			}
		}
	}
}
