// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fanwall-go/internal/config"
	"fanwall-go/internal/handler"
	"fanwall-go/internal/middleware"
	"fanwall-go/internal/model"
	"fanwall-go/internal/pipeline"
	"fanwall-go/internal/repository"
	"fanwall-go/internal/service"
	"fanwall-go/pkg/database"
	"fanwall-go/pkg/es"
	"fanwall-go/pkg/kafka"
	"fanwall-go/pkg/log"
	"fanwall-go/pkg/storage"
	"fanwall-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err := database.DB.AutoMigrate(
		&model.UploadLink{},
		&model.UploadItem{},
		&model.Notification{},
		&model.Playlist{},
		&model.PlaylistEntry{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	store, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("MinIO 初始化失败: %v", err)
	}
	indexer, err := es.NewClient(cfg.Elasticsearch)
	if err != nil {
		log.Fatalf("Elasticsearch 初始化失败: %v", err)
	}
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	// 4. 初始化 Repository
	retryer := repository.NewRetryer(cfg.Retry.Attempts, time.Duration(cfg.Retry.BaseDelayMs)*time.Millisecond)
	linkRepo := repository.NewLinkRepository(database.DB, retryer)
	uploadRepo := repository.NewUploadRepository(database.DB, database.RDB, retryer)
	notificationRepo := repository.NewNotificationRepository(database.DB, retryer)
	playlistRepo := repository.NewPlaylistRepository(database.DB, retryer)
	progressStore := repository.NewProgressStore(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	linkService := service.NewLinkService(linkRepo, nil)
	processingService := service.NewProcessingService(uploadRepo, progressStore, producer, store)
	uploadService := service.NewUploadService(uploadRepo, linkService, store, processingService)
	moderationService := service.NewModerationService(uploadRepo, notificationRepo, store, indexer)
	batchService := service.NewBatchService(uploadRepo, playlistRepo, uploadService, processingService)
	galleryService := service.NewGalleryService(uploadRepo, indexer)

	fanVideoPolicy := service.PolicyFromConfig(service.FanVideoPolicy(), cfg.Upload.FanVideo)
	generalPolicy := service.PolicyFromConfig(service.GeneralPolicy(), cfg.Upload.General)

	// 6. 初始化结果调和器并启动后台消费者
	reconciler := pipeline.NewReconciler(processingService, uploadRepo)
	go kafka.StartResultConsumer(cfg.Kafka, database.RDB, reconciler)

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	go reconciler.WatchStalled(watchCtx, 5*time.Minute, 30*time.Minute)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	authHandler := handler.NewAuthHandler(jwtManager, cfg.JWT.ProvisionKey)
	linkHandler := handler.NewLinkHandler(linkService)
	uploadHandler := handler.NewUploadHandler(uploadService, linkService, fanVideoPolicy, generalPolicy)
	processingHandler := handler.NewProcessingHandler(processingService)
	moderationHandler := handler.NewModerationHandler(moderationService)
	batchHandler := handler.NewBatchHandler(batchService)
	galleryHandler := handler.NewGalleryHandler(galleryService)

	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组（公开：凭 provision key 换取创作者令牌）
		auth := apiV1.Group("/auth")
		{
			auth.POST("/token", authHandler.IssueToken)
		}

		// 粉丝上传路由（公开：上传链接本身即是能力凭证）
		upload := apiV1.Group("/upload")
		{
			upload.GET("/:linkId", uploadHandler.ValidateLink)
			upload.POST("/:linkId", uploadHandler.Submit)
		}

		// 展示端相册路由（公开）
		gallery := apiV1.Group("/events/:eventId/gallery")
		{
			gallery.GET("", galleryHandler.Gallery)
			gallery.GET("/search", galleryHandler.Search)
		}

		// 进度推送 WebSocket（公开，uploadId 不可猜测）
		apiV1.GET("/events/:eventId/uploads/:uploadId/progress/stream", processingHandler.StreamProgress)

		// 创作者端路由，需要认证
		creative := apiV1.Group("/")
		creative.Use(middleware.AuthMiddleware(jwtManager))
		{
			// 上传链接管理
			creative.POST("/links", linkHandler.Issue)
			creative.GET("/links/:linkId", linkHandler.Get)
			creative.DELETE("/links/:linkId", linkHandler.Deactivate)
			creative.GET("/events/:eventId/links", linkHandler.ListByEvent)

			// 上传管理
			creative.GET("/events/:eventId/uploads", uploadHandler.ListByEvent)
			creative.GET("/events/:eventId/uploads/:uploadId", uploadHandler.Get)
			creative.PUT("/events/:eventId/uploads/:uploadId/status", uploadHandler.SetStatus)
			creative.DELETE("/events/:eventId/uploads/:uploadId", uploadHandler.Remove)
			creative.PUT("/events/:eventId/uploads/:uploadId/file", uploadHandler.Replace)
			creative.GET("/users/:userId/uploads", uploadHandler.ListByUser)

			// 异步处理
			creative.GET("/events/:eventId/uploads/:uploadId/processing", processingHandler.Status)
			creative.POST("/events/:eventId/uploads/:uploadId/processing/cancel", processingHandler.Cancel)
			creative.POST("/events/:eventId/uploads/:uploadId/processing/retry", processingHandler.Retry)
			creative.GET("/events/:eventId/uploads/:uploadId/progress", processingHandler.Progress)

			// 审核网关
			creative.GET("/events/:eventId/moderation", moderationHandler.ListPending)
			creative.POST("/events/:eventId/uploads/:uploadId/approve", moderationHandler.Approve)
			creative.POST("/events/:eventId/uploads/:uploadId/reject", moderationHandler.Reject)
			creative.GET("/events/:eventId/uploads/:uploadId/download-url", moderationHandler.DownloadURL)
			creative.GET("/users/:userId/notifications", moderationHandler.Notifications)

			// 批量操作与播放列表
			creative.POST("/events/:eventId/uploads/batch/status", batchHandler.UpdateStatuses)
			creative.POST("/events/:eventId/uploads/batch/process", batchHandler.ProcessUploads)
			creative.POST("/playlists", batchHandler.CreatePlaylist)
			creative.GET("/playlists/:playlistId", batchHandler.GetPlaylist)
			creative.POST("/playlists/:playlistId/entries", batchHandler.AddToPlaylist)
			creative.DELETE("/playlists/:playlistId/entries", batchHandler.RemoveFromPlaylist)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
